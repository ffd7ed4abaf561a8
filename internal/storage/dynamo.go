package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoAPI is the DynamoDB surface Dynamo needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error)
	PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error)
}

// Entry is the item shape of the storage table.
type Entry struct {
	StorageKey string    `dynamodbav:"storage_key"` // PK: <session>#<key>
	SessionID  string    `dynamodbav:"session_id"`
	Key        string    `dynamodbav:"key"`
	Value      string    `dynamodbav:"value"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

// Dynamo stores one session's keys in a DynamoDB table.
type Dynamo struct {
	client    DynamoAPI
	tableName string
	sessionID string
	nowFunc   func() time.Time
}

// NewDynamo creates a Dynamo storage scoped to sessionID.
func NewDynamo(client DynamoAPI, tableName, sessionID string) *Dynamo {
	return &Dynamo{
		client:    client,
		tableName: tableName,
		sessionID: sessionID,
		nowFunc:   time.Now,
	}
}

func (d *Dynamo) pk(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"storage_key": &types.AttributeValueMemberS{Value: d.sessionID + "#" + key},
	}
}

func (d *Dynamo) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &d.tableName,
		Key:            d.pk(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return "", false, unavailable("get item", key, err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return "", false, fmt.Errorf("unmarshal entry %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (d *Dynamo) Set(ctx context.Context, key, value string) error {
	item, err := attributevalue.MarshalMap(Entry{
		StorageKey: d.sessionID + "#" + key,
		SessionID:  d.sessionID,
		Key:        key,
		Value:      value,
		UpdatedAt:  d.nowFunc(),
	})
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", key, err)
	}
	if _, err := d.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &d.tableName,
		Item:      item,
	}); err != nil {
		return unavailable("put item", key, err)
	}
	return nil
}

func (d *Dynamo) Remove(ctx context.Context, key string) error {
	if _, err := d.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &d.tableName,
		Key:       d.pk(key),
	}); err != nil {
		return unavailable("delete item", key, err)
	}
	return nil
}

// unavailable wraps a DynamoDB failure in ErrUnavailable, keeping the service error code when there is one.
func unavailable(op, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s %s (%s): %w: %w", op, key, apiErr.ErrorCode(), ErrUnavailable, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, key, ErrUnavailable, err)
}

func awsBool(b bool) *bool { return &b }
