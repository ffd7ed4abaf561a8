package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

// AWSClients are the service clients behind the session storage table, the order-event queue
// and the status metrics.
type AWSClients struct {
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewAWSClients builds every client from one shared config.
func NewAWSClients(ctx context.Context, region, endpoint string) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return &AWSClients{
		DynamoDB:   dynamodb.NewFromConfig(cfg),
		SQS:        sqs.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}

// Notifiers returns the order-event sinks that are configured: an SQS publisher when queueURL is
// set and a CloudWatch status counter when namespace is set. A nil receiver has none.
func (c *AWSClients) Notifiers(queueURL, namespace string) []orders.Notifier {
	if c == nil {
		return nil
	}
	var out []orders.Notifier
	if queueURL != "" {
		out = append(out, NewPublisher(c.SQS, queueURL))
	}
	if namespace != "" {
		out = append(out, NewStatusMetrics(c.CloudWatch, namespace))
	}
	return out
}
