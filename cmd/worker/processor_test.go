package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awsDynamo "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

// --- mock implementations ---

// downDynamo fails every call, as a throttled or unreachable table would.
type downDynamo struct{}

func (downDynamo) GetItem(ctx context.Context, in *awsDynamo.GetItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.GetItemOutput, error) {
	return nil, errors.New("connection refused")
}
func (downDynamo) PutItem(ctx context.Context, in *awsDynamo.PutItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.PutItemOutput, error) {
	return nil, errors.New("connection refused")
}
func (downDynamo) DeleteItem(ctx context.Context, in *awsDynamo.DeleteItemInput, optFns ...func(*awsDynamo.Options)) (*awsDynamo.DeleteItemOutput, error) {
	return nil, errors.New("connection refused")
}

var placedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func message(t *testing.T, id string, ev orders.Event) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func placed(orderID string) orders.Event {
	o := orders.Order{
		OrderID:              orderID,
		Items:                []menu.LineItem{{ItemID: "3", Name: "Chicken Biryani", UnitPrice: 350, Quantity: 2}},
		TableNumber:          "6",
		OrderTime:            placedAt,
		Status:               orders.StatusConfirmed,
		EstimatedTimeMinutes: 19,
	}
	return orders.Event{OrderID: orderID, Status: orders.StatusConfirmed, HistoryStatus: orders.HistoryConfirmed, Occurred: placedAt, Order: &o}
}

func advanced(orderID string, s orders.Status, paid bool) orders.Event {
	return orders.Event{OrderID: orderID, Status: s, HistoryStatus: orders.HistoryStatusOf(s, paid), Occurred: placedAt.Add(time.Minute)}
}

// --- test cases ---

func TestWorkerProcess_ProjectsHistory(t *testing.T) {
	store := storage.NewMemory()
	p := NewProcessor(store, zaptest.NewLogger(t))

	ev := events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", placed("o1")),
		message(t, "m2", advanced("o1", orders.StatusPreparing, false)),
		message(t, "m3", advanced("o1", orders.StatusPreparing, false)),
		message(t, "m4", advanced("o1", orders.StatusReady, false)),
	}}
	resp, err := p.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}

	history, err := orders.LoadHistory(context.Background(), store)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 || history[0].Status != orders.StatusReady || history[0].TotalAmount != 700 {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestWorkerProcess_ReportsFailuresPerMessage(t *testing.T) {
	store := storage.NewMemory()
	p := NewProcessor(store, zaptest.NewLogger(t))

	ev := events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "bad-json", Body: "{"},
		{MessageId: "no-id", Body: `{"status":"ready"}`},
		message(t, "unknown", advanced("ghost", orders.StatusPreparing, false)),
		message(t, "ok", placed("o2")),
		message(t, "gap", advanced("o2", orders.StatusDelivered, false)),
		message(t, "next", advanced("o2", orders.StatusPreparing, false)),
	}}
	resp, _ := p.Handle(context.Background(), ev)

	failed := map[string]bool{}
	for _, f := range resp.BatchItemFailures {
		failed[f.ItemIdentifier] = true
	}
	for _, id := range []string{"bad-json", "no-id", "unknown", "gap"} {
		if !failed[id] {
			t.Fatalf("expected %s to be reported, got %+v", id, resp.BatchItemFailures)
		}
	}
	if failed["ok"] || failed["next"] || len(failed) != 4 {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
}

func TestWorkerProcess_RetriedGapApplies(t *testing.T) {
	store := storage.NewMemory()
	p := NewProcessor(store, zaptest.NewLogger(t))
	ctx := context.Background()

	resp, _ := p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", placed("o3")),
		message(t, "m2", advanced("o3", orders.StatusReady, false)),
	}})
	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected the ready event to wait, got %+v", resp.BatchItemFailures)
	}

	resp, _ = p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m3", advanced("o3", orders.StatusPreparing, false)),
		message(t, "m2", advanced("o3", orders.StatusReady, false)),
		message(t, "m4", advanced("o3", orders.StatusDelivered, false)),
		message(t, "m5", advanced("o3", orders.StatusDelivered, true)),
	}})
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("unexpected failures on retry: %+v", resp.BatchItemFailures)
	}
	history, _ := orders.LoadHistory(ctx, store)
	if history[0].HistoryStatus != orders.HistoryCompleted {
		t.Fatalf("expected completed, got %s", history[0].HistoryStatus)
	}
}

func TestWorkerProcess_StorageDown(t *testing.T) {
	p := NewProcessor(storage.NewDynamo(downDynamo{}, "orderflow", "restaurant"), zaptest.NewLogger(t))

	resp, err := p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		message(t, "m1", placed("o4")),
	}})
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "m1" {
		t.Fatalf("expected m1 to be retried, got %+v", resp.BatchItemFailures)
	}
}
