package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

// Processor projects order events from SQS into the durable order history.
type Processor struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewProcessor creates a new worker processor writing history to store.
func NewProcessor(store storage.Storage, logger *zap.Logger) *Processor {
	return &Processor{store: store, logger: logger}
}

// Handle processes an SQS batch. Failed messages are reported individually so SQS retries only
// those; after too many receives they go to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Warn("order event not applied",
				zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev orders.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.OrderID == "" {
		return errors.New("invalid message body: missing order_id")
	}

	changed, err := orders.ApplyEvent(ctx, p.store, ev)
	switch {
	case errors.Is(err, orders.ErrInvalidTransition):
		// an earlier status event has not been applied yet
		return fmt.Errorf("out of order event for %s: %w", ev.OrderID, err)
	case errors.Is(err, orders.ErrNotFound):
		return fmt.Errorf("event for unknown order: %w", err)
	case err != nil:
		return fmt.Errorf("apply event: %w", err)
	}

	if changed {
		p.logger.Info("order history updated",
			zap.String("order_id", ev.OrderID),
			zap.String("status", string(ev.Status)),
			zap.String("history_status", string(ev.HistoryStatus)))
	} else {
		p.logger.Debug("duplicate or stale order event", zap.String("order_id", ev.OrderID))
	}
	return nil
}
