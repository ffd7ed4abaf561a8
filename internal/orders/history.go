package orders

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

// ApplyEvent projects ev into the history kept in st. It reports whether the history changed.
//
// Placement events insert the order once. Status events apply only as the next step forward;
// duplicates and stale events are ignored, while an event that skips a step returns
// ErrInvalidTransition so the caller can retry it after the missing one arrives.
func ApplyEvent(ctx context.Context, st storage.Storage, ev Event) (bool, error) {
	history, err := LoadHistory(ctx, st)
	if err != nil {
		return false, err
	}
	i := indexOfHistory(history, ev.OrderID)

	if ev.Order != nil {
		if i >= 0 {
			return false, nil
		}
		subtotal, err := pricing.Subtotal(ev.Order.Items)
		if err != nil {
			return false, err
		}
		history = append(history, HistoricalOrder{
			Order:         ev.Order.Clone(),
			HistoryStatus: HistoryStatusOf(ev.Order.Status, false),
			TotalAmount:   subtotal,
			UpdatedAt:     ev.Occurred,
		})
		return true, saveHistory(ctx, st, history)
	}

	if i < 0 {
		return false, fmt.Errorf("%s: %w", ev.OrderID, ErrNotFound)
	}
	if !ev.Status.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, ev.Status)
	}

	e := &history[i]
	switch {
	case e.HistoryStatus == HistoryCompleted:
		return false, nil
	case ev.Status.Index() == e.Status.Index()+1:
		e.Status = ev.Status
		e.HistoryStatus = ev.HistoryStatus
	case ev.Status == e.Status && ev.HistoryStatus == HistoryCompleted:
		e.HistoryStatus = HistoryCompleted
	case ev.Status.Index() <= e.Status.Index():
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, ev.Status)
	}
	e.UpdatedAt = ev.Occurred
	return true, saveHistory(ctx, st, history)
}

func saveHistory(ctx context.Context, st storage.Storage, history []HistoricalOrder) error {
	if err := storage.SetJSON(ctx, st, storage.KeyOrderHistory, history); err != nil {
		return fmt.Errorf("persist order history: %w", err)
	}
	return nil
}
