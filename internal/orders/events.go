package orders

import (
	"context"
	"time"
)

// Event describes a placement or status change. Order is set only on placement.
type Event struct {
	OrderID       string        `json:"order_id"`
	Status        Status        `json:"status"`
	HistoryStatus HistoryStatus `json:"history_status"`
	Occurred      time.Time     `json:"occurred"`
	Order         *Order        `json:"order,omitempty"`
}

// Notifier receives lifecycle events. Failures are logged and never roll back a transition.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}
