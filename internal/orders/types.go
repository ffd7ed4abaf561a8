package orders

import (
	"time"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
)

// Status is the lifecycle vocabulary of a placed order. Transitions move strictly one step forward.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Progression lists the lifecycle statuses in order.
var Progression = []Status{StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered}

// Index is the position of s in Progression, or -1 for an unknown status.
func (s Status) Index() int {
	for i, p := range Progression {
		if p == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool { return s.Index() >= 0 }

func (s Status) Terminal() bool { return s == StatusDelivered }

// Next returns the status after s; ok is false for terminal or unknown statuses.
func (s Status) Next() (Status, bool) {
	i := s.Index()
	if i < 0 || i == len(Progression)-1 {
		return "", false
	}
	return Progression[i+1], true
}

// HistoryStatus is the vocabulary of the historical orders list. It is a separate enumeration
// from Status; HistoryStatusOf maps between them.
type HistoryStatus string

const (
	HistoryPending   HistoryStatus = "pending"
	HistoryConfirmed HistoryStatus = "confirmed"
	HistoryPreparing HistoryStatus = "preparing"
	HistoryReady     HistoryStatus = "ready"
	HistoryCompleted HistoryStatus = "completed"
	HistoryCancelled HistoryStatus = "cancelled"
)

// HistoryStatusOf maps a lifecycle status to its history label. A delivered order stays
// "ready" until its bill is paid.
func HistoryStatusOf(s Status, paid bool) HistoryStatus {
	if paid {
		return HistoryCompleted
	}
	switch s {
	case StatusConfirmed:
		return HistoryConfirmed
	case StatusPreparing:
		return HistoryPreparing
	case StatusReady, StatusDelivered:
		return HistoryReady
	default:
		return HistoryPending
	}
}

// CustomerInfo is the optional metadata collected at checkout.
type CustomerInfo struct {
	Name                string `json:"name,omitempty"`
	Phone               string `json:"phone,omitempty"`
	TableNumber         string `json:"tableNumber,omitempty"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// Order is the persisted "current order" record.
type Order struct {
	OrderID              string          `json:"orderId"`
	Items                []menu.LineItem `json:"items"`
	TableNumber          string          `json:"tableNumber"`
	CustomerName         string          `json:"customerName,omitempty"`
	CustomerPhone        string          `json:"customerPhone,omitempty"`
	SpecialInstructions  string          `json:"specialInstructions,omitempty"`
	OrderTime            time.Time       `json:"orderTime"`
	Status               Status          `json:"status"`
	EstimatedTimeMinutes int             `json:"estimatedTime"`
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	o.Items = menu.CloneItems(o.Items)
	return o
}

// HistoricalOrder is an entry of the order history list.
type HistoricalOrder struct {
	Order
	HistoryStatus HistoryStatus `json:"historyStatus"`
	TotalAmount   int64         `json:"totalAmount"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// PendingOrder is a checkout staged behind the login gate. It has no identity until promoted.
type PendingOrder struct {
	Items    []menu.LineItem `json:"items"`
	Customer CustomerInfo    `json:"customer"`
	StagedAt time.Time       `json:"stagedAt"`
}
