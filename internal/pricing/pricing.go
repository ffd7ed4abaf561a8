package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
)

// ErrInvalidInput reports a negative price, quantity or fee. Legitimate UI flows never produce one.
var ErrInvalidInput = errors.New("invalid pricing input")

// FeeSchedule parameterizes tax and the flat charge added to every bill.
type FeeSchedule struct {
	Name           string  `json:"name"`
	TaxLabel       string  `json:"taxLabel"`
	TaxRate        float64 `json:"taxRate"`
	FeeLabel       string  `json:"feeLabel"`
	FlatServiceFee int64   `json:"flatServiceFee"`
}

var (
	// DineIn is GST 5% plus a 20 service charge.
	DineIn = FeeSchedule{Name: "dine_in", TaxLabel: "GST", TaxRate: 0.05, FeeLabel: "Service Charge", FlatServiceFee: 20}
	// Delivery is 18% tax plus a 40 delivery fee.
	Delivery = FeeSchedule{Name: "delivery", TaxLabel: "Tax", TaxRate: 0.18, FeeLabel: "Delivery Fee", FlatServiceFee: 40}
)

// ScheduleByName resolves a configured schedule name.
func ScheduleByName(name string) (FeeSchedule, error) {
	switch name {
	case DineIn.Name:
		return DineIn, nil
	case Delivery.Name:
		return Delivery, nil
	default:
		return FeeSchedule{}, fmt.Errorf("unknown fee schedule %q", name)
	}
}

// Bill is derived on demand and never stored.
type Bill struct {
	Subtotal   int64 `json:"subtotal"`
	Tax        int64 `json:"tax"`
	ServiceFee int64 `json:"serviceFee"`
	Total      int64 `json:"total"`
}

// Subtotal is Σ(unitPrice × quantity).
func Subtotal(items []menu.LineItem) (int64, error) {
	var sum int64
	for _, it := range items {
		if it.Quantity < 0 {
			return 0, fmt.Errorf("%w: item %s has quantity %d", ErrInvalidInput, it.ItemID, it.Quantity)
		}
		if it.UnitPrice < 0 {
			return 0, fmt.Errorf("%w: item %s has unit price %d", ErrInvalidInput, it.ItemID, it.UnitPrice)
		}
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum, nil
}

// Tax rounds subtotal × rate half-up to a whole currency unit.
func Tax(subtotal int64, rate float64) int64 {
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}

// ComputeBill prices items under schedule. An empty item list is a valid bill of just the flat fee.
func ComputeBill(items []menu.LineItem, schedule FeeSchedule) (Bill, error) {
	if schedule.TaxRate < 0 || schedule.FlatServiceFee < 0 {
		return Bill{}, fmt.Errorf("%w: schedule %q has negative rate or fee", ErrInvalidInput, schedule.Name)
	}
	subtotal, err := Subtotal(items)
	if err != nil {
		return Bill{}, err
	}
	tax := Tax(subtotal, schedule.TaxRate)
	return Bill{
		Subtotal:   subtotal,
		Tax:        tax,
		ServiceFee: schedule.FlatServiceFee,
		Total:      subtotal + tax + schedule.FlatServiceFee,
	}, nil
}
