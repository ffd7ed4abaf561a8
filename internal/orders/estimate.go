package orders

import (
	"time"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
)

const (
	BaseEstimateMinutes = 15
	MinutesPerUnit      = 2
	MaxEstimateMinutes  = 45
)

// EstimateMinutes is min(15 + 2 × Σquantity, 45).
func EstimateMinutes(items []menu.LineItem) int {
	est := BaseEstimateMinutes
	for _, it := range items {
		if it.Quantity > 0 {
			est += it.Quantity * MinutesPerUnit
		}
		if est >= MaxEstimateMinutes {
			return MaxEstimateMinutes
		}
	}
	return est
}

// readyDelay is 80% of the estimate.
func readyDelay(estimateMinutes int) time.Duration {
	return time.Duration(estimateMinutes) * time.Minute * 8 / 10
}
