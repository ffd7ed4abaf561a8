package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path", "status"},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderflow_order_transitions_total",
			Help: "Order placements and status transitions, by resulting status",
		},
		[]string{"status", "history_status"},
	)

	paymentAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderflow_payment_attempts_total",
			Help: "Settled payment attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	paidAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderflow_paid_amount_total",
			Help: "Sum of successfully paid bill totals",
		},
	)
)

// PrometheusMiddleware records request counts and latencies per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// OrderEvents counts lifecycle events. It satisfies orders.Notifier.
type OrderEvents struct{}

func (OrderEvents) Notify(_ context.Context, ev orders.Event) error {
	orderTransitions.WithLabelValues(string(ev.Status), string(ev.HistoryStatus)).Inc()
	return nil
}

// Payments records settled payment attempts.
type Payments struct{}

func (Payments) RecordPayment(method, outcome string, amount int64) {
	paymentAttempts.WithLabelValues(method, outcome).Inc()
	if outcome == "success" {
		paidAmount.Add(float64(amount))
	}
}
