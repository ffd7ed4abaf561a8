package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

func TestPrometheusMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/orders/:id", "204"))
	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/orders/:id", "204"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests recorded under the route template, got %v", after-before)
	}
}

func TestOrderEvents(t *testing.T) {
	c := orderTransitions.WithLabelValues("preparing", "preparing")
	before := testutil.ToFloat64(c)
	ev := orders.Event{OrderID: "o1", Status: orders.StatusPreparing, HistoryStatus: orders.HistoryPreparing}
	if err := (OrderEvents{}).Notify(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("expected one transition, got %v", got)
	}
}

func TestPayments(t *testing.T) {
	amountBefore := testutil.ToFloat64(paidAmount)
	failedBefore := testutil.ToFloat64(paymentAttempts.WithLabelValues("upi", "failed"))

	Payments{}.RecordPayment("upi", "failed", 776)
	Payments{}.RecordPayment("upi", "success", 776)

	if got := testutil.ToFloat64(paidAmount) - amountBefore; got != 776 {
		t.Fatalf("expected only the successful amount, got %v", got)
	}
	if got := testutil.ToFloat64(paymentAttempts.WithLabelValues("upi", "failed")) - failedBefore; got != 1 {
		t.Fatalf("expected one failed attempt, got %v", got)
	}
}
