package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/go-table-orderflow/internal/cart"
	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

type countingRecorder struct {
	calls []string
}

func (r *countingRecorder) RecordPayment(method, outcome string, amount int64) {
	r.calls = append(r.calls, method+":"+outcome)
}

type fixture struct {
	ctx      context.Context
	clock    *clock.Fake
	manager  *orders.Manager
	cart     *cart.Store
	sim      *Simulator
	recorder *countingRecorder
	orderID  string
}

// newFixture places an order under id and advances it to ready.
func newFixture(t *testing.T, id string, opts Options) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	fake := clock.NewFake(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	st := storage.NewMemory()

	m := orders.NewManager(st, fake, logger, orders.Options{NewID: func() string { return id }})
	t.Cleanup(m.Close)
	c, err := cart.NewStore(ctx, st, logger)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	catalog := menu.DefaultCatalog()
	for _, itemID := range []string{"1", "1", "7"} {
		it, _ := catalog.Get(itemID)
		if err := c.Add(ctx, it); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	orderID, err := m.PlaceOrder(ctx, c.Items(), orders.CustomerInfo{TableNumber: "7"})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	fake.Advance(time.Hour)

	rec := &countingRecorder{}
	opts.Recorder = rec
	sim := NewSimulator(m, c, fake, logger, opts)
	t.Cleanup(sim.Close)
	return &fixture{ctx: ctx, clock: fake, manager: m, cart: c, sim: sim, recorder: rec, orderID: orderID}
}

func TestPay_SuccessClearsOrderAndCart(t *testing.T) {
	f := newFixture(t, "ORD-A", Options{})

	a, err := f.sim.Pay(f.ctx, f.orderID, MethodUPI)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if a.Outcome != OutcomePending || a.Amount != 776 || a.RemainingTicks != 5 {
		t.Fatalf("unexpected attempt: %+v", a)
	}

	f.clock.Advance(4 * time.Second)
	if a, _ := f.sim.Attempt(f.orderID); a.Outcome != OutcomePending || a.RemainingTicks != 1 {
		t.Fatalf("expected pending with one tick left, got %+v", a)
	}

	f.clock.Advance(time.Second)
	a, err = f.sim.Attempt(f.orderID)
	if err != nil || a.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %+v, %v", a, err)
	}
	if _, err := f.manager.Current(f.ctx); !errors.Is(err, orders.ErrNoCurrentOrder) {
		t.Fatalf("expected current order cleared, got %v", err)
	}
	if f.cart.TotalItems() != 0 {
		t.Fatalf("expected empty cart, got %d items", f.cart.TotalItems())
	}
	if len(f.recorder.calls) != 1 || f.recorder.calls[0] != "upi:success" {
		t.Fatalf("unexpected recorder calls: %v", f.recorder.calls)
	}
}

func TestPay_FailureLeavesStateAndIsDeterministic(t *testing.T) {
	// "ORD-B" sums to 340
	f := newFixture(t, "ORD-B", Options{})

	var settled []error
	f.sim.opts.OnSettled = func(_ Attempt, err error) { settled = append(settled, err) }

	for round := 0; round < 2; round++ {
		if _, err := f.sim.Pay(f.ctx, f.orderID, MethodCard); err != nil {
			t.Fatalf("round %d: pay: %v", round, err)
		}
		f.clock.Advance(5 * time.Second)

		a, err := f.sim.Attempt(f.orderID)
		var failed *FailedError
		if !errors.As(err, &failed) || !errors.Is(err, ErrPaymentFailed) {
			t.Fatalf("round %d: expected FailedError, got %v", round, err)
		}
		if a.Outcome != OutcomeFailed || failed.Reason == "" {
			t.Fatalf("round %d: unexpected attempt %+v", round, a)
		}
	}

	if len(settled) != 2 || settled[0] == nil || settled[1] == nil {
		t.Fatalf("expected two failed settlements, got %v", settled)
	}
	o, err := f.manager.Current(f.ctx)
	if err != nil || o.Status != orders.StatusReady {
		t.Fatalf("expected order untouched and ready, got %+v, %v", o, err)
	}
	if f.cart.TotalItems() != 3 {
		t.Fatalf("expected cart untouched, got %d items", f.cart.TotalItems())
	}
}

func TestPay_InjectedOracle(t *testing.T) {
	f := newFixture(t, "ORD-B", Options{Oracle: func(string) bool { return true }, Ticks: 2, TickInterval: 10 * time.Second})

	if _, err := f.sim.Pay(f.ctx, f.orderID, MethodCash); err != nil {
		t.Fatalf("pay: %v", err)
	}
	f.clock.Advance(20 * time.Second)
	if a, err := f.sim.Attempt(f.orderID); err != nil || a.Outcome != OutcomeSuccess {
		t.Fatalf("expected success from injected oracle, got %+v, %v", a, err)
	}
}

func TestPay_RejectsConcurrentAttempt(t *testing.T) {
	f := newFixture(t, "ORD-A", Options{})

	if _, err := f.sim.Pay(f.ctx, f.orderID, MethodUPI); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := f.sim.Pay(f.ctx, f.orderID, MethodCard); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
}

func TestPay_Validation(t *testing.T) {
	f := newFixture(t, "ORD-A", Options{})

	if _, err := f.sim.Pay(f.ctx, f.orderID, Method("cheque")); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	if _, err := f.sim.Pay(f.ctx, "ORD-other", MethodUPI); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.sim.Attempt("ORD-other"); !errors.Is(err, ErrNoAttempt) {
		t.Fatalf("expected ErrNoAttempt, got %v", err)
	}
}

func TestPay_NotPayableBeforeReady(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	fake := clock.NewFake(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	st := storage.NewMemory()
	m := orders.NewManager(st, fake, logger, orders.Options{})
	t.Cleanup(m.Close)
	c, _ := cart.NewStore(ctx, st, logger)

	id, err := m.PlaceOrder(ctx, []menu.LineItem{{ItemID: "8", UnitPrice: 60, Quantity: 1}}, orders.CustomerInfo{})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	sim := NewSimulator(m, c, fake, logger, Options{})
	if _, err := sim.Pay(ctx, id, MethodUPI); !errors.Is(err, orders.ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, "ORD-A", Options{})

	if _, err := f.sim.Pay(f.ctx, f.orderID, MethodUPI); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !f.sim.Cancel(f.orderID) {
		t.Fatal("expected pending attempt to be cancelled")
	}
	f.clock.Advance(time.Minute)
	if _, err := f.manager.Current(f.ctx); err != nil {
		t.Fatalf("expected order still current, got %v", err)
	}
	if len(f.recorder.calls) != 0 {
		t.Fatalf("cancelled attempt must not settle, got %v", f.recorder.calls)
	}
}

func TestBill_UsesSchedule(t *testing.T) {
	f := newFixture(t, "ORD-A", Options{})
	_, bill, err := f.sim.Bill(f.ctx, f.orderID)
	if err != nil {
		t.Fatalf("bill: %v", err)
	}
	if bill.Subtotal != 720 || bill.Tax != 36 || bill.ServiceFee != 20 || bill.Total != 776 {
		t.Fatalf("unexpected bill: %+v", bill)
	}
}
