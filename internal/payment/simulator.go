// Package payment simulates the billing gateway: it prices the order again, counts down a fixed
// number of ticks on the scheduler and settles the attempt through an injectable outcome oracle.
package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
)

const failureReason = "Payment failed. Please try again."

// Orders is the part of the lifecycle manager a payment settles against.
type Orders interface {
	PayableOrder(ctx context.Context, orderID string) (orders.Order, error)
	CompletePayment(ctx context.Context, orderID string) error
}

// Cart is cleared after a successful payment.
type Cart interface {
	Clear(ctx context.Context) error
}

// Recorder observes settled attempts.
type Recorder interface {
	RecordPayment(method, outcome string, amount int64)
}

type Options struct {
	Schedule pricing.FeeSchedule
	Merchant Merchant
	Oracle   Oracle
	// Ticks of TickInterval before an attempt settles. Defaults to 5 ticks of 1s.
	Ticks        int
	TickInterval time.Duration
	Recorder     Recorder
	// OnSettled, when set, receives every settled attempt; err is a *FailedError on failure.
	OnSettled func(a Attempt, err error)
}

type attempt struct {
	Attempt
	timer clock.Timer
}

type Simulator struct {
	mu       sync.Mutex
	orders   Orders
	cart     Cart
	sched    clock.Scheduler
	logger   *zap.Logger
	opts     Options
	attempts map[string]*attempt
}

func NewSimulator(o Orders, c Cart, sched clock.Scheduler, logger *zap.Logger, opts Options) *Simulator {
	if opts.Schedule.Name == "" {
		opts.Schedule = pricing.DineIn
	}
	if opts.Merchant.VPA == "" {
		opts.Merchant = DefaultMerchant
	}
	if opts.Oracle == nil {
		opts.Oracle = DefaultOracle
	}
	if opts.Ticks <= 0 {
		opts.Ticks = 5
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	return &Simulator{
		orders:   o,
		cart:     c,
		sched:    sched,
		logger:   logger,
		opts:     opts,
		attempts: map[string]*attempt{},
	}
}

// Bill prices the current order from its items under the configured schedule.
func (s *Simulator) Bill(ctx context.Context, orderID string) (orders.Order, pricing.Bill, error) {
	order, err := s.orders.PayableOrder(ctx, orderID)
	if err != nil {
		return orders.Order{}, pricing.Bill{}, err
	}
	bill, err := pricing.ComputeBill(order.Items, s.opts.Schedule)
	if err != nil {
		return orders.Order{}, pricing.Bill{}, fmt.Errorf("price order %s: %w", orderID, err)
	}
	return order, bill, nil
}

// Pay starts a simulated payment and returns the pending attempt at once. A failed or settled
// attempt may be retried; a pending one may not.
func (s *Simulator) Pay(ctx context.Context, orderID string, method Method) (Attempt, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return Attempt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[orderID]; ok && a.Outcome == OutcomePending {
		return Attempt{}, fmt.Errorf("%s: %w", orderID, ErrInProgress)
	}

	order, bill, err := s.Bill(ctx, orderID)
	if err != nil {
		return Attempt{}, err
	}

	a := &attempt{Attempt: Attempt{
		OrderID:        orderID,
		Amount:         bill.Total,
		Method:         method,
		Outcome:        OutcomePending,
		RemainingTicks: s.opts.Ticks,
		Reference:      Reference(s.opts.Merchant, order, bill),
		StartedAt:      s.sched.Now(),
	}}
	a.timer = s.sched.AfterFunc(s.opts.TickInterval, func() { s.tick(a) })
	s.attempts[orderID] = a

	s.logger.Info("payment started",
		zap.String("order_id", orderID),
		zap.String("method", string(method)),
		zap.Int64("amount", bill.Total))
	return a.Attempt, nil
}

func (s *Simulator) tick(a *attempt) {
	s.mu.Lock()
	if s.attempts[a.OrderID] != a || a.Outcome != OutcomePending {
		s.mu.Unlock()
		return
	}
	a.RemainingTicks--
	if a.RemainingTicks > 0 {
		a.timer = s.sched.AfterFunc(s.opts.TickInterval, func() { s.tick(a) })
		s.mu.Unlock()
		return
	}
	a.timer = nil
	orderID := a.OrderID
	s.mu.Unlock()

	s.settle(a, s.opts.Oracle(orderID))
}

func (s *Simulator) settle(a *attempt, accepted bool) {
	ctx := context.Background()
	var failure *FailedError
	if !accepted {
		failure = &FailedError{OrderID: a.OrderID, Reason: failureReason}
	} else if err := s.orders.CompletePayment(ctx, a.OrderID); err != nil {
		failure = &FailedError{OrderID: a.OrderID, Reason: err.Error()}
	} else if err := s.cart.Clear(ctx); err != nil {
		// the order is already paid; a stale cart is only logged
		s.logger.Warn("cart not cleared after payment", zap.String("order_id", a.OrderID), zap.Error(err))
	}

	s.mu.Lock()
	if failure != nil {
		a.Outcome = OutcomeFailed
		a.Reason = failure.Reason
	} else {
		a.Outcome = OutcomeSuccess
	}
	settled := a.Attempt
	s.mu.Unlock()

	if failure != nil {
		s.logger.Info("payment failed", zap.String("order_id", settled.OrderID), zap.String("reason", settled.Reason))
	} else {
		s.logger.Info("payment succeeded", zap.String("order_id", settled.OrderID), zap.Int64("amount", settled.Amount))
	}
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordPayment(string(settled.Method), string(settled.Outcome), settled.Amount)
	}
	if s.opts.OnSettled != nil {
		var err error
		if failure != nil {
			err = failure
		}
		s.opts.OnSettled(settled, err)
	}
}

// Attempt returns the latest attempt for orderID. A failed attempt also returns its *FailedError.
func (s *Simulator) Attempt(orderID string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[orderID]
	if !ok {
		return Attempt{}, fmt.Errorf("%s: %w", orderID, ErrNoAttempt)
	}
	if a.Outcome == OutcomeFailed {
		return a.Attempt, &FailedError{OrderID: orderID, Reason: a.Reason}
	}
	return a.Attempt, nil
}

// Cancel abandons a pending attempt without settling it.
func (s *Simulator) Cancel(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[orderID]
	if !ok || a.Outcome != OutcomePending {
		return false
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	delete(s.attempts, orderID)
	return true
}

// Close abandons every pending attempt.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.attempts {
		if a.timer != nil {
			a.timer.Stop()
		}
		if a.Outcome == OutcomePending {
			delete(s.attempts, id)
		}
	}
}
