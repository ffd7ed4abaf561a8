// Package tracking projects a placed order into the progress view shown while the diner waits.
package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
)

// Source is the part of the order lifecycle the view model reads from.
type Source interface {
	Get(ctx context.Context, orderID string) (orders.Order, error)
	Resume(ctx context.Context, orderID string) error
	Release(orderID string)
	Subscribe(orderID string, fn func(orders.Order)) func()
}

var stepLabels = map[orders.Status]string{
	orders.StatusConfirmed: "Order Confirmed",
	orders.StatusPreparing: "Preparing",
	orders.StatusReady:     "Ready to Serve",
	orders.StatusDelivered: "Delivered",
}

type Step struct {
	Status orders.Status `json:"status"`
	Label  string        `json:"label"`
	Done   bool          `json:"done"`
	Active bool          `json:"active"`
}

// View is a point-in-time projection of an order.
type View struct {
	Order                orders.Order `json:"order"`
	StepIndex            int          `json:"stepIndex"`
	Steps                []Step       `json:"steps"`
	TimeRemainingMinutes int          `json:"timeRemaining"`
	Delivered            bool         `json:"delivered"`
}

// RemainingAt is the estimate minus whole minutes elapsed since the order time, never below zero.
func RemainingAt(o orders.Order, now time.Time) int {
	elapsed := int(now.Sub(o.OrderTime) / time.Minute)
	if elapsed < 0 {
		elapsed = 0
	}
	if r := o.EstimatedTimeMinutes - elapsed; r > 0 {
		return r
	}
	return 0
}

func project(o orders.Order, remaining int) View {
	idx := o.Status.Index()
	steps := make([]Step, len(orders.Progression))
	for i, s := range orders.Progression {
		steps[i] = Step{Status: s, Label: stepLabels[s], Done: i <= idx, Active: i == idx}
	}
	return View{
		Order:                o,
		StepIndex:            idx,
		Steps:                steps,
		TimeRemainingMinutes: remaining,
		Delivered:            o.Status.Terminal(),
	}
}

// ViewModel follows one order: it keeps the lifecycle's transitions armed while open, mirrors every
// status change, and counts the remaining time down once a minute until the order is delivered.
type ViewModel struct {
	mu        sync.Mutex
	src       Source
	sched     clock.Scheduler
	logger    *zap.Logger
	order     orders.Order
	remaining int
	tick      clock.Timer
	unsub     func()
	onChange  func(View)
	closed    bool
}

// Open starts tracking orderID. Close must be called when the view is discarded.
func Open(ctx context.Context, src Source, sched clock.Scheduler, logger *zap.Logger, orderID string) (*ViewModel, error) {
	o, err := src.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("open tracking: %w", err)
	}
	if err := src.Resume(ctx, orderID); err != nil {
		return nil, fmt.Errorf("resume %s: %w", orderID, err)
	}

	vm := &ViewModel{
		src:       src,
		sched:     sched,
		logger:    logger,
		order:     o,
		remaining: RemainingAt(o, sched.Now()),
	}
	vm.mu.Lock()
	vm.unsub = src.Subscribe(orderID, vm.observe)
	if !o.Status.Terminal() {
		vm.tick = sched.AfterFunc(time.Minute, vm.countdown)
	}
	vm.mu.Unlock()

	logger.Debug("tracking opened", zap.String("order_id", orderID), zap.Int("remaining", vm.remaining))
	return vm, nil
}

// OnChange registers fn to receive the view after every status change and countdown tick.
func (vm *ViewModel) OnChange(fn func(View)) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.onChange = fn
}

func (vm *ViewModel) View() View {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return project(vm.order.Clone(), vm.remaining)
}

func (vm *ViewModel) observe(o orders.Order) {
	vm.mu.Lock()
	if vm.closed || o.Status.Index() < vm.order.Status.Index() {
		vm.mu.Unlock()
		return
	}
	vm.order = o
	if o.Status.Terminal() && vm.tick != nil {
		vm.tick.Stop()
		vm.tick = nil
	}
	v, fn := project(o.Clone(), vm.remaining), vm.onChange
	vm.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

func (vm *ViewModel) countdown() {
	vm.mu.Lock()
	if vm.closed || vm.order.Status.Terminal() {
		vm.mu.Unlock()
		return
	}
	if vm.remaining > 0 {
		vm.remaining--
	}
	vm.tick = vm.sched.AfterFunc(time.Minute, vm.countdown)
	v, fn := project(vm.order.Clone(), vm.remaining), vm.onChange
	vm.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}

// Close stops the countdown and cancels the order's pending transitions.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	if vm.tick != nil {
		vm.tick.Stop()
		vm.tick = nil
	}
	unsub, id := vm.unsub, vm.order.OrderID
	vm.mu.Unlock()

	unsub()
	vm.src.Release(id)
	vm.logger.Debug("tracking closed", zap.String("order_id", id))
}
