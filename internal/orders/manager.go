package orders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

// Options tune the scheduled lifecycle.
type Options struct {
	// PreparingDelay is the delay before confirmed -> preparing. Defaults to 2s.
	PreparingDelay time.Duration
	// AutoDeliverAfter schedules ready -> delivered this long after ready. Zero leaves delivery
	// to MarkDelivered.
	AutoDeliverAfter time.Duration
	// NewID generates order ids. Defaults to NewOrderID.
	NewID     func() string
	Notifiers []Notifier
}

// armed is the one pending transition of an order. cancelled is set under the manager lock when
// the transition is released, so a callback that already started still does nothing.
type armed struct {
	timer     clock.Timer
	cancelled bool
}

// NewOrderID returns a display and URL safe unique id.
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Manager owns the current order slot, the order history and the scheduled transitions.
type Manager struct {
	mu      sync.Mutex
	storage storage.Storage
	sched   clock.Scheduler
	logger  *zap.Logger
	opts    Options

	timers    map[string]*armed
	observers map[string]map[int]func(Order)
	nextObs   int
}

func NewManager(st storage.Storage, sched clock.Scheduler, logger *zap.Logger, opts Options) *Manager {
	if opts.PreparingDelay <= 0 {
		opts.PreparingDelay = 2 * time.Second
	}
	if opts.NewID == nil {
		opts.NewID = NewOrderID
	}
	return &Manager{
		storage:   st,
		sched:     sched,
		logger:    logger,
		opts:      opts,
		timers:    map[string]*armed{},
		observers: map[string]map[int]func(Order){},
	}
}

func validateItems(items []menu.LineItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %s has quantity %d", pricing.ErrInvalidInput, it.ItemID, it.Quantity)
		}
	}
	_, err := pricing.Subtotal(items)
	return err
}

// PlaceOrder creates the current order from a snapshot of items and schedules its progression.
func (m *Manager) PlaceOrder(ctx context.Context, items []menu.LineItem, info CustomerInfo) (string, error) {
	if err := validateItems(items); err != nil {
		return "", err
	}

	snapshot := menu.CloneItems(items)
	order := Order{
		OrderID:              m.opts.NewID(),
		Items:                snapshot,
		TableNumber:          info.TableNumber,
		CustomerName:         info.Name,
		CustomerPhone:        info.Phone,
		SpecialInstructions:  info.SpecialInstructions,
		OrderTime:            m.sched.Now(),
		Status:               StatusConfirmed,
		EstimatedTimeMinutes: EstimateMinutes(snapshot),
	}
	subtotal, _ := pricing.Subtotal(snapshot)

	m.mu.Lock()
	history, err := m.loadHistory(ctx)
	if err != nil {
		m.mu.Unlock()
		return "", err
	}
	history = append(history, HistoricalOrder{
		Order:         order.Clone(),
		HistoryStatus: HistoryStatusOf(order.Status, false),
		TotalAmount:   subtotal,
		UpdatedAt:     order.OrderTime,
	})
	if err := storage.SetJSON(ctx, m.storage, storage.KeyOrderHistory, history); err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("persist order history: %w", err)
	}
	if err := storage.SetJSON(ctx, m.storage, storage.KeyCurrentOrder, order); err != nil {
		m.mu.Unlock()
		return "", fmt.Errorf("persist current order: %w", err)
	}
	m.scheduleLocked(order)
	m.mu.Unlock()

	m.logger.Info("order placed",
		zap.String("order_id", order.OrderID),
		zap.Int("items", len(order.Items)),
		zap.Int("estimated_minutes", order.EstimatedTimeMinutes))

	placed := order.Clone()
	m.emit(ctx, Event{
		OrderID:       order.OrderID,
		Status:        order.Status,
		HistoryStatus: HistoryStatusOf(order.Status, false),
		Occurred:      order.OrderTime,
		Order:         &placed,
	})
	return order.OrderID, nil
}

// scheduleLocked arms the next transition of o relative to its order time. The transition after
// it is armed only once this one has been applied, so overdue steps catch up one at a time.
func (m *Manager) scheduleLocked(o Order) {
	if o.Status.Terminal() || m.timers[o.OrderID] != nil {
		return
	}
	preparingAt := m.opts.PreparingDelay
	readyAt := readyDelay(o.EstimatedTimeMinutes)
	if readyAt < preparingAt {
		readyAt = preparingAt
	}

	var (
		at time.Duration
		to Status
	)
	switch o.Status {
	case StatusConfirmed:
		at, to = preparingAt, StatusPreparing
	case StatusPreparing:
		at, to = readyAt, StatusReady
	case StatusReady:
		if m.opts.AutoDeliverAfter <= 0 {
			return
		}
		at, to = readyAt+m.opts.AutoDeliverAfter, StatusDelivered
	default:
		return
	}

	d := at - m.sched.Now().Sub(o.OrderTime)
	if d < 0 {
		d = 0
	}
	id := o.OrderID
	a := &armed{}
	a.timer = m.sched.AfterFunc(d, func() { m.fire(id, to, a) })
	m.timers[id] = a
}

func (m *Manager) fire(orderID string, to Status, a *armed) {
	ctx := context.Background()
	m.mu.Lock()
	if a.cancelled {
		m.mu.Unlock()
		return
	}
	updated, err := m.transitionLocked(ctx, orderID, to)
	if err != nil {
		m.dropLocked(orderID, a)
		// a manual advance got there first; carry on from the order's new status
		if o, gerr := m.getLocked(ctx, orderID); gerr == nil && o.Status.Index() >= to.Index() {
			m.scheduleLocked(o)
		}
		m.mu.Unlock()
		m.logger.Warn("scheduled transition rejected",
			zap.String("order_id", orderID), zap.String("to", string(to)), zap.Error(err))
		return
	}
	m.mu.Unlock()

	m.published(ctx, updated, false)
}

// AdvanceStatus moves an order exactly one step forward to newStatus.
func (m *Manager) AdvanceStatus(ctx context.Context, orderID string, newStatus Status) error {
	m.mu.Lock()
	updated, err := m.transitionLocked(ctx, orderID, newStatus)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.published(ctx, updated, false)
	return nil
}

// MarkDelivered moves a ready order to delivered.
func (m *Manager) MarkDelivered(ctx context.Context, orderID string) error {
	return m.AdvanceStatus(ctx, orderID, StatusDelivered)
}

func (m *Manager) transitionLocked(ctx context.Context, orderID string, to Status) (Order, error) {
	current, err := m.loadCurrent(ctx)
	if err != nil {
		return Order{}, err
	}
	history, err := m.loadHistory(ctx)
	if err != nil {
		return Order{}, err
	}

	var from Status
	hi := indexOfHistory(history, orderID)
	switch {
	case current != nil && current.OrderID == orderID:
		from = current.Status
	case hi >= 0:
		from = history[hi].Status
	default:
		return Order{}, fmt.Errorf("%s: %w", orderID, ErrNotFound)
	}

	if !to.Valid() || to.Index() != from.Index()+1 {
		m.logger.Warn("status transition rejected",
			zap.String("order_id", orderID), zap.String("from", string(from)), zap.String("to", string(to)))
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := m.sched.Now()
	var updated Order
	if hi >= 0 {
		history[hi].Status = to
		history[hi].HistoryStatus = HistoryStatusOf(to, false)
		history[hi].UpdatedAt = now
		updated = history[hi].Order.Clone()
		if err := storage.SetJSON(ctx, m.storage, storage.KeyOrderHistory, history); err != nil {
			return Order{}, fmt.Errorf("persist order history: %w", err)
		}
	}
	if current != nil && current.OrderID == orderID {
		current.Status = to
		updated = current.Clone()
		if err := storage.SetJSON(ctx, m.storage, storage.KeyCurrentOrder, current); err != nil {
			return Order{}, fmt.Errorf("persist current order: %w", err)
		}
	}

	// the armed step is now stale; a tracked order continues from its new status
	tracked := m.timers[orderID] != nil
	m.releaseLocked(orderID)
	if tracked {
		m.scheduleLocked(updated)
	}
	m.logger.Info("order status advanced",
		zap.String("order_id", orderID), zap.String("from", string(from)), zap.String("to", string(to)))
	return updated, nil
}

// PayableOrder returns the current order when it can be billed (ready or delivered).
func (m *Manager) PayableOrder(ctx context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payableLocked(ctx, orderID)
}

func (m *Manager) payableLocked(ctx context.Context, orderID string) (Order, error) {
	current, err := m.loadCurrent(ctx)
	if err != nil {
		return Order{}, err
	}
	if current == nil {
		return Order{}, ErrNoCurrentOrder
	}
	if current.OrderID != orderID {
		return Order{}, fmt.Errorf("%s is not the current order: %w", orderID, ErrNotFound)
	}
	if current.Status != StatusReady && current.Status != StatusDelivered {
		return Order{}, fmt.Errorf("%w: status %s", ErrNotPayable, current.Status)
	}
	return current.Clone(), nil
}

// CompletePayment closes out a paid order: a ready order is delivered first, then the order leaves
// the current slot and is marked completed in history.
func (m *Manager) CompletePayment(ctx context.Context, orderID string) error {
	m.mu.Lock()
	order, err := m.payableLocked(ctx, orderID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	delivered := false
	if order.Status == StatusReady {
		if order, err = m.transitionLocked(ctx, orderID, StatusDelivered); err != nil {
			m.mu.Unlock()
			return err
		}
		delivered = true
	}

	history, err := m.loadHistory(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if hi := indexOfHistory(history, orderID); hi >= 0 {
		history[hi].HistoryStatus = HistoryCompleted
		history[hi].UpdatedAt = m.sched.Now()
		if err := storage.SetJSON(ctx, m.storage, storage.KeyOrderHistory, history); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("persist order history: %w", err)
		}
	}
	if err := m.storage.Remove(ctx, storage.KeyCurrentOrder); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("clear current order: %w", err)
	}
	m.releaseLocked(orderID)
	m.mu.Unlock()

	m.logger.Info("order paid and cleared", zap.String("order_id", orderID))
	if delivered {
		m.published(ctx, order, false)
	}
	m.published(ctx, order, true)
	return nil
}

// published fans an order change out to notifiers and observers.
func (m *Manager) published(ctx context.Context, o Order, paid bool) {
	m.emit(ctx, Event{
		OrderID:       o.OrderID,
		Status:        o.Status,
		HistoryStatus: HistoryStatusOf(o.Status, paid),
		Occurred:      m.sched.Now(),
	})

	m.mu.Lock()
	fns := make([]func(Order), 0, len(m.observers[o.OrderID]))
	for _, fn := range m.observers[o.OrderID] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(o.Clone())
	}
}

func (m *Manager) emit(ctx context.Context, ev Event) {
	for _, n := range m.opts.Notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			m.logger.Warn("order event not delivered",
				zap.String("order_id", ev.OrderID), zap.String("status", string(ev.Status)), zap.Error(err))
		}
	}
}

// Subscribe registers fn for status changes of orderID. The returned func unsubscribes.
func (m *Manager) Subscribe(orderID string, fn func(Order)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextObs++
	id := m.nextObs
	if m.observers[orderID] == nil {
		m.observers[orderID] = map[int]func(Order){}
	}
	m.observers[orderID][id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers[orderID], id)
		if len(m.observers[orderID]) == 0 {
			delete(m.observers, orderID)
		}
	}
}

// Resume re-arms the outstanding transitions of a persisted, non-terminal order.
func (m *Manager) Resume(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.getLocked(ctx, orderID)
	if err != nil {
		return err
	}
	m.scheduleLocked(o)
	return nil
}

// Release cancels the pending transitions of orderID.
func (m *Manager) Release(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(orderID)
}

func (m *Manager) releaseLocked(orderID string) {
	if a := m.timers[orderID]; a != nil {
		a.cancelled = true
		a.timer.Stop()
	}
	delete(m.timers, orderID)
}

func (m *Manager) dropLocked(orderID string, a *armed) {
	if m.timers[orderID] == a {
		delete(m.timers, orderID)
	}
}

// Close cancels every pending transition.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.timers {
		m.releaseLocked(id)
	}
}

// Scheduled reports whether orderID has pending transitions.
func (m *Manager) Scheduled(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[orderID] != nil
}

// Current returns the current order, or ErrNoCurrentOrder.
func (m *Manager) Current(ctx context.Context) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.loadCurrent(ctx)
	if err != nil {
		return Order{}, err
	}
	if current == nil {
		return Order{}, ErrNoCurrentOrder
	}
	return *current, nil
}

// Get finds an order in the current slot or in history.
func (m *Manager) Get(ctx context.Context, orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx, orderID)
}

func (m *Manager) getLocked(ctx context.Context, orderID string) (Order, error) {
	current, err := m.loadCurrent(ctx)
	if err != nil {
		return Order{}, err
	}
	if current != nil && current.OrderID == orderID {
		return *current, nil
	}
	history, err := m.loadHistory(ctx)
	if err != nil {
		return Order{}, err
	}
	if hi := indexOfHistory(history, orderID); hi >= 0 {
		return history[hi].Order.Clone(), nil
	}
	return Order{}, fmt.Errorf("%s: %w", orderID, ErrNotFound)
}

// History returns every placed order, oldest first.
func (m *Manager) History(ctx context.Context) ([]HistoricalOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadHistory(ctx)
}

// StagePending stores a checkout behind the login gate without placing it.
func (m *Manager) StagePending(ctx context.Context, items []menu.LineItem, info CustomerInfo) error {
	if err := validateItems(items); err != nil {
		return err
	}
	pending := PendingOrder{Items: menu.CloneItems(items), Customer: info, StagedAt: m.sched.Now()}
	if err := storage.SetJSON(ctx, m.storage, storage.KeyPendingOrder, pending); err != nil {
		return fmt.Errorf("persist pending order: %w", err)
	}
	m.logger.Info("order staged pending login", zap.Int("items", len(items)))
	return nil
}

// PromotePending places the staged order and removes it from the pending slot.
func (m *Manager) PromotePending(ctx context.Context) (string, error) {
	var pending PendingOrder
	ok, err := storage.GetJSON(ctx, m.storage, storage.KeyPendingOrder, &pending)
	if err != nil {
		return "", fmt.Errorf("load pending order: %w", err)
	}
	if !ok {
		return "", ErrNoPendingOrder
	}
	id, err := m.PlaceOrder(ctx, pending.Items, pending.Customer)
	if err != nil {
		return "", err
	}
	if err := m.storage.Remove(ctx, storage.KeyPendingOrder); err != nil {
		return "", fmt.Errorf("clear pending order: %w", err)
	}
	return id, nil
}

func (m *Manager) loadCurrent(ctx context.Context) (*Order, error) {
	var o Order
	ok, err := storage.GetJSON(ctx, m.storage, storage.KeyCurrentOrder, &o)
	if err != nil {
		return nil, fmt.Errorf("load current order: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *Manager) loadHistory(ctx context.Context) ([]HistoricalOrder, error) {
	return LoadHistory(ctx, m.storage)
}

// LoadHistory reads the persisted order history.
func LoadHistory(ctx context.Context, st storage.Storage) ([]HistoricalOrder, error) {
	var history []HistoricalOrder
	if _, err := storage.GetJSON(ctx, st, storage.KeyOrderHistory, &history); err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	return history, nil
}

func indexOfHistory(history []HistoricalOrder, orderID string) int {
	for i := range history {
		if history[i].OrderID == orderID {
			return i
		}
	}
	return -1
}
