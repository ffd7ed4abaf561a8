package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

// ErrNotFound is returned when an update targets an item that is not in the cart.
var ErrNotFound = errors.New("item not in cart")

// Store holds the cart line items and persists the whole cart after every mutation.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  *zap.Logger
	items   []menu.LineItem
}

// NewStore loads the persisted cart, starting empty when none exists.
func NewStore(ctx context.Context, st storage.Storage, logger *zap.Logger) (*Store, error) {
	s := &Store{storage: st, logger: logger}
	var items []menu.LineItem
	if _, err := storage.GetJSON(ctx, st, storage.KeyCartItems, &items); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s.items = normalize(items)
	return s, nil
}

// normalize merges duplicate ids and drops non-positive quantities from a persisted cart.
func normalize(items []menu.LineItem) []menu.LineItem {
	out := make([]menu.LineItem, 0, len(items))
	index := map[string]int{}
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		if i, ok := index[it.ItemID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ItemID] = len(out)
		out = append(out, it)
	}
	return out
}

func (s *Store) indexOf(itemID string) int {
	for i, it := range s.items {
		if it.ItemID == itemID {
			return i
		}
	}
	return -1
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) error {
	if err := storage.SetJSON(ctx, s.storage, storage.KeyCartItems, s.items); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Add increments the quantity of an existing entry or appends the item with quantity 1.
func (s *Store) Add(ctx context.Context, item menu.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, menu.LineItemFrom(item))
	}
	s.logger.Debug("cart item added", zap.String("item_id", item.ID))
	return s.persist(ctx)
}

// UpdateQuantity sets an entry's quantity; a quantity of zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(itemID)
	if i < 0 {
		return fmt.Errorf("update %s: %w", itemID, ErrNotFound)
	}
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}
	return s.persist(ctx)
}

// Remove deletes the entry if present.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(itemID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []menu.LineItem{}
	return s.persist(ctx)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []menu.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return menu.CloneItems(s.items)
}

// TotalItems is the sum of quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the pricing subtotal of the cart.
func (s *Store) TotalPrice() (int64, error) {
	return pricing.Subtotal(s.Items())
}

// Bill prices the cart under schedule.
func (s *Store) Bill(schedule pricing.FeeSchedule) (pricing.Bill, error) {
	return pricing.ComputeBill(s.Items(), schedule)
}
