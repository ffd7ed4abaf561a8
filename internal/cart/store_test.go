package cart

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

var (
	butterChicken = menu.MenuItem{ID: "1", Name: "Butter Chicken", Price: 320, Category: "Main Course"}
	gulabJamun    = menu.MenuItem{ID: "7", Name: "Gulab Jamun", Price: 80, Category: "Desserts", IsVeg: true}
)

func newTestStore(t *testing.T, st storage.Storage) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), st, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return s
}

func TestAdd_IncrementsExistingEntry(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	ctx := context.Background()

	for _, it := range []menu.MenuItem{butterChicken, gulabJamun, butterChicken, butterChicken} {
		if err := s.Add(ctx, it); err != nil {
			t.Fatalf("Add error: %v", err)
		}
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 unique entries, got %d", len(items))
	}
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.ItemID] {
			t.Fatalf("duplicate item id %s", it.ItemID)
		}
		seen[it.ItemID] = true
	}
	if items[0].ItemID != "1" || items[0].Quantity != 3 {
		t.Fatalf("expected butter chicken x3 first, got %+v", items[0])
	}
	if s.TotalItems() != 4 {
		t.Fatalf("expected 4 total items, got %d", s.TotalItems())
	}
	total, err := s.TotalPrice()
	if err != nil || total != 3*320+80 {
		t.Fatalf("TotalPrice = %d, %v", total, err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	ctx := context.Background()
	_ = s.Add(ctx, gulabJamun)

	if err := s.UpdateQuantity(ctx, "7", 4); err != nil {
		t.Fatalf("UpdateQuantity error: %v", err)
	}
	if s.TotalItems() != 4 {
		t.Fatalf("expected quantity 4, got %d", s.TotalItems())
	}

	if err := s.UpdateQuantity(ctx, "7", 0); err != nil {
		t.Fatalf("UpdateQuantity to zero error: %v", err)
	}
	if len(s.Items()) != 0 {
		t.Fatalf("expected item removed at zero quantity, got %+v", s.Items())
	}

	if err := s.UpdateQuantity(ctx, "missing", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	ctx := context.Background()
	_ = s.Add(ctx, butterChicken)
	_ = s.Add(ctx, gulabJamun)

	if err := s.Remove(ctx, "1"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := s.Remove(ctx, "1"); err != nil {
		t.Fatalf("Remove of absent item should be a no-op, got %v", err)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(s.Items()))
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if s.TotalItems() != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestMutationsPersistImmediately(t *testing.T) {
	st := storage.NewMemory()
	ctx := context.Background()
	s := newTestStore(t, st)

	_ = s.Add(ctx, butterChicken)
	_ = s.Add(ctx, butterChicken)
	_ = s.Add(ctx, gulabJamun)

	// a reload observes the latest mutation
	reloaded := newTestStore(t, st)
	items := reloaded.Items()
	if len(items) != 2 || items[0].Quantity != 2 {
		t.Fatalf("reloaded cart mismatch: %+v", items)
	}

	_ = s.Clear(ctx)
	raw, ok, _ := st.Get(ctx, storage.KeyCartItems)
	if !ok || raw != "[]" {
		t.Fatalf("expected persisted empty cart, got %q", raw)
	}
}

func TestNewStore_NormalizesPersistedCart(t *testing.T) {
	st := storage.NewMemory()
	ctx := context.Background()
	_ = storage.SetJSON(ctx, st, storage.KeyCartItems, []menu.LineItem{
		{ItemID: "1", UnitPrice: 320, Quantity: 1},
		{ItemID: "1", UnitPrice: 320, Quantity: 2},
		{ItemID: "7", UnitPrice: 80, Quantity: 0},
	})

	s := newTestStore(t, st)
	items := s.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected merged single entry, got %+v", items)
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	_ = s.Add(context.Background(), butterChicken)

	items := s.Items()
	items[0].Quantity = 99
	if s.TotalItems() != 1 {
		t.Fatalf("mutating returned slice changed the cart")
	}
}

func TestBill(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	ctx := context.Background()
	_ = s.Add(ctx, butterChicken)
	_ = s.Add(ctx, butterChicken)
	_ = s.Add(ctx, gulabJamun)

	bill, err := s.Bill(pricing.DineIn)
	if err != nil {
		t.Fatalf("Bill error: %v", err)
	}
	if bill.Total != 776 {
		t.Fatalf("expected total 776, got %+v", bill)
	}
}
