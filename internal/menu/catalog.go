package menu

import (
	"errors"
	"strings"
)

// ErrItemNotFound is returned when a catalog lookup misses.
var ErrItemNotFound = errors.New("menu item not found")

// Catalog supplies menu items.
type Catalog interface {
	List() []MenuItem
	Get(id string) (MenuItem, error)
}

// StaticCatalog is an in-memory, read-only catalog.
type StaticCatalog struct {
	items []MenuItem
	byID  map[string]MenuItem
}

// NewStaticCatalog builds a catalog from items. Later duplicates of an id are ignored.
func NewStaticCatalog(items []MenuItem) *StaticCatalog {
	c := &StaticCatalog{byID: make(map[string]MenuItem, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			continue
		}
		c.byID[it.ID] = it
		c.items = append(c.items, it)
	}
	return c
}

// DefaultCatalog returns the restaurant's standard menu.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog([]MenuItem{
		{ID: "1", Name: "Butter Chicken", Price: 320, Category: "Main Course", Rating: 4.5},
		{ID: "2", Name: "Paneer Tikka Masala", Price: 280, Category: "Main Course", IsVeg: true, Rating: 4.3},
		{ID: "3", Name: "Chicken Biryani", Price: 350, Category: "Rice & Biryani", Rating: 4.7},
		{ID: "4", Name: "Veg Biryani", Price: 250, Category: "Rice & Biryani", IsVeg: true, Rating: 4.2},
		{ID: "5", Name: "Masala Dosa", Price: 120, Category: "South Indian", IsVeg: true, Rating: 4.4},
		{ID: "6", Name: "Chicken Tikka", Price: 280, Category: "Starters", Rating: 4.6},
		{ID: "7", Name: "Gulab Jamun", Price: 80, Category: "Desserts", IsVeg: true, Rating: 4.5},
		{ID: "8", Name: "Mango Lassi", Price: 60, Category: "Beverages", IsVeg: true, Rating: 4.3},
	})
}

func (c *StaticCatalog) List() []MenuItem {
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *StaticCatalog) Get(id string) (MenuItem, error) {
	it, ok := c.byID[id]
	if !ok {
		return MenuItem{}, ErrItemNotFound
	}
	return it, nil
}

// Filter keeps the items matching category ("" or "All" matches everything),
// a case-insensitive substring of name or category, and the veg flag when vegOnly is set.
func Filter(items []MenuItem, category, query string, vegOnly bool) []MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if category != "" && category != "All" && it.Category != category {
			continue
		}
		if vegOnly && !it.IsVeg {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Category), q) {
			continue
		}
		out = append(out, it)
	}
	return out
}
