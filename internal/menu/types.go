package menu

// MenuItem is catalog reference data. Prices are whole currency units.
type MenuItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Category string  `json:"category"`
	IsVeg    bool    `json:"isVeg"`
	Rating   float64 `json:"rating,omitempty"`
}

// LineItem pairs a menu item with a quantity. It is held by value in carts and orders.
type LineItem struct {
	ItemID    string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Category  string `json:"category"`
	IsVeg     bool   `json:"isVeg"`
}

// LineItemFrom converts a catalog item into a line item of quantity 1.
func LineItemFrom(item MenuItem) LineItem {
	return LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
		Category:  item.Category,
		IsVeg:     item.IsVeg,
	}
}

// CloneItems returns a copy of items that shares no backing array with the input.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
