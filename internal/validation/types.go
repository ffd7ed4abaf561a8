package validation

// TableRequest is the payload for PUT /session/table, sent after the QR check-in.
type TableRequest struct {
	TableNumber string `json:"tableNumber" validate:"required,max=8"`
}

// AddItemRequest is the payload for POST /cart/items
type AddItemRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// UpdateQuantityRequest is the payload for PATCH /cart/items/:id. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CheckoutRequest is the payload for POST /checkout. Every field is optional; the table falls back
// to the checked-in one.
type CheckoutRequest struct {
	Name                string `json:"name,omitempty" validate:"omitempty,max=80"`
	Phone               string `json:"phone,omitempty" validate:"omitempty,max=20"`
	TableNumber         string `json:"tableNumber,omitempty" validate:"omitempty,max=8"`
	SpecialInstructions string `json:"specialInstructions,omitempty" validate:"omitempty,max=500"`
}

// AdvanceStatusRequest is the payload for POST /orders/:id/status
type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=preparing ready delivered"`
}

// PayRequest is the payload for POST /orders/:id/pay
type PayRequest struct {
	Method string `json:"method" validate:"required,oneof=upi card cash"`
}

// LoginRequest is the payload for POST /session/login
type LoginRequest struct {
	UserType string `json:"userType" validate:"required,oneof=user shop"`
}
