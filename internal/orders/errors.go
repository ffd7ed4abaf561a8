package orders

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("order not found")
	ErrNoCurrentOrder    = errors.New("no current order")
	ErrNotPayable        = errors.New("order is not ready for payment")
	ErrNoPendingOrder    = errors.New("no pending order")
)
