package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the persisted client state.
const (
	KeyCartItems    = "cartItems"
	KeyCurrentOrder = "currentOrder"
	KeyPendingOrder = "pendingOrder"
	KeyOrderHistory = "orderHistory"
	KeyTableNumber  = "tableNumber"
	KeyIsLoggedIn   = "isLoggedIn"
	KeyUserType     = "userType"
)

// ErrUnavailable reports that the backing store could not be read or written.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is a string key/value store with local-storage semantics: a missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value at key into out. ok is false when the key is absent.
func GetJSON(ctx context.Context, s Storage, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Storage, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
