package payment

import (
	"errors"
	"fmt"
	"time"
)

type Method string

const (
	MethodUPI  Method = "upi"
	MethodCard Method = "card"
	MethodCash Method = "cash"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodUPI, MethodCard, MethodCash:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
}

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Attempt is the in-memory record of one simulated payment. It is never persisted.
type Attempt struct {
	OrderID        string    `json:"orderId"`
	Amount         int64     `json:"amount"`
	Method         Method    `json:"method"`
	Outcome        Outcome   `json:"outcome"`
	RemainingTicks int       `json:"remainingTicks"`
	Reference      string    `json:"reference,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
}

var (
	ErrPaymentFailed = errors.New("payment failed")
	ErrInProgress    = errors.New("payment already in progress")
	ErrInvalidMethod = errors.New("invalid payment method")
	ErrNoAttempt     = errors.New("no payment attempt")
)

// FailedError carries the reason shown to the diner. It matches ErrPaymentFailed.
type FailedError struct {
	OrderID string
	Reason  string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("payment for %s failed: %s", e.OrderID, e.Reason)
}

func (e *FailedError) Unwrap() error { return ErrPaymentFailed }
