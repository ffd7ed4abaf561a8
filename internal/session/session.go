package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

var (
	ErrInvalidToken    = errors.New("invalid session token")
	ErrInvalidUserType = errors.New("invalid user type")
	ErrNoTable         = errors.New("table number required")
)

type UserType string

const (
	UserDiner UserType = "user"
	UserShop  UserType = "shop"
)

// Claims identify a logged-in session.
type Claims struct {
	SessionID string   `json:"sid"`
	UserType  UserType `json:"user_type"`
	Table     string   `json:"table,omitempty"`
	jwt.RegisteredClaims
}

// Promoter places a checkout that was staged before login.
type Promoter interface {
	PromotePending(ctx context.Context) (string, error)
}

// Session holds the table check-in and the login flag of one diner session.
type Session struct {
	id       string
	storage  storage.Storage
	promoter Promoter
	clock    clock.Scheduler
	secret   []byte
	ttl      time.Duration
	logger   *zap.Logger
}

func New(id string, st storage.Storage, p Promoter, c clock.Scheduler, secret string, logger *zap.Logger) *Session {
	return &Session{
		id:       id,
		storage:  st,
		promoter: p,
		clock:    c,
		secret:   []byte(secret),
		ttl:      12 * time.Hour,
		logger:   logger,
	}
}

// SetTable records the table scanned from the QR code.
func (s *Session) SetTable(ctx context.Context, table string) error {
	table = strings.TrimSpace(table)
	if table == "" {
		return ErrNoTable
	}
	if err := s.storage.Set(ctx, storage.KeyTableNumber, table); err != nil {
		return fmt.Errorf("persist table number: %w", err)
	}
	s.logger.Info("table checked in", zap.String("table", table))
	return nil
}

func (s *Session) Table(ctx context.Context) (string, bool, error) {
	return s.storage.Get(ctx, storage.KeyTableNumber)
}

// Login marks the session logged in, places any pending checkout and returns a signed token.
// orderID is empty when nothing was pending.
func (s *Session) Login(ctx context.Context, userType UserType) (token, orderID string, err error) {
	if userType != UserDiner && userType != UserShop {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidUserType, userType)
	}
	if err := s.storage.Set(ctx, storage.KeyIsLoggedIn, "true"); err != nil {
		return "", "", fmt.Errorf("persist login flag: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyUserType, string(userType)); err != nil {
		return "", "", fmt.Errorf("persist user type: %w", err)
	}

	orderID, err = s.promoter.PromotePending(ctx)
	switch {
	case errors.Is(err, orders.ErrNoPendingOrder):
		orderID = ""
	case err != nil:
		return "", "", fmt.Errorf("promote pending order: %w", err)
	default:
		s.logger.Info("pending order placed after login", zap.String("order_id", orderID))
	}

	table, _, err := s.Table(ctx)
	if err != nil {
		return "", "", err
	}
	now := s.clock.Now()
	claims := Claims{
		SessionID: s.id,
		UserType:  userType,
		Table:     table,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return token, orderID, nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.storage.Remove(ctx, storage.KeyIsLoggedIn); err != nil {
		return err
	}
	return s.storage.Remove(ctx, storage.KeyUserType)
}

// LoggedIn reports the login flag and the user type it was set with.
func (s *Session) LoggedIn(ctx context.Context) (bool, UserType, error) {
	flag, ok, err := s.storage.Get(ctx, storage.KeyIsLoggedIn)
	if err != nil || !ok || flag != "true" {
		return false, "", err
	}
	ut, _, err := s.storage.Get(ctx, storage.KeyUserType)
	if err != nil {
		return false, "", err
	}
	return true, UserType(ut), nil
}

// ParseToken validates a token issued by Login.
func (s *Session) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
