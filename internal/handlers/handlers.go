package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/cart"
	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/payment"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
	"github.com/imrishuroy/go-table-orderflow/internal/tracking"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	Catalog  menu.Catalog
	Cart     *cart.Store
	Orders   *orders.Manager
	Tracking *tracking.Registry
	Payments *payment.Simulator
	Session  *session.Session
	Schedule pricing.FeeSchedule
	Logger   *zap.Logger
}

type api struct {
	HandlerConfig
	v *validatorv10.Validate
}

// RegisterRoutes registers every route of the ordering API.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	a := &api{HandlerConfig: cfg, v: validation.New()}

	r.GET("/menu", a.listMenu)
	r.GET("/menu/:id", a.getMenuItem)

	s := r.Group("/session")
	s.GET("", a.getSession)
	s.PUT("/table", a.setTable)
	s.POST("/login", a.login)
	s.POST("/logout", a.logout)

	c := r.Group("/cart")
	c.GET("", a.getCart)
	c.POST("/items", a.addCartItem)
	c.PATCH("/items/:id", a.updateCartItem)
	c.DELETE("/items/:id", a.removeCartItem)
	c.DELETE("", a.clearCart)

	r.POST("/checkout", a.checkout)

	o := r.Group("/orders")
	o.GET("/current", a.currentOrder)
	o.GET("/history", a.orderHistory)
	o.GET("/:id", a.getOrder)
	o.GET("/:id/tracking", a.openTracking)
	o.DELETE("/:id/tracking", a.closeTracking)
	o.POST("/:id/status", a.requireShop, a.advanceStatus)
	o.POST("/:id/deliver", a.requireShop, a.markDelivered)
	o.GET("/:id/bill", a.getBill)
	o.POST("/:id/pay", a.pay)
	o.GET("/:id/payment", a.paymentStatus)
}

// requireShop admits requests bearing a valid shop session token.
func (a *api) requireShop(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims, err := a.Session.ParseToken(raw)
	if err != nil {
		a.fail(c, err)
		c.Abort()
		return
	}
	if claims.UserType != session.UserShop {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "shop_only"})
		return
	}
	c.Next()
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, session.ErrNoTable),
		errors.Is(err, session.ErrInvalidUserType),
		errors.Is(err, payment.ErrInvalidMethod):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, payment.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed"
	case errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, orders.ErrNotPayable):
		return http.StatusConflict, "not_payable"
	case errors.Is(err, payment.ErrInProgress):
		return http.StatusConflict, "payment_in_progress"
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrNoCurrentOrder),
		errors.Is(err, orders.ErrNoPendingOrder),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, menu.ErrItemNotFound),
		errors.Is(err, payment.ErrNoAttempt):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status. Unexpected errors are logged.
func (a *api) fail(c *gin.Context, err error) {
	code, name := statusFor(err)
	if code == http.StatusInternalServerError {
		a.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, gin.H{"error": name, "detail": err.Error()})
}
