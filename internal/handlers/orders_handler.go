package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

// checkout places the cart as the current order, or stages it until login when the session is
// not logged in.
func (a *api) checkout(c *gin.Context) {
	ctx := c.Request.Context()

	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}

	table := req.TableNumber
	if table == "" {
		t, _, err := a.Session.Table(ctx)
		if err != nil {
			a.fail(c, err)
			return
		}
		table = t
	}
	if table == "" {
		a.fail(c, session.ErrNoTable)
		return
	}
	info := orders.CustomerInfo{
		Name:                req.Name,
		Phone:               req.Phone,
		TableNumber:         table,
		SpecialInstructions: req.SpecialInstructions,
	}

	loggedIn, _, err := a.Session.LoggedIn(ctx)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !loggedIn {
		if err := a.Orders.StagePending(ctx, a.Cart.Items(), info); err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "pending_login"})
		return
	}

	orderID, err := a.Orders.PlaceOrder(ctx, a.Cart.Items(), info)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Cart.Clear(ctx); err != nil {
		a.fail(c, err)
		return
	}
	order, err := a.Orders.Get(ctx, orderID)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("/orders/%s", orderID))
	c.JSON(http.StatusCreated, order)
}

func (a *api) currentOrder(c *gin.Context) {
	o, err := a.Orders.Current(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (a *api) orderHistory(c *gin.Context) {
	h, err := a.Orders.History(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	if h == nil {
		h = []orders.HistoricalOrder{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": h})
}

func (a *api) getOrder(c *gin.Context) {
	o, err := a.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// openTracking keeps the order's transitions armed until closeTracking.
func (a *api) openTracking(c *gin.Context) {
	vm, err := a.Tracking.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, vm.View())
}

func (a *api) closeTracking(c *gin.Context) {
	if !a.Tracking.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_tracking"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) advanceStatus(c *gin.Context) {
	var req validation.AdvanceStatusRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	a.transition(c, func() error {
		return a.Orders.AdvanceStatus(c.Request.Context(), c.Param("id"), orders.Status(req.Status))
	})
}

func (a *api) markDelivered(c *gin.Context) {
	a.transition(c, func() error {
		return a.Orders.MarkDelivered(c.Request.Context(), c.Param("id"))
	})
}

func (a *api) transition(c *gin.Context, apply func() error) {
	if err := apply(); err != nil {
		a.fail(c, err)
		return
	}
	a.getOrder(c)
}
