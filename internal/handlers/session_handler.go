package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/session"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

func (a *api) getSession(c *gin.Context) {
	ctx := c.Request.Context()
	table, _, err := a.Session.Table(ctx)
	if err != nil {
		a.fail(c, err)
		return
	}
	loggedIn, userType, err := a.Session.LoggedIn(ctx)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tableNumber": table, "isLoggedIn": loggedIn, "userType": userType})
}

func (a *api) setTable(c *gin.Context) {
	var req validation.TableRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	if err := a.Session.SetTable(c.Request.Context(), req.TableNumber); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tableNumber": req.TableNumber})
}

// login promotes a checkout staged before login; the promoted order empties the cart.
func (a *api) login(c *gin.Context) {
	ctx := c.Request.Context()
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	token, orderID, err := a.Session.Login(ctx, session.UserType(req.UserType))
	if err != nil {
		a.fail(c, err)
		return
	}
	resp := gin.H{"token": token, "userType": req.UserType}
	if orderID != "" {
		if err := a.Cart.Clear(ctx); err != nil {
			a.Logger.Warn("cart not cleared after promotion", zap.String("order_id", orderID), zap.Error(err))
		}
		resp["orderId"] = orderID
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) logout(c *gin.Context) {
	if err := a.Session.Logout(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
