package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

func (a *api) writeCart(c *gin.Context, code int) {
	subtotal, err := a.Cart.TotalPrice()
	if err != nil {
		a.fail(c, err)
		return
	}
	bill, err := a.Cart.Bill(a.Schedule)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(code, gin.H{
		"items":      a.Cart.Items(),
		"totalItems": a.Cart.TotalItems(),
		"subtotal":   subtotal,
		"bill":       bill,
	})
}

func (a *api) getCart(c *gin.Context) {
	a.writeCart(c, http.StatusOK)
}

func (a *api) addCartItem(c *gin.Context) {
	var req validation.AddItemRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	item, err := a.Catalog.Get(req.ItemID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Cart.Add(c.Request.Context(), item); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *api) updateCartItem(c *gin.Context) {
	var req validation.UpdateQuantityRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	if err := a.Cart.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *api) removeCartItem(c *gin.Context) {
	if err := a.Cart.Remove(c.Request.Context(), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *api) clearCart(c *gin.Context) {
	if err := a.Cart.Clear(c.Request.Context()); err != nil {
		a.fail(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}
