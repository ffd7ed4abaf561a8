package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-table-orderflow/internal/payment"
	"github.com/imrishuroy/go-table-orderflow/internal/validation"
)

func (a *api) getBill(c *gin.Context) {
	order, bill, err := a.Payments.Bill(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":   order.OrderID,
		"items":     order.Items,
		"schedule":  a.Schedule,
		"bill":      bill,
		"reference": a.Payments.Reference(order, bill),
	})
}

func (a *api) pay(c *gin.Context) {
	var req validation.PayRequest
	if err := validation.BindAndValidate(c, &req, a.v); err != nil {
		return
	}
	attempt, err := a.Payments.Pay(c.Request.Context(), c.Param("id"), payment.Method(req.Method))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", "/orders/"+attempt.OrderID+"/payment")
	c.JSON(http.StatusAccepted, attempt)
}

func (a *api) paymentStatus(c *gin.Context) {
	attempt, err := a.Payments.Attempt(c.Param("id"))
	var failed *payment.FailedError
	switch {
	case errors.As(err, &failed):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "payment_failed",
			"detail":  failed.Reason,
			"attempt": attempt,
		})
	case err != nil:
		a.fail(c, err)
	default:
		c.JSON(http.StatusOK, attempt)
	}
}
