package payment

import (
	"net/url"
	"strconv"
	"unicode/utf16"

	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
)

// Oracle decides whether the simulated gateway accepts a payment for orderID.
type Oracle func(orderID string) bool

// DefaultOracle fails exactly the orders whose UTF-16 code unit sum is a multiple of 10.
func DefaultOracle(orderID string) bool {
	return Hash(orderID)%10 != 0
}

// Hash sums the UTF-16 code units of s.
func Hash(s string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int(u)
	}
	return sum
}

type Merchant struct {
	VPA  string
	Name string
}

var DefaultMerchant = Merchant{VPA: "foodieexpress@paytm", Name: "FoodieExpress"}

// Reference builds the UPI deep link encoded into the payment QR code.
func Reference(m Merchant, order orders.Order, bill pricing.Bill) string {
	return "upi://pay?pa=" + url.QueryEscape(m.VPA) +
		"&pn=" + url.QueryEscape(m.Name) +
		"&am=" + strconv.FormatInt(bill.Total, 10) +
		"&cu=INR" +
		"&tn=" + url.QueryEscape("Order "+order.OrderID)
}

// Reference builds the payment link for order under the simulator's merchant.
func (s *Simulator) Reference(order orders.Order, bill pricing.Bill) string {
	return Reference(s.opts.Merchant, order, bill)
}
