package validation

import (
	"reflect"
	"strings"
	"unicode"

	validatorv10 "github.com/go-playground/validator/v10"
)

const minPhoneDigits = 10

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// a phone, when given, must hold at least ten digits and only digits, spaces, '+' or '-'
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)
	if req.Phone == "" {
		return
	}

	digits := 0
	valid := strings.IndexFunc(req.Phone, func(r rune) bool {
		if unicode.IsDigit(r) {
			digits++
			return false
		}
		return r != ' ' && r != '+' && r != '-'
	}) < 0
	if !valid || digits < minPhoneDigits {
		sl.ReportError(req.Phone, "phone", "Phone", "phone_number", "")
	}
}
