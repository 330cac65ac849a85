// Package validator builds the request validator shared by the HTTP handlers.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// notBlank rejects strings that are empty after trimming. Coupon codes are
// normalized by trimming, so a code of pure whitespace would otherwise
// collapse to the empty string downstream.
func notBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return true
	}
	return strings.TrimSpace(s) != ""
}

// New returns a validator with the application's custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}
