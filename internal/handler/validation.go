package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldNames maps struct fields to their wire names for error messages.
var fieldNames = map[string]string{
	"Code":           "code",
	"Codes":          "codes",
	"IsActive":       "isActive",
	"CooldownHours":  "cooldown_hours",
	"TrackingMethod": "tracking_method",
	"Email":          "email",
	"Password":       "password",
}

// formatValidationError converts validator errors into a single user-facing
// message for the first failing field.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field, ok := fieldNames[fe.StructField()]
	if !ok {
		field = strings.ToLower(fe.StructField())
	}

	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "min":
		return "invalid request: " + field + " must have at least " + fe.Param() + " entries"
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "lte":
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "oneof":
		return "invalid request: " + field + " must be one of: " + fe.Param()
	case "email":
		return "invalid request: " + field + " must be a valid email address"
	}
	return "invalid request: " + field + " is invalid"
}
