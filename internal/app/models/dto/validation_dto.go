package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError converts a binding or validation error into an
// ErrorDetail suitable for a 400 response.
func HandleValidationError(err error) *ErrorDetail {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, formatFieldError(fieldError))
		}

		errorDetail := NewErrorDetail(ErrorCodeValidationFailed, "Validation failed")
		if len(validationErrors) == 1 {
			errorDetail = errorDetail.WithField(strings.ToLower(validationErrors[0].Field()))
		}
		return errorDetail.WithDetails(strings.Join(messages, "; "))
	}

	errorDetail := NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format")
	return errorDetail.WithDetails(err.Error())
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
