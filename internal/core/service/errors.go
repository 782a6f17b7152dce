package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/my-basket/internal/core/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("item not found in cart")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a request before any state changes.
type ValidationError struct {
	Message string
	Details []FieldError
}

func NewValidationError(message string, details ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validatePagination(p domain.Pagination) error {
	var details []FieldError
	if p.Page < 0 {
		details = append(details, FieldError{Field: "page", Message: "must be a positive number"})
	}
	if p.Limit < 0 {
		details = append(details, FieldError{Field: "limit", Message: "must be a positive number"})
	}
	if p.Limit > domain.MaxLimit {
		details = append(details, FieldError{Field: "limit", Message: fmt.Sprintf("must be at most %d", domain.MaxLimit)})
	}
	if len(details) > 0 {
		return NewValidationError("Invalid query parameters", details...)
	}
	return nil
}
