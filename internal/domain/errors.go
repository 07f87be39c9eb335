package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSelectionNotFound = errors.New("selection not found")
	ErrAlreadyProcessed  = errors.New("selection already processed")
	ErrOrderNotFound     = errors.New("order not found")
)

// Validation messages shared by services and handlers
const (
	MsgCustomerNameRequired  = "customer name is required"
	MsgCustomerPhoneRequired = "customer phone is required"
	MsgItemsRequired         = "add at least one product to the selection"
	MsgQuantityPositive      = "quantity must be positive"
	MsgPriceNonNegative      = "price must not be negative"
	MsgAmountPositive        = "amount must be positive"
	MsgDateRequired          = "date is required"
	MsgMalformedID           = "must be a UUID"
)

// ValidationError is returned when input is rejected before anything is written
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
