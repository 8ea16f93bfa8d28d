package models

import "fmt"

// NotFoundError indicates an entity is absent or not visible to the caller.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError for the given entity
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError indicates missing or malformed request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnavailableError indicates an entity exists but is not in a bookable state.
type UnavailableError struct {
	Entity string
	Status string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s is not available for booking (status: %s)", e.Entity, e.Status)
}

// CapacityExceededError indicates the batch does not have enough free slots.
// Available/Requested are reported to the caller so the client can adjust.
type CapacityExceededError struct {
	BatchID   string
	Available int
	Requested int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("batch %s has insufficient capacity (available: %d, requested: %d)",
		e.BatchID, e.Available, e.Requested)
}

// CouponInvalidError indicates a supplied coupon cannot be applied.
// A supplied-but-invalid coupon is a hard error, never a silent full-price charge.
type CouponInvalidError struct {
	Code   string
	Reason string
}

func (e *CouponInvalidError) Error() string {
	return fmt.Sprintf("coupon %s is not applicable: %s", e.Code, e.Reason)
}

// Payment gateway failures, one type per step so handlers can map statuses.

type InvalidSignatureError struct {
	OrderID string
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("payment signature verification failed for order %s", e.OrderID)
}

type PaymentLookupError struct {
	PaymentID string
	Cause     error
}

func (e *PaymentLookupError) Error() string {
	return fmt.Sprintf("failed to look up payment %s: %v", e.PaymentID, e.Cause)
}

func (e *PaymentLookupError) Unwrap() error { return e.Cause }

type PaymentNotCapturedError struct {
	PaymentID string
	Status    string
}

func (e *PaymentNotCapturedError) Error() string {
	return fmt.Sprintf("payment %s is not captured (status: %s)", e.PaymentID, e.Status)
}

type AmountMismatchError struct {
	PaymentID string
	Expected  int64 // minor currency units
	Actual    int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment %s amount mismatch (expected: %d, actual: %d)",
		e.PaymentID, e.Expected, e.Actual)
}

// InvalidTransitionError indicates a booking's current status does not
// permit the requested transition.
type InvalidTransitionError struct {
	BookingID string
	Status    BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %s is already %s", e.BookingID, e.Status)
}
