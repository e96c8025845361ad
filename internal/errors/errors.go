// Package errors defines the error kinds the warehouse service reports to
// callers. Handlers map each kind to an HTTP status in one place.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a product or order does not exist.
	ErrNotFound = stderrors.New("not found")

	// ErrConflict is returned when a write would break a reference, e.g.
	// deleting a product that order items still point at.
	ErrConflict = stderrors.New("conflict")
)

// New, Is and As forward to the standard library so callers only need one
// errors import.
func New(text string) error { return stderrors.New(text) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// ValidationError describes a request that failed input checks.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProductNotFoundError is raised while placing an order when one of the
// requested products does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ProductID)
}

// Is lets errors.Is(err, ErrNotFound) match a missing product.
func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InsufficientStockError is raised while placing an order when a product
// does not have enough stock for the requested amount.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product with id %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// StoreError wraps a failure of the underlying store. The surrounding
// transaction has been rolled back by the time a caller sees it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
