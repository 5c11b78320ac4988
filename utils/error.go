package utils

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

var ErrorStoreRequired = errors.New("store id is required")
var ErrorStaffRequired = errors.New("staff id is required")

// ValidationError is returned before any write happens; nothing is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError carries requested vs. available for diagnostics.
// The failed decrement leaves the stock row untouched.
type InsufficientStockError struct {
	ProductId int
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %s, available %s",
		e.ProductId, e.Requested.String(), e.Available.String())
}

// PersistenceError wraps a storage/transaction failure after full rollback.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Cause.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func NewPersistenceError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &PersistenceError{Op: op, Cause: cause}
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
