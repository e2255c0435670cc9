/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Coordinator packages wrap these with additional context where needed.

ERROR CATEGORIES:
  1. Validation errors - Bad input, rejected before any write
  2. Business-rule errors - Insufficient stock, replaced damage, sale mismatch
  3. Store errors - Database-level failures, wrapped in StorageError

USAGE:
  Callers branch with errors.Is / errors.As:

    var short *inventory.InsufficientStockError
    if errors.As(err, &short) {
        fmt.Printf("only %d available", short.Available)
    }

SEE ALSO:
  - mutation.go: Produces InsufficientStockError
  - reconcile.go: Reports repaired drift as Correction values
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientStock is returned when a mutation would drive the cached
	// stock below zero. The ledger is left untouched.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrSaleNotFound is returned when a referenced sale record doesn't exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrDamageNotFound is returned when a referenced damage record doesn't exist.
	ErrDamageNotFound = errors.New("damage record not found")

	// ErrInvoiceNotFound is returned when a referenced invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrAlreadyReplaced is returned when marking a damage record replaced twice.
	ErrAlreadyReplaced = errors.New("damage record already replaced")

	// ErrSaleMismatch is returned when invoice-from-sale input disagrees with
	// the referenced sale record.
	ErrSaleMismatch = errors.New("sale record mismatch")

	// ErrDuplicateName is returned when a product name collides with an
	// existing one. Names are unique catalog keys.
	ErrDuplicateName = errors.New("duplicate product name")

	// ErrDuplicateInvoiceNumber is returned on an invoice number collision.
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")

	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports how far a request overshot availability.
type InsufficientStockError struct {
	ProductID ProductID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// ValidationError reports a rejected input field. No state was changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// SaleMismatchError pinpoints which field of the invoice input disagrees
// with the referenced sale record.
type SaleMismatchError struct {
	SaleID int64
	Field  string // "product", "quantity", "discount"
}

func (e *SaleMismatchError) Error() string {
	return fmt.Sprintf("invoice does not match sale %d: %s differs", e.SaleID, e.Field)
}

func (e *SaleMismatchError) Unwrap() error {
	return ErrSaleMismatch
}

// StorageError wraps a driver-level failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// a violated business rule, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrAlreadyReplaced) ||
		errors.Is(err, ErrSaleMismatch) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrDuplicateInvoiceNumber)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrDamageNotFound) ||
		errors.Is(err, ErrInvoiceNotFound)
}

// IsStorage returns true if the error came from the persistence layer.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
