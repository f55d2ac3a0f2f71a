package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/catalog"
)

// Sentinel errors for order placement and lookup.
var (
	ErrEmptyCart           = errors.New("bass guitars required")
	ErrMissingGuestContact = errors.New("customer data not provided")
	// ErrNotFound covers both missing orders and orders owned by someone else.
	ErrNotFound = errors.New("order not found")
)

// CatalogItemNotFoundError indicates a cart line references an unknown bass
// guitar.
type CatalogItemNotFoundError struct {
	BassGuitarID int64
}

func (e *CatalogItemNotFoundError) Error() string {
	return fmt.Sprintf("bass guitar %d not found", e.BassGuitarID)
}

func (e *CatalogItemNotFoundError) Unwrap() error {
	return catalog.ErrNotFound
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	BassGuitarID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for bass guitar %d", e.BassGuitarID)
}

// PersistenceError wraps a storage failure. Placement is not retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// isPlacementError reports whether err already carries a placement outcome
// and must be returned unchanged.
func isPlacementError(err error) bool {
	var (
		pe *PersistenceError
		nf *CatalogItemNotFoundError
		iq *InvalidQuantityError
	)
	return errors.As(err, &pe) ||
		errors.As(err, &nf) ||
		errors.As(err, &iq) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrMissingGuestContact)
}
