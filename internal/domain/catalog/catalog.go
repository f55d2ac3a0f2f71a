// Package catalog holds the read-only bass guitar catalog consumed by orders.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("bass guitar not found")

// Manufacturer is the brand that builds a bass guitar.
type Manufacturer struct {
	ID   int64
	Name string
}

// BassGuitar is a catalog item. Price is the current list price and is only
// authoritative at read time; orders copy it instead of referencing it.
type BassGuitar struct {
	ID             int64
	ManufacturerID int64
	ModelName      string
	Color          string
	Strings        int
	Price          decimal.Decimal

	// Manufacturer is populated by joined reads only.
	Manufacturer *Manufacturer
}

// Repository defines read operations for the catalog.
type Repository interface {
	ListBassGuitars(ctx context.Context) ([]BassGuitar, error)
	ListManufacturers(ctx context.Context) ([]Manufacturer, error)
}
