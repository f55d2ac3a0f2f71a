package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
)

// Order is a placed order aggregate: either *GuestOrder or *CustomerOrder.
type Order interface {
	OrderID() int64
	OrderLines() []Line
	isOrder()
}

// Contact is the shipping and contact record carried by a guest order.
type Contact struct {
	FirstName         string
	LastName          string
	Email             string
	AddressFirstLine  string
	AddressSecondLine string
	City              string
	State             string
	ZipCode           int
}

// LineRequest is a single cart entry supplied by the caller.
type LineRequest struct {
	BassGuitarID int64
	Quantity     int
}

// Line is an order line with the catalog price frozen at order time.
type Line struct {
	ID              int64
	BassGuitarID    int64
	Quantity        int
	HistoricalPrice decimal.Decimal

	// BassGuitar is populated when the order is reloaded from storage.
	BassGuitar *catalog.BassGuitar
}

// GuestOrder is an order placed without a customer account.
type GuestOrder struct {
	ID        int64
	Contact   Contact
	Lines     []Line
	CreatedAt time.Time
}

// CustomerOrder is an order owned by a registered customer.
type CustomerOrder struct {
	ID        int64
	Customer  auth.Customer
	Lines     []Line
	CreatedAt time.Time
}

func (o *GuestOrder) OrderID() int64        { return o.ID }
func (o *GuestOrder) OrderLines() []Line    { return o.Lines }
func (*GuestOrder) isOrder()                {}
func (o *CustomerOrder) OrderID() int64     { return o.ID }
func (o *CustomerOrder) OrderLines() []Line { return o.Lines }
func (*CustomerOrder) isOrder()             {}

// Filter restricts order reads. A zero CustomerID matches every customer.
type Filter struct {
	CustomerID int64
}

// PriceResolver returns the current catalog price of a bass guitar. It
// returns catalog.ErrNotFound when the item does not exist.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, bassGuitarID int64) (decimal.Decimal, error)
}

// Tx is the write side of a single order transaction.
type Tx interface {
	PriceResolver
	// InsertGuestOrder writes the header and every line, setting o.ID and
	// o.CreatedAt.
	InsertGuestOrder(ctx context.Context, o *GuestOrder) error
	// InsertCustomerOrder writes the header and every line, setting o.ID and
	// o.CreatedAt.
	InsertCustomerOrder(ctx context.Context, o *CustomerOrder) error
}

// Repository defines persistence operations for orders. Reads load lines
// together with their bass guitar and manufacturer.
type Repository interface {
	// InTx runs fn in a transaction that commits when fn returns nil and
	// rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CustomerOrder(ctx context.Context, id int64, f Filter) (*CustomerOrder, error)
	CustomerOrders(ctx context.Context, f Filter) ([]CustomerOrder, error)
	GuestOrder(ctx context.Context, id int64) (*GuestOrder, error)
	GuestOrders(ctx context.Context) ([]GuestOrder, error)
}

// Notifier reports placed orders to an external sink.
type Notifier interface {
	Notify(ctx context.Context, o Order) error
}
