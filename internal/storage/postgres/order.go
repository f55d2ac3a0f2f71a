package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
	"github.com/xenking/bass-shop/internal/storage/assemble"
)

const (
	resolvePriceSQL = `SELECT price FROM bass_guitars WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (customer_id) VALUES ($1)
		RETURNING id, created_at`

	insertOrderLineSQL = `INSERT INTO order_bass_guitars (order_id, bass_guitar_id, quantity, historical_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	insertGuestOrderSQL = `INSERT INTO guest_orders
		(first_name, last_name, email, address_first_line, address_second_line, city, state, zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	insertGuestOrderLineSQL = `INSERT INTO guest_order_bass_guitars (guest_order_id, bass_guitar_id, quantity, historical_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	// Zero arguments disable the id and customer filters.
	selectCustomerOrdersSQL = `SELECT o.id, o.created_at,
			u.id, u.account_id, u.first_name, u.last_name, u.email,
			l.id, l.bass_guitar_id, l.quantity, l.historical_price,
			g.manufacturer_id, g.model_name, g.color, g.strings, g.price, m.name
		FROM orders o
		JOIN users u ON u.id = o.customer_id
		JOIN order_bass_guitars l ON l.order_id = o.id
		JOIN bass_guitars g ON g.id = l.bass_guitar_id
		JOIN manufacturers m ON m.id = g.manufacturer_id
		WHERE ($1::bigint = 0 OR o.id = $1)
		  AND ($2::bigint = 0 OR o.customer_id = $2)
		ORDER BY o.id, l.id`

	selectGuestOrdersSQL = `SELECT o.id, o.created_at,
			o.first_name, o.last_name, o.email, o.address_first_line, o.address_second_line,
			o.city, o.state, o.zip_code,
			l.id, l.bass_guitar_id, l.quantity, l.historical_price,
			g.manufacturer_id, g.model_name, g.color, g.strings, g.price, m.name
		FROM guest_orders o
		JOIN guest_order_bass_guitars l ON l.guest_order_id = o.id
		JOIN bass_guitars g ON g.id = l.bass_guitar_id
		JOIN manufacturers m ON m.id = g.manufacturer_id
		WHERE ($1::bigint = 0 OR o.id = $1)
		ORDER BY o.id, l.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and is rolled back otherwise.
func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &orderTx{tx: tx})
	})
}

// CustomerOrder returns a customer order with its lines, bass guitars and
// manufacturers.
func (r *OrderRepository) CustomerOrder(ctx context.Context, id int64, f order.Filter) (*order.CustomerOrder, error) {
	if id <= 0 {
		return nil, order.ErrNotFound
	}
	orders, err := r.customerOrders(ctx, id, f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}
	return &orders[0], nil
}

// CustomerOrders returns every customer order matching f, ordered by ID.
func (r *OrderRepository) CustomerOrders(ctx context.Context, f order.Filter) ([]order.CustomerOrder, error) {
	orders, err := r.customerOrders(ctx, 0, f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// GuestOrder returns a guest order with its lines, bass guitars and
// manufacturers.
func (r *OrderRepository) GuestOrder(ctx context.Context, id int64) (*order.GuestOrder, error) {
	if id <= 0 {
		return nil, order.ErrNotFound
	}
	orders, err := r.guestOrders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting guest order %d: %w", id, err)
	}
	if len(orders) == 0 {
		return nil, order.ErrNotFound
	}
	return &orders[0], nil
}

// GuestOrders returns every guest order ordered by ID.
func (r *OrderRepository) GuestOrders(ctx context.Context) ([]order.GuestOrder, error) {
	orders, err := r.guestOrders(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing guest orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) customerOrders(ctx context.Context, id, customerID int64) ([]order.CustomerOrder, error) {
	rows, err := r.pool.Query(ctx, selectCustomerOrdersSQL, id, customerID)
	if err != nil {
		return nil, err
	}
	joined, err := pgx.CollectRows(rows, scanCustomerOrderRow)
	if err != nil {
		return nil, err
	}
	return assemble.CustomerOrders(joined), nil
}

func (r *OrderRepository) guestOrders(ctx context.Context, id int64) ([]order.GuestOrder, error) {
	rows, err := r.pool.Query(ctx, selectGuestOrdersSQL, id)
	if err != nil {
		return nil, err
	}
	joined, err := pgx.CollectRows(rows, scanGuestOrderRow)
	if err != nil {
		return nil, err
	}
	return assemble.GuestOrders(joined), nil
}

func scanCustomerOrderRow(row pgx.CollectableRow) (assemble.CustomerOrderRow, error) {
	var (
		r assemble.CustomerOrderRow
		g = &catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
		c = &r.Order.Customer
	)
	err := row.Scan(
		&r.Order.ID, &r.Order.CreatedAt,
		&c.ID, &c.AccountID, &c.FirstName, &c.LastName, &c.Email,
		&r.Line.ID, &r.Line.BassGuitarID, &r.Line.Quantity, &r.Line.HistoricalPrice,
		&g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name,
	)
	linkBassGuitar(&r.Line, g)
	return r, err
}

func scanGuestOrderRow(row pgx.CollectableRow) (assemble.GuestOrderRow, error) {
	var (
		r      assemble.GuestOrderRow
		second *string
		g      = &catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
		c      = &r.Order.Contact
	)
	err := row.Scan(
		&r.Order.ID, &r.Order.CreatedAt,
		&c.FirstName, &c.LastName, &c.Email, &c.AddressFirstLine, &second,
		&c.City, &c.State, &c.ZipCode,
		&r.Line.ID, &r.Line.BassGuitarID, &r.Line.Quantity, &r.Line.HistoricalPrice,
		&g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name,
	)
	if second != nil {
		c.AddressSecondLine = *second
	}
	linkBassGuitar(&r.Line, g)
	return r, err
}

func linkBassGuitar(l *order.Line, g *catalog.BassGuitar) {
	g.ID = l.BassGuitarID
	g.Manufacturer.ID = g.ManufacturerID
	l.BassGuitar = g
}

// orderTx is the write side of an order transaction.
type orderTx struct {
	tx pgx.Tx
}

var _ order.Tx = (*orderTx)(nil)

func (t *orderTx) ResolvePrice(ctx context.Context, bassGuitarID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	if err := t.tx.QueryRow(ctx, resolvePriceSQL, bassGuitarID).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, catalog.ErrNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("resolving price of bass guitar %d: %w", bassGuitarID, err)
	}
	return price, nil
}

func (t *orderTx) InsertCustomerOrder(ctx context.Context, o *order.CustomerOrder) error {
	if err := t.tx.QueryRow(ctx, insertOrderSQL, o.Customer.ID).Scan(&o.ID, &o.CreatedAt); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	if err := t.insertLines(ctx, insertOrderLineSQL, o.ID, o.Lines); err != nil {
		return fmt.Errorf("inserting lines of order %d: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) InsertGuestOrder(ctx context.Context, o *order.GuestOrder) error {
	c := o.Contact
	var second *string
	if c.AddressSecondLine != "" {
		second = &c.AddressSecondLine
	}
	err := t.tx.QueryRow(ctx, insertGuestOrderSQL,
		c.FirstName, c.LastName, c.Email, c.AddressFirstLine, second, c.City, c.State, c.ZipCode,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting guest order: %w", err)
	}
	if err := t.insertLines(ctx, insertGuestOrderLineSQL, o.ID, o.Lines); err != nil {
		return fmt.Errorf("inserting lines of guest order %d: %w", o.ID, err)
	}
	return nil
}

// insertLines writes all lines in one batch round trip.
func (t *orderTx) insertLines(ctx context.Context, query string, orderID int64, lines []order.Line) error {
	batch := &pgx.Batch{}
	for i := range lines {
		l := &lines[i]
		batch.Queue(query, orderID, l.BassGuitarID, l.Quantity, l.HistoricalPrice).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&l.ID)
			})
	}
	return t.tx.SendBatch(ctx, batch).Close()
}
