package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
	"github.com/xenking/bass-shop/internal/storage/assemble"
)

const (
	resolvePriceSQL = `SELECT price FROM bass_guitars WHERE id = ?`

	insertOrderSQL = `INSERT INTO orders (customer_id, created_at) VALUES (?, ?)`

	insertOrderLineSQL = `INSERT INTO order_bass_guitars (order_id, bass_guitar_id, quantity, historical_price)
		VALUES (?, ?, ?, ?)`

	insertGuestOrderSQL = `INSERT INTO guest_orders
		(first_name, last_name, email, address_first_line, address_second_line, city, state, zip_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertGuestOrderLineSQL = `INSERT INTO guest_order_bass_guitars (guest_order_id, bass_guitar_id, quantity, historical_price)
		VALUES (?, ?, ?, ?)`

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
		WHERE (?1 = 0 OR o.id = ?1)
		  AND (?2 = 0 OR o.customer_id = ?2)
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
		WHERE (?1 = 0 OR o.id = ?1)
		ORDER BY o.id, l.id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by SQLite.
type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOrderRepository returns an OrderRepository on db.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, now: time.Now}
}

// InTx runs fn inside a transaction. The transaction commits when fn returns
// nil and is rolled back otherwise.
func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &orderTx{q: tx, now: r.now}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

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

func (r *OrderRepository) CustomerOrders(ctx context.Context, f order.Filter) ([]order.CustomerOrder, error) {
	orders, err := r.customerOrders(ctx, 0, f.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

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

func (r *OrderRepository) GuestOrders(ctx context.Context) ([]order.GuestOrder, error) {
	orders, err := r.guestOrders(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing guest orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) customerOrders(ctx context.Context, id, customerID int64) ([]order.CustomerOrder, error) {
	rows, err := r.db.QueryContext(ctx, selectCustomerOrdersSQL, id, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var joined []assemble.CustomerOrderRow
	for rows.Next() {
		var (
			row       assemble.CustomerOrderRow
			createdAt int64
			g         = &catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
			c         = &row.Order.Customer
		)
		if err := rows.Scan(
			&row.Order.ID, &createdAt,
			&c.ID, &c.AccountID, &c.FirstName, &c.LastName, &c.Email,
			&row.Line.ID, &row.Line.BassGuitarID, &row.Line.Quantity, &row.Line.HistoricalPrice,
			&g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name,
		); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		row.Order.CreatedAt = time.UnixMicro(createdAt).UTC()
		linkBassGuitar(&row.Line, g)
		joined = append(joined, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assemble.CustomerOrders(joined), nil
}

func (r *OrderRepository) guestOrders(ctx context.Context, id int64) ([]order.GuestOrder, error) {
	rows, err := r.db.QueryContext(ctx, selectGuestOrdersSQL, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var joined []assemble.GuestOrderRow
	for rows.Next() {
		var (
			row       assemble.GuestOrderRow
			createdAt int64
			second    sql.NullString
			g         = &catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
			c         = &row.Order.Contact
		)
		if err := rows.Scan(
			&row.Order.ID, &createdAt,
			&c.FirstName, &c.LastName, &c.Email, &c.AddressFirstLine, &second,
			&c.City, &c.State, &c.ZipCode,
			&row.Line.ID, &row.Line.BassGuitarID, &row.Line.Quantity, &row.Line.HistoricalPrice,
			&g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name,
		); err != nil {
			return nil, fmt.Errorf("scanning guest order row: %w", err)
		}
		row.Order.CreatedAt = time.UnixMicro(createdAt).UTC()
		c.AddressSecondLine = second.String
		linkBassGuitar(&row.Line, g)
		joined = append(joined, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assemble.GuestOrders(joined), nil
}

func linkBassGuitar(l *order.Line, g *catalog.BassGuitar) {
	g.ID = l.BassGuitarID
	g.Manufacturer.ID = g.ManufacturerID
	l.BassGuitar = g
}

// orderTx is the write side of an order transaction.
type orderTx struct {
	q   querier
	now func() time.Time
}

var _ order.Tx = (*orderTx)(nil)

func (t *orderTx) ResolvePrice(ctx context.Context, bassGuitarID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	if err := t.q.QueryRowContext(ctx, resolvePriceSQL, bassGuitarID).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, catalog.ErrNotFound
		}
		return decimal.Decimal{}, fmt.Errorf("resolving price of bass guitar %d: %w", bassGuitarID, err)
	}
	return price, nil
}

func (t *orderTx) InsertCustomerOrder(ctx context.Context, o *order.CustomerOrder) error {
	now := t.now().UTC().Truncate(time.Microsecond)
	res, err := t.q.ExecContext(ctx, insertOrderSQL, o.Customer.ID, now.UnixMicro())
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading order id: %w", err)
	}
	o.CreatedAt = now

	if err := t.insertLines(ctx, insertOrderLineSQL, o.ID, o.Lines); err != nil {
		return fmt.Errorf("inserting lines of order %d: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) InsertGuestOrder(ctx context.Context, o *order.GuestOrder) error {
	c := o.Contact
	second := sql.NullString{String: c.AddressSecondLine, Valid: c.AddressSecondLine != ""}
	now := t.now().UTC().Truncate(time.Microsecond)

	res, err := t.q.ExecContext(ctx, insertGuestOrderSQL,
		c.FirstName, c.LastName, c.Email, c.AddressFirstLine, second, c.City, c.State, c.ZipCode, now.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("inserting guest order: %w", err)
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("reading guest order id: %w", err)
	}
	o.CreatedAt = now

	if err := t.insertLines(ctx, insertGuestOrderLineSQL, o.ID, o.Lines); err != nil {
		return fmt.Errorf("inserting lines of guest order %d: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) insertLines(ctx context.Context, query string, orderID int64, lines []order.Line) error {
	for i := range lines {
		l := &lines[i]
		res, err := t.q.ExecContext(ctx, query, orderID, l.BassGuitarID, l.Quantity, l.HistoricalPrice.StringFixed(2))
		if err != nil {
			return err
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}
