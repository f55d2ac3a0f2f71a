package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xenking/bass-shop/internal/domain/catalog"
)

const (
	listBassGuitarsSQL = `SELECT g.id, g.manufacturer_id, g.model_name, g.color, g.strings, g.price, m.name
		FROM bass_guitars g
		JOIN manufacturers m ON m.id = g.manufacturer_id
		ORDER BY g.id`

	listManufacturersSQL = `SELECT id, name FROM manufacturers ORDER BY id`

	upsertManufacturerSQL = `INSERT INTO manufacturers (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id`

	upsertBassGuitarSQL = `INSERT INTO bass_guitars (manufacturer_id, model_name, color, strings, price)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (manufacturer_id, model_name, color)
		DO UPDATE SET strings = excluded.strings, price = excluded.price
		RETURNING id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by SQLite.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository returns a CatalogRepository on db.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListBassGuitars(ctx context.Context) ([]catalog.BassGuitar, error) {
	rows, err := r.db.QueryContext(ctx, listBassGuitarsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing bass guitars: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.BassGuitar
	for rows.Next() {
		g := catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
		if err := rows.Scan(&g.ID, &g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name); err != nil {
			return nil, fmt.Errorf("scanning bass guitar: %w", err)
		}
		g.Manufacturer.ID = g.ManufacturerID
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListManufacturers(ctx context.Context) ([]catalog.Manufacturer, error) {
	rows, err := r.db.QueryContext(ctx, listManufacturersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing manufacturers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Manufacturer
	for rows.Next() {
		var m catalog.Manufacturer
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning manufacturer: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertManufacturer inserts a manufacturer by name and returns its ID.
func (r *CatalogRepository) UpsertManufacturer(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, upsertManufacturerSQL, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting manufacturer %q: %w", name, err)
	}
	return id, nil
}

// UpsertBassGuitar inserts or reprices a bass guitar keyed by manufacturer,
// model and color. g.ID is set on success.
func (r *CatalogRepository) UpsertBassGuitar(ctx context.Context, g *catalog.BassGuitar) error {
	err := r.db.QueryRowContext(ctx, upsertBassGuitarSQL,
		g.ManufacturerID, g.ModelName, g.Color, g.Strings, g.Price.StringFixed(2),
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("upserting bass guitar %q: %w", g.ModelName, err)
	}
	return nil
}
