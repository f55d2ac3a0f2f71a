package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bass-shop/internal/domain/catalog"
)

const (
	listBassGuitarsSQL = `SELECT g.id, g.manufacturer_id, g.model_name, g.color, g.strings, g.price, m.name
		FROM bass_guitars g
		JOIN manufacturers m ON m.id = g.manufacturer_id
		ORDER BY g.id`

	listManufacturersSQL = `SELECT id, name FROM manufacturers ORDER BY id`

	upsertManufacturerSQL = `INSERT INTO manufacturers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertBassGuitarSQL = `INSERT INTO bass_guitars (manufacturer_id, model_name, color, strings, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (manufacturer_id, model_name, color)
		DO UPDATE SET strings = EXCLUDED.strings, price = EXCLUDED.price
		RETURNING id`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListBassGuitars returns every bass guitar with its manufacturer, ordered by ID.
func (r *CatalogRepository) ListBassGuitars(ctx context.Context) ([]catalog.BassGuitar, error) {
	rows, err := r.pool.Query(ctx, listBassGuitarsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing bass guitars: %w", err)
	}
	return pgx.CollectRows(rows, scanBassGuitar)
}

// ListManufacturers returns every manufacturer ordered by ID.
func (r *CatalogRepository) ListManufacturers(ctx context.Context) ([]catalog.Manufacturer, error) {
	rows, err := r.pool.Query(ctx, listManufacturersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing manufacturers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Manufacturer, error) {
		var m catalog.Manufacturer
		err := row.Scan(&m.ID, &m.Name)
		return m, err
	})
}

// UpsertManufacturer inserts a manufacturer by name and returns its ID.
func (r *CatalogRepository) UpsertManufacturer(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, upsertManufacturerSQL, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting manufacturer %q: %w", name, err)
	}
	return id, nil
}

// UpsertBassGuitar inserts or reprices a bass guitar keyed by manufacturer,
// model and color. g.ID is set on success.
func (r *CatalogRepository) UpsertBassGuitar(ctx context.Context, g *catalog.BassGuitar) error {
	err := r.pool.QueryRow(ctx, upsertBassGuitarSQL,
		g.ManufacturerID, g.ModelName, g.Color, g.Strings, g.Price,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("upserting bass guitar %q: %w", g.ModelName, err)
	}
	return nil
}

func scanBassGuitar(row pgx.CollectableRow) (catalog.BassGuitar, error) {
	g := catalog.BassGuitar{Manufacturer: &catalog.Manufacturer{}}
	err := row.Scan(&g.ID, &g.ManufacturerID, &g.ModelName, &g.Color, &g.Strings, &g.Price, &g.Manufacturer.Name)
	g.Manufacturer.ID = g.ManufacturerID
	return g, err
}
