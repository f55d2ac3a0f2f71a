// Package storage selects and opens the configured order store.
package storage

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
	"github.com/xenking/bass-shop/internal/storage/postgres"
	"github.com/xenking/bass-shop/internal/storage/sqlite"
)

// CatalogStore is the catalog repository plus the writes used by tooling.
type CatalogStore interface {
	catalog.Repository
	UpsertManufacturer(ctx context.Context, name string) (int64, error)
	UpsertBassGuitar(ctx context.Context, g *catalog.BassGuitar) error
}

// UserStore is the user repository plus the writes used by tooling.
type UserStore interface {
	auth.Repository
	UpsertUser(ctx context.Context, u *auth.User) error
}

// Store bundles the repositories of one database.
type Store struct {
	Driver  string
	Catalog CatalogStore
	Users   UserStore
	Orders  order.Repository

	ping  func(ctx context.Context) error
	close func()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases the underlying connections.
func (s *Store) Close() { s.close() }

// Open connects to databaseURL and applies the schema. URLs starting with
// "sqlite:" or "file:" open an embedded SQLite database, anything else is
// treated as a PostgreSQL connection string.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	switch {
	case databaseURL == "":
		return nil, errors.New("database url is empty")
	case strings.HasPrefix(databaseURL, "sqlite:"), strings.HasPrefix(databaseURL, "file:"):
		return openSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite:"))
	default:
		return openPostgres(ctx, databaseURL)
	}
}

func openPostgres(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &Store{
		Driver:  "postgres",
		Catalog: postgres.NewCatalogRepository(pool),
		Users:   postgres.NewUserRepository(pool),
		Orders:  postgres.NewOrderRepository(pool),
		ping:    pool.Ping,
		close:   pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, dsn string) (*Store, error) {
	conn, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	return &Store{
		Driver:  "sqlite",
		Catalog: sqlite.NewCatalogRepository(conn),
		Users:   sqlite.NewUserRepository(conn),
		Orders:  sqlite.NewOrderRepository(conn),
		ping:    conn.PingContext,
		close:   func() { _ = conn.Close() },
	}, nil
}
