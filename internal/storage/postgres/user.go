package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bass-shop/internal/domain/auth"
)

const (
	findUserByAccountIDSQL = `SELECT id, account_id, user_type, first_name, last_name, email
		FROM users WHERE account_id = $1`

	upsertUserSQL = `INSERT INTO users (account_id, user_type, first_name, last_name, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			user_type = EXCLUDED.user_type,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email
		RETURNING id`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository implements auth.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByAccountID returns the user with the given external account id.
func (r *UserRepository) FindByAccountID(ctx context.Context, accountID string) (*auth.User, error) {
	var (
		u        auth.User
		userType string
	)
	err := r.pool.QueryRow(ctx, findUserByAccountIDSQL, accountID).Scan(
		&u.ID, &u.AccountID, &userType, &u.FirstName, &u.LastName, &u.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", accountID, err)
	}
	u.Type = auth.UserType(userType)
	return &u, nil
}

// UpsertUser inserts or updates a user keyed by account id. u.ID is set on
// success.
func (r *UserRepository) UpsertUser(ctx context.Context, u *auth.User) error {
	err := r.pool.QueryRow(ctx, upsertUserSQL,
		u.AccountID, string(u.Type), u.FirstName, u.LastName, u.Email,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.AccountID, err)
	}
	return nil
}
