package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/auth"
)

const (
	findUserByAccountIDSQL = `SELECT id, account_id, user_type, first_name, last_name, email
		FROM users WHERE account_id = ?`

	upsertUserSQL = `INSERT INTO users (account_id, user_type, first_name, last_name, email)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			user_type = excluded.user_type,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email
		RETURNING id`
)

var _ auth.Repository = (*UserRepository)(nil)

// UserRepository implements auth.Repository backed by SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns a UserRepository on db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByAccountID(ctx context.Context, accountID string) (*auth.User, error) {
	var (
		u        auth.User
		userType string
	)
	err := r.db.QueryRowContext(ctx, findUserByAccountIDSQL, accountID).Scan(
		&u.ID, &u.AccountID, &userType, &u.FirstName, &u.LastName, &u.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", accountID, err)
	}
	u.Type = auth.UserType(userType)
	return &u, nil
}

// UpsertUser inserts or updates a user keyed by account id.
func (r *UserRepository) UpsertUser(ctx context.Context, u *auth.User) error {
	err := r.db.QueryRowContext(ctx, upsertUserSQL,
		u.AccountID, string(u.Type), u.FirstName, u.LastName, u.Email,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.AccountID, err)
	}
	return nil
}
