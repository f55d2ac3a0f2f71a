// Package auth resolves request credentials into caller identities.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned by a Repository when no user has the account id.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentialFormat is returned when an Authorization value is
	// present but is not a bearer token.
	ErrInvalidCredentialFormat = errors.New("invalid authentication header")
	// ErrUnauthenticated is returned by operations that need a known caller.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller is known but lacks access.
	ErrForbidden = errors.New("forbidden")
)

// UserType distinguishes shop customers from staff accounts.
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeEmployee UserType = "employee"
)

// User is an account known to the shop, keyed by the external account id.
type User struct {
	ID        int64
	AccountID string
	Type      UserType
	FirstName string
	LastName  string
	Email     string
}

// Customer returns the customer view of u, or false when u is not a customer.
func (u User) Customer() (Customer, bool) {
	if u.Type != UserTypeCustomer {
		return Customer{}, false
	}
	return Customer{
		ID:        u.ID,
		AccountID: u.AccountID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}, true
}

// Customer is a user allowed to own orders.
type Customer struct {
	ID        int64
	AccountID string
	FirstName string
	LastName  string
	Email     string
}

// Repository provides user lookups by external account id.
type Repository interface {
	FindByAccountID(ctx context.Context, accountID string) (*User, error)
}
