package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Resolver turns an optional Authorization value into an Identity.
type Resolver struct {
	users  Repository
	tokens Verifier
}

// NewResolver creates a Resolver backed by the given user repository and
// token verifier.
func NewResolver(users Repository, tokens Verifier) *Resolver {
	return &Resolver{
		users:  users,
		tokens: tokens,
	}
}

// Resolve inspects the credential. An empty credential is Anonymous and a
// malformed one fails with ErrInvalidCredentialFormat. A well-formed token
// that fails verification or names an unknown account also resolves to
// Anonymous so that checkout continues as a guest.
func (r *Resolver) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Anonymous{}, nil
	}

	token, err := ParseBearer(credential)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx)
	accountID, err := r.tokens.Subject(token)
	if err != nil {
		lg.Debug("Token rejected, continuing anonymously", zap.Error(err))
		return Anonymous{}, nil
	}

	user, err := r.users.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			lg.Debug("Unknown account, continuing anonymously", zap.String("account_id", accountID))
			return Anonymous{}, nil
		}
		return nil, errors.Wrap(err, "find user")
	}

	if c, ok := user.Customer(); ok {
		return CustomerIdentity{Customer: c}, nil
	}
	return StaffIdentity{User: *user}, nil
}
