package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/order"
)

// mapError converts domain errors to HTTP errors. Unclassified errors are
// logged and reported as 500 without details.
func mapError(ctx context.Context, err error) error {
	var (
		notFound *order.CatalogItemNotFoundError
		quantity *order.InvalidQuantityError
	)

	switch {
	case errors.Is(err, auth.ErrInvalidCredentialFormat):
		return huma.NewError(http.StatusExpectationFailed, "Invalid authentication header")
	case errors.Is(err, auth.ErrUnauthenticated):
		return huma.Error401Unauthorized("Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		return huma.Error403Forbidden("Staff access required")
	case errors.Is(err, order.ErrMissingGuestContact):
		return huma.NewError(http.StatusFailedDependency, "Customer data not provided")
	case errors.Is(err, order.ErrEmptyCart):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &quantity):
		return huma.Error422UnprocessableEntity(quantity.Error())
	case errors.As(err, &notFound):
		return huma.Error404NotFound(notFound.Error())
	case errors.Is(err, order.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	}

	zctx.From(ctx).Error("Request failed", zap.Error(err))
	return huma.Error500InternalServerError("Internal server error")
}
