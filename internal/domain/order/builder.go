package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
)

// BuildGuestOrder creates an unpersisted guest order. Every line is priced
// through prices; the first failure aborts the build.
func BuildGuestOrder(ctx context.Context, prices PriceResolver, contact *Contact, lines []LineRequest) (*GuestOrder, error) {
	if contact == nil {
		return nil, ErrMissingGuestContact
	}
	priced, err := buildLines(ctx, prices, lines)
	if err != nil {
		return nil, err
	}
	return &GuestOrder{
		Contact: *contact,
		Lines:   priced,
	}, nil
}

// BuildCustomerOrder creates an unpersisted order owned by customer.
func BuildCustomerOrder(ctx context.Context, prices PriceResolver, customer auth.Customer, lines []LineRequest) (*CustomerOrder, error) {
	priced, err := buildLines(ctx, prices, lines)
	if err != nil {
		return nil, err
	}
	return &CustomerOrder{
		Customer: customer,
		Lines:    priced,
	}, nil
}

func buildLines(ctx context.Context, prices PriceResolver, lines []LineRequest) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{BassGuitarID: l.BassGuitarID}
		}
	}

	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		line, err := resolveLine(ctx, prices, l)
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

// resolveLine snapshots the current catalog price onto a new line.
func resolveLine(ctx context.Context, prices PriceResolver, req LineRequest) (Line, error) {
	price, err := prices.ResolvePrice(ctx, req.BassGuitarID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Line{}, &CatalogItemNotFoundError{BassGuitarID: req.BassGuitarID}
		}
		return Line{}, &PersistenceError{Op: "resolve price", Err: err}
	}
	return Line{
		BassGuitarID:    req.BassGuitarID,
		Quantity:        req.Quantity,
		HistoricalPrice: price,
	}, nil
}
