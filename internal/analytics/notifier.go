package analytics

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"

	"github.com/xenking/bass-shop/internal/domain/order"
)

// Event names reported for placed orders.
const (
	EventGuestOrderPlaced = "Guest Order Placed"
	EventOrderPlaced      = "Order Placed"
)

// Sink delivers identify and track calls to a tracking backend.
type Sink interface {
	Identify(ctx context.Context, userID string, traits Props) error
	Track(ctx context.Context, userID, event string, props Props) error
}

// Notifier turns placed orders into analytics calls.
type Notifier struct {
	sink Sink
}

var _ order.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier that writes to sink.
func NewNotifier(sink Sink) *Notifier {
	return &Notifier{sink: sink}
}

// Notify identifies guest buyers and tracks the placed order.
func (n *Notifier) Notify(ctx context.Context, o order.Order) error {
	props, err := FlattenOrder(o)
	if err != nil {
		return err
	}

	switch o := o.(type) {
	case *order.GuestOrder:
		traits := Props{
			{"first_name", o.Contact.FirstName},
			{"last_name", o.Contact.LastName},
			{"email", o.Contact.Email},
		}
		// A failed identify must not lose the order event.
		var errs error
		if err := n.sink.Identify(ctx, "guest-user-"+o.Contact.Email, traits); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "identify guest"))
		}
		if err := n.sink.Track(ctx, fmt.Sprintf("guest-order-%d", o.ID), EventGuestOrderPlaced, props.Camelize()); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "track guest order"))
		}
		return errs
	case *order.CustomerOrder:
		if err := n.sink.Track(ctx, o.Customer.AccountID, EventOrderPlaced, props.Camelize()); err != nil {
			return errors.Wrap(err, "track order")
		}
	}
	return nil
}
