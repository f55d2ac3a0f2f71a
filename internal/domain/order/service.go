// Package order implements order placement and the order read model.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/bass-shop/internal/domain/auth"
)

const instrumentationName = "github.com/xenking/bass-shop/internal/domain/order"

// IdentityResolver resolves an optional credential into a caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (auth.Identity, error)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	// Guest is required when the caller does not resolve to a customer.
	Guest *Contact
	Lines []LineRequest
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider used for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithNotifyTimeout bounds how long analytics delivery may take.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.notifyTimeout = d }
}

// Service encapsulates order placement business logic.
type Service struct {
	identities IdentityResolver
	orders     Repository
	notifier   Notifier

	notifyTimeout  time.Duration
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	tracer         trace.Tracer
	placed         metric.Int64Counter
	notifyFailures metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	identities IdentityResolver,
	orders Repository,
	notifier Notifier,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		identities:     identities,
		orders:         orders,
		notifier:       notifier,
		notifyTimeout:  5 * time.Second,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.placed, err = meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed, by kind"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	if s.notifyFailures, err = meter.Int64Counter("orders.analytics.failures",
		metric.WithDescription("Analytics notifications that failed after commit"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.analytics.failures counter")
	}

	return s, nil
}

type buildFunc func(ctx context.Context, prices PriceResolver) (Order, error)

// PlaceOrder resolves the caller, builds a guest or customer order inside a
// transaction, reloads it with its associations and reports it to
// analytics. Analytics failures are logged and never returned.
func (s *Service) PlaceOrder(ctx context.Context, credential string, req PlaceOrderRequest) (Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()

	identity, err := s.identities.Resolve(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentialFormat) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "resolve identity", Err: err}
	}

	var build buildFunc
	switch id := identity.(type) {
	case auth.CustomerIdentity:
		build = func(ctx context.Context, prices PriceResolver) (Order, error) {
			o, err := BuildCustomerOrder(ctx, prices, id.Customer, req.Lines)
			if err != nil {
				return nil, err
			}
			return o, nil
		}
	case auth.Anonymous, auth.StaffIdentity:
		build = func(ctx context.Context, prices PriceResolver) (Order, error) {
			o, err := BuildGuestOrder(ctx, prices, req.Guest, req.Lines)
			if err != nil {
				return nil, err
			}
			return o, nil
		}
	default:
		return nil, errors.Errorf("unexpected identity %T", identity)
	}

	placed, err := s.commitAndReload(ctx, build)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order")
		return nil, err
	}

	kind := kindOf(placed)
	span.SetAttributes(
		attribute.Int64("order.id", placed.OrderID()),
		attribute.String("order.kind", kind),
	)
	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))

	s.notify(ctx, placed)
	return placed, nil
}

// commitAndReload builds and inserts the aggregate in one transaction, then
// reads it back with lines, bass guitars and manufacturers populated.
func (s *Service) commitAndReload(ctx context.Context, build buildFunc) (Order, error) {
	var placed Order
	err := s.orders.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := build(ctx, tx)
		if err != nil {
			return err
		}
		if err := insert(ctx, tx, o); err != nil {
			return &PersistenceError{Op: "insert order", Err: err}
		}
		placed = o
		return nil
	})
	if err != nil {
		if isPlacementError(err) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "commit order", Err: err}
	}

	return s.reload(ctx, placed)
}

func insert(ctx context.Context, tx Tx, o Order) error {
	switch o := o.(type) {
	case *GuestOrder:
		return tx.InsertGuestOrder(ctx, o)
	case *CustomerOrder:
		return tx.InsertCustomerOrder(ctx, o)
	default:
		return errors.Errorf("unsupported order type %T", o)
	}
}

func (s *Service) reload(ctx context.Context, o Order) (Order, error) {
	switch o := o.(type) {
	case *GuestOrder:
		r, err := s.orders.GuestOrder(ctx, o.ID)
		if err != nil {
			return nil, &PersistenceError{Op: "reload guest order", Err: err}
		}
		return r, nil
	case *CustomerOrder:
		r, err := s.orders.CustomerOrder(ctx, o.ID, Filter{})
		if err != nil {
			return nil, &PersistenceError{Op: "reload order", Err: err}
		}
		return r, nil
	default:
		return nil, errors.Errorf("unsupported order type %T", o)
	}
}

// notify runs after commit on a context that survives request cancellation.
func (s *Service) notify(ctx context.Context, o Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.Notify(ctx, o); err != nil {
		s.notifyFailures.Add(ctx, 1)
		zctx.From(ctx).Warn("Analytics notification failed",
			zap.Int64("order_id", o.OrderID()),
			zap.String("kind", kindOf(o)),
			zap.Error(err),
		)
	}
}

func kindOf(o Order) string {
	switch o.(type) {
	case *GuestOrder:
		return "guest"
	case *CustomerOrder:
		return "customer"
	default:
		return "unknown"
	}
}

// Identify resolves a credential for read operations.
func (s *Service) Identify(ctx context.Context, credential string) (auth.Identity, error) {
	identity, err := s.identities.Resolve(ctx, credential)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentialFormat) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "resolve identity", Err: err}
	}
	return identity, nil
}

// ListOrders returns the customer orders visible to viewer: a customer sees
// only their own orders, staff see all of them.
func (s *Service) ListOrders(ctx context.Context, viewer auth.Identity) ([]CustomerOrder, error) {
	f, err := viewerFilter(viewer)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.CustomerOrders(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	return orders, nil
}

// GetOrder returns a single customer order. An order owned by another
// customer is reported as ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, viewer auth.Identity, id int64) (*CustomerOrder, error) {
	f, err := viewerFilter(viewer)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.CustomerOrder(ctx, id, f)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get order", Err: err}
	}
	return o, nil
}

// ListGuestOrders returns every guest order. Staff only.
func (s *Service) ListGuestOrders(ctx context.Context, viewer auth.Identity) ([]GuestOrder, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	orders, err := s.orders.GuestOrders(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list guest orders", Err: err}
	}
	return orders, nil
}

// GetGuestOrder returns a single guest order. Staff only.
func (s *Service) GetGuestOrder(ctx context.Context, viewer auth.Identity, id int64) (*GuestOrder, error) {
	if err := requireStaff(viewer); err != nil {
		return nil, err
	}
	o, err := s.orders.GuestOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get guest order", Err: err}
	}
	return o, nil
}

func viewerFilter(viewer auth.Identity) (Filter, error) {
	switch v := viewer.(type) {
	case auth.CustomerIdentity:
		return Filter{CustomerID: v.Customer.ID}, nil
	case auth.StaffIdentity:
		return Filter{}, nil
	case auth.Anonymous:
		return Filter{}, auth.ErrUnauthenticated
	default:
		return Filter{}, errors.Errorf("unexpected identity %T", viewer)
	}
}

func requireStaff(viewer auth.Identity) error {
	switch viewer.(type) {
	case auth.StaffIdentity:
		return nil
	case auth.CustomerIdentity:
		return auth.ErrForbidden
	case auth.Anonymous:
		return auth.ErrUnauthenticated
	default:
		return errors.Errorf("unexpected identity %T", viewer)
	}
}
