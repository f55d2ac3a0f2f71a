package handler

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/order"
)

type PlaceOrderInput struct {
	Authorization string `header:"Authorization" doc:"Optional bearer token. Without it the order is placed as a guest."`
	Body          struct {
		GuestUserData *GuestUserData `json:"guest_user_data,omitempty" doc:"Required unless the caller is a customer"`
		BassGuitars   []CartLine     `json:"bass_guitars" doc:"Requested bass guitars"`
	}
}

type OrderOutput struct {
	Body OrderBody
}

type OrderListOutput struct {
	Body []OrderBody
}

type AuthorizedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
}

type OrderByIDInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
	ID            int64  `path:"id" doc:"Order ID"`
}

// PlaceOrder handles POST /orders.
func (h *Handler) PlaceOrder(ctx context.Context, in *PlaceOrderInput) (*OrderOutput, error) {
	placed, err := h.orders.PlaceOrder(ctx, in.Authorization, order.PlaceOrderRequest{
		Guest: toContact(in.Body.GuestUserData),
		Lines: toLineRequests(in.Body.BassGuitars),
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	switch o := placed.(type) {
	case *order.GuestOrder:
		return &OrderOutput{Body: fromGuestOrder(o)}, nil
	case *order.CustomerOrder:
		return &OrderOutput{Body: fromCustomerOrder(o)}, nil
	default:
		return nil, mapError(ctx, errors.Errorf("unsupported order type %T", placed))
	}
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(ctx context.Context, in *AuthorizedInput) (*OrderListOutput, error) {
	viewer, err := h.identify(ctx, in.Authorization)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	orders, err := h.orders.ListOrders(ctx, viewer)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	out := &OrderListOutput{Body: make([]OrderBody, len(orders))}
	for i := range orders {
		out.Body[i] = fromCustomerOrder(&orders[i])
	}
	return out, nil
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(ctx context.Context, in *OrderByIDInput) (*OrderOutput, error) {
	viewer, err := h.identify(ctx, in.Authorization)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	o, err := h.orders.GetOrder(ctx, viewer, in.ID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return &OrderOutput{Body: fromCustomerOrder(o)}, nil
}

// ListGuestOrders handles GET /guest-orders.
func (h *Handler) ListGuestOrders(ctx context.Context, in *AuthorizedInput) (*OrderListOutput, error) {
	viewer, err := h.identify(ctx, in.Authorization)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	orders, err := h.orders.ListGuestOrders(ctx, viewer)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	out := &OrderListOutput{Body: make([]OrderBody, len(orders))}
	for i := range orders {
		out.Body[i] = fromGuestOrder(&orders[i])
	}
	return out, nil
}

// GetGuestOrder handles GET /guest-orders/{id}.
func (h *Handler) GetGuestOrder(ctx context.Context, in *OrderByIDInput) (*OrderOutput, error) {
	viewer, err := h.identify(ctx, in.Authorization)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	o, err := h.orders.GetGuestOrder(ctx, viewer, in.ID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return &OrderOutput{Body: fromGuestOrder(o)}, nil
}

// identify resolves the credential of a read request. Reads never fall back
// to guest access, so an unresolvable token is reported as unauthenticated.
func (h *Handler) identify(ctx context.Context, credential string) (auth.Identity, error) {
	if credential == "" {
		return nil, auth.ErrUnauthenticated
	}
	return h.orders.Identify(ctx, credential)
}
