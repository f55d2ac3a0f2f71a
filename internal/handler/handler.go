// Package handler exposes the order and catalog operations over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
)

// OrderService is the order use-case surface consumed by the handlers.
type OrderService interface {
	PlaceOrder(ctx context.Context, credential string, req order.PlaceOrderRequest) (order.Order, error)
	Identify(ctx context.Context, credential string) (auth.Identity, error)
	ListOrders(ctx context.Context, viewer auth.Identity) ([]order.CustomerOrder, error)
	GetOrder(ctx context.Context, viewer auth.Identity, id int64) (*order.CustomerOrder, error)
	ListGuestOrders(ctx context.Context, viewer auth.Identity) ([]order.GuestOrder, error)
	GetGuestOrder(ctx context.Context, viewer auth.Identity, id int64) (*order.GuestOrder, error)
}

var _ OrderService = (*order.Service)(nil)

// Handler serves the shop API, delegating business logic to the order
// service and catalog repository.
type Handler struct {
	catalog catalog.Repository
	orders  OrderService
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(catalog catalog.Repository, orders OrderService) *Handler {
	return &Handler{
		catalog: catalog,
		orders:  orders,
	}
}

// Register adds every operation to api.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "place-order",
		Summary:       "Place an order",
		Description:   "Places a customer order when the bearer token resolves to a customer, otherwise a guest order that requires guest_user_data.",
		Method:        http.MethodPost,
		Path:          "/orders",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusOK,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusExpectationFailed,
			http.StatusUnprocessableEntity,
			http.StatusFailedDependency,
			http.StatusInternalServerError,
		},
	}, h.PlaceOrder)

	huma.Register(api, huma.Operation{
		OperationID: "list-orders",
		Summary:     "List orders",
		Description: "Customers see their own orders, staff see every customer order.",
		Method:      http.MethodGet,
		Path:        "/orders",
		Tags:        []string{"Orders"},
		Errors:      []int{http.StatusUnauthorized, http.StatusExpectationFailed},
	}, h.ListOrders)

	huma.Register(api, huma.Operation{
		OperationID: "get-order",
		Summary:     "Get order",
		Method:      http.MethodGet,
		Path:        "/orders/{id}",
		Tags:        []string{"Orders"},
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusExpectationFailed},
	}, h.GetOrder)

	huma.Register(api, huma.Operation{
		OperationID: "list-guest-orders",
		Summary:     "List guest orders",
		Description: "Staff only.",
		Method:      http.MethodGet,
		Path:        "/guest-orders",
		Tags:        []string{"Orders"},
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusExpectationFailed},
	}, h.ListGuestOrders)

	huma.Register(api, huma.Operation{
		OperationID: "get-guest-order",
		Summary:     "Get guest order",
		Description: "Staff only.",
		Method:      http.MethodGet,
		Path:        "/guest-orders/{id}",
		Tags:        []string{"Orders"},
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusExpectationFailed},
	}, h.GetGuestOrder)

	huma.Register(api, huma.Operation{
		OperationID: "list-bass-guitars",
		Summary:     "List bass guitars",
		Method:      http.MethodGet,
		Path:        "/bass-guitars",
		Tags:        []string{"Catalog"},
	}, h.ListBassGuitars)

	huma.Register(api, huma.Operation{
		OperationID: "list-manufacturers",
		Summary:     "List manufacturers",
		Method:      http.MethodGet,
		Path:        "/manufacturers",
		Tags:        []string{"Catalog"},
	}, h.ListManufacturers)
}
