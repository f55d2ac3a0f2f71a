package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
	"github.com/xenking/bass-shop/internal/storage/sqlite"
)

// --- Mock implementations ---

type mockOrderService struct {
	placed   order.Order
	placeErr error
	identity auth.Identity
	readErr  error
}

func (m *mockOrderService) PlaceOrder(context.Context, string, order.PlaceOrderRequest) (order.Order, error) {
	return m.placed, m.placeErr
}

func (m *mockOrderService) Identify(context.Context, string) (auth.Identity, error) {
	if m.identity == nil {
		return auth.Anonymous{}, nil
	}
	return m.identity, nil
}

func (m *mockOrderService) ListOrders(context.Context, auth.Identity) ([]order.CustomerOrder, error) {
	return nil, m.readErr
}

func (m *mockOrderService) GetOrder(context.Context, auth.Identity, int64) (*order.CustomerOrder, error) {
	return nil, m.readErr
}

func (m *mockOrderService) ListGuestOrders(context.Context, auth.Identity) ([]order.GuestOrder, error) {
	return nil, m.readErr
}

func (m *mockOrderService) GetGuestOrder(context.Context, auth.Identity, int64) (*order.GuestOrder, error) {
	return nil, m.readErr
}

type emptyCatalog struct{}

func (emptyCatalog) ListBassGuitars(context.Context) ([]catalog.BassGuitar, error) { return nil, nil }
func (emptyCatalog) ListManufacturers(context.Context) ([]catalog.Manufacturer, error) {
	return nil, nil
}

type recordingNotifier struct{ orders []order.Order }

func (n *recordingNotifier) Notify(_ context.Context, o order.Order) error {
	n.orders = append(n.orders, o)
	return nil
}

// --- Helpers ---

var testSecret = []byte("test-secret")

func signToken(t *testing.T, subject string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "accounts",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func guestBody(lines ...CartLine) map[string]any {
	if lines == nil {
		lines = []CartLine{}
	}
	return map[string]any{
		"guest_user_data": map[string]any{
			"first_name":         "Ann",
			"last_name":          "Lee",
			"email":              "a@x.io",
			"address_first_line": "1 Main St",
			"city":               "Austin",
			"state":              "TX",
			"zip_code":           78701,
		},
		"bass_guitars": lines,
	}
}

type stack struct {
	api      humatest.TestAPI
	notifier *recordingNotifier
	jazzID   int64
}

// newStack wires the handlers to a real service over an in-memory database.
func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	catalogRepo := sqlite.NewCatalogRepository(conn)
	users := sqlite.NewUserRepository(conn)

	mid, err := catalogRepo.UpsertManufacturer(ctx, "Fender")
	require.NoError(t, err)
	jazz := catalog.BassGuitar{ManufacturerID: mid, ModelName: "Jazz Bass", Color: "Sunburst", Strings: 4, Price: decimal.RequireFromString("150.00")}
	require.NoError(t, catalogRepo.UpsertBassGuitar(ctx, &jazz))

	require.NoError(t, users.UpsertUser(ctx, &auth.User{AccountID: "acct-42", Type: auth.UserTypeCustomer, FirstName: "Jaco", LastName: "Pastorius", Email: "jaco@example.com"}))
	require.NoError(t, users.UpsertUser(ctx, &auth.User{AccountID: "acct-43", Type: auth.UserTypeCustomer, FirstName: "Carol", LastName: "Kaye", Email: "carol@example.com"}))
	require.NoError(t, users.UpsertUser(ctx, &auth.User{AccountID: "acct-7", Type: auth.UserTypeEmployee, FirstName: "Staff", LastName: "Member", Email: "staff@example.com"}))

	n := &recordingNotifier{}
	svc, err := order.NewService(
		auth.NewResolver(users, auth.NewJWTVerifier(testSecret, "accounts", 0)),
		sqlite.NewOrderRepository(conn),
		n,
		order.WithTracerProvider(tracenoop.NewTracerProvider()),
		order.WithMeterProvider(metricnoop.NewMeterProvider()),
	)
	require.NoError(t, err)

	_, api := humatest.New(t)
	NewHandler(catalogRepo, svc).Register(api)

	return &stack{api: api, notifier: n, jazzID: jazz.ID}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

// --- Tests ---

func TestPlaceOrder_Guest(t *testing.T) {
	s := newStack(t)

	resp := s.api.Post("/orders", guestBody(CartLine{BassGuitarID: s.jazzID, Quantity: 2}))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[OrderBody](t, resp.Body.Bytes())
	assert.Equal(t, "guest", body.Kind)
	assert.NotZero(t, body.ID)
	require.NotNil(t, body.GuestUserData)
	assert.Equal(t, "a@x.io", body.GuestUserData.Email)
	require.Len(t, body.BassGuitars, 1)
	assert.Equal(t, 150.0, body.BassGuitars[0].HistoricalPrice)
	assert.Equal(t, 2, body.BassGuitars[0].Quantity)
	require.NotNil(t, body.BassGuitars[0].BassGuitar)
	assert.Equal(t, "Fender", body.BassGuitars[0].BassGuitar.Manufacturer.Name)

	assert.Len(t, s.notifier.orders, 1)
}

func TestPlaceOrder_Customer(t *testing.T) {
	s := newStack(t)

	resp := s.api.Post("/orders",
		"Authorization: Bearer "+signToken(t, "acct-42"),
		map[string]any{"bass_guitars": []CartLine{{BassGuitarID: s.jazzID, Quantity: 1}}},
	)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[OrderBody](t, resp.Body.Bytes())
	assert.Equal(t, "customer", body.Kind)
	assert.NotZero(t, body.CustomerID)
	assert.Nil(t, body.GuestUserData)
}

func TestPlaceOrder_UnknownAccountFallsBackToGuest(t *testing.T) {
	s := newStack(t)

	resp := s.api.Post("/orders",
		"Authorization: Bearer "+signToken(t, "acct-unknown"),
		map[string]any{"bass_guitars": []CartLine{{BassGuitarID: s.jazzID, Quantity: 1}}},
	)
	assert.Equal(t, http.StatusFailedDependency, resp.Code)

	resp = s.api.Post("/orders",
		"Authorization: Bearer "+signToken(t, "acct-unknown"),
		guestBody(CartLine{BassGuitarID: s.jazzID, Quantity: 1}),
	)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "guest", decode[OrderBody](t, resp.Body.Bytes()).Kind)
}

func TestPlaceOrder_StatusCodes(t *testing.T) {
	s := newStack(t)

	tests := []struct {
		name string
		args []any
		want int
	}{
		{
			name: "malformed credential",
			args: []any{"Authorization: Token abc", guestBody(CartLine{BassGuitarID: s.jazzID, Quantity: 1})},
			want: http.StatusExpectationFailed,
		},
		{
			name: "missing guest data",
			args: []any{map[string]any{"bass_guitars": []CartLine{{BassGuitarID: s.jazzID, Quantity: 1}}}},
			want: http.StatusFailedDependency,
		},
		{
			name: "unknown bass guitar",
			args: []any{guestBody(CartLine{BassGuitarID: 999, Quantity: 1})},
			want: http.StatusNotFound,
		},
		{
			name: "empty cart",
			args: []any{guestBody()},
			want: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			args: []any{guestBody(CartLine{BassGuitarID: s.jazzID, Quantity: 0})},
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.api.Post("/orders", tt.args...)
			assert.Equal(t, tt.want, resp.Code, resp.Body.String())
		})
	}
	assert.Empty(t, s.notifier.orders)
}

func TestReadOrders(t *testing.T) {
	s := newStack(t)
	owner := "Authorization: Bearer " + signToken(t, "acct-42")
	other := "Authorization: Bearer " + signToken(t, "acct-43")
	staff := "Authorization: Bearer " + signToken(t, "acct-7")

	resp := s.api.Post("/orders", owner, map[string]any{"bass_guitars": []CartLine{{BassGuitarID: s.jazzID, Quantity: 1}}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	id := decode[OrderBody](t, resp.Body.Bytes()).ID
	path := "/orders/" + strconv.FormatInt(id, 10)

	resp = s.api.Get(path, owner)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.api.Get(path, other)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.api.Get(path, staff)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.api.Get(path)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.api.Get("/orders", other)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]OrderBody](t, resp.Body.Bytes()))

	resp = s.api.Get("/orders", staff)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]OrderBody](t, resp.Body.Bytes()), 1)

	resp = s.api.Get("/orders", "Authorization: Bearer a")
	assert.Equal(t, http.StatusExpectationFailed, resp.Code)
}

func TestGuestOrders_StaffOnly(t *testing.T) {
	s := newStack(t)

	resp := s.api.Post("/orders", guestBody(CartLine{BassGuitarID: s.jazzID, Quantity: 1}))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = s.api.Get("/guest-orders", "Authorization: Bearer "+signToken(t, "acct-7"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]OrderBody](t, resp.Body.Bytes()), 1)

	resp = s.api.Get("/guest-orders", "Authorization: Bearer "+signToken(t, "acct-42"))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCatalog(t *testing.T) {
	s := newStack(t)

	resp := s.api.Get("/bass-guitars")
	require.Equal(t, http.StatusOK, resp.Code)
	guitars := decode[[]BassGuitarBody](t, resp.Body.Bytes())
	require.Len(t, guitars, 1)
	assert.Equal(t, 150.0, guitars[0].Price)

	resp = s.api.Get("/manufacturers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []ManufacturerBody{{ID: guitars[0].ManufacturerID, Name: "Fender"}}, decode[[]ManufacturerBody](t, resp.Body.Bytes()))
}

func TestMapError_Persistence(t *testing.T) {
	_, api := humatest.New(t)
	NewHandler(emptyCatalog{}, &mockOrderService{
		placeErr: &order.PersistenceError{Op: "commit order", Err: errors.New("disk full")},
	}).Register(api)

	resp := api.Post("/orders", guestBody(CartLine{BassGuitarID: 1, Quantity: 1}))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "disk full")
}

func TestMapError_Reads(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: order.ErrNotFound, want: http.StatusNotFound},
		{name: "forbidden", err: auth.ErrForbidden, want: http.StatusForbidden},
		{name: "unauthenticated", err: auth.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "storage", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, api := humatest.New(t)
			NewHandler(emptyCatalog{}, &mockOrderService{readErr: tt.err}).Register(api)

			resp := api.Get("/guest-orders/1", "Authorization: Bearer a.b.c")
			assert.Equal(t, tt.want, resp.Code)
		})
	}
}
