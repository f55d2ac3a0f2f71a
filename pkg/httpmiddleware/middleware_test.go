package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Order(t *testing.T) {
	var calls []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mark("outer"), mark("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/orders", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return r
}

func TestMakeRouteFinder(t *testing.T) {
	find := MakeRouteFinder(newRouter())

	route, ok := find(httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	require.True(t, ok)
	assert.Equal(t, "/orders/{id}", route)

	route, ok = find(httptest.NewRequest(http.MethodPost, "/orders", nil))
	require.True(t, ok)
	assert.Equal(t, "/orders", route)

	_, ok = find(httptest.NewRequest(http.MethodDelete, "/orders", nil))
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})
	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-1")
		w := serve(h, req)
		assert.Equal(t, "upstream-1", seen)
		assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
	})
	t.Run("Rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		serve(h, req)
		assert.Len(t, seen, 36)
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Wrap(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
		InjectLogger(zap.New(core)),
		Recovery(),
	)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestLogRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := newRouter()
	h := Wrap(router,
		RequestID(),
		InjectLogger(zap.New(core)),
		LogRequests(MakeRouteFinder(router)),
	)

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	serve(h, req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/orders", fields["route"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "req-7", fields["request_id"])
}

func TestInjectLogger(t *testing.T) {
	lg := zap.NewNop()
	var got *zap.Logger
	h := InjectLogger(lg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = zctx.From(r.Context())
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.NotNil(t, got)
}

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func TestInstrument(t *testing.T) {
	router := newRouter()
	find := MakeRouteFinder(router)
	h := Wrap(router, Instrument("shop", find, noopTelemetry{}), Labeler(find))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/orders/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
