package app

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/bass-shop/internal/analytics"
	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/order"
	"github.com/xenking/bass-shop/internal/handler"
	"github.com/xenking/bass-shop/internal/storage"
	"github.com/xenking/bass-shop/pkg/health"
	"github.com/xenking/bass-shop/pkg/httpmiddleware"
)

const serviceName = "bass-shop"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer store.Close()
	lg.Info("Storage ready", zap.String("driver", store.Driver))

	healthSvc := health.New()
	healthSvc.AddReadinessCheck(store.Driver, 5*time.Second, health.PingCheck(store.Driver, store))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	sink, closeSink, err := newAnalyticsSink(lg, cfg.Analytics)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			lg.Warn("Flush analytics", zap.Error(err))
		}
	}()

	h, err := NewHTTPHandler(ctx, lg, m, cfg, store, sink, healthSvc)
	if err != nil {
		return err
	}
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newAnalyticsSink returns the Segment client when a write key is set, and a
// logging sink otherwise. The returned func flushes pending calls.
func newAnalyticsSink(lg *zap.Logger, cfg AnalyticsConfig) (analytics.Sink, func() error, error) {
	lg = lg.Named("analytics")
	if cfg.WriteKey == "" {
		lg.Warn("Analytics write key not set, events are only logged")
		return analytics.NewLogSink(lg), func() error { return nil }, nil
	}

	client, err := analytics.NewSegmentClient(cfg.WriteKey,
		analytics.WithEndpoint(cfg.Endpoint),
		analytics.WithFlushInterval(cfg.FlushInterval),
		analytics.WithLogger(lg),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// NewHTTPHandler wires the domain services over store and returns the full
// middleware-wrapped router.
func NewHTTPHandler(
	ctx context.Context,
	lg *zap.Logger,
	tel httpmiddleware.Telemetry,
	cfg *Config,
	store *storage.Store,
	sink analytics.Sink,
	healthSvc *health.Health,
) (http.Handler, error) {
	resolver := auth.NewResolver(store.Users,
		auth.NewJWTVerifier([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Leeway),
	)

	orders, err := order.NewService(resolver, store.Orders, analytics.NewNotifier(sink),
		order.WithTracerProvider(tel.TracerProvider()),
		order.WithMeterProvider(tel.MeterProvider()),
		order.WithNotifyTimeout(cfg.Analytics.Timeout),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)

	api := humachi.New(router, huma.DefaultConfig("Bass Shop API", "1.0.0"))
	handler.NewHandler(store.Catalog, orders).Register(api)

	routeFinder := httpmiddleware.MakeRouteFinder(router)
	return httpmiddleware.Wrap(router,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.Instrument(serviceName, routeFinder, tel),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	), nil
}
