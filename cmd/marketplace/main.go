package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"

	"github.com/imdevedugame/backend-pwa/internal/cart"
	"github.com/imdevedugame/backend-pwa/internal/config"
	"github.com/imdevedugame/backend-pwa/internal/identity"
	"github.com/imdevedugame/backend-pwa/internal/inventory"
	"github.com/imdevedugame/backend-pwa/internal/logging"
	"github.com/imdevedugame/backend-pwa/internal/messaging"
	"github.com/imdevedugame/backend-pwa/internal/orders"
	"github.com/imdevedugame/backend-pwa/internal/rating"
	"github.com/imdevedugame/backend-pwa/internal/telemetry"
	"github.com/imdevedugame/backend-pwa/internal/users"
)

const serviceName = "marketplace"

func main() {
	ctx := context.Background()
	cfg := config.Load("8080")
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Require(config.EnvPostgresURL, config.EnvJWTSecret); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(ctx) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewMetrics(otel.Meter(serviceName))
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	opts := []orders.ServiceOption{orders.WithMetrics(metrics)}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = producer.Close() }()
		opts = append(opts, orders.WithPublisher(producer))
	} else {
		logger.Warn("KAFKA_BROKERS not set, events will not be published")
	}

	userRepo := users.NewUserRepository(db)
	resolver := identity.NewResolver(identity.NewVerifier(cfg.JWTSecret), userRepo)

	ledger := inventory.NewLedger(db)
	reviews := rating.NewReviewRepository(db)
	orderService := orders.NewService(db, ledger, reviews, rating.NewAggregator(), logger, opts...)

	orderHandler := orders.NewHandler(orderService)
	inventoryHandler := inventory.NewHandler(ledger)
	ratingHandler := rating.NewHandler(reviews)
	cartHandler := cart.NewHandler(cart.NewService(cart.NewRepository(db)))
	userHandler := users.NewHandler(userRepo)

	public := func(h http.HandlerFunc) http.Handler {
		return telemetry.WithHTTPRoute(h)
	}
	private := func(h http.HandlerFunc) http.Handler {
		return identity.RequireUser(resolver, telemetry.WithHTTPRoute(h))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.Handle("GET /orders", private(orderHandler.HandleList))
	mux.Handle("GET /orders/{id}", private(orderHandler.HandleGet))
	mux.Handle("POST /orders", private(orderHandler.HandleCreate))
	mux.Handle("PUT /orders/{id}/status", private(orderHandler.HandleUpdateStatus))
	mux.Handle("POST /orders/{id}/review", private(orderHandler.HandleCreateReview))

	mux.Handle("GET /cart", private(cartHandler.HandleList))
	mux.Handle("POST /cart", private(cartHandler.HandleAdd))
	mux.Handle("PUT /cart/{id}", private(cartHandler.HandleUpdate))
	mux.Handle("DELETE /cart/{id}", private(cartHandler.HandleRemove))

	mux.Handle("GET /users/me", private(userHandler.HandleGetMe))
	mux.Handle("GET /users/{id}", public(userHandler.HandleGetProfile))
	mux.Handle("GET /users/{id}/reviews", public(ratingHandler.HandleListSellerReviews))
	mux.Handle("GET /products/{id}/stock", public(inventoryHandler.HandleGetStock))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(logging.Middleware(logger, mux), serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting marketplace service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
