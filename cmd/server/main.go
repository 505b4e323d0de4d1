package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/homerental/internal/app"
	"github.com/aryan0dhankhar/homerental/internal/featureflags"
	"github.com/aryan0dhankhar/homerental/internal/handler"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/observability/tracing"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/security/ratelimit"
	"github.com/aryan0dhankhar/homerental/internal/service"
	"github.com/aryan0dhankhar/homerental/internal/worker"
	"github.com/aryan0dhankhar/homerental/pkg/config"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting home rental server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing, a no-op without an endpoint
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Options{
		ServiceName: "homerental",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Stores, sessions, events and services
	a, err := app.New(ctx, cfg, log, app.Options{Events: true, Migrate: cfg.AutoMigrate})
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	if featureflags.Enabled(featureflags.DemoSeed) {
		if _, err := service.Seed(ctx, a.Store, log); err != nil {
			log.Error("failed to seed demo data", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 5. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.APIRateLimitPerMinute, time.Minute)
	authz := security.NewAuthorizationService(log)
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Error("invalid TRUSTED_PROXIES", slog.String("error", err.Error()))
		os.Exit(1)
	}

	checks := map[string]handler.Pinger{"store": a.Store}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}

	var hub = a.Hub
	if !featureflags.EnabledOr(featureflags.WSNotifications, true) {
		hub = nil
	}

	// 6. Routes
	mux := handler.NewRouter(handler.Services{
		Identity:      a.Identity,
		Flats:         a.Flats,
		Tenants:       a.Tenants,
		Maintenance:   a.Maintenance,
		Payments:      a.Payments,
		Notifications: a.Notifications,
		Dashboard:     a.Dashboard,
	}, handler.RouterOptions{
		Cookie:         cfg.Cookie,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Authz:          authz,
		Audit:          a.Audit,
		Limiter:        rateLimiter,
		LoginAttempts:  cfg.LoginRateLimitPerMinute,
		LoginWindow:    time.Minute,
		Proxies:        proxies,
		Hub:            hub,
		Health:         handler.NewHealthHandler(checks, log),
		Metrics:        promhttp.Handler(),
	}, log)

	// Chain middleware: recovery -> request ID -> tracing -> CORS -> input checks -> metrics -> routes
	rootHandler := middleware.Chain(mux,
		middleware.Recovery(log, cfg.IsProduction()),
		middleware.RequestID(log),
		func(next http.Handler) http.Handler { return otelhttp.NewHandler(next, "homerental") },
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizeInputs(log),
		middleware.ValidateJSONContentType(log),
		metrics.HTTPMetricsMiddleware,
	)

	// 7. Evict expired in-memory sessions
	janitor := worker.NewSessionJanitor(a.Sweepers, log, cfg.SessionSweepInterval)
	go janitor.Start(ctx)

	// 8. Start HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           rootHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
		slog.String("sessions", cfg.SessionDriver),
		slog.Int("rate_limit", cfg.APIRateLimitPerMinute),
		slog.Bool("websocket", hub != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop the janitor
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
