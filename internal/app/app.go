// Package app assembles the stores and services shared by the server and the
// command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/homerental/internal/notify"
	"github.com/aryan0dhankhar/homerental/internal/reliability/retry"
	"github.com/aryan0dhankhar/homerental/internal/repository"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
	"github.com/aryan0dhankhar/homerental/internal/service"
	"github.com/aryan0dhankhar/homerental/pkg/config"
	"github.com/aryan0dhankhar/homerental/pkg/database"
)

// App holds the wired dependencies of one process
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Store    domain.Store
	Sessions domain.SessionRepository
	OTPs     domain.OTPRepository
	// Sweepers are the stores without native expiry
	Sweepers []domain.Sweeper
	Redis    *redis.Client
	Events   events.Publisher
	Hub      *notify.Hub
	Audit    *audit.Logger

	Identity      *service.IdentityService
	Flats         *service.FlatService
	Tenants       *service.TenantService
	Maintenance   *service.MaintenanceService
	Payments      *service.PaymentService
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService

	closers []func() error
}

// Options selects what New connects to
type Options struct {
	// Events connects to NATS when NATS_URL is set
	Events bool
	// Migrate applies the schema when the postgres driver is used
	Migrate bool
}

// New connects the configured backends and builds the services. Startup
// connections are retried with backoff.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Hub: notify.NewHub(logger), Audit: audit.NewLogger(logger)}

	if err := a.openStore(ctx, opts.Migrate); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.openSessions(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.openEvents(opts.Events)
	a.buildServices()
	return a, nil
}

func (a *App) openStore(ctx context.Context, migrate bool) error {
	switch a.Config.StoreDriver {
	case "postgres":
		pool, err := retry.Do(ctx, nil, a.Logger, "connect postgres", func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, a.Config.Database(), a.Logger)
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		if migrate {
			if err := repository.Migrate(ctx, pool.GetDB()); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			a.Logger.Info("schema migrated")
		}
		a.Store = repository.NewPostgresStore(pool.GetDB(), a.Logger)
	default:
		a.Store = repository.NewMemoryStore()
		a.Logger.Warn("using in-memory store, data is lost on restart")
	}
	return nil
}

func (a *App) openSessions(ctx context.Context) error {
	switch a.Config.SessionDriver {
	case "redis":
		client, err := retry.Do(ctx, nil, a.Logger, "connect redis", func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(ctx, a.Config.RedisURL, a.Config.RedisKeyPrefix, a.Logger)
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.Redis = client
		a.Sessions = repository.NewRedisSessionRepository(client, a.Logger)
		a.OTPs = repository.NewRedisOTPRepository(client, a.Logger)
	default:
		sessions := repository.NewMemorySessionRepository()
		otps := repository.NewMemoryOTPRepository()
		a.Sessions, a.OTPs = sessions, otps
		a.Sweepers = []domain.Sweeper{sessions, otps}
	}
	return nil
}

func (a *App) openEvents(enabled bool) {
	a.Events = events.NoopPublisher{}
	if !enabled || a.Config.NATSURL == "" {
		return
	}
	pub, err := events.Connect(a.Config.NATSURL, a.Logger)
	if err != nil {
		// events are best effort, the API keeps working without them
		a.Logger.Warn("nats unavailable, events disabled", slog.String("error", err.Error()))
		return
	}
	a.Events = pub
	a.closers = append(a.closers, pub.Close)
}

func (a *App) buildServices() {
	a.Dashboard = service.NewDashboardService(a.Store, a.Config.DashboardCacheTTL, a.Logger)
	out := service.Outbound{Events: a.Events, Hub: a.Hub, Cache: a.Dashboard, Audit: a.Audit}

	a.Identity = service.NewIdentityService(a.Store, a.Sessions, a.OTPs,
		auth.NewTokenManager(a.Config.JWTSecret, "homerental"),
		service.IdentityConfig{
			SessionTTL:        a.Config.SessionTTL,
			OTPTTL:            a.Config.OTPTTL,
			PasswordMinLength: a.Config.PasswordMinLength,
			RequireActivation: a.Config.RequireActivation,
			LogOTPCodes:       !a.Config.IsProduction(),
		}, out, a.Logger)
	a.Flats = service.NewFlatService(a.Store, out, a.Logger)
	a.Tenants = service.NewTenantService(a.Store, out, a.Logger)
	a.Notifications = service.NewNotificationService(a.Store, out, a.Logger)
	a.Maintenance = service.NewMaintenanceService(a.Store, a.Notifications, out, a.Logger)
	a.Payments = service.NewPaymentService(a.Store, a.Notifications, out, a.Logger)
}

// Close releases every connection in reverse order of opening
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
