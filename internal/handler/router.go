package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/notify"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/middleware"
	"github.com/aryan0dhankhar/homerental/internal/security/ratelimit"
	"github.com/aryan0dhankhar/homerental/internal/service"
	"github.com/aryan0dhankhar/homerental/pkg/config"
)

// Services are the domain services the API exposes
type Services struct {
	Identity      *service.IdentityService
	Flats         *service.FlatService
	Tenants       *service.TenantService
	Maintenance   *service.MaintenanceService
	Payments      *service.PaymentService
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
}

// RouterOptions wires the cross-cutting pieces of the API
type RouterOptions struct {
	Cookie         config.CookieConfig
	AllowedOrigins []string

	Authz   *security.AuthorizationService
	Audit   *audit.Logger
	Limiter *ratelimit.Limiter
	// LoginAttempts per LoginWindow and client address on credential routes
	LoginAttempts int
	LoginWindow   time.Duration
	// Proxies whose X-Forwarded-For names the client; empty keys on the peer
	Proxies middleware.TrustedProxies

	// Hub enables GET /ws/notifications when set
	Hub     *notify.Hub
	Health  *HealthHandler
	Metrics http.Handler
}

type mw = func(http.Handler) http.Handler

// NewRouter registers every route on a ServeMux. Authenticated routes run
// Authenticate, RateLimit, RequirePermission and Audit in that order.
func NewRouter(svc Services, opts RouterOptions, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Authz == nil {
		opts.Authz = security.NewAuthorizationService(logger)
	}
	if opts.Audit == nil {
		opts.Audit = audit.NewLogger(logger)
	}
	if opts.LoginWindow <= 0 {
		opts.LoginWindow = time.Minute
	}

	authH := NewAuthHandler(svc.Identity, opts.Cookie, logger)
	flatsH := NewFlatsHandler(svc.Flats, logger)
	tenantsH := NewTenantsHandler(svc.Tenants, logger)
	maintH := NewMaintenanceHandler(svc.Maintenance, logger)
	paymentsH := NewPaymentsHandler(svc.Payments, logger)
	notifH := NewNotificationsHandler(svc.Notifications, logger)
	dashH := NewDashboardHandler(svc.Dashboard, logger)

	public := func(h http.HandlerFunc) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(opts.Limiter, opts.Proxies, logger)(h)
	}
	credential := func(h http.HandlerFunc) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return middleware.Chain(h,
			middleware.LoginRateLimit(opts.Limiter, opts.Proxies, opts.LoginAttempts, opts.LoginWindow, logger),
			middleware.RateLimitMiddleware(opts.Limiter, opts.Proxies, logger),
		)
	}
	authed := func(perm security.Permission, h http.Handler) http.Handler {
		mws := []mw{middleware.Authenticate(svc.Identity, opts.Cookie.Name, logger)}
		if opts.Limiter != nil {
			mws = append(mws, middleware.RateLimitMiddleware(opts.Limiter, opts.Proxies, logger))
		}
		if perm != "" {
			mws = append(mws, middleware.RequirePermission(opts.Authz, perm, opts.Audit))
		}
		mws = append(mws, middleware.AuditMiddleware(opts.Audit))
		return middleware.Chain(h, mws...)
	}

	mux := http.NewServeMux()

	// identity
	mux.Handle("POST /api/v1/auth/admin/register", credential(authH.Register))
	mux.Handle("POST /api/v1/auth/admin/login", credential(authH.LoginAdmin))
	mux.Handle("POST /api/v1/auth/tenant/login", credential(authH.LoginTenant))
	mux.Handle("GET /api/v1/auth/session", authed("", http.HandlerFunc(authH.Session)))
	mux.Handle("POST /api/v1/auth/logout", public(authH.Logout))
	mux.Handle("PATCH /api/v1/auth/password", authed(security.PermChangePassword, http.HandlerFunc(authH.ChangePassword)))
	mux.Handle("PATCH /api/v1/auth/profile", authed("", http.HandlerFunc(authH.UpdateProfile)))

	// account routes of the original client
	mux.Handle("POST /api/v1/login", credential(authH.Login))
	mux.Handle("GET /api/v1/logout", public(authH.LogoutLegacy))
	mux.Handle("PATCH /api/v1/change-password", authed(security.PermChangePassword, http.HandlerFunc(authH.SetPassword)))
	mux.Handle("POST /api/v1/activate-account/{otp}", credential(authH.ActivateAccount))
	mux.Handle("POST /api/v1/forgot-password/{otp}", credential(authH.ForgotPassword))
	mux.Handle("PATCH /api/v1/resend-otp/{reason}", credential(authH.ResendOTP))
	mux.Handle("GET /api/v1/std-home", authed("", http.HandlerFunc(dashH.Home)))
	mux.Handle("GET /api/v1/home", authed("", http.HandlerFunc(dashH.Home)))

	// flats
	mux.Handle("GET /api/v1/flats", authed(security.PermReadFlats, http.HandlerFunc(flatsH.List)))
	mux.Handle("POST /api/v1/flats", authed(security.PermManageFlats, http.HandlerFunc(flatsH.Create)))
	mux.Handle("GET /api/v1/flats/{id}", authed(security.PermReadFlats, http.HandlerFunc(flatsH.Get)))
	mux.Handle("PUT /api/v1/flats/{id}", authed(security.PermManageFlats, http.HandlerFunc(flatsH.Update)))
	mux.Handle("DELETE /api/v1/flats/{id}", authed(security.PermManageFlats, http.HandlerFunc(flatsH.Delete)))
	mux.Handle("POST /api/v1/flats/{id}/book", authed(security.PermManageFlats, http.HandlerFunc(flatsH.Book)))
	mux.Handle("POST /api/v1/flats/{id}/release", authed(security.PermManageFlats, http.HandlerFunc(flatsH.Release)))
	mux.Handle("POST /api/v1/flats/{id}/send-code", authed(security.PermManageFlats, http.HandlerFunc(flatsH.SendLoginCode)))

	// tenants; the service limits tenants to their own record
	mux.Handle("GET /api/v1/tenants", authed(security.PermManageTenants, http.HandlerFunc(tenantsH.List)))
	mux.Handle("GET /api/v1/tenants/{id}", authed("", http.HandlerFunc(tenantsH.Get)))
	mux.Handle("PATCH /api/v1/tenants/{id}", authed(security.PermManageTenants, http.HandlerFunc(tenantsH.Update)))
	mux.Handle("DELETE /api/v1/tenants/{id}", authed(security.PermManageTenants, http.HandlerFunc(tenantsH.Delete)))

	// maintenance
	mux.Handle("GET /api/v1/maintenance", authed(security.PermReadMaintenance, http.HandlerFunc(maintH.List)))
	mux.Handle("POST /api/v1/maintenance", authed(security.PermSubmitMaintenance, http.HandlerFunc(maintH.Submit)))
	mux.Handle("GET /api/v1/maintenance/{id}", authed(security.PermReadMaintenance, http.HandlerFunc(maintH.Get)))
	mux.Handle("PATCH /api/v1/maintenance/{id}/status", authed(security.PermManageMaintenance, http.HandlerFunc(maintH.AdvanceStatus)))

	// payments
	mux.Handle("GET /api/v1/payments", authed(security.PermReadPayments, http.HandlerFunc(paymentsH.List)))
	mux.Handle("POST /api/v1/payments", authed(security.PermManageBilling, http.HandlerFunc(paymentsH.Create)))
	mux.Handle("GET /api/v1/payments/{id}", authed(security.PermReadPayments, http.HandlerFunc(paymentsH.Get)))
	mux.Handle("POST /api/v1/payments/{id}/pay", authed(security.PermPayInvoice, http.HandlerFunc(paymentsH.Pay)))
	mux.Handle("POST /api/v1/payments/{id}/overdue", authed(security.PermManageBilling, http.HandlerFunc(paymentsH.MarkOverdue)))

	// notifications
	mux.Handle("GET /api/v1/notifications", authed(security.PermReadNotifications, http.HandlerFunc(notifH.List)))
	mux.Handle("POST /api/v1/notifications", authed(security.PermBroadcast, http.HandlerFunc(notifH.Broadcast)))
	mux.Handle("POST /api/v1/notifications/{id}/read", authed(security.PermReadNotifications, http.HandlerFunc(notifH.MarkRead)))
	if opts.Hub != nil {
		mux.Handle("GET /ws/notifications", authed(security.PermStreamNotification,
			NewStreamHandler(opts.Hub, logger, opts.AllowedOrigins)))
	}

	mux.Handle("GET /api/v1/dashboard", authed(security.PermViewDashboard, http.HandlerFunc(dashH.Admin)))

	// operational, no auth
	if opts.Health != nil {
		mux.HandleFunc("GET /healthz", opts.Health.Health)
		mux.HandleFunc("GET /readyz", opts.Health.Ready)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return mux
}
