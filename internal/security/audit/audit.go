package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/requestid"
)

// Outcome values for audit records
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDenied  = "denied"
)

type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With(slog.String("log_type", "audit")), now: time.Now}
}

// Actor identifies who performed an audited action
type Actor struct {
	Role   string
	UserID string
}

func (al *Logger) LogAction(ctx context.Context, actor Actor, action, resource, resourceID, status, details string) {
	al.logger.InfoContext(ctx, "audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("actor_role", actor.Role),
		slog.String("actor_id", actor.UserID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestid.From(ctx)),
		slog.Time("timestamp", al.now()),
	)
}

// LogLogin records a login attempt. The identifier is an email or the
// client address for login-code attempts, never the code itself.
func (al *Logger) LogLogin(ctx context.Context, role, userID, identifier, status string) {
	al.LogAction(ctx, Actor{Role: role, UserID: userID}, "login", "session", "", status, identifier)
}

func (al *Logger) LogBooking(ctx context.Context, actor Actor, action, flatID, status, details string) {
	al.LogAction(ctx, actor, action, "flat", flatID, status, details)
}

// LogCodeSent records that a login code was handed out for a flat
func (al *Logger) LogCodeSent(ctx context.Context, actor Actor, flatID, tenantID string) {
	al.LogAction(ctx, actor, "send_login_code", "flat", flatID, StatusSuccess, "tenant="+tenantID)
}

func (al *Logger) LogDenied(ctx context.Context, actor Actor, reason string) {
	al.LogAction(ctx, actor, "access_denied", "api", "", StatusDenied, reason)
}
