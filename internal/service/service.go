// Package service implements the rental domain operations on top of a
// domain.Store.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
)

// EventPublisher receives domain events after a change is committed
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// NotificationSink receives every notification once it is stored
type NotificationSink interface {
	Publish(n *domain.Notification)
}

// Invalidator drops cached read models after a write
type Invalidator interface {
	Invalidate()
}

type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, subject string, payload any) error { return nil }

type noopSink struct{}

func (noopSink) Publish(n *domain.Notification) {}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate() {}

// Outbound bundles the side channels every service writes to after a commit.
// Zero fields are replaced with no-ops.
type Outbound struct {
	Events EventPublisher
	Hub    NotificationSink
	Cache  Invalidator
	Audit  *audit.Logger
}

func (o Outbound) withDefaults(logger *slog.Logger) Outbound {
	if o.Events == nil {
		o.Events = noopPublisher{}
	}
	if o.Hub == nil {
		o.Hub = noopSink{}
	}
	if o.Cache == nil {
		o.Cache = noopInvalidator{}
	}
	if o.Audit == nil {
		o.Audit = audit.NewLogger(logger)
	}
	return o
}

// emit publishes an event; failures are logged and never reach the caller
func (o Outbound) emit(ctx context.Context, logger *slog.Logger, subject string, payload any) {
	if err := o.Events.Publish(ctx, subject, payload); err != nil {
		logger.Warn("event not published",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
	}
}

func actorOf(p *domain.Principal) audit.Actor {
	return audit.Actor{Role: string(p.Role()), UserID: p.UserID()}
}

func newID() string {
	return uuid.NewString()
}

// later returns now, or prev plus a microsecond when the clock has not moved
// at least that far past prev. Postgres stores microseconds.
func later(prev, now time.Time) time.Time {
	if now.Sub(prev) >= time.Microsecond {
		return now
	}
	return prev.Add(time.Microsecond)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}
