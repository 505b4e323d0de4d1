package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
)

// Recipient selects who a broadcast reaches
type Recipient string

const (
	RecipientAll  Recipient = "all"
	RecipientFlat Recipient = "flat"
)

// BroadcastInput is an admin message to tenants
type BroadcastInput struct {
	Title     string
	Message   string
	Type      domain.NotificationType
	Recipient Recipient
	FlatID    string
}

// NotificationService creates and lists tenant notifications
type NotificationService struct {
	store  domain.Store
	out    Outbound
	logger *slog.Logger
	now    func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(store domain.Store, out Outbound, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{store: store, out: out.withDefaults(logger), logger: logger, now: time.Now}
}

// Broadcast stores one notification per recipient tenant
func (s *NotificationService) Broadcast(ctx context.Context, actor *domain.Principal, in BroadcastInput) ([]*domain.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if err := required("title", in.Title); err != nil {
		return nil, err
	}
	if err := required("message", in.Message); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = domain.NotificationMessage
	}
	if !in.Type.Valid() {
		return nil, domain.NewValidationError("type", "must be bill, maintenance or message")
	}

	recipients, err := s.recipients(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := make([]*domain.Notification, 0, len(recipients))
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		for _, t := range recipients {
			n := &domain.Notification{
				ID:       newID(),
				TenantID: t.ID,
				FlatID:   t.FlatID,
				Title:    in.Title,
				Message:  in.Message,
				Date:     now,
				Type:     in.Type,
			}
			if err := tx.Notifications().Create(ctx, n); err != nil {
				return err
			}
			created = append(created, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.delivered(ctx, created)
	s.out.Audit.LogAction(ctx, actorOf(actor), "broadcast", "notification", in.FlatID, audit.StatusSuccess,
		fmt.Sprintf("recipient=%s count=%d", in.Recipient, len(created)))
	return created, nil
}

func (s *NotificationService) recipients(ctx context.Context, in BroadcastInput) ([]*domain.Tenant, error) {
	switch in.Recipient {
	case RecipientAll, "":
		tenants, err := s.store.Tenants().List(ctx)
		if err != nil {
			return nil, err
		}
		housed := tenants[:0]
		for _, t := range tenants {
			if t.Housed() {
				housed = append(housed, t)
			}
		}
		return housed, nil
	case RecipientFlat:
		if err := required("flatId", in.FlatID); err != nil {
			return nil, err
		}
		flat, err := s.store.Flats().GetByID(ctx, in.FlatID)
		if err != nil {
			return nil, err
		}
		if !flat.Booked() {
			return nil, fmt.Errorf("flat %s has no tenant: %w", flat.ID, domain.ErrConflict)
		}
		tenant, err := s.store.Tenants().GetByID(ctx, flat.TenantID)
		if err != nil {
			return nil, err
		}
		return []*domain.Tenant{tenant}, nil
	default:
		return nil, domain.NewValidationError("recipient", "must be all or flat")
	}
}

// Notify stores a system notification for one tenant
func (s *NotificationService) Notify(ctx context.Context, tenantID, flatID string, kind domain.NotificationType, title, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:       newID(),
		TenantID: tenantID,
		FlatID:   flatID,
		Title:    title,
		Message:  message,
		Date:     s.now().UTC(),
		Type:     kind,
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, err
	}
	s.delivered(ctx, []*domain.Notification{n})
	return n, nil
}

// delivered hands committed notifications to live subscribers and the broker
func (s *NotificationService) delivered(ctx context.Context, ns []*domain.Notification) {
	if len(ns) == 0 {
		return
	}
	metrics.ObserveNotifications(string(ns[0].Type), len(ns))
	for _, n := range ns {
		s.out.Hub.Publish(n)
		s.out.emit(ctx, s.logger, events.SubjectNotificationCreated, n)
	}
	s.out.Cache.Invalidate()
}

// ListForTenant returns the caller's notifications, newest first
func (s *NotificationService) ListForTenant(ctx context.Context, tenantID string, unreadOnly bool) ([]*domain.Notification, error) {
	return s.store.Notifications().List(ctx, domain.NotificationFilter{TenantID: tenantID, UnreadOnly: unreadOnly})
}

// ListAll returns every notification, newest first
func (s *NotificationService) ListAll(ctx context.Context, unreadOnly bool) ([]*domain.Notification, error) {
	return s.store.Notifications().List(ctx, domain.NotificationFilter{UnreadOnly: unreadOnly})
}

// List picks ListAll for admins and ListForTenant for tenants
func (s *NotificationService) List(ctx context.Context, p *domain.Principal, unreadOnly bool) ([]*domain.Notification, error) {
	if p.IsAdmin() {
		return s.ListAll(ctx, unreadOnly)
	}
	return s.ListForTenant(ctx, p.UserID(), unreadOnly)
}

// MarkRead flags a notification as read. Only the recipient may do this and
// repeating it is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, p *domain.Principal, id string) (*domain.Notification, error) {
	n, err := s.store.Notifications().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID() != n.TenantID {
		return nil, fmt.Errorf("notification %s: %w", id, domain.ErrForbidden)
	}
	if n.Read {
		return n, nil
	}
	if err := s.store.Notifications().MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	s.out.Cache.Invalidate()
	return n, nil
}
