package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
)

// MaintenanceInput is a tenant's ticket form
type MaintenanceInput struct {
	Title       string
	Description string
	ImageURL    string
}

// MaintenanceService handles the maintenance ticket lifecycle
type MaintenanceService struct {
	store         domain.Store
	notifications *NotificationService
	ownership     *security.OwnershipChecker
	out           Outbound
	logger        *slog.Logger
	now           func() time.Time
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(store domain.Store, notifications *NotificationService, out Outbound, logger *slog.Logger) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceService{
		store:         store,
		notifications: notifications,
		ownership:     security.NewOwnershipChecker(logger),
		out:           out.withDefaults(logger),
		logger:        logger,
		now:           time.Now,
	}
}

// Submit files a ticket for the tenant's own flat
func (s *MaintenanceService) Submit(ctx context.Context, tenant *domain.Tenant, in MaintenanceInput) (*domain.MaintenanceRequest, error) {
	if tenant == nil || !tenant.Housed() {
		return nil, fmt.Errorf("tenant has no flat: %w", domain.ErrConflict)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := required("title", in.Title); err != nil {
		return nil, err
	}
	if in.ImageURL != "" {
		u, err := url.Parse(in.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, domain.NewValidationError("imageUrl", "must be an http or https URL")
		}
	}

	now := s.now().UTC()
	req := &domain.MaintenanceRequest{
		ID:          newID(),
		FlatID:      tenant.FlatID,
		TenantID:    tenant.ID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		Status:      domain.MaintenanceReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Maintenance().Create(ctx, req); err != nil {
		return nil, err
	}

	metrics.ObserveMaintenanceTransition(string(req.Status))
	s.out.Cache.Invalidate()
	s.logger.Info("maintenance request submitted",
		slog.String("request_id", req.ID),
		slog.String("tenant_id", tenant.ID),
	)
	return req, nil
}

// AdvanceStatus moves a ticket strictly forward and tells its tenant
func (s *MaintenanceService) AdvanceStatus(ctx context.Context, actor *domain.Principal, id string, status domain.MaintenanceStatus) (*domain.MaintenanceRequest, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "must be received, in_progress or done")
	}

	var (
		req  *domain.MaintenanceRequest
		from domain.MaintenanceStatus
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		req, err = tx.Maintenance().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !req.Status.CanAdvanceTo(status) {
			return fmt.Errorf("%s to %s: %w", req.Status, status, domain.ErrInvalidTransition)
		}
		from = req.Status
		req.Status = status
		req.UpdatedAt = later(req.UpdatedAt, s.now().UTC())
		return tx.Maintenance().Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveMaintenanceTransition(string(status))
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "advance_maintenance", "maintenance_request", id, audit.StatusSuccess,
		fmt.Sprintf("%s->%s", from, status))
	s.out.emit(ctx, s.logger, events.SubjectMaintenanceStatusChange, map[string]string{
		"request_id": req.ID,
		"tenant_id":  req.TenantID,
		"from":       string(from),
		"to":         string(status),
	})

	if s.notifications != nil {
		msg := fmt.Sprintf("Your request %q is now %s.", req.Title, status.Label())
		if _, err := s.notifications.Notify(ctx, req.TenantID, req.FlatID, domain.NotificationMaintenance, "Maintenance update", msg); err != nil {
			s.logger.Warn("maintenance notification not stored",
				slog.String("request_id", req.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return req, nil
}

// List returns tickets; tenants only ever see their own
func (s *MaintenanceService) List(ctx context.Context, p *domain.Principal, filter domain.MaintenanceFilter) ([]*domain.MaintenanceRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "must be received, in_progress or done")
	}
	if !p.IsAdmin() {
		filter.TenantID = p.UserID()
	}
	return s.store.Maintenance().List(ctx, filter)
}

// Get returns one ticket
func (s *MaintenanceService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.MaintenanceRequest, error) {
	req, err := s.store.Maintenance().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ownership.ValidateResourceAccess(p, security.ResourcePermission{
		ResourceType: security.ResourceMaintenance,
		ResourceID:   id,
		OwnerID:      req.TenantID,
	}); err != nil {
		return nil, err
	}
	return req, nil
}
