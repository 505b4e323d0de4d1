package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
)

// TenantService manages tenant records outside of booking
type TenantService struct {
	store     domain.Store
	ownership *security.OwnershipChecker
	out       Outbound
	logger    *slog.Logger
	now       func() time.Time
}

// NewTenantService creates a new tenant service
func NewTenantService(store domain.Store, out Outbound, logger *slog.Logger) *TenantService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantService{
		store:     store,
		ownership: security.NewOwnershipChecker(logger),
		out:       out.withDefaults(logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TenantService) checkAccess(p *domain.Principal, tenantID string) error {
	return s.ownership.ValidateResourceAccess(p, security.ResourcePermission{
		ResourceType: security.ResourceTenant,
		ResourceID:   tenantID,
		OwnerID:      tenantID,
	})
}

// List returns every tenant
func (s *TenantService) List(ctx context.Context) ([]*domain.Tenant, error) {
	return s.store.Tenants().List(ctx)
}

// Get returns a tenant; tenants may only read themselves
func (s *TenantService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Tenant, error) {
	if err := s.checkAccess(p, id); err != nil {
		return nil, err
	}
	return s.store.Tenants().GetByID(ctx, id)
}

// UpdateProfile edits a tenant's contact details
func (s *TenantService) UpdateProfile(ctx context.Context, p *domain.Principal, id string, upd domain.ProfileUpdate) (*domain.Tenant, error) {
	if err := s.checkAccess(p, id); err != nil {
		return nil, err
	}
	if err := validateProfile(upd); err != nil {
		return nil, err
	}
	tenant, err := updateTenantProfile(ctx, s.store, id, upd, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(p), "update_tenant", "tenant", id, audit.StatusSuccess, "")
	return tenant, nil
}

func updateTenantProfile(ctx context.Context, store domain.Store, id string, upd domain.ProfileUpdate, now time.Time) (*domain.Tenant, error) {
	tenant, err := store.Tenants().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfile(&tenant.Name, &tenant.Email, &tenant.Phone, upd)
	tenant.UpdatedAt = later(tenant.UpdatedAt, now)
	if err := store.Tenants().Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Delete removes a tenant and frees its flat in the same transaction.
// Payments, maintenance requests and notifications stay as history.
func (s *TenantService) Delete(ctx context.Context, p *domain.Principal, id string) error {
	var releasedFlat string
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		tenant, err := tx.Tenants().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if tenant.FlatID != "" {
			flat, err := tx.Flats().GetForUpdate(ctx, tenant.FlatID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
			case err != nil:
				return err
			case flat.TenantID == tenant.ID:
				if err := releaseFlat(ctx, tx, flat, s.now().UTC()); err != nil {
					return err
				}
				releasedFlat = flat.ID
			}
		}
		return tx.Tenants().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(p), "delete_tenant", "tenant", id, audit.StatusSuccess, "flat="+releasedFlat)
	if releasedFlat != "" {
		s.out.emit(ctx, s.logger, events.SubjectFlatReleased, map[string]string{
			"flat_id":   releasedFlat,
			"tenant_id": id,
		})
	}
	s.logger.Info("tenant deleted", slog.String("tenant_id", id), slog.String("flat_id", releasedFlat))
	return nil
}
