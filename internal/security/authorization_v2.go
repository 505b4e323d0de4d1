package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceTenant       ResourceType = "tenant"
	ResourceFlat         ResourceType = "flat"
	ResourceMaintenance  ResourceType = "maintenance request"
	ResourcePayment      ResourceType = "payment"
	ResourceNotification ResourceType = "notification"
)

// ResourcePermission describes an access to one record
type ResourcePermission struct {
	ResourceType ResourceType
	ResourceID   string
	OwnerID      string // Tenant ID that owns the resource
}

// OwnershipChecker enforces that tenants only reach their own records
type OwnershipChecker struct {
	logger *slog.Logger
}

// NewOwnershipChecker creates a new resource-aware authorization service
func NewOwnershipChecker(logger *slog.Logger) *OwnershipChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipChecker{logger: logger}
}

// ValidateResourceAccess lets admins through and requires tenants to own the resource
func (a *OwnershipChecker) ValidateResourceAccess(p *domain.Principal, perm ResourcePermission) error {
	if p == nil {
		return fmt.Errorf("no principal: %w", domain.ErrForbidden)
	}
	if p.Role() == domain.RoleAdmin {
		return nil
	}

	if perm.OwnerID == "" || perm.OwnerID != p.UserID() {
		a.logger.Warn("resource access denied",
			slog.String("user_id", p.UserID()),
			slog.String("resource_id", perm.ResourceID),
			slog.String("resource_type", string(perm.ResourceType)),
			slog.String("owner_id", perm.OwnerID),
		)
		return fmt.Errorf("%s %s: %w", perm.ResourceType, perm.ResourceID, domain.ErrForbidden)
	}
	return nil
}
