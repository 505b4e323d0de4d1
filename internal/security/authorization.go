package security

import (
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermManageFlats        Permission = "manage_flats"
	PermReadFlats          Permission = "read_flats"
	PermManageTenants      Permission = "manage_tenants"
	PermSubmitMaintenance  Permission = "submit_maintenance"
	PermManageMaintenance  Permission = "manage_maintenance"
	PermReadMaintenance    Permission = "read_maintenance"
	PermManageBilling      Permission = "manage_billing"
	PermPayInvoice         Permission = "pay_invoice"
	PermReadPayments       Permission = "read_payments"
	PermBroadcast          Permission = "broadcast"
	PermReadNotifications  Permission = "read_notifications"
	PermViewDashboard      Permission = "view_dashboard"
	PermChangePassword     Permission = "change_password"
	PermStreamNotification Permission = "stream_notifications"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermManageFlats,
		PermReadFlats,
		PermManageTenants,
		PermManageMaintenance,
		PermReadMaintenance,
		PermManageBilling,
		PermReadPayments,
		PermBroadcast,
		PermReadNotifications,
		PermViewDashboard,
		PermChangePassword,
		PermStreamNotification,
	},
	domain.RoleTenant: {
		PermReadFlats,
		PermSubmitMaintenance,
		PermReadMaintenance,
		PermPayInvoice,
		PermReadPayments,
		PermReadNotifications,
		PermStreamNotification,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission returns a wrapped domain.ErrForbidden when role lacks permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%s role cannot %s: %w", role, permission, domain.ErrForbidden)
	}
	return nil
}
