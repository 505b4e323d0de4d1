package domain

import "context"

// Store groups the entity repositories behind one transaction boundary
type Store interface {
	Admins() AdminRepository
	Tenants() TenantRepository
	Flats() FlatRepository
	Maintenance() MaintenanceRepository
	Payments() PaymentRepository
	Notifications() NotificationRepository

	// WithinTx runs fn against a transactional view of the store. Every write
	// made through tx is committed when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
