package domain

import (
	"context"
	"time"
)

// MaintenanceStatus is the state of a maintenance ticket
type MaintenanceStatus string

const (
	MaintenanceReceived   MaintenanceStatus = "received"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceDone       MaintenanceStatus = "done"
)

var maintenanceOrder = map[MaintenanceStatus]int{
	MaintenanceReceived:   0,
	MaintenanceInProgress: 1,
	MaintenanceDone:       2,
}

// Valid reports whether s is a known maintenance status
func (s MaintenanceStatus) Valid() bool {
	_, ok := maintenanceOrder[s]
	return ok
}

// CanAdvanceTo reports whether next is strictly later than s. Tickets never reopen.
func (s MaintenanceStatus) CanAdvanceTo(next MaintenanceStatus) bool {
	cur, ok := maintenanceOrder[s]
	if !ok {
		return false
	}
	n, ok := maintenanceOrder[next]
	if !ok {
		return false
	}
	return n > cur
}

// Label returns the human readable form shown to tenants
func (s MaintenanceStatus) Label() string {
	switch s {
	case MaintenanceReceived:
		return "Received"
	case MaintenanceInProgress:
		return "In Progress"
	case MaintenanceDone:
		return "Done"
	default:
		return string(s)
	}
}

// MaintenanceRequest is a tenant-filed ticket
type MaintenanceRequest struct {
	ID          string            `json:"id"`
	FlatID      string            `json:"flatId"`
	TenantID    string            `json:"tenantId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Status      MaintenanceStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// MaintenanceFilter narrows ticket listings; zero values match everything
type MaintenanceFilter struct {
	TenantID string
	FlatID   string
	Status   MaintenanceStatus
}

// MaintenanceRepository defines data access for maintenance requests
type MaintenanceRepository interface {
	Create(ctx context.Context, req *MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (*MaintenanceRequest, error)
	// GetForUpdate reads a request and locks it until the transaction ends
	GetForUpdate(ctx context.Context, id string) (*MaintenanceRequest, error)
	Update(ctx context.Context, req *MaintenanceRequest) error
	List(ctx context.Context, filter MaintenanceFilter) ([]*MaintenanceRequest, error)
}
