package domain

import (
	"context"
	"time"
)

// NotificationType classifies a notification for display
type NotificationType string

const (
	NotificationBill        NotificationType = "bill"
	NotificationMaintenance NotificationType = "maintenance"
	NotificationMessage     NotificationType = "message"
)

// Valid reports whether t is a known notification type
func (t NotificationType) Valid() bool {
	return t == NotificationBill || t == NotificationMaintenance || t == NotificationMessage
}

// Notification is a message addressed to one tenant
type Notification struct {
	ID       string           `json:"id"`
	TenantID string           `json:"tenantId"`
	FlatID   string           `json:"flatId,omitempty"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Date     time.Time        `json:"date"`
	Read     bool             `json:"read"`
	Type     NotificationType `json:"type"`
}

// NotificationFilter narrows notification listings
type NotificationFilter struct {
	TenantID   string
	UnreadOnly bool
}

// NotificationRepository defines data access for notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	MarkRead(ctx context.Context, id string) error
	List(ctx context.Context, filter NotificationFilter) ([]*Notification, error)
}
