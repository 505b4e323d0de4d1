package domain

import (
	"context"
	"time"
)

// PaymentStatus is the billing state of an invoice
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentOverdue
}

// Payable reports whether an invoice in this state can still be settled
func (s PaymentStatus) Payable() bool {
	return s == PaymentPending || s == PaymentOverdue
}

// PaymentMethod is how a tenant settled an invoice
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCash   PaymentMethod = "cash"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentOnline || m == PaymentCash
}

// Payment is a monthly invoice for one flat
type Payment struct {
	ID        string        `json:"id"`
	FlatID    string        `json:"flatId"`
	TenantID  string        `json:"tenantId"`
	Amount    float64       `json:"amount"`
	Date      *time.Time    `json:"date"` // nil until paid
	Method    PaymentMethod `json:"method,omitempty"`
	Status    PaymentStatus `json:"status"`
	Month     string        `json:"month"`
	Year      string        `json:"year"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PaymentFilter narrows payment listings; zero values match everything
type PaymentFilter struct {
	TenantID string
	FlatID   string
	Status   PaymentStatus
}

// PaymentRepository defines data access for payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	// FindForPeriod returns the invoice of a flat for a month, or ErrNotFound
	FindForPeriod(ctx context.Context, flatID, month, year string) (*Payment, error)
	// UpdateIfStatus persists payment only while the stored status is one of
	// expected, returning ErrConflict otherwise
	UpdateIfStatus(ctx context.Context, payment *Payment, expected ...PaymentStatus) error
	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
}
