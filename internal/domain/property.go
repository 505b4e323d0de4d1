package domain

import (
	"context"
	"time"
)

// FlatStatus is the booking state of a flat
type FlatStatus string

const (
	FlatAvailable FlatStatus = "available"
	FlatBooked    FlatStatus = "booked"
)

// Valid reports whether s is a known flat status
func (s FlatStatus) Valid() bool {
	return s == FlatAvailable || s == FlatBooked
}

// Flat represents a rentable unit with fixed recurring charges
type Flat struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Number          string     `json:"number"`
	Floor           string     `json:"floor"`
	Area            string     `json:"area"`
	Rent            float64    `json:"rent"`
	MaintenanceCost float64    `json:"maintenanceCost"`
	ServiceCharge   float64    `json:"serviceCharge"`
	ElevatorFee     float64    `json:"elevatorFee"`
	SecurityCharge  float64    `json:"securityCharge"`
	SocietyFee      float64    `json:"societyFee"`
	Status          FlatStatus `json:"status"`
	TenantID        string     `json:"tenantId,omitempty"`  // Set iff Status is booked
	LoginCode       string     `json:"loginCode,omitempty"` // Mirrors the tenant's code while booked
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TotalCharges is the monthly amount billed for the flat: rent plus every fee
func (f *Flat) TotalCharges() float64 {
	return f.Rent + f.MaintenanceCost + f.ServiceCharge + f.ElevatorFee + f.SecurityCharge + f.SocietyFee
}

// Booked reports whether the flat is currently assigned to a tenant
func (f *Flat) Booked() bool {
	return f.Status == FlatBooked
}

// FlatFilter narrows flat listings; zero values match everything
type FlatFilter struct {
	Status FlatStatus
}

// FlatRepository defines data access for flats
type FlatRepository interface {
	Create(ctx context.Context, flat *Flat) error
	GetByID(ctx context.Context, id string) (*Flat, error)
	// GetForUpdate reads a flat and holds it against concurrent writers until
	// the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (*Flat, error)
	Update(ctx context.Context, flat *Flat) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter FlatFilter) ([]*Flat, error)
}
