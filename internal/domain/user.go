package domain

import (
	"context"
	"time"
)

// Role identifies which kind of principal a session belongs to
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTenant Role = "tenant"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTenant
}

// Admin represents a property manager account
type Admin struct {
	ID           string    `json:"id"`    // UUID
	Name         string    `json:"name"`
	Email        string    `json:"email"` // Unique email address
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`         // Bcrypt hashed password (not returned in API)
	Role         Role      `json:"role"`      // Always RoleAdmin
	Verified     bool      `json:"verified"`  // Email activated through OTP
	Dismissed    bool      `json:"dismissed"` // Account disabled, every login and session is rejected
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Tenant represents a person housed in a flat
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	FlatID    string    `json:"flatId"`    // Empty once the flat is released
	LoginCode string    `json:"loginCode"` // Six digit credential, unique among non-empty codes
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Housed reports whether the tenant currently occupies a flat and can log in
func (t *Tenant) Housed() bool {
	return t.FlatID != "" && t.LoginCode != ""
}

// ProfileUpdate carries the editable profile fields; nil fields are left unchanged
type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// AdminRepository defines data access for admins
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	Update(ctx context.Context, admin *Admin) error
	List(ctx context.Context) ([]*Admin, error)
}

// TenantRepository defines data access for tenants
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetByLoginCode(ctx context.Context, code string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Tenant, error)
}
