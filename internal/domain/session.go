package domain

import (
	"context"
	"time"
)

// Session is the marker identifying which user is authenticated
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionRepository stores session markers with expiry
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// OTPPurpose says what a one-time password unlocks
type OTPPurpose string

const (
	OTPActivate OTPPurpose = "activate"
	OTPReset    OTPPurpose = "reset"
)

// Valid reports whether p is a known purpose
func (p OTPPurpose) Valid() bool {
	return p == OTPActivate || p == OTPReset
}

// OTP is a single-use code issued to an admin
type OTP struct {
	Purpose   OTPPurpose `json:"purpose"`
	AdminID   string     `json:"adminId"`
	Code      string     `json:"code"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// OTPRepository stores one-time passwords keyed by purpose and admin
type OTPRepository interface {
	Save(ctx context.Context, otp *OTP) error
	// Consume returns the stored code and removes it in one step
	Consume(ctx context.Context, purpose OTPPurpose, adminID string) (*OTP, error)
}

// Sweeper is implemented by stores that must evict expired entries themselves
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Principal is the authenticated caller of a request: the session plus the
// account it resolves to. Exactly one of Admin and Tenant is set.
type Principal struct {
	Session *Session
	Admin   *Admin
	Tenant  *Tenant
}

// Role returns the session role
func (p *Principal) Role() Role {
	if p == nil || p.Session == nil {
		return ""
	}
	return p.Session.Role
}

// UserID returns the id of the admin or tenant behind the session
func (p *Principal) UserID() string {
	if p == nil || p.Session == nil {
		return ""
	}
	return p.Session.UserID
}

// IsAdmin reports whether the caller is an admin
func (p *Principal) IsAdmin() bool {
	return p.Role() == RoleAdmin
}
