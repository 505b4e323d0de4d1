package repository

import (
	"context"
	"sync"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

// MemorySessionRepository keeps sessions in process memory. Expired entries
// are hidden on read and evicted by Sweep.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty session store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[string]domain.Session{}, now: time.Now}
}

// Save stores a session
func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// Get returns a live session
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || s.Expired(r.now()) {
		return nil, notFound("session", id)
	}
	return &s, nil
}

// Delete removes a session
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Sweep evicts sessions expired at now
func (r *MemorySessionRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryOTPRepository keeps one-time passwords in process memory
type MemoryOTPRepository struct {
	mu   sync.Mutex
	otps map[string]domain.OTP
	now  func() time.Time
}

// NewMemoryOTPRepository creates an empty OTP store
func NewMemoryOTPRepository() *MemoryOTPRepository {
	return &MemoryOTPRepository{otps: map[string]domain.OTP{}, now: time.Now}
}

// Save stores an OTP, replacing any earlier code for the same purpose
func (r *MemoryOTPRepository) Save(ctx context.Context, otp *domain.OTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[otpKey(otp.Purpose, otp.AdminID)] = *otp
	return nil
}

// Consume removes and returns a live OTP
func (r *MemoryOTPRepository) Consume(ctx context.Context, purpose domain.OTPPurpose, adminID string) (*domain.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := otpKey(purpose, adminID)
	otp, ok := r.otps[key]
	if !ok {
		return nil, notFound("otp", string(purpose))
	}
	delete(r.otps, key)
	if !r.now().Before(otp.ExpiresAt) {
		return nil, notFound("otp", string(purpose))
	}
	return &otp, nil
}

// Sweep evicts OTPs expired at now
func (r *MemoryOTPRepository) Sweep(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, otp := range r.otps {
		if !now.Before(otp.ExpiresAt) {
			delete(r.otps, key)
			removed++
		}
	}
	return removed, nil
}
