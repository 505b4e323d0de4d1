package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/redis"
)

// RedisSessionRepository implements domain.SessionRepository using Redis.
// Expiry is delegated to key TTLs.
type RedisSessionRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisSessionRepository creates a new session repository
func NewRedisSessionRepository(redisClient *redis.Client, logger *slog.Logger) *RedisSessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSessionRepository{redis: redisClient, logger: logger}
}

func sessionKey(id string) string { return "session:" + id }

// ttlUntil converts an absolute expiry to a Redis TTL
func ttlUntil(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Second // Minimum TTL
	}
	return ttl
}

// Save stores a session with a TTL matching its expiry
func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.redis.Set(ctx, sessionKey(session.ID), string(data), ttlUntil(session.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	r.logger.Debug("session stored", slog.String("session_id", session.ID))
	return nil
}

// Get retrieves a live session
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.redis.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrMissing) {
			return nil, notFound("session", id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session; deleting a missing session is not an error
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Delete(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RedisOTPRepository implements domain.OTPRepository using Redis
type RedisOTPRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisOTPRepository creates a new OTP repository
func NewRedisOTPRepository(redisClient *redis.Client, logger *slog.Logger) *RedisOTPRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisOTPRepository{redis: redisClient, logger: logger}
}

func otpKey(purpose domain.OTPPurpose, adminID string) string {
	return "otp:" + string(purpose) + ":" + adminID
}

// Save stores an OTP, replacing any earlier code for the same purpose
func (r *RedisOTPRepository) Save(ctx context.Context, otp *domain.OTP) error {
	data, err := json.Marshal(otp)
	if err != nil {
		return fmt.Errorf("failed to marshal otp: %w", err)
	}
	if err := r.redis.Set(ctx, otpKey(otp.Purpose, otp.AdminID), string(data), ttlUntil(otp.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Consume reads and deletes the OTP in one round trip
func (r *RedisOTPRepository) Consume(ctx context.Context, purpose domain.OTPPurpose, adminID string) (*domain.OTP, error) {
	data, err := r.redis.GetDel(ctx, otpKey(purpose, adminID))
	if err != nil {
		if errors.Is(err, redis.ErrMissing) {
			return nil, notFound("otp", string(purpose))
		}
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}

	var otp domain.OTP
	if err := json.Unmarshal([]byte(data), &otp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal otp: %w", err)
	}
	return &otp, nil
}
