package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fastConfig(3), nil, "connect", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("refused")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	refused := errors.New("refused")
	_, err := Do(context.Background(), fastConfig(2), nil, "connect", func(ctx context.Context) (int, error) {
		return 0, refused
	})
	assert.ErrorIs(t, err, refused)
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	bad := errors.New("bad url")
	_, err := Do(context.Background(), fastConfig(5), nil, "connect", func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(bad)
	})
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 1}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, cfg, nil, "connect", func(ctx context.Context) (int, error) {
		return 0, errors.New("refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoffCaps(t *testing.T) {
	cfg := &Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 3*time.Second, calculateBackoff(5, cfg))
}
