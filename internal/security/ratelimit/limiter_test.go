package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_WindowSlides(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	defer l.Stop()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("ip"))
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))
	assert.True(t, l.Allow("other"))

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("ip"))
}

func TestLimiter_StrictUsesSeparateBudget(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	assert.True(t, l.AllowStrict("10.0.0.1", 1, time.Minute))
	assert.False(t, l.AllowStrict("10.0.0.1", 1, time.Minute))
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestLimiter_EmptyKeyAndStopIdempotent(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	assert.True(t, l.Allow(""))
	assert.True(t, l.Allow(""))
	l.Stop()
	l.Stop()
}
