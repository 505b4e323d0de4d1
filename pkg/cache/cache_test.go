package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", time.Second)
	val, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestExpiration(t *testing.T) {
	c := New[int]()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("key1", 1, 100*time.Millisecond)
	now = now.Add(150 * time.Millisecond)

	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c := New[int]()
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	_, err = c.GetOrLoad("stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = c.GetOrLoad("other", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("other")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := New[string]()
	c.Set("dashboard:admin", "a", time.Second)
	c.Set("dashboard:tenant:t1", "t", time.Second)
	c.Set("flats:1", "f", time.Second)
	c.Invalidate("dashboard:")

	_, ok1 := c.Get("dashboard:admin")
	_, ok2 := c.Get("dashboard:tenant:t1")
	_, ok3 := c.Get("flats:1")
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
}
