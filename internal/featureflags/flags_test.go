package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := Lookup
	Lookup = func(k string) string { return env[k] }
	t.Cleanup(func() { Lookup = prev })
}

func TestEnabled(t *testing.T) {
	withEnv(t, map[string]string{
		"FLAG_DEMO_SEED":        "Yes",
		"FLAG_WS_NOTIFICATIONS": "off",
	})

	assert.True(t, Enabled(DemoSeed))
	assert.False(t, Enabled(WSNotifications))
	assert.False(t, Enabled("missing"))
}

func TestEnabledOr(t *testing.T) {
	withEnv(t, map[string]string{"FLAG_WS_NOTIFICATIONS": "0"})

	assert.False(t, EnabledOr(WSNotifications, true))
	assert.True(t, EnabledOr(DemoSeed, true))
	assert.False(t, EnabledOr("garbage", false))
}
