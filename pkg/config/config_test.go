package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORE_DRIVER", "SESSION_DRIVER", "SESSION_TTL_MINUTES",
		"OTP_TTL_MINUTES", "DASHBOARD_CACHE_SECONDS", "AUTH_COOKIE_NAME", "AUTH_COOKIE_SAMESITE", "JWT_SECRET", "ENVIRONMENT", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.ServerPort)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "memory", cfg.SessionDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 15*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, "token", cfg.Cookie.Name)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SESSION_DRIVER", "redis")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUTH_COOKIE_SAMESITE", "strict")
	t.Setenv("REQUIRE_ACTIVATION", "true")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Cookie.SameSite)
	assert.True(t, cfg.RequireActivation)
	assert.Equal(t, 6543, cfg.Database().Port)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestFromEnv_Rejects(t *testing.T) {
	t.Run("bad port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "eighty")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "SERVER_PORT")
	})
	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("production without secret", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})
}
