package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aryan0dhankhar/homerental/pkg/database"
)

const devJWTSecret = "dev-only-secret-change-me"

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	StoreDriver string // memory or postgres
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	SessionDriver  string // memory or redis
	RedisURL       string
	RedisKeyPrefix string

	JWTSecret  string
	SessionTTL time.Duration
	Cookie     CookieConfig

	CORSAllowedOrigins []string
	// TrustedProxies are addresses or CIDRs allowed to set X-Forwarded-For
	TrustedProxies     []string

	PasswordMinLength int
	RequireActivation bool
	OTPTTL            time.Duration

	LoginRateLimitPerMinute int
	APIRateLimitPerMinute   int

	NATSURL              string
	OTLPEndpoint         string
	DashboardCacheTTL    time.Duration
	SessionSweepInterval time.Duration
}

// CookieConfig controls the auth cookie
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Database returns the connection settings for pkg/database
func (c *Config) Database() *database.Config {
	cfg := database.DefaultConfig()
	cfg.Host = c.DBHost
	cfg.Port = c.DBPort
	cfg.User = c.DBUser
	cfg.Password = c.DBPassword
	cfg.Database = c.DBName
	cfg.SSLMode = c.DBSSLMode
	return cfg
}

// Load reads an optional .env file and then configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from environment variables only
func FromEnv() (*Config, error) {
	port, err := getInt("SERVER_PORT", 8000)
	if err != nil {
		return nil, err
	}
	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getInt("SESSION_TTL_MINUTES", 1440)
	if err != nil {
		return nil, err
	}
	passwordMin, err := getInt("PASSWORD_MIN_LENGTH", 8)
	if err != nil {
		return nil, err
	}
	otpTTL, err := getInt("OTP_TTL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	loginLimit, err := getInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	apiLimit, err := getInt("API_RATE_LIMIT_PER_MINUTE", 300)
	if err != nil {
		return nil, err
	}
	dashboardTTL, err := getInt("DASHBOARD_CACHE_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := getInt("SESSION_SWEEP_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      dbPort,
		DBUser:      getEnv("DB_USER", "homerental"),
		DBPassword:  getEnv("DB_PASSWORD", "dev"),
		DBName:      getEnv("DB_NAME", "homerental"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getBool("AUTO_MIGRATE", true),

		SessionDriver:  strings.ToLower(getEnv("SESSION_DRIVER", "memory")),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "homerental:"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: time.Duration(sessionTTL) * time.Minute,
		Cookie: CookieConfig{
			Name:     getEnv("AUTH_COOKIE_NAME", "token"),
			Domain:   getEnv("AUTH_COOKIE_DOMAIN", ""),
			Secure:   getBool("AUTH_COOKIE_SECURE", false),
			SameSite: parseSameSite(getEnv("AUTH_COOKIE_SAMESITE", "lax")),
		},

		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		TrustedProxies: parseCSVEnv("TRUSTED_PROXIES", nil),

		PasswordMinLength: passwordMin,
		RequireActivation: getBool("REQUIRE_ACTIVATION", false),
		OTPTTL:            time.Duration(otpTTL) * time.Minute,

		LoginRateLimitPerMinute: loginLimit,
		APIRateLimitPerMinute:   apiLimit,

		NATSURL:              getEnv("NATS_URL", ""),
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		DashboardCacheTTL:    time.Duration(dashboardTTL) * time.Second,
		SessionSweepInterval: time.Duration(sweepInterval) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want memory or postgres", c.StoreDriver)
	}
	switch c.SessionDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid SESSION_DRIVER %q: want memory or redis", c.SessionDriver)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.PasswordMinLength < 1 {
		return fmt.Errorf("invalid PASSWORD_MIN_LENGTH %d", c.PasswordMinLength)
	}
	if c.SessionTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("SESSION_TTL_MINUTES and OTP_TTL_MINUTES must be positive")
	}
	if c.SessionSweepInterval <= 0 {
		c.SessionSweepInterval = 5 * time.Minute
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
