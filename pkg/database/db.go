// Package database opens the postgres pool behind the relational store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

const (
	defaultMaxOpen     = 25
	defaultMaxIdle     = 5
	defaultMaxLifetime = 5 * time.Minute
	pingTimeout        = 5 * time.Second
)

// Config describes one postgres database and its pool limits
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the config as a lib/pq connection URL
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

func (c *Config) limits() (open, idle int, lifetime time.Duration) {
	open, idle, lifetime = defaultMaxOpen, defaultMaxIdle, defaultMaxLifetime
	if c.MaxOpenConns > 0 {
		open = c.MaxOpenConns
	}
	if c.MaxIdleConns > 0 {
		idle = c.MaxIdleConns
	}
	if c.ConnMaxLifetime > 0 {
		lifetime = c.ConnMaxLifetime
	}
	return open, idle, lifetime
}

// ConnectionPool owns the *sql.DB shared by the postgres repositories
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool opens the pool and fails unless the server answers a ping
func NewConnectionPool(ctx context.Context, config *Config, logger *slog.Logger) (*ConnectionPool, error) {
	return open(ctx, "postgres", config.DSN(), config, logger)
}

func open(ctx context.Context, driver, dsn string, config *Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle, lifetime := config.limits()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s@%s: %w", config.Database, config.Host, err)
	}

	logger.Info("database connected",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
		slog.Int("max_open_conns", maxOpen),
	)
	return &ConnectionPool{db: db, logger: logger}, nil
}

// GetDB returns the underlying pool
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close drains the pool
func (cp *ConnectionPool) Close() error {
	if cp.db == nil {
		return nil
	}
	stats := cp.db.Stats()
	cp.logger.Info("closing database pool",
		slog.Int("open_connections", stats.OpenConnections),
		slog.Int64("wait_count", stats.WaitCount),
	)
	return cp.db.Close()
}

// DefaultConfig is a local development database
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		User:            "homerental",
		Password:        "dev",
		Database:        "homerental",
		SSLMode:         "disable",
		MaxOpenConns:    defaultMaxOpen,
		MaxIdleConns:    defaultMaxIdle,
		ConnMaxLifetime: defaultMaxLifetime,
	}
}
