package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		phone         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'admin',
		verified      BOOLEAN NOT NULL DEFAULT FALSE,
		dismissed     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flats (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		number           TEXT NOT NULL,
		floor            TEXT NOT NULL DEFAULT '',
		area             TEXT NOT NULL DEFAULT '',
		rent             NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (rent >= 0),
		maintenance_cost NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (maintenance_cost >= 0),
		service_charge   NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (service_charge >= 0),
		elevator_fee     NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (elevator_fee >= 0),
		security_charge  NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (security_charge >= 0),
		society_fee      NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (society_fee >= 0),
		status           TEXT NOT NULL DEFAULT 'available',
		tenant_id        TEXT,
		login_code       TEXT,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		CHECK ((status = 'booked') = (tenant_id IS NOT NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		flat_id    TEXT REFERENCES flats(id) ON DELETE SET NULL,
		login_code TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance_requests (
		id          TEXT PRIMARY KEY,
		flat_id     TEXT NOT NULL,
		tenant_id   TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url   TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'received',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_tenant ON maintenance_requests (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id         TEXT PRIMARY KEY,
		flat_id    TEXT NOT NULL,
		tenant_id  TEXT NOT NULL,
		amount     NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
		paid_at    TIMESTAMPTZ,
		method     TEXT,
		status     TEXT NOT NULL DEFAULT 'pending',
		month      TEXT NOT NULL,
		year       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (flat_id, month, year)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_tenant ON payments (tenant_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id        TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		flat_id   TEXT NOT NULL DEFAULT '',
		title     TEXT NOT NULL,
		message   TEXT NOT NULL,
		sent_at   TIMESTAMPTZ NOT NULL,
		read      BOOLEAN NOT NULL DEFAULT FALSE,
		type      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_tenant ON notifications (tenant_id, sent_at DESC)`,
}

// Migrate creates the tables and indexes the postgres store needs
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
