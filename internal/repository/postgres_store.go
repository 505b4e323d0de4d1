package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements domain.Store on PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	q      querier
	logger *slog.Logger
}

// NewPostgresStore creates a store over an open connection pool
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, q: db, logger: logger}
}

// Admins returns the admin repository
func (s *PostgresStore) Admins() domain.AdminRepository {
	return &PostgresAdminRepository{q: s.q, logger: s.logger}
}

// Tenants returns the tenant repository
func (s *PostgresStore) Tenants() domain.TenantRepository {
	return &PostgresTenantRepository{q: s.q, logger: s.logger}
}

// Flats returns the flat repository
func (s *PostgresStore) Flats() domain.FlatRepository {
	return &PostgresFlatRepository{q: s.q, logger: s.logger}
}

// Maintenance returns the maintenance request repository
func (s *PostgresStore) Maintenance() domain.MaintenanceRepository {
	return &PostgresMaintenanceRepository{q: s.q, logger: s.logger}
}

// Payments returns the payment repository
func (s *PostgresStore) Payments() domain.PaymentRepository {
	return &PostgresPaymentRepository{q: s.q, logger: s.logger}
}

// Notifications returns the notification repository
func (s *PostgresStore) Notifications() domain.NotificationRepository {
	return &PostgresNotificationRepository{q: s.q, logger: s.logger}
}

// WithinTx runs fn inside a database transaction. Nested calls join the outer one.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&PostgresStore{db: s.db, q: tx, logger: s.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}
