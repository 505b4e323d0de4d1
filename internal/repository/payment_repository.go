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

const paymentColumns = `id, flat_id, tenant_id, amount, paid_at, method, status, month, year, created_at, updated_at`

// PostgresPaymentRepository implements domain.PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	q      querier
	logger *slog.Logger
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	var paidAt sql.NullTime
	var method sql.NullString
	err := row.Scan(&p.ID, &p.FlatID, &p.TenantID, &p.Amount, &paidAt, &method,
		&p.Status, &p.Month, &p.Year, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.Date = &t
	}
	p.Method = domain.PaymentMethod(method.String)
	return p, nil
}

func paidAtArg(p *domain.Payment) sql.NullTime {
	if p.Date == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p.Date, Valid: true}
}

// Create inserts a new invoice; (flat_id, month, year) is unique
func (r *PostgresPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.FlatID, p.TenantID, p.Amount, paidAtArg(p), nullString(string(p.Method)),
		p.Status, p.Month, p.Year, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice for %s %s already exists: %w", p.Month, p.Year, domain.ErrConflict)
		}
		r.logger.Error("failed to create payment",
			slog.String("flat_id", p.FlatID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("payment", id)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// FindForPeriod retrieves the invoice of a flat for a billing month
func (r *PostgresPaymentRepository) FindForPeriod(ctx context.Context, flatID, month, year string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE flat_id = $1 AND month = $2 AND year = $3`
	p, err := scanPayment(r.q.QueryRowContext(ctx, query, flatID, month, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("payment", flatID+" "+month+" "+year)
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return p, nil
}

// UpdateIfStatus writes p only while the stored status is one of expected
func (r *PostgresPaymentRepository) UpdateIfStatus(ctx context.Context, p *domain.Payment, expected ...domain.PaymentStatus) error {
	statuses := make([]string, len(expected))
	for i, s := range expected {
		statuses[i] = string(s)
	}

	query := `
		UPDATE payments
		SET amount = $1, paid_at = $2, method = $3, status = $4, updated_at = $5
		WHERE id = $6 AND status = ANY($7)
	`
	result, err := r.q.ExecContext(ctx, query,
		p.Amount, paidAtArg(p), nullString(string(p.Method)), p.Status, p.UpdatedAt,
		p.ID, pq.Array(statuses),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		// tell a missing row apart from a status mismatch
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
		return fmt.Errorf("payment %s changed concurrently: %w", p.ID, domain.ErrConflict)
	}
	return nil
}

// List returns matching invoices, newest first
func (r *PostgresPaymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE ($1 = '' OR tenant_id = $1)
		  AND ($2 = '' OR flat_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id
	`
	rows, err := r.q.QueryContext(ctx, query, filter.TenantID, filter.FlatID, string(filter.Status))
	if err != nil {
		r.logger.Error("failed to list payments", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
