package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

const flatColumns = `id, name, number, floor, area, rent, maintenance_cost, service_charge,
	elevator_fee, security_charge, society_fee, status, tenant_id, login_code, created_at, updated_at`

// PostgresFlatRepository implements domain.FlatRepository using PostgreSQL
type PostgresFlatRepository struct {
	q      querier
	logger *slog.Logger
}

func scanFlat(row rowScanner) (*domain.Flat, error) {
	f := &domain.Flat{}
	var tenantID, loginCode sql.NullString
	err := row.Scan(
		&f.ID, &f.Name, &f.Number, &f.Floor, &f.Area,
		&f.Rent, &f.MaintenanceCost, &f.ServiceCharge,
		&f.ElevatorFee, &f.SecurityCharge, &f.SocietyFee,
		&f.Status, &tenantID, &loginCode, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.TenantID = tenantID.String
	f.LoginCode = loginCode.String
	return f, nil
}

// Create inserts a new flat
func (r *PostgresFlatRepository) Create(ctx context.Context, flat *domain.Flat) error {
	query := `
		INSERT INTO flats (` + flatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.q.ExecContext(ctx, query,
		flat.ID, flat.Name, flat.Number, flat.Floor, flat.Area,
		flat.Rent, flat.MaintenanceCost, flat.ServiceCharge,
		flat.ElevatorFee, flat.SecurityCharge, flat.SocietyFee,
		flat.Status, nullString(flat.TenantID), nullString(flat.LoginCode),
		flat.CreatedAt, flat.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("flat %s: %w", flat.ID, domain.ErrConflict)
		}
		r.logger.Error("failed to create flat",
			slog.String("id", flat.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create flat: %w", err)
	}
	return nil
}

func (r *PostgresFlatRepository) get(ctx context.Context, query, id string) (*domain.Flat, error) {
	f, err := scanFlat(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("flat", id)
		}
		return nil, fmt.Errorf("failed to get flat: %w", err)
	}
	return f, nil
}

// GetByID retrieves a flat by ID
func (r *PostgresFlatRepository) GetByID(ctx context.Context, id string) (*domain.Flat, error) {
	return r.get(ctx, `SELECT `+flatColumns+` FROM flats WHERE id = $1`, id)
}

// GetForUpdate locks the flat row until the surrounding transaction ends.
// Outside a transaction the lock is released as soon as the statement completes.
func (r *PostgresFlatRepository) GetForUpdate(ctx context.Context, id string) (*domain.Flat, error) {
	return r.get(ctx, `SELECT `+flatColumns+` FROM flats WHERE id = $1 FOR UPDATE`, id)
}

// Update replaces every mutable column of a flat
func (r *PostgresFlatRepository) Update(ctx context.Context, flat *domain.Flat) error {
	query := `
		UPDATE flats
		SET name = $1, number = $2, floor = $3, area = $4, rent = $5,
		    maintenance_cost = $6, service_charge = $7, elevator_fee = $8,
		    security_charge = $9, society_fee = $10, status = $11,
		    tenant_id = $12, login_code = $13, updated_at = $14
		WHERE id = $15
	`
	result, err := r.q.ExecContext(ctx, query,
		flat.Name, flat.Number, flat.Floor, flat.Area, flat.Rent,
		flat.MaintenanceCost, flat.ServiceCharge, flat.ElevatorFee,
		flat.SecurityCharge, flat.SocietyFee, flat.Status,
		nullString(flat.TenantID), nullString(flat.LoginCode), flat.UpdatedAt,
		flat.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update flat: %w", err)
	}
	return requireAffected(result, "flat", flat.ID)
}

// Delete removes a flat row
func (r *PostgresFlatRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM flats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flat: %w", err)
	}
	return requireAffected(result, "flat", id)
}

// List returns flats matching filter, oldest first
func (r *PostgresFlatRepository) List(ctx context.Context, filter domain.FlatFilter) ([]*domain.Flat, error) {
	query := `
		SELECT ` + flatColumns + `
		FROM flats
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, string(filter.Status))
	if err != nil {
		r.logger.Error("failed to list flats", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list flats: %w", err)
	}
	defer rows.Close()

	var flats []*domain.Flat
	for rows.Next() {
		f, err := scanFlat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flat: %w", err)
		}
		flats = append(flats, f)
	}
	return flats, rows.Err()
}
