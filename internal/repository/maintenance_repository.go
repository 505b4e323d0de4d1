package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

const maintenanceColumns = `id, flat_id, tenant_id, title, description, image_url, status, created_at, updated_at`

// PostgresMaintenanceRepository implements domain.MaintenanceRepository using PostgreSQL
type PostgresMaintenanceRepository struct {
	q      querier
	logger *slog.Logger
}

func scanMaintenance(row rowScanner) (*domain.MaintenanceRequest, error) {
	m := &domain.MaintenanceRequest{}
	err := row.Scan(&m.ID, &m.FlatID, &m.TenantID, &m.Title, &m.Description,
		&m.ImageURL, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a new maintenance request
func (r *PostgresMaintenanceRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	query := `
		INSERT INTO maintenance_requests (` + maintenanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		req.ID, req.FlatID, req.TenantID, req.Title, req.Description,
		req.ImageURL, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create maintenance request",
			slog.String("flat_id", req.FlatID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create maintenance request: %w", err)
	}
	return nil
}

// GetByID retrieves a maintenance request by ID
func (r *PostgresMaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	return r.get(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = $1`, id)
}

// GetForUpdate locks the request row so concurrent status changes queue up
// behind the surrounding transaction
func (r *PostgresMaintenanceRepository) GetForUpdate(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	return r.get(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresMaintenanceRepository) get(ctx context.Context, query, id string) (*domain.MaintenanceRequest, error) {
	m, err := scanMaintenance(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("maintenance request", id)
		}
		return nil, fmt.Errorf("failed to get maintenance request: %w", err)
	}
	return m, nil
}

// Update persists the status and descriptive fields of a request
func (r *PostgresMaintenanceRepository) Update(ctx context.Context, req *domain.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests
		SET title = $1, description = $2, image_url = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := r.q.ExecContext(ctx, query,
		req.Title, req.Description, req.ImageURL, req.Status, req.UpdatedAt, req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update maintenance request: %w", err)
	}
	return requireAffected(result, "maintenance request", req.ID)
}

// List returns matching requests, newest first
func (r *PostgresMaintenanceRepository) List(ctx context.Context, filter domain.MaintenanceFilter) ([]*domain.MaintenanceRequest, error) {
	query := `
		SELECT ` + maintenanceColumns + `
		FROM maintenance_requests
		WHERE ($1 = '' OR tenant_id = $1)
		  AND ($2 = '' OR flat_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC, id
	`
	rows, err := r.q.QueryContext(ctx, query, filter.TenantID, filter.FlatID, string(filter.Status))
	if err != nil {
		r.logger.Error("failed to list maintenance requests", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list maintenance requests: %w", err)
	}
	defer rows.Close()

	var out []*domain.MaintenanceRequest
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance request: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
