package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

const tenantColumns = `id, name, email, phone, flat_id, login_code, created_at, updated_at`

// PostgresTenantRepository implements domain.TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	q      querier
	logger *slog.Logger
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var flatID, loginCode sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &flatID, &loginCode, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.FlatID = flatID.String
	t.LoginCode = loginCode.String
	return t, nil
}

// Create inserts a new tenant. Empty flat id and login code are stored as NULL
// so the unique index on login_code only covers issued codes.
func (r *PostgresTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		tenant.ID, tenant.Name, tenant.Email, tenant.Phone,
		nullString(tenant.FlatID), nullString(tenant.LoginCode),
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login code in use: %w", domain.ErrConflict)
		}
		r.logger.Error("failed to create tenant",
			slog.String("id", tenant.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tenant", id)
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return t, nil
}

// GetByLoginCode resolves the holder of a login code
func (r *PostgresTenantRepository) GetByLoginCode(ctx context.Context, code string) (*domain.Tenant, error) {
	if code == "" {
		return nil, notFound("tenant", "with login code")
	}
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE login_code = $1`
	t, err := scanTenant(r.q.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tenant", "with login code")
		}
		return nil, fmt.Errorf("failed to get tenant by login code: %w", err)
	}
	return t, nil
}

// Update replaces the mutable fields of a tenant
func (r *PostgresTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, email = $2, phone = $3, flat_id = $4, login_code = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.q.ExecContext(ctx, query,
		tenant.Name, tenant.Email, tenant.Phone,
		nullString(tenant.FlatID), nullString(tenant.LoginCode),
		tenant.UpdatedAt, tenant.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login code in use: %w", domain.ErrConflict)
		}
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return requireAffected(result, "tenant", tenant.ID)
}

// Delete removes a tenant row
func (r *PostgresTenantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return requireAffected(result, "tenant", id)
}

// List returns every tenant, oldest first
func (r *PostgresTenantRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}
