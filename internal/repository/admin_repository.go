package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

const adminColumns = `id, name, email, phone, password_hash, role, verified, dismissed, created_at, updated_at`

// PostgresAdminRepository implements domain.AdminRepository using PostgreSQL
type PostgresAdminRepository struct {
	q      querier
	logger *slog.Logger
}

func scanAdmin(row rowScanner) (*domain.Admin, error) {
	admin := &domain.Admin{}
	err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.Phone,
		&admin.PasswordHash,
		&admin.Role,
		&admin.Verified,
		&admin.Dismissed,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	return admin, err
}

// Create inserts a new admin
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	query := `
		INSERT INTO admins (` + adminColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		admin.ID,
		admin.Name,
		admin.Email,
		admin.Phone,
		admin.PasswordHash,
		admin.Role,
		admin.Verified,
		admin.Dismissed,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		r.logger.Error("failed to create admin",
			slog.String("email", admin.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// GetByID retrieves an admin by ID
func (r *PostgresAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`

	admin, err := scanAdmin(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("admin", id)
		}
		r.logger.Error("failed to get admin by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

// GetByEmail retrieves an admin by exact email
func (r *PostgresAdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`

	admin, err := scanAdmin(r.q.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("admin", email)
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	return admin, nil
}

// Update replaces the mutable fields of an admin
func (r *PostgresAdminRepository) Update(ctx context.Context, admin *domain.Admin) error {
	query := `
		UPDATE admins
		SET name = $1, email = $2, phone = $3, password_hash = $4,
		    verified = $5, dismissed = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		admin.Name,
		admin.Email,
		admin.Phone,
		admin.PasswordHash,
		admin.Verified,
		admin.Dismissed,
		admin.UpdatedAt,
		admin.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update admin: %w", err)
	}

	return requireAffected(result, "admin", admin.ID)
}

// List returns every admin, oldest first
func (r *PostgresAdminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list admins", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*domain.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}

	return admins, rows.Err()
}
