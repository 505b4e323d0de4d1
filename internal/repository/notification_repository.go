package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

const notificationColumns = `id, tenant_id, flat_id, title, message, sent_at, read, type`

// PostgresNotificationRepository implements domain.NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	q      querier
	logger *slog.Logger
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	err := row.Scan(&n.ID, &n.TenantID, &n.FlatID, &n.Title, &n.Message, &n.Date, &n.Read, &n.Type)
	return n, err
}

// Create inserts a notification
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		n.ID, n.TenantID, n.FlatID, n.Title, n.Message, n.Date, n.Read, n.Type,
	)
	if err != nil {
		r.logger.Error("failed to create notification",
			slog.String("tenant_id", n.TenantID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *PostgresNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("notification", id)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// MarkRead flips the read flag; it never clears it
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireAffected(result, "notification", id)
}

// List returns matching notifications, newest first
func (r *PostgresNotificationRepository) List(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE ($1 = '' OR tenant_id = $1)
		  AND ($2 = FALSE OR read = FALSE)
		ORDER BY sent_at DESC, id
	`
	rows, err := r.q.QueryContext(ctx, query, filter.TenantID, filter.UnreadOnly)
	if err != nil {
		r.logger.Error("failed to list notifications", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
