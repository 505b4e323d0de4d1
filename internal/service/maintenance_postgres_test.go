package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/repository"
)

var maintenanceCols = []string{"id", "flat_id", "tenant_id", "title", "description", "image_url", "status", "created_at", "updated_at"}

func newPostgresMaintenance(t *testing.T) (*MaintenanceService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMaintenanceService(repository.NewPostgresStore(db, nil), nil, Outbound{}, nil), mock
}

func TestAdvanceStatus_LocksTicketRow(t *testing.T) {
	svc, mock := newPostgresMaintenance(t)
	created := time.Now().Add(-time.Hour).UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM maintenance_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(maintenanceCols).
			AddRow("m1", "f1", "t1", "Leak", "", "", "received", created, created))
	mock.ExpectExec("UPDATE maintenance_requests").
		WithArgs("Leak", "", "", "done", sqlmock.AnyArg(), "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := svc.AdvanceStatus(context.Background(), adminPrincipal(), "m1", domain.MaintenanceDone)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceDone, req.Status)
	assert.True(t, req.UpdatedAt.After(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The loser of a race reads the committed state once the winner's lock is gone
func TestAdvanceStatus_LockedReadRejectsReopen(t *testing.T) {
	svc, mock := newPostgresMaintenance(t)
	created := time.Now().Add(-time.Hour).UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM maintenance_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(maintenanceCols).
			AddRow("m1", "f1", "t1", "Leak", "", "", "done", created, created))
	mock.ExpectRollback()

	_, err := svc.AdvanceStatus(context.Background(), adminPrincipal(), "m1", domain.MaintenanceInProgress)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func adminPrincipal() *domain.Principal {
	return &domain.Principal{
		Session: &domain.Session{ID: "s-admin", Role: domain.RoleAdmin, UserID: "admin-001"},
		Admin:   &domain.Admin{ID: "admin-001", Role: domain.RoleAdmin},
	}
}
