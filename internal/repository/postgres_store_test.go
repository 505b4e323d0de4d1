package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db, nil), mock
}

func TestPostgresAdmin_CreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO admins").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "admins_email_key"})

	err := store.Admins().Create(context.Background(), &domain.Admin{
		ID: "a1", Name: "A", Email: "a@x.com", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAdmin_GetByEmail(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "verified", "dismissed", "created_at", "updated_at"}).
		AddRow("a1", "A", "a@x.com", "000", "hash", "admin", true, false, now, now)
	mock.ExpectQuery("SELECT (.+) FROM admins WHERE email = \\$1").
		WithArgs("a@x.com").
		WillReturnRows(rows)

	admin, err := store.Admins().GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "a1", admin.ID)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.Verified)
}

func TestPostgresAdmin_GetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM admins WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Admins().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresTenant_EmptyCodeStoredAsNull(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO tenants").
		WithArgs("t1", "T1", "", "", nil, nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Tenants().Create(context.Background(), &domain.Tenant{ID: "t1", Name: "T1", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTenant_GetByLoginCodeEmptyNeverQueries(t *testing.T) {
	store, mock := newMockStore(t)
	_, err := store.Tenants().GetByLoginCode(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithinTxCommitsAndLocksFlat(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	cols := []string{"id", "name", "number", "floor", "area", "rent", "maintenance_cost", "service_charge",
		"elevator_fee", "security_charge", "society_fee", "status", "tenant_id", "login_code", "created_at", "updated_at"}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM flats WHERE id = \\$1 FOR UPDATE").
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("f1", "F1", "101", "1", "900", 1000.0, 0.0, 0.0, 0.0, 0.0, 0.0, "available", nil, nil, now, now))
	mock.ExpectExec("UPDATE flats").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx domain.Store) error {
		f, err := tx.Flats().GetForUpdate(context.Background(), "f1")
		if err != nil {
			return err
		}
		assert.Equal(t, "", f.TenantID)
		f.Status = domain.FlatBooked
		f.TenantID = "t1"
		return tx.Flats().Update(context.Background(), f)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithinTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx domain.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPayment_UpdateIfStatusConflict(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec("UPDATE payments").WillReturnResult(sqlmock.NewResult(0, 0))
	cols := []string{"id", "flat_id", "tenant_id", "amount", "paid_at", "method", "status", "month", "year", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM payments WHERE id = \\$1").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "f1", "t1", 1000.0, now, "cash", "paid", "May", "2025", now, now))

	p := &domain.Payment{ID: "p1", Status: domain.PaymentPaid, Date: &now, Method: domain.PaymentOnline, UpdatedAt: now}
	err := store.Payments().UpdateIfStatus(context.Background(), p, domain.PaymentPending, domain.PaymentOverdue)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPayment_DuplicatePeriod(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO payments").WillReturnError(&pq.Error{Code: "23505"})

	err := store.Payments().Create(context.Background(), &domain.Payment{ID: "p2", FlatID: "f1", Month: "May", Year: "2025"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPostgresNotification_MarkReadMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE notifications SET read = TRUE").
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Notifications().MarkRead(context.Background(), "n1"), domain.ErrNotFound)
}

func TestMigrate_RunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
