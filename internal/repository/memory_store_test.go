package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func TestMemoryStore_AdminEmailUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Admins().Create(ctx, &domain.Admin{ID: "a1", Email: "a@x.com"}))
	err := store.Admins().Create(ctx, &domain.Admin{ID: "a2", Email: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	admins, err := store.Admins().List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestMemoryStore_LoginCodeUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Tenants().Create(ctx, &domain.Tenant{ID: "t1", LoginCode: "123456"}))
	err := store.Tenants().Create(ctx, &domain.Tenant{ID: "t2", LoginCode: "123456"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// empty codes never collide
	require.NoError(t, store.Tenants().Create(ctx, &domain.Tenant{ID: "t3"}))
	require.NoError(t, store.Tenants().Create(ctx, &domain.Tenant{ID: "t4"}))

	got, err := store.Tenants().GetByLoginCode(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	_, err = store.Tenants().GetByLoginCode(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Tenants().GetByLoginCode(ctx, "999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Flats().Create(ctx, &domain.Flat{ID: "f1", Name: "A", Status: domain.FlatAvailable}))

	f, err := store.Flats().GetByID(ctx, "f1")
	require.NoError(t, err)
	f.Name = "changed"

	again, err := store.Flats().GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestMemoryStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Flats().Create(ctx, &domain.Flat{ID: "f1", Status: domain.FlatAvailable}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx domain.Store) error {
		require.NoError(t, tx.Tenants().Create(ctx, &domain.Tenant{ID: "t1", FlatID: "f1", LoginCode: "111111"}))
		f, err := tx.Flats().GetForUpdate(ctx, "f1")
		require.NoError(t, err)
		f.Status = domain.FlatBooked
		f.TenantID = "t1"
		require.NoError(t, tx.Flats().Update(ctx, f))

		// writes are invisible outside the transaction until commit
		outside, err := store.Flats().GetByID(ctx, "f1")
		require.NoError(t, err)
		assert.Equal(t, domain.FlatAvailable, outside.Status)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	f, err := store.Flats().GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlatAvailable, f.Status)
	_, err = store.Tenants().GetByID(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_WithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.WithinTx(ctx, func(tx domain.Store) error {
		return tx.WithinTx(ctx, func(inner domain.Store) error {
			return inner.Tenants().Create(ctx, &domain.Tenant{ID: "t1"})
		})
	})
	require.NoError(t, err)

	_, err = store.Tenants().GetByID(ctx, "t1")
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentTransactionsSerialize(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Flats().Create(ctx, &domain.Flat{ID: "f1", Status: domain.FlatAvailable}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(tx domain.Store) error {
				f, err := tx.Flats().GetForUpdate(ctx, "f1")
				if err != nil {
					return err
				}
				if f.Booked() {
					return domain.ErrConflict
				}
				f.Status = domain.FlatBooked
				f.TenantID = "winner"
				return tx.Flats().Update(ctx, f)
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryStore_PaymentPeriodUniqueAndCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := &domain.Payment{ID: "p1", FlatID: "f1", Month: "May", Year: "2025", Status: domain.PaymentPending}
	require.NoError(t, store.Payments().Create(ctx, p))

	dup := &domain.Payment{ID: "p2", FlatID: "f1", Month: "May", Year: "2025", Status: domain.PaymentPending}
	assert.ErrorIs(t, store.Payments().Create(ctx, dup), domain.ErrConflict)

	paid := *p
	paid.Status = domain.PaymentPaid
	require.NoError(t, store.Payments().UpdateIfStatus(ctx, &paid, domain.PaymentPending, domain.PaymentOverdue))
	assert.ErrorIs(t, store.Payments().UpdateIfStatus(ctx, &paid, domain.PaymentPending, domain.PaymentOverdue), domain.ErrConflict)

	found, err := store.Payments().FindForPeriod(ctx, "f1", "May", "2025")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, found.Status)
}

func TestMemoryStore_ListOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{ID: "n1", TenantID: "t1", Date: base}))
	require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{ID: "n2", TenantID: "t1", Date: base.Add(time.Hour)}))
	require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{ID: "n3", TenantID: "t2", Date: base}))
	require.NoError(t, store.Notifications().MarkRead(ctx, "n1"))

	all, err := store.Notifications().List(ctx, domain.NotificationFilter{TenantID: "t1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "n2", all[0].ID)

	unread, err := store.Notifications().List(ctx, domain.NotificationFilter{TenantID: "t1", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n2", unread[0].ID)
}
