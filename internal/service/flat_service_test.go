package service

import (
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestCreateFlat_StartsAvailable(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat := f.createFlat(t, "F1")

	assert.Equal(t, domain.FlatAvailable, flat.Status)
	assert.Empty(t, flat.TenantID)
	assert.Empty(t, flat.LoginCode)
	assert.Equal(t, 1500.0, flat.TotalCharges())

	_, err := f.flats.Create(f.ctx, f.admin, FlatInput{Name: "X"})
	verr, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "number", verr.Field)

	_, err = f.flats.Create(f.ctx, f.admin, FlatInput{Name: "X", Number: "1", Rent: -1})
	_, ok = domain.IsValidationError(err)
	assert.True(t, ok)
}

func TestBookFlat_ThenTenantLogsIn(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat := f.createFlat(t, "F1")

	res, err := f.flats.Book(f.ctx, f.admin, flat.ID, TenantInput{Name: "T1", Email: "t1@x.com", Phone: "1"})
	require.NoError(t, err)

	assert.Equal(t, domain.FlatBooked, res.Flat.Status)
	assert.Equal(t, res.Tenant.ID, res.Flat.TenantID)
	assert.Equal(t, flat.ID, res.Tenant.FlatID)
	assert.Regexp(t, sixDigits, res.Flat.LoginCode)
	assert.Equal(t, res.Flat.LoginCode, res.Tenant.LoginCode)

	stored, err := f.flats.Get(f.ctx, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlatBooked, stored.Status)

	login, err := f.identity.LoginTenant(f.ctx, res.Tenant.LoginCode)
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.ID, login.Tenant.ID)
	assert.Equal(t, domain.RoleTenant, login.Session.Role)
}

func TestBookFlat_AlreadyBooked(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, _ := f.bookedFlat(t, "T1")

	_, err := f.flats.Book(f.ctx, f.admin, flat.ID, TenantInput{Name: "T2"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	tenants, err := f.tenants.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestBookFlat_ConcurrentBookingsHaveOneWinner(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat := f.createFlat(t, "F1")

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		otherErr error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.flats.Book(f.ctx, f.admin, flat.ID, TenantInput{Name: "T"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case !errors.Is(err, domain.ErrConflict):
				otherErr = err
			}
		}()
	}
	wg.Wait()

	assert.NoError(t, otherErr)
	assert.Equal(t, 1, wins)
	tenants, err := f.tenants.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestReleaseFlat_RevokesTenantAccess(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")

	login, err := f.identity.LoginTenant(f.ctx, tenant.LoginCode)
	require.NoError(t, err)

	released, err := f.flats.Release(f.ctx, f.admin, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlatAvailable, released.Status)
	assert.Empty(t, released.TenantID)
	assert.Empty(t, released.LoginCode)

	stored, err := f.store.Tenants().GetByID(f.ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.FlatID)
	assert.Empty(t, stored.LoginCode)

	_, err = f.identity.LoginTenant(f.ctx, tenant.LoginCode)
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
	_, err = f.identity.Resolve(f.ctx, login.Token)
	assert.ErrorIs(t, err, domain.ErrAuthFailure)

	_, err = f.flats.Release(f.ctx, f.admin, flat.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeleteFlat(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	booked, _ := f.bookedFlat(t, "T1")
	free := f.createFlat(t, "F2")

	assert.ErrorIs(t, f.flats.Delete(f.ctx, f.admin, booked.ID), domain.ErrConflict)
	require.NoError(t, f.flats.Delete(f.ctx, f.admin, free.ID))

	_, err := f.flats.Get(f.ctx, free.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateFlat_KeepsBooking(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")

	updated, err := f.flats.Update(f.ctx, f.admin, flat.ID, FlatInput{Name: "Renamed", Number: "909", Rent: 2000})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, domain.FlatBooked, updated.Status)
	assert.Equal(t, tenant.ID, updated.TenantID)
	assert.True(t, updated.UpdatedAt.After(flat.UpdatedAt))
}

func TestSendLoginCode(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")
	free := f.createFlat(t, "F2")

	res, err := f.flats.SendLoginCode(f.ctx, f.admin, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.LoginCode, res.LoginCode)
	assert.Equal(t, tenant.ID, res.TenantID)

	_, err = f.flats.SendLoginCode(f.ctx, f.admin, free.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestListFlats_FilterByStatus(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	f.bookedFlat(t, "T1")
	f.createFlat(t, "F2")

	booked, err := f.flats.List(f.ctx, domain.FlatFilter{Status: domain.FlatBooked})
	require.NoError(t, err)
	assert.Len(t, booked, 1)

	all, err := f.flats.List(f.ctx, domain.FlatFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.flats.List(f.ctx, domain.FlatFilter{Status: "gone"})
	_, ok := domain.IsValidationError(err)
	assert.True(t, ok)
}
