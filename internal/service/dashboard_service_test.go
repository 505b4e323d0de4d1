package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func TestAdminDashboard(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")
	f.createFlat(t, "F2")
	f.createFlat(t, "F3")

	_, err := f.payments.CreateInvoice(f.ctx, f.admin, InvoiceInput{FlatID: flat.ID, Month: "May", Year: "2025"})
	require.NoError(t, err)
	_, err = f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{Title: "Door"})
	require.NoError(t, err)

	d, err := f.dashboard.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalFlats)
	assert.Equal(t, 1, d.BookedFlats)
	assert.Equal(t, 2, d.AvailableFlats)
	assert.Equal(t, 33, d.OccupancyRate)
	assert.Equal(t, 1500.0, d.ExpectedMonthlyRent)
	assert.Equal(t, 1, d.Tenants)
	assert.Equal(t, 1, d.Maintenance[domain.MaintenanceReceived])
	assert.Equal(t, 1, d.PendingPayments)
	assert.Equal(t, 1500.0, d.PendingAmount)
}

func TestAdminDashboard_InvalidatedByWrites(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	f.createFlat(t, "F1")

	d, err := f.dashboard.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalFlats)

	// a write that bypasses the services leaves the cached view in place
	require.NoError(t, f.store.Flats().Create(f.ctx, &domain.Flat{ID: "raw", Name: "raw", Number: "0", Status: domain.FlatAvailable}))
	d, err = f.dashboard.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalFlats)

	f.createFlat(t, "F2")
	d, err = f.dashboard.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalFlats)
}

func TestTenantHome(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")
	_, err := f.payments.CreateInvoice(f.ctx, f.admin, InvoiceInput{FlatID: flat.ID, Month: "May", Year: "2025"})
	require.NoError(t, err)

	home, err := f.dashboard.Tenant(f.ctx, tenant)
	require.NoError(t, err)
	require.NotNil(t, home.Flat)
	assert.Equal(t, flat.ID, home.Flat.ID)
	assert.Equal(t, 1500.0, home.TotalCharges)
	assert.Len(t, home.OpenPayments, 1)
	assert.Empty(t, home.OpenMaintenance)
	assert.Equal(t, 1, home.UnreadNotifications)
}

func TestSeed(t *testing.T) {
	f := newFixture(t, IdentityConfig{})

	seeded, err := Seed(f.ctx, f.store, nil)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = Seed(f.ctx, f.store, nil)
	require.NoError(t, err)
	assert.False(t, seeded)

	res, err := f.identity.LoginAdmin(f.ctx, DemoAdminEmail, DemoAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, "admin-001", res.Admin.ID)

	tenantLogin, err := f.identity.LoginTenant(f.ctx, "654321")
	require.NoError(t, err)
	assert.Equal(t, "tenant-002", tenantLogin.Tenant.ID)

	flat, err := f.flats.Get(f.ctx, "flat-001")
	require.NoError(t, err)
	assert.Equal(t, domain.FlatBooked, flat.Status)
	assert.Equal(t, "tenant-001", flat.TenantID)
}
