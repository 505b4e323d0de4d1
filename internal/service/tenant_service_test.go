package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func TestDeleteTenant_ReleasesFlatKeepsHistory(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")
	invoice, err := f.payments.CreateInvoice(f.ctx, f.admin, InvoiceInput{FlatID: flat.ID, Month: "May", Year: "2025"})
	require.NoError(t, err)

	require.NoError(t, f.tenants.Delete(f.ctx, f.admin, tenant.ID))

	stored, err := f.flats.Get(f.ctx, flat.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlatAvailable, stored.Status)
	assert.Empty(t, stored.TenantID)
	assert.Empty(t, stored.LoginCode)

	_, err = f.tenants.Get(f.ctx, f.admin, tenant.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	kept, err := f.payments.Get(f.ctx, f.admin, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, kept.TenantID)

	// the flat can be booked again
	_, err = f.flats.Book(f.ctx, f.admin, flat.ID, TenantInput{Name: "T2"})
	assert.NoError(t, err)
}

func TestTenantAccess(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	_, t1 := f.bookedFlat(t, "T1")
	_, t2 := f.bookedFlat(t, "T2")

	self, err := f.tenants.Get(f.ctx, tenantPrincipal(t1), t1.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", self.Name)

	_, err = f.tenants.Get(f.ctx, tenantPrincipal(t1), t2.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	phone := "555"
	updated, err := f.tenants.UpdateProfile(f.ctx, f.admin, t2.ID, domain.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555", updated.Phone)
	assert.Equal(t, t2.LoginCode, updated.LoginCode)

	empty := " "
	_, err = f.tenants.UpdateProfile(f.ctx, f.admin, t2.ID, domain.ProfileUpdate{Name: &empty})
	_, ok := domain.IsValidationError(err)
	assert.True(t, ok)
}
