package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

func TestMaintenance_ForwardOnlyLifecycle(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	flat, tenant := f.bookedFlat(t, "T1")

	req, err := f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{Title: "Leaking Faucet", Description: "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceReceived, req.Status)
	assert.Equal(t, flat.ID, req.FlatID)
	assert.Equal(t, tenant.ID, req.TenantID)
	assert.Equal(t, req.CreatedAt, req.UpdatedAt)

	// the clock is frozen, updatedAt must still move forward
	inProgress, err := f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceInProgress)
	require.NoError(t, err)
	assert.True(t, inProgress.UpdatedAt.After(req.UpdatedAt))

	done, err := f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceDone)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceDone, done.Status)
	assert.True(t, done.UpdatedAt.After(inProgress.UpdatedAt))

	_, err = f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceInProgress)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceDone)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := f.maintenance.Get(f.ctx, f.admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceDone, stored.Status)
}

func TestMaintenance_ReceivedCanSkipToDone(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	_, tenant := f.bookedFlat(t, "T1")

	req, err := f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{Title: "Light"})
	require.NoError(t, err)
	_, err = f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceDone)
	assert.NoError(t, err)
}

func TestMaintenance_StatusChangeNotifiesTenant(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	_, tenant := f.bookedFlat(t, "T1")
	sub, cancel := f.hub.Subscribe(tenant.ID)
	defer cancel()

	req, err := f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{Title: "AC"})
	require.NoError(t, err)
	_, err = f.maintenance.AdvanceStatus(f.ctx, f.admin, req.ID, domain.MaintenanceInProgress)
	require.NoError(t, err)

	require.Len(t, sub.C, 1)
	n := <-sub.C
	assert.Equal(t, domain.NotificationMaintenance, n.Type)
	assert.Contains(t, n.Message, "In Progress")

	stored, err := f.notifications.ListForTenant(f.ctx, tenant.ID, true)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMaintenance_SubmitValidation(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	_, tenant := f.bookedFlat(t, "T1")

	_, err := f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{})
	_, ok := domain.IsValidationError(err)
	assert.True(t, ok)

	_, err = f.maintenance.Submit(f.ctx, tenant, MaintenanceInput{Title: "x", ImageURL: "not a url"})
	verr, ok := domain.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "imageUrl", verr.Field)

	homeless := &domain.Tenant{ID: "t-x"}
	_, err = f.maintenance.Submit(f.ctx, homeless, MaintenanceInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMaintenance_TenantsSeeOnlyTheirOwn(t *testing.T) {
	f := newFixture(t, IdentityConfig{})
	_, t1 := f.bookedFlat(t, "T1")
	_, t2 := f.bookedFlat(t, "T2")

	r1, err := f.maintenance.Submit(f.ctx, t1, MaintenanceInput{Title: "one"})
	require.NoError(t, err)
	_, err = f.maintenance.Submit(f.ctx, t2, MaintenanceInput{Title: "two"})
	require.NoError(t, err)

	mine, err := f.maintenance.List(f.ctx, tenantPrincipal(t1), domain.MaintenanceFilter{TenantID: t2.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, r1.ID, mine[0].ID)

	all, err := f.maintenance.List(f.ctx, f.admin, domain.MaintenanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.maintenance.Get(f.ctx, tenantPrincipal(t2), r1.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
