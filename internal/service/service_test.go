package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/notify"
	"github.com/aryan0dhankhar/homerental/internal/repository"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
)

// captureOTPs remembers the last code saved per purpose
type captureOTPs struct {
	*repository.MemoryOTPRepository
	mu    sync.Mutex
	codes map[domain.OTPPurpose]string
}

func (c *captureOTPs) Save(ctx context.Context, otp *domain.OTP) error {
	c.mu.Lock()
	c.codes[otp.Purpose] = otp.Code
	c.mu.Unlock()
	return c.MemoryOTPRepository.Save(ctx, otp)
}

func (c *captureOTPs) code(p domain.OTPPurpose) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[p]
}

type fixture struct {
	ctx      context.Context
	now      time.Time
	store    *repository.MemoryStore
	sessions *repository.MemorySessionRepository
	otps     *captureOTPs
	hub      *notify.Hub

	identity      *IdentityService
	flats         *FlatService
	tenants       *TenantService
	maintenance   *MaintenanceService
	payments      *PaymentService
	notifications *NotificationService
	dashboard     *DashboardService

	admin *domain.Principal
}

func newFixture(t *testing.T, cfg IdentityConfig) *fixture {
	t.Helper()

	f := &fixture{
		ctx:      context.Background(),
		now:      time.Now().UTC().Truncate(time.Second),
		store:    repository.NewMemoryStore(),
		sessions: repository.NewMemorySessionRepository(),
		otps: &captureOTPs{
			MemoryOTPRepository: repository.NewMemoryOTPRepository(),
			codes:               map[domain.OTPPurpose]string{},
		},
		hub: notify.NewHub(nil),
	}
	clock := func() time.Time { return f.now }

	f.dashboard = NewDashboardService(f.store, time.Minute, nil)
	out := Outbound{Hub: f.hub, Cache: f.dashboard}

	f.identity = NewIdentityService(f.store, f.sessions, f.otps, auth.NewTokenManager("test-secret", ""), cfg, out, nil)
	f.flats = NewFlatService(f.store, out, nil)
	f.tenants = NewTenantService(f.store, out, nil)
	f.notifications = NewNotificationService(f.store, out, nil)
	f.maintenance = NewMaintenanceService(f.store, f.notifications, out, nil)
	f.payments = NewPaymentService(f.store, f.notifications, out, nil)

	f.identity.now = clock
	f.flats.now = clock
	f.tenants.now = clock
	f.notifications.now = clock
	f.maintenance.now = clock
	f.payments.now = clock
	f.dashboard.now = clock

	f.admin = &domain.Principal{
		Session: &domain.Session{ID: "s-admin", UserID: "admin-1", Role: domain.RoleAdmin},
		Admin:   &domain.Admin{ID: "admin-1", Role: domain.RoleAdmin},
	}
	return f
}

func tenantPrincipal(t *domain.Tenant) *domain.Principal {
	return &domain.Principal{
		Session: &domain.Session{ID: "s-" + t.ID, UserID: t.ID, Role: domain.RoleTenant},
		Tenant:  t,
	}
}

func (f *fixture) createFlat(t *testing.T, name string) *domain.Flat {
	t.Helper()
	flat, err := f.flats.Create(f.ctx, f.admin, FlatInput{
		Name: name, Number: "101", Floor: "1st", Area: "950 sqft",
		Rent: 1200, MaintenanceCost: 100, ServiceCharge: 50, ElevatorFee: 25, SecurityCharge: 75, SocietyFee: 50,
	})
	require.NoError(t, err)
	return flat
}

func (f *fixture) bookedFlat(t *testing.T, tenantName string) (*domain.Flat, *domain.Tenant) {
	t.Helper()
	flat := f.createFlat(t, "Flat of "+tenantName)
	res, err := f.flats.Book(f.ctx, f.admin, flat.ID, TenantInput{Name: tenantName, Email: tenantName + "@x.com", Phone: "000"})
	require.NoError(t, err)
	return res.Flat, res.Tenant
}
