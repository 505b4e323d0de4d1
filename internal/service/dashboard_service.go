package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/pkg/cache"
)

const adminDashboardKey = "dashboard:admin"

// AdminDashboard summarises the portfolio for the admin home page
type AdminDashboard struct {
	TotalFlats          int                              `json:"totalFlats"`
	BookedFlats         int                              `json:"bookedFlats"`
	AvailableFlats      int                              `json:"availableFlats"`
	OccupancyRate       int                              `json:"occupancyRate"` // Rounded percent
	ExpectedMonthlyRent float64                          `json:"expectedMonthlyRent"`
	Tenants             int                              `json:"tenants"`
	Maintenance         map[domain.MaintenanceStatus]int `json:"maintenance"`
	PendingPayments     int                              `json:"pendingPayments"`
	PendingAmount       float64                          `json:"pendingAmount"`
	OverduePayments     int                              `json:"overduePayments"`
	OverdueAmount       float64                          `json:"overdueAmount"`
	GeneratedAt         time.Time                        `json:"generatedAt"`
}

// TenantHome is everything the tenant home page shows
type TenantHome struct {
	Tenant              *domain.Tenant               `json:"tenant"`
	Flat                *domain.Flat                 `json:"flat,omitempty"`
	TotalCharges        float64                      `json:"totalCharges"`
	OpenPayments        []*domain.Payment            `json:"openPayments"`
	OpenMaintenance     []*domain.MaintenanceRequest `json:"openMaintenance"`
	UnreadNotifications int                          `json:"unreadNotifications"`
}

// DashboardService builds read models for both home pages
type DashboardService struct {
	store  domain.Store
	cache  *cache.Cache[*AdminDashboard]
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService creates a new dashboard service caching the admin view for ttl
func NewDashboardService(store domain.Store, ttl time.Duration, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &DashboardService{
		store:  store,
		cache:  cache.New[*AdminDashboard](),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Invalidate drops the cached admin dashboard
func (s *DashboardService) Invalidate() {
	s.cache.Invalidate("dashboard:")
}

// Admin returns the portfolio summary, served from cache while fresh
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	return s.cache.GetOrLoad(adminDashboardKey, s.ttl, func() (*AdminDashboard, error) {
		return s.buildAdmin(ctx)
	})
}

func (s *DashboardService) buildAdmin(ctx context.Context) (*AdminDashboard, error) {
	flats, err := s.store.Flats().List(ctx, domain.FlatFilter{})
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.Tenants().List(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.Maintenance().List(ctx, domain.MaintenanceFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().List(ctx, domain.PaymentFilter{})
	if err != nil {
		return nil, err
	}

	d := &AdminDashboard{
		TotalFlats: len(flats),
		Maintenance: map[domain.MaintenanceStatus]int{
			domain.MaintenanceReceived:   0,
			domain.MaintenanceInProgress: 0,
			domain.MaintenanceDone:       0,
		},
		GeneratedAt: s.now().UTC(),
	}
	for _, f := range flats {
		if f.Booked() {
			d.BookedFlats++
			d.ExpectedMonthlyRent += f.TotalCharges()
		}
	}
	d.AvailableFlats = d.TotalFlats - d.BookedFlats
	if d.TotalFlats > 0 {
		d.OccupancyRate = int(math.Round(float64(d.BookedFlats) * 100 / float64(d.TotalFlats)))
	}
	for _, t := range tenants {
		if t.Housed() {
			d.Tenants++
		}
	}
	for _, r := range requests {
		d.Maintenance[r.Status]++
	}
	for _, p := range payments {
		switch p.Status {
		case domain.PaymentPending:
			d.PendingPayments++
			d.PendingAmount += p.Amount
		case domain.PaymentOverdue:
			d.OverduePayments++
			d.OverdueAmount += p.Amount
		}
	}

	s.logger.Debug("admin dashboard rebuilt", slog.Int("flats", d.TotalFlats))
	return d, nil
}

// Tenant returns the home view of one tenant
func (s *DashboardService) Tenant(ctx context.Context, tenant *domain.Tenant) (*TenantHome, error) {
	home := &TenantHome{
		Tenant:          tenant,
		OpenPayments:    []*domain.Payment{},
		OpenMaintenance: []*domain.MaintenanceRequest{},
	}

	if tenant.FlatID != "" {
		flat, err := s.store.Flats().GetByID(ctx, tenant.FlatID)
		if err != nil {
			return nil, err
		}
		home.Flat = flat
		home.TotalCharges = flat.TotalCharges()
	}

	payments, err := s.store.Payments().List(ctx, domain.PaymentFilter{TenantID: tenant.ID})
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if p.Status.Payable() {
			home.OpenPayments = append(home.OpenPayments, p)
		}
	}

	requests, err := s.store.Maintenance().List(ctx, domain.MaintenanceFilter{TenantID: tenant.ID})
	if err != nil {
		return nil, err
	}
	for _, r := range requests {
		if r.Status != domain.MaintenanceDone {
			home.OpenMaintenance = append(home.OpenMaintenance, r)
		}
	}

	unread, err := s.store.Notifications().List(ctx, domain.NotificationFilter{TenantID: tenant.ID, UnreadOnly: true})
	if err != nil {
		return nil, err
	}
	home.UnreadNotifications = len(unread)
	return home, nil
}
