package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aryan0dhankhar/homerental/internal/domain"
)

// MemoryStore implements domain.Store with process-local maps.
// Transactions work on a private copy that replaces the live data on commit;
// writers outside a transaction wait for the running one to finish.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *memData
}

type memData struct {
	admins        map[string]domain.Admin
	tenants       map[string]domain.Tenant
	flats         map[string]domain.Flat
	maintenance   map[string]domain.MaintenanceRequest
	payments      map[string]domain.Payment
	notifications map[string]domain.Notification
}

func newMemData() *memData {
	return &memData{
		admins:        map[string]domain.Admin{},
		tenants:       map[string]domain.Tenant{},
		flats:         map[string]domain.Flat{},
		maintenance:   map[string]domain.MaintenanceRequest{},
		payments:      map[string]domain.Payment{},
		notifications: map[string]domain.Notification{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.admins {
		c.admins[k] = v
	}
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	for k, v := range d.flats {
		c.flats[k] = v
	}
	for k, v := range d.maintenance {
		c.maintenance[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	return c
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

func (s *MemoryStore) view() memView { return memView{s: s} }

// Admins returns the admin repository
func (s *MemoryStore) Admins() domain.AdminRepository { return memAdmins{s.view()} }

// Tenants returns the tenant repository
func (s *MemoryStore) Tenants() domain.TenantRepository { return memTenants{s.view()} }

// Flats returns the flat repository
func (s *MemoryStore) Flats() domain.FlatRepository { return memFlats{s.view()} }

// Maintenance returns the maintenance request repository
func (s *MemoryStore) Maintenance() domain.MaintenanceRepository { return memMaintenance{s.view()} }

// Payments returns the payment repository
func (s *MemoryStore) Payments() domain.PaymentRepository { return memPayments{s.view()} }

// Notifications returns the notification repository
func (s *MemoryStore) Notifications() domain.NotificationRepository {
	return memNotifications{s.view()}
}

// WithinTx runs fn on a private copy of the data and publishes it if fn succeeds
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.data.clone()
	s.mu.RUnlock()

	if err := fn(&memTx{view: memView{s: s, tx: work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = work
	s.mu.Unlock()
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

// memTx is the view handed to a WithinTx callback
type memTx struct {
	view memView
}

func (t *memTx) Admins() domain.AdminRepository               { return memAdmins{t.view} }
func (t *memTx) Tenants() domain.TenantRepository             { return memTenants{t.view} }
func (t *memTx) Flats() domain.FlatRepository                 { return memFlats{t.view} }
func (t *memTx) Maintenance() domain.MaintenanceRepository    { return memMaintenance{t.view} }
func (t *memTx) Payments() domain.PaymentRepository           { return memPayments{t.view} }
func (t *memTx) Notifications() domain.NotificationRepository { return memNotifications{t.view} }
func (t *memTx) Ping(ctx context.Context) error               { return nil }
func (t *memTx) Close() error                                 { return nil }

// WithinTx joins the running transaction
func (t *memTx) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return fn(t)
}

// memView routes reads and writes either to the live data or to a transaction copy
type memView struct {
	s  *MemoryStore
	tx *memData
}

func (v memView) read(fn func(d *memData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return fn(v.s.data)
}

func (v memView) write(fn func(d *memData) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.txMu.Lock()
	defer v.s.txMu.Unlock()
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.data)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

type memAdmins struct{ v memView }

func (r memAdmins) Create(ctx context.Context, admin *domain.Admin) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.admins[admin.ID]; exists {
			return fmt.Errorf("admin %s: %w", admin.ID, domain.ErrConflict)
		}
		for _, a := range d.admins {
			if a.Email == admin.Email {
				return domain.ErrDuplicateEmail
			}
		}
		d.admins[admin.ID] = *admin
		return nil
	})
}

func (r memAdmins) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	var out *domain.Admin
	err := r.v.read(func(d *memData) error {
		a, ok := d.admins[id]
		if !ok {
			return notFound("admin", id)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r memAdmins) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var out *domain.Admin
	err := r.v.read(func(d *memData) error {
		for _, a := range d.admins {
			if a.Email == email {
				a := a
				out = &a
				return nil
			}
		}
		return notFound("admin", email)
	})
	return out, err
}

func (r memAdmins) Update(ctx context.Context, admin *domain.Admin) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.admins[admin.ID]; !ok {
			return notFound("admin", admin.ID)
		}
		for id, a := range d.admins {
			if id != admin.ID && a.Email == admin.Email {
				return domain.ErrDuplicateEmail
			}
		}
		d.admins[admin.ID] = *admin
		return nil
	})
}

func (r memAdmins) List(ctx context.Context) ([]*domain.Admin, error) {
	var out []*domain.Admin
	err := r.v.read(func(d *memData) error {
		for _, a := range d.admins {
			a := a
			out = append(out, &a)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type memTenants struct{ v memView }

func loginCodeTaken(d *memData, code, exceptID string) bool {
	if code == "" {
		return false
	}
	for id, t := range d.tenants {
		if id != exceptID && t.LoginCode == code {
			return true
		}
	}
	return false
}

func (r memTenants) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.tenants[tenant.ID]; exists {
			return fmt.Errorf("tenant %s: %w", tenant.ID, domain.ErrConflict)
		}
		if loginCodeTaken(d, tenant.LoginCode, tenant.ID) {
			return fmt.Errorf("login code in use: %w", domain.ErrConflict)
		}
		d.tenants[tenant.ID] = *tenant
		return nil
	})
}

func (r memTenants) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.v.read(func(d *memData) error {
		t, ok := d.tenants[id]
		if !ok {
			return notFound("tenant", id)
		}
		out = &t
		return nil
	})
	return out, err
}

func (r memTenants) GetByLoginCode(ctx context.Context, code string) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.v.read(func(d *memData) error {
		if code != "" {
			for _, t := range d.tenants {
				if t.LoginCode == code {
					t := t
					out = &t
					return nil
				}
			}
		}
		return notFound("tenant", "with login code")
	})
	return out, err
}

func (r memTenants) Update(ctx context.Context, tenant *domain.Tenant) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.tenants[tenant.ID]; !ok {
			return notFound("tenant", tenant.ID)
		}
		if loginCodeTaken(d, tenant.LoginCode, tenant.ID) {
			return fmt.Errorf("login code in use: %w", domain.ErrConflict)
		}
		d.tenants[tenant.ID] = *tenant
		return nil
	})
}

func (r memTenants) Delete(ctx context.Context, id string) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.tenants[id]; !ok {
			return notFound("tenant", id)
		}
		delete(d.tenants, id)
		return nil
	})
}

func (r memTenants) List(ctx context.Context) ([]*domain.Tenant, error) {
	var out []*domain.Tenant
	err := r.v.read(func(d *memData) error {
		for _, t := range d.tenants {
			t := t
			out = append(out, &t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type memFlats struct{ v memView }

func (r memFlats) Create(ctx context.Context, flat *domain.Flat) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.flats[flat.ID]; exists {
			return fmt.Errorf("flat %s: %w", flat.ID, domain.ErrConflict)
		}
		d.flats[flat.ID] = *flat
		return nil
	})
}

func (r memFlats) GetByID(ctx context.Context, id string) (*domain.Flat, error) {
	var out *domain.Flat
	err := r.v.read(func(d *memData) error {
		f, ok := d.flats[id]
		if !ok {
			return notFound("flat", id)
		}
		out = &f
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions already exclude every other writer
func (r memFlats) GetForUpdate(ctx context.Context, id string) (*domain.Flat, error) {
	return r.GetByID(ctx, id)
}

func (r memFlats) Update(ctx context.Context, flat *domain.Flat) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.flats[flat.ID]; !ok {
			return notFound("flat", flat.ID)
		}
		d.flats[flat.ID] = *flat
		return nil
	})
}

func (r memFlats) Delete(ctx context.Context, id string) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.flats[id]; !ok {
			return notFound("flat", id)
		}
		delete(d.flats, id)
		return nil
	})
}

func (r memFlats) List(ctx context.Context, filter domain.FlatFilter) ([]*domain.Flat, error) {
	var out []*domain.Flat
	err := r.v.read(func(d *memData) error {
		for _, f := range d.flats {
			if filter.Status != "" && f.Status != filter.Status {
				continue
			}
			f := f
			out = append(out, &f)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type memMaintenance struct{ v memView }

func (r memMaintenance) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.maintenance[req.ID]; exists {
			return fmt.Errorf("maintenance request %s: %w", req.ID, domain.ErrConflict)
		}
		d.maintenance[req.ID] = *req
		return nil
	})
}

func (r memMaintenance) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	var out *domain.MaintenanceRequest
	err := r.v.read(func(d *memData) error {
		m, ok := d.maintenance[id]
		if !ok {
			return notFound("maintenance request", id)
		}
		out = &m
		return nil
	})
	return out, err
}

// GetForUpdate relies on transactions excluding every other writer
func (r memMaintenance) GetForUpdate(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	return r.GetByID(ctx, id)
}

func (r memMaintenance) Update(ctx context.Context, req *domain.MaintenanceRequest) error {
	return r.v.write(func(d *memData) error {
		if _, ok := d.maintenance[req.ID]; !ok {
			return notFound("maintenance request", req.ID)
		}
		d.maintenance[req.ID] = *req
		return nil
	})
}

func (r memMaintenance) List(ctx context.Context, filter domain.MaintenanceFilter) ([]*domain.MaintenanceRequest, error) {
	var out []*domain.MaintenanceRequest
	err := r.v.read(func(d *memData) error {
		for _, m := range d.maintenance {
			if filter.TenantID != "" && m.TenantID != filter.TenantID {
				continue
			}
			if filter.FlatID != "" && m.FlatID != filter.FlatID {
				continue
			}
			if filter.Status != "" && m.Status != filter.Status {
				continue
			}
			m := m
			out = append(out, &m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

type memPayments struct{ v memView }

func (r memPayments) Create(ctx context.Context, payment *domain.Payment) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.payments[payment.ID]; exists {
			return fmt.Errorf("payment %s: %w", payment.ID, domain.ErrConflict)
		}
		for _, p := range d.payments {
			if p.FlatID == payment.FlatID && p.Month == payment.Month && p.Year == payment.Year {
				return fmt.Errorf("invoice for %s %s already exists: %w", payment.Month, payment.Year, domain.ErrConflict)
			}
		}
		d.payments[payment.ID] = *payment
		return nil
	})
}

func (r memPayments) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.v.read(func(d *memData) error {
		p, ok := d.payments[id]
		if !ok {
			return notFound("payment", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r memPayments) FindForPeriod(ctx context.Context, flatID, month, year string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.v.read(func(d *memData) error {
		for _, p := range d.payments {
			if p.FlatID == flatID && p.Month == month && p.Year == year {
				p := p
				out = &p
				return nil
			}
		}
		return notFound("payment", flatID+" "+month+" "+year)
	})
	return out, err
}

func (r memPayments) UpdateIfStatus(ctx context.Context, payment *domain.Payment, expected ...domain.PaymentStatus) error {
	return r.v.write(func(d *memData) error {
		current, ok := d.payments[payment.ID]
		if !ok {
			return notFound("payment", payment.ID)
		}
		if !statusIn(current.Status, expected) {
			return fmt.Errorf("payment %s is %s: %w", payment.ID, current.Status, domain.ErrConflict)
		}
		d.payments[payment.ID] = *payment
		return nil
	})
}

func statusIn(s domain.PaymentStatus, set []domain.PaymentStatus) bool {
	for _, e := range set {
		if s == e {
			return true
		}
	}
	return false
}

func (r memPayments) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	var out []*domain.Payment
	err := r.v.read(func(d *memData) error {
		for _, p := range d.payments {
			if filter.TenantID != "" && p.TenantID != filter.TenantID {
				continue
			}
			if filter.FlatID != "" && p.FlatID != filter.FlatID {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
			p := p
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

type memNotifications struct{ v memView }

func (r memNotifications) Create(ctx context.Context, n *domain.Notification) error {
	return r.v.write(func(d *memData) error {
		if _, exists := d.notifications[n.ID]; exists {
			return fmt.Errorf("notification %s: %w", n.ID, domain.ErrConflict)
		}
		d.notifications[n.ID] = *n
		return nil
	})
}

func (r memNotifications) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var out *domain.Notification
	err := r.v.read(func(d *memData) error {
		n, ok := d.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		out = &n
		return nil
	})
	return out, err
}

func (r memNotifications) MarkRead(ctx context.Context, id string) error {
	return r.v.write(func(d *memData) error {
		n, ok := d.notifications[id]
		if !ok {
			return notFound("notification", id)
		}
		n.Read = true
		d.notifications[id] = n
		return nil
	})
}

func (r memNotifications) List(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := r.v.read(func(d *memData) error {
		for _, n := range d.notifications {
			if filter.TenantID != "" && n.TenantID != filter.TenantID {
				continue
			}
			if filter.UnreadOnly && n.Read {
				continue
			}
			n := n
			out = append(out, &n)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, err
}
