package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/observability/tracing"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
)

const (
	loginCodeLength   = 6
	loginCodeAttempts = 10
)

// FlatService handles the flat booking lifecycle
type FlatService struct {
	store  domain.Store
	out    Outbound
	logger *slog.Logger
	now    func() time.Time
}

// NewFlatService creates a new flat service
func NewFlatService(store domain.Store, out Outbound, logger *slog.Logger) *FlatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlatService{store: store, out: out.withDefaults(logger), logger: logger, now: time.Now}
}

// FlatInput carries the descriptive and fee fields of a flat
type FlatInput struct {
	Name            string
	Number          string
	Floor           string
	Area            string
	Rent            float64
	MaintenanceCost float64
	ServiceCharge   float64
	ElevatorFee     float64
	SecurityCharge  float64
	SocietyFee      float64
}

func (in *FlatInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Number = strings.TrimSpace(in.Number)
	if err := required("name", in.Name); err != nil {
		return err
	}
	if err := required("number", in.Number); err != nil {
		return err
	}
	for _, fee := range []struct {
		field string
		value float64
	}{
		{"rent", in.Rent},
		{"maintenanceCost", in.MaintenanceCost},
		{"serviceCharge", in.ServiceCharge},
		{"elevatorFee", in.ElevatorFee},
		{"securityCharge", in.SecurityCharge},
		{"societyFee", in.SocietyFee},
	} {
		if fee.value < 0 {
			return domain.NewValidationError(fee.field, "must not be negative")
		}
	}
	return nil
}

func (in FlatInput) apply(f *domain.Flat) {
	f.Name = in.Name
	f.Number = in.Number
	f.Floor = strings.TrimSpace(in.Floor)
	f.Area = strings.TrimSpace(in.Area)
	f.Rent = in.Rent
	f.MaintenanceCost = in.MaintenanceCost
	f.ServiceCharge = in.ServiceCharge
	f.ElevatorFee = in.ElevatorFee
	f.SecurityCharge = in.SecurityCharge
	f.SocietyFee = in.SocietyFee
}

// TenantInput carries the contact details of a tenant being housed
type TenantInput struct {
	Name  string
	Email string
	Phone string
}

// BookingResult is the booked flat and the tenant created for it
type BookingResult struct {
	Flat   *domain.Flat   `json:"flat"`
	Tenant *domain.Tenant `json:"tenant"`
}

// LoginCodeResult is what the admin relays to the tenant
type LoginCodeResult struct {
	FlatID     string `json:"flatId"`
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	LoginCode  string `json:"loginCode"`
}

// Create adds an available flat without a tenant
func (s *FlatService) Create(ctx context.Context, actor *domain.Principal, in FlatInput) (*domain.Flat, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	flat := &domain.Flat{
		ID:        newID(),
		Status:    domain.FlatAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(flat)

	if err := s.store.Flats().Create(ctx, flat); err != nil {
		return nil, err
	}
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "create_flat", "flat", flat.ID, audit.StatusSuccess, flat.Number)
	s.logger.Info("flat created", slog.String("flat_id", flat.ID), slog.String("number", flat.Number))
	return flat, nil
}

// Update edits descriptive and fee fields. Status and tenant only change
// through Book and Release.
func (s *FlatService) Update(ctx context.Context, actor *domain.Principal, id string, in FlatInput) (*domain.Flat, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var flat *domain.Flat
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		flat, err = tx.Flats().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		in.apply(flat)
		flat.UpdatedAt = later(flat.UpdatedAt, s.now().UTC())
		return tx.Flats().Update(ctx, flat)
	})
	if err != nil {
		return nil, err
	}
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "update_flat", "flat", flat.ID, audit.StatusSuccess, "")
	return flat, nil
}

// Book houses a new tenant in an available flat and hands out a fresh login code
func (s *FlatService) Book(ctx context.Context, actor *domain.Principal, flatID string, in TenantInput) (*BookingResult, error) {
	ctx, span := tracing.Tracer().Start(ctx, "flat.book")
	defer span.End()
	span.SetAttributes(attribute.String("flat.id", flatID))

	in.Name = strings.TrimSpace(in.Name)
	if err := required("name", in.Name); err != nil {
		return nil, err
	}

	var result BookingResult
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		flat, err := tx.Flats().GetForUpdate(ctx, flatID)
		if err != nil {
			return err
		}
		if flat.Booked() {
			return fmt.Errorf("flat %s is already booked: %w", flat.ID, domain.ErrConflict)
		}

		code, err := uniqueLoginCode(ctx, tx)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		tenant := &domain.Tenant{
			ID:        newID(),
			Name:      in.Name,
			Email:     strings.TrimSpace(in.Email),
			Phone:     strings.TrimSpace(in.Phone),
			FlatID:    flat.ID,
			LoginCode: code,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}

		flat.Status = domain.FlatBooked
		flat.TenantID = tenant.ID
		flat.LoginCode = code
		flat.UpdatedAt = later(flat.UpdatedAt, now)
		if err := tx.Flats().Update(ctx, flat); err != nil {
			return err
		}

		result = BookingResult{Flat: flat, Tenant: tenant}
		return nil
	})
	if err != nil {
		metrics.ObserveBooking("book", "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.out.Audit.LogBooking(ctx, actorOf(actor), "book_flat", flatID, audit.StatusFailure, err.Error())
		return nil, err
	}

	metrics.ObserveBooking("book", "success")
	s.out.Cache.Invalidate()
	s.out.Audit.LogBooking(ctx, actorOf(actor), "book_flat", flatID, audit.StatusSuccess, "tenant="+result.Tenant.ID)
	s.out.emit(ctx, s.logger, events.SubjectFlatBooked, map[string]string{
		"flat_id":   result.Flat.ID,
		"tenant_id": result.Tenant.ID,
	})
	s.logger.Info("flat booked",
		slog.String("flat_id", result.Flat.ID),
		slog.String("tenant_id", result.Tenant.ID),
	)
	return &result, nil
}

// uniqueLoginCode draws random codes until one is not held by any tenant.
// The unique index on login codes still guards against a concurrent draw.
func uniqueLoginCode(ctx context.Context, tx domain.Store) (string, error) {
	for i := 0; i < loginCodeAttempts; i++ {
		code, err := auth.GenerateCode(loginCodeLength)
		if err != nil {
			return "", err
		}
		_, err = tx.Tenants().GetByLoginCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free login code after %d attempts: %w", loginCodeAttempts, domain.ErrConflict)
}

// Release frees a booked flat. The tenant keeps its history but loses its
// flat and login code.
func (s *FlatService) Release(ctx context.Context, actor *domain.Principal, flatID string) (*domain.Flat, error) {
	var (
		flat     *domain.Flat
		tenantID string
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		flat, err = tx.Flats().GetForUpdate(ctx, flatID)
		if err != nil {
			return err
		}
		if !flat.Booked() {
			return fmt.Errorf("flat %s is not booked: %w", flat.ID, domain.ErrConflict)
		}
		tenantID = flat.TenantID
		return releaseFlat(ctx, tx, flat, s.now().UTC())
	})
	if err != nil {
		metrics.ObserveBooking("release", "error")
		return nil, err
	}

	metrics.ObserveBooking("release", "success")
	s.out.Cache.Invalidate()
	s.out.Audit.LogBooking(ctx, actorOf(actor), "release_flat", flatID, audit.StatusSuccess, "tenant="+tenantID)
	s.out.emit(ctx, s.logger, events.SubjectFlatReleased, map[string]string{
		"flat_id":   flat.ID,
		"tenant_id": tenantID,
	})
	return flat, nil
}

// releaseFlat clears both sides of a booking inside tx
func releaseFlat(ctx context.Context, tx domain.Store, flat *domain.Flat, now time.Time) error {
	if flat.TenantID != "" {
		tenant, err := tx.Tenants().GetByID(ctx, flat.TenantID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		default:
			tenant.FlatID = ""
			tenant.LoginCode = ""
			tenant.UpdatedAt = later(tenant.UpdatedAt, now)
			if err := tx.Tenants().Update(ctx, tenant); err != nil {
				return err
			}
		}
	}

	flat.Status = domain.FlatAvailable
	flat.TenantID = ""
	flat.LoginCode = ""
	flat.UpdatedAt = later(flat.UpdatedAt, now)
	return tx.Flats().Update(ctx, flat)
}

// Delete removes an available flat. Booked flats must be released first.
func (s *FlatService) Delete(ctx context.Context, actor *domain.Principal, flatID string) error {
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		flat, err := tx.Flats().GetForUpdate(ctx, flatID)
		if err != nil {
			return err
		}
		if flat.Booked() {
			return fmt.Errorf("flat %s is booked, release it first: %w", flat.ID, domain.ErrConflict)
		}
		return tx.Flats().Delete(ctx, flatID)
	})
	if err != nil {
		return err
	}
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "delete_flat", "flat", flatID, audit.StatusSuccess, "")
	return nil
}

// SendLoginCode simulates handing the tenant its login code
func (s *FlatService) SendLoginCode(ctx context.Context, actor *domain.Principal, flatID string) (*LoginCodeResult, error) {
	flat, err := s.store.Flats().GetByID(ctx, flatID)
	if err != nil {
		return nil, err
	}
	if !flat.Booked() {
		return nil, fmt.Errorf("flat %s has no tenant: %w", flat.ID, domain.ErrConflict)
	}
	tenant, err := s.store.Tenants().GetByID(ctx, flat.TenantID)
	if err != nil {
		return nil, err
	}

	s.out.Audit.LogCodeSent(ctx, actorOf(actor), flat.ID, tenant.ID)
	s.logger.Info("login code sent",
		slog.String("flat_id", flat.ID),
		slog.String("tenant_id", tenant.ID),
	)
	return &LoginCodeResult{
		FlatID:     flat.ID,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		Email:      tenant.Email,
		Phone:      tenant.Phone,
		LoginCode:  tenant.LoginCode,
	}, nil
}

// List returns flats matching filter
func (s *FlatService) List(ctx context.Context, filter domain.FlatFilter) ([]*domain.Flat, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "must be available or booked")
	}
	return s.store.Flats().List(ctx, filter)
}

// Get returns one flat
func (s *FlatService) Get(ctx context.Context, id string) (*domain.Flat, error) {
	return s.store.Flats().GetByID(ctx, id)
}
