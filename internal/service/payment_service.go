package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/events"
	"github.com/aryan0dhankhar/homerental/internal/observability/metrics"
	"github.com/aryan0dhankhar/homerental/internal/observability/tracing"
	"github.com/aryan0dhankhar/homerental/internal/security"
	"github.com/aryan0dhankhar/homerental/internal/security/audit"
)

// InvoiceInput opens a billing period for a flat. A nil Amount bills the
// flat's total charges.
type InvoiceInput struct {
	FlatID string
	Month  string
	Year   string
	Amount *float64
}

// PaymentService handles the billing lifecycle
type PaymentService struct {
	store         domain.Store
	notifications *NotificationService
	ownership     *security.OwnershipChecker
	out           Outbound
	logger        *slog.Logger
	now           func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(store domain.Store, notifications *NotificationService, out Outbound, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		store:         store,
		notifications: notifications,
		ownership:     security.NewOwnershipChecker(logger),
		out:           out.withDefaults(logger),
		logger:        logger,
		now:           time.Now,
	}
}

func (in *InvoiceInput) validate() error {
	in.FlatID = strings.TrimSpace(in.FlatID)
	in.Month = strings.TrimSpace(in.Month)
	in.Year = strings.TrimSpace(in.Year)
	if err := required("flatId", in.FlatID); err != nil {
		return err
	}
	if err := required("month", in.Month); err != nil {
		return err
	}
	if err := required("year", in.Year); err != nil {
		return err
	}
	if y, err := strconv.Atoi(in.Year); err != nil || y < 1900 || y > 9999 {
		return domain.NewValidationError("year", "must be a four digit year")
	}
	if in.Amount != nil && *in.Amount < 0 {
		return domain.NewValidationError("amount", "must not be negative")
	}
	return nil
}

// CreateInvoice opens a pending payment for the tenant of a booked flat
func (s *PaymentService) CreateInvoice(ctx context.Context, actor *domain.Principal, in InvoiceInput) (*domain.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var payment *domain.Payment
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		flat, err := tx.Flats().GetForUpdate(ctx, in.FlatID)
		if err != nil {
			return err
		}
		if !flat.Booked() {
			return fmt.Errorf("flat %s has no tenant to bill: %w", flat.ID, domain.ErrConflict)
		}

		if _, err := tx.Payments().FindForPeriod(ctx, flat.ID, in.Month, in.Year); err == nil {
			return fmt.Errorf("invoice for %s %s already exists: %w", in.Month, in.Year, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		amount := flat.TotalCharges()
		if in.Amount != nil {
			amount = *in.Amount
		}
		now := s.now().UTC()
		payment = &domain.Payment{
			ID:        newID(),
			FlatID:    flat.ID,
			TenantID:  flat.TenantID,
			Amount:    amount,
			Status:    domain.PaymentPending,
			Month:     in.Month,
			Year:      in.Year,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "create_invoice", "payment", payment.ID, audit.StatusSuccess,
		fmt.Sprintf("flat=%s period=%s %s", payment.FlatID, payment.Month, payment.Year))
	s.out.emit(ctx, s.logger, events.SubjectPaymentCreated, payment)

	if s.notifications != nil {
		msg := fmt.Sprintf("Your bill for %s %s of %.2f is due.", payment.Month, payment.Year, payment.Amount)
		if _, err := s.notifications.Notify(ctx, payment.TenantID, payment.FlatID, domain.NotificationBill, "New bill", msg); err != nil {
			s.logger.Warn("bill notification not stored",
				slog.String("payment_id", payment.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return payment, nil
}

// Pay settles a pending or overdue invoice owned by tenant exactly once
func (s *PaymentService) Pay(ctx context.Context, p *domain.Principal, paymentID string, method domain.PaymentMethod) (*domain.Payment, error) {
	ctx, span := tracing.Tracer().Start(ctx, "payment.pay")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID), attribute.String("payment.method", string(method)))

	payment, err := s.pay(ctx, p, paymentID, method)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.ObservePayment(string(method), payment.Amount)
	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(p), "pay_invoice", "payment", payment.ID, audit.StatusSuccess, string(method))
	s.out.emit(ctx, s.logger, events.SubjectPaymentPaid, payment)
	s.logger.Info("payment recorded",
		slog.String("payment_id", payment.ID),
		slog.String("tenant_id", payment.TenantID),
		slog.String("method", string(method)),
	)
	return payment, nil
}

func (s *PaymentService) pay(ctx context.Context, p *domain.Principal, paymentID string, method domain.PaymentMethod) (*domain.Payment, error) {
	if !method.Valid() {
		return nil, domain.NewValidationError("method", "must be online or cash")
	}

	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() || p.UserID() != payment.TenantID {
		return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrForbidden)
	}
	if !payment.Status.Payable() {
		return nil, domain.ErrAlreadyPaid
	}

	now := s.now().UTC()
	payment.Status = domain.PaymentPaid
	payment.Date = &now
	payment.Method = method
	payment.UpdatedAt = later(payment.UpdatedAt, now)

	err = s.store.Payments().UpdateIfStatus(ctx, payment, domain.PaymentPending, domain.PaymentOverdue)
	if errors.Is(err, domain.ErrConflict) {
		// another request settled it between our read and the write
		return nil, domain.ErrAlreadyPaid
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// MarkOverdue moves a pending invoice to overdue
func (s *PaymentService) MarkOverdue(ctx context.Context, actor *domain.Principal, paymentID string) (*domain.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentPending {
		return nil, fmt.Errorf("payment %s is %s: %w", payment.ID, payment.Status, domain.ErrConflict)
	}

	payment.Status = domain.PaymentOverdue
	payment.UpdatedAt = later(payment.UpdatedAt, s.now().UTC())
	if err := s.store.Payments().UpdateIfStatus(ctx, payment, domain.PaymentPending); err != nil {
		return nil, err
	}

	s.out.Cache.Invalidate()
	s.out.Audit.LogAction(ctx, actorOf(actor), "mark_overdue", "payment", payment.ID, audit.StatusSuccess, "")
	return payment, nil
}

// List returns payments; tenants only ever see their own
func (s *PaymentService) List(ctx context.Context, p *domain.Principal, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "must be pending, paid or overdue")
	}
	if !p.IsAdmin() {
		filter.TenantID = p.UserID()
	}
	return s.store.Payments().List(ctx, filter)
}

// Get returns one payment
func (s *PaymentService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ownership.ValidateResourceAccess(p, security.ResourcePermission{
		ResourceType: security.ResourcePayment,
		ResourceID:   id,
		OwnerID:      payment.TenantID,
	}); err != nil {
		return nil, err
	}
	return payment, nil
}
