package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/security/auth"
)

const (
	// DemoAdminEmail and DemoAdminPassword log into the seeded admin account
	DemoAdminEmail    = "admin@hrms.com"
	DemoAdminPassword = "password"
)

func seedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seed loads the demo portfolio into an empty store. It reports false and
// changes nothing when any admin or flat already exists.
func Seed(ctx context.Context, store domain.Store, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	admins, err := store.Admins().List(ctx)
	if err != nil {
		return false, err
	}
	flats, err := store.Flats().List(ctx, domain.FlatFilter{})
	if err != nil {
		return false, err
	}
	if len(admins) > 0 || len(flats) > 0 {
		logger.Info("store not empty, demo seed skipped")
		return false, nil
	}

	hash, err := auth.HashPassword(DemoAdminPassword)
	if err != nil {
		return false, err
	}
	created := seedTime("2023-01-01T00:00:00Z")

	err = store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Admins().Create(ctx, &domain.Admin{
			ID: "admin-001", Name: "Mr. X", Email: DemoAdminEmail, Phone: "+880 123-4567",
			PasswordHash: hash, Role: domain.RoleAdmin, Verified: true,
			CreatedAt: created, UpdatedAt: created,
		}); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}

		for _, f := range []domain.Flat{
			{ID: "flat-001", Name: "East Apartment", Number: "101", Floor: "1st", Area: "950 sqft",
				Rent: 1200, MaintenanceCost: 100, ServiceCharge: 50, ElevatorFee: 25, SecurityCharge: 75, SocietyFee: 50},
			{ID: "flat-002", Name: "Ocean View West", Number: "202", Floor: "2nd", Area: "1050 sqft",
				Rent: 1500, MaintenanceCost: 120, ServiceCharge: 60, ElevatorFee: 25, SecurityCharge: 75, SocietyFee: 50},
			{ID: "flat-003", Name: "City Heights", Number: "303", Floor: "3rd", Area: "850 sqft",
				Rent: 1100, MaintenanceCost: 90, ServiceCharge: 45, ElevatorFee: 25, SecurityCharge: 60, SocietyFee: 40},
		} {
			f := f
			f.Status = domain.FlatAvailable
			f.CreatedAt, f.UpdatedAt = created, created
			if err := tx.Flats().Create(ctx, &f); err != nil {
				return fmt.Errorf("seed flat %s: %w", f.ID, err)
			}
		}

		for _, t := range []domain.Tenant{
			{ID: "tenant-001", Name: "Rafi", Email: "rafi@hrms.com", Phone: "+880 987-6543", FlatID: "flat-001", LoginCode: "123456"},
			{ID: "tenant-002", Name: "Nadia", Email: "nadia@hrms.com", Phone: "+880 555-0102", FlatID: "flat-002", LoginCode: "654321"},
		} {
			t := t
			t.CreatedAt, t.UpdatedAt = created, created
			if err := tx.Tenants().Create(ctx, &t); err != nil {
				return fmt.Errorf("seed tenant %s: %w", t.ID, err)
			}
			flat, err := tx.Flats().GetForUpdate(ctx, t.FlatID)
			if err != nil {
				return err
			}
			flat.Status = domain.FlatBooked
			flat.TenantID = t.ID
			flat.LoginCode = t.LoginCode
			if err := tx.Flats().Update(ctx, flat); err != nil {
				return err
			}
		}

		for _, r := range []domain.MaintenanceRequest{
			{ID: "maintenance-001", FlatID: "flat-001", TenantID: "tenant-001", Title: "Leaking Faucet",
				Description: "The kitchen faucet is leaking and needs to be fixed.",
				Status:      domain.MaintenanceInProgress,
				CreatedAt:   seedTime("2023-04-10T14:30:00Z"), UpdatedAt: seedTime("2023-04-11T09:15:00Z")},
			{ID: "maintenance-002", FlatID: "flat-002", TenantID: "tenant-002", Title: "AC Not Working",
				Description: "The air conditioning unit in the living room is not cooling properly.",
				ImageURL:    "https://images.unsplash.com/photo-1581275233365-afb02e5d39cc?w=500",
				Status:      domain.MaintenanceReceived,
				CreatedAt:   seedTime("2023-04-12T10:45:00Z"), UpdatedAt: seedTime("2023-04-12T10:45:00Z")},
			{ID: "maintenance-003", FlatID: "flat-001", TenantID: "tenant-001", Title: "Broken Light Fixture",
				Description: "The ceiling light in the dining room is not working, might need replacement.",
				Status:      domain.MaintenanceDone,
				CreatedAt:   seedTime("2023-04-01T08:20:00Z"), UpdatedAt: seedTime("2023-04-03T16:30:00Z")},
		} {
			r := r
			if err := tx.Maintenance().Create(ctx, &r); err != nil {
				return fmt.Errorf("seed maintenance %s: %w", r.ID, err)
			}
		}

		april, march := seedTime("2023-04-02T10:30:00Z"), seedTime("2023-03-03T14:45:00Z")
		for _, p := range []domain.Payment{
			{ID: "payment-001", Amount: 1500, Date: &april, Method: domain.PaymentOnline, Status: domain.PaymentPaid, Month: "April", Year: "2023"},
			{ID: "payment-002", Amount: 1500, Date: &march, Method: domain.PaymentCash, Status: domain.PaymentPaid, Month: "March", Year: "2023"},
			{ID: "payment-003", Amount: 1500, Status: domain.PaymentPending, Month: "May", Year: "2023"},
		} {
			p := p
			p.FlatID, p.TenantID = "flat-001", "tenant-001"
			p.CreatedAt, p.UpdatedAt = created, created
			if err := tx.Payments().Create(ctx, &p); err != nil {
				return fmt.Errorf("seed payment %s: %w", p.ID, err)
			}
		}

		for _, n := range []domain.Notification{
			{ID: "notif-001", Title: "Rent Due Reminder", Message: "Your rent payment for May is due in 3 days.",
				Date: seedTime("2023-04-27T09:00:00Z"), Type: domain.NotificationBill},
			{ID: "notif-002", Title: "Maintenance Update", Message: "Your maintenance request for 'Leaking Faucet' is now in progress.",
				Date: seedTime("2023-04-11T09:15:00Z"), Read: true, Type: domain.NotificationMaintenance},
			{ID: "notif-003", Title: "Building Notice", Message: "Water supply will be interrupted on Sunday from 10am to 2pm due to maintenance work.",
				Date: seedTime("2023-04-25T14:00:00Z"), Type: domain.NotificationMessage},
		} {
			n := n
			n.TenantID, n.FlatID = "tenant-001", "flat-001"
			if err := tx.Notifications().Create(ctx, &n); err != nil {
				return fmt.Errorf("seed notification %s: %w", n.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("demo data seeded", slog.String("admin_email", DemoAdminEmail))
	return true, nil
}
