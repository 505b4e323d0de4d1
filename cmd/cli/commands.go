package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/homerental/internal/app"
	"github.com/aryan0dhankhar/homerental/internal/domain"
	"github.com/aryan0dhankhar/homerental/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/homerental/internal/service"
	"github.com/aryan0dhankhar/homerental/pkg/config"
)

// open loads the configuration and wires the backends it names
func open(ctx context.Context, migrate bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.New(ctx, cfg, logger.NewLogger(cfg.LogLevel), app.Options{Migrate: migrate})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Config.StoreDriver != "postgres" {
				return errors.New("migrate needs STORE_DRIVER=postgres")
			}
			fmt.Println("✓ Schema is up to date")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo admin, flats and tenants into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			seeded, err := service.Seed(cmd.Context(), a.Store, a.Logger)
			if err != nil {
				return err
			}
			if !seeded {
				fmt.Println("Store already holds data, nothing seeded")
				return nil
			}
			fmt.Println("✓ Demo data seeded")
			return nil
		},
	}
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(adminCreateCmd(), adminDismissCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	var in service.RegisterAdminInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := a.Identity.RegisterAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Admin created: %s (%s)\n", admin.Email, admin.ID)
			if !admin.Verified {
				fmt.Println("  The account must be activated with the code sent to its email")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	for _, f := range []string{"name", "email", "phone", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func adminDismissCmd() *cobra.Command {
	var (
		email   string
		restore bool
	)
	cmd := &cobra.Command{
		Use:   "dismiss",
		Short: "Block an admin from logging in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := a.Identity.SetDismissed(cmd.Context(), email, !restore)
			if err != nil {
				return err
			}
			state := "dismissed"
			if restore {
				state = "restored"
			}
			fmt.Printf("✓ Admin %s %s\n", admin.Email, state)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().BoolVar(&restore, "restore", false, "lift a previous dismissal")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func flatsCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "flats",
		Short: "List flats with their monthly charges",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.FlatFilter{Status: domain.FlatStatus(status)}
			if status != "" && !filter.Status.Valid() {
				return fmt.Errorf("invalid status %q: want available or booked", status)
			}

			a, err := open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			flats, err := a.Flats.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tNUMBER\tSTATUS\tTENANT\tTOTAL")
			for _, f := range flats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
					f.ID, f.Name, f.Number, f.Status, f.TenantID, f.TotalCharges())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "available or booked")
	return cmd
}
