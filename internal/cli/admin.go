package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"menuqr/internal/app"
	"menuqr/internal/repositories"
	"menuqr/internal/services"
)

var (
	adminName     string
	adminEmail    string
	adminPhone    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin account directly in the database.

Examples:
  menuqr admin create --email owner@example.com --password 'Str0ng!Pass'
  menuqr admin create --name Owner --email owner@example.com --phone +77010000000 --password 'Str0ng!Pass'`,
	RunE: runAdminCreate,
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "Admin", "display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "login email (required)")
	adminCreateCmd.Flags().StringVar(&adminPhone, "phone", "", "phone number for SMS verification")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "initial password (required)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")
	adminCmd.AddCommand(adminCreateCmd)
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client, db, err := app.ConnectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	auth := services.NewAuthService(repositories.NewAdminRepository(db), app.NewTokenManager(cfg))
	admin, err := auth.CreateAdmin(ctx, services.CreateAdminInput{
		Name:        adminName,
		Email:       adminEmail,
		PhoneNumber: adminPhone,
		Password:    adminPassword,
	})
	if err != nil {
		return fmt.Errorf("cannot create admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%s email=%s\n", admin.ID.Hex(), admin.Email)
	return nil
}
