package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Long:      `Apply, roll back or list the embedded migrations for the configured DB_DRIVER.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE:      runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := database.MigrateUp
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, _, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.DB.Driver == config.DriverMemory {
		return oops.Code("CONFIG_INVALID").Errorf("migrations need a sql DB_DRIVER, got %q", cfg.DB.Driver)
	}

	cmd.Println("Connecting to database...")
	db, err := database.Open(cfg.DB)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	cmd.Printf("Running migrations (%s)...\n", direction)
	if err := database.Migrate(cmd.Context(), db, cfg.DB.Driver, direction); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").With("direction", direction).Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
