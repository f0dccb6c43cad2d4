package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/iliyamo/identity-service/internal/config"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Migration directions accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// Migrate runs the embedded goose migrations for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver, direction string) error {
	dir, dialect, err := migrationSource(driver)
	if err != nil {
		return err
	}
	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	switch direction {
	case "", MigrateUp:
		return goose.UpContext(ctx, db, ".")
	case MigrateDown:
		return goose.DownContext(ctx, db, ".")
	case MigrateStatus:
		return goose.StatusContext(ctx, db, ".")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}

func migrationSource(driver string) (dir, dialect string, err error) {
	switch driver {
	case config.DriverMySQL:
		return "migrations/mysql", "mysql", nil
	case config.DriverPostgres:
		return "migrations/postgres", "pgx", nil
	default:
		return "", "", fmt.Errorf("driver %q has no migrations", driver)
	}
}
