package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/database"
	"github.com/iliyamo/identity-service/internal/logging"
	"github.com/iliyamo/identity-service/internal/repository"
	"github.com/iliyamo/identity-service/internal/service"
)

// loadRuntime reads configuration and builds the process logger.
func loadRuntime(w io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, w)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore returns the credential store selected by DB_DRIVER and a
// function releasing its resources.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (service.CredentialStore, func(), error) {
	if cfg.DB.Driver == config.DriverMemory {
		logger.Warn("using in-memory credential store; data is lost on restart")
		return repository.NewMemoryUserRepo(), func() {}, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "connect to database").
			With("driver", cfg.DB.Driver).
			Wrap(err)
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver, database.MigrateUp); err != nil {
			_ = db.Close()
			return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		logger.Info("database migrations applied")
	}
	return repository.NewUserRepo(db, cfg.DB.Driver), func() { _ = db.Close() }, nil
}
