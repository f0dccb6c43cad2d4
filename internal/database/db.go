package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/iliyamo/identity-service/internal/config"
)

// Open connects to the configured SQL database and verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN returns the database/sql driver name and connection string for cfg.
func DSN(cfg config.DBConfig) (driverName, dsn string, err error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		auth := cfg.User
		if cfg.Pass != "" {
			auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		// clientFoundRows=true -> RowsAffected counts matched rows, not changed ones
		return "mysql", fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			auth, cfg.Host, cfg.DBPort(), cfg.Name), nil
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Pass),
			Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.DBPort()),
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable&timezone=UTC",
		}
		if cfg.Pass == "" {
			u.User = url.User(cfg.User)
		}
		return "pgx", u.String(), nil
	default:
		return "", "", fmt.Errorf("driver %q has no sql connection", cfg.Driver)
	}
}
