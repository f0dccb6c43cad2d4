package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/identity-service/internal/config"
)

func TestRebind(t *testing.T) {
	q := "UPDATE users SET a=? WHERE id=? AND b=?"
	assert.Equal(t, q, Rebind(config.DriverMySQL, q))
	assert.Equal(t, "UPDATE users SET a=$1 WHERE id=$2 AND b=$3", Rebind(config.DriverPostgres, q))
}

func TestDSN(t *testing.T) {
	name, dsn, err := DSN(config.DBConfig{Driver: config.DriverMySQL, User: "u", Pass: "p", Host: "db", Name: "identity"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", name)
	assert.Equal(t, "u:p@tcp(db:3306)/identity?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true", dsn)

	name, dsn, err = DSN(config.DBConfig{Driver: config.DriverPostgres, User: "u", Host: "db", Port: "6543", Name: "identity"})
	require.NoError(t, err)
	assert.Equal(t, "pgx", name)
	assert.Equal(t, "postgres://u@db:6543/identity?sslmode=disable&timezone=UTC", dsn)

	_, _, err = DSN(config.DBConfig{Driver: config.DriverMemory})
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, driver := range []string{config.DriverMySQL, config.DriverPostgres} {
		dir, _, err := migrationSource(driver)
		require.NoError(t, err)
		files, err := fs.Glob(migrations, dir+"/*.sql")
		require.NoError(t, err)
		assert.NotEmpty(t, files, driver)
	}
}

func TestMigrate_RejectsUnknownInput(t *testing.T) {
	err := Migrate(context.Background(), nil, config.DriverMemory, MigrateUp)
	assert.Error(t, err)
}
