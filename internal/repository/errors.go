// Package repository defines the credential store and the error values that
// are reused across its implementations. These sentinel values allow higher
// layers to distinguish between different failure scenarios without knowing
// which database is behind the store.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when no principal matches a lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a unique email or social id is already
// taken. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a duplicate-key error from either
// supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
