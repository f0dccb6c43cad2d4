package database

import (
	"strconv"
	"strings"

	"github.com/iliyamo/identity-service/internal/config"
)

// Rebind rewrites the '?' placeholders of a MySQL-style query into the
// numbered '$n' form PostgreSQL expects. Other drivers get the query as is.
func Rebind(driver, query string) string {
	if driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
