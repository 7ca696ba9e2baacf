package sqlstore

import (
	"strconv"
	"strings"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
)

// dialect captures what differs between the supported engines.
type dialect struct {
	driver string
	schema []string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var postgresDialect = dialect{
	driver:   "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id BIGSERIAL PRIMARY KEY,
			hash TEXT UNIQUE NOT NULL,
			type TEXT NOT NULL,
			result TEXT NOT NULL,
			signer TEXT NOT NULL,
			listing TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			cost TEXT NOT NULL,
			metadata BYTEA,
			recorded_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_listing ON invocations(listing, id)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_signer ON invocations(signer, id)`,
	},
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hash TEXT UNIQUE NOT NULL,
			type TEXT NOT NULL,
			result TEXT NOT NULL,
			signer TEXT NOT NULL,
			listing TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			cost TEXT NOT NULL,
			metadata BLOB,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_listing ON invocations(listing, id)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_signer ON invocations(signer, id)`,
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case relationaldb.DriverPostgres:
		return postgresDialect, nil
	case relationaldb.DriverSQLite:
		return sqliteDialect, nil
	}
	return dialect{}, relationaldb.ErrInvalidDriver
}

// rebind rewrites ? placeholders for engines that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
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
