package database

import (
	"context"

	"github.com/koustreak/dbgen/internal/schema"
)

// Introspector is the contract the generator uses to read a database.
// The generator never imports the mysql, postgres or sqlite packages
// directly; it only sees raw schema rows through this interface.
type Introspector interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Dialect reports the SQL dialect of the connected database.
	Dialect() Dialect

	// ListColumns returns one row per column of every user table, ordered by
	// table then ordinal position. A non-empty table restricts the listing
	// to that table.
	ListColumns(ctx context.Context, table string) ([]schema.ColumnRow, error)

	// Probe runs a zero-row SELECT against table and returns the driver's
	// column metadata in result order.
	Probe(ctx context.Context, table string) ([]schema.ProbeColumn, error)
}

// Collation returns how the dialect compares column identifiers.
func Collation(d Dialect) schema.Collation {
	if d == DialectMySQL {
		return schema.CaseInsensitive
	}
	return schema.CaseSensitive
}
