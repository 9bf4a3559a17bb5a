// Package sqlite provides a SQLite implementation of database.Introspector
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

// Driver is a SQLite implementation of database.Introspector.
type Driver struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens the database file named by cfg.DSN (":memory:" works too).
// The pool is pinned to a single connection so an in-memory database
// survives for the lifetime of the Driver.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	d := &Driver{db: db, queryTimeout: cfg.QueryTimeout}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return database.DialectSQLite
}

// ListColumns joins sqlite_master with pragma_table_info; the declared type
// is the column's type text exactly as written in CREATE TABLE.
func (d *Driver) ListColumns(ctx context.Context, table string) ([]schema.ColumnRow, error) {
	q := `
		SELECT m.name,
		       p.name,
		       p.type
		FROM sqlite_master AS m
		JOIN pragma_table_info(m.name) AS p
		WHERE m.type = 'table'
		  AND m.name NOT LIKE 'sqlite_%'`
	var args []any
	if table != "" {
		q += `
		  AND m.name = ?`
		args = append(args, table)
	}
	q += `
		ORDER BY m.name, p.cid`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "failed to list columns")
	}
	defer rows.Close()

	var out []schema.ColumnRow
	for rows.Next() {
		var r schema.ColumnRow
		if err := rows.Scan(&r.Table, &r.Column, &r.DeclaredType); err != nil {
			return nil, mapError(err, "failed to scan column row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return out, nil
}

// Probe reports the declared type of every result column of a zero-row
// SELECT, as exposed by DatabaseTypeName.
func (d *Driver) Probe(ctx context.Context, table string) ([]schema.ProbeColumn, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, database.ProbeQuery(database.DialectSQLite, table))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to probe table %q", table))
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to read column types of %q", table))
	}

	out := make([]schema.ProbeColumn, len(types))
	for i, ct := range types {
		out[i] = schema.ProbeColumn{
			Name:       ct.Name(),
			Ordinal:    i + 1,
			DriverType: ct.DatabaseTypeName(),
		}
	}
	return out, nil
}

func (d *Driver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// mapError translates SQLite errors into *errs.Error. The modernc driver
// reports everything as plain error text, so classification is by message.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "no such table") {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if strings.Contains(err.Error(), "unable to open database") {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
