// Package mysql provides a MySQL implementation of database.Introspector.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

// Driver is a MySQL implementation of database.Introspector backed by
// database/sql. It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := NewFromDB(db, cfg.QueryTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// NewFromDB wraps an already opened pool. A zero queryTimeout disables the
// per-query deadline.
func NewFromDB(db *sql.DB, queryTimeout time.Duration) *Driver {
	return &Driver{db: db, queryTimeout: queryTimeout}
}

// --- database.Introspector implementation ---

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
	return database.DialectMySQL
}

// ListColumns reads INFORMATION_SCHEMA.COLUMNS for the connected database.
// COLUMN_TYPE carries the full declared type, e.g. "varchar(255)".
func (d *Driver) ListColumns(ctx context.Context, table string) ([]schema.ColumnRow, error) {
	q := `
		SELECT TABLE_NAME,
		       COLUMN_NAME,
		       COLUMN_TYPE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()`
	var args []any
	if table != "" {
		q += `
		  AND TABLE_NAME = ?`
		args = append(args, table)
	}
	q += `
		ORDER BY TABLE_NAME, ORDINAL_POSITION`

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

// Probe runs SELECT * ... LIMIT 0 and reports each result column's
// DatabaseTypeName, e.g. "INT", "UNSIGNED BIGINT", "VARCHAR".
func (d *Driver) Probe(ctx context.Context, table string) ([]schema.ProbeColumn, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, database.ProbeQuery(database.DialectMySQL, table))
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

// --- error mapping ---

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case 1044, 1045, 1142, 1143:
		return errs.ErrKindPermissionDenied
	case 1046, 1049, 1040, 1203, 2003:
		return errs.ErrKindConnectionFailed
	case 1146:
		return errs.ErrKindNotFound
	default:
		return errs.ErrKindQueryFailed
	}
}
