// Package postgres provides a PostgreSQL implementation of
// database.Introspector backed by pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

const defaultSchema = "public"

// Driver is a PostgreSQL implementation of database.Introspector.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool         *pgxpool.Pool
	schema       string
	queryTimeout time.Duration
	types        *pgtype.Map
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create connection pool", err)
	}

	s := cfg.Schema
	if s == "" {
		s = defaultSchema
	}
	d := &Driver{
		pool:         pool,
		schema:       s,
		queryTimeout: cfg.QueryTimeout,
		types:        pgtype.NewMap(),
	}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- database.Introspector implementation ---

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool.
func (d *Driver) Close() {
	d.pool.Close()
}

func (d *Driver) Dialect() database.Dialect {
	return database.DialectPostgres
}

// ListColumns reads information_schema.columns for the configured schema.
// The declared type is rebuilt with its length or precision so the
// documentation shows e.g. "character varying(255)".
func (d *Driver) ListColumns(ctx context.Context, table string) ([]schema.ColumnRow, error) {
	q := `
		SELECT table_name,
		       column_name,
		       CASE
		           WHEN character_maximum_length IS NOT NULL
		               THEN data_type || '(' || character_maximum_length || ')'
		           WHEN data_type = 'numeric' AND numeric_precision IS NOT NULL
		               THEN data_type || '(' || numeric_precision || ',' || COALESCE(numeric_scale, 0) || ')'
		           ELSE data_type
		       END AS column_type
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name IN (
		      SELECT table_name
		      FROM information_schema.tables
		      WHERE table_schema = $1
		        AND table_type   = 'BASE TABLE'
		  )`
	args := []any{d.schema}
	if table != "" {
		q += `
		  AND table_name = $2`
		args = append(args, table)
	}
	q += `
		ORDER BY table_name, ordinal_position`

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	rows, err := d.pool.Query(ctx, q, args...)
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

// Probe runs SELECT * ... LIMIT 0 and resolves each field's type OID to its
// pgtype name, e.g. "int4", "varchar", "timestamptz".
func (d *Driver) Probe(ctx context.Context, table string) ([]schema.ProbeColumn, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	q := fmt.Sprintf("SELECT * FROM %s.%s LIMIT 0",
		database.QuoteIdent(database.DialectPostgres, d.schema),
		database.QuoteIdent(database.DialectPostgres, table))

	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to probe table %q", table))
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	out := make([]schema.ProbeColumn, len(descs))
	for i, fd := range descs {
		out[i] = schema.ProbeColumn{
			Name:       fd.Name,
			Ordinal:    i + 1,
			DriverType: d.typeName(fd.DataTypeOID),
		}
	}
	// Closing reads the rest of the response, so errors raised after the row
	// description surface here.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, fmt.Sprintf("failed to probe table %q", table))
	}
	return out, nil
}

// typeName returns the registered pgtype name for oid. Types pgx does not
// know (extensions, domains) come back as "oid:<n>" and resolve to Unknown.
func (d *Driver) typeName(oid uint32) string {
	if t, ok := d.types.TypeForOID(oid); ok {
		return t.Name
	}
	return fmt.Sprintf("oid:%d", oid)
}

func (d *Driver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.queryTimeout)
}

// --- error mapping ---

// PostgreSQL SQLSTATE codes that get a specific kind.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrInsufficientPrivilege = "42501"
	pgErrUndefinedTable        = "42P01"
	pgErrInvalidSchemaName     = "3F000"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// No rows
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			// class 08: connection exception
			kind = errs.ErrKindConnectionFailed
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "28":
			// class 28: invalid authorization
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgErrInsufficientPrivilege:
			kind = errs.ErrKindPermissionDenied
		case pgErr.Code == pgErrUndefinedTable, pgErr.Code == pgErrInvalidSchemaName:
			kind = errs.ErrKindNotFound
		}
		return errs.Wrap(kind, fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
