// Package errs provides the unified error type used across all of dbgen.
//
// Every subsystem (database drivers, schema builder, emitters, sinks) wraps
// its failures into *errs.Error before returning them to callers. Callers use
// the Is* predicates to handle errors without importing driver-specific
// packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.ErrKindTimeout, "probe timed out", pgErr)
//
//	// In the schema builder, attach the failing table/column:
//	return errs.New(errs.ErrKindUnresolvedColumnType, "no probe metadata").At("users", "name")
//
//	// In the CLI, check error kind:
//	if errs.IsEmptyResultSet(err) {
//	    os.Exit(2)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// Generation failures and backend failures (MySQL, Postgres, SQLite, MinIO)
// all map to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown              ErrKind = iota
	ErrKindEmptyIdentifier              // normalizer given a blank name
	ErrKindUnresolvedColumnType         // probe metadata did not yield a usable type
	ErrKindEmptyResultSet               // no tables/columns matched the request
	ErrKindMissingIdentityColumn        // table has no column to match rows by
	ErrKindSinkWriteFailure             // the output sink rejected a write
	ErrKindNotFound                     // no rows, no object, no file
	ErrKindConnectionFailed             // cannot reach the backend
	ErrKindTimeout                      // context deadline / cancellation
	ErrKindQueryFailed                  // SQL or storage operation error
	ErrKindInvalidInput                 // bad arguments or configuration
	ErrKindPermissionDenied             // access denied / auth failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindEmptyIdentifier:
		return "empty_identifier"
	case ErrKindUnresolvedColumnType:
		return "unresolved_column_type"
	case ErrKindEmptyResultSet:
		return "empty_result_set"
	case ErrKindMissingIdentityColumn:
		return "missing_identity_column"
	case ErrKindSinkWriteFailure:
		return "sink_write_failure"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbgen subsystems.
// Table and Column are set when the failure concerns a specific schema
// object, so the CLI can report it in one diagnostic line.
type Error struct {
	Kind    ErrKind
	Message string
	Table   string
	Column  string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] ", e.Kind)
	switch {
	case e.Table != "" && e.Column != "":
		msg += e.Table + "." + e.Column + ": "
	case e.Table != "":
		msg += e.Table + ": "
	}
	msg += e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// At returns the error annotated with the schema object it concerns.
func (e *Error) At(table, column string) *Error {
	e.Table = table
	e.Column = column
	return e
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an *Error with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsEmptyIdentifier reports whether err was caused by a blank identifier.
func IsEmptyIdentifier(err error) bool {
	return KindOf(err) == ErrKindEmptyIdentifier
}

// IsUnresolvedColumnType reports whether a column type could not be determined.
func IsUnresolvedColumnType(err error) bool {
	return KindOf(err) == ErrKindUnresolvedColumnType
}

// IsEmptyResultSet reports whether introspection matched no tables or columns.
func IsEmptyResultSet(err error) bool {
	return KindOf(err) == ErrKindEmptyResultSet
}

// IsMissingIdentityColumn reports whether a table had no identity column.
func IsMissingIdentityColumn(err error) bool {
	return KindOf(err) == ErrKindMissingIdentityColumn
}

// IsSinkWriteFailure reports whether the output sink rejected a write.
func IsSinkWriteFailure(err error) bool {
	return KindOf(err) == ErrKindSinkWriteFailure
}

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown table/bucket, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure
// (SQL execution error, storage I/O error, …).
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
