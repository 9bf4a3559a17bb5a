package database

import (
	"strings"
)

// Dialect controls identifier quoting and placeholder style.
type Dialect int

const (
	// DialectPostgres uses "ident" quoting and $1, $2, … placeholders.
	DialectPostgres Dialect = iota

	// DialectMySQL uses `ident` quoting and ? placeholders.
	DialectMySQL

	// DialectSQLite uses "ident" quoting and ? placeholders.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// reserved holds keywords that must be quoted when used as identifiers in
// any of the supported dialects.
var reserved = map[string]bool{
	"ADD": true, "ALL": true, "ALTER": true, "AND": true, "AS": true,
	"ASC": true, "BETWEEN": true, "BY": true, "CASE": true, "CHECK": true,
	"COLUMN": true, "CONSTRAINT": true, "CREATE": true, "CROSS": true,
	"DEFAULT": true, "DELETE": true, "DESC": true, "DISTINCT": true,
	"DROP": true, "ELSE": true, "END": true, "EXISTS": true, "FOR": true,
	"FOREIGN": true, "FROM": true, "FULL": true, "GROUP": true,
	"HAVING": true, "IN": true, "INDEX": true, "INNER": true,
	"INSERT": true, "INTO": true, "IS": true, "JOIN": true, "KEY": true,
	"LEFT": true, "LIKE": true, "LIMIT": true, "NOT": true, "NULL": true,
	"ON": true, "OR": true, "ORDER": true, "OUTER": true, "PRIMARY": true,
	"REFERENCES": true, "RIGHT": true, "SELECT": true, "SET": true,
	"TABLE": true, "THEN": true, "TO": true, "UNION": true, "UNIQUE": true,
	"UPDATE": true, "USER": true, "USING": true, "VALUES": true,
	"WHEN": true, "WHERE": true, "WITH": true,
}

// QuoteIdent wraps a SQL identifier in the dialect's quote characters,
// doubling any embedded quote character.
func QuoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteIfNeeded returns name verbatim when it is a plain identifier and not
// a reserved word; otherwise it is quoted with QuoteIdent.
func QuoteIfNeeded(d Dialect, name string) string {
	if isPlainIdent(name) && !reserved[strings.ToUpper(name)] {
		return name
	}
	return QuoteIdent(d, name)
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ProbeQuery returns the zero-row SELECT used to read a table's driver-native
// column metadata.
func ProbeQuery(d Dialect, table string) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(QuoteIdent(d, table))
	sb.WriteString(" LIMIT 0")
	return sb.String()
}
