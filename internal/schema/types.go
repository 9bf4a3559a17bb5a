// Package schema holds the in-memory schema model that every emitter reads:
// tables in first-seen order, each with its ordered columns and their
// resolved semantic types.
package schema

import (
	"github.com/koustreak/dbgen/internal/errs"
)

// SemanticType is the small, target-language-neutral set of column types the
// emitters understand.
type SemanticType int

const (
	Unknown SemanticType = iota
	Integer
	Long
	Decimal
	Boolean
	String
	DateTime
	Bytes
)

func (t SemanticType) String() string {
	switch t {
	case Integer:
		return "Integer"
	case Long:
		return "Long"
	case Decimal:
		return "Decimal"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case DateTime:
		return "DateTime"
	case Bytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// ColumnRow is one row of the column listing: the information-schema style
// query returns them ordered by table, then ordinal position.
type ColumnRow struct {
	Table        string
	Column       string
	DeclaredType string
}

// ProbeColumn is the metadata a zero-row probe reports for one result column.
type ProbeColumn struct {
	Name       string
	Ordinal    int    // 1-based position in the probe result
	DriverType string // driver-native type tag, e.g. "VARCHAR" or "int4"
}

// Column describes a single column in a table.
type Column struct {
	Name           string
	NormalizedName string
	RawType        string // declared type, kept for documentation only
	DriverType     string // tag reported by the probe
	Ordinal        int
	Type           SemanticType
}

// Table describes a table and its columns in introspection order.
type Table struct {
	Name    string
	Columns []*Column

	// IdentityColumnIndex selects the column used to match rows in update and
	// delete templates. It is positional and defaults to the first column; it
	// is not verified against the table's primary key.
	IdentityColumnIndex int
}

// IdentityColumn returns the column update/delete templates match rows by.
func (t *Table) IdentityColumn() (*Column, error) {
	if len(t.Columns) == 0 {
		return nil, errs.New(errs.ErrKindMissingIdentityColumn, "table has no columns").At(t.Name, "")
	}
	if t.IdentityColumnIndex < 0 || t.IdentityColumnIndex >= len(t.Columns) {
		return nil, errs.Newf(errs.ErrKindMissingIdentityColumn,
			"identity column index %d out of range", t.IdentityColumnIndex).At(t.Name, "")
	}
	return t.Columns[t.IdentityColumnIndex], nil
}

// Column returns the column with the given raw name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Model is the full introspected schema. Tables keep first-seen order.
type Model struct {
	tables []*Table
	index  map[string]*Table
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{index: make(map[string]*Table)}
}

// Tables returns the tables in first-seen order.
func (m *Model) Tables() []*Table {
	return m.tables
}

// Table returns the table with the given name, or nil.
func (m *Model) Table(name string) *Table {
	return m.index[name]
}

// Len reports the number of tables.
func (m *Model) Len() int {
	return len(m.tables)
}

// tableFor returns the named table, creating it at the end of the order on
// first sight.
func (m *Model) tableFor(name string) *Table {
	if t, ok := m.index[name]; ok {
		return t
	}
	t := &Table{Name: name}
	m.tables = append(m.tables, t)
	m.index[name] = t
	return t
}
