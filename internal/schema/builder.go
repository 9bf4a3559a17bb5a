package schema

import (
	"strings"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/naming"
)

// Collation controls how column names from the listing are matched against
// the names a probe reports.
type Collation int

const (
	// CaseSensitive matches names byte for byte (PostgreSQL, SQLite).
	CaseSensitive Collation = iota
	// CaseInsensitive matches names ignoring case (MySQL).
	CaseInsensitive
)

func (c Collation) equal(a, b string) bool {
	if c == CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// BuildOptions configures Build.
type BuildOptions struct {
	// TableFilter is the single table that was requested, if any. It only
	// changes the message of an EmptyResultSet error.
	TableFilter string
	Collation   Collation
}

// Build groups the column listing into a model and resolves every column's
// semantic type from its table's probe result.
func Build(rows []ColumnRow, probes map[string][]ProbeColumn, opts BuildOptions) (*Model, error) {
	m, err := Group(rows, opts.TableFilter)
	if err != nil {
		return nil, err
	}
	if err := m.Resolve(probes, opts.Collation); err != nil {
		return nil, err
	}
	return m, nil
}

// Group is the first build phase: a stable group-by over the column listing
// that keeps both table and column order. Column types stay Unknown.
func Group(rows []ColumnRow, tableFilter string) (*Model, error) {
	if len(rows) == 0 {
		if tableFilter != "" {
			return nil, errs.New(errs.ErrKindEmptyResultSet, "table not found").At(tableFilter, "")
		}
		return nil, errs.New(errs.ErrKindEmptyResultSet, "database has no tables or columns")
	}

	m := NewModel()
	for _, r := range rows {
		if r.Table == "" {
			return nil, errs.New(errs.ErrKindEmptyIdentifier, "column row without table name").At("", r.Column)
		}
		normalized, err := naming.Normalize(r.Column)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindEmptyIdentifier, "column row without column name", err).At(r.Table, "")
		}
		t := m.tableFor(r.Table)
		t.Columns = append(t.Columns, &Column{
			Name:           r.Column,
			NormalizedName: normalized,
			RawType:        r.DeclaredType,
			Ordinal:        len(t.Columns) + 1,
		})
	}
	return m, nil
}

// Resolve is the second build phase: every column is joined with its table's
// probe metadata and the driver tag is narrowed to a semantic type. The join
// key is the ordinal position, confirmed by name; when the positions disagree
// the column is looked up by name alone. The first column that cannot be
// resolved fails the whole model.
func (m *Model) Resolve(probes map[string][]ProbeColumn, collation Collation) error {
	for _, t := range m.tables {
		probe, ok := probes[t.Name]
		if !ok {
			return errs.New(errs.ErrKindUnresolvedColumnType, "no probe result for table").At(t.Name, "")
		}
		for _, c := range t.Columns {
			pc, ok := findProbeColumn(probe, c, collation)
			if !ok {
				return errs.New(errs.ErrKindUnresolvedColumnType, "column missing from probe result").At(t.Name, c.Name)
			}
			st := ResolveColumn(pc.DriverType, c.RawType)
			if st == Unknown {
				return errs.Newf(errs.ErrKindUnresolvedColumnType, "unmapped driver type %q", pc.DriverType).At(t.Name, c.Name)
			}
			c.DriverType = pc.DriverType
			c.Type = st
		}
	}
	return nil
}

func findProbeColumn(probe []ProbeColumn, c *Column, collation Collation) (ProbeColumn, bool) {
	if i := c.Ordinal - 1; i >= 0 && i < len(probe) {
		if pc := probe[i]; pc.Ordinal == c.Ordinal && collation.equal(pc.Name, c.Name) {
			return pc, true
		}
	}
	for _, pc := range probe {
		if collation.equal(pc.Name, c.Name) {
			return pc, true
		}
	}
	return ProbeColumn{}, false
}

// Validate checks the invariants emission relies on: every table has an
// identity column and no column is left Unknown.
func (m *Model) Validate() error {
	for _, t := range m.tables {
		if _, err := t.IdentityColumn(); err != nil {
			return err
		}
		for _, c := range t.Columns {
			if c.Type == Unknown {
				return errs.New(errs.ErrKindUnresolvedColumnType, "column type is unresolved").At(t.Name, c.Name)
			}
		}
	}
	return nil
}
