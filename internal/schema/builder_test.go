package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbgen/internal/errs"
)

func usersRows() []ColumnRow {
	return []ColumnRow{
		{Table: "users", Column: "id", DeclaredType: "int"},
		{Table: "users", Column: "name", DeclaredType: "varchar(255)"},
	}
}

func usersProbe() map[string][]ProbeColumn {
	return map[string][]ProbeColumn{
		"users": {
			{Name: "id", Ordinal: 1, DriverType: "INT"},
			{Name: "name", Ordinal: 2, DriverType: "VARCHAR"},
		},
	}
}

func TestBuild_UsersTable(t *testing.T) {
	m, err := Build(usersRows(), usersProbe(), BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	users := m.Table("users")
	require.NotNil(t, users)
	require.Len(t, users.Columns, 2)

	id := users.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "Id", id.NormalizedName)
	assert.Equal(t, "int", id.RawType)
	assert.Equal(t, "INT", id.DriverType)
	assert.Equal(t, 1, id.Ordinal)
	assert.Equal(t, Integer, id.Type)

	name := users.Column("name")
	require.NotNil(t, name)
	assert.Equal(t, "varchar(255)", name.RawType)
	assert.Equal(t, String, name.Type)

	require.NoError(t, m.Validate())
}

func TestBuild_TinyIntOneIsBoolean(t *testing.T) {
	rows := []ColumnRow{
		{Table: "flags", Column: "id", DeclaredType: "int(11)"},
		{Table: "flags", Column: "active", DeclaredType: "tinyint(1)"},
		{Table: "flags", Column: "level", DeclaredType: "tinyint(4)"},
	}
	probes := map[string][]ProbeColumn{
		"flags": {
			{Name: "id", Ordinal: 1, DriverType: "INT"},
			{Name: "active", Ordinal: 2, DriverType: "TINYINT"},
			{Name: "level", Ordinal: 3, DriverType: "TINYINT"},
		},
	}

	m, err := Build(rows, probes, BuildOptions{})
	require.NoError(t, err)
	flags := m.Table("flags")
	assert.Equal(t, Boolean, flags.Column("active").Type)
	assert.Equal(t, Integer, flags.Column("level").Type)
}

func TestGroup_PreservesFirstSeenOrder(t *testing.T) {
	rows := []ColumnRow{
		{Table: "orders", Column: "id", DeclaredType: "int"},
		{Table: "customers", Column: "id", DeclaredType: "int"},
		{Table: "orders", Column: "total", DeclaredType: "decimal(10,2)"},
		{Table: "customers", Column: "email", DeclaredType: "varchar(120)"},
		{Table: "addresses", Column: "line1", DeclaredType: "text"},
	}

	m, err := Group(rows, "")
	require.NoError(t, err)

	var names []string
	for _, tbl := range m.Tables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"orders", "customers", "addresses"}, names)

	orders := m.Table("orders")
	assert.Equal(t, "id", orders.Columns[0].Name)
	assert.Equal(t, "total", orders.Columns[1].Name)
	assert.Equal(t, 2, orders.Columns[1].Ordinal)
	for _, c := range orders.Columns {
		assert.Equal(t, Unknown, c.Type)
	}
}

func TestGroup_EmptyResultSet(t *testing.T) {
	_, err := Group(nil, "")
	require.Error(t, err)
	assert.True(t, errs.IsEmptyResultSet(err))

	_, err = Group(nil, "missing")
	require.Error(t, err)
	assert.True(t, errs.IsEmptyResultSet(err))
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "table not found")
}

func TestGroup_EmptyColumnName(t *testing.T) {
	_, err := Group([]ColumnRow{{Table: "t", Column: ""}}, "")
	require.Error(t, err)
	assert.True(t, errs.IsEmptyIdentifier(err))
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name   string
		probes map[string][]ProbeColumn
		column string
	}{
		{
			name:   "missing table probe",
			probes: map[string][]ProbeColumn{},
		},
		{
			name: "column missing from probe",
			probes: map[string][]ProbeColumn{
				"users": {{Name: "id", Ordinal: 1, DriverType: "INT"}},
			},
			column: "name",
		},
		{
			name: "unmapped driver type",
			probes: map[string][]ProbeColumn{
				"users": {
					{Name: "id", Ordinal: 1, DriverType: "INT"},
					{Name: "name", Ordinal: 2, DriverType: "GEOMETRY"},
				},
			},
			column: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(usersRows(), tt.probes, BuildOptions{})
			require.Error(t, err)
			assert.True(t, errs.IsUnresolvedColumnType(err))

			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "users", e.Table)
			assert.Equal(t, tt.column, e.Column)
		})
	}
}

func TestResolve_Collation(t *testing.T) {
	probes := map[string][]ProbeColumn{
		"users": {
			{Name: "ID", Ordinal: 1, DriverType: "INT"},
			{Name: "Name", Ordinal: 2, DriverType: "VARCHAR"},
		},
	}

	_, err := Build(usersRows(), probes, BuildOptions{Collation: CaseSensitive})
	require.Error(t, err)
	assert.True(t, errs.IsUnresolvedColumnType(err))

	m, err := Build(usersRows(), probes, BuildOptions{Collation: CaseInsensitive})
	require.NoError(t, err)
	assert.Equal(t, Integer, m.Table("users").Columns[0].Type)
}

func TestBuild_Idempotent(t *testing.T) {
	a, err := Build(usersRows(), usersProbe(), BuildOptions{})
	require.NoError(t, err)
	b, err := Build(usersRows(), usersProbe(), BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, a.Tables(), b.Tables())
}

func TestTable_IdentityColumn(t *testing.T) {
	tbl := &Table{Name: "empty"}
	_, err := tbl.IdentityColumn()
	require.Error(t, err)
	assert.True(t, errs.IsMissingIdentityColumn(err))

	tbl.Columns = []*Column{{Name: "a"}, {Name: "b"}}
	c, err := tbl.IdentityColumn()
	require.NoError(t, err)
	assert.Equal(t, "a", c.Name)

	tbl.IdentityColumnIndex = 1
	c, err = tbl.IdentityColumn()
	require.NoError(t, err)
	assert.Equal(t, "b", c.Name)

	tbl.IdentityColumnIndex = 5
	_, err = tbl.IdentityColumn()
	assert.True(t, errs.IsMissingIdentityColumn(err))
}

func TestModel_ValidateUnknown(t *testing.T) {
	m, err := Group(usersRows(), "")
	require.NoError(t, err)

	err = m.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsUnresolvedColumnType(err))
}
