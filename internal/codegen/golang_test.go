package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

func TestGo_StructOnly(t *testing.T) {
	f, err := GoEmitter{}.Emit(usersTable(), Options{Package: "shop"})
	require.NoError(t, err)
	parseGo(t, f.Content)

	src := string(f.Content)
	assert.Equal(t, "users.go", f.Name)
	assert.Contains(t, src, "// Code generated by dbgen. DO NOT EDIT.")
	assert.Contains(t, src, "package shop")
	assert.Contains(t, src, "type Users struct {")
	assert.Contains(t, src, `db:"name"`)
	assert.NotContains(t, src, "NewUsers")
	assert.NotContains(t, src, "fmt")

	support, err := GoEmitter{}.Support(Options{})
	require.NoError(t, err)
	assert.Empty(t, support)
}

func TestGo_StatementTemplates(t *testing.T) {
	opts := Options{EmitStatementTemplates: true, Dialect: database.DialectMySQL}
	f, err := GoEmitter{}.Emit(usersTable(), opts)
	require.NoError(t, err)
	parseGo(t, f.Content)

	src := string(f.Content)
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, "func NewUsers(r RecordReader) *Users {")
	assert.Contains(t, src, `m.Id = r.Int32("id")`)
	assert.Contains(t, src, `m.Name = r.String("name")`)
	assert.Contains(t, src, `return fmt.Sprintf("UPDATE users SET id = %v, name = %v WHERE id = %v;", m.Id, m.Name, m.Id)`)
	assert.Contains(t, src, `return fmt.Sprintf("INSERT INTO users VALUES (%v, %v);", m.Id, m.Name)`)
	assert.Contains(t, src, `return fmt.Sprintf("DELETE FROM users WHERE id = %v;", m.Id)`)
	assert.Contains(t, src, "func (m *Users) DeleteQuery() string {")
}

func TestGo_AllTypes(t *testing.T) {
	f, err := GoEmitter{}.Emit(allTypesTable(), Options{EmitStatementTemplates: true})
	require.NoError(t, err)
	parseGo(t, f.Content)

	src := string(f.Content)
	assert.Contains(t, src, `import (`)
	assert.Contains(t, src, `"time"`)
	assert.Contains(t, src, "time.Time")
	assert.Contains(t, src, "[]byte")
	assert.Contains(t, src, `m.Joined = r.Time("joined")`)
	assert.Contains(t, src, `m.Avatar = r.Bytes("avatar")`)
	assert.Contains(t, src, `m.Balance = r.Float64("balance")`)
	assert.Contains(t, src, `m.Active = r.Bool("active")`)
	assert.Contains(t, src, `m.Id = r.Int64("id")`)
}

func TestGo_SupportRecord(t *testing.T) {
	files, err := GoEmitter{}.Support(Options{EmitStatementTemplates: true, Package: "shop"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	parseGo(t, files[0].Content)

	src := string(files[0].Content)
	assert.Equal(t, "zz_dbgen_record.go", files[0].Name)
	assert.Contains(t, src, "type RecordReader interface {")
	assert.Contains(t, src, "Time(column string) time.Time")
	assert.Contains(t, src, "Bytes(column string) []byte")
}

func TestGo_InvalidIdentifierFailsToRender(t *testing.T) {
	tbl := usersTable()
	tbl.Name = "order items"

	_, err := GoEmitter{}.Emit(tbl, Options{})
	require.Error(t, err)
}

func TestGo_FileNames(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"users", "users.go"},
		{"record", "record.go"},
		{"latest", "latest.go"},
		{"my_test_data", "my_test_data.go"},
		{"orders_test", "orders_test_gen.go"},
		{"events_windows", "events_windows_gen.go"},
		{"jobs_linux_amd64", "jobs_linux_amd64_gen.go"},
		{"_tmp", "gen_tmp.go"},
		{"sales.2024", "sales_2024.go"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, goFileName(tt.table))
		})
	}
}

func TestGo_RecordTableKeepsItsOwnFile(t *testing.T) {
	tbl := usersTable()
	tbl.Name = "record"
	opts := Options{EmitStatementTemplates: true}

	require.NoError(t, GoEmitter{}.Check([]*schema.Table{tbl}, opts))

	f, err := GoEmitter{}.Emit(tbl, opts)
	require.NoError(t, err)
	support, err := GoEmitter{}.Support(opts)
	require.NoError(t, err)
	require.Len(t, support, 1)

	assert.NotEqual(t, support[0].Name, f.Name)
	assert.Contains(t, string(f.Content), "type Record struct {")
}

func TestGo_Check(t *testing.T) {
	named := func(name string) *schema.Table {
		tbl := usersTable()
		tbl.Name = name
		return tbl
	}
	templates := Options{EmitStatementTemplates: true}

	t.Run("support interface", func(t *testing.T) {
		err := GoEmitter{}.Check([]*schema.Table{named("users"), named("recordReader")}, templates)
		require.Error(t, err)
		assert.True(t, errs.IsInvalidInput(err))

		var e *errs.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "recordReader", e.Table)

		assert.NoError(t, GoEmitter{}.Check([]*schema.Table{named("recordReader")}, Options{}))
	})

	t.Run("same type name", func(t *testing.T) {
		err := GoEmitter{}.Check([]*schema.Table{named("Users"), named("users")}, Options{})
		require.Error(t, err)
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("type against constructor", func(t *testing.T) {
		err := GoEmitter{}.Check([]*schema.Table{named("x"), named("NewX")}, templates)
		require.Error(t, err)

		assert.NoError(t, GoEmitter{}.Check([]*schema.Table{named("x"), named("NewX")}, Options{}))
	})
}
