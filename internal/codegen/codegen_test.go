package codegen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/naming"
	"github.com/koustreak/dbgen/internal/schema"
)

func column(name string, typ schema.SemanticType) *schema.Column {
	return &schema.Column{Name: name, NormalizedName: naming.MustNormalize(name), Type: typ}
}

func usersTable() *schema.Table {
	return &schema.Table{
		Name: "users",
		Columns: []*schema.Column{
			column("id", schema.Integer),
			column("name", schema.String),
		},
	}
}

func allTypesTable() *schema.Table {
	return &schema.Table{
		Name: "accounts",
		Columns: []*schema.Column{
			column("id", schema.Long),
			column("handle", schema.String),
			column("age", schema.Integer),
			column("balance", schema.Decimal),
			column("active", schema.Boolean),
			column("joined", schema.DateTime),
			column("avatar", schema.Bytes),
		},
	}
}

func TestNew(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)
	assert.Equal(t, TargetCSharp, e.Target())

	e, err = New(TargetGo)
	require.NoError(t, err)
	assert.Equal(t, TargetGo, e.Target())

	_, err = New("rust")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBuildStatements_Users(t *testing.T) {
	st, err := BuildStatements(usersTable(), database.DialectMySQL)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE users SET id = {Id}, name = {Name} WHERE id = {Id};", st.Update.String())
	assert.Equal(t, "INSERT INTO users VALUES ({Id}, {Name});", st.Insert.String())
	assert.Equal(t, "DELETE FROM users WHERE id = {Id};", st.Delete.String())
}

func TestBuildStatements_SingleColumn(t *testing.T) {
	tbl := &schema.Table{Name: "tags", Columns: []*schema.Column{column("id", schema.Integer)}}

	st, err := BuildStatements(tbl, database.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE tags SET id = {Id} WHERE id = {Id};", st.Update.String())
	assert.Equal(t, "INSERT INTO tags VALUES ({Id});", st.Insert.String())
}

func TestBuildStatements_InsertPlaceholderCount(t *testing.T) {
	tbl := allTypesTable()
	st, err := BuildStatements(tbl, database.DialectSQLite)
	require.NoError(t, err)

	placeholders := st.Insert.Placeholders()
	require.Len(t, placeholders, len(tbl.Columns))
	for i, c := range tbl.Columns {
		assert.Same(t, c, placeholders[i])
	}
}

func TestBuildStatements_IdentityColumnIndex(t *testing.T) {
	tbl := usersTable()
	tbl.IdentityColumnIndex = 1

	st, err := BuildStatements(tbl, database.DialectMySQL)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE name = {Name};", st.Delete.String())
}

func TestBuildStatements_QuotesWhenNeeded(t *testing.T) {
	tbl := &schema.Table{
		Name: "order",
		Columns: []*schema.Column{
			column("id", schema.Integer),
			column("ship to", schema.String),
		},
	}

	st, err := BuildStatements(tbl, database.DialectMySQL)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `order` SET id = {Id}, `ship to` = {Ship to} WHERE id = {Id};", st.Update.String())

	st, err = BuildStatements(tbl, database.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "order" WHERE id = {Id};`, st.Delete.String())
}

func TestEmit_Failures(t *testing.T) {
	for _, target := range []Target{TargetCSharp, TargetGo} {
		e, err := New(target)
		require.NoError(t, err)

		t.Run(string(target)+" no columns", func(t *testing.T) {
			_, err := e.Emit(&schema.Table{Name: "empty"}, Options{EmitStatementTemplates: true})
			require.Error(t, err)
			assert.True(t, errs.IsMissingIdentityColumn(err))
		})

		t.Run(string(target)+" unknown type", func(t *testing.T) {
			tbl := usersTable()
			tbl.Columns[1].Type = schema.Unknown

			_, err := e.Emit(tbl, Options{})
			require.Error(t, err)
			assert.True(t, errs.IsUnresolvedColumnType(err))

			var ee *errs.Error
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, "users", ee.Table)
			assert.Equal(t, "name", ee.Column)
		})
	}
}

func TestEmit_Deterministic(t *testing.T) {
	for _, target := range []Target{TargetCSharp, TargetGo} {
		e, err := New(target)
		require.NoError(t, err)
		opts := Options{EmitStatementTemplates: true, Dialect: database.DialectMySQL}

		first, err := e.Emit(allTypesTable(), opts)
		require.NoError(t, err)
		second, err := e.Emit(allTypesTable(), opts)
		require.NoError(t, err)

		assert.Equal(t, first, second, string(target))
	}
}

func TestGoSprintf_EscapesPercent(t *testing.T) {
	tbl := &schema.Table{
		Name:    "rates",
		Columns: []*schema.Column{column("id", schema.Integer), column("pct%", schema.Decimal)},
	}
	st, err := BuildStatements(tbl, database.DialectPostgres)
	require.NoError(t, err)

	format, args := goSprintf(st.Insert)
	assert.Equal(t, "INSERT INTO rates VALUES (%v, %v);", format)
	assert.Len(t, args, 2)

	format, _ = goSprintf(st.Update)
	assert.Equal(t, `UPDATE rates SET id = %v, "pct%%" = %v WHERE id = %v;`, format)
}

func parseGo(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "", src, parser.AllErrors)
	require.NoError(t, err, string(src))
}
