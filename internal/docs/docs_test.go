package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

func shopModel(t *testing.T) *schema.Model {
	t.Helper()
	rows := []schema.ColumnRow{
		{Table: "Users", Column: "id", DeclaredType: "int(11)"},
		{Table: "Users", Column: "name", DeclaredType: "varchar(255)"},
		{Table: "orders", Column: "id", DeclaredType: "bigint(20)"},
		{Table: "orders", Column: "state", DeclaredType: "enum('new'|'paid')"},
	}
	m, err := schema.Group(rows, "")
	require.NoError(t, err)
	return m
}

func pathsOf(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Path
	}
	return out
}

func TestEmit_Layout(t *testing.T) {
	pages, err := Emit(shopModel(t), "Shop", Options{WikiDir: "wiki"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"wiki/index.md",
		"wiki/Shop/Shop.md",
		"wiki/Shop/tables/Users.md",
		"wiki/Shop/tables/orders.md",
	}, pathsOf(pages))

	assert.Equal(t, Append, pages[0].Mode)
	for _, p := range pages[1:] {
		assert.Equal(t, Overwrite, p.Mode, p.Path)
	}
}

func TestEmit_Content(t *testing.T) {
	pages, err := Emit(shopModel(t), "Shop", Options{})
	require.NoError(t, err)

	assert.Equal(t, "* [[Shop|shop/shop]]\n", string(pages[0].Content))
	assert.Equal(t,
		"[[Home|index]] / Shop\n\n"+
			"* [[Users|shop/tables/users]]\n"+
			"* [[Orders|shop/tables/orders]]\n",
		string(pages[1].Content))
	assert.Equal(t,
		"[[Home|index]] / [[Shop|shop/shop]] / Users\n\n"+
			"Column | Type | Description\n"+
			"--- | --- | ---\n"+
			"Id | int(11) | \n"+
			"Name | varchar(255) | \n",
		string(pages[2].Content))
	assert.Contains(t, string(pages[3].Content), `State | enum('new'\|'paid') | `)
}

func TestEmit_DisplayNameOverridesTextOnly(t *testing.T) {
	pages, err := Emit(shopModel(t), "Shop", Options{DisplayName: "Web Shop"})
	require.NoError(t, err)

	assert.Equal(t, "index.md", pages[0].Path)
	assert.Equal(t, "Shop/Shop.md", pages[1].Path)
	assert.Equal(t, "* [[Web Shop|shop/shop]]\n", string(pages[0].Content))
	assert.Contains(t, string(pages[1].Content), "[[Home|index]] / Web Shop\n")
	assert.Contains(t, string(pages[2].Content), "[[Web Shop|shop/shop]] / Users")
}

func TestEmit_EmptyDatabaseName(t *testing.T) {
	_, err := Emit(shopModel(t), "", Options{})
	assert.True(t, errs.IsEmptyIdentifier(err))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "append", Append.String())
	assert.Equal(t, "overwrite", Overwrite.String())
}
