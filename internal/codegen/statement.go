package codegen

import (
	"strings"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/schema"
)

// segment is either literal SQL text or a placeholder bound to a column.
type segment struct {
	text   string
	column *schema.Column
}

// Statement is a SQL statement template: literal SQL interleaved with
// placeholders for column values. Each target renders it into its own
// interpolation syntax.
type Statement struct {
	segments []segment
}

func (s *Statement) lit(text string) {
	if n := len(s.segments); n > 0 && s.segments[n-1].column == nil {
		s.segments[n-1].text += text
		return
	}
	s.segments = append(s.segments, segment{text: text})
}

func (s *Statement) ref(c *schema.Column) {
	s.segments = append(s.segments, segment{column: c})
}

// Placeholders returns the columns referenced by the template, in order.
func (s Statement) Placeholders() []*schema.Column {
	var out []*schema.Column
	for _, seg := range s.segments {
		if seg.column != nil {
			out = append(out, seg.column)
		}
	}
	return out
}

// String renders the template with {Property} placeholders, e.g.
// "DELETE FROM users WHERE id = {Id};".
func (s Statement) String() string {
	var sb strings.Builder
	for _, seg := range s.segments {
		if seg.column != nil {
			sb.WriteString("{" + seg.column.NormalizedName + "}")
			continue
		}
		sb.WriteString(seg.text)
	}
	return sb.String()
}

// Statements holds the three templates emitted per table.
type Statements struct {
	Update Statement
	Insert Statement
	Delete Statement
}

// BuildStatements builds the update, insert and delete templates for t. Rows
// are matched on the table's identity column.
func BuildStatements(t *schema.Table, d database.Dialect) (*Statements, error) {
	id, err := t.IdentityColumn()
	if err != nil {
		return nil, err
	}
	table := database.QuoteIfNeeded(d, t.Name)
	idCol := database.QuoteIfNeeded(d, id.Name)

	var st Statements

	st.Update.lit("UPDATE " + table + " SET ")
	for i, c := range t.Columns {
		if i > 0 {
			st.Update.lit(", ")
		}
		st.Update.lit(database.QuoteIfNeeded(d, c.Name) + " = ")
		st.Update.ref(c)
	}
	st.Update.lit(" WHERE " + idCol + " = ")
	st.Update.ref(id)
	st.Update.lit(";")

	st.Insert.lit("INSERT INTO " + table + " VALUES (")
	for i, c := range t.Columns {
		if i > 0 {
			st.Insert.lit(", ")
		}
		st.Insert.ref(c)
	}
	st.Insert.lit(");")

	st.Delete.lit("DELETE FROM " + table + " WHERE " + idCol + " = ")
	st.Delete.ref(id)
	st.Delete.lit(";")

	return &st, nil
}
