package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

const csIndent = "    "

// CSharpEmitter renders a public class with auto-properties and, when
// statement templates are on, an IDataRecord constructor and query methods.
type CSharpEmitter struct{}

func (CSharpEmitter) Target() Target { return TargetCSharp }

func (CSharpEmitter) Support(Options) ([]File, error) { return nil, nil }

// Check accepts every model. Class names are the table names, which the
// database already keeps unique.
func (CSharpEmitter) Check([]*schema.Table, Options) error { return nil }

func (CSharpEmitter) Emit(t *schema.Table, opts Options) (File, error) {
	if err := checkTable(t); err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// %s\n\n", generatedHeader)
	buf.WriteString("using System;\n")
	if opts.EmitStatementTemplates {
		buf.WriteString("using System.Data;\n")
	}
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "public class %s\n{\n", t.Name)
	for _, c := range t.Columns {
		typ, err := csType(c.Type)
		if err != nil {
			return File{}, err.At(t.Name, c.Name)
		}
		fmt.Fprintf(&buf, "%spublic %s %s { get; set; }\n", csIndent, typ, c.NormalizedName)
	}

	if opts.EmitStatementTemplates {
		st, err := BuildStatements(t, opts.Dialect)
		if err != nil {
			return File{}, err
		}

		fmt.Fprintf(&buf, "\n%spublic %s(IDataRecord reader)\n%s{\n", csIndent, t.Name, csIndent)
		for _, c := range t.Columns {
			fmt.Fprintf(&buf, "%s%s%s = %s;\n", csIndent, csIndent, c.NormalizedName, csRead(c))
		}
		fmt.Fprintf(&buf, "%s}\n", csIndent)

		writeCSharpQuery(&buf, "UpdateQuery", st.Update)
		writeCSharpQuery(&buf, "InsertQuery", st.Insert)
		writeCSharpQuery(&buf, "DeleteQuery", st.Delete)
	}
	buf.WriteString("}\n")

	return File{Name: t.Name + ".cs", Content: buf.Bytes()}, nil
}

func writeCSharpQuery(buf *bytes.Buffer, name string, st Statement) {
	fmt.Fprintf(buf, "\n%spublic string %s()\n%s{\n", csIndent, name, csIndent)
	fmt.Fprintf(buf, "%s%sreturn %s;\n", csIndent, csIndent, csInterpolated(st))
	fmt.Fprintf(buf, "%s}\n", csIndent)
}

// csInterpolated renders st as a C# interpolated string literal.
func csInterpolated(st Statement) string {
	var sb strings.Builder
	sb.WriteString(`$"`)
	for _, seg := range st.segments {
		if seg.column != nil {
			sb.WriteString("{" + seg.column.NormalizedName + "}")
			continue
		}
		sb.WriteString(csInterpolationEscaper.Replace(seg.text))
	}
	sb.WriteString(`"`)
	return sb.String()
}

var (
	csStringEscaper        = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	csInterpolationEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "{", "{{", "}", "}}")
)

func csType(t schema.SemanticType) (string, *errs.Error) {
	switch t {
	case schema.Integer:
		return "int", nil
	case schema.Long:
		return "long", nil
	case schema.Decimal:
		return "decimal", nil
	case schema.Boolean:
		return "bool", nil
	case schema.String:
		return "string", nil
	case schema.DateTime:
		return "DateTime", nil
	case schema.Bytes:
		return "byte[]", nil
	default:
		return "", errs.New(errs.ErrKindUnresolvedColumnType, "no C# type for column")
	}
}

// csRead is the expression reading c from an IDataRecord named reader.
func csRead(c *schema.Column) string {
	field := `reader["` + csStringEscaper.Replace(c.Name) + `"]`
	switch c.Type {
	case schema.String:
		return field + ".ToString()"
	case schema.Integer:
		return "Convert.ToInt32(" + field + ")"
	case schema.Long:
		return "Convert.ToInt64(" + field + ")"
	case schema.Decimal:
		return "Convert.ToDecimal(" + field + ")"
	case schema.Boolean:
		return "Convert.ToBoolean(" + field + ")"
	case schema.DateTime:
		return "Convert.ToDateTime(" + field + ")"
	default:
		return "(byte[])" + field
	}
}
