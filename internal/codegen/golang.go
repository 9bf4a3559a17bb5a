package codegen

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/naming"
	"github.com/koustreak/dbgen/internal/schema"
)

const (
	defaultGoPackage = "models"
	recordInterface  = "RecordReader"
	recordFile       = "zz_dbgen_record.go"
)

// GoEmitter renders a struct per table with jennifer. With statement
// templates on, every struct also gets a New<Type>(RecordReader) constructor and
// UpdateQuery, InsertQuery and DeleteQuery methods built on fmt.Sprintf.
type GoEmitter struct{}

func (GoEmitter) Target() Target { return TargetGo }

func (GoEmitter) Emit(t *schema.Table, opts Options) (File, error) {
	if err := checkTable(t); err != nil {
		return File{}, err
	}

	f := newGoFile(opts)
	typ := naming.MustNormalize(t.Name)

	fields := make([]jen.Code, 0, len(t.Columns))
	for _, c := range t.Columns {
		fields = append(fields, jen.Id(c.NormalizedName).Add(goType(c.Type)).Tag(map[string]string{"db": c.Name}))
	}
	f.Commentf("%s is a row of the %s table.", typ, t.Name)
	f.Type().Id(typ).Struct(fields...)

	if opts.EmitStatementTemplates {
		st, err := BuildStatements(t, opts.Dialect)
		if err != nil {
			return File{}, err
		}

		body := []jen.Code{jen.Id("m").Op(":=").Op("&").Id(typ).Values()}
		for _, c := range t.Columns {
			body = append(body, jen.Id("m").Dot(c.NormalizedName).Op("=").
				Id("r").Dot(goAccessor(c.Type)).Call(jen.Lit(c.Name)))
		}
		body = append(body, jen.Return(jen.Id("m")))

		f.Line()
		f.Commentf("New%s reads a %s from the current row of r.", typ, typ)
		f.Func().Id("New"+typ).Params(jen.Id("r").Id(recordInterface)).Op("*").Id(typ).Block(body...)

		goQueryMethod(f, typ, "UpdateQuery", st.Update)
		goQueryMethod(f, typ, "InsertQuery", st.Insert)
		goQueryMethod(f, typ, "DeleteQuery", st.Delete)
	}

	content, err := renderGo(f)
	if err != nil {
		return File{}, err.At(t.Name, "")
	}
	return File{Name: goFileName(t.Name), Content: content}, nil
}

// Check fails when two tables would declare the same identifier in the
// package, or when a table would declare the support interface.
func (GoEmitter) Check(tables []*schema.Table, opts Options) error {
	owner := make(map[string]string, len(tables)*2+1)
	if opts.EmitStatementTemplates {
		owner[recordInterface] = ""
	}
	for _, t := range tables {
		typ := naming.MustNormalize(t.Name)
		names := []string{typ}
		if opts.EmitStatementTemplates {
			names = append(names, "New"+typ)
		}
		for _, n := range names {
			prev, ok := owner[n]
			switch {
			case ok && prev == "":
				return errs.Newf(errs.ErrKindInvalidInput, "%s clashes with the generated %s interface", n, recordInterface).At(t.Name, "")
			case ok:
				return errs.Newf(errs.ErrKindInvalidInput, "%s is declared for both %s and %s", n, prev, t.Name).At(t.Name, "")
			}
			owner[n] = t.Name
		}
	}
	return nil
}

// Support returns the file declaring the RecordReader interface the
// generated constructors read rows through.
func (GoEmitter) Support(opts Options) ([]File, error) {
	if !opts.EmitStatementTemplates {
		return nil, nil
	}

	col := func() *jen.Statement { return jen.Id("column").String() }

	f := newGoFile(opts)
	f.Commentf("%s reads typed column values from the current result row.", recordInterface)
	f.Type().Id(recordInterface).Interface(
		jen.Id("String").Params(col()).String(),
		jen.Id("Int32").Params(col()).Int32(),
		jen.Id("Int64").Params(col()).Int64(),
		jen.Id("Float64").Params(col()).Float64(),
		jen.Id("Bool").Params(col()).Bool(),
		jen.Id("Time").Params(col()).Qual("time", "Time"),
		jen.Id("Bytes").Params(col()).Index().Byte(),
	)

	content, err := renderGo(f)
	if err != nil {
		return nil, err
	}
	return []File{{Name: recordFile, Content: content}}, nil
}

// goFileName is the file a table's struct is written to. Dots become
// underscores and names the go tool would read as test files, platform
// files or ignored files are suffixed or prefixed with gen.
func goFileName(table string) string {
	base := strings.ReplaceAll(table, ".", "_")
	if strings.HasPrefix(base, "_") {
		base = "gen" + base
	}
	if i := strings.LastIndexByte(base, '_'); i >= 0 {
		if last := base[i+1:]; last == "test" || knownOS[last] || knownArch[last] {
			base += "_gen"
		}
	}
	return base + ".go"
}

// File name suffixes that act as build constraints.
var (
	knownOS = setOf("aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "js",
		"linux", "nacl", "netbsd", "openbsd", "plan9", "solaris", "wasip1", "windows", "zos")
	knownArch = setOf("386", "amd64", "amd64p32", "arm", "armbe", "arm64", "arm64be", "loong64",
		"mips", "mipsle", "mips64", "mips64le", "mips64p32", "mips64p32le", "ppc", "ppc64", "ppc64le",
		"riscv", "riscv64", "s390", "s390x", "sparc", "sparc64", "wasm")
)

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func newGoFile(opts Options) *jen.File {
	pkg := opts.Package
	if pkg == "" {
		pkg = defaultGoPackage
	}
	f := jen.NewFile(pkg)
	f.HeaderComment(generatedHeader)
	return f
}

func renderGo(f *jen.File) ([]byte, *errs.Error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "generated Go source does not compile", err)
	}
	return buf.Bytes(), nil
}

func goQueryMethod(f *jen.File, typ, name string, st Statement) {
	format, args := goSprintf(st)
	f.Line()
	f.Func().Params(jen.Id("m").Op("*").Id(typ)).Id(name).Params().String().Block(
		jen.Return(jen.Qual("fmt", "Sprintf").Call(append([]jen.Code{jen.Lit(format)}, args...)...)),
	)
}

// goSprintf turns st into a format string with %v verbs and the matching
// field selectors.
func goSprintf(st Statement) (string, []jen.Code) {
	var sb strings.Builder
	var args []jen.Code
	for _, seg := range st.segments {
		if seg.column != nil {
			sb.WriteString("%v")
			args = append(args, jen.Id("m").Dot(seg.column.NormalizedName))
			continue
		}
		sb.WriteString(strings.ReplaceAll(seg.text, "%", "%%"))
	}
	return sb.String(), args
}

func goType(t schema.SemanticType) *jen.Statement {
	switch t {
	case schema.Integer:
		return jen.Int32()
	case schema.Long:
		return jen.Int64()
	case schema.Decimal:
		return jen.Float64()
	case schema.Boolean:
		return jen.Bool()
	case schema.DateTime:
		return jen.Qual("time", "Time")
	case schema.Bytes:
		return jen.Index().Byte()
	default:
		return jen.String()
	}
}

func goAccessor(t schema.SemanticType) string {
	switch t {
	case schema.Integer:
		return "Int32"
	case schema.Long:
		return "Int64"
	case schema.Decimal:
		return "Float64"
	case schema.Boolean:
		return "Bool"
	case schema.DateTime:
		return "Time"
	case schema.Bytes:
		return "Bytes"
	default:
		return "String"
	}
}
