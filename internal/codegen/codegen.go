// Package codegen renders one source file per table from the resolved schema
// model. Two targets exist: C# classes and Go structs.
package codegen

import (
	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/schema"
)

const generatedHeader = "Code generated by dbgen. DO NOT EDIT."

// Target selects the language classes are emitted in.
type Target string

const (
	TargetCSharp Target = "csharp"
	TargetGo     Target = "go"
)

// Options controls a single emission. It is passed by value and never
// mutated by an Emitter.
type Options struct {
	// EmitStatementTemplates adds the row-reading constructor and the
	// update, insert and delete statement templates.
	EmitStatementTemplates bool

	// Dialect decides how identifiers that need quoting are quoted inside
	// statement templates.
	Dialect database.Dialect

	// Package is the Go package name of emitted files. Ignored by the C#
	// target.
	Package string
}

// File is one rendered output unit. Name is relative to the output
// directory.
type File struct {
	Name    string
	Content []byte
}

// Emitter renders tables into source files for one target language.
type Emitter interface {
	Target() Target

	// Emit renders the class for t. It fails with MissingIdentityColumn for
	// a table without columns and UnresolvedColumnType when a column type
	// is still Unknown.
	Emit(t *schema.Table, opts Options) (File, error)

	// Check runs before any table is rendered and fails with InvalidInput
	// when the tables' generated declarations would clash with each other
	// or with a support file.
	Check(tables []*schema.Table, opts Options) error

	// Support returns files the emitted classes depend on, if any.
	Support(opts Options) ([]File, error)
}

// New returns the Emitter for target. An empty target means C#.
func New(target Target) (Emitter, error) {
	switch target {
	case TargetCSharp, "":
		return CSharpEmitter{}, nil
	case TargetGo:
		return GoEmitter{}, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown target %q", target)
	}
}

// checkTable enforces the emission preconditions shared by every target.
func checkTable(t *schema.Table) error {
	if _, err := t.IdentityColumn(); err != nil {
		return err
	}
	for _, c := range t.Columns {
		if c.Type == schema.Unknown {
			return errs.New(errs.ErrKindUnresolvedColumnType, "column type is unresolved").At(t.Name, c.Name)
		}
	}
	return nil
}
