// Package generate runs one generation: read the schema, resolve column
// types, emit classes and, optionally, documentation pages.
package generate

import (
	"context"
	"errors"
	"path"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/koustreak/dbgen/internal/codegen"
	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/docs"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/logger"
	"github.com/koustreak/dbgen/internal/schema"
	"github.com/koustreak/dbgen/internal/sink"
)

// State is the progress of a run.
type State int

const (
	Idle State = iota
	SchemaAcquired
	TypesResolved
	ClassesEmitted
	DocsEmitted
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SchemaAcquired:
		return "schema_acquired"
	case TypesResolved:
		return "types_resolved"
	case ClassesEmitted:
		return "classes_emitted"
	case DocsEmitted:
		return "docs_emitted"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options is the immutable input of a run.
type Options struct {
	// DatabaseName names the documentation tree.
	DatabaseName string

	// Table restricts the run to one table.
	Table string

	EmitStatementTemplates bool
	EmitDocumentation      bool

	// DisplayName replaces the database name in documentation link text.
	DisplayName string

	Target  codegen.Target
	Package string

	// OutputDir and WikiDir are sink paths.
	OutputDir string
	WikiDir   string

	// Workers bounds concurrent class rendering. Values below 1 mean 1.
	Workers int
}

// Result describes a finished run, successful or not.
type Result struct {
	RunID string
	State State

	// Tables is the number of tables in the model.
	Tables int

	// Files lists the sink paths written, in write order.
	Files []string
}

// Generator runs generations against one database and one sink. It holds
// no per-run state and may be reused.
type Generator struct {
	db    database.Introspector
	out   sink.Sink
	log   *logger.Logger
	newID func() string
}

// New returns a Generator. A nil log discards output.
func New(db database.Introspector, out sink.Sink, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{db: db, out: out, log: log, newID: uuid.NewString}
}

// run carries the state of a single Run call.
type run struct {
	*Result
	opts    Options
	log     *logger.Logger
	emitter codegen.Emitter
}

func (r *run) enter(s State) {
	r.State = s
	r.log.With().Str("state", s.String()).Logger().Debug("state changed")
}

func (r *run) fail(err error) (*Result, error) {
	r.State = Failed
	r.log.ErrorWith("generation failed", err, map[string]interface{}{"files_written": len(r.Files)})
	return r.Result, err
}

// Run executes one generation. The first error aborts the run; files
// already written stay in the sink. A database without any columns is a
// successful no-op unless a table filter was given, in which case the run
// fails with EmptyResultSet.
func (g *Generator) Run(ctx context.Context, opts Options) (*Result, error) {
	r := &run{
		Result: &Result{RunID: g.newID(), State: Idle},
		opts:   opts,
	}
	r.log = g.log.Run(r.RunID)
	if r.opts.Workers < 1 {
		r.opts.Workers = 1
	}

	emitter, err := codegen.New(opts.Target)
	if err != nil {
		return r.fail(err)
	}
	r.emitter = emitter
	if opts.EmitDocumentation && opts.DatabaseName == "" {
		return r.fail(errs.New(errs.ErrKindEmptyIdentifier, "database name is required for documentation"))
	}

	r.log.InfoWith("generation started", map[string]interface{}{
		"database": opts.DatabaseName,
		"table":    opts.Table,
		"target":   string(emitter.Target()),
	})

	model, err := g.acquire(ctx, r)
	if err != nil {
		if errs.IsEmptyResultSet(err) && opts.Table == "" {
			r.log.Warn("database has no tables, nothing to generate")
			r.enter(Done)
			return r.Result, nil
		}
		return r.fail(err)
	}
	r.Tables = model.Len()
	r.enter(SchemaAcquired)

	if err := g.resolve(ctx, r, model); err != nil {
		return r.fail(err)
	}
	r.enter(TypesResolved)

	if err := g.emitClasses(ctx, r, model); err != nil {
		return r.fail(err)
	}
	r.enter(ClassesEmitted)

	if opts.EmitDocumentation {
		if err := g.emitDocs(ctx, r, model); err != nil {
			return r.fail(err)
		}
		r.enter(DocsEmitted)
	}

	r.enter(Done)
	r.log.InfoWith("generation finished", map[string]interface{}{
		"tables": r.Tables,
		"files":  len(r.Files),
	})
	return r.Result, nil
}

func (g *Generator) acquire(ctx context.Context, r *run) (*schema.Model, error) {
	rows, err := g.db.ListColumns(ctx, r.opts.Table)
	if err != nil {
		return nil, err
	}
	r.log.Debugf("read %d column rows", len(rows))
	return schema.Group(rows, r.opts.Table)
}

func (g *Generator) resolve(ctx context.Context, r *run, model *schema.Model) error {
	probes := make(map[string][]schema.ProbeColumn, model.Len())
	for _, t := range model.Tables() {
		p, err := g.db.Probe(ctx, t.Name)
		if err != nil {
			return atTable(err, t.Name)
		}
		probes[t.Name] = p
	}
	if err := model.Resolve(probes, database.Collation(g.db.Dialect())); err != nil {
		return err
	}
	return model.Validate()
}

// emitClasses renders every table on a bounded worker pool, then writes the
// files one by one in table order.
func (g *Generator) emitClasses(ctx context.Context, r *run, model *schema.Model) error {
	tables := model.Tables()
	codeOpts := codegen.Options{
		EmitStatementTemplates: r.opts.EmitStatementTemplates,
		Dialect:                g.db.Dialect(),
		Package:                r.opts.Package,
	}

	if err := r.emitter.Check(tables, codeOpts); err != nil {
		return err
	}

	files := make([]codegen.File, len(tables))
	failures := make([]error, len(tables))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.Workers)
	for i, t := range tables {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			files[i], failures[i] = r.emitter.Emit(t, codeOpts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "class rendering interrupted", err)
	}
	for _, err := range failures {
		if err != nil {
			return err
		}
	}

	support, err := r.emitter.Support(codeOpts)
	if err != nil {
		return err
	}

	outputs := make([]output, 0, len(files)+len(support))
	for i, f := range files {
		outputs = append(outputs, output{path: path.Join(r.opts.OutputDir, f.Name), content: f.Content, table: tables[i].Name})
	}
	for _, f := range support {
		outputs = append(outputs, output{path: path.Join(r.opts.OutputDir, f.Name), content: f.Content})
	}
	if err := checkPaths(outputs); err != nil {
		return err
	}

	for _, o := range outputs {
		if err := g.write(ctx, r, o.path, o.content, docs.Overwrite); err != nil {
			if o.table != "" {
				return atTable(err, o.table)
			}
			return err
		}
		if o.table != "" {
			r.log.Table(o.table).Debug("class emitted")
		}
	}
	return nil
}

// output is a rendered file waiting to be written. table is empty for
// support files.
type output struct {
	path    string
	content []byte
	table   string
}

// checkPaths fails when two outputs would be written to the same path, so no
// class is silently overwritten.
func checkPaths(outputs []output) error {
	owner := make(map[string]string, len(outputs))
	for _, o := range outputs {
		prev, ok := owner[o.path]
		if !ok {
			owner[o.path] = o.table
			continue
		}
		if o.table == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "support file %s would overwrite the class of %s", o.path, prev).At(prev, "")
		}
		return errs.Newf(errs.ErrKindInvalidInput, "tables %s and %s are both written to %s", prev, o.table, o.path).At(o.table, "")
	}
	return nil
}

func (g *Generator) emitDocs(ctx context.Context, r *run, model *schema.Model) error {
	pages, err := docs.Emit(model, r.opts.DatabaseName, docs.Options{
		WikiDir:     r.opts.WikiDir,
		DisplayName: r.opts.DisplayName,
	})
	if err != nil {
		return err
	}
	for _, p := range pages {
		if err := g.write(ctx, r, p.Path, p.Content, p.Mode); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) write(ctx context.Context, r *run, p string, content []byte, mode docs.Mode) error {
	var err error
	if mode == docs.Append {
		err = g.out.Append(ctx, p, content)
	} else {
		err = g.out.Write(ctx, p, content)
	}
	if err != nil {
		if errs.KindOf(err) != errs.ErrKindSinkWriteFailure {
			err = errs.Wrap(errs.ErrKindSinkWriteFailure, "write "+p, err)
		}
		return err
	}
	r.Files = append(r.Files, p)
	return nil
}

func atTable(err error, table string) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Table == "" {
		e.Table = table
	}
	return err
}
