package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/dbgen/internal/codegen"
	"github.com/koustreak/dbgen/internal/config"
	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/database/mysql"
	"github.com/koustreak/dbgen/internal/database/postgres"
	"github.com/koustreak/dbgen/internal/database/sqlite"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/filestore/minio"
	"github.com/koustreak/dbgen/internal/generate"
	"github.com/koustreak/dbgen/internal/logger"
	"github.com/koustreak/dbgen/internal/sink"
)

func newGenerateCmd(rf *rootFlags) *cobra.Command {
	var c config.Config

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Introspect a database and write classes and wiki pages",
		Example: `  dbgen generate -d shop -u root -p secret -g -m
  dbgen generate --driver postgres -i db.internal -d billing -t invoices --target go
  dbgen generate --driver sqlite -d ./data/shop.db -m --display-name "Web Shop"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			applyGenerateFlags(cmd, cfg, &c)
			if err := cfg.Finalize(); err != nil {
				return err
			}
			return runGenerate(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Database.Driver, "driver", "", "mysql, postgres or sqlite")
	f.StringVar(&c.Database.DSN, "dsn", "", "full connection string, overrides the connection flags")
	f.StringVarP(&c.Database.Host, "ip", "i", "", "database host (default 127.0.0.1)")
	f.IntVarP(&c.Database.Port, "port", "n", 0, "database port (default 3306 for mysql, 5432 for postgres)")
	f.StringVarP(&c.Database.User, "user", "u", "", "database user (default root)")
	f.StringVarP(&c.Database.Password, "password", "p", "", "database password")
	f.StringVarP(&c.Database.Name, "database", "d", "", "database name, or file path for sqlite")
	f.StringVar(&c.Database.Schema, "schema", "", "postgres schema (default public)")
	f.StringVarP(&c.Generate.Table, "table", "t", "", "generate a single table")
	f.BoolVarP(&c.Generate.StatementTemplates, "generate-constructor", "g", false, "emit the row constructor and statement templates")
	f.BoolVarP(&c.Generate.Documentation, "markup-pages", "m", false, "emit wiki pages")
	f.StringVar(&c.Generate.DisplayName, "display-name", "", "database name shown in wiki link text")
	f.StringVar(&c.Generate.Target, "target", "", "csharp or go")
	f.StringVar(&c.Generate.Package, "package", "", "package name of generated Go files")
	f.IntVar(&c.Generate.Workers, "workers", 0, "concurrent class renders")
	f.StringVar(&c.Output.Sink, "sink", "", "fs or minio")
	f.StringVar(&c.Output.Root, "root", "", "root directory of the fs sink")
	f.StringVarP(&c.Output.Dir, "out", "o", "", "class output directory (default database name)")
	f.StringVar(&c.Output.WikiDir, "wiki-dir", "", "wiki directory (default wiki)")

	return cmd
}

// applyGenerateFlags copies every flag the user set onto cfg.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config, c *config.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	str("driver", &cfg.Database.Driver, c.Database.Driver)
	str("dsn", &cfg.Database.DSN, c.Database.DSN)
	str("ip", &cfg.Database.Host, c.Database.Host)
	str("user", &cfg.Database.User, c.Database.User)
	str("password", &cfg.Database.Password, c.Database.Password)
	str("database", &cfg.Database.Name, c.Database.Name)
	str("schema", &cfg.Database.Schema, c.Database.Schema)
	str("table", &cfg.Generate.Table, c.Generate.Table)
	str("display-name", &cfg.Generate.DisplayName, c.Generate.DisplayName)
	str("target", &cfg.Generate.Target, c.Generate.Target)
	str("package", &cfg.Generate.Package, c.Generate.Package)
	str("sink", &cfg.Output.Sink, c.Output.Sink)
	str("root", &cfg.Output.Root, c.Output.Root)
	str("out", &cfg.Output.Dir, c.Output.Dir)
	str("wiki-dir", &cfg.Output.WikiDir, c.Output.WikiDir)

	if f.Changed("port") {
		cfg.Database.Port = c.Database.Port
	}
	if f.Changed("workers") {
		cfg.Generate.Workers = c.Generate.Workers
	}
	if f.Changed("generate-constructor") {
		cfg.Generate.StatementTemplates = c.Generate.StatementTemplates
	}
	if f.Changed("markup-pages") {
		cfg.Generate.Documentation = c.Generate.Documentation
	}
}

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	log := logger.New(cfg.LoggerConfig())

	log.With().
		Str("driver", cfg.Database.Driver).
		Str("dsn", cfg.RedactedDSN()).
		Logger().
		Info("connecting")

	db, err := openIntrospector(ctx, cfg.DatabaseConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := generate.New(db, out, log).Run(ctx, generate.Options{
		DatabaseName:           cfg.DatabaseName(),
		Table:                  cfg.Generate.Table,
		EmitStatementTemplates: cfg.Generate.StatementTemplates,
		EmitDocumentation:      cfg.Generate.Documentation,
		DisplayName:            cfg.Generate.DisplayName,
		Target:                 codegen.Target(cfg.Generate.Target),
		Package:                cfg.Generate.Package,
		OutputDir:              cfg.Output.Dir,
		WikiDir:                cfg.Output.WikiDir,
		Workers:                cfg.Generate.Workers,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), successLine(cfg, res))
	return nil
}

func successLine(cfg *config.Config, res *generate.Result) string {
	if res.Tables == 0 {
		return fmt.Sprintf("Nothing to generate: %s has no tables.", cfg.DatabaseName())
	}
	line := fmt.Sprintf("Successfully generated %d classes for %s in %s", res.Tables, cfg.DatabaseName(), cfg.Output.Dir)
	if cfg.Generate.Documentation {
		line += fmt.Sprintf(", wiki pages in %s", cfg.Output.WikiDir)
	}
	return line + "."
}

func openIntrospector(ctx context.Context, cfg *database.Config) (database.Introspector, error) {
	var (
		db  database.Introspector
		err error
	)
	switch cfg.Driver {
	case database.DriverMySQL:
		db, err = mysql.New(ctx, cfg)
	case database.DriverPostgres:
		db, err = postgres.New(ctx, cfg)
	case database.DriverSQLite:
		db, err = sqlite.New(ctx, cfg)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// openReader opens the configured sink for reading only. An object bucket
// that does not exist is reported as NotFound rather than created.
func openReader(ctx context.Context, cfg *config.Config) (sink.Reader, error) {
	if cfg.Output.Sink != config.SinkMinIO {
		return sink.NewFS(cfg.Output.Root), nil
	}
	store, err := minio.New(ctx, cfg.FilestoreConfig())
	if err != nil {
		return nil, err
	}
	r, err := sink.OpenObject(ctx, store, cfg.Output.MinIO.Bucket, cfg.Output.MinIO.Prefix)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func openSink(ctx context.Context, cfg *config.Config) (sink.Store, error) {
	if cfg.Output.Sink != config.SinkMinIO {
		return sink.NewFS(cfg.Output.Root), nil
	}
	store, err := minio.New(ctx, cfg.FilestoreConfig())
	if err != nil {
		return nil, err
	}
	out, err := sink.NewObject(ctx, store, cfg.Output.MinIO.Bucket, cfg.Output.MinIO.Prefix)
	if err != nil {
		return nil, err
	}
	return out, nil
}
