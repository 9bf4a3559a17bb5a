// Package config loads the generation configuration from defaults, an
// optional YAML file, environment variables and command-line overrides.
// The result is validated once and then only read.
package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/dbgen/internal/codegen"
	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/errs"
	"github.com/koustreak/dbgen/internal/filestore"
	"github.com/koustreak/dbgen/internal/logger"
	"github.com/koustreak/dbgen/internal/naming"
)

// Sink backends.
const (
	SinkFS    = "fs"
	SinkMinIO = "minio"
)

const redacted = "xxxxx"

// Config is the full configuration of a dbgen run.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Generate GenerateConfig `yaml:"generate"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
}

// DatabaseConfig selects the database to introspect. DSN, when set, wins
// over the individual connection fields.
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Name           string        `yaml:"name"` // sqlite: path of the database file
	Schema         string        `yaml:"schema"`
	SSLMode        string        `yaml:"sslmode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
}

// GenerateConfig controls what is emitted.
type GenerateConfig struct {
	Table              string `yaml:"table"`
	Target             string `yaml:"target"`
	StatementTemplates bool   `yaml:"statement_templates"`
	Documentation      bool   `yaml:"documentation"`
	DisplayName        string `yaml:"display_name"`
	Package            string `yaml:"package"`
	Workers            int    `yaml:"workers"`
}

// OutputConfig controls where files are written. Dir and WikiDir are
// relative to the sink root.
type OutputConfig struct {
	Sink    string      `yaml:"sink"`
	Root    string      `yaml:"root"`
	Dir     string      `yaml:"dir"`
	WikiDir string      `yaml:"wiki_dir"`
	MinIO   MinIOConfig `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing else is given. It
// mirrors the classic MySQL tool defaults: root@127.0.0.1:3306.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         string(database.DriverMySQL),
			Host:           "127.0.0.1",
			User:           "root",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Generate: GenerateConfig{
			Target:  string(codegen.TargetCSharp),
			Workers: 4,
		},
		Output: OutputConfig{
			Sink:    SinkFS,
			Root:    ".",
			WikiDir: "wiki",
			MinIO:   MinIOConfig{Bucket: "dbgen"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load returns Default overlaid with the YAML file at path, if path is not
// empty, and then with DBGEN_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file "+path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides secrets and connection settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("DBGEN_DRIVER", &c.Database.Driver)
	set("DBGEN_DSN", &c.Database.DSN)
	set("DBGEN_HOST", &c.Database.Host)
	set("DBGEN_USER", &c.Database.User)
	set("DBGEN_PASSWORD", &c.Database.Password)
	set("DBGEN_DATABASE", &c.Database.Name)
	set("DBGEN_MINIO_ENDPOINT", &c.Output.MinIO.Endpoint)
	set("DBGEN_MINIO_ACCESS_KEY", &c.Output.MinIO.AccessKey)
	set("DBGEN_MINIO_SECRET_KEY", &c.Output.MinIO.SecretKey)
	set("DBGEN_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("DBGEN_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
}

// Finalize fills the defaults that depend on other fields and validates the
// result. Call it once, after every override has been applied.
func (c *Config) Finalize() error {
	if c.Database.Port == 0 {
		switch database.Driver(c.Database.Driver) {
		case database.DriverMySQL:
			c.Database.Port = 3306
		case database.DriverPostgres:
			c.Database.Port = 5432
		}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		c.Output.Dir = c.DatabaseName()
	}
	if c.Generate.Package == "" {
		c.Generate.Package = naming.PackageName(c.DatabaseName())
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch database.Driver(c.Database.Driver) {
	case database.DriverMySQL, database.DriverPostgres, database.DriverSQLite:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported driver %q", c.Database.Driver)
	}
	if c.Database.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "database name is required")
	}
	if c.Database.DSN == "" && c.Database.Driver != string(database.DriverSQLite) {
		if c.Database.Host == "" {
			return errs.New(errs.ErrKindInvalidInput, "database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return errs.Newf(errs.ErrKindInvalidInput, "invalid port %d", c.Database.Port)
		}
	}
	if _, err := codegen.New(codegen.Target(c.Generate.Target)); err != nil {
		return err
	}
	if c.Generate.Workers < 1 {
		return errs.Newf(errs.ErrKindInvalidInput, "workers must be at least 1, got %d", c.Generate.Workers)
	}
	switch c.Output.Sink {
	case SinkFS:
		if c.Output.Root == "" {
			return errs.New(errs.ErrKindInvalidInput, "output root is required")
		}
	case SinkMinIO:
		if c.Output.MinIO.Endpoint == "" {
			return errs.New(errs.ErrKindInvalidInput, "minio endpoint is required")
		}
		if c.Output.MinIO.Bucket == "" {
			return errs.New(errs.ErrKindInvalidInput, "minio bucket is required")
		}
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported sink %q", c.Output.Sink)
	}
	return nil
}

// DatabaseName is the name generated files and pages are filed under. For
// SQLite it is the database file name without directory and extension.
func (c *Config) DatabaseName() string {
	if c.Database.Driver == string(database.DriverSQLite) {
		base := filepath.Base(c.Database.Name)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return c.Database.Name
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	return c.dsn(c.Database.Password)
}

// RedactedDSN is DSN with the password masked, for logs.
func (c *Config) RedactedDSN() string {
	d := c.Database
	if d.DSN == "" {
		if d.Password == "" {
			return c.dsn("")
		}
		return c.dsn(redacted)
	}
	switch database.Driver(d.Driver) {
	case database.DriverMySQL:
		mc, err := mysql.ParseDSN(d.DSN)
		if err != nil {
			return redacted
		}
		if mc.Passwd != "" {
			mc.Passwd = redacted
		}
		return mc.FormatDSN()
	case database.DriverPostgres:
		u, err := url.Parse(d.DSN)
		if err != nil || u.Scheme == "" {
			// key=value form: mask the password field
			return redactKeyValue(d.DSN)
		}
		return u.Redacted()
	default:
		return d.DSN
	}
}

func (c *Config) dsn(password string) string {
	d := c.Database
	if d.DSN != "" {
		return d.DSN
	}
	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	switch database.Driver(d.Driver) {
	case database.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = d.Name
		return mc.FormatDSN()
	case database.DriverPostgres:
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + d.Name}
		if password != "" {
			u.User = url.UserPassword(d.User, password)
		} else if d.User != "" {
			u.User = url.User(d.User)
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
		}
		return u.String()
	default:
		return d.Name
	}
}

func redactKeyValue(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=" + redacted
		}
	}
	return strings.Join(fields, " ")
}

// DatabaseConfig returns the connection settings for the introspector.
func (c *Config) DatabaseConfig() *database.Config {
	cfg := database.DefaultConfig(c.DSN())
	cfg.Driver = database.Driver(c.Database.Driver)
	cfg.Schema = c.Database.Schema
	if c.Database.ConnectTimeout > 0 {
		cfg.ConnectTimeout = c.Database.ConnectTimeout
	}
	if c.Database.QueryTimeout > 0 {
		cfg.QueryTimeout = c.Database.QueryTimeout
	}
	return cfg
}

// FilestoreConfig returns the object store settings of the minio sink.
func (c *Config) FilestoreConfig() *filestore.Config {
	m := c.Output.MinIO
	cfg := filestore.DefaultConfig(m.Endpoint, m.AccessKey, m.SecretKey)
	cfg.UseSSL = m.UseSSL
	cfg.Region = m.Region
	if m.Bucket != "" {
		cfg.Bucket = m.Bucket
	}
	return cfg
}

// LoggerConfig returns the logger settings; output goes to stderr.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Log.Level != "" {
		cfg.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	return cfg
}
