//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/koustreak/dbgen/internal/database"
	"github.com/koustreak/dbgen/internal/schema"
)

func TestDriver_AgainstContainer(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shop"),
		tcpostgres.WithUsername("dbgen"),
		tcpostgres.WithPassword("dbgen"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := database.DefaultConfig(dsn)
	cfg.Driver = database.DriverPostgres
	cfg.ConnectTimeout = 30 * time.Second

	d, err := New(ctx, cfg)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.pool.Exec(ctx, `
		CREATE TABLE users (
			id         integer PRIMARY KEY,
			name       varchar(255) NOT NULL,
			balance    numeric(10,2),
			active     boolean,
			created_at timestamptz,
			avatar     bytea
		)`)
	require.NoError(t, err)

	rows, err := d.ListColumns(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, schema.ColumnRow{Table: "users", Column: "name", DeclaredType: "character varying(255)"}, rows[1])
	assert.Equal(t, "numeric(10,2)", rows[2].DeclaredType)

	probe, err := d.Probe(ctx, "users")
	require.NoError(t, err)

	m, err := schema.Build(rows, map[string][]schema.ProbeColumn{"users": probe}, schema.BuildOptions{})
	require.NoError(t, err)

	var got []schema.SemanticType
	for _, c := range m.Table("users").Columns {
		got = append(got, c.Type)
	}
	assert.Equal(t, []schema.SemanticType{
		schema.Integer, schema.String, schema.Decimal, schema.Boolean, schema.DateTime, schema.Bytes,
	}, got)
}
