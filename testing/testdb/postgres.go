// Package testdb runs repository tests against a throwaway PostgreSQL container.
package testdb

import (
	"context"
	"strings"
	"testing"
	"time"

	"labconnect/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

const image = "postgres:16-alpine"

type Postgres struct {
	DB  *bun.DB
	DSN string
}

// Start launches a container for the calling test and tears it down with t.Cleanup.
// Skipped with -short.
//
//	pg := testdb.Start(t)
//	pg.Migrate(t, app.Models()...)
//	pg.Truncate(t, "courses", "users")
func Start(t *testing.T) *Postgres {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("labconnect_test"),
		postgres.WithUsername("labconnect"),
		postgres.WithPassword("labconnect"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.NewWithDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn) })

	return &Postgres{DB: conn, DSN: dsn}
}

// Migrate creates the tables of models in order.
func (p *Postgres) Migrate(t *testing.T, models ...interface{}) {
	t.Helper()
	require.NoError(t, db.RunMigrations(context.Background(), p.DB, models...), "migrate")
}

// Truncate empties tables and resets their id sequences.
func (p *Postgres) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	_, err := p.DB.ExecContext(context.Background(),
		"TRUNCATE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err, "truncate %v", tables)
}
