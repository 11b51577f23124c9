package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"labconnect/internal/config"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Pool defaults applied when the config leaves a value at zero.
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
)

// New opens the connection pool described by cfg and verifies it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	conn, err := NewWithDSN(ctx, DSN(cfg))
	if err != nil {
		return nil, err
	}

	pool := conn.DB
	pool.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, defaultMaxOpenConns))
	pool.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, defaultMaxIdleConns))
	pool.SetConnMaxLifetime(secondsOr(cfg.ConnMaxLifetime, defaultConnMaxLifetime))
	pool.SetConnMaxIdleTime(secondsOr(cfg.ConnMaxIdleTime, defaultConnMaxIdleTime))

	slog.Info("postgres pool ready",
		"host", cfg.Host,
		"database", cfg.DBName,
		"max_open_conns", pool.Stats().MaxOpenConnections,
	)
	return conn, nil
}

func DSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, sslMode)
}

// NewWithDSN connects without pool tuning. Tests use it with container DSNs.
func NewWithDSN(ctx context.Context, dsn string) (*bun.DB, error) {
	conn := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return conn, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func secondsOr(v int, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}

func Close(db *bun.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Warn("closing postgres pool", "error", err)
	}
}

// foreignKeyer is implemented by models whose tables reference other tables.
type foreignKeyer interface {
	ForeignKeys() []string
}

// RunMigrations creates the tables of models in the given order.
// Referenced tables must come before the tables referencing them.
func RunMigrations(ctx context.Context, db *bun.DB, models ...interface{}) error {
	for _, model := range models {
		q := db.NewCreateTable().
			Model(model).
			IfNotExists()
		if fk, ok := model.(foreignKeyer); ok {
			for _, ref := range fk.ForeignKeys() {
				q = q.ForeignKey(ref)
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	slog.Info("schema up to date", "tables", len(models))
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique_violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Ping is used by readiness checks.
func Ping(ctx context.Context, db bun.IDB) error {
	var one int
	return db.NewRaw("SELECT 1").Scan(ctx, &one)
}
