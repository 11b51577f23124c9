package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DatabaseMetrics tracks repository query latency and the bun connection pool.
type DatabaseMetrics struct {
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
	pool          map[string]metric.Int64ObservableGauge
}

var poolGauges = []struct {
	name string
	desc string
	stat func(sql.DBStats) int
}{
	{"labconnect.db.pool.open", "Open connections in the pool", func(s sql.DBStats) int { return s.OpenConnections }},
	{"labconnect.db.pool.idle", "Idle connections in the pool", func(s sql.DBStats) int { return s.Idle }},
	{"labconnect.db.pool.in_use", "Connections currently serving a query", func(s sql.DBStats) int { return s.InUse }},
	{"labconnect.db.pool.max_open", "Configured connection limit", func(s sql.DBStats) int { return s.MaxOpenConnections }},
}

func NewDatabaseMetrics(meter metric.Meter) (*DatabaseMetrics, error) {
	dm := &DatabaseMetrics{pool: make(map[string]metric.Int64ObservableGauge, len(poolGauges))}

	var err error
	dm.queryDuration, err = meter.Float64Histogram(
		"labconnect.db.query.duration",
		metric.WithDescription("Repository query duration by operation and table"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("query duration histogram: %w", err)
	}

	dm.queryErrors, err = meter.Int64Counter(
		"labconnect.db.query.errors",
		metric.WithDescription("Repository queries that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("query error counter: %w", err)
	}

	for _, g := range poolGauges {
		gauge, err := meter.Int64ObservableGauge(g.name, metric.WithDescription(g.desc), metric.WithUnit("{connection}"))
		if err != nil {
			return nil, fmt.Errorf("%s gauge: %w", g.name, err)
		}
		dm.pool[g.name] = gauge
	}

	return dm, nil
}

// RegisterDB starts observing pool stats of db on every collection.
func (dm *DatabaseMetrics) RegisterDB(db *sql.DB, meter metric.Meter) error {
	instruments := make([]metric.Observable, 0, len(dm.pool))
	for _, gauge := range dm.pool {
		instruments = append(instruments, gauge)
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		for _, g := range poolGauges {
			o.ObserveInt64(dm.pool[g.name], int64(g.stat(stats)))
		}
		return nil
	}, instruments...)
	return err
}

// RecordQuery is called by every repository method. Safe on a nil receiver.
func (dm *DatabaseMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if dm == nil || dm.queryDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	dm.queryDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.queryErrors.Add(ctx, 1, attrs)
	}
}
