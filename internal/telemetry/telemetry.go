// Package telemetry wires the OpenTelemetry meter provider for labconnect.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labconnect/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const exportInterval = 15 * time.Second

type Telemetry struct {
	provider *sdkmetric.MeterProvider
	Metrics  *metrics.Metrics
}

// Init builds the domain metrics. When endpoint is set they are pushed over
// OTLP/gRPC; otherwise the global no-op provider stays in place.
func Init(ctx context.Context, serviceName, serviceVersion, endpoint string, logger *slog.Logger) (*Telemetry, error) {
	t := &Telemetry{}

	if endpoint == "" {
		logger.Info("metrics export disabled, no otlp endpoint configured")
	} else {
		provider, err := newMeterProvider(ctx, serviceName, serviceVersion, endpoint)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(provider)
		t.provider = provider
		logger.Info("exporting metrics over otlp", "endpoint", endpoint, "interval", exportInterval)
	}

	m, err := metrics.New(serviceName, logger)
	if err != nil {
		if shutdownErr := t.Shutdown(ctx, logger); shutdownErr != nil {
			logger.Warn("meter provider shutdown failed", "error", shutdownErr)
		}
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	t.Metrics = m
	return t, nil
}

func newMeterProvider(ctx context.Context, serviceName, serviceVersion, endpoint string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	), nil
}

// Shutdown flushes pending metrics. No-op when export is disabled.
func (t *Telemetry) Shutdown(ctx context.Context, logger *slog.Logger) error {
	if t == nil || t.provider == nil {
		return nil
	}
	logger.Info("flushing metrics")
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
