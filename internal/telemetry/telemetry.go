// Package telemetry sets up OpenTelemetry metric export for the peer.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/recera/quadplot/internal/config"
)

// DefaultInterval is used when the config leaves the push interval unset.
const DefaultInterval = 15 * time.Second

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(ctx context.Context) error

// Setup installs a meter provider pushing to cfg.OTLPEndpoint and returns a
// meter named after service. Without an endpoint the global provider is left
// alone and its meter is returned, which records nothing unless someone else
// installed a provider.
func Setup(ctx context.Context, cfg *config.MetricsConfig, service string, logger *slog.Logger) (metric.Meter, ShutdownFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "telemetry")

	if cfg == nil || cfg.OTLPEndpoint == "" {
		logger.Debug("metric export disabled")
		return otel.Meter(service), func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(interval),
		)),
	)
	otel.SetMeterProvider(provider)
	logger.Info("metric export enabled", "endpoint", cfg.OTLPEndpoint, "interval", interval)

	shutdown := func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to shutdown metric provider", "error", err)
			return err
		}
		return nil
	}
	return provider.Meter(service), shutdown, nil
}
