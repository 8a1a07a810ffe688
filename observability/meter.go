package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/depkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names recorded by the registry.
const (
	MetricLookups         = "di.lookups"
	MetricFactoryCalls    = "di.factory.calls"
	MetricFactoryDuration = "di.factory.duration"
	MetricOverridesActive = "di.overrides.active"
	MetricPromotions      = "di.promotions"
	MetricMigratedEntries = "di.migrated.entries"

	LookupResultHit  = "hit"
	LookupResultMiss = "miss"
)

// RegistryMetrics holds the instruments recorded by a dependency registry.
type RegistryMetrics struct {
	lookups         metric.Int64Counter
	factoryCalls    metric.Int64Counter
	factoryDuration metric.Float64Histogram
	overridesActive metric.Int64UpDownCounter
	promotions      metric.Int64Counter
	migrated        metric.Int64Counter
}

// NewRegistryMetrics creates the registry instruments on the given meter.
func NewRegistryMetrics(meter metric.Meter) (*RegistryMetrics, error) {
	lookups, err := meter.Int64Counter(MetricLookups,
		metric.WithDescription("Dependency lookups by cache result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricLookups, err)
	}

	factoryCalls, err := meter.Int64Counter(MetricFactoryCalls,
		metric.WithDescription("Number of dependency factory invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFactoryCalls, err)
	}

	factoryDuration, err := meter.Float64Histogram(MetricFactoryDuration,
		metric.WithDescription("Duration of dependency factory invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricFactoryDuration, err)
	}

	overridesActive, err := meter.Int64UpDownCounter(MetricOverridesActive,
		metric.WithDescription("Number of currently installed overrides"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricOverridesActive, err)
	}

	promotions, err := meter.Int64Counter(MetricPromotions,
		metric.WithDescription("Number of shared registry promotions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPromotions, err)
	}

	migrated, err := meter.Int64Counter(MetricMigratedEntries,
		metric.WithDescription("Cache entries moved during promotions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricMigratedEntries, err)
	}

	return &RegistryMetrics{
		lookups:         lookups,
		factoryCalls:    factoryCalls,
		factoryDuration: factoryDuration,
		overridesActive: overridesActive,
		promotions:      promotions,
		migrated:        migrated,
	}, nil
}

// RecordLookup records a cache lookup.
func (m *RegistryMetrics) RecordLookup(ctx context.Context, hit bool) {
	result := LookupResultMiss
	if hit {
		result = LookupResultHit
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrResult, result)))
}

// RecordConstruct records one factory invocation for a feature.
func (m *RegistryMetrics) RecordConstruct(ctx context.Context, feature string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrFeature, feature))
	m.factoryCalls.Add(ctx, 1, attrs)
	m.factoryDuration.Record(ctx, duration.Seconds(), attrs)
}

// OverridesChanged adjusts the active override gauge by delta.
func (m *RegistryMetrics) OverridesChanged(ctx context.Context, delta int) {
	if delta == 0 {
		return
	}
	m.overridesActive.Add(ctx, int64(delta))
}

// RecordPromotion records a promotion that moved the given number of entries.
func (m *RegistryMetrics) RecordPromotion(ctx context.Context, moved int) {
	m.promotions.Add(ctx, 1)
	m.migrated.Add(ctx, int64(moved))
}
