package wrapped

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRecorder records scan, substitution and storage metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordScan records one scan; err is non-nil when a strict scan failed.
	RecordScan(ctx context.Context, duration time.Duration, elements, placeholders int, err error)

	// RecordSubstitution records one formatting pass.
	RecordSubstitution(ctx context.Context, duration time.Duration, resolved, unresolved int)

	// RecordStorage records a template storage operation.
	RecordStorage(ctx context.Context, operation string, err error)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

// RecordScan implements MetricsRecorder.
func (NoopMetrics) RecordScan(context.Context, time.Duration, int, int, error) {}

// RecordSubstitution implements MetricsRecorder.
func (NoopMetrics) RecordSubstitution(context.Context, time.Duration, int, int) {}

// RecordStorage implements MetricsRecorder.
func (NoopMetrics) RecordStorage(context.Context, string, error) {}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	scans         metric.Int64Counter
	scanLatency   metric.Float64Histogram
	scanErrors    metric.Int64Counter
	placeholders  metric.Int64Histogram
	substitutions metric.Int64Counter
	unresolved    metric.Int64Histogram
	storageOps    metric.Int64Counter
}

// newOtelMetrics creates the instruments on the global meter provider.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(MeterName)

	scans, err := meter.Int64Counter(MetricScanCount,
		metric.WithDescription(MetricDescScanCount),
	)
	if err != nil {
		return nil, err
	}

	scanLatency, err := meter.Float64Histogram(MetricScanLatency,
		metric.WithDescription(MetricDescScanLatency),
		metric.WithUnit(MetricUnitMilliseconds),
	)
	if err != nil {
		return nil, err
	}

	scanErrors, err := meter.Int64Counter(MetricScanErrors,
		metric.WithDescription(MetricDescScanErrors),
	)
	if err != nil {
		return nil, err
	}

	placeholders, err := meter.Int64Histogram(MetricPlaceholders,
		metric.WithDescription(MetricDescPlaceholders),
	)
	if err != nil {
		return nil, err
	}

	substitutions, err := meter.Int64Counter(MetricSubstitutionCount,
		metric.WithDescription(MetricDescSubstitution),
	)
	if err != nil {
		return nil, err
	}

	unresolved, err := meter.Int64Histogram(MetricUnresolved,
		metric.WithDescription(MetricDescUnresolved),
	)
	if err != nil {
		return nil, err
	}

	storageOps, err := meter.Int64Counter(MetricStorageOps,
		metric.WithDescription(MetricDescStorageOps),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		scans:         scans,
		scanLatency:   scanLatency,
		scanErrors:    scanErrors,
		placeholders:  placeholders,
		substitutions: substitutions,
		unresolved:    unresolved,
		storageOps:    storageOps,
	}, nil
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. Configure the provider before the first call:
//
//	otel.SetMeterProvider(yourProvider)
//
// If instrument creation fails a no-op recorder is returned and the
// failure is logged on logger (which may be nil).
func NewMetricsRecorder(logger *zap.Logger) MetricsRecorder {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	if defaultMetricsErr != nil {
		if logger != nil {
			logger.Warn(LogMsgMetricsFallback, zap.Error(defaultMetricsErr))
		}
		return NoopMetrics{}
	}
	return defaultMetrics
}

// RecordScan implements MetricsRecorder.
func (m *otelMetrics) RecordScan(ctx context.Context, duration time.Duration, elements, placeholders int, err error) {
	attrs := metric.WithAttributes(attribute.Bool(MetricAttrSuccess, err == nil))

	m.scans.Add(ctx, 1, attrs)
	m.scanLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.scanErrors.Add(ctx, 1)
		return
	}
	m.placeholders.Record(ctx, int64(placeholders))
}

// RecordSubstitution implements MetricsRecorder.
func (m *otelMetrics) RecordSubstitution(ctx context.Context, _ time.Duration, _, unresolved int) {
	m.substitutions.Add(ctx, 1)
	m.unresolved.Record(ctx, int64(unresolved))
}

// RecordStorage implements MetricsRecorder.
func (m *otelMetrics) RecordStorage(ctx context.Context, operation string, err error) {
	m.storageOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String(MetricAttrOperation, operation),
		attribute.Bool(MetricAttrSuccess, err == nil),
	))
}
