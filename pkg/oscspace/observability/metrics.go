package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records address space metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records a routed message, the route it took and its duration.
	RecordDispatch(ctx context.Context, route string, durationMs float64)

	// RecordUnmatched records a message with no subscriber.
	RecordUnmatched(ctx context.Context)

	// RecordPatternScan records a linear scan of the pattern table.
	RecordPatternScan(ctx context.Context, patterns int, matched bool)

	// RecordPromotion records a pattern match cached under a literal address.
	RecordPromotion(ctx context.Context)

	// RecordHandlerError records a dispatch where at least one handler failed.
	RecordHandlerError(ctx context.Context, route string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	messages        metric.Int64Counter
	unmatched       metric.Int64Counter
	latency         metric.Float64Histogram
	scans           metric.Int64Counter
	scannedPatterns metric.Int64Histogram
	promotions      metric.Int64Counter
	handlerErrors   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("oscspace")

	messages, err := meter.Int64Counter("oscspace.dispatch.messages",
		metric.WithDescription("Number of messages routed to at least one handler"),
	)
	if err != nil {
		return nil, err
	}

	unmatched, err := meter.Int64Counter("oscspace.dispatch.unmatched",
		metric.WithDescription("Number of messages with no subscriber"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("oscspace.dispatch.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds, handlers included"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	scans, err := meter.Int64Counter("oscspace.pattern.scans",
		metric.WithDescription("Number of pattern table scans"),
	)
	if err != nil {
		return nil, err
	}

	scannedPatterns, err := meter.Int64Histogram("oscspace.pattern.scan_size",
		metric.WithDescription("Live patterns examined per scan"),
	)
	if err != nil {
		return nil, err
	}

	promotions, err := meter.Int64Counter("oscspace.pattern.promotions",
		metric.WithDescription("Number of addresses cached from pattern matches"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("oscspace.handler.errors",
		metric.WithDescription("Number of dispatches with a failing handler"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		messages:        messages,
		unmatched:       unmatched,
		latency:         latency,
		scans:           scans,
		scannedPatterns: scannedPatterns,
		promotions:      promotions,
		handlerErrors:   handlerErrors,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records a routed message.
func (m *otelMetrics) RecordDispatch(ctx context.Context, route string, durationMs float64) {
	attrs := metric.WithAttributes(attribute.String("route", route))
	m.messages.Add(ctx, 1, attrs)
	m.latency.Record(ctx, durationMs, attrs)
}

// RecordUnmatched records a message with no subscriber.
func (m *otelMetrics) RecordUnmatched(ctx context.Context) {
	m.unmatched.Add(ctx, 1)
}

// RecordPatternScan records a pattern table scan.
func (m *otelMetrics) RecordPatternScan(ctx context.Context, patterns int, matched bool) {
	m.scans.Add(ctx, 1, metric.WithAttributes(attribute.Bool("matched", matched)))
	m.scannedPatterns.Record(ctx, int64(patterns))
}

// RecordPromotion records a promoted address.
func (m *otelMetrics) RecordPromotion(ctx context.Context) {
	m.promotions.Add(ctx, 1)
}

// RecordHandlerError records a failed dispatch.
func (m *otelMetrics) RecordHandlerError(ctx context.Context, route string) {
	m.handlerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}
