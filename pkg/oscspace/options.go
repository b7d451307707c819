package oscspace

import (
	"log/slog"

	"github.com/randalmurphal/oscspace/pkg/oscspace/observability"
)

const (
	// DefaultCapacity is the initial size of the exact address table.
	DefaultCapacity = 16

	// DefaultPatternCapacity is the initial size of the pattern table.
	DefaultPatternCapacity = 8
)

// spaceConfig holds AddressSpace construction settings.
type spaceConfig struct {
	capacity        int
	patternCapacity int
	promote         bool
	name            string
	logger          *slog.Logger
	metrics         observability.MetricsRecorder
	spans           observability.SpanManager
}

func defaultSpaceConfig() spaceConfig {
	return spaceConfig{
		capacity:        DefaultCapacity,
		patternCapacity: DefaultPatternCapacity,
		promote:         true,
		metrics:         observability.NoopMetrics{},
		spans:           observability.NoopSpanManager{},
	}
}

// Option configures an AddressSpace.
type Option func(*spaceConfig)

// WithCapacity sets the initial size of the exact address table.
// Default: 16
func WithCapacity(n int) Option {
	return func(c *spaceConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithPatternCapacity sets the initial size of the pattern table.
// The table doubles when full.
// Default: 8
func WithPatternCapacity(n int) Option {
	return func(c *spaceConfig) {
		if n > 0 {
			c.patternCapacity = n
		}
	}
}

// WithPromotion controls whether Dispatch caches pattern matches under the
// concrete address so later messages skip the pattern scan.
// Default: true
func WithPromotion(enabled bool) Option {
	return func(c *spaceConfig) {
		c.promote = enabled
	}
}

// WithLogger enables structured logging of registration and dispatch.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	space := oscspace.New(oscspace.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *spaceConfig) {
		c.logger = logger
	}
}

// WithName labels every log record from the space with a "space" attribute,
// which tells apart several address spaces sharing one logger.
func WithName(name string) Option {
	return func(c *spaceConfig) {
		c.name = name
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *spaceConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder installs a custom metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *spaceConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry tracing using the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *spaceConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}
