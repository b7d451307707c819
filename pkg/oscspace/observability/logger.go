// Package observability provides the logging, metrics, and tracing used by
// the address space.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds address space context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "mixer")
//	enriched.Info("ready") // includes space
func EnrichLogger(logger *slog.Logger, space string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("space", space))
}

// LogBind logs a handler being bound to an address or pattern.
func LogBind(logger *slog.Logger, key, kind, handler string) {
	if logger == nil {
		return
	}
	logger.Debug("handler bound",
		slog.String("address", key),
		slog.String("kind", kind),
		slog.String("handler", handler),
	)
}

// LogUnbind logs a handler being removed from an address or pattern.
func LogUnbind(logger *slog.Logger, key, kind, handler string) {
	if logger == nil {
		return
	}
	logger.Debug("handler unbound",
		slog.String("address", key),
		slog.String("kind", kind),
		slog.String("handler", handler),
	)
}

// LogRejected logs a registration that was refused.
func LogRejected(logger *slog.Logger, key, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("registration rejected",
		slog.String("address", key),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogDispatch logs a routed message.
func LogDispatch(logger *slog.Logger, address, route string, handlers int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("message dispatched",
		slog.String("address", address),
		slog.String("route", route),
		slog.Int("handlers", handlers),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogUnmatched logs a message with no subscriber.
func LogUnmatched(logger *slog.Logger, address string) {
	if logger == nil {
		return
	}
	logger.Debug("no method for address",
		slog.String("address", address),
	)
}

// LogPromotion logs a pattern match being cached under a literal address.
func LogPromotion(logger *slog.Logger, address string, patterns int) {
	if logger == nil {
		return
	}
	logger.Debug("address promoted",
		slog.String("address", address),
		slog.Int("patterns", patterns),
	)
}

// LogInvalidated logs promoted addresses dropped after a pattern change.
func LogInvalidated(logger *slog.Logger, pattern string, dropped int) {
	if logger == nil || dropped == 0 {
		return
	}
	logger.Debug("promoted addresses invalidated",
		slog.String("pattern", pattern),
		slog.Int("dropped", dropped),
	)
}

// LogHandlerError logs a failed dispatch.
func LogHandlerError(logger *slog.Logger, address string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("address", address),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
