package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *testHandler) lastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds space name", func(t *testing.T) {
		h := newTestHandler()
		enriched := EnrichLogger(slog.New(h), "mixer")
		enriched.Info("ready")

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "mixer", record["space"])
		assert.Equal(t, "ready", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "mixer"))
	})
}

func TestLogBind(t *testing.T) {
	h := newTestHandler()
	LogBind(slog.New(h), "/synth/*/freq", "pattern", "freq")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "handler bound", record["msg"])
	assert.Equal(t, "/synth/*/freq", record["address"])
	assert.Equal(t, "pattern", record["kind"])
	assert.Equal(t, "freq", record["handler"])
}

func TestLogUnbind(t *testing.T) {
	h := newTestHandler()
	LogUnbind(slog.New(h), "/synth/1/freq", "address", "freq")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "handler unbound", record["msg"])
	assert.Equal(t, "address", record["kind"])
}

func TestLogRejected(t *testing.T) {
	h := newTestHandler()
	LogRejected(slog.New(h), "bad", "add", errors.New("invalid OSC address"))

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "add", record["operation"])
	assert.Equal(t, "invalid OSC address", record["error"])
}

func TestLogDispatch(t *testing.T) {
	h := newTestHandler()
	LogDispatch(slog.New(h), "/synth/1/freq", "exact", 2, 0.5)

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "message dispatched", record["msg"])
	assert.Equal(t, "exact", record["route"])
	assert.Equal(t, float64(2), record["handlers"])
	assert.Equal(t, 0.5, record["duration_ms"])
}

func TestLogUnmatched(t *testing.T) {
	h := newTestHandler()
	LogUnmatched(slog.New(h), "/nobody/home")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "no method for address", record["msg"])
	assert.Equal(t, "/nobody/home", record["address"])
}

func TestLogPromotion(t *testing.T) {
	h := newTestHandler()
	LogPromotion(slog.New(h), "/foo/bar", 2)

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "address promoted", record["msg"])
	assert.Equal(t, float64(2), record["patterns"])
}

func TestLogInvalidated(t *testing.T) {
	t.Run("logs drops", func(t *testing.T) {
		h := newTestHandler()
		LogInvalidated(slog.New(h), "/foo/*", 3)

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, float64(3), record["dropped"])
	})

	t.Run("silent when nothing dropped", func(t *testing.T) {
		h := newTestHandler()
		LogInvalidated(slog.New(h), "/foo/*", 0)
		assert.Nil(t, h.lastRecord())
	})
}

func TestLogHandlerError(t *testing.T) {
	h := newTestHandler()
	LogHandlerError(slog.New(h), "/synth/1/freq", errors.New("boom"))

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "handler failed", record["msg"])
	assert.Equal(t, "boom", record["error"])
}

func TestNilLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		LogBind(nil, "/a", "address", "h")
		LogUnbind(nil, "/a", "address", "h")
		LogRejected(nil, "/a", "add", errors.New("x"))
		LogDispatch(nil, "/a", "exact", 1, 0)
		LogUnmatched(nil, "/a")
		LogPromotion(nil, "/a", 1)
		LogInvalidated(nil, "/a/*", 1)
		LogHandlerError(nil, "/a", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	d1 := done()
	time.Sleep(5 * time.Millisecond)
	d2 := done()

	assert.GreaterOrEqual(t, d1, 5.0)
	assert.Greater(t, d2, d1)
}
