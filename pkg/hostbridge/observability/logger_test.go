package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// captureLogger returns a debug-level logger writing to the buffer.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := EnrichLogger(captureLogger(&buf), "client-1")

	logger.Info("hello")
	assert.Contains(t, buf.String(), "client_id=client-1")
}

func TestEnrichLogger_NilLogger(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "client-1"))
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	LogAttached(logger, "client-1")
	LogRequestSent(logger, "ShowDialogRequest", 3)
	LogSettled(logger, 3, 1.5, nil)
	LogSettled(logger, 4, 0.5, errors.New("rejected"))
	LogEventDispatched(logger, "OpenSDKEvent", 2)
	LogDropped(logger, errors.New("bad json"))
	LogTeardown(logger, "client-1", 1)

	out := buf.String()
	assert.Contains(t, out, "client attached to transport")
	assert.Contains(t, out, "request sent")
	assert.Contains(t, out, "request resolved")
	assert.Contains(t, out, "request rejected")
	assert.Contains(t, out, "event dispatched")
	assert.Contains(t, out, "dropping malformed inbound message")
	assert.Contains(t, out, "client torn down")
}

func TestLogHelpers_NilLoggerSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAttached(nil, "c")
		LogRequestSent(nil, "X", 1)
		LogSettled(nil, 1, 0, nil)
		LogEventDispatched(nil, "X", 0)
		LogDropped(nil, errors.New("x"))
		LogTeardown(nil, "c", 0)
	})
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed(), float64(0))
}
