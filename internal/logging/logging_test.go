package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelWarn,
		"t":       LevelTrace,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"err":     slog.LevelError,
		"fatal":   LevelFatal,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "zone", "Europe/Riga")
	Fatal(logger, "stop", "err", "boom")
	Trace(logger, "hidden too")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN msg=shown zone=Europe/Riga")
	assert.Contains(t, out, "level=FATAL msg=stop err=boom")
}

func TestNew_Trace(t *testing.T) {
	var buf bytes.Buffer
	Trace(New(&buf, LevelTrace), "step")
	assert.Contains(t, buf.String(), "level=TRACE msg=step")
}
