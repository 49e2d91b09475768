package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, false},
		{"TRACE", zerolog.TraceLevel, true},
		{" debug ", zerolog.DebugLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestVerbosityLevels(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, levelFor(0))
	assert.Equal(t, zerolog.DebugLevel, levelFor(1))
	assert.Equal(t, zerolog.TraceLevel, levelFor(2))
	assert.Equal(t, zerolog.TraceLevel, levelFor(5))
}

func TestNewWritesPlainConsoleLines(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogNoColor, "")

	var buf bytes.Buffer
	logger := New(Options{Out: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("Scanning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "Scanning")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must be plain")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewHonoursEnvLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	var buf bytes.Buffer
	logger := New(Options{Out: &buf, Verbosity: 2})
	logger.Warn().Msg("suppressed")
	logger.Error().Msg("shown")

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "shown")
}

func TestNoColor(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("NO_COLOR", "")

	t.Setenv(EnvLogNoColor, "false")
	assert.False(t, NoColor(&buf), "explicit override forces color")

	t.Setenv(EnvLogNoColor, "")
	assert.True(t, NoColor(&buf), "buffers are not terminals")
}
