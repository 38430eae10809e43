package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{input: "debug", expected: zerolog.DebugLevel},
		{input: "INFO", expected: zerolog.InfoLevel},
		{input: "", expected: zerolog.InfoLevel},
		{input: "warning", expected: zerolog.WarnLevel},
		{input: "error", expected: zerolog.ErrorLevel},
		{input: "verbose", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNew_FileOutputIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Output: "/tmp/sleepbox.log", Level: "info"})

	log.Info().Msg("playback: saved")
	log.Debug().Msg("dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "playback: saved", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNew_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Output: "stdout", Level: "warn"})

	log.Info().Msg("hidden")
	log.Warn().Msg("switch timed out")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "switch timed out")
}
