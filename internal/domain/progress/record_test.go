package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{name: "zero", seconds: 0, expected: "0:00"},
		{name: "single digit seconds", seconds: 7.9, expected: "0:07"},
		{name: "minutes", seconds: 42.5 + 60, expected: "1:42"},
		{name: "over an hour", seconds: 3725, expected: "62:05"},
		{name: "negative clamps", seconds: -3, expected: "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPosition(tt.seconds))
		})
	}
}

func TestRecord_SavedAt(t *testing.T) {
	r := Record{VideoID: "v1", CurrentTime: 42.5, Index: 3, Timestamp: 1700000000000}

	assert.Equal(t, int64(1700000000000), r.SavedAt().UnixMilli())
}
