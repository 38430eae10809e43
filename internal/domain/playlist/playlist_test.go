package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaylist_Reconcile(t *testing.T) {
	tests := []struct {
		name        string
		cached      int
		reported    int
		wantChanged bool
		wantLength  int
	}{
		{
			name:        "unknown to reported",
			cached:      UnknownLength,
			reported:    42,
			wantChanged: true,
			wantLength:  42,
		},
		{
			name:        "same length",
			cached:      42,
			reported:    42,
			wantChanged: false,
			wantLength:  42,
		},
		{
			name:        "grown playlist",
			cached:      150,
			reported:    151,
			wantChanged: true,
			wantLength:  151,
		},
		{
			name:        "widget reports nothing",
			cached:      150,
			reported:    0,
			wantChanged: false,
			wantLength:  150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Playlist{ID: "PL1", Length: tt.cached}

			changed := p.Reconcile(tt.reported)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantLength, p.Length)
		})
	}
}

func TestPlaylist_ResetLength(t *testing.T) {
	p := Playlist{ID: "PL1", Length: 12}

	p.ResetLength()

	assert.Equal(t, UnknownLength, p.Length)
	assert.True(t, p.Reconcile(12), "a reset length is re-detected")
}

func TestNew(t *testing.T) {
	p := New("PL1")

	assert.Equal(t, "PL1", p.ID)
	assert.Equal(t, UnknownLength, p.Length)
}
