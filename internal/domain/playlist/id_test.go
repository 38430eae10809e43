package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
		wantOK bool
	}{
		{
			name:   "bare id",
			input:  "PLAgb-eU_m17juOnwmvXoiQjwZi4KehKZs",
			wantID: "PLAgb-eU_m17juOnwmvXoiQjwZi4KehKZs",
			wantOK: true,
		},
		{
			name:   "bare id with surrounding spaces",
			input:  "  PLxyz \n",
			wantID: "PLxyz",
			wantOK: true,
		},
		{
			name:   "playlist url",
			input:  "https://www.youtube.com/playlist?list=PLabc123",
			wantID: "PLabc123",
			wantOK: true,
		},
		{
			name:   "watch url with trailing params",
			input:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123&index=4",
			wantID: "PLabc123",
			wantOK: true,
		},
		{
			name:   "url with fragment",
			input:  "https://youtube.com/playlist?list=PLabc123#top",
			wantID: "PLabc123",
			wantOK: true,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "whitespace only",
			input:  "   ",
			wantOK: false,
		},
		{
			name:   "marker without value",
			input:  "https://www.youtube.com/playlist?list=&index=2",
			wantOK: false,
		},
		{
			name:   "marker at end",
			input:  "https://www.youtube.com/playlist?list=",
			wantOK: false,
		},
		{
			name:   "free text",
			input:  "my favourite book",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseID(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
