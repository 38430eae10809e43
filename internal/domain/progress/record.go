// Package progress provides the saved playback position entity.
package progress

import (
	"fmt"
	"time"
)

// Record is the last known playback position within one playlist.
type Record struct {
	VideoID     string  `json:"videoId"`     // External media id of the last-played item
	Title       string  `json:"title"`       // Display title of that item
	CurrentTime float64 `json:"currentTime"` // Position in seconds
	Index       int     `json:"index"`       // Item position within the playlist
	Timestamp   int64   `json:"timestamp"`   // Save time, epoch milliseconds
}

// SavedAt returns the save time.
func (r *Record) SavedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// FormatPosition renders seconds as m:ss.
func FormatPosition(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
