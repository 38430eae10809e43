package playback

import (
	"github.com/osa030/sleepbox/internal/domain/media"
	"github.com/osa030/sleepbox/internal/domain/progress"
)

// Widget is the external player the controller drives.
//
// Implementations deliver their callbacks (ready, state change, error) by
// calling Controller.Initialize, HandleStateChange and HandleError from their
// own goroutine, never from inside one of these methods.
type Widget interface {
	LoadPlaylist(playlistID string, index int, startSeconds float64)
	CuePlaylist(playlistID string)
	Play()
	Pause()
	Stop()
	SeekTo(seconds float64)
	Previous()
	Next()
	PlayAt(index int)

	CurrentTime() float64
	Duration() float64
	State() State
	VideoData() *media.Item
	PlaylistIndex() int
	PlaylistLength() int
}

// RecordStore persists playback positions.
type RecordStore interface {
	LoadRecord(playlistID string) (*progress.Record, bool)
	SaveRecord(playlistID string, r progress.Record) error
	SetLastPlaylistID(playlistID string) error
}

// NowPlayingPublisher receives metadata whenever playback starts.
type NowPlayingPublisher interface {
	PublishNowPlaying(item media.Item)
}

// LastUsedStore exposes the last used playlist pointer.
type LastUsedStore interface {
	LastPlaylistID() (string, bool)
}

// ResolvePlaylistID returns the last used playlist id, or fallback if none was saved.
func ResolvePlaylistID(store LastUsedStore, fallback string) string {
	if store != nil {
		if id, ok := store.LastPlaylistID(); ok {
			return id
		}
	}
	return fallback
}
