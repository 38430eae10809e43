// Package persistence stores playback positions and the playlist library
// in an origin-scoped key-value store.
package persistence

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/domain/library"
	"github.com/osa030/sleepbox/internal/domain/progress"
	"github.com/osa030/sleepbox/internal/infra/kv"
)

// Storage keys
const (
	RecordKeyPrefix = "sleep_player_"
	LastPlaylistKey = "last_playlist_id"
	LibraryKey      = "my_library"
)

// ErrAlreadyExists is returned when adding a playlist id that is already in the library.
var ErrAlreadyExists = errors.New("playlist already in library")

// recordDoc is the stored shape of a progress.Record.
// Pointers distinguish a missing field from a zero value.
type recordDoc struct {
	VideoID     string   `json:"videoId" validate:"required"`
	Title       string   `json:"title"`
	CurrentTime *float64 `json:"currentTime" validate:"required,gte=0"`
	Index       *int     `json:"index" validate:"required,gte=0"`
	Timestamp   int64    `json:"timestamp"`
}

// entryDoc is the stored shape of a library.Entry.
type entryDoc struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	AddedAt int64  `json:"addedAt"`
}

// Store reads and writes playback records and the library.
type Store struct {
	mu       sync.Mutex // serializes library read-modify-write
	kv       kv.Store
	clock    clockwork.Clock
	validate *validator.Validate
}

// New creates a store over the given backend.
func New(backend kv.Store, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		kv:       backend,
		clock:    clock,
		validate: validator.New(),
	}
}

// RecordKey returns the storage key for a playlist's record.
func RecordKey(playlistID string) string {
	return RecordKeyPrefix + playlistID
}

// LoadRecord returns the saved position for a playlist.
// Malformed or unreadable values are logged and reported as absent.
func (s *Store) LoadRecord(playlistID string) (*progress.Record, bool) {
	raw, ok := s.get(RecordKey(playlistID))
	if !ok {
		return nil, false
	}

	var doc recordDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		zlog.Warn().Msgf("persistence: failed to parse saved state: playlist=%s err=%v", playlistID, err)
		return nil, false
	}
	if err := s.validate.Struct(&doc); err != nil {
		zlog.Warn().Msgf("persistence: ignoring saved state with unexpected shape: playlist=%s err=%v", playlistID, err)
		return nil, false
	}

	return &progress.Record{
		VideoID:     doc.VideoID,
		Title:       doc.Title,
		CurrentTime: *doc.CurrentTime,
		Index:       *doc.Index,
		Timestamp:   doc.Timestamp,
	}, true
}

// SaveRecord overwrites the record for a playlist and marks it as last used.
func (s *Store) SaveRecord(playlistID string, r progress.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to encode playback record")
	}
	if err := s.kv.Set(RecordKey(playlistID), string(data)); err != nil {
		return errors.Wrap(err, "failed to save playback record")
	}
	return s.SetLastPlaylistID(playlistID)
}

// LastPlaylistID returns the most recently used playlist id.
func (s *Store) LastPlaylistID() (string, bool) {
	id, ok := s.get(LastPlaylistKey)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SetLastPlaylistID updates the last used playlist pointer.
func (s *Store) SetLastPlaylistID(playlistID string) error {
	if err := s.kv.Set(LastPlaylistKey, playlistID); err != nil {
		return errors.Wrap(err, "failed to save last playlist id")
	}
	return nil
}

// ListLibrary returns the library in insertion order.
// A malformed stored value yields an empty library.
func (s *Store) ListLibrary() library.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// AddLibraryEntry appends a playlist to the library.
// Returns ErrAlreadyExists and leaves the library unchanged if the id is present.
func (s *Store) AddLibraryEntry(id, name string) error {
	if id == "" {
		return errors.New("playlist id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.listLocked()
	if lib.Contains(id) {
		return errors.Wrapf(ErrAlreadyExists, "playlist %s", id)
	}

	lib = append(lib, library.NewEntry(id, name, s.clock.Now()))
	return s.writeLocked(lib)
}

// RemoveLibraryEntry removes a playlist from the library. Removing an absent id is a no-op.
// Removing the last entry deletes the stored library.
func (s *Store) RemoveLibraryEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.listLocked()
	if !lib.Contains(id) {
		return nil
	}

	lib = lib.Without(id)
	if len(lib) == 0 {
		if err := s.kv.Delete(LibraryKey); err != nil {
			return errors.Wrap(err, "failed to delete library")
		}
		return nil
	}
	return s.writeLocked(lib)
}

func (s *Store) listLocked() library.Library {
	raw, ok := s.get(LibraryKey)
	if !ok {
		return library.Library{}
	}

	var docs []entryDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		zlog.Warn().Msgf("persistence: failed to parse library: %v", err)
		return library.Library{}
	}

	lib := make(library.Library, 0, len(docs))
	for i := range docs {
		if err := s.validate.Struct(&docs[i]); err != nil {
			zlog.Warn().Msgf("persistence: ignoring library with unexpected shape: %v", err)
			return library.Library{}
		}
		lib = append(lib, library.Entry{
			ID:      docs[i].ID,
			Name:    docs[i].Name,
			AddedAt: docs[i].AddedAt,
		})
	}
	return lib
}

func (s *Store) writeLocked(lib library.Library) error {
	data, err := json.Marshal(lib)
	if err != nil {
		return errors.Wrap(err, "failed to encode library")
	}
	if err := s.kv.Set(LibraryKey, string(data)); err != nil {
		return errors.Wrap(err, "failed to save library")
	}
	return nil
}

// get reads a key, treating backend errors as absent.
func (s *Store) get(key string) (string, bool) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		zlog.Warn().Msgf("persistence: failed to read %s: %v", key, err)
		return "", false
	}
	return raw, ok
}
