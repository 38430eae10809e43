package kv

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	origin     TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (origin, key)
)`

// SQLiteOptions configures the durable store.
type SQLiteOptions struct {
	Origin      string          // Namespace for every key written through this handle
	BusyTimeout time.Duration   // How long to wait on a locked database
	Clock       clockwork.Clock // Stamps updated_at; defaults to the real clock
}

// SQLite is a durable Store backed by a pure-Go sqlite database.
// Each handle is bound to one origin; handles for different origins never see
// each other's keys even when they share a file.
type SQLite struct {
	mu     sync.RWMutex // guards db against Close
	db     *sql.DB
	origin string
	clock  clockwork.Clock
}

// OpenSQLite opens (or creates) the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string, opts SQLiteOptions) (*SQLite, error) {
	if opts.Origin == "" {
		return nil, errors.New("kv: origin is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", int(opts.BusyTimeout/time.Millisecond)),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "failed to apply %q", p)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create kv schema")
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLite{db: db, origin: opts.Origin, clock: clock}, nil
}

// Origin returns the namespace of this handle.
func (s *SQLite) Origin() string {
	return s.origin
}

// Get implements Store.
func (s *SQLite) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM kv WHERE origin = ? AND key = ?`,
		s.origin, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read key %q", key)
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLite) Set(key, value string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec(`
		INSERT INTO kv (origin, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(origin, key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`, s.origin, key, value, s.clock.Now().UnixMilli())
	if err != nil {
		return errors.Wrapf(err, "failed to write key %q", key)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE origin = ? AND key = ?`, s.origin, key); err != nil {
		return errors.Wrapf(err, "failed to delete key %q", key)
	}
	return nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
