package kv

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, path, origin string) *SQLite {
	t.Helper()

	s, err := OpenSQLite(path, SQLiteOptions{Origin: origin})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStores_GetSetDelete(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store { return newTestSQLite(t, ":memory:", "test") },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)

			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("k", "v1"))
			require.NoError(t, s.Set("k", "v2"))

			v, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", v)

			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k"), "deleting an absent key is not an error")

			_, ok, err = s.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLite_OriginIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	a := newTestSQLite(t, path, "https://a.example")
	b := newTestSQLite(t, path, "https://b.example")

	require.NoError(t, a.Set("last_playlist_id", "PL-a"))

	_, ok, err := b.Get("last_playlist_id")
	require.NoError(t, err)
	assert.False(t, ok, "keys must not leak across origins")

	v, ok, err := a.Get("last_playlist_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PL-a", v)
}

func TestSQLite_Durable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path, SQLiteOptions{Origin: "local"})
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "persisted"))
	require.NoError(t, s.Close())

	reopened := newTestSQLite(t, path, "local")
	v, ok, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestSQLite_RequiresOrigin(t *testing.T) {
	_, err := OpenSQLite(":memory:", SQLiteOptions{})
	assert.Error(t, err)
}

func TestSQLite_UseAfterClose(t *testing.T) {
	s, err := OpenSQLite(":memory:", SQLiteOptions{Origin: "local"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("k", "v"), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestSQLite_UpdatedAtUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1700000000000))
	s, err := OpenSQLite(":memory:", SQLiteOptions{Origin: "local", Clock: clock})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	require.NoError(t, s.Set("k", "v1"))

	var updatedAt int64
	require.NoError(t, s.db.QueryRow(`SELECT updated_at FROM kv WHERE origin = ? AND key = ?`, "local", "k").Scan(&updatedAt))
	assert.Equal(t, int64(1700000000000), updatedAt)
}

func TestSQLite_CloseWhileInUse(t *testing.T) {
	s, err := OpenSQLite(":memory:", SQLiteOptions{Origin: "local"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := s.Set("k", "v"); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
				if _, _, err := s.Get("k"); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}()
	}

	require.NoError(t, s.Close())
	wg.Wait()

	assert.ErrorIs(t, s.Delete("k"), ErrClosed)
}
