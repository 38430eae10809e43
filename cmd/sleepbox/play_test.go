package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/sleepbox/internal/app/playback"
)

// mockPlayer records the calls the console makes.
type mockPlayer struct {
	current  string
	switched []string
	sleep    []int
}

func (p *mockPlayer) TogglePlay() error { return nil }

func (p *mockPlayer) PlayIndex(int) error { return nil }

func (p *mockPlayer) SwitchTo(id string) error {
	p.switched = append(p.switched, id)
	p.current = id
	return nil
}

func (p *mockPlayer) SetSleepTimer(minutes int) error {
	p.sleep = append(p.sleep, minutes)
	return nil
}

func (p *mockPlayer) SaveNow() bool { return false }

func (p *mockPlayer) CurrentPlaylistID() string { return p.current }

func (p *mockPlayer) Status() playback.Status {
	return playback.Status{PlaylistID: p.current}
}

func newTestConsole(t *testing.T) (*console, *mockPlayer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	p := &mockPlayer{current: "PL1"}
	c := newConsole(p, newConsoleSurface(out), newTestStore(t), out)
	return c, p, out
}

func TestConsole_RemoveAsksFirst(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		answer      string
		removedID   string
		keptID      string
		wantMessage string
	}{
		{name: "current playlist confirmed", command: "remove", answer: "y", removedID: "PL1", keptID: "PL2", wantMessage: "Removed PL1."},
		{name: "by position confirmed", command: "remove 2", answer: "yes", removedID: "PL2", keptID: "PL1", wantMessage: "Removed PL2."},
		{name: "declined", command: "remove 2", answer: "n", keptID: "PL2", wantMessage: "Kept."},
		{name: "empty answer declines", command: "rm", answer: "", keptID: "PL1", wantMessage: "Kept."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, out := newTestConsole(t)
			require.NoError(t, c.store.AddLibraryEntry("PL1", "One"))
			require.NoError(t, c.store.AddLibraryEntry("PL2", "Two"))

			assert.False(t, c.run(tt.command))
			assert.Contains(t, out.String(), "[y/N]")
			assert.Len(t, c.store.ListLibrary(), 2, "nothing is removed before the answer")

			assert.False(t, c.run(tt.answer))
			assert.Contains(t, out.String(), tt.wantMessage)

			lib := c.store.ListLibrary()
			if tt.removedID != "" {
				assert.False(t, lib.Contains(tt.removedID))
			}
			assert.True(t, lib.Contains(tt.keptID))
		})
	}
}

func TestConsole_RemoveUnknown(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.run("remove")
	assert.Contains(t, out.String(), "PL1 is not in the library.")

	// The next line is a normal command again
	c.run("sleep 5")
	assert.Equal(t, []int{5}, c.player.(*mockPlayer).sleep)
}

func TestConsole_Commands(t *testing.T) {
	c, p, out := newTestConsole(t)
	require.NoError(t, c.store.AddLibraryEntry("PL7", "Seven"))

	assert.False(t, c.run("switch 1"))
	assert.False(t, c.run("switch https://www.youtube.com/playlist?list=PL9&si=x"))
	assert.Equal(t, []string{"PL7", "PL9"}, p.switched)

	assert.False(t, c.run("add Nine"))
	assert.True(t, c.store.ListLibrary().Contains("PL9"))
	assert.False(t, c.run("add"))
	assert.Contains(t, out.String(), "Already in library.")

	assert.False(t, c.run("sleep soon"))
	assert.Contains(t, out.String(), "Usage: sleep M")

	assert.False(t, c.run("bogus"))
	assert.Contains(t, out.String(), `Unknown command "bogus"`)

	assert.True(t, c.run("quit"))
}
