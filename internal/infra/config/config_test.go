package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sleepbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "PLAgb-eU_m17juOnwmvXoiQjwZi4KehKZs", cfg.Player.FallbackPlaylistID)
	assert.Equal(t, 5*time.Second, cfg.Player.SaveInterval())
	assert.Equal(t, 15*time.Second, cfg.Player.SwitchTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Player.AutoPlayDelay())
	assert.True(t, cfg.Player.AutoPlay())
	assert.Equal(t, 150, cfg.Player.DefaultPlaylistLength)
	assert.Equal(t, "sleepbox.db", cfg.Storage.Path)
	assert.Equal(t, "local", cfg.Storage.Origin)
	assert.Equal(t, 30*time.Minute, cfg.Simulation.ItemDuration())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
player:
  fallback_playlist_id: PLcustom
  save_interval_ms: 10000
  autoplay_on_cue: false
storage:
  path: /tmp/books.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PLcustom", cfg.Player.FallbackPlaylistID)
	assert.Equal(t, 10*time.Second, cfg.Player.SaveInterval())
	assert.False(t, cfg.Player.AutoPlay(), "explicit false must survive defaults")
	assert.Equal(t, 15*time.Second, cfg.Player.SwitchTimeout())
	assert.Equal(t, "/tmp/books.db", cfg.Storage.Path)
	assert.Equal(t, "local", cfg.Storage.Origin)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SLEEPBOX_STORAGE_PATH", "/var/lib/sleepbox.db")
	t.Setenv("SLEEPBOX_ORIGIN", "https://player.example")
	t.Setenv("SLEEPBOX_FALLBACK_PLAYLIST", "PLenv")

	path := writeConfig(t, `
storage:
  path: /tmp/books.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/sleepbox.db", cfg.Storage.Path)
	assert.Equal(t, "https://player.example", cfg.Storage.Origin)
	assert.Equal(t, "PLenv", cfg.Player.FallbackPlaylistID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "malformed yaml",
			content: "player: [",
			errMsg:  "failed to parse config file",
		},
		{
			name: "save interval too short",
			content: `
player:
  save_interval_ms: 10
`,
			errMsg: "SaveIntervalMs",
		},
		{
			name: "negative autoplay delay",
			content: `
player:
  autoplay_delay_ms: -5
`,
			errMsg: "AutoPlayDelayMs",
		},
		{
			name: "zero length simulation",
			content: `
simulation:
  playlist_length: -1
`,
			errMsg: "PlaylistLength",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg,
				"error message should mention the problematic field")
		})
	}
}
