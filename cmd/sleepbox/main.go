// Package main provides the sleepbox player entry point.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/app/persistence"
	"github.com/osa030/sleepbox/internal/app/playback"
	"github.com/osa030/sleepbox/internal/domain/playlist"
	"github.com/osa030/sleepbox/internal/domain/progress"
	"github.com/osa030/sleepbox/internal/infra/config"
	"github.com/osa030/sleepbox/internal/infra/kv"
	"github.com/osa030/sleepbox/internal/infra/logger"
)

var (
	app        = kingpin.New("sleepbox", "Sleep audiobook and podcast player")
	configPath = app.Flag("config", "Path to config file").Default("config/sleepbox.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	ephemeral  = app.Flag("ephemeral", "Keep state in memory only").Bool()

	// play command (default)
	playCmd      = app.Command("play", "Play the last used playlist (default)").Default()
	playPlaylist = playCmd.Flag("playlist", "Playlist id or URL to start with").Short('p').String()
	playSleep    = playCmd.Flag("sleep", "Pause after this many minutes").Short('s').Int()

	// library commands
	libraryCmd     = app.Command("library", "Manage saved playlists")
	libraryListCmd = libraryCmd.Command("list", "List saved playlists")
	libraryAddCmd  = libraryCmd.Command("add", "Save a playlist")
	libraryAddID   = libraryAddCmd.Arg("playlist", "Playlist id or URL").Required().String()
	libraryAddName = libraryAddCmd.Arg("name", "Display name").String()
	libraryRemCmd  = libraryCmd.Command("remove", "Remove a saved playlist")
	libraryRemID   = libraryRemCmd.Arg("id", "Playlist id").Required().String()
	libraryRemYes  = libraryRemCmd.Flag("yes", "Remove without asking").Short('y').Bool()

	// status command
	statusCmd = app.Command("status", "Show the saved position of the last used playlist")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger. The terminal belongs to the player UI, so logs go to stderr.
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "warn",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.Level = "info"
		if *verbose {
			loggerConfig.Level = "debug"
		}
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Error().Msgf("Failed to load config: %v", err)
		os.Exit(1)
	}

	if err := run(command, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes a command. Using a separate function ensures defer statements
// are executed even when returning with an error.
func run(command string, cfg *config.Config) error {
	clock := clockwork.NewRealClock()
	backend, closeBackend, err := openBackend(cfg, clock)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := persistence.New(backend, clock)

	switch command {
	case libraryListCmd.FullCommand():
		return listLibrary(store)
	case libraryAddCmd.FullCommand():
		return addToLibrary(store, *libraryAddID, *libraryAddName)
	case libraryRemCmd.FullCommand():
		return removeFromLibrary(store, *libraryRemID, *libraryRemYes, os.Stdin, os.Stdout)
	case statusCmd.FullCommand():
		return showStatus(store, cfg)
	default:
		return play(cfg, store, clock, *playPlaylist, *playSleep)
	}
}

// openBackend opens the key-value store selected by flags and config.
func openBackend(cfg *config.Config, clock clockwork.Clock) (kv.Store, func(), error) {
	if *ephemeral {
		zlog.Info().Msg("Using in-memory storage")
		return kv.NewMemory(), func() {}, nil
	}

	db, err := kv.OpenSQLite(cfg.Storage.Path, kv.SQLiteOptions{
		Origin:      cfg.Storage.Origin,
		BusyTimeout: 5 * time.Second,
		Clock:       clock,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open storage")
	}
	zlog.Info().Msgf("Opened storage: path=%s origin=%s", cfg.Storage.Path, db.Origin())
	return db, func() {
		if err := db.Close(); err != nil {
			zlog.Error().Msgf("Failed to close storage: %v", err)
		}
	}, nil
}

func listLibrary(store *persistence.Store) error {
	lib := store.ListLibrary()
	if len(lib) == 0 {
		fmt.Println("Library is empty.")
		return nil
	}

	current, _ := store.LastPlaylistID()
	for _, e := range lib {
		marker := " "
		if e.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s (added %s)\n", marker, e.ID, e.Name, e.Added().Format(time.DateOnly))
	}
	return nil
}

func addToLibrary(store *persistence.Store, input, name string) error {
	id, ok := playlist.ParseID(input)
	if !ok {
		return errors.Newf("not a playlist id or URL: %q", input)
	}

	if err := store.AddLibraryEntry(id, name); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			fmt.Printf("Already saved: %s\n", id)
			return nil
		}
		return err
	}
	fmt.Printf("Saved: %s\n", id)
	return nil
}

func removeFromLibrary(store *persistence.Store, id string, yes bool, in io.Reader, out io.Writer) error {
	entry, ok := store.ListLibrary().Find(id)
	if !ok {
		fmt.Fprintf(out, "Not in library: %s\n", id)
		return nil
	}

	if !yes && !confirm(in, out, fmt.Sprintf("Remove %q (%s) from library?", entry.Name, entry.ID)) {
		fmt.Fprintln(out, "Kept.")
		return nil
	}

	if err := store.RemoveLibraryEntry(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed: %s\n", id)
	return nil
}

// confirm asks a yes/no question. Anything but yes, including end of input, is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	return isYes(answer)
}

func showStatus(store *persistence.Store, cfg *config.Config) error {
	id := playback.ResolvePlaylistID(store, cfg.Player.FallbackPlaylistID)
	fmt.Printf("Playlist: %s\n", id)

	rec, ok := store.LoadRecord(id)
	if !ok {
		fmt.Println("No saved position.")
		return nil
	}
	fmt.Printf("Item:     #%d %s\n", rec.Index+1, rec.Title)
	fmt.Printf("Position: %s\n", progress.FormatPosition(rec.CurrentTime))
	fmt.Printf("Saved:    %s\n", rec.SavedAt().Format(time.DateTime))
	return nil
}
