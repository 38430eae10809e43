package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/app/mediasession"
	"github.com/osa030/sleepbox/internal/app/notification"
	"github.com/osa030/sleepbox/internal/app/persistence"
	"github.com/osa030/sleepbox/internal/app/playback"
	"github.com/osa030/sleepbox/internal/domain/media"
	"github.com/osa030/sleepbox/internal/domain/playlist"
	"github.com/osa030/sleepbox/internal/infra/config"
	"github.com/osa030/sleepbox/internal/infra/widget"
)

const helpText = `Commands:
  <enter>, toggle       play or pause
  play, pause           resume or pause
  next, prev            skip items
  goto N                play item N
  fwd [S], back [S]     seek forward or back S seconds (default 10)
  seek S                seek to S seconds
  switch ID|URL|N       switch playlist (N picks from the library)
  sleep M               pause after M minutes (0 clears)
  add [NAME]            save the current playlist to the library
  remove [N|ID]         remove a playlist from the library (asks first)
  lib                   list the library
  save                  save the position now
  status                show the player status
  quit                  save and exit`

// publisherFunc adapts a function to playback.NowPlayingPublisher.
type publisherFunc func(item media.Item)

func (f publisherFunc) PublishNowPlaying(item media.Item) {
	f(item)
}

// play runs the interactive player until quit, a signal, or the sleep timer.
func play(cfg *config.Config, store *persistence.Store, clock clockwork.Clock, input string, sleepMinutes int) error {
	playlistID := playback.ResolvePlaylistID(store, cfg.Player.FallbackPlaylistID)
	if input != "" {
		id, ok := playlist.ParseID(input)
		if !ok {
			return errors.Newf("not a playlist id or URL: %q", input)
		}
		playlistID = id
	}

	sim := widget.New(widget.Options{
		PlaylistLength: cfg.Simulation.PlaylistLength,
		ItemDuration:   cfg.Simulation.ItemDuration(),
		LoadDelay:      cfg.Simulation.LoadDelay(),
		Clock:          clock,
	})
	defer sim.Close()

	// The session is bound after the controller exists; it is only used once
	// playback starts.
	var session *mediasession.Session
	ctrl := playback.NewController(playback.Config{
		SaveInterval:          cfg.Player.SaveInterval(),
		SwitchTimeout:         cfg.Player.SwitchTimeout(),
		AutoPlayDelay:         cfg.Player.AutoPlayDelay(),
		AutoPlayOnCue:         cfg.Player.AutoPlay(),
		DefaultPlaylistLength: cfg.Player.DefaultPlaylistLength,
	}, playback.Deps{
		Widget: sim,
		Store:  store,
		Publisher: publisherFunc(func(item media.Item) {
			session.PublishNowPlaying(item)
		}),
		Clock: clock,
	})

	surface := newConsoleSurface(os.Stdout)
	session = mediasession.Bind(surface, ctrl)

	// Status updates
	notifier := notification.NewManager()
	defer notifier.Close()
	view := newStatusView(os.Stdout)
	subscriptionID := notifier.Subscribe(view)
	defer notifier.Unsubscribe(subscriptionID)
	go notifier.Run(ctrl.Events())

	defer func() {
		ctrl.SaveNow()
		ctrl.Close()
	}()

	sim.Attach(ctrl)
	if err := ctrl.Initialize(playlistID); err != nil {
		return errors.Wrap(err, "failed to start player")
	}

	if sleepMinutes > 0 {
		if err := ctrl.SetSleepTimer(sleepMinutes); err != nil {
			return err
		}
	}

	fmt.Printf("Playing %s. Type \"help\" for commands.\n", playlistID)
	term := newConsole(ctrl, surface, store, os.Stdout)

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-sigCh:
			zlog.Info().Msg("Received shutdown signal...")
			return nil
		case <-view.SleepFired():
			fmt.Println("Sleep timer ended. Good night.")
			return nil
		case line, ok := <-lines:
			if !ok {
				// Input closed; keep playing until a signal or the sleep timer
				lines = nil
				continue
			}
			if quit := term.run(line); quit {
				return nil
			}
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// player is the part of the controller the console drives.
type player interface {
	TogglePlay() error
	PlayIndex(index int) error
	SwitchTo(playlistID string) error
	SetSleepTimer(minutes int) error
	SaveNow() bool
	CurrentPlaylistID() string
	Status() playback.Status
}

// console executes interactive commands.
type console struct {
	player  player
	surface *consoleSurface
	store   *persistence.Store
	out     io.Writer

	// Library id awaiting a yes/no answer
	pendingRemoval string
}

func newConsole(p player, surface *consoleSurface, store *persistence.Store, out io.Writer) *console {
	return &console{
		player:  p,
		surface: surface,
		store:   store,
		out:     out,
	}
}

// run executes one console command. It returns true on quit.
func (c *console) run(line string) bool {
	if c.pendingRemoval != "" {
		c.answerRemoval(line)
		return false
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		c.report(c.player.TogglePlay())
		return false
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	arg := strings.Join(args, " ")

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
	case "toggle":
		c.report(c.player.TogglePlay())
	case "play":
		c.surface.Dispatch(mediasession.ActionPlay, nil)
	case "pause":
		c.surface.Dispatch(mediasession.ActionPause, nil)
	case "next":
		c.surface.Dispatch(mediasession.ActionNextTrack, nil)
	case "prev", "previous":
		c.surface.Dispatch(mediasession.ActionPreviousTrack, nil)
	case "fwd", "back":
		action := mediasession.ActionSeekForward
		if cmd == "back" {
			action = mediasession.ActionSeekBackward
		}
		var details map[string]any
		if arg != "" {
			details = map[string]any{"seekOffset": arg}
		}
		c.surface.Dispatch(action, details)
	case "seek":
		c.surface.Dispatch(mediasession.ActionSeekTo, map[string]any{"seekTime": arg})
	case "goto":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(c.out, "Usage: goto N")
			return false
		}
		c.report(c.player.PlayIndex(n - 1))
	case "switch":
		id, ok := c.resolveTarget(arg)
		if !ok {
			fmt.Fprintln(c.out, "Usage: switch ID|URL|N")
			return false
		}
		c.report(c.player.SwitchTo(id))
	case "sleep":
		minutes, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(c.out, "Usage: sleep M")
			return false
		}
		c.report(c.player.SetSleepTimer(minutes))
	case "add":
		id := c.player.CurrentPlaylistID()
		err := c.store.AddLibraryEntry(id, arg)
		if errors.Is(err, persistence.ErrAlreadyExists) {
			fmt.Fprintln(c.out, "Already in library.")
			return false
		}
		if err == nil {
			fmt.Fprintf(c.out, "Saved %s to library.\n", id)
		}
		c.report(err)
	case "remove", "rm":
		c.askRemoval(arg)
	case "lib", "library":
		c.printLibrary()
	case "save":
		if c.player.SaveNow() {
			fmt.Fprintln(c.out, c.player.Status().SaveStatus)
		} else {
			fmt.Fprintln(c.out, "Nothing to save.")
		}
	case "status":
		printStatus(c.out, c.player.Status())
	default:
		fmt.Fprintf(c.out, "Unknown command %q. Type \"help\" for commands.\n", cmd)
	}
	return false
}

// askRemoval starts a removal that the next line confirms.
func (c *console) askRemoval(arg string) {
	id := c.player.CurrentPlaylistID()
	if arg != "" {
		var ok bool
		if id, ok = c.resolveTarget(arg); !ok {
			fmt.Fprintln(c.out, "Usage: remove [N|ID]")
			return
		}
	}

	entry, ok := c.store.ListLibrary().Find(id)
	if !ok {
		fmt.Fprintf(c.out, "%s is not in the library.\n", id)
		return
	}
	c.pendingRemoval = entry.ID
	fmt.Fprintf(c.out, "Remove %q (%s) from library? [y/N] ", entry.Name, entry.ID)
}

func (c *console) answerRemoval(line string) {
	id := c.pendingRemoval
	c.pendingRemoval = ""

	if !isYes(line) {
		fmt.Fprintln(c.out, "Kept.")
		return
	}
	if err := c.store.RemoveLibraryEntry(id); err != nil {
		c.report(err)
		return
	}
	fmt.Fprintf(c.out, "Removed %s.\n", id)
}

// resolveTarget accepts a library position (1-based), a playlist id or a URL.
func (c *console) resolveTarget(arg string) (string, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		lib := c.store.ListLibrary()
		if n < 1 || n > len(lib) {
			return "", false
		}
		return lib[n-1].ID, true
	}
	return playlist.ParseID(arg)
}

func (c *console) printLibrary() {
	lib := c.store.ListLibrary()
	if len(lib) == 0 {
		fmt.Fprintln(c.out, "Library is empty. Use \"add\" to save the current playlist.")
		return
	}
	current := c.player.CurrentPlaylistID()
	for i, e := range lib {
		marker := " "
		if e.ID == current {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %2d. %s (%s)\n", marker, i+1, e.Name, e.ID)
	}
}

func (c *console) report(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

// isYes reports whether an answer to a [y/N] prompt is affirmative.
func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
