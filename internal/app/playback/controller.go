package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/domain/playlist"
	"github.com/osa030/sleepbox/internal/domain/progress"
)

// Errors
var (
	ErrNotReady           = errors.New("player not ready")
	ErrAlreadyInitialized = errors.New("controller already initialized")
	ErrClosed             = errors.New("controller closed")
	ErrInvalidPlaylist    = errors.New("invalid playlist id")
	ErrInvalidSleepTimer  = errors.New("sleep timer minutes must not be negative")
	ErrInvalidIndex       = errors.New("playlist index must not be negative")
	ErrInvalidSeek        = errors.New("invalid seek time")
)

// Status texts
const (
	StatusNotStarted = "Not Started"
	StatusPlaying    = "Playing"
	StatusPaused     = "Paused"
	StatusBuffering  = "Buffering..."
	StatusReady      = "Ready"
	StatusEnded      = "Playback Ended"
	StatusResuming   = "Resuming session..."
	StatusLoading    = "Loading Playlist..."
	StatusError      = "Error occurred. Try reloading."

	TitleWaiting = "Please wait..."
	TitleReady   = "Player Ready"

	TimerOff   = "Timer: Off"
	TimerEnded = "Timer: Ended (Paused)"
)

// Config holds controller configuration.
type Config struct {
	SaveInterval          time.Duration // Period of the automatic position save
	SwitchTimeout         time.Duration // Safety deadline that clears a stalled switch
	AutoPlayDelay         time.Duration // Delay between cueing a fresh playlist and playing it
	AutoPlayOnCue         bool          // Start playback after switching to a playlist without a saved position
	DefaultPlaylistLength int           // Assumed length of the initial playlist until detected
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		SaveInterval:          5 * time.Second,
		SwitchTimeout:         15 * time.Second,
		AutoPlayDelay:         500 * time.Millisecond,
		AutoPlayOnCue:         true,
		DefaultPlaylistLength: 150,
	}
}

// Deps holds the collaborators of a controller.
type Deps struct {
	Widget    Widget
	Store     RecordStore
	Publisher NowPlayingPublisher // optional
	Clock     clockwork.Clock     // optional, defaults to the real clock
}

// Controller owns the current playlist, mediates between widget events and
// persistence, and runs the playlist-switch protocol.
type Controller struct {
	mu sync.Mutex

	widget    Widget
	store     RecordStore
	publisher NowPlayingPublisher
	clock     clockwork.Clock
	config    Config

	// Session state
	phase     Phase
	playlist  playlist.Playlist
	state     State
	switching bool
	lastSaved *progress.Record

	// Display state
	title       string
	statusText  string
	saveStatus  string
	timerStatus string

	// Timers. Generations invalidate callbacks that fired but lost the race
	// for the lock against a cancel.
	saveTicker    clockwork.Ticker
	sleepTimer    clockwork.Timer
	sleepGen      uint64
	switchTimer   clockwork.Timer
	autoPlayTimer clockwork.Timer
	switchGen     uint64

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller. Call Initialize once the widget is ready.
func NewController(config Config, deps Deps) *Controller {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		widget:      deps.Widget,
		store:       deps.Store,
		publisher:   deps.Publisher,
		clock:       clock,
		config:      config,
		phase:       PhaseUninitialized,
		state:       StateUnstarted,
		statusText:  StatusNotStarted,
		timerStatus: TimerOff,
		eventCh:     make(chan Event, 64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Initialize is called once the widget is ready. It resumes the saved position
// of the playlist, or cues the playlist if none exists, then starts the
// periodic save.
func (c *Controller) Initialize(playlistID string) error {
	if playlistID == "" {
		return ErrInvalidPlaylist
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseReady:
		return ErrAlreadyInitialized
	case PhaseClosed:
		return ErrClosed
	}

	c.phase = PhaseReady
	c.playlist = playlist.New(playlistID)
	c.playlist.Length = c.config.DefaultPlaylistLength
	c.title = TitleReady
	c.saveStatus = "Ready to load previous session..."

	if rec, ok := c.store.LoadRecord(playlistID); ok {
		zlog.Info().Msgf("playback: restoring state: playlist=%s index=%d time=%.1f", playlistID, rec.Index, rec.CurrentTime)
		c.lastSaved = rec
		c.statusText = StatusResuming
		c.widget.LoadPlaylist(playlistID, rec.Index, rec.CurrentTime)
	} else {
		zlog.Info().Msgf("playback: new session, cueing playlist: playlist=%s", playlistID)
		c.widget.CuePlaylist(playlistID)
	}

	c.startSaveTickerLocked()
	c.sendEventLocked(EventStateChanged)
	return nil
}

// HandleStateChange processes a state change reported by the widget.
func (c *Controller) HandleStateChange(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseReady {
		zlog.Debug().Msgf("playback: ignoring widget state before ready: state=%s phase=%s", state, c.phase)
		return
	}

	c.state = state

	switch state {
	case StatePlaying:
		c.statusText = StatusPlaying
		c.refreshTitleLocked()
		c.publishNowPlayingLocked()
		c.reconcileLengthLocked()
		c.clearSwitchingLocked()
	case StateEnded:
		c.statusText = StatusEnded
	case StateBuffering:
		c.statusText = StatusBuffering
	case StateCued:
		c.statusText = StatusReady
		c.clearSwitchingLocked()
		c.reconcileLengthLocked()
	case StatePaused:
		c.statusText = StatusPaused
		c.saveLocked()
	default:
		c.statusText = StatusNotStarted
	}

	c.sendEventLocked(EventStateChanged)
}

// HandleError processes an error reported by the widget. The failed
// operation is not retried.
func (c *Controller) HandleError(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	zlog.Error().Msgf("playback: player error: code=%d playlist=%s", code, c.playlist.ID)

	// A switch that errored out must not block saves forever
	c.switching = false
	c.stopTimer(&c.switchTimer)
	c.statusText = StatusError
	c.sendEventLocked(EventError)
}

// SaveNow persists the current position if there is anything worth saving.
// Returns true if a record was written.
func (c *Controller) SaveNow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

// SwitchTo saves the current playlist's position and loads another playlist,
// resuming its saved position if one exists.
func (c *Controller) SwitchTo(playlistID string) error {
	if playlistID == "" {
		return ErrInvalidPlaylist
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseUninitialized:
		return ErrNotReady
	case PhaseClosed:
		return ErrClosed
	}

	if playlistID == c.playlist.ID {
		return nil
	}

	zlog.Info().Msgf("playback: switching playlist: from=%s to=%s", c.playlist.ID, playlistID)

	// 1. Flush the old playlist's position
	c.saveLocked()

	// 2. Suppress saves until the widget settles on the new playlist
	c.switching = true
	c.switchGen++
	c.stopTimer(&c.autoPlayTimer)
	c.stopTimer(&c.switchTimer)

	// 3. Point at the new playlist; 6. its length is re-detected
	c.playlist.ID = playlistID
	c.playlist.ResetLength()
	if err := c.store.SetLastPlaylistID(playlistID); err != nil {
		zlog.Error().Msgf("playback: failed to save last playlist id: %v", err)
	}

	// 4. Load the new playlist's position
	rec, ok := c.store.LoadRecord(playlistID)
	c.lastSaved = rec

	// 5. Instruct the widget. Stopping first drops the old item so its
	// position cannot leak into the new playlist.
	c.widget.Stop()
	if ok {
		c.widget.LoadPlaylist(playlistID, rec.Index, rec.CurrentTime)
	} else {
		c.widget.CuePlaylist(playlistID)
		if c.config.AutoPlayOnCue {
			gen := c.switchGen
			c.autoPlayTimer = c.clock.AfterFunc(c.config.AutoPlayDelay, func() {
				c.onAutoPlay(gen)
			})
		}
	}

	c.state = StateUnstarted
	c.statusText = StatusLoading
	c.title = TitleWaiting

	// 7. Safety deadline
	gen := c.switchGen
	c.switchTimer = c.clock.AfterFunc(c.config.SwitchTimeout, func() {
		c.onSwitchTimeout(gen)
	})

	c.sendEventLocked(EventPlaylistChanged)
	return nil
}

// SetSleepTimer pauses playback after the given number of minutes.
// Zero clears the timer. Any previous timer is cancelled.
func (c *Controller) SetSleepTimer(minutes int) error {
	if minutes < 0 {
		return ErrInvalidSleepTimer
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseClosed {
		return ErrClosed
	}

	c.stopTimer(&c.sleepTimer)
	c.sleepGen++

	if minutes == 0 {
		c.timerStatus = TimerOff
		c.sendEventLocked(EventSleepTimerChanged)
		return nil
	}

	c.timerStatus = fmt.Sprintf("Timer: Pausing in %dm", minutes)
	gen := c.sleepGen
	c.sleepTimer = c.clock.AfterFunc(time.Duration(minutes)*time.Minute, func() {
		c.onSleepTimer(gen)
	})

	zlog.Info().Msgf("playback: sleep timer set: minutes=%d", minutes)
	c.sendEventLocked(EventSleepTimerChanged)
	return nil
}

// TogglePlay pauses if playing, plays otherwise.
func (c *Controller) TogglePlay() error {
	return c.withWidget(func(w Widget) {
		if w.State() == StatePlaying {
			w.Pause()
		} else {
			w.Play()
		}
	})
}

// Play resumes playback.
func (c *Controller) Play() error {
	return c.withWidget(func(w Widget) { w.Play() })
}

// Pause pauses playback.
func (c *Controller) Pause() error {
	return c.withWidget(func(w Widget) { w.Pause() })
}

// Previous steps to the previous item.
func (c *Controller) Previous() error {
	return c.withWidget(func(w Widget) { w.Previous() })
}

// Next steps to the next item.
func (c *Controller) Next() error {
	return c.withWidget(func(w Widget) { w.Next() })
}

// PlayIndex plays the item at index. There is no upper bound check since
// playlist lengths are only known once the widget reports them.
func (c *Controller) PlayIndex(index int) error {
	if index < 0 {
		return ErrInvalidIndex
	}
	return c.withWidget(func(w Widget) { w.PlayAt(index) })
}

// SeekTo seeks to an absolute position in seconds.
func (c *Controller) SeekTo(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return ErrInvalidSeek
	}
	return c.withWidget(func(w Widget) { w.SeekTo(seconds) })
}

// SeekBy seeks relative to the current position, clamped to the item bounds.
func (c *Controller) SeekBy(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return ErrInvalidSeek
	}
	return c.withWidget(func(w Widget) {
		target := w.CurrentTime() + delta
		if d := w.Duration(); d > 0 && target > d {
			target = d
		}
		if target < 0 {
			target = 0
		}
		w.SeekTo(target)
	})
}

// CurrentPlaylistID returns the id of the current playlist.
func (c *Controller) CurrentPlaylistID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playlist.ID
}

// IsSwitching reports whether a playlist switch is in flight.
func (c *Controller) IsSwitching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switching
}

// Phase returns the controller lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastSaved returns a copy of the most recently saved or restored record.
func (c *Controller) LastSaved() (progress.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSaved == nil {
		return progress.Record{}, false
	}
	return *c.lastSaved, true
}

// Status returns a snapshot of the display state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Close stops all timers and the periodic save. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseClosed {
		return
	}

	c.cancel()
	if c.saveTicker != nil {
		c.saveTicker.Stop()
		c.saveTicker = nil
	}
	c.stopTimer(&c.sleepTimer)
	c.stopTimer(&c.switchTimer)
	c.stopTimer(&c.autoPlayTimer)

	c.phase = PhaseClosed
	close(c.eventCh)
}

// withWidget runs fn against the widget once the controller is ready.
func (c *Controller) withWidget(fn func(w Widget)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseUninitialized:
		return ErrNotReady
	case PhaseClosed:
		return ErrClosed
	}
	fn(c.widget)
	return nil
}

// saveLocked writes the current position.
// Must be called with lock held.
func (c *Controller) saveLocked() bool {
	if c.phase != PhaseReady || c.switching {
		return false
	}

	// Only playing or paused positions are meaningful
	if !c.widget.State().IsSaveable() {
		return false
	}

	item := c.widget.VideoData()
	if !item.IsValid() {
		return false
	}

	index := c.widget.PlaylistIndex()
	if index < 0 {
		zlog.Debug().Msgf("playback: skipping save without playlist index: playlist=%s", c.playlist.ID)
		return false
	}

	rec := progress.Record{
		VideoID:     item.VideoID,
		Title:       item.Title,
		CurrentTime: math.Max(c.widget.CurrentTime(), 0),
		Index:       index,
		Timestamp:   c.clock.Now().UnixMilli(),
	}

	if err := c.store.SaveRecord(c.playlist.ID, rec); err != nil {
		zlog.Error().Msgf("playback: failed to save state: playlist=%s err=%v", c.playlist.ID, err)
		return false
	}

	c.lastSaved = &rec
	c.saveStatus = fmt.Sprintf("Saved at %s (%s)", progress.FormatPosition(rec.CurrentTime), c.clock.Now().Format(time.TimeOnly))
	c.sendEventLocked(EventSaved)
	return true
}

// refreshTitleLocked copies the widget's item title into the display.
// Must be called with lock held.
func (c *Controller) refreshTitleLocked() {
	if item := c.widget.VideoData(); item != nil && item.Title != "" {
		c.title = item.Title
	}
}

// publishNowPlayingLocked forwards item metadata to the media surface.
// Must be called with lock held.
func (c *Controller) publishNowPlayingLocked() {
	if c.publisher == nil {
		return
	}
	if item := c.widget.VideoData(); item.IsValid() {
		c.publisher.PublishNowPlaying(*item)
	}
}

// reconcileLengthLocked adopts the widget's playlist length if it differs.
// Must be called with lock held.
func (c *Controller) reconcileLengthLocked() {
	if c.playlist.Reconcile(c.widget.PlaylistLength()) {
		zlog.Debug().Msgf("playback: playlist length detected: playlist=%s length=%d", c.playlist.ID, c.playlist.Length)
		c.sendEventLocked(EventPlaylistLengthChanged)
	}
}

// clearSwitchingLocked ends an in-flight switch.
// Must be called with lock held.
func (c *Controller) clearSwitchingLocked() {
	if !c.switching {
		return
	}
	c.switching = false
	c.stopTimer(&c.switchTimer)
}

func (c *Controller) onAutoPlay(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseReady || gen != c.switchGen {
		return
	}
	c.autoPlayTimer = nil
	c.widget.Play()
}

func (c *Controller) onSwitchTimeout(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseReady || gen != c.switchGen {
		return
	}
	c.switchTimer = nil
	if !c.switching {
		return
	}

	zlog.Warn().Msgf("playback: switch timed out, resetting switching flag: playlist=%s", c.playlist.ID)
	c.switching = false
	c.sendEventLocked(EventSwitchTimedOut)
}

func (c *Controller) onSleepTimer(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseClosed || gen != c.sleepGen {
		return
	}
	c.sleepTimer = nil

	zlog.Info().Msg("playback: sleep timer fired, pausing")
	if c.phase == PhaseReady {
		c.saveLocked()
		c.widget.Pause()
	}
	c.timerStatus = TimerEnded
	c.sendEventLocked(EventSleepTimerFired)
}

// startSaveTickerLocked starts the periodic save.
// Must be called with lock held.
func (c *Controller) startSaveTickerLocked() {
	if c.config.SaveInterval <= 0 {
		return
	}
	ticker := c.clock.NewTicker(c.config.SaveInterval)
	c.saveTicker = ticker

	go func() {
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.Chan():
				c.SaveNow()
			}
		}
	}()
}

// stopTimer cancels a pending timer and clears the reference.
func (c *Controller) stopTimer(t *clockwork.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *Controller) statusLocked() Status {
	index := -1
	if c.phase == PhaseReady {
		index = c.widget.PlaylistIndex()
	}
	return Status{
		PlaylistID:       c.playlist.ID,
		State:            c.state,
		Title:            c.title,
		StatusText:       c.statusText,
		SaveStatus:       c.saveStatus,
		TimerStatus:      c.timerStatus,
		PlaylistLength:   c.playlist.Length,
		PlaylistIndex:    index,
		Switching:        c.switching,
		SleepTimerActive: c.sleepTimer != nil,
	}
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(t EventType) {
	if c.phase == PhaseClosed {
		return
	}
	e := Event{Type: t, Status: c.statusLocked()}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event; the next one carries a fresh snapshot
	}
}
