// Package widget provides an in-process player widget that simulates
// playlist playback on a clock.
package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/app/playback"
	"github.com/osa030/sleepbox/internal/domain/media"
)

// ErrorInvalidParameter mirrors the embed player's "invalid parameter" code.
const ErrorInvalidParameter = 2

// Callbacks receives widget events.
type Callbacks interface {
	HandleStateChange(state playback.State)
	HandleError(code int)
}

// Options configures the simulator.
type Options struct {
	PlaylistLength int           // Items per playlist
	ItemDuration   time.Duration // Length of every item
	LoadDelay      time.Duration // Time to load or cue a playlist
	Clock          clockwork.Clock
}

// callback is a queued event for asynchronous delivery.
type callback struct {
	state   playback.State
	errCode int
}

// Simulator implements playback.Widget. Events are delivered on a separate
// goroutine so callbacks never run inside a widget call.
type Simulator struct {
	mu   sync.Mutex
	opts Options

	playlistID string
	loaded     bool
	index      int
	position   float64   // Seconds at anchor
	anchor     time.Time // When the current play stretch started
	state      playback.State

	// Generations invalidate timer callbacks that fired but lost the race
	// for the lock against a cancel.
	loadTimer clockwork.Timer
	loadGen   uint64
	endTimer  clockwork.Timer
	endGen    uint64

	events chan callback
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a simulator. Call Attach to start delivering events.
func New(opts Options) *Simulator {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.PlaylistLength <= 0 {
		opts.PlaylistLength = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		opts:   opts,
		index:  -1,
		state:  playback.StateUnstarted,
		events: make(chan callback, 64),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Attach starts delivering events to cb.
func (s *Simulator) Attach(cb Callbacks) {
	go func() {
		for {
			select {
			case <-s.ctx.Done():
				return
			case e := <-s.events:
				if e.errCode != 0 {
					cb.HandleError(e.errCode)
				} else {
					cb.HandleStateChange(e.state)
				}
			}
		}
	}()
}

// Close stops timers and event delivery.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimersLocked()
	s.cancel()
}

// LoadPlaylist loads a playlist at an item and offset and starts playing.
func (s *Simulator) LoadPlaylist(playlistID string, index int, startSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playlistID == "" {
		s.emitErrorLocked(ErrorInvalidParameter)
		return
	}

	s.stopTimersLocked()
	s.playlistID = playlistID
	s.loaded = false
	s.index = s.clampIndex(index)
	s.position = s.clampPosition(startSeconds)
	s.setStateLocked(playback.StateBuffering)

	gen := s.loadGen
	s.loadTimer = s.opts.Clock.AfterFunc(s.opts.LoadDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.loadGen {
			return
		}
		s.loadTimer = nil
		s.loaded = true
		s.startPlayingLocked()
	})
}

// CuePlaylist loads a playlist without playing it.
func (s *Simulator) CuePlaylist(playlistID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playlistID == "" {
		s.emitErrorLocked(ErrorInvalidParameter)
		return
	}

	s.stopTimersLocked()
	s.playlistID = playlistID
	s.loaded = false
	s.index = 0
	s.position = 0
	// Reported once the cue completes
	s.state = playback.StateUnstarted

	gen := s.loadGen
	s.loadTimer = s.opts.Clock.AfterFunc(s.opts.LoadDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.loadGen {
			return
		}
		s.loadTimer = nil
		s.loaded = true
		s.setStateLocked(playback.StateCued)
	})
}

// Play starts or resumes playback.
func (s *Simulator) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playlistID == "" || s.state == playback.StatePlaying {
		return
	}
	// A pending load or cue is overtaken by this play
	s.stopLoadLocked()
	s.loaded = true
	if s.state == playback.StateEnded {
		s.index = 0
		s.position = 0
	}
	s.startPlayingLocked()
}

// Pause pauses playback.
func (s *Simulator) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != playback.StatePlaying {
		return
	}
	s.position = s.currentTimeLocked()
	s.stopEndLocked()
	s.setStateLocked(playback.StatePaused)
}

// Stop halts playback and rewinds the current item.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playlistID == "" {
		return
	}
	s.stopTimersLocked()
	s.position = 0
	// Silent: a stop is always followed by a load or cue that reports its own state
	s.state = playback.StateUnstarted
}

// SeekTo moves to an absolute position within the current item.
func (s *Simulator) SeekTo(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return
	}
	s.position = s.clampPosition(seconds)
	if s.state == playback.StatePlaying {
		s.anchor = s.opts.Clock.Now()
		s.scheduleEndLocked()
	}
}

// Previous steps to the previous item.
func (s *Simulator) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.jumpLocked(s.index - 1)
	}
}

// Next steps to the next item.
func (s *Simulator) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.jumpLocked(s.index + 1)
	}
}

// PlayAt plays the item at index.
func (s *Simulator) PlayAt(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.jumpLocked(index)
	}
}

// CurrentTime returns the position in the current item in seconds.
func (s *Simulator) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTimeLocked()
}

// Duration returns the length of the current item in seconds.
func (s *Simulator) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0
	}
	return s.opts.ItemDuration.Seconds()
}

// State returns the current state.
func (s *Simulator) State() playback.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// VideoData returns the current item, or nil if nothing is loaded.
func (s *Simulator) VideoData() *media.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.index < 0 {
		return nil
	}
	return &media.Item{
		VideoID: fmt.Sprintf("%s-%03d", s.playlistID, s.index),
		Title:   fmt.Sprintf("Episode %d", s.index+1),
		Author:  "Simulator",
	}
}

// PlaylistIndex returns the current item index, or -1 if nothing is loaded.
func (s *Simulator) PlaylistIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return -1
	}
	return s.index
}

// PlaylistLength returns the number of items, or 0 while loading.
func (s *Simulator) PlaylistLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0
	}
	return s.opts.PlaylistLength
}

// jumpLocked starts playing another item from the beginning.
// Must be called with lock held.
func (s *Simulator) jumpLocked(index int) {
	s.index = s.clampIndex(index)
	s.position = 0
	s.startPlayingLocked()
}

// startPlayingLocked enters the playing state and schedules the item end.
// Must be called with lock held.
func (s *Simulator) startPlayingLocked() {
	s.anchor = s.opts.Clock.Now()
	s.scheduleEndLocked()
	s.setStateLocked(playback.StatePlaying)
}

// scheduleEndLocked (re)arms the timer for the end of the current item.
// Must be called with lock held.
func (s *Simulator) scheduleEndLocked() {
	s.stopEndLocked()
	remaining := s.opts.ItemDuration - time.Duration(s.position*float64(time.Second))
	if remaining < 0 {
		remaining = 0
	}
	gen := s.endGen
	s.endTimer = s.opts.Clock.AfterFunc(remaining, func() {
		s.onItemEnd(gen)
	})
}

func (s *Simulator) onItemEnd(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.endGen || s.state != playback.StatePlaying {
		return
	}
	s.endTimer = nil

	if s.index+1 >= s.opts.PlaylistLength {
		s.position = s.opts.ItemDuration.Seconds()
		s.setStateLocked(playback.StateEnded)
		return
	}

	s.index++
	s.position = 0
	s.anchor = s.opts.Clock.Now()
	s.scheduleEndLocked()
	// Re-announce so listeners pick up the new item
	s.emitLocked(callback{state: playback.StatePlaying})
}

func (s *Simulator) currentTimeLocked() float64 {
	if s.state != playback.StatePlaying {
		return s.position
	}
	elapsed := s.opts.Clock.Since(s.anchor).Seconds()
	return s.clampPosition(s.position + elapsed)
}

func (s *Simulator) clampIndex(index int) int {
	if index < 0 {
		return 0
	}
	if index >= s.opts.PlaylistLength {
		return s.opts.PlaylistLength - 1
	}
	return index
}

func (s *Simulator) clampPosition(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if limit := s.opts.ItemDuration.Seconds(); seconds > limit {
		return limit
	}
	return seconds
}

func (s *Simulator) setStateLocked(state playback.State) {
	s.state = state
	s.emitLocked(callback{state: state})
}

func (s *Simulator) emitErrorLocked(code int) {
	s.emitLocked(callback{errCode: code})
}

func (s *Simulator) emitLocked(e callback) {
	select {
	case s.events <- e:
	default:
		zlog.Warn().Msgf("widget: event queue full, dropping event: state=%s", e.state)
	}
}

func (s *Simulator) stopTimersLocked() {
	s.stopLoadLocked()
	s.stopEndLocked()
}

func (s *Simulator) stopLoadLocked() {
	s.stopTimer(&s.loadTimer)
	s.loadGen++
}

func (s *Simulator) stopEndLocked() {
	s.stopTimer(&s.endTimer)
	s.endGen++
}

func (s *Simulator) stopTimer(t *clockwork.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
