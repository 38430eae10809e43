package main

import (
	"fmt"
	"io"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/sleepbox/internal/app/mediasession"
	"github.com/osa030/sleepbox/internal/app/notification"
	"github.com/osa030/sleepbox/internal/app/playback"
)

// consoleSurface is a media control surface backed by the terminal.
type consoleSurface struct {
	mu       sync.Mutex
	out      io.Writer
	handlers map[string]mediasession.Handler
}

func newConsoleSurface(out io.Writer) *consoleSurface {
	return &consoleSurface{
		out:      out,
		handlers: make(map[string]mediasession.Handler),
	}
}

// SetMetadata implements mediasession.Surface.
func (s *consoleSurface) SetMetadata(m mediasession.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "Now playing: %s (%s)\n", m.Title, m.Artist)
}

// SetActionHandler implements mediasession.Surface.
func (s *consoleSurface) SetActionHandler(action string, h mediasession.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = h
}

// Dispatch runs the handler registered for action.
func (s *consoleSurface) Dispatch(action string, details map[string]any) bool {
	s.mu.Lock()
	h, ok := s.handlers[action]
	s.mu.Unlock()

	if !ok {
		zlog.Debug().Msgf("No handler for media action: %s", action)
		return false
	}
	h(details)
	return true
}

// statusView prints status notifications and watches for the sleep timer.
type statusView struct {
	mu        sync.Mutex
	out       io.Writer
	last      string
	sleepOnce sync.Once
	sleepCh   chan struct{}
}

func newStatusView(out io.Writer) *statusView {
	return &statusView{
		out:     out,
		sleepCh: make(chan struct{}),
	}
}

// Send implements notification.Stream.
func (v *statusView) Send(n *notification.Notification) error {
	if n.Type == playback.EventSleepTimerFired {
		v.sleepOnce.Do(func() { close(v.sleepCh) })
	}

	line := formatStatusLine(n.Status)

	v.mu.Lock()
	defer v.mu.Unlock()
	// Saves and repeated states would flood the terminal
	if line == v.last {
		return nil
	}
	v.last = line
	_, err := fmt.Fprintln(v.out, line)
	return err
}

// SleepFired is closed once the sleep timer has paused playback.
func (v *statusView) SleepFired() <-chan struct{} {
	return v.sleepCh
}

func formatStatusLine(s playback.Status) string {
	line := fmt.Sprintf("[%s] %s", s.StatusText, s.Title)
	if s.PlaylistLength > 0 && s.PlaylistIndex >= 0 {
		line += fmt.Sprintf(" (%d/%d)", s.PlaylistIndex+1, s.PlaylistLength)
	}
	if s.SleepTimerActive {
		line += " | " + s.TimerStatus
	}
	if s.Switching {
		line += " | switching"
	}
	return line
}

func printStatus(out io.Writer, s playback.Status) {
	fmt.Fprintf(out, "Playlist: %s\n", s.PlaylistID)
	fmt.Fprintf(out, "Title:    %s\n", s.Title)
	fmt.Fprintf(out, "Status:   %s\n", s.StatusText)
	if s.PlaylistLength > 0 && s.PlaylistIndex >= 0 {
		fmt.Fprintf(out, "Item:     %d of %d\n", s.PlaylistIndex+1, s.PlaylistLength)
	}
	fmt.Fprintf(out, "Saved:    %s\n", s.SaveStatus)
	fmt.Fprintf(out, "%s\n", s.TimerStatus)
}
