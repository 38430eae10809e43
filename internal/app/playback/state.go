// Package playback bridges an external player widget to persistent playback
// positions and owns the playlist-switch protocol.
package playback

// State represents the playback state reported by the widget.
type State int

const (
	StateUnstarted State = iota // Nothing loaded or not started yet
	StateEnded                  // Playlist finished
	StatePlaying                // Item is playing
	StatePaused                 // Item is paused
	StateBuffering              // Widget is fetching media
	StateCued                   // Item loaded but not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// IsSaveable reports whether a position taken in this state is worth persisting.
func (s State) IsSaveable() bool {
	return s == StatePlaying || s == StatePaused
}

// Phase represents the controller lifecycle.
type Phase int

const (
	PhaseUninitialized Phase = iota // Created, widget not ready yet
	PhaseReady                      // Initialized, accepting widget events
	PhaseClosed                     // Disposed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseReady:
		return "ready"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}
