package playback

// EventType represents a controller event type.
type EventType int

const (
	EventStateChanged          EventType = iota // Widget state changed
	EventPlaylistChanged                        // Switched to another playlist
	EventPlaylistLengthChanged                  // Authoritative playlist length differs from cache
	EventSaved                                  // Playback position persisted
	EventSleepTimerChanged                      // Sleep timer armed or cleared
	EventSleepTimerFired                        // Sleep timer paused playback
	EventSwitchTimedOut                         // Switch safety deadline cleared the flag
	EventError                                  // Widget reported an error
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventPlaylistChanged:
		return "playlist_changed"
	case EventPlaylistLengthChanged:
		return "playlist_length_changed"
	case EventSaved:
		return "saved"
	case EventSleepTimerChanged:
		return "sleep_timer_changed"
	case EventSleepTimerFired:
		return "sleep_timer_fired"
	case EventSwitchTimedOut:
		return "switch_timed_out"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a controller event with the status at the time it was raised.
type Event struct {
	Type   EventType
	Status Status
}

// Status is a snapshot of everything the UI shell renders.
type Status struct {
	PlaylistID       string
	State            State
	Title            string
	StatusText       string
	SaveStatus       string
	TimerStatus      string
	PlaylistLength   int
	PlaylistIndex    int
	Switching        bool
	SleepTimerActive bool
}
