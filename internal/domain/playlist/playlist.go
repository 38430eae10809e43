// Package playlist provides the Playlist domain entity.
package playlist

// UnknownLength marks a playlist whose item count has not been detected yet.
const UnknownLength = 0

// Playlist represents an ordered collection of media items on the external platform.
type Playlist struct {
	ID     string // Opaque playlist identifier
	Length int    // Number of items, UnknownLength until the widget reports it
}

// New returns a playlist with an undetected length.
func New(id string) Playlist {
	return Playlist{ID: id, Length: UnknownLength}
}

// Reconcile stores the authoritative length reported by the widget.
// Returns true if the cached value changed and listings need re-rendering.
func (p *Playlist) Reconcile(length int) bool {
	if length <= 0 || length == p.Length {
		return false
	}
	p.Length = length
	return true
}

// ResetLength puts the length back to the sentinel so it is re-detected.
func (p *Playlist) ResetLength() {
	p.Length = UnknownLength
}
