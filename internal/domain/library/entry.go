// Package library provides the user's saved playlist library.
package library

import (
	"strings"
	"time"
)

// DefaultName is used when an entry is added without a label.
const DefaultName = "Untitled"

// Entry represents one user-added playlist.
type Entry struct {
	ID      string `json:"id"`      // Playlist identifier
	Name    string `json:"name"`    // User-supplied label
	AddedAt int64  `json:"addedAt"` // Epoch milliseconds
}

// NewEntry creates an entry, falling back to DefaultName for a blank label.
func NewEntry(id, name string, addedAt time.Time) Entry {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return Entry{
		ID:      id,
		Name:    name,
		AddedAt: addedAt.UnixMilli(),
	}
}

// Added returns when the entry was added.
func (e Entry) Added() time.Time {
	return time.UnixMilli(e.AddedAt)
}

// Library is the ordered list of entries, oldest first.
type Library []Entry

// Find returns the entry with the given id.
func (l Library) Find(id string) (Entry, bool) {
	for _, e := range l {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Contains checks if an entry with the given id exists.
func (l Library) Contains(id string) bool {
	_, ok := l.Find(id)
	return ok
}

// Without returns a copy of the library with the given id removed.
func (l Library) Without(id string) Library {
	result := make(Library, 0, len(l))
	for _, e := range l {
		if e.ID != id {
			result = append(result, e)
		}
	}
	return result
}
