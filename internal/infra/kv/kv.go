// Package kv provides origin-scoped string key-value stores.
package kv

import "github.com/cockroachdb/errors"

// ErrClosed is returned when a store is used after Close.
var ErrClosed = errors.New("kv: store closed")

// Store is a synchronous string-keyed store scoped to a single origin.
type Store interface {
	// Get returns the value for key, or false if absent.
	Get(key string) (string, bool, error)
	// Set overwrites the value for key.
	Set(key, value string) error
	// Delete removes key. Removing an absent key is not an error.
	Delete(key string) error
}
