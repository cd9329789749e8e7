package cache

import (
	"github.com/c360/ontosim/errors"
)

// Cache is a generic key/value cache.
type Cache[K comparable, V any] interface {
	// Get returns the value for key and marks it recently used.
	Get(key K) (V, bool)

	// Set stores value under key. It reports whether a new entry was created.
	Set(key K, value V) (bool, error)

	// Delete removes key and reports whether it was present.
	Delete(key K) (bool, error)

	// Clear removes every entry.
	Clear()

	// Size returns the number of entries.
	Size() int

	// Keys returns the keys from most to least recently used.
	Keys() []K

	// Stats returns the live statistics of the cache. Never nil.
	Stats() *Statistics
}

// EvictCallback is called when an entry leaves the cache through eviction,
// Delete or Clear.
type EvictCallback[K comparable, V any] func(key K, value V)

// validateKey rejects the zero key, e.g. "" for string keys.
func validateKey[K comparable](key K) error {
	var zero K
	if key == zero {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be the zero value")
	}
	return nil
}
