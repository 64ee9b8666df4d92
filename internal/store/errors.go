package store

import "errors"

var (
	// ErrUnavailable marks a backing medium that is missing or corrupt.
	// Callers degrade to an empty set rather than crash.
	ErrUnavailable = errors.New("store unavailable")

	ErrNotFound = errors.New("not found")

	// ErrNoChange aborts a Mutate without saving; the store is untouched
	// and Mutate returns nil.
	ErrNoChange = errors.New("no change")
)
