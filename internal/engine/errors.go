package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOccurrences is returned when a schedule's date range yields
	// nothing (e.g. weekly repeat whose weekdays never fall in range).
	ErrNoOccurrences = errors.New("no valid occurrences in range")

	ErrNotFound = errors.New("schedule not found")

	// ErrConflict is the sentinel matched by errors.Is for ConflictError.
	ErrConflict = errors.New("schedule conflict")
)

// ConflictError rejects a proposed schedule that overlaps an existing one.
// The CRUD layer maps it to 409.
type ConflictError struct {
	With Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict: overlaps %q on %s (%s-%s)",
		e.With.ScheduleName, e.With.Date, e.With.StartTime, e.With.EndTime)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
