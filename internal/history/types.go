// Package history provides an optional audit log of dispatched triggers.
//
// It answers "what did the amplifier actually do last night" after the
// in-memory triggered record has long been garbage-collected.
package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the trigger log.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TriggerEntry records one dispatched trigger.
// Keep it compact and schema-stable.
type TriggerEntry struct {
	At           time.Time
	EventID      string
	ScheduleID   int64
	ScheduleName string
	Kind         string // "on" | "off"
	Date         string
	StartTime    string
	EndTime      string
	SendError    string
}
