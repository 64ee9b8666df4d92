// Package engine turns stored schedules into amplifier triggers.
//
// # Overview
//
// A Schedule describes a recurring, date-bounded program ("weekly, Mon+Wed,
// 09:00-09:30, March 2nd through June 30th"). The engine expands each
// schedule into concrete calendar occurrences, indexes their trigger
// instants by unix second, and drives the actuator from a once-per-second
// tick: ON shortly before an occurrence starts (lead time for amplifier
// warm-up), OFF when it ends.
//
// # Pipeline
//
//   - expand.go: recurrence rule -> concrete (date, start, end) occurrences
//   - conflict.go: overlap check run before any schedule is accepted
//   - index.go: occurrences -> second-keyed start/end trigger maps
//   - dispatch.go: per-tick lookup, dedup, actuator calls
//   - reconcile.go: reload-prune-persist-reindex cycle
//
// # Consistency model
//
// The store file is the source of truth. The index and the triggered record
// are derived state, rebuilt wholesale (never patched) whenever the store
// changes. A rebuild requested while one is in flight is dropped; the next
// periodic sweep re-observes the same change, so nothing is lost. Event IDs
// are deterministic, so a rebuild never re-fires an already-triggered event.
//
// # Failure posture
//
// Nothing here is fatal. An unreadable store degrades to an empty schedule
// set, a malformed occurrence is skipped with a warning, and an unreachable
// actuator is logged without retry (blind retries risk an actuation storm;
// the triggered record expires on its own and the schedule condition is
// re-evaluated then).
package engine
