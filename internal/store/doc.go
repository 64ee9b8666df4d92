// Package store owns the durable schedule list and the uploaded track
// library.
//
// Both live as plain JSON files (schedules.json / songs.json) so they stay
// hand-editable and diffable. Writes go through an atomic rename so a load
// never observes a partial write. A content fingerprint lets the engine skip
// rebuilds when a change notification fires without an actual change.
package store
