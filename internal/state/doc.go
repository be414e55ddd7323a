// Package state provides thread-safe state management for the journey watcher.
//
// # Overview
//
// Store holds the most recent journeys, per-journey progress and progress
// locations gathered by the background poller. Readers take a Snapshot on
// their own schedule.
//
//	Producer (Poller):               Consumer (watch output):
//	┌──────────────────┐            ┌──────────────────┐
//	│ app.Refresh()    │            │                  │
//	│      ↓           │            │                  │
//	│ store.Update()   │───────────→│ store.Snapshot() │
//	└──────────────────┘  (mutex)   └──────────────────┘
//
// # Update Semantics
//
//	// Success case: replace journeys, progress and locations
//	store.Update(view, nil)
//
//	// Error case: keep old data, record error
//	store.Update(nil, err)
//
// Each failure increments ConsecutiveFailures; a success resets it. Two
// failures in a row mark the snapshot offline. Reset clears all data and is
// used when the session ends, so stale progress is never shown after logout.
//
// Update and Snapshot both copy slices and maps, so a snapshot may be
// mutated freely by its reader.
//
// The zero Store is ready to use.
package state
