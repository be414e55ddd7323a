package state

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/five82/journey/internal/journey"
)

// View is the data gathered by one successful refresh.
type View struct {
	Journeys  []journey.Journey
	Progress  map[int64]journey.JourneyProgress
	Locations map[int64]journey.ProgressLocation
}

// Snapshot represents the latest data available to readers.
type Snapshot struct {
	Journeys            []journey.Journey
	Progress            map[int64]journey.JourneyProgress
	Locations           map[int64]journey.ProgressLocation
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ProgressFor returns the cached progress for a journey.
func (s Snapshot) ProgressFor(id int64) (journey.JourneyProgress, bool) {
	p, ok := s.Progress[id]
	return p, ok
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(view *View, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if view != nil {
		s.snapshot.Journeys = slices.Clone(view.Journeys)
		s.snapshot.Progress = maps.Clone(view.Progress)
		s.snapshot.Locations = maps.Clone(view.Locations)
		s.snapshot.HasData = true
	} else {
		s.snapshot.Journeys = nil
		s.snapshot.Progress = nil
		s.snapshot.Locations = nil
		s.snapshot.HasData = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Reset drops all cached data, e.g. after the session expires.
func (s *Store) Reset(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{LastError: err, LastUpdated: time.Now()}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Journeys = slices.Clone(s.snapshot.Journeys)
	snap.Progress = maps.Clone(s.snapshot.Progress)
	snap.Locations = maps.Clone(s.snapshot.Locations)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
