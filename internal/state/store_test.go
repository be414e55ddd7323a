package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/journey/internal/journey"
)

func sampleView() *View {
	return &View{
		Journeys: []journey.Journey{{ID: 1, Status: journey.StatusActive}, {ID: 2, Status: journey.StatusCompleted}},
		Progress: map[int64]journey.JourneyProgress{
			1: {Journey: journey.Journey{ID: 1}, PercentComplete: 0.012},
		},
		Locations: map[int64]journey.ProgressLocation{
			1: {JourneyID: 1, CurrentLat: 35.2},
		},
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(sampleView(), nil)

	snap := s.Snapshot()
	if !snap.HasData || len(snap.Journeys) != 2 || snap.Journeys[0].ID != 1 {
		t.Fatalf("snapshot journeys = %#v, want 2 items", snap.Journeys)
	}
	if p, ok := snap.ProgressFor(1); !ok || p.PercentComplete != 0.012 {
		t.Fatalf("ProgressFor(1) = %#v, %v", p, ok)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Journeys[0].ID = 999
	snap.Progress[1] = journey.JourneyProgress{PercentComplete: 1}
	delete(snap.Locations, 1)
	snap2 := s.Snapshot()
	if snap2.Journeys[0].ID != 1 {
		t.Fatalf("Snapshot should clone journeys; got id %d want 1", snap2.Journeys[0].ID)
	}
	if snap2.Progress[1].PercentComplete != 0.012 {
		t.Fatalf("Snapshot should clone progress; got %v", snap2.Progress[1].PercentComplete)
	}
	if _, ok := snap2.Locations[1]; !ok {
		t.Fatal("Snapshot should clone locations")
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(sampleView(), nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Journeys, prev.Journeys) {
		t.Fatalf("journeys changed on error: got %#v want %#v", snap.Journeys, prev.Journeys)
	}
	if !snap.HasData {
		t.Fatal("HasData = false after error, want previous data kept")
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatal("LastError should wrap the original error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_Reset(t *testing.T) {
	var s Store
	s.Update(sampleView(), nil)

	s.Reset(errors.New("logged out"))
	snap := s.Snapshot()
	if snap.HasData || len(snap.Journeys) != 0 || len(snap.Progress) != 0 {
		t.Fatalf("Reset kept data: %#v", snap)
	}
	if snap.LastError == nil || snap.LastError.Error() != "logged out" {
		t.Fatalf("LastError = %v, want logged out", snap.LastError)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update(nil, errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	// Second failure - now offline
	s.Update(nil, errors.New("fail 2"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	// Success resets counter
	s.Update(&View{}, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
