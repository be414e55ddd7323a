// Package progress derives display values from decoded journey records.
// Everything here is pure.
package progress

import (
	"math"

	"github.com/five82/journey/internal/journey"
)

// Percent returns the server's percent complete clamped to [0,1].
// The value is never recomputed from distances so it cannot drift from the
// server's rounding.
func Percent(p journey.JourneyProgress) float64 {
	return clamp01(p.PercentComplete)
}

// LocationPercent clamps a progress location's percent complete to [0,1].
func LocationPercent(loc journey.ProgressLocation) float64 {
	return clamp01(loc.PercentComplete)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// DistanceRemaining is total minus completed miles, floored at zero.
func DistanceRemaining(p journey.JourneyProgress) float64 {
	remaining := p.TotalDistanceMiles - p.DistanceCompletedMiles
	if math.IsNaN(remaining) || remaining < 0 {
		return 0
	}
	return remaining
}

// Statused is satisfied by journey.Journey and journey.JourneyProgress.
type Statused interface {
	JourneyStatus() journey.Status
}

// Groups holds the active and completed partitions of a journey list.
type Groups[T Statused] struct {
	Active    []T
	Completed []T
}

// Categorize splits journeys into active and completed, keeping input order.
// Archived journeys land in neither group.
func Categorize[T Statused](items []T) Groups[T] {
	var g Groups[T]
	for _, item := range items {
		switch item.JourneyStatus() {
		case journey.StatusActive:
			g.Active = append(g.Active, item)
		case journey.StatusCompleted:
			g.Completed = append(g.Completed, item)
		}
	}
	return g
}

// InterpolationEligible reports whether a progress-location fetch makes sense:
// the journey is active and both endpoints have coordinates.
func InterpolationEligible(j journey.Journey) bool {
	return j.Status == journey.StatusActive && j.StartCoord != nil && j.DestCoord != nil
}
