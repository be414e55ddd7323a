package journey

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a journey.
type Status int

const (
	StatusActive Status = iota + 1
	StatusCompleted
	StatusArchived
)

// ParseStatus maps a wire status onto the closed Status set, ignoring case.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "active":
		return StatusActive, nil
	case "completed":
		return StatusCompleted, nil
	case "archived":
		return StatusArchived, nil
	default:
		return 0, fmt.Errorf("unknown journey status %q", value)
	}
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Journey is a point-to-point distance goal as returned by the server.
type Journey struct {
	ID                 int64
	Name               string
	StartLabel         string
	DestLabel          string
	TotalDistanceMiles float64
	Status             Status
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartCoord         *Coordinate
	DestCoord          *Coordinate
}

// JourneyStatus returns the journey's status.
func (j Journey) JourneyStatus() Status {
	return j.Status
}

// ErrCompletionMismatch marks a completion time on a journey that is not completed.
var ErrCompletionMismatch = errors.New("completed_at set on a journey that is not completed")

// CheckCompletion reports a CompletedAt that disagrees with Status. Decoding
// keeps such journeys as sent; callers decide whether to surface the mismatch.
func (j Journey) CheckCompletion() error {
	if j.CompletedAt != nil && j.Status != StatusCompleted {
		return fmt.Errorf("journey %d is %s: %w", j.ID, j.Status, ErrCompletionMismatch)
	}
	return nil
}

// JourneyProgress is the server-computed progress view of a journey.
// PercentComplete is authoritative and never recomputed from distances.
type JourneyProgress struct {
	Journey
	DistanceCompletedMiles float64
	PercentComplete        float64
	LastMoodRating         *int
	LastActivityDate       *time.Time
}

// Run is a single logged activity.
type Run struct {
	ID            int64
	JourneyID     int64
	DistanceMiles float64
	Date          time.Time
	MoodRating    *int
	ActivityType  string
}

// ProgressLocation is the interpolated point along a journey's path.
type ProgressLocation struct {
	JourneyID              int64
	CurrentLat             float64
	CurrentLng             float64
	DistanceCompletedMiles float64
	PercentComplete        float64
}
