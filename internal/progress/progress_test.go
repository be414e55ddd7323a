package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/journey/internal/journey"
)

func TestPercent_Clamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.012, 0.012},
		{-0.5, 0},
		{1.7, 1},
		{math.NaN(), 0},
		{1, 1},
	}
	for _, tt := range tests {
		got := Percent(journey.JourneyProgress{PercentComplete: tt.in})
		assert.Equal(t, tt.want, got, "Percent(%v)", tt.in)
	}
	assert.Equal(t, 1.0, LocationPercent(journey.ProgressLocation{PercentComplete: 3}))
}

func TestPercent_NotRecomputedFromDistance(t *testing.T) {
	p := journey.JourneyProgress{
		Journey:                journey.Journey{TotalDistanceMiles: 250},
		DistanceCompletedMiles: 3,
		PercentComplete:        0.012,
	}
	assert.Equal(t, 0.012, Percent(p))
}

func TestDistanceRemaining_NeverNegative(t *testing.T) {
	for _, done := range []float64{0, 1, 249.9, 250, 251, 10000} {
		p := journey.JourneyProgress{
			Journey:                journey.Journey{TotalDistanceMiles: 250},
			DistanceCompletedMiles: done,
		}
		got := DistanceRemaining(p)
		assert.GreaterOrEqual(t, got, 0.0, "done=%v", done)
		if done <= 250 {
			assert.InDelta(t, 250-done, got, 1e-9)
		}
	}
}

func TestCategorize_Partition(t *testing.T) {
	list := []journey.Journey{
		{ID: 1, Status: journey.StatusActive},
		{ID: 2, Status: journey.StatusCompleted},
		{ID: 3, Status: journey.StatusArchived},
		{ID: 4, Status: journey.StatusActive},
	}
	g := Categorize(list)

	ids := func(js []journey.Journey) []int64 {
		var out []int64
		for _, j := range js {
			out = append(out, j.ID)
		}
		return out
	}
	assert.Equal(t, []int64{1, 4}, ids(g.Active))
	assert.Equal(t, []int64{2}, ids(g.Completed))
	assert.Equal(t, 3, len(g.Active)+len(g.Completed))
}

func TestCategorize_WorksOnProgress(t *testing.T) {
	list := []journey.JourneyProgress{
		{Journey: journey.Journey{ID: 1, Status: journey.StatusCompleted}},
		{Journey: journey.Journey{ID: 2, Status: journey.StatusArchived}},
	}
	g := Categorize(list)
	assert.Empty(t, g.Active)
	assert.Len(t, g.Completed, 1)
}

func TestInterpolationEligible(t *testing.T) {
	coord := &journey.Coordinate{Lat: 1, Lng: 2}
	assert.True(t, InterpolationEligible(journey.Journey{Status: journey.StatusActive, StartCoord: coord, DestCoord: coord}))
	assert.False(t, InterpolationEligible(journey.Journey{Status: journey.StatusActive, StartCoord: coord}))
	assert.False(t, InterpolationEligible(journey.Journey{Status: journey.StatusCompleted, StartCoord: coord, DestCoord: coord}))
}
