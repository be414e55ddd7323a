package cities

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/five82/journey/internal/journey"
)

// FallbackDistanceMiles is returned for city pairs missing from the curated
// distance table so any two known cities can still start a journey.
const FallbackDistanceMiles = 250.0

// City is a predefined journey endpoint.
type City struct {
	ID     string
	Name   string
	Region string
	Lat    float64
	Lng    float64
}

// Label renders the city the way journeys display endpoints.
func (c City) Label() string {
	return c.Name + ", " + c.Region
}

// Edge is a curated direct distance between two cities.
type Edge struct {
	From  string
	To    string
	Miles float64
}

type pair struct {
	a, b string
}

func key(a, b string) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// Graph is an immutable set of cities with a sparse, symmetric distance table.
type Graph struct {
	cities    map[string]City
	order     []string
	distances map[pair]float64
}

// New validates the city list and edges and builds a Graph.
func New(list []City, edges []Edge) (*Graph, error) {
	g := &Graph{
		cities:    make(map[string]City, len(list)),
		distances: make(map[pair]float64, len(edges)),
	}
	for _, c := range list {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return nil, fmt.Errorf("city %q has no id", c.Name)
		}
		if _, dup := g.cities[id]; dup {
			return nil, fmt.Errorf("duplicate city id %q", id)
		}
		c.ID = id
		g.cities[id] = c
		g.order = append(g.order, id)
	}
	for _, e := range edges {
		if _, ok := g.cities[e.From]; !ok {
			return nil, fmt.Errorf("edge references unknown city %q", e.From)
		}
		if _, ok := g.cities[e.To]; !ok {
			return nil, fmt.Errorf("edge references unknown city %q", e.To)
		}
		if e.From == e.To || e.Miles <= 0 {
			return nil, fmt.Errorf("invalid edge %s-%s (%.1f mi)", e.From, e.To, e.Miles)
		}
		g.distances[key(e.From, e.To)] = e.Miles
	}
	sort.Strings(g.order)
	return g, nil
}

var defaultGraph = sync.OnceValue(func() *Graph {
	g, err := New(defaultCities, defaultEdges)
	if err != nil {
		panic(fmt.Sprintf("cities: built-in table is invalid: %v", err))
	}
	return g
})

// Default returns the built-in city graph. It is built once per process.
func Default() *Graph {
	return defaultGraph()
}

// City looks up a city by id.
func (g *Graph) City(id string) (City, bool) {
	c, ok := g.cities[strings.TrimSpace(id)]
	return c, ok
}

// Cities returns all cities ordered by id.
func (g *Graph) Cities() []City {
	out := make([]City, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.cities[id])
	}
	return out
}

// Distance returns the curated miles between a and b, or FallbackDistanceMiles
// when the pair is not in the table. It is a direct lookup, not a path search.
func (g *Graph) Distance(a, b string) float64 {
	if a == b {
		return 0
	}
	if miles, ok := g.distances[key(a, b)]; ok {
		return miles
	}
	return FallbackDistanceMiles
}

// HasDistance reports whether the pair is in the curated table.
func (g *Graph) HasDistance(a, b string) bool {
	_, ok := g.distances[key(a, b)]
	return ok
}

// NewJourneyRequest builds a creation request between two known cities.
// An empty name becomes "Start → Dest".
func (g *Graph) NewJourneyRequest(startID, destID, name string) (journey.JourneyCreateRequest, error) {
	start, ok := g.City(startID)
	if !ok {
		return journey.JourneyCreateRequest{}, fmt.Errorf("unknown city %q", startID)
	}
	dest, ok := g.City(destID)
	if !ok {
		return journey.JourneyCreateRequest{}, fmt.Errorf("unknown city %q", destID)
	}
	if strings.TrimSpace(name) == "" {
		name = start.Name + " → " + dest.Name
	}
	req := journey.JourneyCreateRequest{
		Name:               name,
		StartCity:          start.ID,
		DestCity:           dest.ID,
		StartLabel:         start.Label(),
		DestLabel:          dest.Label(),
		TotalDistanceMiles: g.Distance(start.ID, dest.ID),
		StartLat:           &start.Lat,
		StartLng:           &start.Lng,
		DestLat:            &dest.Lat,
		DestLng:            &dest.Lng,
	}
	return req, req.Validate()
}
