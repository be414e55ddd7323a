// Package journeytest provides an in-process fake of the journey API for
// tests. It speaks the same snake_case JSON as the real server.
package journeytest

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// Default credentials accepted by a new Server.
const (
	Email    = "runner@example.com"
	Password = "hunter2"
	Token    = "test-token-abc123"
)

// Journey is the fake's wire record; it doubles as the progress view.
type Journey struct {
	ID                     int64    `json:"id"`
	Name                   string   `json:"name"`
	StartCity              string   `json:"start_city,omitempty"`
	DestCity               string   `json:"dest_city,omitempty"`
	StartLabel             string   `json:"start_label"`
	DestLabel              string   `json:"dest_label"`
	TotalDistanceMiles     float64  `json:"total_distance_miles"`
	Status                 string   `json:"status"`
	StartedAt              *string  `json:"started_at"`
	CompletedAt            *string  `json:"completed_at"`
	CreatedAt              string   `json:"created_at"`
	UpdatedAt              string   `json:"updated_at"`
	StartLat               *float64 `json:"start_lat"`
	StartLng               *float64 `json:"start_lng"`
	DestLat                *float64 `json:"dest_lat"`
	DestLng                *float64 `json:"dest_lng"`
	DistanceCompletedMiles float64  `json:"distance_completed_miles"`
	PercentComplete        float64  `json:"percent_complete"`
	LastMoodRating         *int     `json:"last_mood_rating"`
	LastActivityDate       *string  `json:"last_activity_date"`
}

// Run is the fake's wire run record.
type Run struct {
	ID            int64   `json:"id"`
	JourneyID     int64   `json:"journey_id"`
	DistanceMiles float64 `json:"distance_miles"`
	Date          string  `json:"date"`
	MoodRating    *int    `json:"mood_rating"`
	ActivityType  string  `json:"activity_type"`
}

type failure struct {
	status int
	body   string
}

// Server is a fake journey API backed by httptest.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	token      string
	tokenField string
	journeys   map[int64]*Journey
	runs       []Run
	nextID     int64
	calls      map[string]int
	headers    map[string]http.Header
	failures   map[string]failure
}

// NewServer starts a fake and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		token:      Token,
		tokenField: "access_token",
		journeys:   make(map[int64]*Journey),
		nextID:     1,
		calls:      make(map[string]int),
		headers:    make(map[string]http.Header),
		failures:   make(map[string]failure),
	}

	r := mux.NewRouter()
	r.Use(s.record)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/journeys/current", s.handleCurrent).Methods(http.MethodGet)
	authed.HandleFunc("/journeys", s.handleList).Methods(http.MethodGet)
	authed.HandleFunc("/journeys", s.handleCreateJourney).Methods(http.MethodPost)
	authed.HandleFunc("/journeys/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	authed.HandleFunc("/journeys/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	authed.HandleFunc("/journeys/{id:[0-9]+}/progress-location", s.handleLocation).Methods(http.MethodGet)
	authed.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetTokenField changes the JSON field login responses carry the token in.
func (s *Server) SetTokenField(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenField = name
}

// RevokeToken makes every authenticated request fail with 401.
func (s *Server) RevokeToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Fail makes "METHOD /api/v1/template" answer status with body until cleared
// by Fail(route, 0, "").
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = failure{status: status, body: body}
}

// AddJourney stores j, assigning an id when j.ID is zero, and returns the id.
func (s *Server) AddJourney(j Journey) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == 0 {
		j.ID = s.nextID
	}
	if j.ID >= s.nextID {
		s.nextID = j.ID + 1
	}
	if j.CreatedAt == "" {
		j.CreatedAt = "2025-12-06T13:39:09.401345"
	}
	if j.UpdatedAt == "" {
		j.UpdatedAt = j.CreatedAt
	}
	s.journeys[j.ID] = &j
	return j.ID
}

// Journey returns a copy of the stored journey.
func (s *Server) Journey(id int64) (Journey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[id]
	if !ok {
		return Journey{}, false
	}
	return *j, true
}

// Runs returns the runs logged so far.
func (s *Server) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Run(nil), s.runs...)
}

// Calls returns how many requests hit route ("METHOD /api/v1/template").
// An empty route returns the total.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if route == "" {
		total := 0
		for _, n := range s.calls {
			total += n
		}
		return total
	}
	return s.calls[route]
}

// LastHeaders returns the headers of the most recent request to route.
func (s *Server) LastHeaders(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route].Clone()
}

func routeName(r *http.Request) string {
	path := r.URL.Path
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			path = tmpl
		}
	}
	// Strip id patterns so callers can write /journeys/{id}.
	path = strings.ReplaceAll(path, "{id:[0-9]+}", "{id}")
	return r.Method + " " + path
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeName(r)
		s.mu.Lock()
		s.calls[route]++
		s.headers[route] = r.Header.Clone()
		f, failing := s.failures[route]
		s.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := s.token
		s.mu.Unlock()
		if want == "" || r.Header.Get("Authorization") != "Bearer "+want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "invalid body"}}})
		return
	}
	if body.Email != Email || body.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	s.mu.Lock()
	s.token = Token
	field := s.tokenField
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{field: Token, "token_type": "bearer"})
}

func (s *Server) sorted() []Journey {
	ids := make([]int64, 0, len(s.journeys))
	for id := range s.journeys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Journey, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.journeys[id])
	}
	return out
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.sorted() {
		if j.Status == "active" {
			writeJSON(w, http.StatusOK, j)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No active journey"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sorted())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Journey, bool) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	j, ok := s.journeys[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Journey not found"})
	}
	return j, ok
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, j)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.lookup(w, r); ok {
		delete(s.journeys, j.ID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if j.StartLat == nil || j.StartLng == nil || j.DestLat == nil || j.DestLng == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Journey has no coordinates"})
		return
	}
	f := j.PercentComplete
	writeJSON(w, http.StatusOK, map[string]any{
		"journey_id":               j.ID,
		"current_lat":              *j.StartLat + (*j.DestLat-*j.StartLat)*f,
		"current_lng":              *j.StartLng + (*j.DestLng-*j.StartLng)*f,
		"distance_completed_miles": j.DistanceCompletedMiles,
		"percent_complete":         f,
	})
}

func (s *Server) handleCreateJourney(w http.ResponseWriter, r *http.Request) {
	var j Journey
	if err := json.NewDecoder(r.Body).Decode(&j); err != nil || j.TotalDistanceMiles <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "invalid journey"}}})
		return
	}
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000000")
	j.ID = 0
	j.Status = "active"
	j.StartedAt = &now
	j.CreatedAt = now
	j.UpdatedAt = now
	id := s.AddJourney(j)

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.journeys[id])
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var run Run
	if err := json.NewDecoder(r.Body).Decode(&run); err != nil || run.DistanceMiles <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "invalid run"}}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journeys[run.JourneyID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Journey not found"})
		return
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)

	j.DistanceCompletedMiles = math.Min(j.DistanceCompletedMiles+run.DistanceMiles, j.TotalDistanceMiles)
	j.PercentComplete = math.Round(j.DistanceCompletedMiles/j.TotalDistanceMiles*1000) / 1000
	j.LastMoodRating = run.MoodRating
	date := run.Date
	j.LastActivityDate = &date
	if j.DistanceCompletedMiles >= j.TotalDistanceMiles {
		j.Status = "completed"
		done := run.Date + "T00:00:00Z"
		j.CompletedAt = &done
	}
	writeJSON(w, http.StatusCreated, run)
}
