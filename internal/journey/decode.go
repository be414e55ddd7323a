package journey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	maxRawFragment = 120
	// 2^63; int64 seconds cannot hold anything at or beyond it.
	maxEpochSeconds = 1 << 63
)

// ErrNoToken reports a login body without any recognised token field.
var ErrNoToken = errors.New("no access token in response")

// tokenFields are checked in order; the first non-empty string wins.
var tokenFields = []string{"access_token", "accessToken", "token", "auth_token"}

// DecodeError reports a response body that did not match any accepted shape.
type DecodeError struct {
	Reason string
	Raw    string
}

func (e *DecodeError) Error() string {
	if e.Raw == "" {
		return "decode response: " + e.Reason
	}
	return fmt.Sprintf("decode response: %s (near %q)", e.Reason, e.Raw)
}

func newDecodeError(reason string, raw []byte) *DecodeError {
	return &DecodeError{Reason: reason, Raw: fragment(raw)}
}

func fragment(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > maxRawFragment {
		raw = raw[:maxRawFragment]
	}
	return string(raw)
}

type timeParser struct {
	name  string
	parse func(string) (time.Time, error)
}

// timeParsers run in order. Longer, more precise layouts come first so a
// looser layout never truncates a value a stricter one would have kept.
var timeParsers = []timeParser{
	{"iso8601 with offset and fraction", func(v string) (time.Time, error) {
		if !strings.ContainsAny(v, ".,") {
			return time.Time{}, errors.New("no fractional seconds")
		}
		return time.Parse("2006-01-02T15:04:05.999999999Z07:00", v)
	}},
	{"iso8601 with offset", func(v string) (time.Time, error) {
		return time.Parse(time.RFC3339, v)
	}},
	{"naive microseconds", naiveLayout("2006-01-02T15:04:05.000000")},
	{"naive milliseconds", naiveLayout("2006-01-02T15:04:05.000")},
	{"calendar date", naiveLayout(dateLayout)},
	{"epoch seconds", func(v string) (time.Time, error) {
		if !isDecimal(v) {
			return time.Time{}, errors.New("not a decimal number")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return time.Time{}, err
		}
		return epoch(f)
	}},
}

func naiveLayout(layout string) func(string) (time.Time, error) {
	return func(v string) (time.Time, error) {
		return time.ParseInLocation(layout, v, time.UTC)
	}
}

func epoch(seconds float64) (time.Time, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, errors.New("not a finite number")
	}
	whole, frac := math.Modf(seconds)
	if whole >= maxEpochSeconds || whole < -maxEpochSeconds {
		return time.Time{}, errors.New("epoch seconds out of range")
	}
	// float64 cannot carry nanoseconds at current epoch magnitudes.
	micros := int64(math.Round(frac * 1e6))
	return time.Unix(int64(whole), micros*int64(time.Microsecond)).UTC(), nil
}

// isDecimal accepts plain decimal numbers with an optional exponent. Hex
// floats, Inf and NaN spellings that strconv also parses are rejected.
func isDecimal(v string) bool {
	if v == "" {
		return false
	}
	digits := false
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case strings.ContainsRune("+-.eE", r):
		default:
			return false
		}
	}
	return digits
}

// ParseTime decodes a server timestamp using the first layout that accepts it.
func ParseTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, p := range timeParsers {
		if t, err := p.parse(trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newDecodeError("unrecognized date string", []byte(value))
}

// timestamp accepts any encoding ParseTime understands plus bare JSON numbers.
type timestamp struct {
	time.Time
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return newDecodeError("invalid date string", trimmed)
		}
		t, err := ParseTime(s)
		if err != nil {
			return err
		}
		ts.Time = t
		return nil
	}
	f, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return newDecodeError("cannot decode date", trimmed)
	}
	t, err := epoch(f)
	if err != nil {
		return newDecodeError("cannot decode date", trimmed)
	}
	ts.Time = t
	return nil
}

func (ts *timestamp) ptr() *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

func (ts *timestamp) value() time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.Time
}

type journeyPayload struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	StartLabel         string     `json:"start_label"`
	DestLabel          string     `json:"dest_label"`
	TotalDistanceMiles float64    `json:"total_distance_miles"`
	Status             string     `json:"status"`
	StartedAt          *timestamp `json:"started_at"`
	CompletedAt        *timestamp `json:"completed_at"`
	CreatedAt          *timestamp `json:"created_at"`
	UpdatedAt          *timestamp `json:"updated_at"`
	StartLat           *float64   `json:"start_lat"`
	StartLng           *float64   `json:"start_lng"`
	DestLat            *float64   `json:"dest_lat"`
	DestLng            *float64   `json:"dest_lng"`
}

func (p journeyPayload) journey() (Journey, error) {
	status, err := ParseStatus(p.Status)
	if err != nil {
		return Journey{}, &DecodeError{Reason: err.Error(), Raw: p.Status}
	}
	return Journey{
		ID:                 p.ID,
		Name:               p.Name,
		StartLabel:         p.StartLabel,
		DestLabel:          p.DestLabel,
		TotalDistanceMiles: p.TotalDistanceMiles,
		Status:             status,
		StartedAt:          p.StartedAt.ptr(),
		CompletedAt:        p.CompletedAt.ptr(),
		CreatedAt:          p.CreatedAt.value(),
		UpdatedAt:          p.UpdatedAt.value(),
		StartCoord:         coordinate(p.StartLat, p.StartLng),
		DestCoord:          coordinate(p.DestLat, p.DestLng),
	}, nil
}

func coordinate(lat, lng *float64) *Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	return &Coordinate{Lat: *lat, Lng: *lng}
}

type progressPayload struct {
	journeyPayload
	DistanceCompletedMiles float64    `json:"distance_completed_miles"`
	PercentComplete        float64    `json:"percent_complete"`
	LastMoodRating         *int       `json:"last_mood_rating"`
	LastActivityDate       *timestamp `json:"last_activity_date"`
}

type runPayload struct {
	ID            int64      `json:"id"`
	JourneyID     int64      `json:"journey_id"`
	DistanceMiles float64    `json:"distance_miles"`
	Date          *timestamp `json:"date"`
	MoodRating    *int       `json:"mood_rating"`
	ActivityType  string     `json:"activity_type"`
}

type locationPayload struct {
	JourneyID              int64   `json:"journey_id"`
	CurrentLat             float64 `json:"current_lat"`
	CurrentLng             float64 `json:"current_lng"`
	DistanceCompletedMiles float64 `json:"distance_completed_miles"`
	PercentComplete        float64 `json:"percent_complete"`
}

func unmarshal(data []byte, dest any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodeError{Reason: "empty response body"}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return de
		}
		return newDecodeError(err.Error(), data)
	}
	return nil
}

// DecodeJourney decodes a single journey record.
func DecodeJourney(data []byte) (Journey, error) {
	var p journeyPayload
	if err := unmarshal(data, &p); err != nil {
		return Journey{}, err
	}
	return p.journey()
}

// DecodeJourneys decodes a journey list. Both a bare array and an object
// wrapping the array under "journeys" or "items" are accepted.
func DecodeJourneys(data []byte) ([]Journey, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Journeys json.RawMessage `json:"journeys"`
			Items    json.RawMessage `json:"items"`
		}
		if err := unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		switch {
		case len(envelope.Journeys) > 0:
			trimmed = envelope.Journeys
		case len(envelope.Items) > 0:
			trimmed = envelope.Items
		default:
			return nil, newDecodeError("no journey list in response", data)
		}
	}
	var payloads []journeyPayload
	if err := unmarshal(trimmed, &payloads); err != nil {
		return nil, err
	}
	journeys := make([]Journey, 0, len(payloads))
	for _, p := range payloads {
		j, err := p.journey()
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, j)
	}
	return journeys, nil
}

// DecodeJourneyProgress decodes a journey-with-progress record.
func DecodeJourneyProgress(data []byte) (JourneyProgress, error) {
	var p progressPayload
	if err := unmarshal(data, &p); err != nil {
		return JourneyProgress{}, err
	}
	j, err := p.journey()
	if err != nil {
		return JourneyProgress{}, err
	}
	return JourneyProgress{
		Journey:                j,
		DistanceCompletedMiles: p.DistanceCompletedMiles,
		PercentComplete:        p.PercentComplete,
		LastMoodRating:         p.LastMoodRating,
		LastActivityDate:       p.LastActivityDate.ptr(),
	}, nil
}

// DecodeRun decodes a created run.
func DecodeRun(data []byte) (Run, error) {
	var p runPayload
	if err := unmarshal(data, &p); err != nil {
		return Run{}, err
	}
	return Run{
		ID:            p.ID,
		JourneyID:     p.JourneyID,
		DistanceMiles: p.DistanceMiles,
		Date:          p.Date.value(),
		MoodRating:    p.MoodRating,
		ActivityType:  p.ActivityType,
	}, nil
}

// DecodeProgressLocation decodes an interpolated progress location.
func DecodeProgressLocation(data []byte) (ProgressLocation, error) {
	var p locationPayload
	if err := unmarshal(data, &p); err != nil {
		return ProgressLocation{}, err
	}
	return ProgressLocation(p), nil
}

// ExtractToken returns the bearer token from a login response body.
func ExtractToken(data []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := unmarshal(data, &fields); err != nil {
		return "", err
	}
	for _, name := range tokenFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var token string
		if err := json.Unmarshal(raw, &token); err != nil {
			continue
		}
		if strings.TrimSpace(token) != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// DecodeServerMessage extracts a readable message from an error body.
func DecodeServerMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if trimmed[0] == '{' && json.Unmarshal(trimmed, &payload) == nil {
		if msg := detailMessage(payload.Detail); msg != "" {
			return msg
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fragment(trimmed)
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}
