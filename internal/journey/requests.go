package journey

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout          = "2006-01-02"
	defaultActivityType = "run"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Date is a calendar day. It marshals as YYYY-MM-DD.
type Date struct {
	t time.Time
}

// NewDate keeps the calendar day of t as seen in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{t: t}, nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// JourneyCreateRequest is the body of POST /journeys.
type JourneyCreateRequest struct {
	Name               string     `json:"name" validate:"required"`
	StartCity          string     `json:"start_city" validate:"required"`
	DestCity           string     `json:"dest_city" validate:"required,nefield=StartCity"`
	StartLabel         string     `json:"start_label,omitempty"`
	DestLabel          string     `json:"dest_label,omitempty"`
	TotalDistanceMiles float64    `json:"total_distance_miles" validate:"gt=0"`
	StartLat           *float64   `json:"start_lat,omitempty" validate:"omitempty,latitude"`
	StartLng           *float64   `json:"start_lng,omitempty" validate:"omitempty,longitude"`
	DestLat            *float64   `json:"dest_lat,omitempty" validate:"omitempty,latitude"`
	DestLng            *float64   `json:"dest_lng,omitempty" validate:"omitempty,longitude"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
}

// Validate reports the first constraint the request violates.
func (r JourneyCreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid journey request: %w", describe(err))
	}
	return nil
}

// RunCreateRequest is the body of POST /runs.
type RunCreateRequest struct {
	JourneyID     int64   `json:"journey_id" validate:"gt=0"`
	DistanceMiles float64 `json:"distance_miles" validate:"gt=0"`
	Date          Date    `json:"date"`
	MoodRating    *int    `json:"mood_rating,omitempty" validate:"omitempty,min=1,max=10"`
	ActivityType  string  `json:"activity_type" validate:"required"`
}

// NewRunRequest builds a run request with the default activity type.
func NewRunRequest(journeyID int64, miles float64, day time.Time, mood *int) RunCreateRequest {
	return RunCreateRequest{
		JourneyID:     journeyID,
		DistanceMiles: miles,
		Date:          NewDate(day),
		MoodRating:    mood,
		ActivityType:  defaultActivityType,
	}
}

// Validate reports the first constraint the request violates.
func (r RunCreateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid run request: %w", describe(err))
	}
	if r.Date.IsZero() {
		return errors.New("invalid run request: date is required")
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "nefield":
		return fmt.Errorf("%s must differ from %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Errorf("%s must be between 1 and 10", fe.Field())
	default:
		return fmt.Errorf("%s failed %s", fe.Field(), fe.Tag())
	}
}
