package lab

import (
	"encoding/json"
	"fmt"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateOnlyLayout = "2006-01-02"

// Timestamp accepts RFC 3339 as well as the zone-less forms sent by datetime-local inputs.
// Zone-less values are taken as UTC. A bare date parses as midnight with DateOnly set.
type Timestamp struct {
	time.Time
	DateOnly bool
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	*t = Timestamp{}
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	if parsed, err := time.Parse(dateOnlyLayout, raw); err == nil {
		t.Time, t.DateOnly = parsed, true
		return nil
	}
	return fmt.Errorf("invalid timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// EndOfDay is the last second of a date-only value; other values are returned as is.
func (t Timestamp) EndOfDay() time.Time {
	if !t.DateOnly {
		return t.Time
	}
	return t.Time.Add(24*time.Hour - time.Second)
}
