package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by the booking backend.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Timestamp accepts both zoned and naive backend datetimes. Naive values are
// read as UTC.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	text := strings.Trim(string(data), `"`)
	if text == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(text)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func ParseTimestamp(text string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported layout", text)
}
