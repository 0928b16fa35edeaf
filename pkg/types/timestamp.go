package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of every stored createdAt/updatedAt.
const TimestampLayout = "2006-01-02 15:04:05"

var fallbackLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp is a second-precision UTC time encoded as "YYYY-MM-DD HH:MM:SS".
// The zero value encodes as null.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Second)}
}

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. Values that are not a string in
// one of the accepted layouts decode as the zero Timestamp instead of failing
// the surrounding record.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}
	if parsed, ok := parseTimestamp(raw); ok {
		*t = NewTimestamp(parsed)
	}
	return nil
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range fallbackLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
