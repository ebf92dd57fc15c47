// Package timestamp decodes backend timestamps leniently.
package timestamp

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Layouts accepted by UnmarshalJSON, tried in order. Zoneless layouts are
// read as UTC.
var Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02",
}

// Time is a time.Time that tolerates null, empty and non-RFC 3339 values.
// Anything it cannot parse decodes to the zero time instead of failing the
// enclosing document.
type Time struct {
	time.Time
}

// Parse tries every layout and reports whether one matched.
func Parse(raw string) (Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Time{}, false
	}
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Time{Time: t}, true
		}
	}
	return Time{}, false
}

func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw string
	if len(data) == 0 || data[0] != '"' || json.Unmarshal(data, &raw) != nil {
		*t = Time{}
		return nil
	}
	*t, _ = Parse(raw)
	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// MarshalYAML mirrors MarshalJSON for YAML output.
func (t Time) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339Nano), nil
}

// Format renders t with layout in local time, "" for the zero time.
func (t Time) Format(layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Local().Format(layout)
}
