package parse

import "time"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05", // ISO8601 without timezone
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a log timestamp. The second result is false for
// empty or unrecognized values.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
