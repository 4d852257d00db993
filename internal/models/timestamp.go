package models

import "time"

// timestampLayouts are the accepted trade timestamp formats. The MT4/MT5
// server-time form comes first; it is what the trading client sends.
var timestampLayouts = []string{
	"2006.01.02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseTimestamp parses a trade timestamp against the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKey returns a lexically orderable key for a trade timestamp. Parseable
// timestamps are normalized to UTC RFC3339 so that ordering is correct across
// formats; everything else falls back to the raw string.
func SortKey(timestamp string) string {
	if t, ok := ParseTimestamp(timestamp); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return timestamp
}
