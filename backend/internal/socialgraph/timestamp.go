package socialgraph

import (
	"fmt"
	"strings"
	"time"
)

// Layouts seen in scraped dumps: RFC3339 from the Go scraper, and the
// "YYYY-MM-DD HH:MM:SS.ffffff[+HH:MM]" form of older exports.
// Fractional seconds are optional when parsing every layout.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a message timestamp. Values without a zone are UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp format: %q", raw)
}
