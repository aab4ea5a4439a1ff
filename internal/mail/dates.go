package mail

import (
	"strings"
	"time"
)

// receivedAtFormats are tried in order against Date header values. Real
// mail carries a surprising spread of shapes, including trailing timezone
// names in parentheses.
var receivedAtFormats = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// ParseReceivedAt parses a Date header value. If every format fails it
// returns the current time: the receipt moment is always known to exist,
// and an observed message must never end up without a timestamp.
func ParseReceivedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now()
	}

	for _, format := range receivedAtFormats {
		if ts, err := time.Parse(format, raw); err == nil {
			return ts
		}
	}

	// Retry with any trailing "(TZNAME)" comment stripped
	if open := strings.LastIndex(raw, " ("); open != -1 {
		if end := strings.LastIndex(raw, ")"); end > open {
			stripped := strings.TrimSpace(raw[:open] + raw[end+1:])
			for _, format := range receivedAtFormats {
				if ts, err := time.Parse(format, stripped); err == nil {
					return ts
				}
			}
		}
	}

	return time.Now()
}
