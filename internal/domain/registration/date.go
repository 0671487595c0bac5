package registration

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD or an RFC 3339 timestamp")

// NormalizeDate accepts an ISO calendar date or a full RFC 3339 timestamp
// and returns the calendar day as YYYY-MM-DD. Timestamps keep the day as
// written, the offset is not applied.
func NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDate
	}

	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.Format(DateLayout), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.Format(DateLayout), nil
	}

	return "", ErrInvalidDate
}

func IsCalendarDate(raw string) bool {
	_, err := NormalizeDate(raw)
	return err == nil
}

// MustNormalizeDate returns raw unchanged when it cannot be parsed, so
// callers that skipped validation still hand the store the original text.
func MustNormalizeDate(raw string) string {
	d, err := NormalizeDate(raw)
	if err != nil {
		return raw
	}
	return d
}
