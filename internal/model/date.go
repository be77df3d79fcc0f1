package model

import (
	"errors"
	"strings"
	"time"
)

// DisplayDateLayout renders a date the way the API reports freshly
// logged exercises, e.g. "Sun Jan 15 2023".
const DisplayDateLayout = "Mon Jan 02 2006"

// ErrUnparseableDate is returned when no supported layout matches.
var ErrUnparseableDate = errors.New("unparseable date")

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006",
}

// ParseDate parses an ISO-like date string. Date-only and partial dates
// ("2023", "2023-04") resolve to the first instant of the period in UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrUnparseableDate
}

// FormatDisplayDate formats t using DisplayDateLayout in UTC.
func FormatDisplayDate(t time.Time) string {
	return t.UTC().Format(DisplayDateLayout)
}
