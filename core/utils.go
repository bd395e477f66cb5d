package core

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for dates of birth.
const DateLayout = "2006-01-02"

// CleanString trims `s` and, when lower is set, lowercases it. Emails are always cleaned with lower.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) == 0 || !lower[0] {
		return s
	}
	return strings.ToLower(s)
}

// ParseDate reads a DateLayout date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, CleanString(s), time.UTC)
}

// FormatDate is the inverse of ParseDate; the zero time formats as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
