package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// InputDatetimeLayout is the minute-precision layout used by datetime-local inputs.
const InputDatetimeLayout = "2006-01-02T15:04"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	InputDatetimeLayout,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses s as a calendar date or datetime. Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrInvalidDate, "parsing %q", s)
}

// IsDate reports whether v is a time.Time or a string ParseDate accepts.
func IsDate(v interface{}) bool {
	switch val := v.(type) {
	case time.Time:
		return !val.IsZero()
	case *time.Time:
		return val != nil && !val.IsZero()
	case string:
		_, err := ParseDate(val)
		return err == nil
	}
	return false
}

// FormatDatetimeForInput renders t at minute precision in its own location.
func FormatDatetimeForInput(t time.Time) string {
	return t.Format(InputDatetimeLayout)
}

// FormatDate renders a date-like value for display; unparsable values are returned as is.
func FormatDate(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format("2006-01-02")
	case string:
		t, err := ParseDate(val)
		if err != nil {
			return val
		}
		return t.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

// NowForInput returns the current UTC time formatted for a datetime input.
func NowForInput(now time.Time) string {
	return FormatDatetimeForInput(now.UTC())
}
