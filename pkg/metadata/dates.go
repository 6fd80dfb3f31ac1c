package metadata

import (
	"fmt"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseFlexibleTime accepts either a bare date or a full timestamp.
// A bare date is pinned to noon in loc so that shifting it to another
// timezone never moves it to a different calendar day.
func ParseFlexibleTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}

	if d, err := time.ParseInLocation(dateOnlyLayout, value, loc); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q, expected YYYY-MM-DD or RFC 3339", value)
}

// MonthRange returns [first day of month, first day of next month) for a "YYYY-MM" string.
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}
