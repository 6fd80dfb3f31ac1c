package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
)

// DateRange is half-open: From is included, To is not.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// ParseDateRange reads query-string bounds. A bare date for to covers that
// whole day, so ?from=2026-03-01&to=2026-03-31 is all of March.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	var r DateRange
	if loc == nil {
		loc = time.Local
	}

	if from = strings.TrimSpace(from); from != "" {
		t, err := parseBound(from, loc)
		if err != nil {
			return r, fmt.Errorf("from: %w", err)
		}
		r.From = &t
	}

	if to = strings.TrimSpace(to); to != "" {
		t, err := parseBound(to, loc)
		if err != nil {
			return r, fmt.Errorf("to: %w", err)
		}
		if isDateOnly(to) {
			t = t.AddDate(0, 0, 1)
		}
		r.To = &t
	}

	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return r, fmt.Errorf("from must be before to")
	}
	return r, nil
}

func parseBound(value string, loc *time.Location) (time.Time, error) {
	if isDateOnly(value) {
		return time.ParseInLocation("2006-01-02", value, loc)
	}
	return metadata.ParseFlexibleTime(value, loc)
}

func isDateOnly(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
