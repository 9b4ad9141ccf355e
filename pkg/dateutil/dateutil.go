// Package dateutil holds the calendar-day arithmetic loans are scheduled with.
// All dates are UTC midnights; ledger dates travel as ISO "YYYY-MM-DD".
package dateutil

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

const day = 24 * time.Hour

// StartOfDay truncates t to its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	return civil.DateOf(t.UTC()).In(time.UTC)
}

// AddDays moves a date n calendar days forward (or back for negative n).
func AddDays(t time.Time, n int) time.Time {
	return civil.DateOf(t.UTC()).AddDays(n).In(time.UTC)
}

// DaysUntil returns ceil((due - now) / 1 day). Negative when due has passed.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(day)))
}

// DaysBetween counts calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	return civil.DateOf(end.UTC()).DaysSince(civil.DateOf(start.UTC()))
}

// ISO formats the calendar day of t as "2006-01-02".
func ISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return civil.DateOf(t.UTC()).String()
}

// ParseISO parses "2006-01-02" into a UTC midnight.
func ParseISO(s string) (time.Time, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(time.UTC), nil
}

// Format renders a date the way the loan tables show it: "Dec 1, 2025".
func Format(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}
