package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDays_CalendarDays(t *testing.T) {
	start := time.Date(2024, 12, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), AddDays(start, 365))
	// 2024 is a leap year: 365 days from Feb 1 lands on Jan 31.
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), AddDays(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 365))
	assert.Equal(t, time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC), AddDays(start, -1))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, DaysUntil(now.Add(10*day), now))
	assert.Equal(t, 1, DaysUntil(now.Add(time.Hour), now))
	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, -2, DaysUntil(now.Add(-2*day-time.Hour), now))
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 730, DaysBetween(start, AddDays(start, 730)))
}

func TestISORoundTrip(t *testing.T) {
	d, err := ParseISO("2025-12-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-01", ISO(d))
	assert.Equal(t, "", ISO(time.Time{}))

	_, err = ParseISO("12/01/2025")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Dec 1, 2025", Format(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 9, 23, 59, 59, 0, time.FixedZone("x", -5*3600))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}
