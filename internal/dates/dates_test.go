package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-ops-backend/internal/errs"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthBoundaries(t *testing.T) {
	testCases := []struct {
		name      string
		in        time.Time
		first     time.Time
		prevFirst time.Time
		last      time.Time
	}{
		{"mid month", time.Date(2024, 3, 17, 15, 30, 0, 0, time.UTC), date(2024, 3, 1), date(2024, 2, 1), date(2024, 3, 31)},
		{"january wraps year", date(2024, 1, 9), date(2024, 1, 1), date(2023, 12, 1), date(2024, 1, 31)},
		{"leap february", date(2024, 2, 29), date(2024, 2, 1), date(2024, 1, 1), date(2024, 2, 29)},
		{"first day", date(2024, 7, 1), date(2024, 7, 1), date(2024, 6, 1), date(2024, 7, 31)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.first, FirstOfMonth(tc.in))
			assert.Equal(t, tc.prevFirst, FirstOfPreviousMonth(tc.in))
			assert.Equal(t, tc.last, LastOfMonth(tc.in))
		})
	}
}

func TestNightsBetween(t *testing.T) {
	n, err := NightsBetween(date(2024, 6, 10), date(2024, 6, 15))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// a late checkout counts as an extra night
	n, err = NightsBetween(date(2024, 6, 10), time.Date(2024, 6, 11, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = NightsBetween(date(2024, 6, 10), date(2024, 6, 10))
	assert.True(t, errors.Is(err, errs.ErrInvalidRange))

	_, err = NightsBetween(date(2024, 6, 10), date(2024, 6, 9))
	var rangeErr *errs.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, date(2024, 6, 10), rangeErr.Start)
}

func TestNightsBetween_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		// clocks fall back on 3 November: the stay lasts 169 hours
		{"autumn", time.Date(2024, 11, 1, 0, 0, 0, 0, ny), time.Date(2024, 11, 8, 0, 0, 0, 0, ny), 7},
		// clocks spring forward on 10 March: the stay lasts 167 hours
		{"spring", time.Date(2024, 3, 8, 0, 0, 0, 0, ny), time.Date(2024, 3, 15, 0, 0, 0, 0, ny), 7},
		{"late checkout", time.Date(2024, 11, 1, 0, 0, 0, 0, ny), time.Date(2024, 11, 2, 11, 0, 0, 0, ny), 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NightsBetween(tc.checkIn, tc.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestIntervalsOverlap(t *testing.T) {
	aStart, aEnd := date(2024, 6, 10), date(2024, 6, 15)

	testCases := []struct {
		name   string
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"inside", date(2024, 6, 12), date(2024, 6, 14), true},
		{"straddles start", date(2024, 6, 8), date(2024, 6, 11), true},
		{"straddles end", date(2024, 6, 14), date(2024, 6, 20), true},
		{"covers", date(2024, 6, 1), date(2024, 6, 30), true},
		{"starts on checkout", date(2024, 6, 15), date(2024, 6, 20), false},
		{"ends on checkin", date(2024, 6, 5), date(2024, 6, 10), false},
		{"disjoint", date(2024, 7, 1), date(2024, 7, 3), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IntervalsOverlap(aStart, aEnd, tc.bStart, tc.bEnd))
			assert.Equal(t, tc.want, IntervalsOverlap(tc.bStart, tc.bEnd, aStart, aEnd))
		})
	}
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(date(2024, 6, 15)))  // Saturday
	assert.True(t, IsWeekend(date(2024, 6, 16)))  // Sunday
	assert.False(t, IsWeekend(date(2024, 6, 14))) // Friday
	assert.False(t, IsWeekend(date(2024, 6, 17))) // Monday
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC), date(2024, 6, 1)))
	assert.Equal(t, 1, DaysBetween(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC), date(2024, 6, 2)))
	assert.Equal(t, 30, DaysBetween(date(2024, 6, 1), date(2024, 7, 1)))
	assert.Equal(t, -3, DaysBetween(date(2024, 6, 4), date(2024, 6, 1)))
}

func TestInRangeAndClip(t *testing.T) {
	start, end := date(2024, 3, 1), date(2024, 3, 31)
	assert.True(t, InRange(date(2024, 3, 1), start, end))
	assert.True(t, InRange(time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC), start, end))
	assert.False(t, InRange(date(2024, 4, 1), start, end))

	s, e, ok := Clip(date(2024, 2, 27), date(2024, 3, 3), date(2024, 3, 1), date(2024, 4, 1))
	require.True(t, ok)
	assert.Equal(t, date(2024, 3, 1), s)
	assert.Equal(t, date(2024, 3, 3), e)

	_, _, ok = Clip(date(2024, 2, 1), date(2024, 2, 5), date(2024, 3, 1), date(2024, 4, 1))
	assert.False(t, ok)
}

func TestSeasonOf(t *testing.T) {
	assert.Equal(t, Winter, SeasonOf(date(2024, 12, 24)))
	assert.Equal(t, Spring, SeasonOf(date(2024, 4, 2)))
	assert.Equal(t, Summer, SeasonOf(date(2024, 8, 31)))
	assert.Equal(t, Autumn, SeasonOf(date(2024, 10, 1)))
}
