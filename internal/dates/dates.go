// Package dates holds the calendar arithmetic shared by every engine.
//
// All helpers work on the local calendar day of the supplied time, in the
// time's own location. Stays are half-open: [checkIn, checkOut).
package dates

import (
	"math"
	"time"

	"property-ops-backend/internal/errs"
)

const day = 24 * time.Hour

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FirstOfMonth returns day 1 of t's month at midnight.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// FirstOfPreviousMonth returns day 1 of the month before t's month.
func FirstOfPreviousMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m-1, 1, 0, 0, 0, 0, t.Location())
}

// LastOfMonth returns the last calendar day of t's month at midnight.
func LastOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
}

// NightsBetween returns the number of nights in [checkIn, checkOut). Two
// local midnights count calendar days, so a DST shift inside the stay does
// not change the result; otherwise partial days are rounded up. It fails
// when checkOut is not after checkIn.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	if !checkOut.After(checkIn) {
		return 0, &errs.InvalidRangeError{Start: checkIn, End: checkOut}
	}
	if checkIn.Equal(StartOfDay(checkIn)) && checkOut.Equal(StartOfDay(checkOut)) {
		return DaysBetween(checkIn, checkOut.In(checkIn.Location())), nil
	}
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24)), nil
}

// DaysBetween counts calendar days from a to b, negative when b is earlier.
// Clock times are ignored so a DST shift never produces a fractional day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / day)
}

// IntervalsOverlap reports whether [aStart, aEnd) and [bStart, bEnd) share
// any instant. Touching intervals do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// InRange reports whether t's calendar day lies in [start, end], inclusive on both ends.
func InRange(t, start, end time.Time) bool {
	d := StartOfDay(t)
	return !d.Before(StartOfDay(start)) && !d.After(StartOfDay(end))
}

// Clip narrows [start, end) to [lo, hi). ok is false when nothing remains.
func Clip(start, end, lo, hi time.Time) (time.Time, time.Time, bool) {
	if start.Before(lo) {
		start = lo
	}
	if end.After(hi) {
		end = hi
	}
	return start, end, end.After(start)
}

// Season is a northern-hemisphere meteorological season.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// SeasonOf classifies t by month.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}
