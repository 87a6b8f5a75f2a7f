// Package timeutil provides calendar-day helpers for streak and progress
// calculations. Daily streaks compare calendar dates, not elapsed 24h
// periods, so an action at 23:59 followed by one at 00:01 still counts as
// consecutive days. No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// StartOfDay returns midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CalendarDaysBetween returns the number of calendar-day boundaries crossed
// between from and to. Same day yields 0, consecutive days yield 1, and the
// result is negative if to precedes from. The comparison is made in to's
// location so that both timestamps are truncated on the same wall clock.
// Both dates are re-anchored in UTC before subtracting, so DST transitions
// that shorten or stretch a local day never skew the count.
func CalendarDaysBetween(from, to time.Time) int {
	f := from.In(to.Location())
	a := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// SameCalendarDay reports whether a and b fall on the same calendar day.
func SameCalendarDay(a, b time.Time) bool {
	return CalendarDaysBetween(a, b) == 0
}

// DaysSinceInclusive returns the count of calendar days from start to now,
// counting both endpoints: a start of "today" yields 1, never 0.
func DaysSinceInclusive(start, now time.Time) int {
	d := CalendarDaysBetween(start, now)
	if d < 0 {
		return 1
	}
	return d + 1
}

// WeekAgo returns the instant exactly seven days before t.
func WeekAgo(t time.Time) time.Time {
	return t.AddDate(0, 0, -7)
}

// StartOfWeek returns Monday 00:00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return StartOfDay(t.AddDate(0, 0, -(weekday - 1)))
}
