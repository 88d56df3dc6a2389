package services

import "time"

// WeekBoundaries returns the Monday 00:00:00.000 UTC start and Sunday
// 23:59:59.999 UTC end of the ISO week containing t.
func WeekBoundaries(t time.Time) (start, end time.Time) {
	day := StartOfDayUTC(t)
	daysToSubtract := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysToSubtract = 6
	}
	start = day.AddDate(0, 0, -daysToSubtract)
	end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// WeekInfo returns the ISO-8601 week-year and week number for t. Note this is
// the week-year, not the calendar year: Dec 30 can already be week 1 of the
// next year and Jan 1 can still be week 52/53 of the previous one.
func WeekInfo(t time.Time) (year, week int) {
	return t.UTC().ISOWeek()
}

// IsWeekOver reports whether the week containing date has fully elapsed at
// "now".
func IsWeekOver(date, now time.Time) bool {
	_, end := WeekBoundaries(date)
	return now.UTC().After(end)
}
