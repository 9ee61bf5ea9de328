package model

import "time"

// CivilDate returns the calendar date of t, read in t's location, as
// midnight UTC. Day arithmetic on civil dates never meets a DST gap.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfDay is the first instant of the civil date's day in loc. Where
// local midnight does not exist (DST starting at 00:00) that is the end of
// the gap, not 23:00 of the day before.
func StartOfDay(civil time.Time, loc *time.Location) time.Time {
	y, m, d := civil.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Day() == d {
		return t
	}
	if _, end := t.ZoneBounds(); !end.IsZero() && end.Day() == d {
		return end
	}
	// Zone data without transition bounds: step forward to the day.
	for t.Day() != d {
		t = t.Add(15 * time.Minute)
	}
	return t
}
