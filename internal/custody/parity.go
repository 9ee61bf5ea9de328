// Package custody derives who holds the children on each day and who
// handles every drop-off and pick-up, from a fortnightly tenancy table and
// a weekly activity timetable. Everything here is a pure function of its
// arguments.
package custody

import "time"

// Parity selects the half of the tenancy table that applies to a date.
type Parity string

const (
	Even Parity = "even"
	Odd  Parity = "odd"
)

// WeekIndex is the family's own week counter for date: the whole days
// elapsed since January 1, plus the weekday index (Sunday = 0) plus one,
// divided by seven and rounded up.
//
// This is not the ISO 8601 week number (a Sunday can fall in an earlier
// week than the Saturday before it). Tenancy tables are written against
// this numbering, so it must not be "corrected".
func WeekIndex(date time.Time) int {
	days := date.YearDay() - 1
	n := int(date.Weekday()) + 1 + days
	return (n + 6) / 7
}

// WeekParity classifies date as an even or odd tenancy week.
func WeekParity(date time.Time) Parity {
	if WeekIndex(date)%2 == 0 {
		return Even
	}
	return Odd
}
