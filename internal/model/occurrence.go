package model

import "time"

// Occurrence is a single concrete instance of an event from a subscribed
// iCalendar feed, after recurrence expansion and timezone normalization.
// Occurrences are overlaid on the month view next to custody data.
type Occurrence struct {
	FeedID string `json:"feed_id"`
	UID    string `json:"uid"`

	// InstanceKey identifies one occurrence of a recurring event; it is the
	// local start time in RFC3339.
	InstanceKey string `json:"instance_key"`

	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	AllDay   bool   `json:"all_day"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// OverlapsDay reports whether the occurrence intersects the calendar day
// starting at midnight day.
func (o Occurrence) OverlapsDay(day time.Time) bool {
	next := StartOfDay(CivilDate(day).AddDate(0, 0, 1), day.Location())
	if o.Start.Equal(day) {
		return true
	}
	return o.Start.Before(next) && o.End.After(day)
}
