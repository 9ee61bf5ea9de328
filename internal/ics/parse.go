package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "custodycal/internal/log"
)

// FeedEvent is a VEVENT as read from a feed, before recurrence expansion.
type FeedEvent struct {
	FeedID string

	UID      string
	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on overrides of a single recurring instance.
	RecurrenceID *time.Time
}

// ParseFeed reads every VEVENT of an ICS payload. Broken events are logged
// and skipped; only an unreadable calendar is an error.
func ParseFeed(feedID string, body []byte) ([]FeedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]FeedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(feedID, ve)
		if err != nil {
			appLog.Warn("skipping feed event", "feed", feedID, "err", err.Error())
			continue
		}
		events = append(events, ev)
	}
	appLog.Debug("feed parsed", "feed", feedID, "events", len(events))
	return events, nil
}

func parseVEvent(feedID string, ve *ical.VEvent) (FeedEvent, error) {
	ev := FeedEvent{FeedID: feedID}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.UID = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return ev, fmt.Errorf("%s: missing DTSTART", ev.UID)
	}
	ev.AllDay = isDateValue(dtstart)

	start, err := propertyTime(dtstart)
	if err != nil {
		return ev, fmt.Errorf("%s: DTSTART: %w", ev.UID, err)
	}
	ev.Start = start

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
		if err != nil {
			return ev, fmt.Errorf("%s: DTEND: %w", ev.UID, err)
		}
		ev.End = end
	case ev.AllDay:
		ev.End = start.AddDate(0, 0, 1)
	default:
		ev.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseValue(part, tzid(p))
			if err != nil {
				appLog.Warn("ignoring EXDATE", "uid", ev.UID, "value", part)
				continue
			}
			ev.ExDates = append(ev.ExDates, t)
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		t, err := propertyTime(p)
		if err != nil {
			return ev, fmt.Errorf("%s: RECURRENCE-ID: %w", ev.UID, err)
		}
		ev.RecurrenceID = &t
	}
	return ev, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzid(p *ical.IANAProperty) string {
	if vs, ok := p.ICalParameters["TZID"]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func propertyTime(p *ical.IANAProperty) (time.Time, error) {
	return parseValue(p.Value, tzid(p))
}

// parseValue reads DATE, floating DATE-TIME, UTC DATE-TIME and DATE-TIME
// with a TZID. Floating values and unknown zones use time.Local.
func parseValue(v, tz string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	loc := time.Local
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
