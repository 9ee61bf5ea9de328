package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"custodycal/internal/custody"
	"custodycal/internal/model"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// WeeklySlot is one activity slot as a weekly recurrence.
type WeeklySlot struct {
	Activity model.Activity
	Day      time.Weekday
	Slot     model.Slot
	// First is the first instance on or after the requested start.
	First time.Time
	// Rule is the RRULE value (without the "RRULE:" prefix).
	Rule string
}

// WeeklySlots computes the weekly recurrence of every scheduled activity day
// between from and until, in loc. Days listed without a slot are skipped, as
// in the daily planner.
func WeeklySlots(family model.Family, from, until time.Time, loc *time.Location) ([]WeeklySlot, error) {
	if loc == nil {
		loc = time.Local
	}
	if until.Before(from) {
		return nil, errors.New("timetable: until is before from")
	}
	from = from.In(loc)

	var out []WeeklySlot
	for _, a := range family.Activities {
		for _, d := range a.Days {
			slot, ok := a.Schedule[d]
			if !ok {
				continue
			}
			opt := rrule.ROption{
				Freq:      rrule.WEEKLY,
				Dtstart:   slot.Start.On(from),
				Byweekday: []rrule.Weekday{rruleWeekdays[d]},
				Until:     until.UTC(),
			}
			r, err := rrule.NewRRule(opt)
			if err != nil {
				return nil, fmt.Errorf("activity %q %s: %w", a.ID, model.WeekdayKey(d), err)
			}
			first := r.After(opt.Dtstart, true)
			if first.IsZero() {
				continue
			}
			rule := rrule.ROption{
				Freq:      rrule.WEEKLY,
				Byweekday: opt.Byweekday,
				Until:     opt.Until,
			}
			out = append(out, WeeklySlot{
				Activity: a,
				Day:      d,
				Slot:     slot,
				First:    first,
				Rule:     rule.RRuleString(),
			})
		}
	}
	return out, nil
}

// ExportTimetable renders the weekly timetable (no custody attribution) as
// recurring VEVENTs, one per activity and weekday.
func ExportTimetable(family model.Family, from, until time.Time, loc *time.Location, opts ExportOptions) (string, error) {
	slots, err := WeeklySlots(family, from, until, loc)
	if err != nil {
		return "", err
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := newCalendar(opts.Name)
	for _, ws := range slots {
		name := fmt.Sprintf("timetable/%s/%s", ws.Activity.ID, model.WeekdayKey(ws.Day))
		ve := cal.AddEvent(uuid.NewSHA1(uidSpace, []byte(name)).String() + "@custodycal")
		ve.SetDtStampTime(stamp)
		setLocalTime(ve, ical.ComponentPropertyDtStart, ws.First)
		setLocalTime(ve, ical.ComponentPropertyDtEnd, ws.Slot.End.On(ws.First))
		ve.AddRrule(ws.Rule)
		ve.SetSummary(ws.Activity.Title)
		if ws.Slot.Note != "" {
			ve.SetDescription(ws.Slot.Note)
		}
		if ws.Activity.Category != "" {
			ve.SetProperty(ical.ComponentProperty("CATEGORIES"), ws.Activity.Category)
		}
		if c, ok := custody.FindChild(ws.Activity.ChildID, family.Children); ok {
			ve.SetProperty(ical.ComponentProperty("COLOR"), c.Color)
		}
	}
	return cal.Serialize(), nil
}
