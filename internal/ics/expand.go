package ics

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

const defaultMaxInstances = 2000

// Window is the time range occurrences are expanded into.
type Window struct {
	From time.Time
	To   time.Time
	// Loc is the display zone. All-day occurrences are pinned to midnight in
	// Loc so they land on the intended calendar day. Nil means time.Local.
	Loc *time.Location
	// MaxInstances caps a single recurring event. Zero means 2000.
	MaxInstances int
}

// Expand turns feed events into concrete occurrences inside w, applying
// EXDATE and RECURRENCE-ID overrides. The result is sorted by start, feed
// and UID.
func Expand(events []FeedEvent, w Window) ([]model.Occurrence, error) {
	if w.To.Before(w.From) {
		return nil, errors.New("expand: window ends before it starts")
	}
	if w.Loc == nil {
		w.Loc = time.Local
	}
	if w.MaxInstances <= 0 {
		w.MaxInstances = defaultMaxInstances
	}

	type key struct{ feed, uid string }
	overrides := make(map[key][]FeedEvent)
	var masters []FeedEvent
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			k := key{ev.FeedID, ev.UID}
			overrides[k] = append(overrides[k], ev)
			continue
		}
		masters = append(masters, ev)
	}

	out := make([]model.Occurrence, 0)
	for _, ev := range masters {
		ovs := overrides[key{ev.FeedID, ev.UID}]
		if ev.RRule == "" {
			out = appendInWindow(out, pick(ev, ovs, ev.Start, ev.End), w)
			continue
		}
		out = expandRecurring(out, ev, ovs, w)
	}

	slices.SortFunc(out, func(a, b model.Occurrence) int {
		return cmp.Or(
			a.Start.Compare(b.Start),
			strings.Compare(a.FeedID, b.FeedID),
			strings.Compare(a.UID, b.UID),
		)
	})
	return out, nil
}

func expandRecurring(out []model.Occurrence, ev FeedEvent, ovs []FeedEvent, w Window) []model.Occurrence {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Warn("skipping event with bad RRULE", "uid", ev.UID, "rrule", ev.RRule)
		return out
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event length so instances that started
	// before the window but still run into it are kept.
	dur := ev.End.Sub(ev.Start)
	from := w.From.Add(-dur).In(ev.Start.Location())
	starts := set.Between(from, w.To.In(ev.Start.Location()), true)
	if len(starts) > w.MaxInstances {
		appLog.Warn("truncating recurring event", "uid", ev.UID, "instances", len(starts), "cap", w.MaxInstances)
		starts = starts[:w.MaxInstances]
	}

	for _, s := range starts {
		out = appendInWindow(out, pick(ev, ovs, s, s.Add(dur)), w)
	}
	return out
}

// pick returns the override for the instance starting at start, or the
// master event with the instance's times.
func pick(ev FeedEvent, ovs []FeedEvent, start, end time.Time) FeedEvent {
	for _, o := range ovs {
		if o.RecurrenceID.Equal(start) {
			return o
		}
	}
	ev.Start, ev.End = start, end
	return ev
}

func appendInWindow(out []model.Occurrence, ev FeedEvent, w Window) []model.Occurrence {
	start, end := ev.Start.In(w.Loc), ev.End.In(w.Loc)
	if ev.AllDay {
		// DATE values carry no zone; keep the calendar dates.
		start = time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 0, 0, 0, 0, w.Loc)
		end = time.Date(ev.End.Year(), ev.End.Month(), ev.End.Day(), 0, 0, 0, 0, w.Loc)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
	}
	if start.After(w.To) || (!end.After(w.From) && !start.Equal(w.From)) {
		return out
	}
	return append(out, model.Occurrence{
		FeedID:      ev.FeedID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339),
		Summary:     ev.Summary,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	})
}
