// Package calendar lays the custody engine's output out as a month of
// weekday cells, the way the wall calendar shows it.
package calendar

import (
	"fmt"
	"time"

	"custodycal/internal/custody"
	"custodycal/internal/model"
)

// Day is one weekday cell.
type Day struct {
	Date        time.Time               `json:"date"`
	InMonth     bool                    `json:"in_month"`
	IsToday     bool                    `json:"is_today"`
	Custody     *model.CustodyEvent     `json:"custody,omitempty"`
	Logistics   []*model.LogisticsEvent `json:"logistics"`
	Occurrences []model.Occurrence      `json:"occurrences,omitempty"`
	Weekend     *WeekendNote            `json:"weekend,omitempty"`
}

// Week holds Monday through Friday.
type Week struct {
	Days []Day `json:"days"`
}

// Month is the laid-out view of one calendar month.
type Month struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
	Weeks []Week       `json:"weeks"`
	Stats Distribution `json:"stats"`
}

// VisibleRange returns the first and last day the month view needs events
// for: the Monday on or before the 1st through the Friday on or after the
// last day of the month.
func VisibleRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start, end := visibleDates(year, month)
	return model.StartOfDay(start, loc), model.StartOfDay(end, loc)
}

// visibleDates is VisibleRange on civil dates.
func visibleDates(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	back := int(first.Weekday()) - 1
	if first.Weekday() == time.Sunday {
		back = 6
	}
	start := first.AddDate(0, 0, -back)

	var end time.Time
	switch wd := last.Weekday(); wd {
	case time.Saturday:
		end = last.AddDate(0, 0, 6)
	case time.Sunday:
		end = last.AddDate(0, 0, 5)
	default:
		end = last.AddDate(0, 0, int(time.Friday-wd))
	}
	return start, end
}

// BuildMonth generates the events of the visible range and lays them out in
// weeks of five weekday cells. today only marks IsToday.
func BuildMonth(year int, month time.Month, loc *time.Location, family model.Family, today time.Time) Month {
	start, end := VisibleRange(year, month, loc)
	events := custody.Generate(start, end, family)

	byDay := make(map[string]*Day)
	cell := func(t time.Time) *Day {
		key := t.Format(time.DateOnly)
		d, ok := byDay[key]
		if !ok {
			d = &Day{Logistics: []*model.LogisticsEvent{}}
			byDay[key] = d
		}
		return d
	}
	for _, ev := range events {
		switch e := ev.(type) {
		case *model.CustodyEvent:
			cell(e.Date).Custody = e
		case *model.LogisticsEvent:
			d := cell(e.DateTime)
			d.Logistics = append(d.Logistics, e)
		default:
			panic(fmt.Sprintf("calendar: unexpected event type %T", ev))
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	gridStart := mondayOf(firstWeekday(first, 1))
	gridEnd := mondayOf(firstWeekday(last, -1)).AddDate(0, 0, 4)

	todayKey := today.In(loc).Format(time.DateOnly)
	var weeks []Week
	for monday := gridStart; !monday.After(gridEnd); monday = monday.AddDate(0, 0, 7) {
		w := Week{Days: make([]Day, 0, 5)}
		for i := range 5 {
			civil := monday.AddDate(0, 0, i)
			key := civil.Format(time.DateOnly)
			d := Day{Logistics: []*model.LogisticsEvent{}}
			if c, ok := byDay[key]; ok {
				d = *c
			}
			d.Date = model.StartOfDay(civil, loc)
			d.InMonth = civil.Month() == month && civil.Year() == year
			d.IsToday = key == todayKey
			if d.InMonth && civil.Weekday() == time.Friday {
				if note, ok := WeekendNoteFor(d.Date, family.Parents); ok {
					d.Weekend = &note
				}
			}
			w.Days = append(w.Days, d)
		}
		weeks = append(weeks, w)
	}

	return Month{
		Year:  year,
		Month: month,
		Start: start,
		End:   end,
		Weeks: weeks,
		Stats: Stats(year, month, events, family.Parents),
	}
}

// AttachOccurrences places feed occurrences on every cell they overlap.
func (m *Month) AttachOccurrences(occs []model.Occurrence) {
	for wi := range m.Weeks {
		for di := range m.Weeks[wi].Days {
			d := &m.Weeks[wi].Days[di]
			for _, o := range occs {
				if o.OverlapsDay(d.Date) {
					d.Occurrences = append(d.Occurrences, o)
				}
			}
		}
	}
}

// firstWeekday walks from the civil date t in direction step (+1 or -1) to the nearest
// Monday-Friday date, t included.
func firstWeekday(t time.Time, step int) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, step)
	}
	return t
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
