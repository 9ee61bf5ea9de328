package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"custodycal/internal/config"
	"custodycal/internal/model"
)

func referenceFamily(t *testing.T) model.Family {
	t.Helper()
	fam, err := config.DefaultConfig().FamilyModel()
	if err != nil {
		t.Fatalf("default family: %v", err)
	}
	return fam
}

func day(s string) time.Time {
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		year       int
		month      time.Month
		start, end string
	}{
		{2024, time.January, "2024-01-01", "2024-02-02"},   // Monday 1st, Wednesday 31st
		{2024, time.March, "2024-02-26", "2024-04-05"},     // Friday 1st, Sunday 31st
		{2024, time.June, "2024-05-27", "2024-07-05"},      // Saturday 1st, Sunday 30th
		{2024, time.September, "2024-08-26", "2024-10-04"}, // Sunday 1st, Monday 30th
		{2024, time.November, "2024-10-28", "2024-12-06"},  // Friday 1st, Saturday 30th
		{2024, time.May, "2024-04-29", "2024-05-31"},       // Friday 31st needs no padding
	}
	for _, tt := range tests {
		start, end := VisibleRange(tt.year, tt.month, time.UTC)
		if got := start.Format(time.DateOnly); got != tt.start {
			t.Errorf("%d-%02d: expected start %s, got %s", tt.year, tt.month, tt.start, got)
		}
		if got := end.Format(time.DateOnly); got != tt.end {
			t.Errorf("%d-%02d: expected end %s, got %s", tt.year, tt.month, tt.end, got)
		}
		if start.Weekday() != time.Monday || end.Weekday() != time.Friday {
			t.Errorf("%d-%02d: expected Monday..Friday, got %s..%s", tt.year, tt.month, start.Weekday(), end.Weekday())
		}
	}
}

func TestBuildMonthGrid(t *testing.T) {
	fam := referenceFamily(t)

	tests := []struct {
		year      int
		month     time.Month
		weeks     int
		firstCell string
		lastCell  string
	}{
		{2024, time.January, 5, "2024-01-01", "2024-02-02"},
		{2024, time.June, 4, "2024-06-03", "2024-06-28"},
		{2024, time.September, 5, "2024-09-02", "2024-10-04"},
		{2024, time.May, 5, "2024-04-29", "2024-05-31"},
	}
	for _, tt := range tests {
		m := BuildMonth(tt.year, tt.month, time.UTC, fam, day("2000-01-01"))
		if len(m.Weeks) != tt.weeks {
			t.Errorf("%d-%02d: expected %d weeks, got %d", tt.year, tt.month, tt.weeks, len(m.Weeks))
			continue
		}
		for i, w := range m.Weeks {
			if len(w.Days) != 5 {
				t.Fatalf("week %d: expected 5 days, got %d", i, len(w.Days))
			}
			if w.Days[0].Date.Weekday() != time.Monday || w.Days[4].Date.Weekday() != time.Friday {
				t.Errorf("week %d does not run Monday..Friday", i)
			}
		}
		first := m.Weeks[0].Days[0].Date.Format(time.DateOnly)
		last := m.Weeks[len(m.Weeks)-1].Days[4].Date.Format(time.DateOnly)
		if first != tt.firstCell || last != tt.lastCell {
			t.Errorf("%d-%02d: expected cells %s..%s, got %s..%s", tt.year, tt.month, tt.firstCell, tt.lastCell, first, last)
		}
	}
}

func TestBuildMonthCells(t *testing.T) {
	fam := referenceFamily(t)
	m := BuildMonth(2024, time.January, time.UTC, fam, day("2024-01-11").Add(15*time.Hour))

	thursday := m.Weeks[1].Days[3]
	if thursday.Date.Format(time.DateOnly) != "2024-01-11" {
		t.Fatalf("unexpected cell date %v", thursday.Date)
	}
	if !thursday.IsToday || !thursday.InMonth {
		t.Errorf("expected in-month today cell, got %+v", thursday)
	}
	if thursday.Custody == nil || thursday.Custody.ParentID != "papa" {
		t.Errorf("expected papa custody, got %+v", thursday.Custody)
	}
	if len(thursday.Logistics) != 8 {
		t.Errorf("expected 8 logistics events, got %d", len(thursday.Logistics))
	}

	overflow := m.Weeks[4].Days[4]
	if overflow.InMonth || overflow.Custody == nil {
		t.Errorf("expected next-month cell with events, got %+v", overflow)
	}
	if overflow.Weekend != nil {
		t.Error("expected no weekend note outside the month")
	}

	var notes []string
	for _, w := range m.Weeks {
		if n := w.Days[4].Weekend; n != nil {
			notes = append(notes, n.Friday.Format("02")+":"+n.ParentID)
		}
	}
	want := []string{"05:papa", "12:mama", "19:papa", "26:mama"}
	if len(notes) != len(want) {
		t.Fatalf("expected notes %v, got %v", want, notes)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Errorf("note %d: expected %s, got %s", i, want[i], notes[i])
		}
	}
}

func TestStatsReferenceJanuary(t *testing.T) {
	fam := referenceFamily(t)
	m := BuildMonth(2024, time.January, time.Local, fam, time.Now())

	if m.Stats.TotalDays != 31 {
		t.Fatalf("expected 31 days, got %d", m.Stats.TotalDays)
	}
	want := []ParentShare{
		{ParentID: "mama", Name: "Mamá", Color: "#E6D6FF", Days: 21, Percent: 68, Logistics: 114},
		{ParentID: "papa", Name: "Papá", Color: "#D6FFE6", Days: 10, Percent: 32, Logistics: 52},
	}
	for i, w := range want {
		if got := m.Stats.Shares[i]; got != w {
			t.Errorf("share %d: expected %+v, got %+v", i, w, got)
		}
	}
}

func TestStatsIgnoresUnknownAndEmpty(t *testing.T) {
	parents := []model.Parent{{ID: "mama", Name: "Mamá"}}
	events := []model.Event{
		&model.CustodyEvent{Date: day("2024-02-01"), ParentID: "mama"},
		&model.CustodyEvent{Date: day("2024-02-02"), ParentID: "unknown"},
		&model.CustodyEvent{Date: day("2024-03-01"), ParentID: "mama"},
		&model.LogisticsEvent{DateTime: day("2024-02-02").Add(8 * time.Hour), ParentID: "mama"},
	}
	dist := Stats(2024, time.February, events, parents)
	if dist.TotalDays != 2 {
		t.Errorf("expected 2 days in February, got %d", dist.TotalDays)
	}
	if s := dist.Shares[0]; s.Days != 1 || s.Percent != 50 || s.Logistics != 0 {
		t.Errorf("unexpected share %+v", s)
	}

	empty := Stats(2024, time.April, nil, parents)
	if empty.TotalDays != 0 || empty.Shares[0].Percent != 0 {
		t.Errorf("unexpected empty distribution %+v", empty)
	}
}

func TestWeekendNoteFor(t *testing.T) {
	parents := []model.Parent{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	if _, ok := WeekendNoteFor(day("2024-06-06"), parents); ok {
		t.Error("expected no note for a Thursday")
	}
	if _, ok := WeekendNoteFor(day("2024-06-07"), nil); ok {
		t.Error("expected no note without parents")
	}

	note, ok := WeekendNoteFor(day("2024-06-14"), parents)
	if !ok {
		t.Fatal("expected a note for a Friday")
	}
	if note.ParentID != "c" {
		t.Errorf("expected third parent for week 2, got %q", note.ParentID)
	}
	if note.Saturday.Format(time.DateOnly) != "2024-06-15" || note.Sunday.Format(time.DateOnly) != "2024-06-16" {
		t.Errorf("unexpected weekend dates %v %v", note.Saturday, note.Sunday)
	}
}

func TestAttachOccurrences(t *testing.T) {
	fam := referenceFamily(t)
	m := BuildMonth(2024, time.January, time.UTC, fam, time.Now())

	m.AttachOccurrences([]model.Occurrence{
		{UID: "holiday", Summary: "Reyes", AllDay: true, Start: day("2024-01-05"), End: day("2024-01-09")},
		{UID: "meeting", Summary: "Tutoría", Start: day("2024-01-17").Add(17 * time.Hour), End: day("2024-01-17").Add(18 * time.Hour)},
	})

	count := map[string]int{}
	for _, w := range m.Weeks {
		for _, d := range w.Days {
			for _, o := range d.Occurrences {
				count[o.UID]++
			}
		}
	}
	// Friday 5th and Monday 8th are the only weekday cells the holiday covers.
	if count["holiday"] != 2 {
		t.Errorf("expected holiday on 2 cells, got %d", count["holiday"])
	}
	if count["meeting"] != 1 {
		t.Errorf("expected meeting on 1 cell, got %d", count["meeting"])
	}
}

func TestBuildMonthAcrossMidnightDSTGap(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatal(err)
	}
	fam := referenceFamily(t)
	m := BuildMonth(2024, time.September, santiago, fam, time.Date(2024, time.September, 9, 12, 0, 0, 0, santiago))

	if got := m.Start.Format(time.DateOnly) + ".." + m.End.Format(time.DateOnly); got != "2024-08-26..2024-10-04" {
		t.Errorf("unexpected visible range %s", got)
	}
	if len(m.Weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(m.Weeks))
	}

	seen := map[string]bool{}
	for _, w := range m.Weeks {
		for _, d := range w.Days {
			key := d.Date.Format(time.DateOnly)
			if seen[key] {
				t.Errorf("date %s appears twice", key)
			}
			seen[key] = true
			if d.Custody == nil || d.Custody.Date.Format(time.DateOnly) != key {
				t.Errorf("%s: custody event missing or misfiled: %+v", key, d.Custody)
			}
			for _, l := range d.Logistics {
				if l.DateTime.Format(time.DateOnly) != key {
					t.Errorf("%s: handover at %v filed in the wrong cell", key, l.DateTime)
				}
			}
		}
	}

	monday := m.Weeks[1].Days[0]
	if monday.Date.Format(time.DateOnly) != "2024-09-09" || !monday.IsToday || len(monday.Logistics) == 0 {
		t.Errorf("unexpected Monday after the gap %+v", monday)
	}

	total := 0
	for _, sh := range m.Stats.Shares {
		total += sh.Days
	}
	if m.Stats.TotalDays != 30 || total != 30 {
		t.Errorf("expected 30 custody days in September, got total=%d shares=%d", m.Stats.TotalDays, total)
	}
}
