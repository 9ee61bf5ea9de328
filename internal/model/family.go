package model

import (
	"errors"
	"fmt"
	"time"
)

type Child struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Parent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Category is an activity type (school, sport, language...).
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Slot is an activity's timetable entry for one weekday.
type Slot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	Note  string    `json:"note,omitempty"`
}

// Activity is a weekly recurring commitment of one child.
type Activity struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	ChildID  string                `json:"child_id"`
	Category string                `json:"category"`
	Days     []time.Weekday        `json:"days"`
	Schedule map[time.Weekday]Slot `json:"schedule"`
}

// RunsOn reports whether the activity recurs on d. It does not check that a
// slot exists for d.
func (a Activity) RunsOn(d time.Weekday) bool {
	for _, day := range a.Days {
		if day == d {
			return true
		}
	}
	return false
}

// Validate checks that every listed day has a slot and that slots start
// before they end.
func (a Activity) Validate() error {
	var errs []error
	for _, d := range a.Days {
		slot, ok := a.Schedule[d]
		if !ok {
			errs = append(errs, fmt.Errorf("activity %q: no schedule for %s", a.ID, WeekdayKey(d)))
			continue
		}
		if slot.Start >= slot.End {
			errs = append(errs, fmt.Errorf("activity %q: %s starts at %s but ends at %s",
				a.ID, WeekdayKey(d), slot.Start, slot.End))
		}
	}
	return errors.Join(errs...)
}

// TenancyTable is the fortnightly custody rotation: which parent holds the
// children on each weekday of an even or odd week.
type TenancyTable struct {
	Even map[time.Weekday]string `json:"even"`
	Odd  map[time.Weekday]string `json:"odd"`
}

// Validate checks that both halves cover all seven weekdays and only name
// known parents.
func (t TenancyTable) Validate(parents []Parent) error {
	known := make(map[string]bool, len(parents))
	for _, p := range parents {
		known[p.ID] = true
	}

	var errs []error
	check := func(half string, m map[time.Weekday]string) {
		for _, d := range AllWeekdays {
			id, ok := m[d]
			switch {
			case !ok || id == "":
				errs = append(errs, fmt.Errorf("tenancy %s weeks: missing %s", half, WeekdayKey(d)))
			case !known[id]:
				errs = append(errs, fmt.Errorf("tenancy %s weeks: %s references unknown parent %q", half, WeekdayKey(d), id))
			}
		}
	}
	check("even", t.Even)
	check("odd", t.Odd)
	return errors.Join(errs...)
}

// Family is the complete static configuration the custody engine works on.
type Family struct {
	Children   []Child      `json:"children"`
	Parents    []Parent     `json:"parents"`
	Tenancy    TenancyTable `json:"tenancy"`
	Activities []Activity   `json:"activities"`
	Categories []Category   `json:"categories"`
}

// Validate runs all integrity checks that the engine would otherwise paper
// over with fallbacks.
func (f Family) Validate() error {
	var errs []error
	if len(f.Parents) == 0 {
		errs = append(errs, errors.New("family: at least one parent is required"))
	}
	if err := f.Tenancy.Validate(f.Parents); err != nil {
		errs = append(errs, err)
	}

	children := make(map[string]bool, len(f.Children))
	for _, c := range f.Children {
		if children[c.ID] {
			errs = append(errs, fmt.Errorf("child %q: duplicate id", c.ID))
		}
		children[c.ID] = true
	}
	parents := make(map[string]bool, len(f.Parents))
	for _, p := range f.Parents {
		if parents[p.ID] {
			errs = append(errs, fmt.Errorf("parent %q: duplicate id", p.ID))
		}
		parents[p.ID] = true
	}

	seen := make(map[string]bool, len(f.Activities))
	for _, a := range f.Activities {
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("activity %q: duplicate id", a.ID))
		}
		seen[a.ID] = true
		if !children[a.ChildID] {
			errs = append(errs, fmt.Errorf("activity %q: unknown child %q", a.ID, a.ChildID))
		}
		if err := a.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
