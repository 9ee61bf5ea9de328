package custody

import (
	"fmt"
	"time"

	"custodycal/internal/model"
)

// Display fallbacks for ids missing from the family reference data.
const (
	DefaultParentColor = "#FFFFFF"
	DefaultChildColor  = "#CCCCCC"
)

// Generate produces the calendar for every day from start to end inclusive:
// for each day one custody event followed by that day's logistics events in
// time order. Times of day are dropped from start and end, and events are
// stamped in start's location. An inverted range yields an empty slice.
func Generate(start, end time.Time, family model.Family) []model.Event {
	events := make([]model.Event, 0)
	loc := start.Location()

	last := model.CivilDate(end)
	for day := model.CivilDate(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		events = append(events, custodyEvent(day, loc, family))
		for _, ob := range PlanDay(day, family.Tenancy, family.Activities) {
			events = append(events, logisticsEvent(day, loc, ob, family))
		}
	}
	return events
}

// day is a civil date (see model.CivilDate).
func custodyEvent(day time.Time, loc *time.Location, family model.Family) *model.CustodyEvent {
	id := parentOrUnknown(day, family.Tenancy)
	name, color := id, DefaultParentColor
	if p, ok := FindParent(id, family.Parents); ok {
		name, color = p.Name, p.Color
	}
	return &model.CustodyEvent{
		Date:        model.StartOfDay(day, loc),
		ParentID:    id,
		ParentName:  name,
		ParentColor: color,
	}
}

func logisticsEvent(day time.Time, loc *time.Location, ob Obligation, family model.Family) *model.LogisticsEvent {
	childName, childColor := ob.ChildID, DefaultChildColor
	if c, ok := FindChild(ob.ChildID, family.Children); ok {
		childName, childColor = c.Name, c.Color
	}
	parentName, parentColor := ob.ParentID, DefaultParentColor
	if p, ok := FindParent(ob.ParentID, family.Parents); ok {
		parentName, parentColor = p.Name, p.Color
	}

	return &model.LogisticsEvent{
		DateTime:     ob.At.On(model.StartOfDay(day, loc)),
		SubKind:      ob.Kind,
		ChildID:      ob.ChildID,
		ChildName:    childName,
		ChildColor:   childColor,
		ActivityID:   ob.ActivityID,
		ActivityName: ob.ActivityTitle,
		ParentID:     ob.ParentID,
		ParentName:   parentName,
		ParentColor:  parentColor,
		Description:  fmt.Sprintf("%s %s (%s)", ob.Kind.Verb(), childName, ob.ActivityTitle),
	}
}
