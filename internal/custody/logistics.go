package custody

import (
	"slices"
	"time"

	"custodycal/internal/model"
)

// Obligation is one drop-off or pick-up on a given day, before display
// enrichment.
type Obligation struct {
	ChildID       string
	ActivityID    string
	ActivityTitle string
	Kind          model.Handover
	At            model.TimeOfDay
	ParentID      string
}

type occurrence struct {
	activity model.Activity
	slot     model.Slot
}

// PlanDay lists the day's handovers in time order.
//
// For each child, the first activity of the day is dropped off by whoever had
// the child overnight (yesterday's custody parent) and picked up by today's.
// Later activities are handled entirely by today's parent. Activities listing
// the weekday without a slot for it are skipped.
func PlanDay(date time.Time, table model.TenancyTable, activities []model.Activity) []Obligation {
	date = model.CivilDate(date)
	weekday := date.Weekday()
	today := parentOrUnknown(date, table)
	yesterday := parentOrUnknown(date.AddDate(0, 0, -1), table)

	// Children keep the order in which they first appear in activities.
	var order []string
	byChild := make(map[string][]occurrence)
	for _, a := range activities {
		if !a.RunsOn(weekday) {
			continue
		}
		slot, ok := a.Schedule[weekday]
		if !ok {
			continue
		}
		if _, seen := byChild[a.ChildID]; !seen {
			order = append(order, a.ChildID)
		}
		byChild[a.ChildID] = append(byChild[a.ChildID], occurrence{activity: a, slot: slot})
	}

	var out []Obligation
	for _, childID := range order {
		occs := byChild[childID]
		slices.SortStableFunc(occs, func(a, b occurrence) int {
			return a.slot.Start.Minutes() - b.slot.Start.Minutes()
		})

		for i, occ := range occs {
			dropOffBy := today
			if i == 0 {
				dropOffBy = yesterday
			}
			out = append(out,
				Obligation{
					ChildID:       childID,
					ActivityID:    occ.activity.ID,
					ActivityTitle: occ.activity.Title,
					Kind:          model.DropOff,
					At:            occ.slot.Start,
					ParentID:      dropOffBy,
				},
				Obligation{
					ChildID:       childID,
					ActivityID:    occ.activity.ID,
					ActivityTitle: occ.activity.Title,
					Kind:          model.PickUp,
					At:            occ.slot.End,
					ParentID:      today,
				},
			)
		}
	}

	slices.SortStableFunc(out, func(a, b Obligation) int {
		return a.At.Minutes() - b.At.Minutes()
	})
	return out
}
