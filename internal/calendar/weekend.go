package calendar

import (
	"time"

	"custodycal/internal/model"
)

// WeekendNote is the summary shown on a Friday for the following weekend.
//
// The weekend parent rotates with the Friday's week of the month
// (ceil(day/7)) over the parent list. It is not derived from the tenancy
// table and can disagree with Saturday's custody event.
type WeekendNote struct {
	Friday      time.Time `json:"friday"`
	Saturday    time.Time `json:"saturday"`
	Sunday      time.Time `json:"sunday"`
	ParentID    string    `json:"parent_id"`
	ParentName  string    `json:"parent_name"`
	ParentColor string    `json:"parent_color"`
}

// WeekendNoteFor builds the note for friday. ok is false when friday is not
// a Friday or there are no parents.
func WeekendNoteFor(friday time.Time, parents []model.Parent) (WeekendNote, bool) {
	if friday.Weekday() != time.Friday || len(parents) == 0 {
		return WeekendNote{}, false
	}
	weekOfMonth := (friday.Day() + 6) / 7
	p := parents[weekOfMonth%len(parents)]
	civil := model.CivilDate(friday)
	return WeekendNote{
		Friday:      friday,
		Saturday:    model.StartOfDay(civil.AddDate(0, 0, 1), friday.Location()),
		Sunday:      model.StartOfDay(civil.AddDate(0, 0, 2), friday.Location()),
		ParentID:    p.ID,
		ParentName:  p.Name,
		ParentColor: p.Color,
	}, true
}
