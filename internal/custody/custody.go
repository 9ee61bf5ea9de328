package custody

import (
	"time"

	"custodycal/internal/model"
)

// UnknownParent stands in for a parent the tenancy table could not resolve,
// so that downstream events always carry a parent string.
const UnknownParent = "unknown"

// ParentOn returns the parent holding custody on date. ok is false only when
// the table has no entry for that weekday in the applicable half, which is a
// configuration defect caught by TenancyTable.Validate at load time.
func ParentOn(date time.Time, table model.TenancyTable) (string, bool) {
	half := table.Odd
	if WeekParity(date) == Even {
		half = table.Even
	}
	id, ok := half[date.Weekday()]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// parentOrUnknown resolves the custody parent, substituting UnknownParent.
func parentOrUnknown(date time.Time, table model.TenancyTable) string {
	if id, ok := ParentOn(date, table); ok {
		return id
	}
	return UnknownParent
}

// FindParent looks a parent up by id.
func FindParent(id string, parents []model.Parent) (model.Parent, bool) {
	for _, p := range parents {
		if p.ID == id {
			return p, true
		}
	}
	return model.Parent{}, false
}

// FindChild looks a child up by id.
func FindChild(id string, children []model.Child) (model.Child, bool) {
	for _, c := range children {
		if c.ID == id {
			return c, true
		}
	}
	return model.Child{}, false
}
