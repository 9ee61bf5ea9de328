package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"custodycal/internal/model"
)

// HandoverDuration is the length given to drop-off and pick-up entries.
const HandoverDuration = 15 * time.Minute

const productID = "-//custodycal//custody calendar//EN"

// uidSpace namespaces the name-based UUIDs of exported events, so that the
// same day and handover always get the same UID across exports.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:custodycal:event"))

// ExportOptions tune the generated VCALENDAR.
type ExportOptions struct {
	// Name is written as X-WR-CALNAME.
	Name string
	// Stamp is used for DTSTAMP. Zero means time.Now.
	Stamp time.Time
}

// ExportEvents renders custody and logistics events as an iCalendar
// document. Custody events become all-day entries, handovers become short
// timed entries in the zone of their DateTime.
func ExportEvents(events []model.Event, opts ExportOptions) string {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := newCalendar(opts.Name)
	for _, ev := range events {
		switch e := ev.(type) {
		case *model.CustodyEvent:
			addCustody(cal, e, stamp)
		case *model.LogisticsEvent:
			addLogistics(cal, e, stamp)
		default:
			panic(fmt.Sprintf("ics: unexpected event type %T", ev))
		}
	}
	return cal.Serialize()
}

// EventUID is the stable UID of an exported event.
func EventUID(ev model.Event) string {
	var name string
	switch e := ev.(type) {
	case *model.CustodyEvent:
		name = "custody/" + e.Date.Format(time.DateOnly)
	case *model.LogisticsEvent:
		name = fmt.Sprintf("logistics/%s/%s/%s/%s",
			e.DateTime.Format(time.DateOnly), e.ChildID, e.ActivityID, e.SubKind)
	default:
		panic(fmt.Sprintf("ics: unexpected event type %T", ev))
	}
	return uuid.NewSHA1(uidSpace, []byte(name)).String() + "@custodycal"
}

func newCalendar(name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	return cal
}

func addCustody(cal *ical.Calendar, e *model.CustodyEvent, stamp time.Time) {
	ve := cal.AddEvent(EventUID(e))
	ve.SetDtStampTime(stamp)
	ve.SetAllDayStartAt(e.Date)
	ve.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
	ve.SetSummary("Custody: " + e.ParentName)
	ve.SetProperty(ical.ComponentProperty("CATEGORIES"), string(model.KindCustody))
	ve.SetProperty(ical.ComponentProperty("COLOR"), e.ParentColor)
	ve.SetProperty(ical.ComponentProperty("TRANSP"), "TRANSPARENT")
}

func addLogistics(cal *ical.Calendar, e *model.LogisticsEvent, stamp time.Time) {
	ve := cal.AddEvent(EventUID(e))
	ve.SetDtStampTime(stamp)
	setLocalTime(ve, ical.ComponentPropertyDtStart, e.DateTime)
	setLocalTime(ve, ical.ComponentPropertyDtEnd, e.DateTime.Add(HandoverDuration))
	ve.SetSummary(e.Description)
	ve.SetDescription(fmt.Sprintf("%s: %s\nActivity: %s", e.SubKind.Verb(), e.ParentName, e.ActivityName))
	ve.SetProperty(ical.ComponentProperty("CATEGORIES"), string(e.SubKind))
	ve.SetProperty(ical.ComponentProperty("COLOR"), e.ChildColor)
}

// setLocalTime writes t as UTC when it is in UTC, as floating time when it is
// in time.Local, and with a TZID otherwise.
func setLocalTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time) {
	switch loc := t.Location(); loc {
	case time.UTC:
		ve.SetProperty(prop, t.Format("20060102T150405Z"))
	case time.Local:
		ve.SetProperty(prop, t.Format("20060102T150405"))
	default:
		ve.SetProperty(prop, t.Format("20060102T150405"), &ical.KeyValues{Key: "TZID", Value: []string{loc.String()}})
	}
}
