package model

import (
	"encoding/json"
	"time"
)

// EventKind discriminates the members of the Event sum type.
type EventKind string

const (
	KindCustody   EventKind = "custody"
	KindLogistics EventKind = "logistics"
)

// Handover is the sub-kind of a logistics event.
type Handover string

const (
	DropOff Handover = "drop-off"
	PickUp  Handover = "pick-up"
)

// Verb is the human-readable action used in event descriptions.
func (h Handover) Verb() string {
	if h == DropOff {
		return "Drop off"
	}
	return "Pick up"
}

// Event is either a *CustodyEvent or a *LogisticsEvent. The unexported
// method keeps the set closed; consumers type-switch on the concrete types
// and treat anything else as a bug.
type Event interface {
	Kind() EventKind
	// At is the event's position on the timeline: midnight for custody,
	// the handover time for logistics.
	At() time.Time
	isEvent()
}

// CustodyEvent records which parent holds the children for a whole day.
type CustodyEvent struct {
	Date        time.Time
	ParentID    string
	ParentName  string
	ParentColor string
}

func (e *CustodyEvent) Kind() EventKind { return KindCustody }
func (e *CustodyEvent) At() time.Time   { return e.Date }
func (e *CustodyEvent) isEvent()        {}

func (e *CustodyEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind        EventKind `json:"kind"`
		Date        string    `json:"date"`
		ParentID    string    `json:"parent_id"`
		ParentName  string    `json:"parent_name"`
		ParentColor string    `json:"parent_color"`
	}{
		Kind:        KindCustody,
		Date:        e.Date.Format(time.DateOnly),
		ParentID:    e.ParentID,
		ParentName:  e.ParentName,
		ParentColor: e.ParentColor,
	})
}

// LogisticsEvent is one drop-off or pick-up obligation.
type LogisticsEvent struct {
	DateTime     time.Time
	SubKind      Handover
	ChildID      string
	ChildName    string
	ChildColor   string
	ActivityID   string
	ActivityName string
	ParentID     string
	ParentName   string
	ParentColor  string
	Description  string
}

func (e *LogisticsEvent) Kind() EventKind { return KindLogistics }
func (e *LogisticsEvent) At() time.Time   { return e.DateTime }
func (e *LogisticsEvent) isEvent()        {}

func (e *LogisticsEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind         EventKind `json:"kind"`
		DateTime     time.Time `json:"date_time"`
		SubKind      Handover  `json:"sub_kind"`
		ChildID      string    `json:"child_id"`
		ChildName    string    `json:"child_name"`
		ChildColor   string    `json:"child_color"`
		ActivityID   string    `json:"activity_id"`
		ActivityName string    `json:"activity_name"`
		ParentID     string    `json:"parent_id"`
		ParentName   string    `json:"parent_name"`
		ParentColor  string    `json:"parent_color"`
		Description  string    `json:"description"`
	}{
		Kind:         KindLogistics,
		DateTime:     e.DateTime,
		SubKind:      e.SubKind,
		ChildID:      e.ChildID,
		ChildName:    e.ChildName,
		ChildColor:   e.ChildColor,
		ActivityID:   e.ActivityID,
		ActivityName: e.ActivityName,
		ParentID:     e.ParentID,
		ParentName:   e.ParentName,
		ParentColor:  e.ParentColor,
		Description:  e.Description,
	})
}
