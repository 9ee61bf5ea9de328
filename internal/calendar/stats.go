package calendar

import (
	"math"
	"time"

	"custodycal/internal/model"
)

// ParentShare is one parent's part of a month.
type ParentShare struct {
	ParentID  string `json:"parent_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Days      int    `json:"days"`
	Percent   int    `json:"percent"`
	Logistics int    `json:"logistics"`
}

// Distribution summarizes custody days and handovers within a month.
type Distribution struct {
	TotalDays int           `json:"total_days"`
	Shares    []ParentShare `json:"shares"`
}

// Stats counts, for each parent in order, the custody days inside the month
// and the logistics events falling on those days. Events outside the month
// are ignored. Logistics are attributed to the day's custody parent, not to
// the parent doing the handover.
func Stats(year int, month time.Month, events []model.Event, parents []model.Parent) Distribution {
	inMonth := func(t time.Time) bool { return t.Year() == year && t.Month() == month }

	custodian := make(map[string]string)
	days := make(map[string]int)
	total := 0
	for _, ev := range events {
		if c, ok := ev.(*model.CustodyEvent); ok && inMonth(c.Date) {
			custodian[c.Date.Format(time.DateOnly)] = c.ParentID
			days[c.ParentID]++
			total++
		}
	}

	logistics := make(map[string]int)
	for _, ev := range events {
		if l, ok := ev.(*model.LogisticsEvent); ok && inMonth(l.DateTime) {
			if id, ok := custodian[l.DateTime.Format(time.DateOnly)]; ok {
				logistics[id]++
			}
		}
	}

	dist := Distribution{TotalDays: total, Shares: make([]ParentShare, 0, len(parents))}
	for _, p := range parents {
		share := ParentShare{
			ParentID:  p.ID,
			Name:      p.Name,
			Color:     p.Color,
			Days:      days[p.ID],
			Logistics: logistics[p.ID],
		}
		if total > 0 {
			share.Percent = int(math.Round(float64(share.Days) * 100 / float64(total)))
		}
		dist.Shares = append(dist.Shares, share)
	}
	return dist
}
