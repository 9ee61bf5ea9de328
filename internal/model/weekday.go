package model

import (
	"fmt"
	"strings"
	"time"
)

// AllWeekdays lists Sunday..Saturday in time.Weekday order.
var AllWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

var weekdayAliases = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "domingo": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "lunes": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "martes": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "miercoles": time.Wednesday, "miércoles": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "jueves": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "viernes": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sabado": time.Saturday, "sábado": time.Saturday,
}

// ParseWeekday accepts English names, three-letter abbreviations and the
// Spanish day names, as written in the first family files.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday: %q", s)
}

// WeekdayKey is the lower-case English name used as a YAML/JSON key.
func WeekdayKey(d time.Weekday) string {
	return strings.ToLower(d.String())
}
