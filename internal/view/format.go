// Package view turns feedings snapshots into what the page shows.
package view

import (
	"fmt"
	"time"
	_ "time/tzdata" // Europe/Warsaw must resolve on hosts without zoneinfo
)

// Short weekday names (pl-PL, CLDR "abbreviated").
var polishWeekdays = [...]string{
	time.Sunday:    "niedz.",
	time.Monday:    "pon.",
	time.Tuesday:   "wt.",
	time.Wednesday: "śr.",
	time.Thursday:  "czw.",
	time.Friday:    "pt.",
	time.Saturday:  "sob.",
}

// Month names in the genitive, as used after a day number.
var polishMonths = [...]string{
	time.January:   "stycznia",
	time.February:  "lutego",
	time.March:     "marca",
	time.April:     "kwietnia",
	time.May:       "maja",
	time.June:      "czerwca",
	time.July:      "lipca",
	time.August:    "sierpnia",
	time.September: "września",
	time.October:   "października",
	time.November:  "listopada",
	time.December:  "grudnia",
}

// Formatter renders feeding timestamps for Polish readers.
type Formatter struct {
	Location *time.Location
}

// NewFormatter loads the named zone, falling back to UTC when it is unknown.
func NewFormatter(zone string) (Formatter, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Formatter{Location: time.UTC}, fmt.Errorf("load location %q: %w", zone, err)
	}
	return Formatter{Location: loc}, nil
}

// Format renders an ISO-8601 instant as e.g. "pt., 18 października 12:05".
// Input that does not parse is returned as is.
func (f Formatter) Format(iso string) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return iso
	}
	return f.FormatTime(t)
}

func (f Formatter) FormatTime(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return fmt.Sprintf("%s, %d %s %02d:%02d",
		polishWeekdays[t.Weekday()], t.Day(), polishMonths[t.Month()], t.Hour(), t.Minute())
}
