package rule

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// FromComponent extracts the recurrence rule and anchor carried by an
// iCalendar component. The anchor is DTSTART; for a VTODO without
// DTSTART, DUE serves as the anchor instead. Components without an RRULE
// property are not recurring and return an error.
func FromComponent(comp *ical.Component) (RuleSource, time.Time, error) {
	rruleProp := comp.Props.Get(ical.PropRecurrenceRule)
	if rruleProp == nil || rruleProp.Value == "" {
		return nil, time.Time{}, fmt.Errorf("component %s has no recurrence rule", comp.Name)
	}

	anchor, err := comp.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil || anchor.IsZero() {
		if comp.Name == ical.CompToDo {
			if due, dueErr := comp.Props.DateTime(ical.PropDue, nil); dueErr == nil && !due.IsZero() {
				return Raw(rruleProp.Value), due, nil
			}
		}
		return nil, time.Time{}, fmt.Errorf("component %s has no usable anchor", comp.Name)
	}
	return Raw(rruleProp.Value), anchor, nil
}
