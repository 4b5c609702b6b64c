// Package rule is the single parsing authority for recurrence rule
// expressions. It parses the supported RFC 5545 RRULE subset into an
// immutable handle and answers occurrence queries against it; every other
// package obtains rule semantics through Parse rather than re-reading the
// expression text.
package rule

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is an RFC 5545 FREQ token.
type Frequency string

const (
	Secondly Frequency = "SECONDLY"
	Minutely Frequency = "MINUTELY"
	Hourly   Frequency = "HOURLY"
	Daily    Frequency = "DAILY"
	Weekly   Frequency = "WEEKLY"
	Monthly  Frequency = "MONTHLY"
	Yearly   Frequency = "YEARLY"
)

// SubDaily reports whether the frequency steps in units finer than a day.
func (f Frequency) SubDaily() bool {
	switch f {
	case Secondly, Minutely, Hourly:
		return true
	}
	return false
}

// Mode selects how the next occurrence of a series is derived.
type Mode int

const (
	// Fixed derives every occurrence from the anchor and rule alone.
	Fixed Mode = iota
	// WhenDone derives the next occurrence from the supplied reference
	// instant (typically the completion time), sliding the series forward.
	WhenDone
)

func (m Mode) String() string {
	if m == WhenDone {
		return "when-done"
	}
	return "fixed"
}

// WeekdaySpec is one BYDAY entry: a weekday with an optional ordinal
// prefix (2 = second such weekday in the period, -1 = last). Ordinal 0
// means every such weekday.
type WeekdaySpec struct {
	Ordinal int
	Day     time.Weekday
}

// Rule is an immutable parsed recurrence rule bound to an anchor instant
// and a timezone. Construct it with Parse; a Rule is safe for concurrent
// use.
type Rule struct {
	expr   string
	anchor time.Time
	loc    *time.Location

	freq       Frequency
	interval   int
	byDay      []WeekdaySpec
	byMonthDay []int
	byMonth    []int
	bySetPos   []int
	count      int       // 0 when absent
	until      time.Time // zero when absent

	rr *rrule.RRule
}

// Expr returns the expression the rule was parsed from.
func (r *Rule) Expr() string { return r.expr }

// Anchor returns the instant the series is anchored to.
func (r *Rule) Anchor() time.Time { return r.anchor }

// Location returns the timezone occurrences are computed in.
func (r *Rule) Location() *time.Location { return r.loc }

// Freq returns the rule frequency.
func (r *Rule) Freq() Frequency { return r.freq }

// Interval returns the step between periods, at least 1.
func (r *Rule) Interval() int { return r.interval }

// ByDay returns the BYDAY entries, nil when absent.
func (r *Rule) ByDay() []WeekdaySpec { return r.byDay }

// ByMonthDay returns the BYMONTHDAY entries, nil when absent.
func (r *Rule) ByMonthDay() []int { return r.byMonthDay }

// ByMonth returns the BYMONTH entries, nil when absent.
func (r *Rule) ByMonth() []int { return r.byMonth }

// BySetPos returns the BYSETPOS entries, nil when absent.
func (r *Rule) BySetPos() []int { return r.bySetPos }

// Count returns the COUNT terminator and whether one is present.
func (r *Rule) Count() (int, bool) { return r.count, r.count > 0 }

// Until returns the UNTIL terminator and whether one is present.
func (r *Rule) Until() (time.Time, bool) { return r.until, !r.until.IsZero() }

// After returns the smallest occurrence at (when inclusive) or after t,
// or false when the series has no further occurrences. Nonexistent
// month-end days are skipped for that month, never clamped.
func (r *Rule) After(t time.Time, inclusive bool) (time.Time, bool) {
	next := r.rr.After(t.In(r.loc), inclusive)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// Between returns every occurrence within [from, to], in ascending order.
// The inclusive flag covers both endpoints.
func (r *Rule) Between(from, to time.Time, inclusive bool) []time.Time {
	return r.rr.Between(from.In(r.loc), to.In(r.loc), inclusive)
}

// OccursOn reports whether any occurrence falls on the same calendar day
// as t, in the rule's timezone.
func (r *Rule) OccursOn(t time.Time) bool {
	local := t.In(r.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	// occurrences have second granularity, so 23:59:59 covers the day
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Second)
	return len(r.rr.Between(dayStart, dayEnd, true)) > 0
}

// Rebase returns a rule with the same constraints anchored at a new
// instant. Used for when-done scheduling, where the series restarts from
// the reference instant instead of the original anchor.
func (r *Rule) Rebase(anchor time.Time) (*Rule, error) {
	clone := *r
	// keep second granularity, same as at parse time
	clone.anchor = anchor.In(r.loc).Truncate(time.Second)
	rr, err := rrule.NewRRule(clone.roption())
	if err != nil {
		return nil, malformed(r.expr, "", "cannot rebase rule: %v", err)
	}
	clone.rr = rr
	return &clone, nil
}

// Iterator returns a function yielding occurrences in ascending order
// from the anchor, false when exhausted.
func (r *Rule) Iterator() func() (time.Time, bool) {
	return r.rr.Iterator()
}
