// Package explain reconstructs step-by-step narratives for scheduling
// decisions. Explanations are pure functions of a rule and an
// already-computed result: nothing here re-evaluates a rule, so the
// narrative cannot diverge from the engine's real answer.
package explain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/internal/caltext"
	"github.com/cyp0633/librecur/phrase"
	"github.com/cyp0633/librecur/rule"
)

// Step is one record in an explanation: a facet name, a prose
// description and an optional rendered value.
type Step struct {
	Name        string
	Description string
	Value       string
}

// Explanation is an ordered audit trail for one scheduling decision,
// derived on demand and never persisted.
type Explanation struct {
	Steps    []Step
	Warnings []string
}

func (e *Explanation) step(name, description string, value ...string) {
	s := Step{Name: name, Description: description}
	if len(value) > 0 {
		s.Value = value[0]
	}
	e.Steps = append(e.Steps, s)
}

// Build derives the narrative for a next-occurrence computation. The
// result parameter is the instant the engine actually computed; Build
// only describes it.
func Build(r *rule.Rule, mode rule.Mode, ref time.Time, result mo.Option[time.Time]) Explanation {
	var ex Explanation

	switch mode {
	case rule.WhenDone:
		ex.step("mode", "when-done scheduling: the next occurrence slides forward from the reference instant")
	default:
		ex.step("mode", "fixed scheduling: every occurrence derives from the anchor and rule alone")
	}
	ex.step("reference", "computing the first occurrence after the reference instant",
		ref.Format(time.RFC3339))
	ex.step("expression", "recurrence rule under evaluation", r.Expr())
	ex.step("anchor", "the series is anchored at", r.Anchor().Format(time.RFC3339))

	unit := caltext.UnitName(string(r.Freq()))
	if r.Interval() == 1 {
		ex.step("frequency", fmt.Sprintf("repeats every %s", unit))
	} else {
		ex.step("frequency", fmt.Sprintf("repeats every %d %ss", r.Interval(), unit))
	}

	if byDay := r.ByDay(); len(byDay) > 0 {
		ex.step("weekdays", "restricted to weekdays", weekdayList(byDay))
	}
	if byMonthDay := r.ByMonthDay(); len(byMonthDay) > 0 {
		ex.step("month-days", "restricted to days of the month", intList(byMonthDay))
	}
	if byMonth := r.ByMonth(); len(byMonth) > 0 {
		names := make([]string, len(byMonth))
		for i, m := range byMonth {
			names[i] = caltext.MonthName(m)
		}
		ex.step("months", "restricted to months", strings.Join(names, ", "))
	}
	if pos := r.BySetPos(); len(pos) > 0 {
		ex.step("set-positions", "only these candidate positions within each period qualify", intList(pos))
	}

	if count, ok := r.Count(); ok {
		ex.step("terminator", fmt.Sprintf("the series ends after %d occurrences", count))
	} else if until, ok := r.Until(); ok {
		ex.step("terminator", "the series ends at", until.Format(time.RFC3339))
		if until.Before(ref) {
			ex.Warnings = append(ex.Warnings, "series has ended: UNTIL precedes the reference instant")
		}
	}

	ex.step("timezone", "occurrences are computed in", r.Location().String())

	if at, ok := result.Get(); ok {
		ex.step("result", "next occurrence", at.Format(time.RFC3339))
	} else {
		ex.step("result", "no further occurrences")
	}
	return ex
}

// DateExplanation states whether one instant is an occurrence and, when
// it is not, the first disqualifying reason.
type DateExplanation struct {
	Occurs bool
	Reason string
}

// ExplainDate checks candidate against the rule, reporting the first
// disqualifying reason in priority order: before anchor, after
// terminator, weekday mismatch, generic mismatch.
func ExplainDate(r *rule.Rule, candidate time.Time) DateExplanation {
	if r.OccursOn(candidate) {
		return DateExplanation{Occurs: true, Reason: "the instant falls on an occurrence day"}
	}

	local := candidate.In(r.Location())
	if local.Before(startOfDay(r.Anchor(), r.Location())) {
		return DateExplanation{Reason: "the instant precedes the series anchor"}
	}
	if until, ok := r.Until(); ok && local.After(until) {
		return DateExplanation{Reason: "the instant falls after the series ended (UNTIL)"}
	}
	if count, ok := r.Count(); ok {
		if last, ok := lastOccurrence(r, count); ok && local.After(last) {
			return DateExplanation{Reason: "the instant falls after the series ended (COUNT exhausted)"}
		}
	}
	if byDay := r.ByDay(); len(byDay) > 0 && !weekdayAllowed(byDay, local.Weekday()) {
		return DateExplanation{Reason: fmt.Sprintf("%s is not one of the rule's weekdays (%s)",
			caltext.WeekdayName(local.Weekday()), weekdayList(byDay))}
	}
	return DateExplanation{Reason: "the instant does not match the recurrence pattern"}
}

// Summarize renders a rule expression as one sentence, delegating to the
// phrase dialect's reverse mapping; shapes the dialect cannot express get
// its generic frequency/interval fallback.
func Summarize(expr string, anchor time.Time, loc *time.Location) (string, error) {
	r, err := rule.Parse(expr, anchor, loc)
	if err != nil {
		return "", err
	}
	return phrase.Stringify(r, rule.Fixed), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// lastOccurrence finds the final instant of a COUNT-terminated series.
// Bounded by count, so this stays cheap.
func lastOccurrence(r *rule.Rule, count int) (time.Time, bool) {
	next := r.Iterator()
	var last time.Time
	found := false
	for i := 0; i < count; i++ {
		at, ok := next()
		if !ok {
			break
		}
		last, found = at, true
	}
	return last, found
}

func weekdayAllowed(specs []rule.WeekdaySpec, day time.Weekday) bool {
	for _, ws := range specs {
		if ws.Day == day {
			return true
		}
	}
	return false
}

func weekdayList(specs []rule.WeekdaySpec) string {
	names := make([]string, len(specs))
	for i, ws := range specs {
		name := caltext.WeekdayName(ws.Day)
		if ws.Ordinal != 0 {
			name = caltext.OrdinalWord(ws.Ordinal) + " " + name
		}
		names[i] = name
	}
	return strings.Join(names, ", ")
}

func intList(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
