// Package validate checks recurrence rule expressions for syntactic and
// semantic defects before they reach the scheduler. Results come back as
// data: errors make a rule unusable, warnings flag legal-but-suspicious
// configurations a UI may want to surface without blocking a save.
package validate

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyp0633/librecur/rule"
)

// Issue is one validation finding.
type Issue struct {
	Code    string
	Message string
}

// Result of validating one rule expression against its anchor.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

func failure(code, format string, args ...any) Result {
	return Result{Errors: []Issue{{Code: code, Message: fmt.Sprintf(format, args...)}}}
}

// days per month in a non-leap year; the February warning fires for day
// 29 because in most years it does not exist
var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// countWarnThreshold flags COUNT values large enough that full expansion
// becomes a performance concern.
const countWarnThreshold = 1000

// Validate checks expr against anchor, evaluated in loc (anchor's
// location when nil). Fatal checks short-circuit; an expression that
// parses but may never produce an occurrence yields warnings only, since
// a zero-future-occurrence rule can be a legitimate closed historical
// series. The cache is never consulted.
func Validate(expr string, anchor time.Time, loc *time.Location) Result {
	if expr == "" {
		return failure("empty-expression", "rule expression is empty")
	}
	if anchor.IsZero() {
		return failure("bad-anchor", "anchor instant cannot be parsed")
	}

	r, err := rule.Parse(expr, anchor, loc)
	if err != nil {
		if errors.Is(err, rule.ErrEmptyRuleSet) {
			return failure("empty-rule-set", "expression produced no usable rule")
		}
		var m *rule.MalformedRuleError
		if errors.As(err, &m) {
			code := "malformed-rule"
			if m.Part == "COUNT/UNTIL" {
				code = "terminator-conflict"
			}
			return failure(code, "%s", m.Reason)
		}
		return failure("malformed-rule", "%v", err)
	}

	if until, ok := r.Until(); ok && r.Anchor().After(until) {
		return failure("until-before-anchor",
			"UNTIL (%s) precedes the anchor (%s)",
			until.Format(time.RFC3339), r.Anchor().Format(time.RFC3339))
	}

	result := Result{Valid: true}
	warn := func(code, format string, args ...any) {
		result.Warnings = append(result.Warnings, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	for _, day := range r.ByMonthDay() {
		if day < 1 {
			continue
		}
		for _, month := range r.ByMonth() {
			if day > monthDays[month] {
				warn("impossible-month-day",
					"day %d does not exist in %s in most years", day, time.Month(month))
			}
		}
	}

	if _, ok := r.After(r.Anchor(), true); !ok {
		switch {
		case hasUntil(r):
			warn("expired-series", "the series ended at its UNTIL instant; no occurrence falls at or after the anchor")
		case hasCount(r):
			warn("count-exhausted", "the COUNT-limited series yields no occurrence; the rule's constraints never match")
		default:
			warn("no-occurrence", "the rule may never produce an occurrence")
		}
	}

	if r.Freq().SubDaily() {
		warn("sub-daily-frequency",
			"%s rules generate very many occurrences and are expensive to expand", r.Freq())
	}
	if count, ok := r.Count(); ok && count > countWarnThreshold {
		warn("large-count", "COUNT=%d makes full expansion expensive", count)
	}
	if r.Freq() == rule.Monthly && len(r.ByDay()) > 0 && len(r.BySetPos()) == 0 && !allOrdinal(r.ByDay()) {
		warn("ambiguous-monthly-byday",
			"MONTHLY with BYDAY and no BYSETPOS matches every qualifying weekday in the month")
	}

	return result
}

func hasUntil(r *rule.Rule) bool {
	_, ok := r.Until()
	return ok
}

func hasCount(r *rule.Rule) bool {
	_, ok := r.Count()
	return ok
}

func allOrdinal(specs []rule.WeekdaySpec) bool {
	for _, ws := range specs {
		if ws.Ordinal == 0 {
			return false
		}
	}
	return true
}
