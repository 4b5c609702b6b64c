package rule

import (
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/internal/caltext"
)

// RuleSource is the boundary between the two rule input shapes the task
// manager supports: modern raw RRULE text and the legacy structured
// fields. Both reduce to a raw expression exactly once, so the evaluator
// only ever sees raw text.
type RuleSource interface {
	// Expr renders the source as a raw rule expression.
	Expr() string
}

// Raw is a rule expression passed through verbatim.
type Raw string

// Expr implements RuleSource.
func (r Raw) Expr() string { return string(r) }

// Structured is the legacy field-based rule shape. Zero fields are
// treated as absent; Interval 0 means 1.
type Structured struct {
	Freq       Frequency
	Interval   int
	Weekdays   []time.Weekday
	DayOfMonth int        // 1..31, 0 when unset
	Month      time.Month // 0 when unset
}

// Expr translates the structured fields into a raw expression.
//
// A requested day-of-month of 29..31 is rewritten to the last day of the
// month (BYMONTHDAY=-1) instead of kept literal: legacy structured input
// always lands somewhere every month, whereas a literal 29..31 would skip
// the months too short for it.
func (s Structured) Expr() string {
	parts := []string{"FREQ=" + string(s.Freq)}
	if s.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(s.Interval))
	}
	if len(s.Weekdays) > 0 {
		codes := make([]string, len(s.Weekdays))
		for i, d := range s.Weekdays {
			codes[i] = caltext.DayCode(d)
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	if s.DayOfMonth != 0 {
		day := s.DayOfMonth
		if day >= 29 {
			day = -1
		}
		parts = append(parts, "BYMONTHDAY="+strconv.Itoa(day))
	}
	if s.Month != 0 {
		parts = append(parts, "BYMONTH="+strconv.Itoa(int(s.Month)))
	}
	return strings.Join(parts, ";")
}
