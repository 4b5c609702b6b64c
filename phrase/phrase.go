// Package phrase maps between rule expressions and a constrained
// human-readable dialect: "every 3 days", "every week on Monday and
// Friday", "every second Tuesday of the month when done". Parsing fails
// closed: input the dialect does not cover returns an invalid result
// with a reason, never a guess.
package phrase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/internal/caltext"
	"github.com/cyp0633/librecur/rule"
)

// ParseResult is the outcome of parsing one phrase.
type ParseResult struct {
	// Rule is the equivalent rule expression, empty when invalid.
	Rule string
	// Mode carries the "when done"/"when due" suffix; Fixed by default.
	Mode rule.Mode
	Valid  bool
	Reason string
}

func invalid(format string, args ...any) ParseResult {
	return ParseResult{Reason: fmt.Sprintf(format, args...)}
}

func valid(expr string, mode rule.Mode) ParseResult {
	return ParseResult{Rule: expr, Mode: mode, Valid: true}
}

// Parse translates a phrase into a rule expression. Case and surrounding
// whitespace are normalized away before matching.
func Parse(text string) ParseResult {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return invalid("empty phrase")
	}
	if words[0] != "every" {
		return invalid("phrase must start with \"every\"")
	}
	words = words[1:]

	mode := rule.Fixed
	if n := len(words); n >= 2 && words[n-2] == "when" {
		switch words[n-1] {
		case "done":
			mode = rule.WhenDone
		case "due":
			mode = rule.Fixed
		default:
			return invalid("unknown suffix %q", "when "+words[n-1])
		}
		words = words[:n-2]
	}
	if len(words) == 0 {
		return invalid("nothing follows \"every\"")
	}

	// irregulars: weekday(s), weekend(s)
	if len(words) == 1 {
		switch words[0] {
		case "weekday", "weekdays":
			return valid("FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", mode)
		case "weekend", "weekends":
			return valid("FREQ=WEEKLY;BYDAY=SA,SU", mode)
		}
	}

	// ordinal-weekday: every <first|second|...|last|Nth> <weekday> [of the month]
	if ord, ok := caltext.ParseOrdinal(words[0]); ok {
		if len(words) < 2 {
			return invalid("%q needs a weekday after it", words[0])
		}
		day, ok := caltext.ParseWeekdayName(words[1])
		if !ok {
			return invalid("%q is not a weekday", words[1])
		}
		rest := strings.Join(words[2:], " ")
		if rest != "" && rest != "of the month" {
			return invalid("unexpected trailing words %q", rest)
		}
		expr := fmt.Sprintf("FREQ=MONTHLY;BYDAY=%s;BYSETPOS=%d", caltext.DayCode(day), ord)
		return valid(expr, mode)
	}

	// regular form: [N] <unit>[s] [on <days>]
	interval := 1
	if n, err := strconv.Atoi(words[0]); err == nil {
		if n < 1 {
			return invalid("interval must be at least 1, got %d", n)
		}
		interval = n
		words = words[1:]
		if len(words) == 0 {
			return invalid("a number must be followed by a unit")
		}
	}

	freq, ok := caltext.ParseUnit(words[0])
	if !ok {
		return invalid("%q is not a recognized unit or pattern", words[0])
	}
	words = words[1:]

	var days []time.Weekday
	if len(words) > 0 {
		if words[0] != "on" {
			return invalid("unexpected word %q", words[0])
		}
		if freq != "WEEKLY" {
			return invalid("\"on <days>\" only applies to weekly rules")
		}
		for _, tok := range words[1:] {
			tok = strings.Trim(tok, ",")
			if tok == "" || tok == "and" {
				continue
			}
			day, ok := caltext.ParseWeekdayName(tok)
			if !ok {
				return invalid("%q is not a weekday", tok)
			}
			days = append(days, day)
		}
		if len(days) == 0 {
			return invalid("\"on\" must be followed by at least one weekday")
		}
	}

	parts := []string{"FREQ=" + freq}
	if interval != 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(interval))
	}
	if len(days) > 0 {
		codes := make([]string, len(days))
		for i, d := range days {
			codes[i] = caltext.DayCode(d)
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	return valid(strings.Join(parts, ";"), mode)
}

// Stringify renders a parsed rule as a phrase. It inverts every phrase
// Parse accepts; rule shapes with no dialect equivalent fall back to a
// minimal "every N <unit>s" sentence. The when-done suffix is appended
// for that mode.
func Stringify(r *rule.Rule, mode rule.Mode) string {
	sentence := stringifyBody(r)
	if mode == rule.WhenDone {
		sentence += " when done"
	}
	return sentence
}

func stringifyBody(r *rule.Rule) string {
	byDay := r.ByDay()

	if r.Freq() == rule.Weekly && r.Interval() == 1 {
		if matchesDays(byDay, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday) {
			return "every weekday"
		}
		if matchesDays(byDay, time.Saturday, time.Sunday) {
			return "every weekend"
		}
	}

	// monthly ordinal weekday, in either encoding: BYSETPOS or an
	// ordinal-prefixed BYDAY entry
	if r.Freq() == rule.Monthly && r.Interval() == 1 && len(byDay) == 1 {
		pos := r.BySetPos()
		switch {
		case byDay[0].Ordinal == 0 && len(pos) == 1:
			return fmt.Sprintf("every %s %s",
				caltext.OrdinalWord(pos[0]), caltext.WeekdayName(byDay[0].Day))
		case byDay[0].Ordinal != 0 && len(pos) == 0:
			return fmt.Sprintf("every %s %s",
				caltext.OrdinalWord(byDay[0].Ordinal), caltext.WeekdayName(byDay[0].Day))
		}
	}

	if r.Freq() == rule.Weekly && len(byDay) > 0 && allPlain(byDay) &&
		len(r.ByMonthDay()) == 0 && len(r.ByMonth()) == 0 && len(r.BySetPos()) == 0 {
		names := make([]string, len(byDay))
		for i, ws := range byDay {
			names[i] = caltext.WeekdayName(ws.Day)
		}
		return fmt.Sprintf("%s on %s", simpleSentence(r), strings.Join(names, ", "))
	}

	return simpleSentence(r)
}

// simpleSentence is the generic fallback: "every day", "every 3 weeks".
func simpleSentence(r *rule.Rule) string {
	unit := caltext.UnitName(string(r.Freq()))
	if r.Interval() == 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", r.Interval(), unit)
}

func matchesDays(specs []rule.WeekdaySpec, days ...time.Weekday) bool {
	if len(specs) != len(days) {
		return false
	}
	want := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		want[d] = true
	}
	for _, ws := range specs {
		if ws.Ordinal != 0 || !want[ws.Day] {
			return false
		}
		delete(want, ws.Day)
	}
	return len(want) == 0
}

func allPlain(specs []rule.WeekdaySpec) bool {
	for _, ws := range specs {
		if ws.Ordinal != 0 {
			return false
		}
	}
	return true
}
