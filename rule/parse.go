package rule

import (
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var frequencies = map[string]Frequency{
	"SECONDLY": Secondly,
	"MINUTELY": Minutely,
	"HOURLY":   Hourly,
	"DAILY":    Daily,
	"WEEKLY":   Weekly,
	"MONTHLY":  Monthly,
	"YEARLY":   Yearly,
}

var rruleFreqs = map[Frequency]rrule.Frequency{
	Secondly: rrule.SECONDLY,
	Minutely: rrule.MINUTELY,
	Hourly:   rrule.HOURLY,
	Daily:    rrule.DAILY,
	Weekly:   rrule.WEEKLY,
	Monthly:  rrule.MONTHLY,
	Yearly:   rrule.YEARLY,
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

var dayTokens = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// Parse parses a recurrence rule expression into an immutable Rule
// anchored at anchor, evaluated in loc (anchor's own location when loc is
// nil). The leading "RRULE:" property name is accepted and ignored.
//
// Grammar violations return a *MalformedRuleError; an expression with no
// usable content returns ErrEmptyRuleSet.
func Parse(expr string, anchor time.Time, loc *time.Location) (*Rule, error) {
	trimmed := strings.TrimSpace(expr)
	trimmed = strings.TrimPrefix(trimmed, "RRULE:")
	if trimmed == "" {
		return nil, ErrEmptyRuleSet
	}
	if loc == nil {
		loc = anchor.Location()
	}

	r := &Rule{
		expr:     trimmed,
		anchor:   anchor.In(loc).Truncate(time.Second),
		loc:      loc,
		interval: 1,
	}

	seen := map[string]bool{}
	for _, part := range strings.Split(trimmed, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !found || value == "" {
			return nil, malformed(trimmed, key, "part %q has no value", part)
		}
		if seen[key] {
			return nil, malformed(trimmed, key, "%s given more than once", key)
		}
		seen[key] = true

		var err error
		switch key {
		case "FREQ":
			f, ok := frequencies[strings.ToUpper(value)]
			if !ok {
				err = malformed(trimmed, key, "unknown frequency %q", value)
			}
			r.freq = f
		case "INTERVAL":
			r.interval, err = parsePositiveInt(trimmed, key, value)
		case "COUNT":
			r.count, err = parsePositiveInt(trimmed, key, value)
		case "UNTIL":
			r.until, err = parseInstant(trimmed, value, loc)
		case "BYDAY":
			r.byDay, err = parseByDay(trimmed, value)
		case "BYMONTHDAY":
			r.byMonthDay, err = parseIntList(trimmed, key, value, func(n int) bool {
				return n != 0 && n >= -31 && n <= 31
			})
		case "BYMONTH":
			r.byMonth, err = parseIntList(trimmed, key, value, func(n int) bool {
				return n >= 1 && n <= 12
			})
		case "BYSETPOS":
			r.bySetPos, err = parseIntList(trimmed, key, value, func(n int) bool {
				return n != 0
			})
		default:
			err = malformed(trimmed, key, "unsupported rule part %q", key)
		}
		if err != nil {
			return nil, err
		}
	}

	if r.freq == "" {
		return nil, malformed(trimmed, "FREQ", "missing FREQ")
	}
	if r.count > 0 && !r.until.IsZero() {
		return nil, malformed(trimmed, "COUNT/UNTIL", "COUNT and UNTIL are mutually exclusive")
	}
	if len(r.bySetPos) > 0 && len(r.byDay) == 0 {
		return nil, malformed(trimmed, "BYSETPOS", "BYSETPOS requires BYDAY")
	}

	rr, err := rrule.NewRRule(r.roption())
	if err != nil {
		return nil, malformed(trimmed, "", "unusable rule: %v", err)
	}
	r.rr = rr
	return r, nil
}

func (r *Rule) roption() rrule.ROption {
	opt := rrule.ROption{
		Freq:     rruleFreqs[r.freq],
		Interval: r.interval,
		Dtstart:  r.anchor,
		Count:    r.count,
		Until:    r.until,
	}
	for _, ws := range r.byDay {
		w := rruleWeekdays[ws.Day]
		if ws.Ordinal != 0 {
			w = w.Nth(ws.Ordinal)
		}
		opt.Byweekday = append(opt.Byweekday, w)
	}
	opt.Bymonthday = append(opt.Bymonthday, r.byMonthDay...)
	opt.Bymonth = append(opt.Bymonth, r.byMonth...)
	opt.Bysetpos = append(opt.Bysetpos, r.bySetPos...)
	return opt
}

// String renders the rule in canonical part order, independent of the
// order the expression supplied.
func (r *Rule) String() string {
	parts := []string{"FREQ=" + string(r.freq)}
	if r.interval != 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.interval))
	}
	if len(r.byDay) > 0 {
		tokens := make([]string, len(r.byDay))
		for i, ws := range r.byDay {
			tok := dayCode(ws.Day)
			if ws.Ordinal != 0 {
				tok = strconv.Itoa(ws.Ordinal) + tok
			}
			tokens[i] = tok
		}
		parts = append(parts, "BYDAY="+strings.Join(tokens, ","))
	}
	if len(r.byMonthDay) > 0 {
		parts = append(parts, "BYMONTHDAY="+joinInts(r.byMonthDay))
	}
	if len(r.byMonth) > 0 {
		parts = append(parts, "BYMONTH="+joinInts(r.byMonth))
	}
	if len(r.bySetPos) > 0 {
		parts = append(parts, "BYSETPOS="+joinInts(r.bySetPos))
	}
	if r.count > 0 {
		parts = append(parts, "COUNT="+strconv.Itoa(r.count))
	}
	if !r.until.IsZero() {
		parts = append(parts, "UNTIL="+r.until.UTC().Format("20060102T150405Z"))
	}
	return strings.Join(parts, ";")
}

func dayCode(d time.Weekday) string {
	for code, wd := range dayTokens {
		if wd == d {
			return code
		}
	}
	return ""
}

func joinInts(ns []int) string {
	tokens := make([]string, len(ns))
	for i, n := range ns {
		tokens[i] = strconv.Itoa(n)
	}
	return strings.Join(tokens, ",")
}

func parsePositiveInt(expr, key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, malformed(expr, key, "%s is not a number: %q", key, value)
	}
	if n < 1 {
		return 0, malformed(expr, key, "%s must be at least 1, got %d", key, n)
	}
	return n, nil
}

func parseIntList(expr, key, value string, valid func(int) bool) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, malformed(expr, key, "%s entry is not a number: %q", key, tok)
		}
		if !valid(n) {
			return nil, malformed(expr, key, "%s entry out of range: %d", key, n)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseByDay(expr, value string) ([]WeekdaySpec, error) {
	var out []WeekdaySpec
	for _, tok := range strings.Split(value, ",") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if len(tok) < 2 {
			return nil, malformed(expr, "BYDAY", "BYDAY entry too short: %q", tok)
		}
		code := tok[len(tok)-2:]
		day, ok := dayTokens[code]
		if !ok {
			return nil, malformed(expr, "BYDAY", "unknown weekday %q", tok)
		}
		spec := WeekdaySpec{Day: day}
		if prefix := tok[:len(tok)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || n == 0 {
				return nil, malformed(expr, "BYDAY", "bad ordinal prefix in %q", tok)
			}
			spec.Ordinal = n
		}
		out = append(out, spec)
	}
	return out, nil
}

// parseInstant accepts the RFC 5545 basic date-time forms: UTC
// ("20240101T000000Z"), floating ("20240101T000000", read in loc) and
// date-only ("20240101", midnight in loc).
func parseInstant(expr, value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse("20060102T150405Z", value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("20060102T150405", value, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("20060102", value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, malformed(expr, "UNTIL", "cannot parse instant %q", value)
}
