// Package caltext holds the word tables shared by the explainer and the
// natural-language phrase mapper: weekday and month names, RFC 5545 day
// codes, ordinal words and frequency units, in both directions.
package caltext

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var codeDays = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// weekday name tokens accepted by the phrase parser; normalized to lower case
var nameDays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// DayCode returns the RFC 5545 two-letter code for a weekday.
func DayCode(d time.Weekday) string { return dayCodes[d] }

// ParseDayCode parses an RFC 5545 two-letter weekday code.
func ParseDayCode(s string) (time.Weekday, bool) {
	d, ok := codeDays[strings.ToUpper(s)]
	return d, ok
}

// WeekdayName returns the capitalized English weekday name.
func WeekdayName(d time.Weekday) string { return d.String() }

// ParseWeekdayName parses a full or abbreviated weekday name, case-insensitively.
func ParseWeekdayName(s string) (time.Weekday, bool) {
	d, ok := nameDays[strings.ToLower(s)]
	return d, ok
}

// MonthName returns the capitalized English month name for 1..12.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return time.Month(m).String()
}

var ordinalWords = map[int]string{
	1:  "first",
	2:  "second",
	3:  "third",
	4:  "fourth",
	-1: "last",
}

var wordOrdinals = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
	"fifth":  5,
	"last":   -1,
}

// OrdinalWord renders an ordinal position as a word where one exists
// (first..fourth, last), falling back to the numeric form ("5th").
func OrdinalWord(n int) string {
	if w, ok := ordinalWords[n]; ok {
		return w
	}
	return Ordinal(n)
}

// Ordinal renders n with its English ordinal suffix ("3rd", "21st").
func Ordinal(n int) string {
	suffix := "th"
	switch abs := n % 100; {
	case abs >= 11 && abs <= 13, abs <= -11 && abs >= -13:
	default:
		switch n % 10 {
		case 1, -1:
			suffix = "st"
		case 2, -2:
			suffix = "nd"
		case 3, -3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// ParseOrdinal parses an ordinal token: a word (first..fifth, last) or a
// numeric form with suffix ("3rd", "21st"). Zero is never a valid ordinal.
func ParseOrdinal(tok string) (int, bool) {
	tok = strings.ToLower(tok)
	if n, ok := wordOrdinals[tok]; ok {
		return n, true
	}
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if rest, ok := strings.CutSuffix(tok, suffix); ok {
			n, err := strconv.Atoi(rest)
			if err != nil || n == 0 {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

var freqUnits = map[string]string{
	"SECONDLY": "second",
	"MINUTELY": "minute",
	"HOURLY":   "hour",
	"DAILY":    "day",
	"WEEKLY":   "week",
	"MONTHLY":  "month",
	"YEARLY":   "year",
}

var unitFreqs = map[string]string{
	"second": "SECONDLY",
	"minute": "MINUTELY",
	"hour":   "HOURLY",
	"day":    "DAILY",
	"week":   "WEEKLY",
	"month":  "MONTHLY",
	"year":   "YEARLY",
}

// UnitName maps an RFC 5545 FREQ token to its singular English unit ("day").
func UnitName(freq string) string {
	if u, ok := freqUnits[strings.ToUpper(freq)]; ok {
		return u
	}
	return strings.ToLower(freq)
}

// ParseUnit maps a singular or plural unit word to its FREQ token.
func ParseUnit(tok string) (string, bool) {
	tok = strings.ToLower(tok)
	if f, ok := unitFreqs[tok]; ok {
		return f, true
	}
	if singular, ok := strings.CutSuffix(tok, "s"); ok {
		if f, ok := unitFreqs[singular]; ok {
			return f, true
		}
	}
	return "", false
}
