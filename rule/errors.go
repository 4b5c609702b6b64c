package rule

import (
	"errors"
	"fmt"
)

// ErrEmptyRuleSet reports that no usable rule could be derived from the
// input, typically because the expression was empty.
var ErrEmptyRuleSet = errors.New("empty rule set")

// MalformedRuleError reports a grammar or semantic violation in a rule
// expression. Part names the offending rule part ("FREQ", "INTERVAL",
// "COUNT/UNTIL", ...) so callers can classify without string matching.
type MalformedRuleError struct {
	Expr   string
	Part   string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed rule %q: %s", e.Expr, e.Reason)
}

func malformed(expr, part, format string, args ...any) error {
	return &MalformedRuleError{Expr: expr, Part: part, Reason: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err is a rule grammar violation.
func IsMalformed(err error) bool {
	var m *MalformedRuleError
	return errors.As(err, &m)
}
