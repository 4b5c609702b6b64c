package engine

import (
	"time"

	"github.com/cyp0633/librecur/rule"
)

// TimeOfDay is a fixed wall-clock time applied to computed occurrence
// dates.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Task is the engine's view of a recurring task. Anything exposing these
// accessors can be scheduled; the engine never looks at the rest of the
// value.
type Task interface {
	// ID is a stable identifier; cache entries are keyed by it.
	ID() string

	// RuleExpr is the task's recurrence rule expression.
	RuleExpr() string

	// Anchor is the instant the series is anchored to.
	Anchor() time.Time

	// Mode selects fixed or when-done scheduling.
	Mode() rule.Mode

	// FixedTime returns the wall-clock time occurrences are pinned to,
	// if any.
	FixedTime() (TimeOfDay, bool)

	// Location returns the timezone override for this task, or nil to
	// use the anchor's location.
	Location() *time.Location
}
