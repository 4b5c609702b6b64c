package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/explain"
	"github.com/cyp0633/librecur/rule"
	"github.com/cyp0633/librecur/validate"
)

// Engine evaluates recurring-task schedules. It owns the rule cache;
// callers hold the engine, never cache entries. All methods are safe for
// concurrent use.
type Engine struct {
	cache  *ruleCache
	logger *slog.Logger
}

// New creates an engine from the given configuration.
func New(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	capacity := cfg.CacheCapacity
	if capacity < 1 {
		capacity = DefaultEngineConfig.CacheCapacity
	}
	return &Engine{
		cache:  newRuleCache(capacity),
		logger: logger,
	}
}

// handle resolves the task's parsed rule through the cache. Parse
// failures on a never-before-cached (task, rule) pair are the only hard
// failures the engine propagates.
func (e *Engine) handle(t Task) (*rule.Rule, error) {
	loc := t.Location()
	if loc == nil {
		loc = t.Anchor().Location()
	}
	return e.cache.getOrParse(t.ID(), t.RuleExpr(), t.Anchor(), loc)
}

// guard runs fn and converts any panic into the operation's zero result,
// logged with the task id and operation name. One corrupt task's rule
// must not take down a whole list render.
func (e *Engine) guard(taskID, op string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("recurrence computation failed",
				"task", taskID,
				"op", op,
				"panic", p)
		}
	}()
	fn()
}

// Next returns the next occurrence of the task after the reference
// instant, or None when the series has no further occurrences. In fixed
// mode the occurrence comes from the anchor grid; in when-done mode the
// series is re-anchored at the reference instant.
func (e *Engine) Next(t Task, ref time.Time) (mo.Option[time.Time], error) {
	r, err := e.handle(t)
	if err != nil {
		return mo.None[time.Time](), err
	}
	next := mo.None[time.Time]()
	e.guard(t.ID(), "next", func() {
		next = e.nextAfter(t, r, ref)
	})
	return next, nil
}

func (e *Engine) nextAfter(t Task, r *rule.Rule, ref time.Time) mo.Option[time.Time] {
	series := r
	if t.Mode() == rule.WhenDone {
		rebased, err := r.Rebase(ref)
		if err != nil {
			e.logger.Error("cannot rebase rule",
				"task", t.ID(),
				"op", "next",
				"error", err)
			return mo.None[time.Time]()
		}
		series = rebased
	}

	at, ok := series.After(ref, false)
	for ok {
		adjusted := applyFixedTime(t, series, at)
		// a fixed time-of-day can pull the instant back to or before the
		// reference; keep Next strictly after it
		if adjusted.After(ref) {
			return mo.Some(adjusted)
		}
		at, ok = series.After(at, false)
	}
	return mo.None[time.Time]()
}

// applyFixedTime pins an occurrence to the task's fixed wall-clock time,
// in the rule's timezone. Sub-daily rules carry their own times and are
// left alone.
func applyFixedTime(t Task, r *rule.Rule, at time.Time) time.Time {
	tod, ok := t.FixedTime()
	if !ok || r.Freq().SubDaily() {
		return at
	}
	local := at.In(r.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), tod.Hour, tod.Minute, 0, 0, r.Location())
}

// Preview returns up to limit upcoming occurrences at or after from,
// against the anchor grid. The limit is capped at the engine's internal
// enumeration ceiling; a when-done series depends on completion times the
// engine cannot know, so preview assumes on-time completion and shows the
// same grid as fixed mode.
func (e *Engine) Preview(t Task, from time.Time, limit int) ([]time.Time, error) {
	r, err := e.handle(t)
	if err != nil {
		return nil, err
	}
	if limit > maxEnumeration {
		limit = maxEnumeration
	}
	if limit < 1 {
		return nil, nil
	}

	var out []time.Time
	e.guard(t.ID(), "preview", func() {
		next := r.Iterator()
		for at, ok := next(); ok && len(out) < limit; at, ok = next() {
			adjusted := applyFixedTime(t, r, at)
			if !adjusted.Before(from) {
				out = append(out, adjusted)
			}
		}
	})
	return out, nil
}

// Between returns every occurrence within [from, to] in ascending order,
// capped at the internal enumeration ceiling.
func (e *Engine) Between(t Task, from, to time.Time) ([]time.Time, error) {
	r, err := e.handle(t)
	if err != nil {
		return nil, err
	}

	var out []time.Time
	e.guard(t.ID(), "between", func() {
		scanWindow(t, r, from, to, func(at time.Time) bool {
			if len(out) == maxEnumeration {
				return false
			}
			out = append(out, at)
			return true
		})
	})
	return out, nil
}

// scanWindow walks the series in a single pass and hands every
// occurrence inside [from, to], fixed time applied, to emit until emit
// returns false or the window is exhausted. Work is bounded by how far
// emit lets the scan run, never by the size of the requested window.
func scanWindow(t Task, r *rule.Rule, from, to time.Time, emit func(time.Time) bool) {
	next := r.Iterator()
	for at, ok := next(); ok; at, ok = next() {
		if at.After(to) {
			return
		}
		adjusted := applyFixedTime(t, r, at)
		// the fixed time can move an occurrence across either edge
		if adjusted.Before(from) || adjusted.After(to) {
			continue
		}
		if !emit(adjusted) {
			return
		}
	}
}

// IsOccurrenceOn reports whether the task has an occurrence on the same
// calendar day as at, in the rule's timezone.
func (e *Engine) IsOccurrenceOn(t Task, at time.Time) (bool, error) {
	r, err := e.handle(t)
	if err != nil {
		return false, err
	}
	occurs := false
	e.guard(t.ID(), "isOccurrenceOn", func() {
		occurs = r.OccursOn(at)
	})
	return occurs, nil
}

// Explain reconstructs the audit narrative for the task's next
// occurrence relative to ref. The narrative is derived from the computed
// result, never recomputed, so it cannot diverge from Next.
func (e *Engine) Explain(t Task, ref time.Time) (explain.Explanation, error) {
	r, err := e.handle(t)
	if err != nil {
		return explain.Explanation{}, err
	}
	var result mo.Option[time.Time]
	e.guard(t.ID(), "explain", func() {
		result = e.nextAfter(t, r, ref)
	})
	return explain.Build(r, t.Mode(), ref, result), nil
}

// ExplainDate states whether at is an occurrence of the task, with the
// first disqualifying reason when it is not.
func (e *Engine) ExplainDate(t Task, at time.Time) (explain.DateExplanation, error) {
	r, err := e.handle(t)
	if err != nil {
		return explain.DateExplanation{}, err
	}
	return explain.ExplainDate(r, at), nil
}

// IsValid checks the rule expression against the anchor without touching
// the cache. Defects come back as data, never as an error, so UIs can
// surface warnings without blocking a save.
func (e *Engine) IsValid(expr string, anchor time.Time) validate.Result {
	return validate.Validate(expr, anchor, nil)
}

// ToNaturalLanguage renders a rule expression as a phrase in the
// companion dialect, falling back to a generic frequency sentence for
// shapes the dialect cannot express.
func (e *Engine) ToNaturalLanguage(expr string, anchor time.Time) (string, error) {
	return explain.Summarize(expr, anchor, nil)
}

// ClearCache drops every cached rule and resets the counters.
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// InvalidateTask removes every cached rule derived from the task id and
// returns the count. Call it whenever a task's rule or anchor changes; a
// stale handle silently yields wrong answers.
func (e *Engine) InvalidateTask(taskID string) int {
	return e.cache.invalidateTask(taskID)
}

// CacheStats reports cache occupancy and hit rate, for tuning only.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.stats()
}
