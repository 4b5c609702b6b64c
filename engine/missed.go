package engine

import (
	"time"
)

// MissedPolicy selects what to do with occurrences that elapsed while a
// task went unchecked.
type MissedPolicy string

const (
	// MissedPolicySkip ignores elapsed occurrences entirely; the caller
	// should jump straight to Next.
	MissedPolicySkip MissedPolicy = "skip"
	// MissedPolicyCatchUp reports each elapsed occurrence, invoking the
	// callback per occurrence when one is given.
	MissedPolicyCatchUp MissedPolicy = "catch-up"
	// MissedPolicyCountOnly reports only how many occurrences elapsed.
	MissedPolicyCountOnly MissedPolicy = "count-only"
)

// MissedResult is the outcome of a missed-occurrence scan.
type MissedResult struct {
	// Occurrences lists the elapsed occurrences under the catch-up
	// policy; nil otherwise.
	Occurrences []time.Time
	// Count is the number of elapsed occurrences found, after the cap.
	Count int
	// LimitReached is set when a cap cut the scan short while more
	// occurrences remained in the window.
	LimitReached bool
}

// MissedOccurrences finds occurrences strictly between lastChecked and
// now, capped at maxMissed and, regardless of maxMissed, at the internal
// enumeration ceiling; LimitReached reports when either cap cut the scan
// short. Under the skip policy the result is always empty. The callback, when given, runs once per occurrence under the
// catch-up policy; a panic in it is caught and logged, never propagated,
// so one caller-side failure cannot corrupt the rest of the batch.
func (e *Engine) MissedOccurrences(t Task, lastChecked, now time.Time, policy MissedPolicy, maxMissed int, callback func(time.Time)) (MissedResult, error) {
	if policy == MissedPolicySkip {
		return MissedResult{}, nil
	}

	r, err := e.handle(t)
	if err != nil {
		return MissedResult{}, err
	}

	limit := maxMissed
	if limit <= 0 || limit > maxEnumeration {
		limit = maxEnumeration
	}

	var result MissedResult
	e.guard(t.ID(), "missedOccurrences", func() {
		scanWindow(t, r, lastChecked, now, func(at time.Time) bool {
			// the scan window is inclusive; missed occurrences are
			// strictly between
			if !at.After(lastChecked) || !at.Before(now) {
				return true
			}
			if result.Count >= limit {
				result.LimitReached = true
				return false
			}
			result.Count++
			if policy == MissedPolicyCatchUp {
				result.Occurrences = append(result.Occurrences, at)
				if callback != nil {
					e.invokeCallback(t.ID(), at, callback)
				}
			}
			return true
		})
	})
	return result, nil
}

func (e *Engine) invokeCallback(taskID string, at time.Time, callback func(time.Time)) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("missed-occurrence callback failed",
				"task", taskID,
				"occurrence", at,
				"panic", p)
		}
	}()
	callback(at)
}
