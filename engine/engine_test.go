package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/librecur/rule"
)

// testTask is a minimal Task for tests.
type testTask struct {
	id     string
	expr   string
	anchor time.Time
	mode   rule.Mode
	fixed  *TimeOfDay
	loc    *time.Location
}

func (t *testTask) ID() string                { return t.id }
func (t *testTask) RuleExpr() string          { return t.expr }
func (t *testTask) Anchor() time.Time         { return t.anchor }
func (t *testTask) Mode() rule.Mode           { return t.mode }
func (t *testTask) Location() *time.Location { return t.loc }

func (t *testTask) FixedTime() (TimeOfDay, bool) {
	if t.fixed == nil {
		return TimeOfDay{}, false
	}
	return *t.fixed, true
}

var anchor = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return New(DefaultEngineConfig)
}

func TestNext_Fixed(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY;INTERVAL=1", anchor: anchor}

	next, err := eng.Next(task, anchor)
	require.NoError(t, err)
	at, ok := next.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC), at)
}

func TestNext_WhenDoneSlidesFromReference(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY;INTERVAL=3", anchor: anchor, mode: rule.WhenDone}

	done := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	next, err := eng.Next(task, done)
	require.NoError(t, err)
	at, ok := next.Get()
	require.True(t, ok)
	assert.Equal(t, done.AddDate(0, 0, 3), at)

	// fixed mode stays on the anchor grid instead
	fixed := &testTask{id: "t2", expr: "FREQ=DAILY;INTERVAL=3", anchor: anchor}
	next, err = eng.Next(fixed, done)
	require.NoError(t, err)
	at, ok = next.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC), at)
}

func TestNext_NoFurtherOccurrences(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY;COUNT=3", anchor: anchor}

	next, err := eng.Next(task, anchor.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, next.IsAbsent(), "exhausted series is a normal value, not an error")
}

func TestNext_MalformedRulePropagates(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=NEVER", anchor: anchor}

	_, err := eng.Next(task, anchor)
	require.Error(t, err)
	assert.True(t, rule.IsMalformed(err))
}

func TestNext_FixedTimeOfDay(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{
		id:     "t1",
		expr:   "FREQ=DAILY",
		anchor: anchor,
		fixed:  &TimeOfDay{Hour: 8, Minute: 30},
	}

	next, err := eng.Next(task, anchor)
	require.NoError(t, err)
	at, ok := next.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 16, 8, 30, 0, 0, time.UTC), at)

	// the adjusted instant must stay strictly after the reference even
	// when the fixed time pulls it backwards past it
	ref := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	next, err = eng.Next(task, ref)
	require.NoError(t, err)
	at, ok = next.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 17, 8, 30, 0, 0, time.UTC), at)
}

func TestPreview(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY;INTERVAL=2", anchor: anchor}

	got, err := eng.Preview(task, anchor, 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		anchor,
		anchor.AddDate(0, 0, 2),
		anchor.AddDate(0, 0, 4),
	}, got)
}

func TestPreview_LimitCeiling(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY", anchor: anchor}

	got, err := eng.Preview(task, anchor, 10000)
	require.NoError(t, err)
	assert.Len(t, got, maxEnumeration, "unterminated rules are bounded by the internal ceiling")

	got, err = eng.Preview(task, anchor, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBetween(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=31", anchor: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}

	got, err := eng.Between(task,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}, got)
}

func TestBetween_FixedTimeKeepsWindow(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{
		id:     "t1",
		expr:   "FREQ=DAILY",
		anchor: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		fixed:  &TimeOfDay{Hour: 6},
	}

	from := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)
	got, err := eng.Between(task, from, to)
	require.NoError(t, err)

	// Jan 2 adjusts to 06:00, before the window start, and drops out
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 6, 0, 0, 0, time.UTC),
	}, got)
	for i, at := range got {
		assert.False(t, at.Before(from) || at.After(to), "occurrence %d outside window", i)
	}
}

func TestBetween_SubDailyCeiling(t *testing.T) {
	eng := newTestEngine()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &testTask{id: "t1", expr: "FREQ=SECONDLY", anchor: from}

	// a month of seconds is millions of instants; the scan must stop at
	// the ceiling instead of expanding the whole window first
	got, err := eng.Between(task, from, from.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, got, maxEnumeration)
	assert.Equal(t, from, got[0])
	assert.Equal(t, from.Add(time.Duration(maxEnumeration-1)*time.Second), got[len(got)-1])
}

func TestIsOccurrenceOn(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=WEEKLY;BYDAY=MO", anchor: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}

	occurs, err := eng.IsOccurrenceOn(task, time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, occurs)

	occurs, err = eng.IsOccurrenceOn(task, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, occurs)
}

func TestExplain_MatchesNext(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY;INTERVAL=3", anchor: anchor}
	ref := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	next, err := eng.Next(task, ref)
	require.NoError(t, err)
	at, ok := next.Get()
	require.True(t, ok)

	ex, err := eng.Explain(task, ref)
	require.NoError(t, err)
	require.NotEmpty(t, ex.Steps)

	last := ex.Steps[len(ex.Steps)-1]
	assert.Equal(t, "result", last.Name)
	assert.Equal(t, at.Format(time.RFC3339), last.Value)
}

func TestToNaturalLanguage(t *testing.T) {
	eng := newTestEngine()

	sentence, err := eng.ToNaturalLanguage("FREQ=DAILY;INTERVAL=3", anchor)
	require.NoError(t, err)
	assert.Equal(t, "every 3 days", sentence)

	_, err = eng.ToNaturalLanguage("FREQ=NEVER", anchor)
	assert.Error(t, err)
}

func TestIsValid(t *testing.T) {
	eng := newTestEngine()

	result := eng.IsValid("FREQ=DAILY;COUNT=5;UNTIL=20240101T000000Z", anchor)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "COUNT")
	assert.Contains(t, result.Errors[0].Message, "UNTIL")

	assert.True(t, eng.IsValid("FREQ=DAILY", anchor).Valid)
}

func TestMissedOccurrences(t *testing.T) {
	eng := newTestEngine()
	task := &testTask{id: "t1", expr: "FREQ=DAILY", anchor: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	lastChecked := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	t.Run("skip returns empty", func(t *testing.T) {
		result, err := eng.MissedOccurrences(task, lastChecked, now, MissedPolicySkip, 10, nil)
		require.NoError(t, err)
		assert.Zero(t, result.Count)
		assert.Empty(t, result.Occurrences)
	})

	t.Run("catch-up is strictly between and invokes the callback", func(t *testing.T) {
		var seen []time.Time
		result, err := eng.MissedOccurrences(task, lastChecked, now, MissedPolicyCatchUp, 10, func(at time.Time) {
			seen = append(seen, at)
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count)
		assert.False(t, result.LimitReached)
		assert.Equal(t, []time.Time{
			time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC),
		}, result.Occurrences)
		assert.Equal(t, result.Occurrences, seen)
	})

	t.Run("count-only reports the count without occurrences", func(t *testing.T) {
		result, err := eng.MissedOccurrences(task, lastChecked, now, MissedPolicyCountOnly, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count)
		assert.Nil(t, result.Occurrences)
	})

	t.Run("cap sets the limit flag", func(t *testing.T) {
		result, err := eng.MissedOccurrences(task, lastChecked, now, MissedPolicyCatchUp, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
		assert.True(t, result.LimitReached)
	})

	t.Run("the internal ceiling sets the limit flag", func(t *testing.T) {
		// 699 daily occurrences elapsed, far beyond the enumeration
		// ceiling; the result must say so rather than pass off a
		// truncated batch as complete
		gap := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
		result, err := eng.MissedOccurrences(task, lastChecked, gap, MissedPolicyCountOnly, 1000, nil)
		require.NoError(t, err)
		assert.Equal(t, maxEnumeration, result.Count)
		assert.True(t, result.LimitReached)
	})

	t.Run("an uncapped scan is still bounded by the ceiling", func(t *testing.T) {
		gap := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
		result, err := eng.MissedOccurrences(task, lastChecked, gap, MissedPolicyCountOnly, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, maxEnumeration, result.Count)
		assert.True(t, result.LimitReached)
	})

	t.Run("a panicking callback does not corrupt the batch", func(t *testing.T) {
		calls := 0
		result, err := eng.MissedOccurrences(task, lastChecked, now, MissedPolicyCatchUp, 10, func(at time.Time) {
			calls++
			panic("caller bug")
		})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count)
		assert.Equal(t, 3, calls)
	})
}
