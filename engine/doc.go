/*
Package engine evaluates recurring-task schedules against RFC 5545
recurrence rules. It is an in-process computation library: no timers, no
I/O, no persistence — callers poll it and own their own storage.

# Basic Usage

Create one engine and share it; it owns the rule cache:

	eng := engine.New(engine.DefaultEngineConfig)

	next, err := eng.Next(task, time.Now())
	if err != nil {
		// the task's rule expression cannot be parsed
	}
	if at, ok := next.Get(); ok {
		fmt.Println("due", at)
	} else {
		fmt.Println("no further occurrences")
	}

A task is any value implementing the Task interface: a stable id, a rule
expression, an anchor instant, a scheduling mode, an optional fixed
time-of-day, an optional timezone override. The engine never looks
beyond those accessors.

# Scheduling Modes

Fixed mode derives every occurrence from the anchor and rule alone:
"every Monday" stays every Monday no matter when the task is completed.
When-done mode re-anchors the series at the reference instant passed to
Next — "every 3 days when done" means three days after completion.

# Caching and Invalidation

Parsed rules are memoized per (task id, expression) with
least-recently-accessed eviction. Whenever a task's rule or anchor
changes, call InvalidateTask: a stale handle silently yields wrong
answers with no hard failure. CacheStats numbers are for tuning only.

# Failure Model

The only hard failure an operation propagates is a parse failure on a
never-before-cached (task, rule) pair. Any internal failure while
computing an answer is logged with the task id and operation name and
degrades to that operation's "nothing found" result. "No further
occurrences" is a normal value, not an error.
*/
package engine
