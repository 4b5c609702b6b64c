// Command example demonstrates the recurrence engine against a small
// in-memory task list.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cyp0633/librecur/engine"
	"github.com/cyp0633/librecur/phrase"
	"github.com/cyp0633/librecur/rule"
)

// task is a minimal in-memory implementation of engine.Task.
type task struct {
	id     string
	name   string
	expr   string
	anchor time.Time
	mode   rule.Mode
	fixed  *engine.TimeOfDay
	loc    *time.Location
}

func (t *task) ID() string                { return t.id }
func (t *task) RuleExpr() string          { return t.expr }
func (t *task) Anchor() time.Time         { return t.anchor }
func (t *task) Mode() rule.Mode           { return t.mode }
func (t *task) Location() *time.Location { return t.loc }

func (t *task) FixedTime() (engine.TimeOfDay, bool) {
	if t.fixed == nil {
		return engine.TimeOfDay{}, false
	}
	return *t.fixed, true
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	eng := engine.New(engine.EngineConfig{
		CacheCapacity: engine.DefaultEngineConfig.CacheCapacity,
		Logger:        logger,
	})

	anchor := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tasks := []*task{
		{
			id:     uuid.NewString(),
			name:   "water the plants",
			expr:   "FREQ=DAILY;INTERVAL=3",
			anchor: anchor,
			mode:   rule.WhenDone,
		},
		{
			id:     uuid.NewString(),
			name:   "team retrospective",
			expr:   "FREQ=MONTHLY;BYDAY=FR;BYSETPOS=2",
			anchor: anchor,
			fixed:  &engine.TimeOfDay{Hour: 14, Minute: 30},
		},
		{
			id:     uuid.NewString(),
			name:   "pay rent",
			expr:   rule.Structured{Freq: rule.Monthly, DayOfMonth: 31}.Expr(),
			anchor: anchor,
		},
	}

	for _, t := range tasks {
		fmt.Printf("## %s\n", t.name)

		if sentence, err := eng.ToNaturalLanguage(t.expr, t.anchor); err == nil {
			fmt.Printf("   rule: %s (%q)\n", t.expr, sentence)
		}

		if result := eng.IsValid(t.expr, t.anchor); !result.Valid {
			fmt.Printf("   invalid: %v\n", result.Errors)
			continue
		}

		next, err := eng.Next(t, now)
		if err != nil {
			logger.Error("cannot schedule task", "task", t.id, "error", err)
			continue
		}
		if at, ok := next.Get(); ok {
			fmt.Printf("   next: %s\n", at.Format(time.RFC3339))
		} else {
			fmt.Println("   next: no further occurrences")
		}

		upcoming, _ := eng.Preview(t, now, 3)
		for _, at := range upcoming {
			fmt.Printf("   soon: %s\n", at.Format(time.RFC3339))
		}

		ex, err := eng.Explain(t, now)
		if err == nil {
			for _, step := range ex.Steps {
				if step.Value != "" {
					fmt.Printf("   %-12s %s: %s\n", step.Name, step.Description, step.Value)
				} else {
					fmt.Printf("   %-12s %s\n", step.Name, step.Description)
				}
			}
		}
		fmt.Println()
	}

	if res := phrase.Parse("every second Friday of the month when done"); res.Valid {
		fmt.Printf("phrase maps to %s (mode %s)\n", res.Rule, res.Mode)
	}

	stats := eng.CacheStats()
	fmt.Printf("cache: %d/%d entries, hit rate %.2f\n", stats.Size, stats.Capacity, stats.HitRate)
}
