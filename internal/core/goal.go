package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

type GoalStatus string

// GoalProgress is a projection of one goal at a reference time.
type GoalProgress struct {
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    GoalStatus      `json:"status"`
	Completed bool            `json:"completed"`
	Overdue   bool            `json:"overdue"`
}

// Completed reports whether the saved amount reached the target.
func (g Goal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Overdue reports whether the deadline is before now, regardless of completion.
func (g Goal) Overdue(now time.Time) bool {
	return g.Deadline.Before(now)
}

func (g Goal) Progress(now time.Time) GoalProgress {
	p := GoalProgress{
		Percent:   percentOf(g.CurrentAmount, g.TargetAmount),
		Remaining: g.TargetAmount.Sub(g.CurrentAmount),
		Status:    GoalActive,
		Completed: g.Completed(),
		Overdue:   g.Overdue(now),
	}
	if p.Completed {
		p.Status = GoalCompleted
	}
	return p
}

// Contribute returns the patch that adds delta to the goal's saved amount.
func (g Goal) Contribute(delta decimal.Decimal) (GoalPatch, error) {
	if !delta.IsPositive() {
		return GoalPatch{}, invalid("amount", ErrInvalidAmount)
	}
	next := g.CurrentAmount.Add(delta)
	return GoalPatch{CurrentAmount: &next}, nil
}
