package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGoalProgressCompletedRegardlessOfDeadline(t *testing.T) {
	g := Goal{
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(1000),
		Deadline:      refNow.AddDate(0, -1, 0),
	}
	p := g.Progress(refNow)
	if !p.Percent.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("percent = %s", p.Percent)
	}
	if !p.Remaining.IsZero() {
		t.Fatalf("remaining = %s", p.Remaining)
	}
	if !p.Completed || p.Status != GoalCompleted {
		t.Fatalf("expected completed, got %+v", p)
	}
	if !p.Overdue {
		t.Fatalf("past deadline should be overdue even when completed")
	}
}

func TestGoalProgressActive(t *testing.T) {
	g := Goal{
		TargetAmount:  decimal.NewFromInt(400),
		CurrentAmount: decimal.NewFromInt(100),
		Deadline:      refNow.Add(24 * time.Hour),
	}
	p := g.Progress(refNow)
	if !p.Percent.Equal(decimal.NewFromInt(25)) || !p.Remaining.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected progress %+v", p)
	}
	if p.Completed || p.Overdue || p.Status != GoalActive {
		t.Fatalf("expected active and not overdue, got %+v", p)
	}
}

func TestGoalContribute(t *testing.T) {
	g := Goal{CurrentAmount: decimal.NewFromInt(40)}
	patch, err := g.Contribute(decimal.NewFromInt(60))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if patch.CurrentAmount == nil || !patch.CurrentAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected patch %+v", patch)
	}
	if patch.Title != nil || patch.TargetAmount != nil || patch.Deadline != nil {
		t.Fatalf("contribution must only touch the current amount")
	}

	if _, err := g.Contribute(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero contribution: got %v", err)
	}
}
