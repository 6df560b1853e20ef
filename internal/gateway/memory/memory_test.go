package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/gateway"
)

func TestTransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := New(nil).WithClock(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	})

	first, err := s.InsertTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: decimal.NewFromInt(12), Description: "lunch", Category: "food",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == "" || first.CategoryID() != "food" {
		t.Fatalf("unexpected record %+v", first)
	}
	second, _ := s.InsertTransaction(ctx, core.TransactionInput{
		Type: core.Income, Amount: decimal.NewFromInt(100), Description: "gift", Category: "food",
	})
	if second.Category != nil {
		t.Fatalf("income must not carry a category")
	}

	list, _ := s.ListTransactions(ctx)
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	desc := "dinner"
	upd, err := s.UpdateTransaction(ctx, first.ID, core.TransactionPatch{Description: &desc})
	if err != nil || upd.Description != "dinner" || !upd.Amount.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("update: %+v err=%v", upd, err)
	}

	if err := s.DeleteTransaction(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, first.ID); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.UpdateTransaction(ctx, "missing", core.TransactionPatch{Description: &desc}); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func TestReturnedRecordsDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	rec, _ := s.InsertTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: decimal.NewFromInt(1), Description: "x", Category: "food",
	})
	*rec.Category = "mutated"
	list, _ := s.ListTransactions(ctx)
	if list[0].CategoryID() != "food" {
		t.Fatalf("store state leaked through returned pointer")
	}
}

func TestSettingsSingleton(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if _, err := s.GetSettings(ctx); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.UpdateSettings(ctx, decimal.NewFromInt(10)); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	got, err := s.InsertSettings(ctx, core.Settings{MonthlyBudget: decimal.NewFromInt(1500)})
	if err != nil || got.ID != core.SettingsID {
		t.Fatalf("insert: %+v err=%v", got, err)
	}
	if _, err := s.InsertSettings(ctx, core.Settings{}); !errors.Is(err, gateway.ErrConflict) {
		t.Fatalf("second insert: %v", err)
	}
	got, _ = s.UpdateSettings(ctx, decimal.NewFromInt(2000))
	if !got.MonthlyBudget.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("update: %+v", got)
	}
}

func TestGoalsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"old", "new"} {
		_, err := s.InsertGoal(ctx, core.NewGoal{
			GoalInput: core.GoalInput{Title: title, TargetAmount: decimal.NewFromInt(10), Deadline: base.AddDate(1, 0, 0)},
			CreatedAt: base.AddDate(0, i, 0),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	goals, _ := s.ListGoals(ctx)
	if len(goals) != 2 || goals[0].Title != "new" {
		t.Fatalf("unexpected order %+v", goals)
	}
}

func TestCategoryDeleteKeepsTransactionReferences(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Category{{ID: "food", Name: "Food"}})
	_, _ = s.InsertTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: decimal.NewFromInt(3), Description: "x", Category: "food",
	})
	if err := s.DeleteCategory(ctx, "food"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListTransactions(ctx)
	if list[0].CategoryID() != "food" {
		t.Fatalf("transaction reference should be left dangling")
	}
	if _, err := s.InsertCategory(ctx, core.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("re-insert: %v", err)
	}
	if _, err := s.InsertCategory(ctx, core.Category{ID: "food", Name: "Dup"}); !errors.Is(err, gateway.ErrConflict) {
		t.Fatalf("duplicate insert: %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 0 {
		t.Fatalf("expected no categories when the file is missing, got %v", cats)
	}

	content := "# id|name|color|icon\nfood|Food|#ff0000|F\nbills|Bills\nfood|Again\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	if cats[0].Color != "#ff0000" || cats[1].ID != "bills" || cats[1].Color != "" {
		t.Fatalf("unexpected parse: %+v", cats)
	}
}
