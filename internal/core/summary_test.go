package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var refNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func tx(id string, typ TransactionType, amount int64, cat string, date time.Time) Transaction {
	t := Transaction{ID: id, Type: typ, Amount: decimal.NewFromInt(amount), Description: id, Date: date}
	if cat != "" {
		t.Category = strPtr(cat)
	}
	return t
}

func TestSummarizeScenario(t *testing.T) {
	thisMonth := refNow.AddDate(0, 0, -3)
	lastMonth := refNow.AddDate(0, -1, 0)
	s := Snapshot{
		Transactions: []Transaction{
			tx("salary", Income, 5000, "", thisMonth),
			tx("market", Expense, 1200, "food", thisMonth),
			tx("old", Expense, 300, "food", lastMonth),
		},
		Categories: DefaultCategories(),
	}

	sum := Summarize(s, refNow)
	if !sum.TotalIncome.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("income = %s", sum.TotalIncome)
	}
	if !sum.TotalExpenses.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("expenses = %s", sum.TotalExpenses)
	}
	if !sum.Balance.Equal(decimal.NewFromInt(3800)) {
		t.Fatalf("balance = %s", sum.Balance)
	}
	if len(sum.ExpensesByCategory) != 1 {
		t.Fatalf("expected one category row, got %d", len(sum.ExpensesByCategory))
	}
	row := sum.ExpensesByCategory[0]
	if row.ID != "food" || !row.Amount.Equal(decimal.NewFromInt(1200)) || !row.Percentage.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected row %+v", row)
	}
	if len(sum.Transactions) != 2 {
		t.Fatalf("expected 2 current-period transactions, got %d", len(sum.Transactions))
	}
}

func TestBalanceIsIncomeMinusExpenses(t *testing.T) {
	s := Snapshot{
		Transactions: []Transaction{
			tx("a", Income, 100, "", refNow),
			tx("b", Expense, 250, "food", refNow),
			tx("c", Expense, 75, "bills", refNow),
		},
		Categories: DefaultCategories(),
	}
	sum := Summarize(s, refNow)
	if !sum.Balance.Equal(sum.TotalIncome.Sub(sum.TotalExpenses)) {
		t.Fatalf("balance %s != %s - %s", sum.Balance, sum.TotalIncome, sum.TotalExpenses)
	}
	if !sum.Balance.IsNegative() {
		t.Fatalf("balance should be negative, got %s", sum.Balance)
	}
}

func TestExpensesByCategoryDropsZeroRowsAndSumsTo100(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, 50, "food", refNow),
		tx("b", Expense, 30, "bills", refNow),
		tx("c", Expense, 20, "food", refNow),
		tx("d", Income, 999, "", refNow),
	}
	total := SumByType(txs, Expense)
	rows := ExpensesByCategory(DefaultCategories(), txs, total)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	sum := decimal.Zero
	for _, r := range rows {
		if !r.Amount.IsPositive() {
			t.Fatalf("row %s has non-positive amount", r.ID)
		}
		sum = sum.Add(r.Percentage)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("percentages sum to %s", sum)
	}
	// Category order follows the snapshot, not the spend.
	if rows[0].ID != "food" || rows[1].ID != "bills" {
		t.Fatalf("unexpected order %s, %s", rows[0].ID, rows[1].ID)
	}
}

func TestExpensesByCategoryThirdsSumTo100(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, 10, "food", refNow),
		tx("b", Expense, 10, "bills", refNow),
		tx("c", Expense, 10, "gas", refNow),
	}
	rows := ExpensesByCategory(DefaultCategories(), txs, SumByType(txs, Expense))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Percentage)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("percentages sum to %s", sum)
	}
	third := decimal.RequireFromString("33.33")
	if !rows[0].Percentage.Equal(third) || !rows[1].Percentage.Equal(third) {
		t.Fatalf("unexpected shares %s, %s", rows[0].Percentage, rows[1].Percentage)
	}
	if !rows[2].Percentage.Equal(decimal.RequireFromString("33.34")) {
		t.Fatalf("last row should take the remainder, got %s", rows[2].Percentage)
	}
}

func TestExpensesByCategoryZeroTotal(t *testing.T) {
	rows := ExpensesByCategory(DefaultCategories(), nil, decimal.Zero)
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if p := percentOf(decimal.NewFromInt(5), decimal.Zero); !p.IsZero() {
		t.Fatalf("percentage with zero total should be 0, got %s", p)
	}
}

func TestExpensesByCategoryIgnoresUnknownCategory(t *testing.T) {
	txs := []Transaction{tx("a", Expense, 40, "ghost", refNow), tx("b", Expense, 60, "food", refNow)}
	rows := ExpensesByCategory(DefaultCategories(), txs, SumByType(txs, Expense))
	if len(rows) != 1 || rows[0].ID != "food" || !rows[0].Percentage.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestCurrentPeriodUsesCalendarMonth(t *testing.T) {
	cases := []struct {
		date time.Time
		in   bool
	}{
		{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC), true},
		{time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := InPeriod(tc.date, refNow); got != tc.in {
			t.Fatalf("InPeriod(%s) = %v, want %v", tc.date, got, tc.in)
		}
	}
}

func TestSummarizeBudgetAndGoals(t *testing.T) {
	s := Snapshot{
		Transactions:  []Transaction{tx("a", Expense, 250, "food", refNow)},
		Categories:    DefaultCategories(),
		MonthlyBudget: decimal.NewFromInt(1000),
		Goals: []Goal{
			{ID: "g1", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(100)},
			{ID: "g2", TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(10)},
			{ID: "g3", TargetAmount: decimal.NewFromInt(100)},
		},
	}
	sum := Summarize(s, refNow)
	if !sum.BudgetUsed.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("budget used = %s", sum.BudgetUsed)
	}
	if sum.CompletedGoals != 1 || sum.ActiveGoals != 2 {
		t.Fatalf("goals completed=%d active=%d", sum.CompletedGoals, sum.ActiveGoals)
	}

	s.MonthlyBudget = decimal.Zero
	if got := Summarize(s, refNow).BudgetUsed; !got.IsZero() {
		t.Fatalf("budget used with zero budget = %s", got)
	}
}

func TestFilterByCategory(t *testing.T) {
	txs := []Transaction{
		tx("a", Expense, 1, "food", refNow),
		tx("b", Income, 1, "", refNow),
		tx("c", Expense, 1, "bills", refNow),
	}
	if got := FilterByCategory(txs, "all"); len(got) != 3 {
		t.Fatalf("all: got %d", len(got))
	}
	if got := FilterByCategory(txs, "food"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("food: got %+v", got)
	}
}
