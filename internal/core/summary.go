package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PercentScale is the number of decimal places kept in every percentage.
const PercentScale = 2

// CategoryExpense is one row of the per-category expense breakdown.
type CategoryExpense struct {
	Category
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Summary holds every value derived from a snapshot for one reference time.
type Summary struct {
	Year               int               `json:"year"`
	Month              int               `json:"month"` // 1-12
	Transactions       []Transaction     `json:"transactions"`
	TotalIncome        decimal.Decimal   `json:"totalIncome"`
	TotalExpenses      decimal.Decimal   `json:"totalExpenses"`
	Balance            decimal.Decimal   `json:"balance"`
	ExpensesByCategory []CategoryExpense `json:"expensesByCategory"`
	MonthlyBudget      decimal.Decimal   `json:"monthlyBudget"`
	BudgetUsed         decimal.Decimal   `json:"budgetUsed"`
	ActiveGoals        int               `json:"activeGoals"`
	CompletedGoals     int               `json:"completedGoals"`
}

// InPeriod reports whether t falls in the calendar month and year of now,
// using now's location.
func InPeriod(t, now time.Time) bool {
	local := t.In(now.Location())
	return local.Year() == now.Year() && local.Month() == now.Month()
}

// CurrentPeriod returns the transactions dated in now's calendar month,
// preserving their order.
func CurrentPeriod(txs []Transaction, now time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if InPeriod(t.Date, now) {
			out = append(out, t)
		}
	}
	return out
}

// SumByType adds up the amounts of the given type.
func SumByType(txs []Transaction, typ TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Type == typ {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// ExpensesByCategory computes the expense sum of every category, then keeps
// only the categories with a positive sum. Percentages are 0 when total is 0.
func ExpensesByCategory(categories []Category, txs []Transaction, total decimal.Decimal) []CategoryExpense {
	all := make([]CategoryExpense, 0, len(categories))
	for _, c := range categories {
		sum := decimal.Zero
		for _, t := range txs {
			if t.Type == Expense && t.CategoryID() == c.ID {
				sum = sum.Add(t.Amount)
			}
		}
		all = append(all, CategoryExpense{
			Category:   c,
			Amount:     sum,
			Percentage: percentOf(sum, total),
		})
	}

	out := make([]CategoryExpense, 0, len(all))
	covered, pct := decimal.Zero, decimal.Zero
	for _, ce := range all {
		if ce.Amount.IsPositive() {
			out = append(out, ce)
			covered = covered.Add(ce.Amount)
			pct = pct.Add(ce.Percentage)
		}
	}
	// Rounded shares of a fully covered total must add up to exactly 100;
	// the last row absorbs the rounding remainder.
	if len(out) > 0 && total.IsPositive() && covered.Equal(total) {
		last := &out[len(out)-1]
		last.Percentage = last.Percentage.Add(hundred.Sub(pct))
	}
	return out
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, PercentScale)
}

// Summarize derives the dashboard view of s for the month containing now.
func Summarize(s Snapshot, now time.Time) Summary {
	current := CurrentPeriod(s.Transactions, now)
	income := SumByType(current, Income)
	expenses := SumByType(current, Expense)

	sum := Summary{
		Year:               now.Year(),
		Month:              int(now.Month()),
		Transactions:       current,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		Balance:            income.Sub(expenses),
		ExpensesByCategory: ExpensesByCategory(s.Categories, current, expenses),
		MonthlyBudget:      s.MonthlyBudget,
		BudgetUsed:         percentOf(expenses, s.MonthlyBudget),
	}
	for _, g := range s.Goals {
		if g.Completed() {
			sum.CompletedGoals++
		} else {
			sum.ActiveGoals++
		}
	}
	return sum
}

// FilterByCategory keeps the transactions referencing categoryID.
// An empty id or "all" returns every transaction.
func FilterByCategory(txs []Transaction, categoryID string) []Transaction {
	if categoryID == "" || categoryID == "all" {
		return append([]Transaction(nil), txs...)
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if t.CategoryID() == categoryID {
			out = append(out, t)
		}
	}
	return out
}
