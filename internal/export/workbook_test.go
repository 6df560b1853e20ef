package export

import (
	"bytes"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleSnapshot() core.Snapshot {
	food := "food"
	return core.Snapshot{
		Transactions: []core.Transaction{
			{ID: "tx-2", Type: core.Expense, Amount: decimal.NewFromInt(1200), Description: "Groceries",
				Date: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), Category: &food},
			{ID: "tx-1", Type: core.Income, Amount: decimal.NewFromInt(5000), Description: "Salary",
				Date: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		},
		Categories: []core.Category{{ID: "food", Name: "Food", Color: "#ff6b6b", Icon: "🍽️"}},
		Goals: []core.Goal{{ID: "g-1", Title: "Trip", TargetAmount: decimal.NewFromInt(1000),
			CurrentAmount: decimal.NewFromInt(1000), Deadline: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}},
		MonthlyBudget: decimal.NewFromInt(2000),
	}
}

func TestWriteWorkbook(t *testing.T) {
	snap := sampleSnapshot()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, snap, core.Summarize(snap, now)); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetTransactions, SheetCategories, SheetGoals, SheetSummary}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	cells := []struct {
		sheet, cell, want string
	}{
		{SheetTransactions, "A1", "ID"},
		{SheetTransactions, "A2", "tx-2"},
		{SheetTransactions, "B2", "2025-06-10"},
		{SheetTransactions, "E2", "Food"},
		{SheetTransactions, "F2", "1200.00"},
		{SheetTransactions, "E3", ""},
		{SheetCategories, "B2", "Food"},
		{SheetGoals, "B2", "Trip"},
		{SheetGoals, "F2", "TRUE"},
		{SheetSummary, "B2", "2025-06"},
		{SheetSummary, "B3", "5000.00"},
		{SheetSummary, "B4", "1200.00"},
		{SheetSummary, "B5", "3800.00"},
		{SheetSummary, "B7", "60.00"},
		{SheetSummary, "A12", "Food"},
		{SheetSummary, "C12", "100.00"},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestWriteWorkbookEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	snap := core.Snapshot{}
	if err := WriteWorkbook(&buf, snap, core.Summarize(snap, time.Now())); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetTransactions)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
