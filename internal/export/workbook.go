// Package export renders a budget snapshot as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"budget/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	SheetTransactions = "Transactions"
	SheetCategories   = "Categories"
	SheetGoals        = "Goals"
	SheetSummary      = "Summary"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

// WriteWorkbook writes snap and its derived summary to w as an xlsx file.
func WriteWorkbook(w io.Writer, snap core.Snapshot, summary core.Summary) error {
	f, err := Build(snap, summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory.
func Build(snap core.Snapshot, summary core.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCategories, SheetGoals, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
	}

	writers := []func(*excelize.File) error{
		func(f *excelize.File) error { return writeTransactions(f, snap.Transactions, names) },
		func(f *excelize.File) error { return writeCategories(f, snap.Categories) },
		func(f *excelize.File) error { return writeGoals(f, snap.Goals) },
		func(f *excelize.File) error { return writeSummary(f, summary) },
	}
	for _, write := range writers {
		if err := write(f); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func writeTransactions(f *excelize.File, txs []core.Transaction, names map[string]string) error {
	rows := make([][]interface{}, 0, len(txs))
	for _, t := range txs {
		category := t.CategoryID()
		if name, ok := names[category]; ok {
			category = name
		}
		rows = append(rows, []interface{}{
			t.ID, t.Date.Format(dateLayout), string(t.Type), t.Description, category, core.FormatAmount(t.Amount),
		})
	}
	if err := writeRows(f, SheetTransactions,
		[]interface{}{"ID", "Date", "Type", "Description", "Category", "Amount"}, rows); err != nil {
		return err
	}
	f.SetColWidth(SheetTransactions, "A", "A", 38)
	f.SetColWidth(SheetTransactions, "D", "D", 30)
	return nil
}

func writeCategories(f *excelize.File, cats []core.Category) error {
	rows := make([][]interface{}, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []interface{}{c.ID, c.Name, c.Color, c.Icon})
	}
	return writeRows(f, SheetCategories, []interface{}{"ID", "Name", "Color", "Icon"}, rows)
}

func writeGoals(f *excelize.File, goals []core.Goal) error {
	rows := make([][]interface{}, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, []interface{}{
			g.ID, g.Title, core.FormatAmount(g.TargetAmount), core.FormatAmount(g.CurrentAmount),
			g.Deadline.Format(dateLayout), g.Completed(),
		})
	}
	return writeRows(f, SheetGoals,
		[]interface{}{"ID", "Title", "Target", "Current", "Deadline", "Completed"}, rows)
}

func writeSummary(f *excelize.File, s core.Summary) error {
	rows := [][]interface{}{
		{"Period", fmt.Sprintf("%04d-%02d", s.Year, s.Month)},
		{"Total income", core.FormatAmount(s.TotalIncome)},
		{"Total expenses", core.FormatAmount(s.TotalExpenses)},
		{"Balance", core.FormatAmount(s.Balance)},
		{"Monthly budget", core.FormatAmount(s.MonthlyBudget)},
		{"Budget used (%)", core.FormatAmount(s.BudgetUsed)},
		{"Active goals", s.ActiveGoals},
		{"Completed goals", s.CompletedGoals},
		{},
		{"Category", "Amount", "Percentage"},
	}
	for _, c := range s.ExpensesByCategory {
		rows = append(rows, []interface{}{c.Name, core.FormatAmount(c.Amount), core.FormatAmount(c.Percentage)})
	}
	return writeRows(f, SheetSummary, []interface{}{"Metric", "Value"}, rows)
}
