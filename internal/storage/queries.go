package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns; timestamps stay as stored text.
type (
	Transaction struct {
		ID          string
		Type        string
		Amount      decimal.Decimal
		Description string
		Date        string
		CategoryID  sql.NullString
	}

	Category struct {
		ID    string
		Name  string
		Color string
		Icon  string
	}

	Goal struct {
		ID            string
		Title         string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      string
		CreatedAt     string
	}

	Setting struct {
		ID            int64
		MonthlyBudget decimal.Decimal
	}
)

const listTransactions = `
SELECT id, type, amount, description, date, category_id
FROM transactions
ORDER BY date DESC, rowid DESC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.Type, &i.Amount, &i.Description, &i.Date, &i.CategoryID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTransaction = `
SELECT id, type, amount, description, date, category_id
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i Transaction
	err := row.Scan(&i.ID, &i.Type, &i.Amount, &i.Description, &i.Date, &i.CategoryID)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (id, type, amount, description, date, category_id)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.Type, arg.Amount, arg.Description, arg.Date, arg.CategoryID)
	return err
}

const updateTransaction = `
UPDATE transactions
SET type = ?, amount = ?, description = ?, date = ?, category_id = ?
WHERE id = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, arg Transaction) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type, arg.Amount, arg.Description, arg.Date, arg.CategoryID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCategories = `SELECT id, name, color, icon FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.Color, &i.Icon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategory = `SELECT id, name, color, icon FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.Color, &i.Icon)
	return i, err
}

const createCategory = `
INSERT INTO categories (id, name, color, icon)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`

// CreateCategory returns 0 rows affected when the id is taken.
func (q *Queries) CreateCategory(ctx context.Context, arg Category) (int64, error) {
	result, err := q.db.ExecContext(ctx, createCategory, arg.ID, arg.Name, arg.Color, arg.Icon)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateCategory = `UPDATE categories SET name = ?, color = ?, icon = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg Category) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateCategory, arg.Name, arg.Color, arg.Icon, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listGoals = `
SELECT id, title, target_amount, current_amount, deadline, created_at
FROM goals
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListGoals(ctx context.Context) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		var i Goal
		if err := rows.Scan(&i.ID, &i.Title, &i.TargetAmount, &i.CurrentAmount, &i.Deadline, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getGoal = `
SELECT id, title, target_amount, current_amount, deadline, created_at
FROM goals
WHERE id = ?
`

func (q *Queries) GetGoal(ctx context.Context, id string) (Goal, error) {
	row := q.db.QueryRowContext(ctx, getGoal, id)
	var i Goal
	err := row.Scan(&i.ID, &i.Title, &i.TargetAmount, &i.CurrentAmount, &i.Deadline, &i.CreatedAt)
	return i, err
}

const createGoal = `
INSERT INTO goals (id, title, target_amount, current_amount, deadline, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, arg Goal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		arg.ID, arg.Title, arg.TargetAmount, arg.CurrentAmount, arg.Deadline, arg.CreatedAt)
	return err
}

const updateGoal = `
UPDATE goals
SET title = ?, target_amount = ?, current_amount = ?, deadline = ?
WHERE id = ?
`

func (q *Queries) UpdateGoal(ctx context.Context, arg Goal) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoal,
		arg.Title, arg.TargetAmount, arg.CurrentAmount, arg.Deadline, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `DELETE FROM goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGoal, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSettings = `SELECT id, monthly_budget FROM settings WHERE id = ?`

func (q *Queries) GetSettings(ctx context.Context, id int64) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSettings, id)
	var i Setting
	err := row.Scan(&i.ID, &i.MonthlyBudget)
	return i, err
}

const updateSettings = `UPDATE settings SET monthly_budget = ? WHERE id = ?`

func (q *Queries) UpdateSettings(ctx context.Context, arg Setting) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateSettings, arg.MonthlyBudget, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createSettings = `
INSERT INTO settings (id, monthly_budget)
VALUES (?, ?)
ON CONFLICT (id) DO NOTHING
`

func (q *Queries) CreateSettings(ctx context.Context, arg Setting) (int64, error) {
	result, err := q.db.ExecContext(ctx, createSettings, arg.ID, arg.MonthlyBudget)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
