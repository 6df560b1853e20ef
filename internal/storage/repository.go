package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/gateway"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so lexical ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ gateway.Gateway = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps concurrent store calls from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

// WithClock replaces the clock used to stamp new transactions.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	t := in.Normalize().Record(uuid.NewString(), r.now().UTC())
	if err := r.queries.CreateTransaction(ctx, transactionToRow(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category", t.CategoryID())
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	var out core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetTransaction(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return gateway.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		cur, err := transactionFromRow(row)
		if err != nil {
			return err
		}
		next := p.Apply(cur)
		next.Date = next.Date.UTC()
		n, err := q.UpdateTransaction(ctx, transactionToRow(next))
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if n == 0 {
			return gateway.ErrNotFound
		}
		out = next
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = core.Category(row)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	n, err := r.queries.CreateCategory(ctx, Category(c))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if n == 0 {
		return core.Category{}, gateway.ErrConflict
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, p core.CategoryPatch) (core.Category, error) {
	var out core.Category
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetCategory(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return gateway.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		next := p.Apply(core.Category(row))
		n, err := q.UpdateCategory(ctx, Category(next))
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		if n == 0 {
			return gateway.ErrNotFound
		}
		out = next
		return nil
	})
	return out, err
}

// DeleteCategory removes only the category row; transactions keep their reference.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		g, err := goalFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertGoal(ctx context.Context, in core.NewGoal) (core.Goal, error) {
	created := in.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	g := in.Record(uuid.NewString(), created.UTC())
	g.Deadline = g.Deadline.UTC()
	if err := r.queries.CreateGoal(ctx, goalToRow(g)); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal saved to SQLite", "id", g.ID, "title", g.Title)
	return g, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, id string, p core.GoalPatch) (core.Goal, error) {
	var out core.Goal
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetGoal(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return gateway.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get goal: %w", err)
		}
		cur, err := goalFromRow(row)
		if err != nil {
			return err
		}
		next := p.Apply(cur)
		next.Deadline = next.Deadline.UTC()
		n, err := q.UpdateGoal(ctx, goalToRow(next))
		if err != nil {
			return fmt.Errorf("update goal: %w", err)
		}
		if n == 0 {
			return gateway.ErrNotFound
		}
		out = next
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	n, err := r.queries.DeleteGoal(ctx, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	row, err := r.queries.GetSettings(ctx, core.SettingsID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, gateway.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return core.Settings(row), nil
}

func (r *SQLiteRepository) UpdateSettings(ctx context.Context, monthlyBudget decimal.Decimal) (core.Settings, error) {
	n, err := r.queries.UpdateSettings(ctx, Setting{ID: core.SettingsID, MonthlyBudget: monthlyBudget})
	if err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	if n == 0 {
		return core.Settings{}, gateway.ErrNotFound
	}
	return core.Settings{ID: core.SettingsID, MonthlyBudget: monthlyBudget}, nil
}

func (r *SQLiteRepository) InsertSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	s.ID = core.SettingsID
	n, err := r.queries.CreateSettings(ctx, Setting(s))
	if err != nil {
		return core.Settings{}, fmt.Errorf("create settings: %w", err)
	}
	if n == 0 {
		return core.Settings{}, gateway.ErrConflict
	}
	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func transactionToRow(t core.Transaction) Transaction {
	row := Transaction{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		Date:        formatTime(t.Date),
	}
	if t.Category != nil {
		row.CategoryID = sql.NullString{String: *t.Category, Valid: true}
	}
	return row
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	date, err := parseTime(row.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          row.ID,
		Type:        core.TransactionType(row.Type),
		Amount:      row.Amount,
		Description: row.Description,
		Date:        date,
	}
	if row.CategoryID.Valid {
		cat := row.CategoryID.String
		t.Category = &cat
	}
	return t, nil
}

func goalToRow(g core.Goal) Goal {
	return Goal{
		ID:            g.ID,
		Title:         g.Title,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Deadline:      formatTime(g.Deadline),
		CreatedAt:     formatTime(g.CreatedAt),
	}
}

func goalFromRow(row Goal) (core.Goal, error) {
	deadline, err := parseTime(row.Deadline)
	if err != nil {
		return core.Goal{}, err
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID:            row.ID,
		Title:         row.Title,
		TargetAmount:  row.TargetAmount,
		CurrentAmount: row.CurrentAmount,
		Deadline:      deadline,
		CreatedAt:     created,
	}, nil
}
