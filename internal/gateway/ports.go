package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

var (
	// ErrNotFound is returned when the addressed row does not exist,
	// including the settings singleton.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with an existing key.
	ErrConflict = errors.New("already exists")
)

// Ports for the persistence backend.
type (
	TransactionGateway interface {
		// ListTransactions returns every transaction, newest date first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// InsertTransaction assigns the id and date and returns the stored record.
		InsertTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	CategoryGateway interface {
		// ListCategories returns categories in insertion order.
		ListCategories(ctx context.Context) ([]core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, id string, p core.CategoryPatch) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	GoalGateway interface {
		// ListGoals returns every goal, most recently created first.
		ListGoals(ctx context.Context) ([]core.Goal, error)
		InsertGoal(ctx context.Context, g core.NewGoal) (core.Goal, error)
		UpdateGoal(ctx context.Context, id string, p core.GoalPatch) (core.Goal, error)
		DeleteGoal(ctx context.Context, id string) error
	}

	// SettingsGateway manages the singleton settings row (id 1).
	SettingsGateway interface {
		// GetSettings returns ErrNotFound when the row was never written.
		GetSettings(ctx context.Context) (core.Settings, error)
		// UpdateSettings returns ErrNotFound when the row does not exist.
		UpdateSettings(ctx context.Context, monthlyBudget decimal.Decimal) (core.Settings, error)
		InsertSettings(ctx context.Context, s core.Settings) (core.Settings, error)
	}

	Gateway interface {
		TransactionGateway
		CategoryGateway
		GoalGateway
		SettingsGateway
	}
)
