package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// SettingsID is the fixed key of the settings singleton.
const SettingsID int64 = 1

const maxDescriptionLen = 200

type (
	TransactionType string

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		Category    *string         `json:"category"` // nil for income
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	Goal struct {
		ID            string          `json:"id"`
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      time.Time       `json:"deadline"`
		CreatedAt     time.Time       `json:"createdAt"`
	}

	Settings struct {
		ID            int64           `json:"id"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	}

	// Snapshot is the complete in-memory copy of the user's finances.
	// Transactions and goals are newest first.
	Snapshot struct {
		Transactions  []Transaction   `json:"transactions"`
		Categories    []Category      `json:"categories"`
		Goals         []Goal          `json:"goals"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	}
)

var (
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrDescriptionLength = errors.New("description too long (max 200 characters)")
	ErrMissingCategory   = errors.New("expense requires a category")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrEmptyTitle        = errors.New("empty title")
	ErrInvalidTarget     = errors.New("target amount must be positive")
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrMissingDeadline   = errors.New("missing deadline")
	ErrEmptyCategoryID   = errors.New("empty category id")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrDuplicateCategory = errors.New("category id already exists")
	ErrInvalidBudget     = errors.New("monthly budget cannot be negative")
	ErrEmptyPatch        = errors.New("no fields to update")
)

// ValidationError reports a field rejected before any gateway call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// CategoryID returns the referenced category id or "" for income.
func (t Transaction) CategoryID() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// Validate checks a persisted or merged transaction record.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return invalid("type", ErrInvalidType)
	}
	if t.Amount.IsNegative() {
		return invalid("amount", ErrInvalidAmount)
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.Type == Expense && strings.TrimSpace(t.CategoryID()) == "" {
		return invalid("category", ErrMissingCategory)
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescriptionLen {
		return invalid("description", ErrDescriptionLength)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return invalid("id", ErrEmptyCategoryID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", ErrEmptyCategoryName)
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if !g.TargetAmount.IsPositive() {
		return invalid("targetAmount", ErrInvalidTarget)
	}
	if g.CurrentAmount.IsNegative() {
		return invalid("currentAmount", ErrNegativeAmount)
	}
	if g.Deadline.IsZero() {
		return invalid("deadline", ErrMissingDeadline)
	}
	return nil
}

// ValidateBudget rejects negative monthly budgets.
func ValidateBudget(v decimal.Decimal) error {
	if v.IsNegative() {
		return invalid("monthlyBudget", ErrInvalidBudget)
	}
	return nil
}

// FindCategory returns the category with the given id.
func (s Snapshot) FindCategory(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// FindTransaction returns the transaction with the given id.
func (s Snapshot) FindTransaction(id string) (Transaction, bool) {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// FindGoal returns the goal with the given id.
func (s Snapshot) FindGoal(id string) (Goal, bool) {
	for _, g := range s.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return Goal{}, false
}

// Clone returns a deep copy safe to hand to callers.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Transactions:  make([]Transaction, len(s.Transactions)),
		Categories:    append([]Category(nil), s.Categories...),
		Goals:         append([]Goal(nil), s.Goals...),
		MonthlyBudget: s.MonthlyBudget,
	}
	for i, t := range s.Transactions {
		if t.Category != nil {
			id := *t.Category
			t.Category = &id
		}
		out.Transactions[i] = t
	}
	if out.Categories == nil {
		out.Categories = []Category{}
	}
	if out.Goals == nil {
		out.Goals = []Goal{}
	}
	return out
}
