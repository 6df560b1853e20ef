package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// TransactionInput is what a caller supplies to record a transaction.
	// The id and the canonical date are assigned by the gateway.
	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category,omitempty"`
	}

	// GoalInput is what a caller supplies to create a goal.
	GoalInput struct {
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      time.Time       `json:"deadline"`
	}

	// NewGoal is a goal ready for insertion, creation time already attached.
	NewGoal struct {
		GoalInput
		CreatedAt time.Time `json:"createdAt"`
	}

	// TransactionPatch carries the fields to change; nil fields are left untouched.
	TransactionPatch struct {
		Type        *TransactionType `json:"type,omitempty"`
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *time.Time       `json:"date,omitempty"`
		Category    *string          `json:"category,omitempty"`
	}

	GoalPatch struct {
		Title         *string          `json:"title,omitempty"`
		TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
		CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
		Deadline      *time.Time       `json:"deadline,omitempty"`
	}

	// CategoryPatch never carries an id: category ids are immutable.
	CategoryPatch struct {
		Name  *string `json:"name,omitempty"`
		Color *string `json:"color,omitempty"`
		Icon  *string `json:"icon,omitempty"`
	}
)

// Normalize trims free text and drops the category of income records.
func (in TransactionInput) Normalize() TransactionInput {
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Type == Income {
		in.Category = ""
	}
	return in
}

func (in TransactionInput) Validate() error {
	return in.Record("", time.Time{}).Validate()
}

// Record builds the transaction the gateway persists for this input.
func (in TransactionInput) Record(id string, date time.Time) Transaction {
	t := Transaction{
		ID:          id,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        date,
	}
	if in.Type == Expense && in.Category != "" {
		cat := in.Category
		t.Category = &cat
	}
	return t
}

func (in GoalInput) Validate() error {
	return in.Record("", time.Time{}).Validate()
}

// Record builds the goal the gateway persists for this input.
func (in GoalInput) Record(id string, createdAt time.Time) Goal {
	return Goal{
		ID:            id,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline,
		CreatedAt:     createdAt,
	}
}

func (p TransactionPatch) IsEmpty() bool {
	return p.Type == nil && p.Amount == nil && p.Description == nil && p.Date == nil && p.Category == nil
}

// Apply merges the patch into t. Switching to income clears the category.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Category != nil {
		cat := *p.Category
		t.Category = &cat
	}
	if t.Type == Income {
		t.Category = nil
	}
	return t
}

// Validate checks only the fields the patch supplies.
func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return invalid("patch", ErrEmptyPatch)
	}
	if p.Type != nil && !p.Type.IsValid() {
		return invalid("type", ErrInvalidType)
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return invalid("amount", ErrInvalidAmount)
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return invalid("category", ErrMissingCategory)
	}
	return nil
}

func (p GoalPatch) IsEmpty() bool {
	return p.Title == nil && p.TargetAmount == nil && p.CurrentAmount == nil && p.Deadline == nil
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = strings.TrimSpace(*p.Title)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	return g
}

func (p GoalPatch) Validate() error {
	if p.IsEmpty() {
		return invalid("patch", ErrEmptyPatch)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if p.TargetAmount != nil && !p.TargetAmount.IsPositive() {
		return invalid("targetAmount", ErrInvalidTarget)
	}
	if p.CurrentAmount != nil && p.CurrentAmount.IsNegative() {
		return invalid("currentAmount", ErrNegativeAmount)
	}
	if p.Deadline != nil && p.Deadline.IsZero() {
		return invalid("deadline", ErrMissingDeadline)
	}
	return nil
}

func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil && p.Icon == nil
}

func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	return c
}

func (p CategoryPatch) Validate() error {
	if p.IsEmpty() {
		return invalid("patch", ErrEmptyPatch)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name", ErrEmptyCategoryName)
	}
	return nil
}
