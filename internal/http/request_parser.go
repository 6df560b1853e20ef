package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks bodies that are not valid JSON for the endpoint.
var errBadRequest = errors.New("malformed request body")

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data after object", errBadRequest)
	}
	return nil
}

// jsonAmount accepts an amount as a JSON number or a string such as "12,50".
// Parsing is deferred so a bad amount is reported as a field error.
type jsonAmount struct {
	raw string
	set bool
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = jsonAmount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = jsonAmount{raw: s, set: true}
		return nil
	}
	*a = jsonAmount{raw: string(b), set: true}
	return nil
}

func (a jsonAmount) decimal(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(a.raw)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// positive parses an amount that must be above zero.
func (a jsonAmount) positive(field string) (decimal.Decimal, error) {
	d, err := core.ParsePositiveAmount(a.raw)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

func (a jsonAmount) optional(field string) (*decimal.Decimal, error) {
	if !a.set {
		return nil, nil
	}
	d, err := a.decimal(field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var errInvalidDate = errors.New("invalid date, want YYYY-MM-DD or RFC 3339")

// jsonDate accepts a calendar date or an RFC 3339 timestamp.
type jsonDate struct {
	raw string
	set bool
}

func (d *jsonDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = jsonDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = jsonDate{raw: s, set: true}
	return nil
}

func (d jsonDate) time(field string) (time.Time, error) {
	s := strings.TrimSpace(d.raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, &core.ValidationError{Field: field, Err: errInvalidDate}
}

func (d jsonDate) optional(field string) (*time.Time, error) {
	if !d.set {
		return nil, nil
	}
	t, err := d.time(field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      jsonAmount           `json:"amount"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
}

func (req transactionRequest) input() (core.TransactionInput, error) {
	amount, err := req.Amount.decimal("amount")
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Type:        req.Type,
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Category:    req.Category,
	}, nil
}

type transactionPatchRequest struct {
	Type        *core.TransactionType `json:"type"`
	Amount      jsonAmount            `json:"amount"`
	Description *string               `json:"description"`
	Date        jsonDate              `json:"date"`
	Category    *string               `json:"category"`
}

func (req transactionPatchRequest) patch() (core.TransactionPatch, error) {
	p := core.TransactionPatch{Type: req.Type, Category: req.Category}
	var err error
	if p.Amount, err = req.Amount.optional("amount"); err != nil {
		return p, err
	}
	if p.Date, err = req.Date.optional("date"); err != nil {
		return p, err
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		p.Description = &desc
	}
	return p, nil
}

type goalRequest struct {
	Title         string     `json:"title"`
	TargetAmount  jsonAmount `json:"targetAmount"`
	CurrentAmount jsonAmount `json:"currentAmount"`
	Deadline      jsonDate   `json:"deadline"`
}

func (req goalRequest) input() (core.GoalInput, error) {
	in := core.GoalInput{Title: sanitizeInput(req.Title)}
	var err error
	if in.TargetAmount, err = req.TargetAmount.decimal("targetAmount"); err != nil {
		return in, err
	}
	if req.CurrentAmount.set {
		if in.CurrentAmount, err = req.CurrentAmount.decimal("currentAmount"); err != nil {
			return in, err
		}
	}
	if !req.Deadline.set {
		return in, &core.ValidationError{Field: "deadline", Err: core.ErrMissingDeadline}
	}
	if in.Deadline, err = req.Deadline.time("deadline"); err != nil {
		return in, err
	}
	return in, nil
}

type goalPatchRequest struct {
	Title         *string    `json:"title"`
	TargetAmount  jsonAmount `json:"targetAmount"`
	CurrentAmount jsonAmount `json:"currentAmount"`
	Deadline      jsonDate   `json:"deadline"`
}

func (req goalPatchRequest) patch() (core.GoalPatch, error) {
	p := core.GoalPatch{Title: req.Title}
	var err error
	if p.TargetAmount, err = req.TargetAmount.optional("targetAmount"); err != nil {
		return p, err
	}
	if p.CurrentAmount, err = req.CurrentAmount.optional("currentAmount"); err != nil {
		return p, err
	}
	if p.Deadline, err = req.Deadline.optional("deadline"); err != nil {
		return p, err
	}
	return p, nil
}

type contributionRequest struct {
	Amount jsonAmount `json:"amount"`
}

type monthlyBudgetRequest struct {
	MonthlyBudget jsonAmount `json:"monthlyBudget"`
}

// MonthParams holds the reference month of a summary request.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, defaulting
// to now. Out-of-range values are a field error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return params, &core.ValidationError{Field: "year", Err: fmt.Errorf("invalid year %q", v)}
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, &core.ValidationError{Field: "month", Err: fmt.Errorf("invalid month %q", v)}
		}
		params.Month = m
	}
	return params, nil
}

// Reference returns a time inside the month, in now's location.
func (p MonthParams) Reference(now time.Time) time.Time {
	if p.Year == now.Year() && p.Month == int(now.Month()) {
		return now
	}
	return time.Date(p.Year, time.Month(p.Month), 1, 12, 0, 0, 0, now.Location())
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
