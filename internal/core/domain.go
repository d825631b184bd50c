package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Expense is a single spending entry of the current month.
	Expense struct {
		ID          int64           `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
	}

	// MonthRecord is an archived month. Name is the merge key.
	MonthRecord struct {
		Name       string          `json:"name"`
		Income     decimal.Decimal `json:"income"`
		TotalSpent decimal.Decimal `json:"totalSpent"`
		Saldo      decimal.Decimal `json:"saldo"`
		Expenses   []Expense       `json:"expenses"`
	}
)

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyCategory  = errors.New("empty category")
	ErrNothingToClose = errors.New("nothing to close")
)

// ValidationError reports invalid user input. It matches both
// ErrValidation and the specific cause with errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}

// CloneExpenses returns a copy that shares no backing array with in.
// A nil input yields an empty, non-nil slice so JSON encodes it as [].
func CloneExpenses(in []Expense) []Expense {
	out := make([]Expense, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the record.
func (m MonthRecord) Clone() MonthRecord {
	m.Expenses = CloneExpenses(m.Expenses)
	return m
}

// CloneHistory deep copies a list of archived months.
func CloneHistory(in []MonthRecord) []MonthRecord {
	out := make([]MonthRecord, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
