package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{ID: 1, Amount: decimal.NewFromInt(10), Category: "food"}
	require.NoError(t, good.Validate())

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{"zero amount", Expense{Amount: decimal.Zero, Category: "food"}, ErrInvalidAmount},
		{"negative amount", Expense{Amount: decimal.NewFromInt(-3), Category: "food"}, ErrInvalidAmount},
		{"empty category", Expense{Amount: decimal.NewFromInt(3), Category: ""}, ErrEmptyCategory},
		{"blank category", Expense{Amount: decimal.NewFromInt(3), Category: "   "}, ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.e.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tc.want)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestExpenseValidate_EmptyDescriptionAllowed(t *testing.T) {
	e := Expense{Amount: decimal.RequireFromString("0.01"), Category: "misc", Description: ""}
	assert.NoError(t, e.Validate())
}

func TestMonthRecordClone(t *testing.T) {
	rec := MonthRecord{
		Name:     "Marzo 2025",
		Expenses: []Expense{{ID: 1, Amount: decimal.NewFromInt(30), Category: "food"}},
	}
	cp := rec.Clone()
	cp.Expenses[0].Category = "changed"
	cp.Expenses = append(cp.Expenses, Expense{ID: 2})

	assert.Equal(t, "food", rec.Expenses[0].Category)
	assert.Len(t, rec.Expenses, 1)
}

func TestCloneExpenses_NilBecomesEmpty(t *testing.T) {
	out := CloneExpenses(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
