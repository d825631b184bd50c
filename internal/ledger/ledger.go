// Package ledger holds the current month's income and expenses together with
// the archived months, and implements the month-close transition.
//
// A Ledger is not safe for concurrent use; services.LedgerService serialises
// access to it.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
)

// State is a detached copy of everything the ledger owns.
type State struct {
	Income   decimal.Decimal
	Expenses []core.Expense
	History  []core.MonthRecord
}

// Clone deep copies the state.
func (s State) Clone() State {
	return State{
		Income:   s.Income,
		Expenses: core.CloneExpenses(s.Expenses),
		History:  core.CloneHistory(s.History),
	}
}

type Ledger struct {
	income   decimal.Decimal
	expenses []core.Expense
	history  []core.MonthRecord
	clock    Clock
	ids      *IDAllocator
}

type Option func(*Ledger)

// WithClock sets the time source used for expense ids.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// New returns an empty ledger: zero income, no expenses, no history.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		income:   decimal.Zero,
		expenses: []core.Expense{},
		history:  []core.MonthRecord{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ids = NewIDAllocator(l.clock)
	return l
}

// FromState returns a ledger holding a copy of st.
func FromState(st State, opts ...Option) *Ledger {
	l := New(opts...)
	l.Restore(st)
	return l
}

// Restore replaces the ledger contents with a copy of st. The id allocator
// keeps its high-water mark and learns every id present in st.
func (l *Ledger) Restore(st State) {
	st = st.Clone()
	l.income = st.Income
	l.expenses = st.Expenses
	l.history = st.History
	for _, e := range l.expenses {
		l.ids.Observe(e.ID)
	}
	for _, m := range l.history {
		for _, e := range m.Expenses {
			l.ids.Observe(e.ID)
		}
	}
}

// Snapshot returns a deep copy of the ledger.
func (l *Ledger) Snapshot() State {
	return State{
		Income:   l.income,
		Expenses: core.CloneExpenses(l.expenses),
		History:  core.CloneHistory(l.history),
	}
}

func (l *Ledger) Income() decimal.Decimal { return l.income }

// Expenses returns a copy of the current month's expenses in entry order.
func (l *Ledger) Expenses() []core.Expense { return core.CloneExpenses(l.expenses) }

// History returns a copy of the archived months in first-archived order.
func (l *Ledger) History() []core.MonthRecord { return core.CloneHistory(l.history) }

// SetIncome replaces the current income. Any value is accepted.
func (l *Ledger) SetIncome(v decimal.Decimal) {
	l.income = v
}

// AddExpense validates the input and appends a new expense with a fresh id.
// Nothing is modified when validation fails.
func (l *Ledger) AddExpense(amount decimal.Decimal, category, description string) (core.Expense, error) {
	e := core.Expense{
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = l.ids.Next()
	l.expenses = append(l.expenses, e)
	return e, nil
}

// RemoveExpense deletes the expense with the given id. It reports whether an
// entry was removed; an unknown id is not an error.
func (l *Ledger) RemoveExpense(id int64) bool {
	for i, e := range l.expenses {
		if e.ID == id {
			l.expenses = append(l.expenses[:i:i], l.expenses[i+1:]...)
			return true
		}
	}
	return false
}

// ResetCurrentMonth zeroes the income and clears the expenses.
func (l *Ledger) ResetCurrentMonth() {
	l.income = decimal.Zero
	l.expenses = []core.Expense{}
}

func (l *Ledger) findMonth(name string) int {
	for i, m := range l.history {
		if m.Name == name {
			return i
		}
	}
	return -1
}
