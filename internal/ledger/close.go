package ledger

import (
	"time"

	"presupuesto/internal/core"
)

// CloseResult describes the outcome of a month close.
type CloseResult struct {
	Label  string
	Index  int              // position of the record in History
	Merged bool             // true when an existing month absorbed the ledger
	Record core.MonthRecord // copy of the record after the close
}

// CloseMonth archives the current ledger under the label of now and resets
// it. Closing a label that already exists merges into that record: income,
// total spent and expenses accumulate, and saldo is recomputed from the
// merged figures.
func (l *Ledger) CloseMonth(now time.Time) (CloseResult, error) {
	if len(l.expenses) == 0 && l.income.IsZero() {
		return CloseResult{}, core.ErrNothingToClose
	}

	spent := core.TotalSpent(l.expenses)
	label := core.MonthLabel(now)
	res := CloseResult{Label: label}

	if i := l.findMonth(label); i >= 0 {
		rec := &l.history[i]
		rec.Income = rec.Income.Add(l.income)
		rec.TotalSpent = rec.TotalSpent.Add(spent)
		rec.Saldo = core.Savings(rec.Income, rec.TotalSpent)
		rec.Expenses = append(rec.Expenses, l.expenses...)
		res.Index, res.Merged = i, true
	} else {
		l.history = append(l.history, core.MonthRecord{
			Name:       label,
			Income:     l.income,
			TotalSpent: spent,
			Saldo:      core.Savings(l.income, spent),
			Expenses:   core.CloneExpenses(l.expenses),
		})
		res.Index = len(l.history) - 1
	}

	res.Record = l.history[res.Index].Clone()
	l.ResetCurrentMonth()
	return res, nil
}
