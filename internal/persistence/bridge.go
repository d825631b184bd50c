// Package persistence maps the ledger onto three keys of a string
// key-value store: income, expenses and months.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
	"presupuesto/internal/kv"
	"presupuesto/internal/ledger"
	"presupuesto/internal/log"
)

// Storage keys.
const (
	KeyIncome   = "income"
	KeyExpenses = "expenses"
	KeyMonths   = "months"
)

var (
	// ErrMalformedState marks a key whose stored value could not be decoded.
	ErrMalformedState = errors.New("malformed persisted state")
	// ErrMissingKey marks a key that was never written.
	ErrMissingKey = errors.New("key not present")
)

// KeyIssue records why a key fell back to its default during Load.
type KeyIssue struct {
	Key string
	Err error
}

func (i KeyIssue) Error() string { return fmt.Sprintf("%s: %v", i.Key, i.Err) }
func (i KeyIssue) Unwrap() error { return i.Err }

type Bridge struct {
	store  kv.Store
	logger *log.Logger
}

func NewBridge(store kv.Store, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Bridge{store: store, logger: logger.WithComponent(log.ComponentPersist)}
}

// Store returns the underlying key-value store.
func (b *Bridge) Store() kv.Store { return b.store }

// Save writes the three keys from st. Stores implementing kv.BatchWriter
// receive a single atomic batch. Other stores get three writes in the order
// income, expenses, months; a failure part way leaves earlier keys written.
func (b *Bridge) Save(ctx context.Context, st ledger.State) error {
	income, expenses, months, err := encode(st)
	if err != nil {
		return err
	}

	if bw, ok := b.store.(kv.BatchWriter); ok {
		if err := bw.SetMany(ctx, map[string]string{
			KeyIncome:   income,
			KeyExpenses: expenses,
			KeyMonths:   months,
		}); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		return nil
	}

	for _, kvp := range [...][2]string{
		{KeyIncome, income},
		{KeyExpenses, expenses},
		{KeyMonths, months},
	} {
		if err := b.store.Set(ctx, kvp[0], kvp[1]); err != nil {
			return fmt.Errorf("save %s: %w", kvp[0], err)
		}
	}
	return nil
}

func encode(st ledger.State) (income, expenses, months string, err error) {
	exp := st.Expenses
	if exp == nil {
		exp = []core.Expense{}
	}
	hist := st.History
	if hist == nil {
		hist = []core.MonthRecord{}
	}
	eb, err := json.Marshal(exp)
	if err != nil {
		return "", "", "", fmt.Errorf("encode expenses: %w", err)
	}
	mb, err := json.Marshal(hist)
	if err != nil {
		return "", "", "", fmt.Errorf("encode months: %w", err)
	}
	return st.Income.String(), string(eb), string(mb), nil
}

// Load reads the three keys. Each key that is absent, unreadable or
// malformed independently falls back to its default (zero income, no
// expenses, no history) and is reported as a KeyIssue. Absent keys are
// normal on first start and are not logged; the others are logged at WARN.
func (b *Bridge) Load(ctx context.Context) (ledger.State, []KeyIssue) {
	st := ledger.State{
		Income:   decimal.Zero,
		Expenses: []core.Expense{},
		History:  []core.MonthRecord{},
	}
	var issues []KeyIssue

	report := func(key string, err error) {
		issues = append(issues, KeyIssue{Key: key, Err: err})
		if !errors.Is(err, ErrMissingKey) {
			b.logger.WarnContext(ctx, "Persisted key ignored, using default",
				log.FieldOperation, log.OpLoad,
				log.FieldKey, key, log.FieldError, err.Error())
		}
	}

	if raw, err := b.read(ctx, KeyIncome); err != nil {
		report(KeyIncome, err)
	} else if v, err := parseIncome(raw); err != nil {
		report(KeyIncome, err)
	} else {
		st.Income = v
	}

	if raw, err := b.read(ctx, KeyExpenses); err != nil {
		report(KeyExpenses, err)
	} else if v, err := parseExpenses(raw); err != nil {
		report(KeyExpenses, err)
	} else {
		st.Expenses = v
	}

	if raw, err := b.read(ctx, KeyMonths); err != nil {
		report(KeyMonths, err)
	} else if v, err := parseMonths(raw); err != nil {
		report(KeyMonths, err)
	} else {
		st.History = v
	}

	return st, issues
}

func (b *Bridge) read(ctx context.Context, key string) (string, error) {
	raw, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if !ok {
		return "", ErrMissingKey
	}
	return raw, nil
}

// parseIncome accepts what the store holds for income. A blank value is
// zero.
func parseIncome(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || !core.AmountInRange(v) {
		return decimal.Zero, fmt.Errorf("%w: income %.32q", ErrMalformedState, raw)
	}
	return v, nil
}

func checkExpenseAmounts(key string, expenses []core.Expense) error {
	for _, e := range expenses {
		if !core.AmountInRange(e.Amount) {
			return fmt.Errorf("%w: %s: expense %d amount out of range", ErrMalformedState, key, e.ID)
		}
	}
	return nil
}

func parseExpenses(raw string) ([]core.Expense, error) {
	var out []core.Expense
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: expenses: %v", ErrMalformedState, err)
	}
	if out == nil {
		out = []core.Expense{}
	}
	if err := checkExpenseAmounts(KeyExpenses, out); err != nil {
		return nil, err
	}
	return out, nil
}

// monthWire is the stored shape of a month. Older records may lack
// totalSpent and saldo.
type monthWire struct {
	Name       string           `json:"name"`
	Income     decimal.Decimal  `json:"income"`
	TotalSpent *decimal.Decimal `json:"totalSpent"`
	Saldo      *decimal.Decimal `json:"saldo"`
	Expenses   []core.Expense   `json:"expenses"`
}

func parseMonths(raw string) ([]core.MonthRecord, error) {
	var wire []monthWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: months: %v", ErrMalformedState, err)
	}
	out := make([]core.MonthRecord, 0, len(wire))
	for _, w := range wire {
		if err := checkMonthAmounts(w); err != nil {
			return nil, err
		}
		rec := core.MonthRecord{
			Name:     w.Name,
			Income:   w.Income,
			Expenses: core.CloneExpenses(w.Expenses),
		}
		if w.TotalSpent != nil {
			rec.TotalSpent = *w.TotalSpent
		} else {
			rec.TotalSpent = core.TotalSpent(rec.Expenses)
		}
		if w.Saldo != nil {
			rec.Saldo = *w.Saldo
		} else {
			rec.Saldo = core.Savings(rec.Income, rec.TotalSpent)
		}
		out = append(out, rec)
	}
	return out, nil
}

func checkMonthAmounts(w monthWire) error {
	amounts := []decimal.Decimal{w.Income}
	if w.TotalSpent != nil {
		amounts = append(amounts, *w.TotalSpent)
	}
	if w.Saldo != nil {
		amounts = append(amounts, *w.Saldo)
	}
	for _, d := range amounts {
		if !core.AmountInRange(d) {
			return fmt.Errorf("%w: months: %s totals out of range", ErrMalformedState, w.Name)
		}
	}
	return checkExpenseAmounts(KeyMonths, w.Expenses)
}
