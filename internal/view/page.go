// Package view projects a ledger snapshot into the read-only data the UI
// renders.
package view

import (
	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
	"presupuesto/internal/ledger"
)

// Savings tone classes.
const (
	TonePositive = "positivo"
	ToneNegative = "negativo"
)

type (
	ExpenseRow struct {
		ID          int64           `json:"id"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		AmountText  string          `json:"amountText"`
	}

	DetailRow struct {
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		AmountText string          `json:"amountText"`
	}

	MonthRow struct {
		Index        int             `json:"index"`
		Name         string          `json:"name"`
		Income       decimal.Decimal `json:"income"`
		TotalSpent   decimal.Decimal `json:"totalSpent"`
		Saldo        decimal.Decimal `json:"saldo"`
		IncomeText   string          `json:"incomeText"`
		SpentText    string          `json:"spentText"`
		SaldoText    string          `json:"saldoText"`
		Tone         string          `json:"tone"`
		ExpenseCount int             `json:"expenseCount"`
		Expanded     bool            `json:"expanded"`
		Detail       []DetailRow     `json:"detail,omitempty"`
	}

	// Bar is one chart bar; Percent is its height relative to the taller bar.
	Bar struct {
		Label     string          `json:"label"`
		Color     string          `json:"color"`
		Value     decimal.Decimal `json:"value"`
		ValueText string          `json:"valueText"`
		Percent   int             `json:"percent"`
	}

	// Page is everything the UI shows for one ledger snapshot.
	Page struct {
		Income         decimal.Decimal   `json:"income"`
		Expenses       []ExpenseRow      `json:"expenses"`
		TotalSpent     decimal.Decimal   `json:"totalSpent"`
		Savings        decimal.Decimal   `json:"savings"`
		TotalSpentText string            `json:"totalSpentText"`
		SavingsText    string            `json:"savingsText"`
		Tone           string            `json:"tone"`
		Chart          core.ChartDataset `json:"chart"`
		Bars           []Bar             `json:"bars"`
		Months         []MonthRow        `json:"months"`
		Categories     []string          `json:"categories"`
	}
)

func tone(d decimal.Decimal) string {
	if d.IsNegative() {
		return ToneNegative
	}
	return TonePositive
}

// Build projects st. Panels may be nil, in which case every month is
// collapsed.
func Build(st ledger.State, panels *DetailPanels) Page {
	spent := core.TotalSpent(st.Expenses)
	savings := core.Savings(st.Income, spent)
	chart := core.NewChartDataset(spent, savings)

	p := Page{
		Income:         st.Income,
		Expenses:       make([]ExpenseRow, 0, len(st.Expenses)),
		TotalSpent:     spent,
		Savings:        savings,
		TotalSpentText: core.FormatAmount(spent),
		SavingsText:    core.FormatAmount(savings),
		Tone:           tone(savings),
		Chart:          chart,
		Bars:           bars(chart),
		Months:         make([]MonthRow, 0, len(st.History)),
		Categories:     categories(st),
	}

	for _, e := range st.Expenses {
		p.Expenses = append(p.Expenses, ExpenseRow{
			ID:          e.ID,
			Category:    e.Category,
			Description: e.Description,
			Amount:      e.Amount,
			AmountText:  core.FormatAmount(e.Amount),
		})
	}

	for i, m := range st.History {
		row := MonthRow{
			Index:        i,
			Name:         m.Name,
			Income:       m.Income,
			TotalSpent:   m.TotalSpent,
			Saldo:        m.Saldo,
			IncomeText:   core.FormatAmount(m.Income),
			SpentText:    core.FormatAmount(m.TotalSpent),
			SaldoText:    core.FormatAmount(m.Saldo),
			Tone:         tone(m.Saldo),
			ExpenseCount: len(m.Expenses),
		}
		if panels != nil && panels.IsExpanded(i) {
			row.Expanded = true
			for _, c := range panels.Detail(m) {
				row.Detail = append(row.Detail, DetailRow{
					Category:   c.Name,
					Amount:     c.Amount,
					AmountText: core.FormatAmount(c.Amount),
				})
			}
		}
		p.Months = append(p.Months, row)
	}

	return p
}

func bars(c core.ChartDataset) []Bar {
	peak := c.Values[0]
	if c.Values[1].GreaterThan(peak) {
		peak = c.Values[1]
	}
	out := make([]Bar, len(c.Values))
	for i := range c.Values {
		pct := 0
		if peak.IsPositive() {
			pct = int(c.Values[i].Mul(decimal.NewFromInt(100)).Div(peak).Round(0).IntPart())
		}
		out[i] = Bar{
			Label:     c.Labels[i],
			Color:     c.Colors[i],
			Value:     c.Values[i],
			ValueText: core.FormatAmount(c.Values[i]),
			Percent:   pct,
		}
	}
	return out
}

// categories lists every category used in the current month and in the
// history, in first-seen order.
func categories(st ledger.State) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(es []core.Expense) {
		for _, e := range es {
			if e.Category != "" && !seen[e.Category] {
				seen[e.Category] = true
				out = append(out, e.Category)
			}
		}
	}
	add(st.Expenses)
	for _, m := range st.History {
		add(m.Expenses)
	}
	return out
}
