package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chart labels and colours for the two-bar month chart.
const (
	ChartLabelSpent     = "Gastado"
	ChartLabelAvailable = "Disponible"
	ChartColorSpent     = "#ef4444"
	ChartColorAvailable = "#22c55e"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown is a per-category sum in order of first occurrence.
type Breakdown []CategoryAmount

// Map returns the breakdown keyed by category.
func (b Breakdown) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(b))
	for _, c := range b {
		out[c.Name] = c.Amount
	}
	return out
}

// ChartDataset is the two-value series fed to the month chart.
type ChartDataset struct {
	Labels [2]string          `json:"labels"`
	Colors [2]string          `json:"colors"`
	Values [2]decimal.Decimal `json:"values"`
}

// MonthSummary is a compact, exportable view of a closed month.
type MonthSummary struct {
	Name         string
	Income       decimal.Decimal
	TotalSpent   decimal.Decimal
	Saldo        decimal.Decimal
	ExpenseCount int
	Merged       bool
	ClosedAt     time.Time
	Categories   Breakdown
}

// TotalSpent sums the expense amounts. An empty list yields zero.
func TotalSpent(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Savings is income minus spending. It may be negative.
func Savings(income, totalSpent decimal.Decimal) decimal.Decimal {
	return income.Sub(totalSpent)
}

// CategoryBreakdown groups the expenses by category and sums each group.
func CategoryBreakdown(expenses []Expense) Breakdown {
	index := make(map[string]int)
	out := Breakdown{}
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			index[e.Category] = len(out)
			out = append(out, CategoryAmount{Name: e.Category, Amount: e.Amount})
			continue
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// NewChartDataset builds the chart series. The available bar is clamped at
// zero; callers show the real savings figure elsewhere.
func NewChartDataset(totalSpent, savings decimal.Decimal) ChartDataset {
	available := savings
	if available.IsNegative() {
		available = decimal.Zero
	}
	return ChartDataset{
		Labels: [2]string{ChartLabelSpent, ChartLabelAvailable},
		Colors: [2]string{ChartColorSpent, ChartColorAvailable},
		Values: [2]decimal.Decimal{totalSpent, available},
	}
}

// Summarize builds the exportable summary of an archived month.
func Summarize(rec MonthRecord, merged bool, closedAt time.Time) MonthSummary {
	return MonthSummary{
		Name:         rec.Name,
		Income:       rec.Income,
		TotalSpent:   rec.TotalSpent,
		Saldo:        rec.Saldo,
		ExpenseCount: len(rec.Expenses),
		Merged:       merged,
		ClosedAt:     closedAt,
		Categories:   CategoryBreakdown(rec.Expenses),
	}
}
