package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
	"presupuesto/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testState() ledger.State {
	return ledger.State{
		Income: dec("100"),
		Expenses: []core.Expense{
			{ID: 1, Amount: dec("30"), Category: "Comida", Description: "super"},
			{ID: 2, Amount: dec("20"), Category: "Ocio"},
		},
		History: []core.MonthRecord{{
			Name:       "Febrero 2025",
			Income:     dec("50"),
			TotalSpent: dec("80"),
			Saldo:      dec("-30"),
			Expenses: []core.Expense{
				{ID: 10, Amount: dec("50"), Category: "Renta"},
				{ID: 11, Amount: dec("30"), Category: "Comida"},
			},
		}},
	}
}

func TestBuildFigures(t *testing.T) {
	p := Build(testState(), nil)

	assert.Equal(t, "100", p.Income.String())
	assert.Equal(t, "50", p.TotalSpent.String())
	assert.Equal(t, "50", p.Savings.String())
	assert.Equal(t, "$50", p.SavingsText)
	assert.Equal(t, TonePositive, p.Tone)

	require.Len(t, p.Expenses, 2)
	assert.Equal(t, int64(1), p.Expenses[0].ID)
	assert.Equal(t, "$30", p.Expenses[0].AmountText)

	require.Len(t, p.Months, 1)
	assert.Equal(t, ToneNegative, p.Months[0].Tone)
	assert.Equal(t, "-$30", p.Months[0].SaldoText)
	assert.False(t, p.Months[0].Expanded)
	assert.Empty(t, p.Months[0].Detail)

	assert.Equal(t, []string{"Comida", "Ocio", "Renta"}, p.Categories)
}

func TestBuildNegativeSavingsClampsChartOnly(t *testing.T) {
	st := testState()
	st.Income = dec("10")
	p := Build(st, nil)

	assert.Equal(t, "-40", p.Savings.String())
	assert.Equal(t, ToneNegative, p.Tone)
	assert.Equal(t, "0", p.Chart.Values[1].String())
	assert.Equal(t, 100, p.Bars[0].Percent)
	assert.Equal(t, 0, p.Bars[1].Percent)
}

func TestBuildBars(t *testing.T) {
	st := ledger.State{Income: dec("200"), Expenses: []core.Expense{{ID: 1, Amount: dec("50"), Category: "x"}}}
	p := Build(st, nil)
	require.Len(t, p.Bars, 2)
	assert.Equal(t, core.ChartLabelSpent, p.Bars[0].Label)
	assert.Equal(t, 33, p.Bars[0].Percent)
	assert.Equal(t, 100, p.Bars[1].Percent)

	empty := Build(ledger.State{Income: decimal.Zero}, nil)
	assert.Equal(t, 0, empty.Bars[0].Percent)
	assert.Equal(t, 0, empty.Bars[1].Percent)
	assert.NotNil(t, empty.Expenses)
	assert.NotNil(t, empty.Months)
}

func TestDetailPanelsToggle(t *testing.T) {
	st := testState()
	panels := NewDetailPanels(0)
	rec := st.History[0]

	assert.True(t, panels.Toggle(0, rec))
	assert.Equal(t, 1, panels.Materialised())

	p := Build(st, panels)
	require.True(t, p.Months[0].Expanded)
	require.Len(t, p.Months[0].Detail, 2)
	assert.Equal(t, "Renta", p.Months[0].Detail[0].Category)
	assert.Equal(t, "$50", p.Months[0].Detail[0].AmountText)
	assert.Equal(t, "Comida", p.Months[0].Detail[1].Category)

	assert.False(t, panels.Toggle(0, rec))
	assert.Equal(t, 0, panels.Materialised(), "collapse clears materialised detail")
	assert.False(t, Build(st, panels).Months[0].Expanded)
}

func TestDetailPanelsInvalidateRecomputes(t *testing.T) {
	st := testState()
	panels := NewDetailPanels(4)
	panels.Toggle(0, st.History[0])

	// The record absorbs another expense, as after a merge close.
	st.History[0].Expenses = append(st.History[0].Expenses, core.Expense{ID: 12, Amount: dec("5"), Category: "Renta"})

	stale := Build(st, panels)
	assert.Equal(t, "50", stale.Months[0].Detail[0].Amount.String())

	panels.Invalidate("Febrero 2025")
	fresh := Build(st, panels)
	require.True(t, fresh.Months[0].Expanded)
	assert.Equal(t, "55", fresh.Months[0].Detail[0].Amount.String())
}

func TestDetailPanelsCollapseDropsBreakdown(t *testing.T) {
	st := testState()
	panels := NewDetailPanels(4)
	require.True(t, panels.Toggle(0, st.History[0]))
	assert.Equal(t, 1, panels.Materialised())
	require.False(t, panels.Toggle(0, st.History[0]))
	assert.False(t, panels.IsExpanded(0))
	assert.Equal(t, 0, panels.Materialised())
}
