package view

import (
	"presupuesto/internal/cache"
	"presupuesto/internal/core"
)

// DefaultPanelCapacity bounds how many materialised breakdowns are kept.
const DefaultPanelCapacity = 64

// DetailPanels tracks which archived months are expanded and holds their
// materialised category breakdowns, keyed by month name. Collapsing a panel
// drops its breakdown so the next expansion recomputes it.
//
// DetailPanels is not safe for concurrent use.
type DetailPanels struct {
	expanded map[int]bool
	details  cache.Cache[core.Breakdown]
}

func NewDetailPanels(capacity int) *DetailPanels {
	if capacity <= 0 {
		capacity = DefaultPanelCapacity
	}
	return &DetailPanels{
		expanded: make(map[int]bool),
		details:  cache.NewLRUCache[core.Breakdown](capacity, 0),
	}
}

// Toggle flips the panel of the month at index and reports whether it is
// now expanded.
func (p *DetailPanels) Toggle(index int, rec core.MonthRecord) bool {
	if p.expanded[index] {
		delete(p.expanded, index)
		p.details.Delete(rec.Name)
		return false
	}
	p.expanded[index] = true
	p.details.Set(rec.Name, core.CategoryBreakdown(rec.Expenses))
	return true
}

func (p *DetailPanels) IsExpanded(index int) bool {
	return p.expanded[index]
}

// Detail returns the breakdown for rec, computing it if it is not held.
func (p *DetailPanels) Detail(rec core.MonthRecord) core.Breakdown {
	if b, ok := p.details.Get(rec.Name); ok {
		return b
	}
	b := core.CategoryBreakdown(rec.Expenses)
	p.details.Set(rec.Name, b)
	return b
}

// Invalidate drops the materialised breakdown of a month whose expenses
// changed. The expanded state is kept.
func (p *DetailPanels) Invalidate(name string) {
	p.details.Delete(name)
}

// Materialised reports how many breakdowns are held.
func (p *DetailPanels) Materialised() int {
	return p.details.Size()
}

