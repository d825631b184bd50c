package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
)

// MonthClosedMessage announces that a month was archived. It carries the
// full summary so consumers never need to read the ledger.
type MonthClosedMessage struct {
	EventID      string                `json:"event_id"`
	Name         string                `json:"name"`
	Income       decimal.Decimal       `json:"income"`
	TotalSpent   decimal.Decimal       `json:"total_spent"`
	Saldo        decimal.Decimal       `json:"saldo"`
	ExpenseCount int                   `json:"expense_count"`
	Merged       bool                  `json:"merged"`
	ClosedAt     time.Time             `json:"closed_at"`
	Categories   []core.CategoryAmount `json:"categories"`
}

// NewMonthClosedMessage builds a message with a fresh event id.
func NewMonthClosedMessage(s core.MonthSummary) *MonthClosedMessage {
	cats := make([]core.CategoryAmount, len(s.Categories))
	copy(cats, s.Categories)
	return &MonthClosedMessage{
		EventID:      uuid.NewString(),
		Name:         s.Name,
		Income:       s.Income,
		TotalSpent:   s.TotalSpent,
		Saldo:        s.Saldo,
		ExpenseCount: s.ExpenseCount,
		Merged:       s.Merged,
		ClosedAt:     s.ClosedAt,
		Categories:   cats,
	}
}

// Summary converts the message back to the domain summary.
func (m *MonthClosedMessage) Summary() core.MonthSummary {
	return core.MonthSummary{
		Name:         m.Name,
		Income:       m.Income,
		TotalSpent:   m.TotalSpent,
		Saldo:        m.Saldo,
		ExpenseCount: m.ExpenseCount,
		Merged:       m.Merged,
		ClosedAt:     m.ClosedAt,
		Categories:   core.Breakdown(m.Categories),
	}
}

func (m *MonthClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthClosedMessageFromJSON decodes a message. A message without event id
// or month name is rejected.
func MonthClosedMessageFromJSON(data []byte) (*MonthClosedMessage, error) {
	var msg MonthClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" {
		return nil, errors.New("missing event_id")
	}
	if msg.Name == "" {
		return nil, fmt.Errorf("event %s: missing month name", msg.EventID)
	}
	amounts := []decimal.Decimal{msg.Income, msg.TotalSpent, msg.Saldo}
	for _, c := range msg.Categories {
		amounts = append(amounts, c.Amount)
	}
	for _, d := range amounts {
		if !core.AmountInRange(d) {
			return nil, fmt.Errorf("event %s: amount out of range", msg.EventID)
		}
	}
	return &msg, nil
}
