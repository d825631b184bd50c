package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"presupuesto/internal/amqp"
	"presupuesto/internal/core"
	"presupuesto/internal/ledger"
	"presupuesto/internal/log"
	"presupuesto/internal/persistence"
	"presupuesto/internal/view"
)

// ErrMonthNotFound is returned for a history index that does not exist.
var ErrMonthNotFound = errors.New("month not found")

type (
	// StateSaver persists a full ledger snapshot.
	StateSaver interface {
		Save(ctx context.Context, st ledger.State) error
	}

	// MonthClosedPublisher announces archived months to other processes.
	MonthClosedPublisher interface {
		PublishMonthClosed(ctx context.Context, msg *amqp.MonthClosedMessage) error
	}
)

// LedgerService runs every user action as validate, mutate, persist under
// one lock. When persisting fails the ledger is rolled back to the state it
// had before the action.
type LedgerService struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	saver     StateSaver
	panels    *view.DetailPanels
	publisher MonthClosedPublisher
	clock     ledger.Clock
	logger    *log.Logger
	events    *log.StructuredLogger
}

type Option func(*LedgerService)

func WithPublisher(p MonthClosedPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock sets the time used for month labels.
func WithClock(c ledger.Clock) Option {
	return func(s *LedgerService) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithPanels(p *view.DetailPanels) Option {
	return func(s *LedgerService) {
		if p != nil {
			s.panels = p
		}
	}
}

func NewLedgerService(l *ledger.Ledger, saver StateSaver, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: l,
		saver:  saver,
		panels: view.NewDetailPanels(view.DefaultPanelCapacity),
		clock:  time.Now,
		logger: log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Open loads the persisted ledger from bridge and returns a service that
// saves back to it. Keys that could not be read start from their defaults.
func Open(ctx context.Context, bridge *persistence.Bridge, opts ...Option) *LedgerService {
	st, issues := bridge.Load(ctx)
	s := NewLedgerService(nil, bridge, opts...)
	s.ledger = ledger.FromState(st, ledger.WithClock(s.clock))

	s.logger.InfoContext(ctx, "Ledger loaded",
		"expenses", len(st.Expenses),
		"months", len(st.History),
		"defaulted_keys", len(issues))
	return s
}

// apply runs fn and persists the result. fn must leave the ledger unchanged
// when it returns an error.
func (s *LedgerService) apply(ctx context.Context, op string, fn func() error) error {
	before := s.ledger.Snapshot()
	if err := fn(); err != nil {
		return err
	}
	if err := s.saver.Save(ctx, s.ledger.Snapshot()); err != nil {
		s.ledger.Restore(before)
		s.events.LogError(ctx, "Persist failed, ledger rolled back", err, log.ComponentPersist, op, nil)
		// A store without atomic batches may hold part of the new state.
		// Writing the old state back keeps storage and memory in step.
		if cerr := s.saver.Save(ctx, before); cerr != nil {
			s.events.LogError(ctx, "Restoring persisted state failed, storage may be torn", cerr, log.ComponentPersist, op, nil)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetIncome replaces the current month's income.
func (s *LedgerService) SetIncome(ctx context.Context, v decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(ctx, log.OpSetIncome, func() error {
		s.ledger.SetIncome(v)
		return nil
	})
}

// AddExpense validates and records a new expense.
func (s *LedgerService) AddExpense(ctx context.Context, amount decimal.Decimal, category, description string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added core.Expense
	err := s.apply(ctx, log.OpAddExpense, func() error {
		e, err := s.ledger.AddExpense(amount, category, description)
		added = e
		return err
	})
	if err != nil {
		return core.Expense{}, err
	}
	s.events.LogExpenseAdded(ctx, added.ID, added.Amount, added.Category)
	return added, nil
}

// RemoveExpense deletes the expense with id. An unknown id changes nothing
// and is not an error.
func (s *LedgerService) RemoveExpense(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	err := s.apply(ctx, log.OpRemove, func() error {
		removed = s.ledger.RemoveExpense(id)
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.InfoContext(ctx, "Expense removed", log.FieldExpenseID, id)
	}
	return removed, nil
}

// CloseMonth archives the current month and, once persisted, publishes a
// month-closed event. Publishing failures are logged only.
func (s *LedgerService) CloseMonth(ctx context.Context) (ledger.CloseResult, error) {
	now := s.clock()

	s.mu.Lock()
	var res ledger.CloseResult
	err := s.apply(ctx, log.OpCloseMonth, func() error {
		r, err := s.ledger.CloseMonth(now)
		res = r
		return err
	})
	if err == nil && res.Merged {
		s.panels.Invalidate(res.Label)
	}
	s.mu.Unlock()

	if err != nil {
		return ledger.CloseResult{}, err
	}

	s.events.LogMonthClosed(ctx, res.Label, res.Merged, len(res.Record.Expenses))
	s.publish(ctx, core.Summarize(res.Record, res.Merged, now))
	return res, nil
}

func (s *LedgerService) publish(ctx context.Context, summary core.MonthSummary) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping month closed event",
			log.FieldMonthName, summary.Name)
		return
	}
	msg := amqp.NewMonthClosedMessage(summary)
	if err := s.publisher.PublishMonthClosed(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish month closed event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventID, msg.EventID,
			log.FieldMonthName, summary.Name,
			log.FieldError, err.Error())
	}
}

// ToggleMonthDetail expands or collapses the breakdown of the archived month
// at index and reports whether it is now expanded.
func (s *LedgerService) ToggleMonthDetail(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.ledger.History()
	if index < 0 || index >= len(history) {
		return false, fmt.Errorf("%w: index %d", ErrMonthNotFound, index)
	}
	expanded := s.panels.Toggle(index, history[index])
	s.logger.DebugContext(ctx, "Month detail toggled",
		log.FieldMonthName, history[index].Name, "expanded", expanded)
	return expanded, nil
}

// Page projects the current state for rendering.
func (s *LedgerService) Page() view.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.Build(s.ledger.Snapshot(), s.panels)
}

// Snapshot returns a copy of the ledger.
func (s *LedgerService) Snapshot() ledger.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Panels returns the detail panel state.
func (s *LedgerService) Panels() *view.DetailPanels { return s.panels }
