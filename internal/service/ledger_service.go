package service

import (
	"context"
	"sync"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/dafibh/ledger/internal/websocket"
	"github.com/rs/zerolog/log"
)

// LedgerService is the authoritative operation surface of the ledger store.
// It validates input before any mutation and serialises writes per ledger.
type LedgerService struct {
	repo      domain.LedgerRepository
	publisher websocket.EventPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo domain.LedgerRepository) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: &websocket.NoOpPublisher{},
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetEventPublisher sets the publisher notified after successful writes
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.publisher = publisher
}

// lock returns the mutex serializing access to ledgerID
func (s *LedgerService) lock(ledgerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[ledgerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ledgerID] = l
	}
	return l
}

// GetBalance returns the derived aggregates of a ledger.
// A ledger that was never written reports zero values and Configured == false.
func (s *LedgerService) GetBalance(ctx context.Context, ledgerID string) (*domain.Balance, error) {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return nil, err
	}

	// Budget and total must come from the same ledger state.
	l := s.lock(ledgerID)
	l.Lock()
	defer l.Unlock()

	budget, err := s.repo.GetBudget(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalExpenses(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	return domain.NewBalance(budget, total), nil
}

// GetBudget returns the current budget of a ledger
func (s *LedgerService) GetBudget(ctx context.Context, ledgerID string) (*domain.Budget, error) {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return nil, err
	}
	return s.repo.GetBudget(ctx, ledgerID)
}

// ListExpenses returns the ledger transactions newest first; never nil
func (s *LedgerService) ListExpenses(ctx context.Context, ledgerID string) ([]*domain.Transaction, error) {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return nil, err
	}

	txs, err := s.repo.ListTransactions(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = make([]*domain.Transaction, 0)
	}
	return txs, nil
}

// AddExpense validates input and appends a new transaction.
// A rejected input leaves the ledger untouched.
func (s *LedgerService) AddExpense(ctx context.Context, ledgerID string, input domain.ExpenseInput) (*domain.Transaction, error) {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return nil, err
	}

	tx, err := input.Validate()
	if err != nil {
		return nil, err
	}

	l := s.lock(ledgerID)
	l.Lock()
	created, err := s.repo.AddTransaction(ctx, ledgerID, tx)
	l.Unlock()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("ledger_id", ledgerID).
		Int64("expense_id", created.ID).
		Str("line_total", created.LineTotal().StringFixed(2)).
		Msg("Expense appended")

	s.publisher.Publish(websocket.ExpenseCreated(ledgerID, map[string]interface{}{
		"id":       created.ID,
		"item":     created.Item,
		"cost":     created.Cost.StringFixed(2),
		"quantity": created.Quantity,
	}))

	return created, nil
}

// SetBudget replaces the ledger budget with a non-negative amount
func (s *LedgerService) SetBudget(ctx context.Context, ledgerID string, amountText string) (*domain.Budget, error) {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return nil, err
	}

	amount, err := domain.ParseBudgetAmount(amountText)
	if err != nil {
		return nil, err
	}

	l := s.lock(ledgerID)
	l.Lock()
	budget, err := s.repo.SetBudget(ctx, ledgerID, amount)
	l.Unlock()
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(websocket.BudgetUpdated(ledgerID, map[string]interface{}{
		"amount": budget.Amount.StringFixed(2),
	}))

	return budget, nil
}

// Reset irreversibly clears the budget and all transactions of a ledger.
// Resetting an empty ledger succeeds.
func (s *LedgerService) Reset(ctx context.Context, ledgerID string) error {
	if err := domain.ValidateLedgerID(ledgerID); err != nil {
		return err
	}

	l := s.lock(ledgerID)
	l.Lock()
	err := s.repo.Reset(ctx, ledgerID)
	l.Unlock()
	if err != nil {
		return err
	}

	s.publisher.Publish(websocket.LedgerReset(ledgerID))
	return nil
}
