package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type ledgerState struct {
	budget       domain.Budget
	transactions []*domain.Transaction
	total        decimal.Decimal
	nextID       int64
}

// LedgerRepository implements domain.LedgerRepository in process memory.
// A running total is kept per ledger so TotalExpenses does not rescan.
type LedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*ledgerState
	now     func() time.Time
}

// NewLedgerRepository creates an empty LedgerRepository
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		ledgers: make(map[string]*ledgerState),
		now:     time.Now,
	}
}

// state returns the ledger state, creating it on first use. Callers hold mu.
func (r *LedgerRepository) state(ledgerID string) *ledgerState {
	s, ok := r.ledgers[ledgerID]
	if !ok {
		s = &ledgerState{total: decimal.Zero}
		r.ledgers[ledgerID] = s
	}
	return s
}

// GetBudget returns the ledger budget, zero-valued when never set
func (r *LedgerRepository) GetBudget(ctx context.Context, ledgerID string) (*domain.Budget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.ledgers[ledgerID]
	if !ok {
		return &domain.Budget{Amount: decimal.Zero}, nil
	}
	b := s.budget
	return &b, nil
}

// SetBudget replaces the ledger budget
func (r *LedgerRepository) SetBudget(ctx context.Context, ledgerID string, amount decimal.Decimal) (*domain.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(ledgerID)
	s.budget = domain.Budget{
		Amount:     amount,
		Configured: true,
		UpdatedAt:  r.now(),
	}
	b := s.budget
	return &b, nil
}

// AddTransaction appends tx with a fresh ID and, if unset, the current time
func (r *LedgerRepository) AddTransaction(ctx context.Context, ledgerID string, tx *domain.Transaction) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state(ledgerID)
	s.nextID++

	stored := *tx
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	s.transactions = append(s.transactions, &stored)
	s.total = s.total.Add(stored.LineTotal())

	result := stored
	return &result, nil
}

// ListTransactions returns copies of the ledger transactions, newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, ledgerID string) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Transaction, 0)
	s, ok := r.ledgers[ledgerID]
	if !ok {
		return result, nil
	}
	for _, tx := range s.transactions {
		copied := *tx
		result = append(result, &copied)
	}
	sortNewestFirst(result)
	return result, nil
}

// TotalExpenses returns the running sum of cost * quantity
func (r *LedgerRepository) TotalExpenses(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.ledgers[ledgerID]
	if !ok {
		return decimal.Zero, nil
	}
	return s.total, nil
}

// Reset drops the ledger budget and transactions
func (r *LedgerRepository) Reset(ctx context.Context, ledgerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ledgers, ledgerID)
	return nil
}

// sortNewestFirst orders transactions by timestamp descending, then ID descending.
func sortNewestFirst(txs []*domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}
