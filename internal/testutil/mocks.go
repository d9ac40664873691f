package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/dafibh/ledger/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockLedgerRepository is a mock implementation of domain.LedgerRepository.
// It recomputes totals by scanning, so tests can cross-check the stores
// that keep running totals.
type MockLedgerRepository struct {
	mu           sync.Mutex
	Budgets      map[string]*domain.Budget
	Transactions map[string][]*domain.Transaction
	NextID       int64
	Calls        int

	// Error hooks; a non-nil error is returned instead of touching state
	GetBudgetErr error
	SetBudgetErr error
	AddErr       error
	ListErr      error
	TotalErr     error
	ResetErr     error
	Now          func() time.Time

	// BeforeTotal runs at the start of TotalExpenses, outside the mock's lock
	BeforeTotal func()
}

// NewMockLedgerRepository creates a new MockLedgerRepository
func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Budgets:      make(map[string]*domain.Budget),
		Transactions: make(map[string][]*domain.Transaction),
		NextID:       1,
		Now:          time.Now,
	}
}

// GetBudget retrieves the budget of a ledger
func (m *MockLedgerRepository) GetBudget(ctx context.Context, ledgerID string) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.GetBudgetErr != nil {
		return nil, m.GetBudgetErr
	}
	if b, ok := m.Budgets[ledgerID]; ok {
		copied := *b
		return &copied, nil
	}
	return &domain.Budget{Amount: decimal.Zero}, nil
}

// SetBudget replaces the budget of a ledger
func (m *MockLedgerRepository) SetBudget(ctx context.Context, ledgerID string, amount decimal.Decimal) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.SetBudgetErr != nil {
		return nil, m.SetBudgetErr
	}
	b := &domain.Budget{Amount: amount, Configured: true, UpdatedAt: m.Now()}
	m.Budgets[ledgerID] = b
	copied := *b
	return &copied, nil
}

// AddTransaction appends a transaction
func (m *MockLedgerRepository) AddTransaction(ctx context.Context, ledgerID string, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.AddErr != nil {
		return nil, m.AddErr
	}
	stored := *tx
	stored.ID = m.NextID
	m.NextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.Now()
	}
	m.Transactions[ledgerID] = append(m.Transactions[ledgerID], &stored)
	result := stored
	return &result, nil
}

// ListTransactions returns transactions newest first
func (m *MockLedgerRepository) ListTransactions(ctx context.Context, ledgerID string) ([]*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	txs := m.Transactions[ledgerID]
	result := make([]*domain.Transaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		copied := *txs[i]
		result = append(result, &copied)
	}
	return result, nil
}

// TotalExpenses sums cost * quantity
func (m *MockLedgerRepository) TotalExpenses(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	if m.BeforeTotal != nil {
		m.BeforeTotal()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.TotalErr != nil {
		return decimal.Zero, m.TotalErr
	}
	total := decimal.Zero
	for _, tx := range m.Transactions[ledgerID] {
		total = total.Add(tx.LineTotal())
	}
	return total, nil
}

// Reset clears the ledger
func (m *MockLedgerRepository) Reset(ctx context.Context, ledgerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.ResetErr != nil {
		return m.ResetErr
	}
	delete(m.Budgets, ledgerID)
	delete(m.Transactions, ledgerID)
	return nil
}

// TransactionCount returns how many transactions a ledger holds (helper for tests)
func (m *MockLedgerRepository) TransactionCount(ledgerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions[ledgerID])
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []string
}

// Publish records the event type
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event.Type)
}

// Types returns the combined types of the recorded events
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]string, len(m.Events))
	copy(copied, m.Events)
	return copied
}
