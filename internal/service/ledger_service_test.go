package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/dafibh/ledger/internal/repository/memory"
	"github.com/dafibh/ledger/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerID = domain.DefaultLedgerID

func newTestService() (*LedgerService, *testutil.MockLedgerRepository, *testutil.MockEventPublisher) {
	repo := testutil.NewMockLedgerRepository()
	publisher := &testutil.MockEventPublisher{}
	svc := NewLedgerService(repo)
	svc.SetEventPublisher(publisher)
	return svc, repo, publisher
}

func TestLedgerService_GetBalance_FreshLedger(t *testing.T) {
	svc, _, _ := newTestService()

	balance, err := svc.GetBalance(context.Background(), ledgerID)

	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.Budget.StringFixed(2))
	assert.Equal(t, "0.00", balance.TotalExpenses.StringFixed(2))
	assert.Equal(t, "0.00", balance.Remaining.StringFixed(2))
	assert.False(t, balance.Configured)
	assert.False(t, balance.OverBudget)
}

func TestLedgerService_AddExpense_DefaultQuantity(t *testing.T) {
	svc, _, publisher := newTestService()

	tx, err := svc.AddExpense(context.Background(), ledgerID, domain.ExpenseInput{Item: "Coffee", Cost: "4.50"})

	require.NoError(t, err)
	assert.Equal(t, int32(1), tx.Quantity)
	assert.Equal(t, "4.50", tx.Cost.StringFixed(2))
	assert.NotZero(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.Equal(t, []string{"expense.created"}, publisher.Types())
}

func TestLedgerService_AddExpense_RejectedLeavesStateUnchanged(t *testing.T) {
	svc, repo, publisher := newTestService()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Tea", Cost: "2"})
	require.NoError(t, err)

	_, err = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "", Cost: "5"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "item", verr.Field)

	txs, err := svc.ListExpenses(ctx, ledgerID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 1, repo.TransactionCount(ledgerID))
	assert.Equal(t, []string{"expense.created"}, publisher.Types())
}

func TestLedgerService_TotalMatchesAcceptedExpenses(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	inputs := []domain.ExpenseInput{
		{Item: "Rent", Cost: "800"},
		{Item: "Socks", Cost: "3.25", Quantity: "4"},
		{Item: "", Cost: "99"},
		{Item: "Bus", Cost: "-2"},
		{Item: "Milk", Cost: "1.99", Quantity: "2"},
		{Item: "Bread", Cost: "abc"},
	}

	expected := decimal.Zero
	for _, in := range inputs {
		tx, err := svc.AddExpense(ctx, ledgerID, in)
		if err != nil {
			continue
		}
		expected = expected.Add(tx.Cost.Mul(decimal.NewFromInt32(tx.Quantity)))
	}

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.Equal(t, "816.98", expected.StringFixed(2))
	assert.True(t, expected.Equal(balance.TotalExpenses))
}

func TestLedgerService_SetBudget_RemainingFollows(t *testing.T) {
	svc, _, publisher := newTestService()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Groceries", Cost: "45.10"})
	require.NoError(t, err)

	budget, err := svc.SetBudget(ctx, ledgerID, "500")
	require.NoError(t, err)
	assert.True(t, budget.Configured)

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.Equal(t, "454.90", balance.Remaining.StringFixed(2))
	assert.Equal(t, "9.02", balance.Percentage.StringFixed(2))
	assert.True(t, balance.Configured)
	assert.Equal(t, []string{"expense.created", "budget.updated"}, publisher.Types())
}

func TestLedgerService_SetBudget_ExplicitZeroIsConfigured(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SetBudget(ctx, ledgerID, "0")
	require.NoError(t, err)

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.True(t, balance.Configured)
	assert.True(t, balance.Budget.IsZero())
}

func TestLedgerService_SetBudget_Invalid(t *testing.T) {
	svc, repo, _ := newTestService()

	for _, amount := range []string{"-10", "ten", ""} {
		_, err := svc.SetBudget(context.Background(), ledgerID, amount)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "amount %q", amount)
	}
	assert.Empty(t, repo.Budgets)
}

func TestLedgerService_Overspend(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SetBudget(ctx, ledgerID, "100")
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Shoes", Cost: "60", Quantity: "2"})
	require.NoError(t, err)

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.Equal(t, "-20.00", balance.Remaining.StringFixed(2))
	assert.Equal(t, "100.00", balance.Percentage.StringFixed(2))
	assert.True(t, balance.OverBudget)
}

func TestLedgerService_Reset(t *testing.T) {
	svc, _, publisher := newTestService()
	ctx := context.Background()

	_, err := svc.SetBudget(ctx, ledgerID, "250")
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Cinema", Cost: "12"})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, ledgerID))
	require.NoError(t, svc.Reset(ctx, ledgerID))

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.True(t, balance.Budget.IsZero())
	assert.True(t, balance.TotalExpenses.IsZero())
	assert.True(t, balance.Remaining.IsZero())
	assert.False(t, balance.Configured)

	txs, err := svc.ListExpenses(ctx, ledgerID)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)

	assert.Equal(t, []string{"budget.updated", "expense.created", "ledger.reset", "ledger.reset"}, publisher.Types())
}

func TestLedgerService_RepositoryErrorsPropagate(t *testing.T) {
	svc, repo, publisher := newTestService()
	ctx := context.Background()
	boom := errors.New("disk full")

	repo.AddErr = boom
	_, err := svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Tea", Cost: "2"})
	assert.ErrorIs(t, err, boom)

	repo.TotalErr = boom
	_, err = svc.GetBalance(ctx, ledgerID)
	assert.ErrorIs(t, err, boom)

	repo.ResetErr = boom
	assert.ErrorIs(t, svc.Reset(ctx, ledgerID), boom)

	assert.Empty(t, publisher.Types())
}

func TestLedgerService_InvalidLedgerID(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetBalance(ctx, "Not Valid")
	assert.ErrorIs(t, err, domain.ErrInvalidLedger)
	_, err = svc.AddExpense(ctx, "", domain.ExpenseInput{Item: "Tea", Cost: "2"})
	assert.ErrorIs(t, err, domain.ErrInvalidLedger)
	assert.ErrorIs(t, svc.Reset(ctx, "../etc"), domain.ErrInvalidLedger)
	assert.Zero(t, repo.Calls)
}

func TestLedgerService_ConcurrentWritesWithReset(t *testing.T) {
	svc := NewLedgerService(memory.NewLedgerRepository())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Snack", Cost: "1.50"})
		}()
	}
	wg.Wait()

	balance, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", balance.TotalExpenses.StringFixed(2))

	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = svc.Reset(ctx, ledgerID)
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Late", Cost: "2"})
	}()
	wg.Wait()

	// Either order is valid, but the list and the total must agree.
	txs, err := svc.ListExpenses(ctx, ledgerID)
	require.NoError(t, err)
	balance, err = svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.LineTotal())
	}
	assert.True(t, sum.Equal(balance.TotalExpenses))
}

func TestLedgerService_AddExpense_SubCentCostRejected(t *testing.T) {
	svc, repo, publisher := newTestService()
	ctx := context.Background()

	_, err := svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Gum", Cost: "0.001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, repo.TransactionCount(ledgerID))
	assert.Empty(t, publisher.Types())

	tx, err := svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Gum", Cost: "0.005"})
	require.NoError(t, err)
	assert.Equal(t, "0.01", tx.Cost.StringFixed(2))
}

func TestLedgerService_GetBalance_ConsistentWithConcurrentReset(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SetBudget(ctx, ledgerID, "100")
	require.NoError(t, err)
	_, err = svc.AddExpense(ctx, ledgerID, domain.ExpenseInput{Item: "Books", Cost: "30"})
	require.NoError(t, err)

	reading := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	repo.BeforeTotal = func() {
		once.Do(func() {
			close(reading)
			<-release
		})
	}

	balanceCh := make(chan *domain.Balance, 1)
	go func() {
		balance, err := svc.GetBalance(ctx, ledgerID)
		assert.NoError(t, err)
		balanceCh <- balance
	}()
	<-reading

	resetDone := make(chan error, 1)
	go func() {
		resetDone <- svc.Reset(ctx, ledgerID)
	}()

	// Reset must wait until the balance read has finished.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, repo.TransactionCount(ledgerID))
	close(release)

	balance := <-balanceCh
	require.NotNil(t, balance)
	assert.Equal(t, "100.00", balance.Budget.StringFixed(2))
	assert.Equal(t, "30.00", balance.TotalExpenses.StringFixed(2))
	assert.Equal(t, "70.00", balance.Remaining.StringFixed(2))

	require.NoError(t, <-resetDone)
	after, err := svc.GetBalance(ctx, ledgerID)
	require.NoError(t, err)
	assert.False(t, after.Configured)
	assert.True(t, after.TotalExpenses.IsZero())
}
