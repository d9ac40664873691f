package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *LedgerRepository {
	t.Helper()
	repo, err := NewLedgerRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLedgerRepository_BudgetLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	budget, err := repo.GetBudget(ctx, "default")
	require.NoError(t, err)
	assert.False(t, budget.Configured)
	assert.True(t, budget.Amount.IsZero())

	_, err = repo.SetBudget(ctx, "default", decimal.RequireFromString("500.25"))
	require.NoError(t, err)
	_, err = repo.SetBudget(ctx, "default", decimal.RequireFromString("450"))
	require.NoError(t, err)

	budget, err = repo.GetBudget(ctx, "default")
	require.NoError(t, err)
	assert.True(t, budget.Configured)
	assert.Equal(t, "450.00", budget.Amount.StringFixed(2))
}

func TestLedgerRepository_ExplicitZeroBudgetIsConfigured(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SetBudget(ctx, "default", decimal.Zero)
	require.NoError(t, err)

	budget, err := repo.GetBudget(ctx, "default")
	require.NoError(t, err)
	assert.True(t, budget.Configured)
	assert.True(t, budget.Amount.IsZero())
}

func TestLedgerRepository_TransactionsAndTotal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

	first, err := repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Coffee", Cost: decimal.RequireFromString("4.50"), Quantity: 1, CreatedAt: base})
	require.NoError(t, err)
	second, err := repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Bagel", Cost: decimal.RequireFromString("0.10"), Quantity: 3, CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	txs, err := repo.ListTransactions(ctx, "default")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Bagel", txs[0].Item)
	assert.Equal(t, int32(3), txs[0].Quantity)
	assert.True(t, txs[0].CreatedAt.Equal(base.Add(time.Minute)))
	assert.Equal(t, "Coffee", txs[1].Item)

	total, err := repo.TotalExpenses(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "4.80", total.StringFixed(2))
}

func TestLedgerRepository_ResetIsScopedAndIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SetBudget(ctx, "default", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Book", Cost: decimal.NewFromInt(15), Quantity: 1})
	require.NoError(t, err)
	_, err = repo.AddTransaction(ctx, "other", &domain.Transaction{Item: "Pen", Cost: decimal.NewFromInt(2), Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, repo.Reset(ctx, "default"))
	require.NoError(t, repo.Reset(ctx, "default"))

	txs, err := repo.ListTransactions(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, txs)

	budget, err := repo.GetBudget(ctx, "default")
	require.NoError(t, err)
	assert.False(t, budget.Configured)

	others, err := repo.ListTransactions(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestLedgerRepository_RunningTotalTracksWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	storedTotal := func(ledgerID string) (string, bool) {
		var total string
		err := repo.db.QueryRowContext(ctx, `SELECT total FROM ledger_totals WHERE ledger_id = ?`, ledgerID).Scan(&total)
		if err != nil {
			return "", false
		}
		return total, true
	}

	_, err := repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Rent", Cost: decimal.NewFromInt(800), Quantity: 1})
	require.NoError(t, err)
	_, err = repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Stamps", Cost: decimal.RequireFromString("0.85"), Quantity: 4})
	require.NoError(t, err)
	_, err = repo.AddTransaction(ctx, "other", &domain.Transaction{Item: "Pen", Cost: decimal.NewFromInt(2), Quantity: 1})
	require.NoError(t, err)

	total, ok := storedTotal("default")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString(total).Equal(decimal.RequireFromString("803.40")))

	// A rejected insert rolls back without touching the total.
	_, err = repo.AddTransaction(ctx, "default", &domain.Transaction{Item: "Nothing", Cost: decimal.NewFromInt(5), Quantity: 0})
	require.Error(t, err)
	sum, err := repo.TotalExpenses(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "803.40", sum.StringFixed(2))
	txs, err := repo.ListTransactions(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	require.NoError(t, repo.Reset(ctx, "default"))
	_, ok = storedTotal("default")
	assert.False(t, ok)
	sum, err = repo.TotalExpenses(ctx, "default")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	sum, err = repo.TotalExpenses(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "2.00", sum.StringFixed(2))
}
