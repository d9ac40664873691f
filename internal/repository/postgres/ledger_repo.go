package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_budgets (
    ledger_id  TEXT PRIMARY KEY,
    amount     NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
    configured BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ledger_expenses (
    id         BIGSERIAL PRIMARY KEY,
    ledger_id  TEXT NOT NULL,
    item       VARCHAR(255) NOT NULL,
    cost       NUMERIC(14, 2) NOT NULL CHECK (cost > 0),
    quantity   INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_expenses_ledger_created
    ON ledger_expenses (ledger_id, created_at DESC, id DESC);
`

// LedgerRepository implements domain.LedgerRepository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// EnsureSchema creates the ledger tables if they do not exist
func (r *LedgerRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	return nil
}

// GetBudget returns the ledger budget, zero-valued when none is stored
func (r *LedgerRepository) GetBudget(ctx context.Context, ledgerID string) (*domain.Budget, error) {
	var (
		amount     pgtype.Numeric
		configured bool
		updatedAt  pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx,
		`SELECT amount, configured, updated_at FROM ledger_budgets WHERE ledger_id = $1`, ledgerID,
	).Scan(&amount, &configured, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.Budget{Amount: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	return &domain.Budget{
		Amount:     pgNumericToDecimal(amount),
		Configured: configured,
		UpdatedAt:  updatedAt.Time,
	}, nil
}

// SetBudget upserts the ledger budget
func (r *LedgerRepository) SetBudget(ctx context.Context, ledgerID string, amount decimal.Decimal) (*domain.Budget, error) {
	num, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, err
	}

	var (
		stored    pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)
	err = r.pool.QueryRow(ctx, `
		INSERT INTO ledger_budgets (ledger_id, amount, configured, updated_at)
		VALUES ($1, $2, TRUE, NOW())
		ON CONFLICT (ledger_id) DO UPDATE SET amount = EXCLUDED.amount, configured = TRUE, updated_at = NOW()
		RETURNING amount, updated_at
	`, ledgerID, num).Scan(&stored, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}

	return &domain.Budget{
		Amount:     pgNumericToDecimal(stored),
		Configured: true,
		UpdatedAt:  updatedAt.Time,
	}, nil
}

// AddTransaction inserts tx and returns the stored row
func (r *LedgerRepository) AddTransaction(ctx context.Context, ledgerID string, tx *domain.Transaction) (*domain.Transaction, error) {
	cost, err := decimalToPgNumeric(tx.Cost)
	if err != nil {
		return nil, err
	}

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	stored := *tx
	var storedCost pgtype.Numeric
	err = r.pool.QueryRow(ctx, `
		INSERT INTO ledger_expenses (ledger_id, item, cost, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, cost, created_at
	`, ledgerID, tx.Item, cost, tx.Quantity, createdAt).Scan(&stored.ID, &storedCost, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	stored.Cost = pgNumericToDecimal(storedCost)
	return &stored, nil
}

// ListTransactions returns the ledger expenses newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, ledgerID string) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, item, cost, quantity, created_at FROM ledger_expenses
		WHERE ledger_id = $1
		ORDER BY created_at DESC, id DESC
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		var (
			tx   domain.Transaction
			cost pgtype.Numeric
		)
		if err := rows.Scan(&tx.ID, &tx.Item, &cost, &tx.Quantity, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		tx.Cost = pgNumericToDecimal(cost)
		result = append(result, &tx)
	}
	return result, rows.Err()
}

// TotalExpenses sums cost * quantity in NUMERIC, so no precision is lost
func (r *LedgerRepository) TotalExpenses(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost * quantity), 0) FROM ledger_expenses WHERE ledger_id = $1`, ledgerID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return pgNumericToDecimal(total), nil
}

// Reset deletes the ledger budget and expenses atomically
func (r *LedgerRepository) Reset(ctx context.Context, ledgerID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_budgets WHERE ledger_id = $1`, ledgerID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ledger_expenses WHERE ledger_id = $1`, ledgerID); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return tx.Commit(ctx)
}
