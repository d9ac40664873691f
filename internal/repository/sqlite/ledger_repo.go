package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// LedgerRepository implements domain.LedgerRepository on a SQLite file.
// Amounts are stored as decimal text and timestamps as unix nanoseconds.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository opens (creating if needed) the database at dbPath and migrates it
func NewLedgerRepository(dbPath string) (*LedgerRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection serialises all statements.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("SQLite ledger store ready")

	return &LedgerRepository{db: db}, nil
}

// Close closes the database
func (r *LedgerRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetBudget returns the ledger budget, zero-valued when none is stored
func (r *LedgerRepository) GetBudget(ctx context.Context, ledgerID string) (*domain.Budget, error) {
	var (
		amount     string
		configured bool
		updatedAt  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT amount, configured, updated_at FROM budgets WHERE ledger_id = ?`, ledgerID,
	).Scan(&amount, &configured, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Budget{Amount: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse stored budget %q: %w", amount, err)
	}
	return &domain.Budget{
		Amount:     d,
		Configured: configured,
		UpdatedAt:  time.Unix(0, updatedAt),
	}, nil
}

// SetBudget upserts the ledger budget
func (r *LedgerRepository) SetBudget(ctx context.Context, ledgerID string, amount decimal.Decimal) (*domain.Budget, error) {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (ledger_id, amount, configured, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(ledger_id) DO UPDATE SET amount = excluded.amount, configured = 1, updated_at = excluded.updated_at
	`, ledgerID, amount.String(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}
	return &domain.Budget{Amount: amount, Configured: true, UpdatedAt: now}, nil
}

// AddTransaction inserts tx and adds its line total to the ledger's running
// total in the same transaction.
func (r *LedgerRepository) AddTransaction(ctx context.Context, ledgerID string, tx *domain.Transaction) (*domain.Transaction, error) {
	stored := *tx
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`INSERT INTO expenses (ledger_id, item, cost, quantity, created_at) VALUES (?, ?, ?, ?, ?)`,
		ledgerID, stored.Item, stored.Cost.String(), stored.Quantity, stored.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read expense id: %w", err)
	}

	total, err := readTotal(ctx, dbTx, ledgerID)
	if err != nil {
		return nil, err
	}
	total = total.Add(stored.LineTotal())
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO ledger_totals (ledger_id, total) VALUES (?, ?)
		ON CONFLICT(ledger_id) DO UPDATE SET total = excluded.total
	`, ledgerID, total.String())
	if err != nil {
		return nil, fmt.Errorf("update total: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expense: %w", err)
	}
	stored.ID = id
	return &stored, nil
}

// ListTransactions returns the ledger expenses newest first
func (r *LedgerRepository) ListTransactions(ctx context.Context, ledgerID string) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item, cost, quantity, created_at FROM expenses
		WHERE ledger_id = ?
		ORDER BY created_at DESC, id DESC
	`, ledgerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		var (
			tx        domain.Transaction
			cost      string
			createdAt int64
		)
		if err := rows.Scan(&tx.ID, &tx.Item, &cost, &tx.Quantity, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		tx.Cost, err = decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("parse stored cost %q: %w", cost, err)
		}
		tx.CreatedAt = time.Unix(0, createdAt)
		result = append(result, &tx)
	}
	return result, rows.Err()
}

// TotalExpenses returns the stored running total. Totals are kept as
// decimal text; SQLite SUM would go through floating point.
func (r *LedgerRepository) TotalExpenses(ctx context.Context, ledgerID string) (decimal.Decimal, error) {
	return readTotal(ctx, r.db, ledgerID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readTotal(ctx context.Context, q queryRower, ledgerID string) (decimal.Decimal, error) {
	var total string
	err := q.QueryRowContext(ctx, `SELECT total FROM ledger_totals WHERE ledger_id = ?`, ledgerID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read total: %w", err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored total %q: %w", total, err)
	}
	return d, nil
}

// Reset deletes the ledger budget, expenses and running total in one transaction
func (r *LedgerRepository) Reset(ctx context.Context, ledgerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE ledger_id = ?`, ledgerID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE ledger_id = ?`, ledgerID); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_totals WHERE ledger_id = ?`, ledgerID); err != nil {
		return fmt.Errorf("delete total: %w", err)
	}
	return tx.Commit()
}
