package domain

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var ledgerIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// ValidateLedgerID checks that id can address a ledger
func ValidateLedgerID(id string) error {
	if !ledgerIDPattern.MatchString(id) {
		return ErrInvalidLedger
	}
	return nil
}

// Budget is the single spending limit of a ledger. Configured is false until
// the budget is set and again after a reset, so an explicit zero budget can be
// told apart from one that was never entered.
type Budget struct {
	Amount     decimal.Decimal `json:"amount"`
	Configured bool            `json:"configured"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Balance holds the aggregates derived from a ledger's budget and expenses.
// It is computed on every read and never stored.
type Balance struct {
	Budget        decimal.Decimal `json:"budget"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Remaining     decimal.Decimal `json:"remaining"`
	Percentage    decimal.Decimal `json:"percentage"`
	Configured    bool            `json:"configured"`
	OverBudget    bool            `json:"overBudget"`
}

var hundred = decimal.NewFromInt(100)

// NewBalance derives the aggregates for budget and total. Remaining may be
// negative; Percentage is clamped to [0, 100] and is zero without a positive budget.
func NewBalance(budget *Budget, total decimal.Decimal) *Balance {
	amount := decimal.Zero
	configured := false
	if budget != nil {
		amount = budget.Amount
		configured = budget.Configured
	}

	percentage := decimal.Zero
	if amount.IsPositive() {
		percentage = total.Div(amount).Mul(hundred)
		if percentage.GreaterThan(hundred) {
			percentage = hundred
		}
		if percentage.IsNegative() {
			percentage = decimal.Zero
		}
	}

	return &Balance{
		Budget:        amount,
		TotalExpenses: total,
		Remaining:     amount.Sub(total),
		Percentage:    percentage,
		Configured:    configured,
		OverBudget:    total.GreaterThan(amount),
	}
}

// LedgerRepository persists budgets and expense transactions per ledger.
// Implementations must make each method atomic with respect to the others.
type LedgerRepository interface {
	GetBudget(ctx context.Context, ledgerID string) (*Budget, error)
	SetBudget(ctx context.Context, ledgerID string, amount decimal.Decimal) (*Budget, error)
	AddTransaction(ctx context.Context, ledgerID string, tx *Transaction) (*Transaction, error)
	ListTransactions(ctx context.Context, ledgerID string) ([]*Transaction, error)
	TotalExpenses(ctx context.Context, ledgerID string) (decimal.Decimal, error)
	Reset(ctx context.Context, ledgerID string) error
}
