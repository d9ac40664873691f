package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the aggregate view of a ledger as computed by the store
type Balance struct {
	Budget        decimal.Decimal `json:"budget"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Remaining     decimal.Decimal `json:"remaining"`
	Percentage    decimal.Decimal `json:"percentage"`
	Configured    bool            `json:"configured"`
	OverBudget    bool            `json:"over_budget"`
}

// Expense is one transaction as listed by the store
type Expense struct {
	ID        int64           `json:"id"`
	Item      string          `json:"item"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int32           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Date      time.Time       `json:"date"`
}

// Store is the ledger operation surface the session talks to
type Store interface {
	GetBalance(ctx context.Context) (*Balance, error)
	ListExpenses(ctx context.Context) ([]Expense, error)
	AddExpense(ctx context.Context, item, cost, quantity string) error
	SetBudget(ctx context.Context, amount string) error
	Reset(ctx context.Context) error
}

// Client-side errors
var (
	ErrMissingField      = errors.New("required field is empty")
	ErrCancelUnavailable = errors.New("budget setup cannot be cancelled")
	ErrSetupRequired     = errors.New("set an initial budget first")
	ErrInvalidTransition = errors.New("action not available in the current mode")
)

// FieldError is one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when the store rejects user input
type ValidationError struct {
	Detail string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return strings.Join(parts, "; ")
}

// TransportError is returned when the store could not be reached or answered
// with something other than a result or a validation problem.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: store responded %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a TransportError
func IsTransport(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
