package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Transaction is one recorded expense. It is immutable once stored.
type Transaction struct {
	ID        int64           `json:"id"`
	Item      string          `json:"item"`
	Cost      decimal.Decimal `json:"cost"`
	Quantity  int32           `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

// LineTotal returns Cost * Quantity
func (t *Transaction) LineTotal() decimal.Decimal {
	return t.Cost.Mul(decimal.NewFromInt32(t.Quantity))
}

// ExpenseInput is the raw, unvalidated form of an expense write.
// Cost and Quantity hold the text the user entered.
type ExpenseInput struct {
	Item     string
	Cost     string
	Quantity string
}

// Validate parses the input into a new Transaction without an ID or timestamp.
func (in ExpenseInput) Validate() (*Transaction, error) {
	item := strings.TrimSpace(in.Item)
	if item == "" {
		return nil, NewValidationError("item", "Item is required")
	}
	if utf8.RuneCountInString(item) > MaxItemLength {
		return nil, NewValidationError("item", "Item exceeds maximum length")
	}

	cost, err := ParseAmount(in.Cost)
	if err != nil {
		return nil, NewValidationError("cost", "Cost must be a valid decimal number")
	}
	// Stored amounts carry two decimal places; a cost that rounds to zero is free.
	cost = cost.Round(2)
	if !cost.IsPositive() {
		return nil, NewValidationError("cost", "Cost must be greater than zero")
	}

	quantity := int64(1)
	if q := strings.TrimSpace(in.Quantity); q != "" {
		quantity, err = strconv.ParseInt(q, 10, 32)
		if err != nil {
			return nil, NewValidationError("quantity", "Quantity must be a whole number")
		}
		if quantity <= 0 {
			return nil, NewValidationError("quantity", "Quantity must be at least 1")
		}
		if quantity > MaxQuantity {
			return nil, NewValidationError("quantity", "Quantity is too large")
		}
	}

	return &Transaction{
		Item:     item,
		Cost:     cost,
		Quantity: int32(quantity),
	}, nil
}

// ParseAmount parses user-entered money text such as "4.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidInput
	}
	return decimal.NewFromString(s)
}

// ParseBudgetAmount validates a budget amount; it must be zero or positive.
func ParseBudgetAmount(s string) (decimal.Decimal, error) {
	amount, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", "Amount must be a valid decimal number")
	}
	if amount.IsNegative() {
		return decimal.Zero, NewValidationError("amount", "Amount must be zero or positive")
	}
	return amount.Round(2), nil
}
