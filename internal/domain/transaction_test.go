package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseInput_Validate_DefaultsQuantity(t *testing.T) {
	tx, err := ExpenseInput{Item: "Coffee", Cost: "4.50"}.Validate()

	require.NoError(t, err)
	assert.Equal(t, "Coffee", tx.Item)
	assert.Equal(t, "4.50", tx.Cost.StringFixed(2))
	assert.Equal(t, int32(1), tx.Quantity)
}

func TestExpenseInput_Validate_TrimsItem(t *testing.T) {
	tx, err := ExpenseInput{Item: "  Lunch  ", Cost: "12", Quantity: "2"}.Validate()

	require.NoError(t, err)
	assert.Equal(t, "Lunch", tx.Item)
	assert.Equal(t, int32(2), tx.Quantity)
	assert.Equal(t, "24.00", tx.LineTotal().StringFixed(2))
}

func TestExpenseInput_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input ExpenseInput
		field string
	}{
		{"empty item", ExpenseInput{Item: "", Cost: "5"}, "item"},
		{"blank item", ExpenseInput{Item: "   ", Cost: "5"}, "item"},
		{"empty cost", ExpenseInput{Item: "Tea", Cost: ""}, "cost"},
		{"non-numeric cost", ExpenseInput{Item: "Tea", Cost: "abc"}, "cost"},
		{"zero cost", ExpenseInput{Item: "Tea", Cost: "0"}, "cost"},
		{"negative cost", ExpenseInput{Item: "Tea", Cost: "-1.25"}, "cost"},
		{"sub-cent cost", ExpenseInput{Item: "Gum", Cost: "0.001"}, "cost"},
		{"cost rounding to zero", ExpenseInput{Item: "Gum", Cost: "0.004"}, "cost"},
		{"fractional quantity", ExpenseInput{Item: "Tea", Cost: "1", Quantity: "1.5"}, "quantity"},
		{"zero quantity", ExpenseInput{Item: "Tea", Cost: "1", Quantity: "0"}, "quantity"},
		{"huge quantity", ExpenseInput{Item: "Tea", Cost: "1", Quantity: "1000001"}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseBudgetAmount(t *testing.T) {
	amount, err := ParseBudgetAmount("500")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(500)))

	amount, err = ParseBudgetAmount("0")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	_, err = ParseBudgetAmount("-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseBudgetAmount("lots")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateLedgerID(t *testing.T) {
	assert.NoError(t, ValidateLedgerID("default"))
	assert.NoError(t, ValidateLedgerID("household-2026"))
	assert.ErrorIs(t, ValidateLedgerID(""), ErrInvalidLedger)
	assert.ErrorIs(t, ValidateLedgerID("Bad Ledger"), ErrInvalidLedger)
	assert.ErrorIs(t, ValidateLedgerID("-leading"), ErrInvalidLedger)
}
