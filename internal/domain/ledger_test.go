package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewBalance(t *testing.T) {
	tests := []struct {
		name       string
		budget     *Budget
		total      string
		remaining  string
		percentage string
		overBudget bool
	}{
		{"never configured", nil, "0", "0.00", "0.00", false},
		{"under budget", &Budget{Amount: decimal.NewFromInt(200), Configured: true}, "50", "150.00", "25.00", false},
		{"exactly spent", &Budget{Amount: decimal.NewFromInt(100), Configured: true}, "100", "0.00", "100.00", false},
		{"overspent", &Budget{Amount: decimal.NewFromInt(100), Configured: true}, "120", "-20.00", "100.00", true},
		{"zero budget with spend", &Budget{Amount: decimal.Zero, Configured: true}, "10", "-10.00", "0.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBalance(tt.budget, decimal.RequireFromString(tt.total))
			assert.Equal(t, tt.remaining, b.Remaining.StringFixed(2))
			assert.Equal(t, tt.percentage, b.Percentage.StringFixed(2))
			assert.Equal(t, tt.overBudget, b.OverBudget)
		})
	}
}

func TestNewBalance_ConfiguredFlag(t *testing.T) {
	assert.False(t, NewBalance(nil, decimal.Zero).Configured)
	assert.False(t, NewBalance(&Budget{}, decimal.Zero).Configured)
	assert.True(t, NewBalance(&Budget{Configured: true}, decimal.Zero).Configured)
}
