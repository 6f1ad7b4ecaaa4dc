package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"8500", "$8,500.00"},
		{"10100.5", "$10,100.50"},
		{"0.005", "$0.01"},
		{"-150.25", "-$150.25"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, USD(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestLedgerEntryAmount(t *testing.T) {
	buy := LedgerEntry{Shares: 10, Price: decimal.RequireFromString("150.00")}
	sell := LedgerEntry{Shares: -10, Price: decimal.RequireFromString("160.00")}

	assert.True(t, buy.Amount().Equal(decimal.RequireFromString("1500")))
	assert.True(t, sell.Amount().Equal(decimal.RequireFromString("-1600")))
}

func TestStartingCash(t *testing.T) {
	assert.Equal(t, "10000.00", StartingCash.StringFixed(2))
}
