package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Cents rounds d to currency precision.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// USD formats d the way the UI shows money, e.g. "$1,234.50".
func USD(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), money.USD).Display()
}
