package execution

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourorg/paper-broker/internal/domain"
)

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// parseShares accepts base-10 integers of at least one share.
func parseShares(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return 0, domain.ErrInvalidShares
	}
	return n, nil
}

// parseAmount accepts positive amounts with at most cent precision, no
// larger than domain.MaxCash.
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() || !d.Equal(d.Round(2)) || d.GreaterThan(domain.MaxCash) {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}
