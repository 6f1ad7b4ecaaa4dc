package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/paper-broker/internal/domain"
)

func TestParseShares(t *testing.T) {
	n, err := parseShares(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	for _, raw := range []string{"", "0", "-1", "2.0", "1e3", "99999999999999999999"} {
		_, err := parseShares(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidShares, raw)
	}
}

func TestParseAmount(t *testing.T) {
	for _, raw := range []string{"1", "0.01", "250.5", "1000.00", "999999999999.99"} {
		_, err := parseAmount(raw)
		assert.NoError(t, err, raw)
	}
	for _, raw := range []string{"", "0", "0.00", "-1", "0.001", "ten", "1000000000000", "1e20"} {
		_, err := parseAmount(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, raw)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", normalizeSymbol("  aapl\t"))
}
