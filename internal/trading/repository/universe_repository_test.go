package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTickers(t *testing.T) {
	sanitized := sanitizeTickers([]string{" aapl ", "BRK.B", "aapl", "", "msft"})

	assert.Equal(t, []string{"AAPL", "BRK-B", "MSFT"}, sanitized)
}

func TestFallbackTickersAreClean(t *testing.T) {
	tickers := fallbackTickers()

	assert.NotEmpty(t, tickers)
	// the fallback is already sanitized, sanitizing again is a no-op
	assert.Equal(t, tickers, sanitizeTickers(tickers))
}
