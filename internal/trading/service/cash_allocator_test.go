package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
)

func newTestState(cash, portfolioValue float64, benchmarkShares int64, benchmarkPrice float64) *PortfolioState {
	return &PortfolioState{
		Cash:            cash,
		PortfolioValue:  portfolioValue,
		Positions:       map[string]*entity.Position{},
		BenchmarkShares: benchmarkShares,
		BenchmarkPrice:  benchmarkPrice,
	}
}

func TestEnsureFundsNoSaleWhenFreeCashCovers(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	state := newTestState(10000, 50000, 20, 500)

	intents, ok := allocator.EnsureFunds(state, 7000)

	require.True(t, ok)
	assert.Empty(t, intents)
	assert.Equal(t, 10000.0, state.Cash)
	assert.Equal(t, int64(20), state.BenchmarkShares)
}

func TestEnsureFundsLiquidatesJustEnoughBenchmark(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	// buffer is 2500, free cash 500, shortfall 2000 at 500/share -> 4 shares
	state := newTestState(3000, 50000, 20, 500)

	intents, ok := allocator.EnsureFunds(state, 2500)

	require.True(t, ok)
	require.Len(t, intents, 1)
	assert.Equal(t, "SPY", intents[0].Symbol)
	assert.Equal(t, dto.OrderSideSell, intents[0].Side)
	assert.Equal(t, int64(4), intents[0].Quantity)
	assert.Equal(t, entity.TradeReasonCashForTrade, intents[0].Reason)

	assert.Equal(t, 5000.0, state.Cash)
	assert.Equal(t, int64(16), state.BenchmarkShares)
	// the entry this funded still leaves the buffer intact
	assert.GreaterOrEqual(t, state.Cash-2500, allocator.Buffer(state))
}

func TestEnsureFundsFailsWithoutSellingWhenHoldingsShort(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	state := newTestState(3000, 50000, 2, 500)

	intents, ok := allocator.EnsureFunds(state, 2500)

	assert.False(t, ok)
	assert.Empty(t, intents)
	// nothing sold, state untouched
	assert.Equal(t, 3000.0, state.Cash)
	assert.Equal(t, int64(2), state.BenchmarkShares)
}

func TestEnsureFundsFailsWithoutBenchmarkHolding(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	state := newTestState(1000, 50000, 0, 500)

	_, ok := allocator.EnsureFunds(state, 2000)

	assert.False(t, ok)
}

func TestSweepExcessBuysWholeShares(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	// buffer 2500, excess 500 at 200/share -> 2 shares, 100 stays cash
	state := newTestState(3000, 50000, 0, 200)

	intent := allocator.SweepExcess(state)

	require.NotNil(t, intent)
	assert.Equal(t, dto.OrderSideBuy, intent.Side)
	assert.Equal(t, int64(2), intent.Quantity)
	assert.Equal(t, entity.TradeReasonBenchmarkSweep, intent.Reason)
	assert.Equal(t, 2600.0, state.Cash)
	assert.Equal(t, int64(2), state.BenchmarkShares)
}

func TestSweepExcessSkipsSubShareExcess(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	state := newTestState(2600, 50000, 0, 200)

	assert.Nil(t, allocator.SweepExcess(state))
	assert.Equal(t, 2600.0, state.Cash)
}

func TestSweepExcessNeverBreachesBuffer(t *testing.T) {
	allocator := NewCashAllocator(0.05, "SPY")
	state := newTestState(9871.23, 50000, 0, 333.33)

	allocator.SweepExcess(state)

	assert.GreaterOrEqual(t, state.Cash, allocator.Buffer(state))
}
