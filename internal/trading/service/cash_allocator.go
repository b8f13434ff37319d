package service

import (
	"math"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/utils"
)

// CashAllocator sweeps idle cash into the benchmark instrument and
// liquidates benchmark shares on demand to fund new entries. It never lets
// cash drop below the configured buffer.
type CashAllocator struct {
	bufferPct       float64
	benchmarkSymbol string
}

// NewCashAllocator creates an allocator with the given buffer fraction of
// portfolio value (default 5%).
func NewCashAllocator(bufferPct float64, benchmarkSymbol string) *CashAllocator {
	if bufferPct <= 0 {
		bufferPct = 0.05
	}
	return &CashAllocator{bufferPct: bufferPct, benchmarkSymbol: benchmarkSymbol}
}

// Buffer is the minimum cash retained, as a fraction of portfolio value.
func (c *CashAllocator) Buffer(state *PortfolioState) float64 {
	return c.bufferPct * state.PortfolioValue
}

// FreeCash is the cash available above the buffer.
func (c *CashAllocator) FreeCash(state *PortfolioState) float64 {
	return state.Cash - c.Buffer(state)
}

// EnsureFunds makes `needed` available above the buffer, selling just enough
// whole benchmark shares (rounded up) to cover any shortfall. It returns the
// liquidation intents and whether the entry can proceed. When benchmark
// holdings cannot cover the shortfall nothing is sold and ok is false.
func (c *CashAllocator) EnsureFunds(state *PortfolioState, needed float64) (intents []dto.OrderIntent, ok bool) {
	free := c.FreeCash(state)
	if free >= needed {
		return nil, true
	}

	shortfall := needed - free
	if state.BenchmarkPrice <= 0 || state.BenchmarkShares <= 0 {
		return nil, false
	}

	shares := int64(math.Ceil(shortfall / state.BenchmarkPrice))
	if shares > state.BenchmarkShares {
		return nil, false
	}

	proceeds := float64(shares) * state.BenchmarkPrice
	state.Cash += proceeds
	state.BenchmarkShares -= shares

	return []dto.OrderIntent{{
		Symbol:   c.benchmarkSymbol,
		Side:     dto.OrderSideSell,
		Quantity: shares,
		Price:    utils.Round4(state.BenchmarkPrice),
		Reason:   entity.TradeReasonCashForTrade,
	}}, true
}

// SweepExcess invests free cash above the buffer into whole benchmark
// shares; any remainder stays as cash. Returns nil when there is nothing to
// sweep.
func (c *CashAllocator) SweepExcess(state *PortfolioState) *dto.OrderIntent {
	if state.BenchmarkPrice <= 0 {
		return nil
	}

	excess := c.FreeCash(state)
	if excess < state.BenchmarkPrice {
		return nil
	}

	shares := int64(math.Floor(excess / state.BenchmarkPrice))
	if shares <= 0 {
		return nil
	}

	cost := float64(shares) * state.BenchmarkPrice
	state.Cash -= cost
	state.BenchmarkShares += shares

	return &dto.OrderIntent{
		Symbol:   c.benchmarkSymbol,
		Side:     dto.OrderSideBuy,
		Quantity: shares,
		Price:    utils.Round4(state.BenchmarkPrice),
		Reason:   entity.TradeReasonBenchmarkSweep,
	}
}
