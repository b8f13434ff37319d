package service

import (
	"sort"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
)

// PortfolioState is the mutable shared state of one decision pass: cash and
// positions are read-modify-written only here, in a single sequential walk.
type PortfolioState struct {
	Cash            float64
	PortfolioValue  float64
	Positions       map[string]*entity.Position
	BenchmarkShares int64
	BenchmarkPrice  float64
}

// NewPortfolioState builds the pass state from the broker account snapshot.
// A holding in the benchmark symbol is tracked separately from stock
// positions so the sweep logic can trade it.
func NewPortfolioState(account *dto.AccountSnapshot, benchmarkSymbol string, benchmarkPrice float64) *PortfolioState {
	state := &PortfolioState{
		Cash:           account.Cash,
		PortfolioValue: account.PortfolioValue,
		Positions:      make(map[string]*entity.Position, len(account.Positions)),
		BenchmarkPrice: benchmarkPrice,
	}

	for i := range account.Positions {
		position := account.Positions[i]
		if position.Symbol == benchmarkSymbol {
			state.BenchmarkShares = position.Quantity
			continue
		}
		if position.Quantity <= 0 {
			continue
		}
		state.Positions[position.Symbol] = &position
	}

	return state
}

// HeldSymbols returns the held stock symbols in deterministic order.
func (s *PortfolioState) HeldSymbols() []string {
	symbols := make([]string, 0, len(s.Positions))
	for symbol := range s.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
