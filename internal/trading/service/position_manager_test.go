package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
)

var testRunDate = time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

func newTestManager() *PositionManager {
	return NewPositionManager(15, 0.07, NewCashAllocator(0.05, "SPY"))
}

func holding(symbol string, quantity int64, entryPrice float64) *entity.Position {
	return &entity.Position{
		Symbol:        symbol,
		Quantity:      quantity,
		AvgEntryPrice: entryPrice,
		EntryDate:     testRunDate.AddDate(0, -1, 0),
		CurrentPrice:  entryPrice,
	}
}

func rankWith(symbols ...string) *RankResult {
	result := &RankResult{}
	for i, symbol := range symbols {
		result.Top = append(result.Top, RankedSignal{
			Snapshot: snapshotWithMomentum(symbol, 1.0-float64(i)*0.01),
			Rank:     i + 1,
		})
		result.TopSymbols = append(result.TopSymbols, symbol)
	}
	return result
}

func TestStopLossBoundaryIsInclusive(t *testing.T) {
	manager := newTestManager()

	// 93.00 on a 100.00 entry is exactly a 7% loss and must exit
	state := newTestState(0, 100000, 0, 500)
	state.Positions["AAPL"] = holding("AAPL", 10, 100)

	intents, signals := manager.ProcessExits(state, rankWith("AAPL"), map[string]float64{"AAPL": 93.00}, testRunDate)

	require.Len(t, intents, 1)
	assert.Equal(t, dto.OrderSideSell, intents[0].Side)
	assert.Equal(t, int64(10), intents[0].Quantity)
	assert.Equal(t, entity.TradeReasonStopLoss, intents[0].Reason)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalActionSold, signals[0].ActionTaken)
	assert.Equal(t, stopLossStrength, signals[0].SignalStrength)
	assert.Empty(t, state.Positions)
	assert.Equal(t, 930.0, state.Cash)
}

func TestStopLossNotTriggeredJustAboveBoundary(t *testing.T) {
	manager := newTestManager()

	// 93.10 is a 6.9% loss, the position stays open
	state := newTestState(0, 100000, 0, 500)
	state.Positions["AAPL"] = holding("AAPL", 10, 100)

	intents, signals := manager.ProcessExits(state, rankWith("AAPL"), map[string]float64{"AAPL": 93.10}, testRunDate)

	assert.Empty(t, intents)
	assert.Empty(t, signals)
	assert.Contains(t, state.Positions, "AAPL")
}

func TestMomentumExitWhenDroppedFromTop(t *testing.T) {
	manager := newTestManager()

	state := newTestState(0, 100000, 0, 500)
	state.Positions["IBM"] = holding("IBM", 5, 100)

	intents, signals := manager.ProcessExits(state, rankWith("AAPL", "MSFT"), map[string]float64{"IBM": 120}, testRunDate)

	require.Len(t, intents, 1)
	assert.Equal(t, entity.TradeReasonMomentumExit, intents[0].Reason)
	require.Len(t, signals, 1)
	assert.Equal(t, momentumExitStrength, signals[0].SignalStrength)
	assert.Equal(t, 600.0, state.Cash)
}

func TestStopLossWinsOverMomentumExit(t *testing.T) {
	manager := newTestManager()

	state := newTestState(0, 100000, 0, 500)
	state.Positions["IBM"] = holding("IBM", 5, 100)

	intents, _ := manager.ProcessExits(state, rankWith("AAPL"), map[string]float64{"IBM": 90}, testRunDate)

	require.Len(t, intents, 1)
	assert.Equal(t, entity.TradeReasonStopLoss, intents[0].Reason)
}

func TestExitSkipsSymbolWithoutPrice(t *testing.T) {
	manager := newTestManager()

	state := newTestState(0, 100000, 0, 500)
	state.Positions["IBM"] = holding("IBM", 5, 100)

	intents, signals := manager.ProcessExits(state, rankWith("AAPL"), map[string]float64{}, testRunDate)

	assert.Empty(t, intents)
	assert.Empty(t, signals)
	assert.Contains(t, state.Positions, "IBM")
}

func rankWithCandidates(prices map[string]float64, symbols ...string) *RankResult {
	result := &RankResult{}
	for i, symbol := range symbols {
		snap := snapshotWithMomentum(symbol, 1.0-float64(i)*0.01)
		if price, ok := prices[symbol]; ok {
			snap.LastClose = price
		}
		ranked := RankedSignal{
			Snapshot:  snap,
			Rank:      i + 1,
			Strength:  1.0 - float64(i)*0.05,
			Candidate: true,
		}
		result.Top = append(result.Top, ranked)
		result.Candidates = append(result.Candidates, ranked)
		result.TopSymbols = append(result.TopSymbols, symbol)
	}
	return result
}

func TestEntrySizingIsEqualWeight(t *testing.T) {
	manager := newTestManager()

	state := newTestState(100000, 150000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"AAPL": 120}, "AAPL")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	require.Len(t, intents, 1)
	// floor(150000 / 15 / 120) = 83 shares
	assert.Equal(t, int64(83), intents[0].Quantity)
	assert.Equal(t, entity.TradeReasonAlgorithm, intents[0].Reason)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalActionBought, signals[0].ActionTaken)

	pos := state.Positions["AAPL"]
	require.NotNil(t, pos)
	assert.Equal(t, testRunDate, pos.EntryDate)
	assert.Equal(t, 120.0, pos.AvgEntryPrice)
	assert.InDelta(t, 100000-83*120, state.Cash, 1e-9)
}

func TestEntriesRespectPositionCap(t *testing.T) {
	manager := NewPositionManager(2, 0.07, NewCashAllocator(0.05, "SPY"))

	state := newTestState(150000, 100000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"A": 100, "B": 100, "C": 100}, "A", "B", "C")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	assert.Len(t, intents, 2)
	assert.Len(t, state.Positions, 2)

	var capped int
	for _, sig := range signals {
		if sig.Reason == ReasonMaxPositions {
			capped++
			assert.Equal(t, entity.SignalActionIgnored, sig.ActionTaken)
		}
	}
	assert.Equal(t, 1, capped)
}

func TestEntriesSkipHeldSymbols(t *testing.T) {
	manager := newTestManager()

	state := newTestState(100000, 150000, 0, 500)
	state.Positions["AAPL"] = holding("AAPL", 10, 100)
	rank := rankWithCandidates(map[string]float64{"AAPL": 120}, "AAPL")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	assert.Empty(t, intents)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalActionIgnored, signals[0].ActionTaken)
	assert.Equal(t, ReasonAlreadyHeld, signals[0].Reason)
	// the original entry is untouched
	assert.Equal(t, int64(10), state.Positions["AAPL"].Quantity)
}

func TestEntriesDecrementCashSequentially(t *testing.T) {
	manager := newTestManager()

	// per-position budget floor(60000/15) = 4000; only enough free cash
	// above the 3000 buffer for two entries
	state := newTestState(11000, 60000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"A": 100, "B": 100, "C": 100}, "A", "B", "C")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	assert.Len(t, intents, 2)
	require.Len(t, signals, 3)
	assert.Equal(t, entity.SignalActionBought, signals[0].ActionTaken)
	assert.Equal(t, entity.SignalActionBought, signals[1].ActionTaken)
	assert.Equal(t, entity.SignalActionInsufficientCash, signals[2].ActionTaken)
	assert.Equal(t, ReasonInsufficientCash, signals[2].Reason)
}

func TestEntryUnfundableAtBufferRecordsInsufficientCash(t *testing.T) {
	manager := newTestManager()

	// free cash is exactly zero and there are no benchmark shares to sell
	state := newTestState(2500, 50000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"AAPL": 100}, "AAPL")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	assert.Empty(t, intents)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalActionInsufficientCash, signals[0].ActionTaken)
	assert.Equal(t, ReasonInsufficientCash, signals[0].Reason)
	assert.InDelta(t, 2500, state.Cash, 1e-9)
}

func TestReentryAfterMomentumExitGetsFreshEntry(t *testing.T) {
	manager := newTestManager()

	state := newTestState(20000, 100000, 0, 500)
	state.Positions["IBM"] = holding("IBM", 5, 100)
	oldEntryDate := state.Positions["IBM"].EntryDate

	exitIntents, _ := manager.ProcessExits(state, rankWith("AAPL"), map[string]float64{"IBM": 120}, testRunDate)

	require.Len(t, exitIntents, 1)
	assert.Equal(t, entity.TradeReasonMomentumExit, exitIntents[0].Reason)
	assert.NotContains(t, state.Positions, "IBM")

	// the symbol climbs back into the candidates on a later run
	laterRunDate := testRunDate.AddDate(0, 0, 7)
	rank := rankWithCandidates(map[string]float64{"IBM": 130}, "IBM")

	entryIntents, entrySignals := manager.ProcessEntries(state, rank, laterRunDate)

	require.Len(t, entryIntents, 1)
	require.Len(t, entrySignals, 1)
	assert.Equal(t, entity.SignalActionBought, entrySignals[0].ActionTaken)

	pos := state.Positions["IBM"]
	require.NotNil(t, pos)
	assert.Equal(t, laterRunDate, pos.EntryDate)
	assert.InDelta(t, 130, pos.AvgEntryPrice, 1e-9)
	assert.NotEqual(t, oldEntryDate, pos.EntryDate)
}

func TestEntryTooExpensiveForOneShare(t *testing.T) {
	manager := newTestManager()

	state := newTestState(100000, 15000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"BRK": 5000}, "BRK")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	assert.Empty(t, intents)
	require.Len(t, signals, 1)
	assert.Equal(t, ReasonPositionTooSmall, signals[0].Reason)
}

func TestNonCandidateTopSymbolsRecordedAsIgnored(t *testing.T) {
	manager := newTestManager()

	state := newTestState(100000, 150000, 0, 500)
	rank := rankWithCandidates(map[string]float64{"AAPL": 120}, "AAPL")
	rank.Top = append(rank.Top, RankedSignal{
		Snapshot: snapshotWithMomentum("XOM", 0.2),
		Rank:     2,
	})
	rank.TopSymbols = append(rank.TopSymbols, "XOM")

	_, signals := manager.ProcessEntries(state, rank, testRunDate)

	require.Len(t, signals, 2)
	var ignored *entity.DailySignal
	for i := range signals {
		if signals[i].Symbol == "XOM" {
			ignored = &signals[i]
		}
	}
	require.NotNil(t, ignored)
	assert.Equal(t, entity.SignalActionIgnored, ignored.ActionTaken)
	assert.Equal(t, ReasonFiltersNotMet, ignored.Reason)
}

func TestEntryFundedByBenchmarkLiquidation(t *testing.T) {
	manager := newTestManager()

	// free cash is 0 (all at the buffer), funding must come from SPY
	state := newTestState(3000, 60000, 20, 500)
	rank := rankWithCandidates(map[string]float64{"A": 100}, "A")

	intents, signals := manager.ProcessEntries(state, rank, testRunDate)

	require.Len(t, intents, 2)
	assert.Equal(t, "SPY", intents[0].Symbol)
	assert.Equal(t, dto.OrderSideSell, intents[0].Side)
	assert.Equal(t, "A", intents[1].Symbol)
	assert.Equal(t, dto.OrderSideBuy, intents[1].Side)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalActionBought, signals[0].ActionTaken)
}

func TestManyEntriesKeepDeterministicOrder(t *testing.T) {
	manager := newTestManager()

	state := newTestState(2000000, 1500000, 0, 500)
	symbols := make([]string, 0, 10)
	prices := make(map[string]float64, 10)
	for i := 0; i < 10; i++ {
		symbol := fmt.Sprintf("SYM%02d", i)
		symbols = append(symbols, symbol)
		prices[symbol] = 100
	}
	rank := rankWithCandidates(prices, symbols...)

	intents, _ := manager.ProcessEntries(state, rank, testRunDate)

	require.Len(t, intents, 10)
	for i, intent := range intents {
		assert.Equal(t, symbols[i], intent.Symbol, "entries follow candidate order")
	}
}
