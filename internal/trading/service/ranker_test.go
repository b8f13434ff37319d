package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentum-trader/internal/trading/dto"
)

func snapshotWithMomentum(symbol string, momentum float64) dto.IndicatorSnapshot {
	return dto.IndicatorSnapshot{
		Symbol:      symbol,
		Momentum121: momentum,
		MACD:        1.0,
		MACDPrev:    0.5,
		RSI:         60,
		RSIPrev:     45,
		LastClose:   100,
	}
}

func TestRankOrdersByMomentumDescending(t *testing.T) {
	ranker := NewSignalRanker(3, false)

	result := ranker.Rank([]dto.IndicatorSnapshot{
		snapshotWithMomentum("LOW", 0.1),
		snapshotWithMomentum("HIGH", 0.9),
		snapshotWithMomentum("MID", 0.5),
		snapshotWithMomentum("OUT", 0.05),
	})

	assert.Equal(t, []string{"HIGH", "MID", "LOW"}, result.TopSymbols)
	require.Len(t, result.Top, 3)
	for i, ranked := range result.Top {
		assert.Equal(t, i+1, ranked.Rank)
	}
	assert.True(t, result.InTop("MID"))
	assert.False(t, result.InTop("OUT"))
}

func TestRankBreaksMomentumTiesBySymbol(t *testing.T) {
	ranker := NewSignalRanker(30, false)

	result := ranker.Rank([]dto.IndicatorSnapshot{
		snapshotWithMomentum("ZTS", 0.5),
		snapshotWithMomentum("AAPL", 0.5),
	})

	assert.Equal(t, []string{"AAPL", "ZTS"}, result.TopSymbols)
}

func TestRankIsDeterministic(t *testing.T) {
	ranker := NewSignalRanker(10, false)

	snapshots := make([]dto.IndicatorSnapshot, 0, 20)
	for i := 0; i < 20; i++ {
		snapshots = append(snapshots, snapshotWithMomentum(fmt.Sprintf("SYM%02d", i), float64(i%7)/10))
	}

	first := ranker.Rank(snapshots)
	second := ranker.Rank(snapshots)

	assert.Equal(t, first.TopSymbols, second.TopSymbols)
	assert.Equal(t, first.Candidates, second.Candidates)
}

func TestStrengthComposition(t *testing.T) {
	ranker := NewSignalRanker(30, false)

	snapshot := snapshotWithMomentum("AAPL", 0.9)
	snapshot.MACD = 5 // clamps to 1.0
	snapshot.RSI = 80 // (80-50)/50 = 0.6

	result := ranker.Rank([]dto.IndicatorSnapshot{snapshot})
	require.Len(t, result.Top, 1)

	// rank 1 of 30: 0.4*1 + 0.3*1 + 0.3*0.6
	assert.InDelta(t, 0.88, result.Top[0].Strength, 1e-9)
	assert.GreaterOrEqual(t, result.Top[0].Strength, 0.0)
	assert.LessOrEqual(t, result.Top[0].Strength, 1.0)
}

func TestStrictFiltersRequireBothIndicators(t *testing.T) {
	ranker := NewSignalRanker(30, false)

	macdOnly := snapshotWithMomentum("MACD", 0.5)
	macdOnly.RSI = 40
	macdOnly.RSIPrev = 45

	both := snapshotWithMomentum("BOTH", 0.4)

	result := ranker.Rank([]dto.IndicatorSnapshot{macdOnly, both})

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "BOTH", result.Candidates[0].Snapshot.Symbol)
}

func TestRelaxedFiltersAdmitEitherIndicator(t *testing.T) {
	ranker := NewSignalRanker(30, true)

	macdOnly := snapshotWithMomentum("MACD", 0.5)
	macdOnly.RSI = 40
	macdOnly.RSIPrev = 45

	neither := snapshotWithMomentum("NONE", 0.3)
	neither.MACD = -1
	neither.MACDPrev = -0.5
	neither.RSI = 40
	neither.RSIPrev = 45

	result := ranker.Rank([]dto.IndicatorSnapshot{macdOnly, neither})

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "MACD", result.Candidates[0].Snapshot.Symbol)
}

func TestCandidatesOrderedByStrength(t *testing.T) {
	ranker := NewSignalRanker(30, false)

	weak := snapshotWithMomentum("WEAK", 0.9)
	weak.MACD = 0.1
	weak.MACDPrev = 0.05
	weak.RSI = 51
	weak.RSIPrev = 49

	strong := snapshotWithMomentum("STRONG", 0.1)
	strong.MACD = 5
	strong.RSI = 95
	strong.RSIPrev = 45

	result := ranker.Rank([]dto.IndicatorSnapshot{weak, strong})
	require.Len(t, result.Candidates, 2)

	// WEAK ranks first on momentum but STRONG scores higher overall
	assert.Equal(t, "WEAK", result.TopSymbols[0])
	assert.Equal(t, "STRONG", result.Candidates[0].Snapshot.Symbol)
	assert.Greater(t, result.Candidates[0].Strength, result.Candidates[1].Strength)
}
