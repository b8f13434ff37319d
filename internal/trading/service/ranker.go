package service

import (
	"sort"

	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/utils"
)

// Composite strength weights: momentum rank 40%, MACD 30%, RSI 30%.
const (
	weightMomentum = 0.4
	weightMACD     = 0.3
	weightRSI      = 0.3
)

// RankedSignal is one top-momentum symbol with its filter flags and
// composite signal strength.
type RankedSignal struct {
	Snapshot    dto.IndicatorSnapshot
	Rank        int
	Strength    float64
	MACDBullish bool
	RSIBullish  bool
	Candidate   bool
}

// RankResult is the ranker output for one run.
type RankResult struct {
	// Top holds the top-k symbols in rank order (rank 1 first).
	Top []RankedSignal
	// Candidates holds the entry candidates ordered by descending
	// strength, rank ascending on ties.
	Candidates []RankedSignal
	// TopSymbols lists the top-k symbols in rank order, for the run audit
	// record.
	TopSymbols []string
}

// InTop reports whether symbol is in the current top-momentum set.
func (r *RankResult) InTop(symbol string) bool {
	for _, s := range r.TopSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// SignalRanker selects the top-N symbols by 12-1 momentum and scores them.
type SignalRanker struct {
	topCount       int
	relaxedFilters bool
}

// NewSignalRanker creates a ranker. relaxedFilters admits a candidate when
// either MACD or RSI is bullish instead of requiring both.
func NewSignalRanker(topCount int, relaxedFilters bool) *SignalRanker {
	if topCount <= 0 {
		topCount = 30
	}
	return &SignalRanker{topCount: topCount, relaxedFilters: relaxedFilters}
}

// Rank orders the snapshots by momentum, assigns ranks 1..k to the top
// topCount symbols and computes flags and composite strength for each.
func (r *SignalRanker) Rank(snapshots []dto.IndicatorSnapshot) RankResult {
	sorted := make([]dto.IndicatorSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Momentum121 != sorted[j].Momentum121 {
			return sorted[i].Momentum121 > sorted[j].Momentum121
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	k := r.topCount
	if len(sorted) < k {
		k = len(sorted)
	}

	result := RankResult{
		Top:        make([]RankedSignal, 0, k),
		TopSymbols: make([]string, 0, k),
	}

	for i := 0; i < k; i++ {
		snapshot := sorted[i]
		ranked := RankedSignal{
			Snapshot:    snapshot,
			Rank:        i + 1,
			MACDBullish: macdBullish(snapshot),
			RSIBullish:  rsiBullish(snapshot),
		}
		ranked.Strength = r.strength(ranked)

		if r.relaxedFilters {
			ranked.Candidate = ranked.MACDBullish || ranked.RSIBullish
		} else {
			ranked.Candidate = ranked.MACDBullish && ranked.RSIBullish
		}

		result.Top = append(result.Top, ranked)
		result.TopSymbols = append(result.TopSymbols, snapshot.Symbol)
		if ranked.Candidate {
			result.Candidates = append(result.Candidates, ranked)
		}
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		if result.Candidates[i].Strength != result.Candidates[j].Strength {
			return result.Candidates[i].Strength > result.Candidates[j].Strength
		}
		return result.Candidates[i].Rank < result.Candidates[j].Rank
	})

	return result
}

// macdBullish: zero-line crossover, or positive and rising.
func macdBullish(s dto.IndicatorSnapshot) bool {
	crossover := s.MACD > 0 && s.MACDPrev <= 0
	rising := s.MACD > s.MACDPrev && s.MACD > 0
	return crossover || rising
}

// rsiBullish: cross above 50, or bounce out of oversold territory.
func rsiBullish(s dto.IndicatorSnapshot) bool {
	momentum := s.RSI > 50 && s.RSIPrev <= 50
	oversoldBounce := s.RSI > 30 && s.RSIPrev <= 30
	return momentum || oversoldBounce
}

// strength blends the momentum rank with monotone, bounded normalizations
// of the MACD line and RSI level, rounded to 4 decimal places.
func (r *SignalRanker) strength(ranked RankedSignal) float64 {
	rankComponent := float64(r.topCount+1-ranked.Rank) / float64(r.topCount)
	macdComponent := utils.Clamp(ranked.Snapshot.MACD/2, 0, 1)
	rsiComponent := utils.Clamp((ranked.Snapshot.RSI-50)/50, 0, 1)

	strength := weightMomentum*rankComponent + weightMACD*macdComponent + weightRSI*rsiComponent
	return utils.Round4(utils.Clamp(strength, 0, 1))
}
