package service

import (
	"math"
	"time"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/utils"
)

// Signal strengths stamped on exit decisions. Stop losses outrank momentum
// exits so downstream consumers can order exits by urgency.
const (
	stopLossStrength     = 1.0
	momentumExitStrength = 0.8
)

// Ignore reasons recorded on signals that generated no order.
const (
	ReasonAlreadyHeld      = "already_held"
	ReasonMaxPositions     = "max_positions_reached"
	ReasonPositionTooSmall = "position_too_small"
	ReasonFiltersNotMet    = "filters_not_met"
	ReasonInsufficientCash = "insufficient_cash"
)

// PositionManager decides exits and entries against an in-memory portfolio
// state. It mutates the state as it goes so later decisions see the cash and
// positions left by earlier ones, and returns the orders plus the signal
// rows describing every decision it made.
type PositionManager struct {
	maxPositions int
	stopLossPct  float64
	allocator    *CashAllocator
}

func NewPositionManager(maxPositions int, stopLossPct float64, allocator *CashAllocator) *PositionManager {
	if maxPositions <= 0 {
		maxPositions = 15
	}
	if stopLossPct <= 0 {
		stopLossPct = 0.07
	}
	return &PositionManager{
		maxPositions: maxPositions,
		stopLossPct:  stopLossPct,
		allocator:    allocator,
	}
}

// ProcessExits closes positions that hit the stop loss or dropped out of the
// top momentum set. Stop loss is checked first and wins when both apply.
// Positions without a current price are left untouched. Proceeds are
// credited to state cash immediately.
func (m *PositionManager) ProcessExits(state *PortfolioState, rank *RankResult, prices map[string]float64, runDate time.Time) ([]dto.OrderIntent, []entity.DailySignal) {
	var (
		intents []dto.OrderIntent
		signals []entity.DailySignal
	)

	ranked := rankedBySymbol(rank)

	for _, symbol := range state.HeldSymbols() {
		pos := state.Positions[symbol]
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}

		var (
			reason   string
			strength float64
		)
		lossPct := (pos.AvgEntryPrice - price) / pos.AvgEntryPrice
		switch {
		case lossPct >= m.stopLossPct:
			reason = entity.TradeReasonStopLoss
			strength = stopLossStrength
		case !rank.InTop(symbol):
			reason = entity.TradeReasonMomentumExit
			strength = momentumExitStrength
		default:
			continue
		}

		intents = append(intents, dto.OrderIntent{
			Symbol:         symbol,
			Side:           dto.OrderSideSell,
			Quantity:       pos.Quantity,
			Price:          utils.Round4(price),
			Reason:         reason,
			SignalStrength: utils.ToPointer(strength),
			EntryPrice:     utils.ToPointer(pos.AvgEntryPrice),
			EntryDate:      pos.EntryDate,
		})

		sig := signalFor(runDate, symbol, ranked)
		sig.SignalStrength = strength
		sig.ActionTaken = entity.SignalActionSold
		sig.Reason = reason
		signals = append(signals, sig)

		state.Cash += float64(pos.Quantity) * price
		delete(state.Positions, symbol)
	}

	return intents, signals
}

// ProcessEntries walks the entry candidates in descending strength and buys
// until cash or the position cap runs out. Each buy decrements state cash so
// the next candidate sees what is actually left. Benchmark liquidations
// needed to fund a buy are interleaved ahead of it in the intent stream.
// Top-ranked symbols that never became candidates are recorded as ignored.
func (m *PositionManager) ProcessEntries(state *PortfolioState, rank *RankResult, runDate time.Time) ([]dto.OrderIntent, []entity.DailySignal) {
	var (
		intents []dto.OrderIntent
		signals []entity.DailySignal
	)

	perPosition := state.PortfolioValue / float64(m.maxPositions)

	decided := make(map[string]bool, len(rank.Candidates))
	for _, cand := range rank.Candidates {
		symbol := cand.Snapshot.Symbol
		decided[symbol] = true

		sig := signalFromRanked(runDate, cand)

		if _, held := state.Positions[symbol]; held {
			sig.ActionTaken = entity.SignalActionIgnored
			sig.Reason = ReasonAlreadyHeld
			signals = append(signals, sig)
			continue
		}
		if len(state.Positions) >= m.maxPositions {
			sig.ActionTaken = entity.SignalActionIgnored
			sig.Reason = ReasonMaxPositions
			signals = append(signals, sig)
			continue
		}

		price := cand.Snapshot.LastClose
		qty := int64(math.Floor(perPosition / price))
		if qty < 1 {
			sig.ActionTaken = entity.SignalActionIgnored
			sig.Reason = ReasonPositionTooSmall
			signals = append(signals, sig)
			continue
		}

		cost := float64(qty) * price
		funding, ok := m.allocator.EnsureFunds(state, cost)
		if !ok {
			sig.ActionTaken = entity.SignalActionInsufficientCash
			sig.Reason = ReasonInsufficientCash
			signals = append(signals, sig)
			continue
		}
		intents = append(intents, funding...)

		intents = append(intents, dto.OrderIntent{
			Symbol:         symbol,
			Side:           dto.OrderSideBuy,
			Quantity:       qty,
			Price:          utils.Round4(price),
			Reason:         entity.TradeReasonAlgorithm,
			SignalStrength: utils.ToPointer(cand.Strength),
			EntryDate:      runDate,
		})

		state.Cash -= cost
		state.Positions[symbol] = &entity.Position{
			Symbol:        symbol,
			Quantity:      qty,
			AvgEntryPrice: price,
			EntryDate:     runDate,
			CurrentPrice:  price,
		}

		sig.ActionTaken = entity.SignalActionBought
		sig.Reason = entity.TradeReasonAlgorithm
		signals = append(signals, sig)
	}

	for _, top := range rank.Top {
		if decided[top.Snapshot.Symbol] {
			continue
		}
		sig := signalFromRanked(runDate, top)
		sig.ActionTaken = entity.SignalActionIgnored
		sig.Reason = ReasonFiltersNotMet
		signals = append(signals, sig)
	}

	return intents, signals
}

func rankedBySymbol(r *RankResult) map[string]RankedSignal {
	out := make(map[string]RankedSignal, len(r.Top))
	for _, rs := range r.Top {
		out[rs.Snapshot.Symbol] = rs
	}
	return out
}

func signalFromRanked(runDate time.Time, rs RankedSignal) entity.DailySignal {
	return entity.DailySignal{
		SignalDate:     runDate,
		Symbol:         rs.Snapshot.Symbol,
		SignalStrength: rs.Strength,
		MomentumRank:   utils.ToPointer(rs.Rank),
		MomentumValue:  utils.Round4(rs.Snapshot.Momentum121),
		MACDValue:      utils.Round4(rs.Snapshot.MACD),
		RSIValue:       rs.Snapshot.RSI,
		IsTopMomentum:  true,
		MACDBullish:    rs.MACDBullish,
		RSIBullish:     rs.RSIBullish,
	}
}

// signalFor builds an exit signal, carrying indicator values when the
// symbol is still in the ranked set and a bare row when it is not.
func signalFor(runDate time.Time, symbol string, ranked map[string]RankedSignal) entity.DailySignal {
	if rs, ok := ranked[symbol]; ok {
		return signalFromRanked(runDate, rs)
	}
	return entity.DailySignal{
		SignalDate: runDate,
		Symbol:     symbol,
	}
}
