package service

import (
	"fmt"

	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/utils"
)

const (
	macdFastSpan = 12
	macdSlowSpan = 26
	macdSignal   = 9
	rsiPeriod    = 14

	// Trading-day offsets for the 12-1 momentum windows.
	momentumLongDays  = 252
	momentumShortDays = 21
)

// IndicatorEngine converts daily price history into MACD, RSI and 12-1
// momentum snapshots. All computation is deterministic; a given bar series
// always yields the same snapshot.
type IndicatorEngine struct {
	minHistoryDays int
}

// NewIndicatorEngine creates an indicator engine. Symbols with fewer than
// minHistoryDays bars are rejected rather than zero-filled.
func NewIndicatorEngine(minHistoryDays int) *IndicatorEngine {
	if minHistoryDays <= 0 {
		minHistoryDays = momentumLongDays
	}
	return &IndicatorEngine{minHistoryDays: minHistoryDays}
}

// ComputeSnapshot computes the indicator state for the latest bar of the
// series. Bars must be ascending by date.
func (e *IndicatorEngine) ComputeSnapshot(symbol string, bars []dto.PriceBar) (*dto.IndicatorSnapshot, error) {
	if len(bars) < e.minHistoryDays {
		return nil, &dto.DataUnavailableError{
			Symbol: symbol,
			Reason: fmt.Sprintf("%d bars, need %d", len(bars), e.minHistoryDays),
		}
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	macdLine, signalLine := macdSeries(closes)
	rsi := rsiSeries(closes)

	last := len(closes) - 1
	snapshot := &dto.IndicatorSnapshot{
		Symbol:        symbol,
		Date:          bars[last].Date,
		MACD:          macdLine[last],
		MACDPrev:      macdLine[last-1],
		MACDSignal:    signalLine[last],
		MACDHistogram: macdLine[last] - signalLine[last],
		RSI:           utils.Round2(rsi[last]),
		RSIPrev:       utils.Round2(rsi[last-1]),
		Momentum121:   momentum121(closes),
		LastClose:     closes[last],
	}

	return snapshot, nil
}

// ema computes a recursive exponential moving average with the given span,
// seeded with the first value.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// macdSeries returns the MACD line (EMA12 - EMA26) and its 9-period signal
// line. The reported macd value is the line, not the histogram; the
// histogram is derived where needed.
func macdSeries(closes []float64) (macdLine, signalLine []float64) {
	fast := ema(closes, macdFastSpan)
	slow := ema(closes, macdSlowSpan)

	macdLine = make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fast[i] - slow[i]
	}

	signalLine = ema(macdLine, macdSignal)
	return macdLine, signalLine
}

// rsiSeries computes the Wilder-smoothed 14-period RSI. Values before the
// warmup window are 0; with a 252-bar minimum history they are never read.
func rsiSeries(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) <= rsiPeriod {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= rsiPeriod; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= rsiPeriod
	avgLoss /= rsiPeriod
	out[rsiPeriod] = rsiFromAverages(avgGain, avgLoss)

	for i := rsiPeriod + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(rsiPeriod-1) + gain) / rsiPeriod
		avgLoss = (avgLoss*(rsiPeriod-1) + loss) / rsiPeriod
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return utils.Clamp(100-100/(1+rs), 0, 100)
}

// momentum121 is the trailing 12-month return minus the trailing 1-month
// return, sampled at trading-day offsets.
func momentum121(closes []float64) float64 {
	last := len(closes) - 1

	longIdx := last - momentumLongDays
	if longIdx < 0 {
		longIdx = 0
	}
	shortIdx := last - momentumShortDays
	if shortIdx < 0 {
		shortIdx = last
	}

	current := closes[last]
	return12m := (current - closes[longIdx]) / closes[longIdx]
	return1m := (current - closes[shortIdx]) / closes[shortIdx]

	return return12m - return1m
}
