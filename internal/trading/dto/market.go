package dto

import "time"

// PriceBar is one daily OHLCV bar. Bars are immutable once fetched and are
// ordered ascending by date within a series.
type PriceBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// GetDailyBarsParam selects a daily bar series for one symbol.
type GetDailyBarsParam struct {
	Symbol       string
	LookbackDays int
}

// Quote is the latest traded price for a symbol.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	AsOf   time.Time `json:"as_of"`
}

// MarketSnapshot is everything the decision engine needs to know about the
// market for one run: per-symbol daily history, including the benchmark
// instrument. The engine never fetches data itself.
type MarketSnapshot struct {
	RunDate time.Time
	Bars    map[string][]PriceBar
}

// LastClose returns the most recent close for symbol, if present.
func (m *MarketSnapshot) LastClose(symbol string) (float64, bool) {
	bars, ok := m.Bars[symbol]
	if !ok || len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}

// IndicatorSnapshot holds the per-symbol indicator state for one trading
// day, computed deterministically from the trailing price window.
type IndicatorSnapshot struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	MACD          float64   `json:"macd"`
	MACDPrev      float64   `json:"macd_prev"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDHistogram float64   `json:"macd_histogram"`
	RSI           float64   `json:"rsi"`
	RSIPrev       float64   `json:"rsi_prev"`
	Momentum121   float64   `json:"momentum_12_1"`
	LastClose     float64   `json:"last_close"`
}
