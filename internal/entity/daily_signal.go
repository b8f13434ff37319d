package entity

import "time"

// Action recorded on a signal after the decision pass has resolved it.
const (
	SignalActionBought           = "bought"
	SignalActionSold             = "sold"
	SignalActionIgnored          = "ignored"
	SignalActionInsufficientCash = "insufficient_cash"
	SignalActionTradingDisabled  = "trading_disabled"
	SignalActionOrderFailed      = "order_failed"
)

// DailySignal is one generated signal for one symbol on one run date. Rows
// are written once at the end of a run and never mutated.
type DailySignal struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SignalDate     time.Time `gorm:"not null;index" json:"signal_date"`
	Symbol         string    `gorm:"not null;size:10" json:"symbol"`
	SignalStrength float64   `gorm:"not null" json:"signal_strength"`
	MomentumRank   *int      `json:"momentum_rank"`
	MomentumValue  float64   `json:"momentum_value"`
	MACDValue      float64   `gorm:"column:macd_value" json:"macd_value"`
	RSIValue       float64   `gorm:"column:rsi_value" json:"rsi_value"`
	IsTopMomentum  bool      `gorm:"not null;default:false" json:"is_top_momentum"`
	MACDBullish    bool      `gorm:"column:macd_bullish;not null;default:false" json:"macd_bullish"`
	RSIBullish     bool      `gorm:"column:rsi_bullish;not null;default:false" json:"rsi_bullish"`
	ActionTaken    string    `gorm:"size:20" json:"action_taken"`
	Reason         string    `gorm:"size:50" json:"reason,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailySignal) TableName() string {
	return "daily_signals"
}
