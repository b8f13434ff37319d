package entity

import "time"

const (
	TradeActionBuy  = "BUY"
	TradeActionSell = "SELL"
)

// Why a trade happened.
const (
	TradeReasonAlgorithm      = "algorithm"
	TradeReasonStopLoss       = "stop_loss"
	TradeReasonMomentumExit   = "momentum_exit"
	TradeReasonCashForTrade   = "cash_for_trade"
	TradeReasonBenchmarkSweep = "benchmark_sweep"
)

// Trade is an append-only audit record of one executed order.
type Trade struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TradeDate      time.Time `gorm:"not null;index" json:"trade_date"`
	Symbol         string    `gorm:"not null;size:10" json:"symbol"`
	Action         string    `gorm:"not null;size:4" json:"action"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	Price          float64   `gorm:"not null" json:"price"`
	EntryPrice     *float64  `json:"entry_price,omitempty"`
	SignalStrength *float64  `json:"signal_strength,omitempty"`
	Reason         string    `gorm:"size:50" json:"reason"`
	PnL            *float64  `gorm:"column:pnl" json:"pnl,omitempty"`
	Commission     float64   `gorm:"default:0" json:"commission"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}
