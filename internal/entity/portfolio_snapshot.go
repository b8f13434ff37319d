package entity

import "time"

// PortfolioSnapshot captures end-of-run portfolio state, including the
// benchmark holding used by the cash sweep.
type PortfolioSnapshot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SnapshotDate    time.Time `gorm:"not null;uniqueIndex" json:"snapshot_date"`
	TotalValue      float64   `gorm:"not null" json:"total_value"`
	CashBalance     float64   `gorm:"not null" json:"cash_balance"`
	StockValue      float64   `gorm:"not null" json:"stock_value"`
	BenchmarkShares int64     `gorm:"default:0" json:"benchmark_shares"`
	BenchmarkValue  float64   `gorm:"default:0" json:"benchmark_value"`
	NumPositions    int       `gorm:"default:0" json:"num_positions"`
	DailyPnL        *float64  `gorm:"column:daily_pnl" json:"daily_pnl,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PortfolioSnapshot) TableName() string {
	return "portfolio_snapshots"
}
