package entity

import "time"

// Position is an open holding. A row exists only while quantity is
// positive; a full exit deletes it instead of zeroing it out.
type Position struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Symbol        string    `gorm:"not null;uniqueIndex;size:10" json:"symbol"`
	Quantity      int64     `gorm:"not null" json:"quantity"`
	AvgEntryPrice float64   `gorm:"not null" json:"avg_entry_price"`
	EntryDate     time.Time `gorm:"not null" json:"entry_date"`
	CurrentPrice  float64   `json:"current_price"`
	UnrealizedPnL float64   `gorm:"column:unrealized_pnl" json:"unrealized_pnl"`
	LastUpdated   time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}

func (Position) TableName() string {
	return "positions"
}
