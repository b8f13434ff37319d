package entity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunStatusSuccess   = "success"
	RunStatusError     = "error"
	RunStatusNoSignals = "no_signals"
	RunStatusSkipped   = "skipped"
)

// AlgorithmRun summarizes one daily run. run_date is unique: the same date
// can never be executed twice.
type AlgorithmRun struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	RunDate              time.Time      `gorm:"not null;uniqueIndex" json:"run_date"`
	Status               string         `gorm:"not null;size:20" json:"status"`
	SignalsGenerated     int            `gorm:"default:0" json:"signals_generated"`
	TradesExecuted       int            `gorm:"default:0" json:"trades_executed"`
	ErrorMessage         string         `json:"error_message,omitempty"`
	ExecutionTimeSeconds int            `json:"execution_time_seconds"`
	TopMomentumStocks    datatypes.JSON `gorm:"type:jsonb" json:"top_momentum_stocks"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AlgorithmRun) TableName() string {
	return "algorithm_runs"
}
