package service

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"momentum-trader/internal/entity"
)

// RunRecord is everything a finished run writes to the database.
type RunRecord struct {
	Run             *entity.AlgorithmRun
	Signals         []entity.DailySignal
	Trades          []entity.Trade
	PositionUpserts []entity.Position
	PositionDeletes []string
	Snapshot        *entity.PortfolioSnapshot
}

// RunRecorder persists a run atomically. Either the whole record lands or
// none of it does, so a crash mid-write can never leave a run half
// recorded.
type RunRecorder interface {
	Record(ctx context.Context, record *RunRecord) error
}

type runRecorder struct {
	db *gorm.DB
}

func NewRunRecorder(db *gorm.DB) RunRecorder {
	return &runRecorder{db: db}
}

func (r *runRecorder) Record(ctx context.Context, record *RunRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if record.Run != nil {
			if err := tx.Create(record.Run).Error; err != nil {
				return err
			}
		}
		if len(record.Signals) > 0 {
			if err := tx.Create(&record.Signals).Error; err != nil {
				return err
			}
		}
		if len(record.Trades) > 0 {
			if err := tx.Create(&record.Trades).Error; err != nil {
				return err
			}
		}
		for i := range record.PositionUpserts {
			pos := &record.PositionUpserts[i]
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "symbol"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"quantity", "avg_entry_price", "entry_date", "current_price", "unrealized_pnl", "last_updated",
				}),
			}).Create(pos).Error
			if err != nil {
				return err
			}
		}
		if len(record.PositionDeletes) > 0 {
			if err := tx.Where("symbol IN ?", record.PositionDeletes).Delete(&entity.Position{}).Error; err != nil {
				return err
			}
		}
		if record.Snapshot != nil {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "snapshot_date"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"total_value", "cash_balance", "stock_value", "benchmark_shares", "benchmark_value", "num_positions", "daily_pnl",
				}),
			}).Create(record.Snapshot).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
