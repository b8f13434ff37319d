package repository

import (
	"context"
	"time"

	"momentum-trader/internal/entity"

	"gorm.io/gorm"
)

// DailySignalRepository reads recorded signals. Writes go through the run
// recorder so a run lands in a single transaction.
type DailySignalRepository interface {
	GetByDate(ctx context.Context, date time.Time) ([]entity.DailySignal, error)
}

type dailySignalRepository struct {
	db *gorm.DB
}

func NewDailySignalRepository(db *gorm.DB) DailySignalRepository {
	return &dailySignalRepository{db: db}
}

func (r *dailySignalRepository) GetByDate(ctx context.Context, date time.Time) ([]entity.DailySignal, error) {
	var signals []entity.DailySignal
	if err := r.db.WithContext(ctx).
		Where("signal_date = ?", date).
		Order("signal_strength DESC").
		Find(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}
