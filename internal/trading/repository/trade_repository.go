package repository

import (
	"context"
	"time"

	"momentum-trader/internal/entity"

	"gorm.io/gorm"
)

// TradeRepository reads the trade audit log. Writes go through the run
// recorder.
type TradeRepository interface {
	GetByDate(ctx context.Context, date time.Time) ([]entity.Trade, error)
	GetRecent(ctx context.Context, limit int) ([]entity.Trade, error)
}

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) GetByDate(ctx context.Context, date time.Time) ([]entity.Trade, error) {
	var trades []entity.Trade
	if err := r.db.WithContext(ctx).
		Where("trade_date = ?", date).
		Order("id ASC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) GetRecent(ctx context.Context, limit int) ([]entity.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	var trades []entity.Trade
	if err := r.db.WithContext(ctx).
		Order("trade_date DESC, id DESC").
		Limit(limit).
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}
