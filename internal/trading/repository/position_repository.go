package repository

import (
	"context"

	"momentum-trader/internal/entity"

	"gorm.io/gorm"
)

// PositionRepository reads tracked open positions. The run recorder owns
// the upserts and deletes.
type PositionRepository interface {
	GetAll(ctx context.Context) ([]entity.Position, error)
}

type positionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) GetAll(ctx context.Context) ([]entity.Position, error) {
	var positions []entity.Position
	if err := r.db.WithContext(ctx).Order("symbol ASC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
