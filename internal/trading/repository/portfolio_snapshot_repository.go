package repository

import (
	"context"

	"momentum-trader/internal/entity"

	"gorm.io/gorm"
)

// PortfolioSnapshotRepository reads end-of-run snapshots. Writes go
// through the run recorder.
type PortfolioSnapshotRepository interface {
	GetRecent(ctx context.Context, limit int) ([]entity.PortfolioSnapshot, error)
}

type portfolioSnapshotRepository struct {
	db *gorm.DB
}

func NewPortfolioSnapshotRepository(db *gorm.DB) PortfolioSnapshotRepository {
	return &portfolioSnapshotRepository{db: db}
}

func (r *portfolioSnapshotRepository) GetRecent(ctx context.Context, limit int) ([]entity.PortfolioSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	var snapshots []entity.PortfolioSnapshot
	if err := r.db.WithContext(ctx).
		Order("snapshot_date DESC").
		Limit(limit).
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
