package repository

import (
	"context"
	"errors"
	"time"

	"momentum-trader/internal/entity"

	"gorm.io/gorm"
)

// AlgorithmRunRepository reads run history. The run row itself is written
// by the run recorder.
type AlgorithmRunRepository interface {
	GetByDate(ctx context.Context, date time.Time) (*entity.AlgorithmRun, error)
	GetRecent(ctx context.Context, limit int) ([]entity.AlgorithmRun, error)
}

type algorithmRunRepository struct {
	db *gorm.DB
}

func NewAlgorithmRunRepository(db *gorm.DB) AlgorithmRunRepository {
	return &algorithmRunRepository{db: db}
}

// GetByDate returns nil without error when no run exists for the date.
func (r *algorithmRunRepository) GetByDate(ctx context.Context, date time.Time) (*entity.AlgorithmRun, error) {
	var run entity.AlgorithmRun
	err := r.db.WithContext(ctx).Where("run_date = ?", date).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *algorithmRunRepository) GetRecent(ctx context.Context, limit int) ([]entity.AlgorithmRun, error) {
	if limit <= 0 {
		limit = 30
	}
	var runs []entity.AlgorithmRun
	if err := r.db.WithContext(ctx).
		Order("run_date DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
