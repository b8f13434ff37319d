package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"momentum-trader/internal/entity"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/internal/trading/repository"
	"momentum-trader/pkg/common"
	"momentum-trader/pkg/logger"
	pkgRedis "momentum-trader/pkg/redis"
	"momentum-trader/pkg/utils"
)

// HistoryService serves the read side of the API: past runs, signals,
// trades, open positions and portfolio snapshots. It also publishes manual
// run triggers to the run stream.
type HistoryService interface {
	TriggerRun(ctx context.Context, runDate time.Time) error
	GetRun(ctx context.Context, runDate time.Time) (*dto.RunSummary, error)
	GetRecentRuns(ctx context.Context, limit int) ([]dto.RunSummary, error)
	GetSignals(ctx context.Context, date time.Time) ([]entity.DailySignal, error)
	GetTrades(ctx context.Context, date time.Time) ([]entity.Trade, error)
	GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error)
	GetPositions(ctx context.Context) ([]entity.Position, error)
	GetSnapshots(ctx context.Context, limit int) ([]entity.PortfolioSnapshot, error)
}

type historyService struct {
	redisClient  *pkgRedis.Client
	runRepo      repository.AlgorithmRunRepository
	signalRepo   repository.DailySignalRepository
	tradeRepo    repository.TradeRepository
	positionRepo repository.PositionRepository
	snapshotRepo repository.PortfolioSnapshotRepository
	logger       *logger.Logger
}

func NewHistoryService(
	redisClient *pkgRedis.Client,
	runRepo repository.AlgorithmRunRepository,
	signalRepo repository.DailySignalRepository,
	tradeRepo repository.TradeRepository,
	positionRepo repository.PositionRepository,
	snapshotRepo repository.PortfolioSnapshotRepository,
	log *logger.Logger,
) HistoryService {
	return &historyService{
		redisClient:  redisClient,
		runRepo:      runRepo,
		signalRepo:   signalRepo,
		tradeRepo:    tradeRepo,
		positionRepo: positionRepo,
		snapshotRepo: snapshotRepo,
		logger:       log,
	}
}

// TriggerRun publishes a run task for the given date. The consumer picks it
// up like a scheduled run, so the same idempotency rules apply.
func (s *historyService) TriggerRun(ctx context.Context, runDate time.Time) error {
	payload, err := json.Marshal(dto.RunTaskPayload{RunDate: utils.FormatRunDate(runDate)})
	if err != nil {
		return err
	}
	if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamAlgorithmRun,
		Values: map[string]interface{}{"payload": payload},
	}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue run task: %w", err)
	}
	s.logger.InfoContext(ctx, "manual run trigger published",
		logger.StringField("run_date", utils.FormatRunDate(runDate)))
	return nil
}

func (s *historyService) GetRun(ctx context.Context, runDate time.Time) (*dto.RunSummary, error) {
	run, err := s.runRepo.GetByDate(ctx, runDate)
	if err != nil || run == nil {
		return nil, err
	}
	return summaryFromRun(run), nil
}

func (s *historyService) GetRecentRuns(ctx context.Context, limit int) ([]dto.RunSummary, error) {
	runs, err := s.runRepo.GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.RunSummary, 0, len(runs))
	for i := range runs {
		summaries = append(summaries, *summaryFromRun(&runs[i]))
	}
	return summaries, nil
}

func (s *historyService) GetSignals(ctx context.Context, date time.Time) ([]entity.DailySignal, error) {
	return s.signalRepo.GetByDate(ctx, date)
}

func (s *historyService) GetTrades(ctx context.Context, date time.Time) ([]entity.Trade, error) {
	return s.tradeRepo.GetByDate(ctx, date)
}

func (s *historyService) GetRecentTrades(ctx context.Context, limit int) ([]entity.Trade, error) {
	return s.tradeRepo.GetRecent(ctx, limit)
}

func (s *historyService) GetPositions(ctx context.Context) ([]entity.Position, error) {
	return s.positionRepo.GetAll(ctx)
}

func (s *historyService) GetSnapshots(ctx context.Context, limit int) ([]entity.PortfolioSnapshot, error) {
	return s.snapshotRepo.GetRecent(ctx, limit)
}
