package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/pkg/common"
	"momentum-trader/pkg/logger"
	pkgRedis "momentum-trader/pkg/redis"
	"momentum-trader/pkg/utils"
)

const defaultPollingInterval = 30 * time.Second

// Scheduler publishes one run task per trading day at the configured cron
// time. The task is consumed by the stream consumer; the per-date run lock
// makes a duplicate publish harmless.
type Scheduler struct {
	cfg         *config.Config
	redisClient *pkgRedis.Client
	logger      *logger.Logger
	cronParser  cron.Parser
	nextRun     time.Time
}

// NewScheduler creates a scheduler from the configured cron expression.
func NewScheduler(cfg *config.Config, redisClient *pkgRedis.Client, log *logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cfg.Scheduler.CronExpression); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:         cfg,
		redisClient: redisClient,
		logger:      log,
		cronParser:  parser,
	}, nil
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	interval := defaultPollingInterval
	if d, err := time.ParseDuration(s.cfg.Scheduler.PollingInterval); err == nil && d > 0 {
		interval = d
	}

	schedule, err := s.cronParser.Parse(s.cfg.Scheduler.CronExpression)
	if err != nil {
		s.logger.Error("Invalid cron expression", logger.ErrorField(err))
		return
	}
	s.nextRun = schedule.Next(utils.TimeNowNY())

	s.logger.Info("Scheduler started",
		logger.StringField("cron", s.cfg.Scheduler.CronExpression),
		logger.Field("next_run", s.nextRun))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping")
			return
		case <-ticker.C:
			now := utils.TimeNowNY()
			if now.Before(s.nextRun) {
				continue
			}
			s.publishRun(ctx, now)
			s.nextRun = schedule.Next(now)
			s.logger.Info("Next run scheduled", logger.Field("next_run", s.nextRun))
		}
	}
}

func (s *Scheduler) publishRun(ctx context.Context, now time.Time) {
	payload, err := json.Marshal(dto.RunTaskPayload{RunDate: utils.FormatRunDate(now)})
	if err != nil {
		s.logger.Error("Failed to marshal run task payload", logger.ErrorField(err))
		return
	}

	if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamAlgorithmRun,
		Values: map[string]interface{}{"payload": payload},
	}).Err(); err != nil {
		s.logger.Error("Failed to enqueue run task", logger.ErrorField(err))
		return
	}

	s.logger.Info("Run task published", logger.StringField("run_date", utils.FormatRunDate(now)))
}
