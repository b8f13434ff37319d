package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/dto"
	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/common"
	"momentum-trader/pkg/logger"
	pkgRedis "momentum-trader/pkg/redis"
	"momentum-trader/pkg/utils"
)

const defaultRunTimeout = 30 * time.Minute

// RedisConsumer reads run tasks from the algorithm run stream and executes
// them one at a time.
type RedisConsumer struct {
	cfg         *config.Config
	redisClient *pkgRedis.Client
	algorithm   service.AlgorithmService
	logger      *logger.Logger
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(cfg *config.Config, redisClient *pkgRedis.Client, algorithm service.AlgorithmService, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:         cfg,
		redisClient: redisClient,
		algorithm:   algorithm,
		logger:      log,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the consumer's task processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started", logger.StringField("stream", common.RedisStreamAlgorithmRun))

	timeout := defaultRunTimeout
	if d, err := time.ParseDuration(c.cfg.Scheduler.RunTimeout); err == nil && d > 0 {
		timeout = d
	}

	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				runCtx, cancel := context.WithTimeout(ctx, timeout)
				c.processTask(runCtx)
				cancel()
			}
		}
	})
}

// processTask reads at most one task from the stream and runs it.
func (c *RedisConsumer) processTask(ctx context.Context) {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamAlgorithmRun, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded || err == redis.Nil {
			return
		}
		c.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer c.ack(ctx, message.ID)

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		c.logger.Error("field 'payload' not found or not a string in stream message",
			logger.StringField("message_id", message.ID))
		return
	}

	var payload dto.RunTaskPayload
	if err := json.Unmarshal([]byte(taskData), &payload); err != nil {
		c.logger.Error("Failed to unmarshal run task", logger.ErrorField(err),
			logger.StringField("message_id", message.ID))
		return
	}

	runDate, err := utils.ParseRunDate(payload.RunDate)
	if err != nil {
		c.logger.Error("Invalid run date in task", logger.ErrorField(err),
			logger.StringField("run_date", payload.RunDate))
		return
	}

	if _, err := c.algorithm.Run(ctx, runDate); err != nil {
		c.logger.Error("Algorithm run failed", logger.ErrorField(err),
			logger.StringField("run_date", payload.RunDate))
	}
}

func (c *RedisConsumer) ack(ctx context.Context, messageID string) {
	if err := c.redisClient.XAck(ctx, common.RedisStreamAlgorithmRun, common.RedisStreamGroup, messageID).Err(); err != nil {
		c.logger.Error("Failed to acknowledge message", logger.ErrorField(err),
			logger.StringField("message_id", messageID))
	}
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
