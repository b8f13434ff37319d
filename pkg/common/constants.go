package common

const (
	RedisStreamAlgorithmRun = "trading.algorithm.run"

	RedisStreamGroup    = "trading-group"
	RedisStreamConsumer = "trading-consumer"

	// Per-date run lock, %s = run date (YYYY-MM-DD).
	RedisKeyRunLock = "trading:run_lock:%s"
)
