package config

import (
	"momentum-trader/pkg/config"
)

// Algorithm holds the decision-engine knobs. Defaults mirror the production
// strategy: 15 equal-weight slots, 7% stop loss, 5% cash buffer, top-30
// momentum with strict MACD+RSI filters.
type Algorithm struct {
	MaxPositions      int     `mapstructure:"max_positions"`
	StopLossPct       float64 `mapstructure:"stop_loss_pct"`
	CashBufferPct     float64 `mapstructure:"cash_buffer_pct"`
	TopMomentumCount  int     `mapstructure:"top_momentum_count"`
	MinHistoryDays    int     `mapstructure:"min_history_days"`
	RelaxedFilters    bool    `mapstructure:"relaxed_filters"`
	TradingEnabled    bool    `mapstructure:"trading_enabled"`
	AllowAfterHours   bool    `mapstructure:"allow_after_hours"`
	BenchmarkSymbol   string  `mapstructure:"benchmark_symbol"`
	CommissionPerUnit float64 `mapstructure:"commission_per_unit"`
}

// Normalize fills zero values with the strategy defaults.
func (a *Algorithm) Normalize() {
	if a.MaxPositions <= 0 {
		a.MaxPositions = 15
	}
	if a.StopLossPct <= 0 {
		a.StopLossPct = 0.07
	}
	if a.CashBufferPct <= 0 {
		a.CashBufferPct = 0.05
	}
	if a.TopMomentumCount <= 0 {
		a.TopMomentumCount = 30
	}
	if a.MinHistoryDays <= 0 {
		a.MinHistoryDays = 252
	}
	if a.BenchmarkSymbol == "" {
		a.BenchmarkSymbol = "SPY"
	}
}

// Alpaca holds the brokerage client configuration.
type Alpaca struct {
	APIKey              string `mapstructure:"api_key"`
	SecretKey           string `mapstructure:"secret_key"`
	BaseURL             string `mapstructure:"base_url"`
	ExtendedHours       bool   `mapstructure:"extended_hours"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// YahooFinance holds the market data client configuration.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	LookbackDays        int    `mapstructure:"lookback_days"`
	MaxConcurrentFetch  int    `mapstructure:"max_concurrent_fetch"`
}

// Universe holds the candidate-symbol source configuration.
type Universe struct {
	SourceURL string   `mapstructure:"source_url"`
	CacheTTL  string   `mapstructure:"cache_ttl"`
	Symbols   []string `mapstructure:"symbols"`
}

// Scheduler holds the daily trigger configuration.
type Scheduler struct {
	Enabled         bool   `mapstructure:"enabled"`
	CronExpression  string `mapstructure:"cron_expression"`
	PollingInterval string `mapstructure:"polling_interval"`
	RunTimeout      string `mapstructure:"run_timeout"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the trading service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Algorithm    Algorithm       `mapstructure:"algorithm"`
	Alpaca       Alpaca          `mapstructure:"alpaca"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Universe     Universe        `mapstructure:"universe"`
	Scheduler    Scheduler       `mapstructure:"scheduler"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

// Load loads the trading service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.Algorithm.Normalize()
	return &cfg, nil
}
