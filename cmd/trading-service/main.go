package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"momentum-trader/internal/trading/config"
	"momentum-trader/internal/trading/delivery/consumer"
	delivery "momentum-trader/internal/trading/delivery/http"
	"momentum-trader/internal/trading/delivery/scheduler"
	_ "momentum-trader/internal/trading/docs"
	"momentum-trader/internal/trading/repository"
	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/common"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/postgres"
	"momentum-trader/pkg/redis"
	"momentum-trader/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the trading service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Trading Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the run stream consumer group, tolerating an existing one.
	if err := redisClient.XGroupCreateMkStream(ctx, common.RedisStreamAlgorithmRun, common.RedisStreamGroup, "0").Err(); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	// Initialize notifier
	notifier := telegram.NewNoopNotifier()
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	signalRepo := repository.NewDailySignalRepository(db.DB)
	tradeRepo := repository.NewTradeRepository(db.DB)
	positionRepo := repository.NewPositionRepository(db.DB)
	runRepo := repository.NewAlgorithmRunRepository(db.DB)
	snapshotRepo := repository.NewPortfolioSnapshotRepository(db.DB)
	marketData := repository.NewYahooFinanceRepository(cfg, appLogger)
	broker := repository.NewAlpacaRepository(cfg, appLogger)
	universe := repository.NewUniverseRepository(cfg, appLogger)

	// Initialize services
	recorder := service.NewRunRecorder(db.DB)
	algorithmSvc := service.NewAlgorithmService(cfg, appLogger, redisClient, marketData, broker, universe, positionRepo, runRepo, recorder, notifier)
	historySvc := service.NewHistoryService(redisClient, runRepo, signalRepo, tradeRepo, positionRepo, snapshotRepo, appLogger)

	// Start the run consumer
	runConsumer := consumer.NewRedisConsumer(cfg, redisClient, algorithmSvc, appLogger)
	runConsumer.Start(ctx)
	defer runConsumer.Stop()

	// Start the daily scheduler
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(cfg, redisClient, appLogger)
		if err != nil {
			appLogger.Fatal("Invalid scheduler configuration", logger.ErrorField(err))
		}
		go sched.Start(ctx)
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	runHandler := delivery.NewRunHandler(historySvc, appLogger)
	runHandler.RegisterRoutes(apiV1.Group("/runs"))

	signalHandler := delivery.NewSignalHandler(historySvc, appLogger)
	signalHandler.RegisterRoutes(apiV1.Group("/signals"))

	tradeHandler := delivery.NewTradeHandler(historySvc, appLogger)
	tradeHandler.RegisterRoutes(apiV1.Group("/trades"))

	portfolioHandler := delivery.NewPortfolioHandler(historySvc, broker, appLogger)
	portfolioHandler.RegisterRoutes(apiV1.Group("/portfolio"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Momentum Trader API
// @version 1.0
// @description Daily momentum trading algorithm service.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "trading-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing trading-service CLI: %s\n", err)
		os.Exit(1)
	}
}
