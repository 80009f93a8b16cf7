package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"volos-codex/internal/config"
	"volos-codex/internal/logger"
	"volos-codex/internal/queue"
	"volos-codex/internal/telemetry"
	"volos-codex/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	cache := services.NewPageCache(services.NewRedisStore(rdb), cfg.PageCacheTTL)
	extractor := services.NewPDFExtractor(services.NewLedongthucSource(), cache, logger.Logger, metrics)
	warmer := services.NewCacheWarmer(extractor, cfg.CorpusCandidates(), cfg.CacheWarmInterval, cfg.IndexTimeout, logger.Logger)

	redisOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		log.Fatal("Failed to build Redis options:", err)
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.IndexConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(extractor, warmer)

	mux := asynq.NewServeMux()
	processor.Register(mux)

	logger.Info("starting asynq worker",
		"concurrency", cfg.IndexConcurrency,
		"queues", "critical(6), default(3), low(1)",
	)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
