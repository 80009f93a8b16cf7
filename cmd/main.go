package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"volos-codex/internal/ai"
	"volos-codex/internal/config"
	"volos-codex/internal/logger"
	"volos-codex/internal/telemetry"
	"volos-codex/middleware"
	"volos-codex/routes"
	"volos-codex/services"
)

const serviceName = "volos-codex"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTLPEndpoint, 1.0)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	embedder, err := ai.NewEmbedder(context.Background(), cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}

	geminiClient, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTier, metrics)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	cache := services.NewPageCache(services.NewRedisStore(rdb), cfg.PageCacheTTL)
	extractor := services.NewPDFExtractor(services.NewLedongthucSource(), cache, logger.Logger, metrics)
	index := services.NewBookIndex(extractor, embedder, services.BookIndexOptions{
		CorpusCandidates: cfg.CorpusCandidates(),
		Concurrency:      cfg.IndexConcurrency,
		Logger:           logger.Logger,
		Metrics:          metrics,
	})
	search := services.NewBookSearch(index, cfg.SearchTopK, logger.Logger, metrics)
	questions := services.NewQuestionHandler(search, services.NewPromptBuilder(cfg.AnswerLanguage), geminiClient, logger.Logger)

	warmer := services.NewCacheWarmer(extractor, cfg.CorpusCandidates(), cfg.CacheWarmInterval, cfg.IndexTimeout, logger.Logger)
	if cfg.CacheWarmInterval > 0 {
		if err := warmer.Start(); err != nil {
			logger.Error("failed to start cache warmer", "error", err)
		} else {
			defer warmer.Stop()
		}
	}

	// Build the index in the background so the first question does not pay for it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.IndexTimeout)
		defer cancel()
		if err := index.EnsureIndexed(ctx); err != nil {
			logger.Error("initial indexing failed", "error", err)
		}
	}()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(logger.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.TracingMiddleware(serviceName))
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitReqs, time.Duration(cfg.RateLimitWindow)*time.Second))

	routes.SetupQuestionRoutes(router, &routes.Handlers{
		Answerer: questions,
		Searcher: search,
		Index:    index,
		Timeout:  cfg.IndexTimeout,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
