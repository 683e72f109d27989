// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"conversation-insights/internal/config"
	"conversation-insights/internal/domain/ports/adapter"
	aiAdapters "conversation-insights/internal/infra/adapters/ai"
	pg "conversation-insights/internal/infra/db/postgres"
	"conversation-insights/internal/infra/logging"
	"conversation-insights/internal/infra/metrics"
	red "conversation-insights/internal/infra/redis"
	"conversation-insights/internal/infra/web"
	"conversation-insights/internal/infra/worker"
	"conversation-insights/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema")
	}

	// ---- Redis (only needed for ingestion rate limiting) ----
	var rateLimiter *red.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	}

	// ---- Repositories ----
	convRepo := pg.NewConversationRepo(pool)
	insightRepo := pg.NewInsightRepo(pool)
	cacheRepo := pg.NewAnalysisCacheRepo(pool)
	eventRepo := pg.NewProcessingLogRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Analysis client ----
	var analyzer adapter.Analyzer
	switch strings.ToLower(cfg.Analysis.Mode) {
	case "real":
		analyzer = aiAdapters.NewOpenAIAnalyzer(cfg.Analysis, logger)
		logger.Info().Str("base_url", cfg.Analysis.BaseURL).Str("model", cfg.Analysis.Model).Msg("analysis client: real")
	default:
		analyzer = aiAdapters.NewMockAnalyzer(cfg.Analysis.CostPer1K)
		logger.Info().Msg("analysis client: mock")
	}

	// ---- Pipeline ----
	queue := worker.NewQueue(cfg.Pipeline.QueueCapacity, logger)
	scheduler := worker.NewScheduler(cfg.Pipeline, queue, convRepo, insightRepo, cacheRepo, eventRepo, txm, analyzer, logger)
	go scheduler.Run(ctx)

	// ---- Use cases ----
	convUC := usecase.NewConversationUseCase(convRepo, eventRepo, queue, logger)
	insightUC := usecase.NewInsightUseCase(insightRepo, logger)
	statsUC := usecase.NewStatsUseCase(convRepo, insightRepo, cacheRepo, logger)

	// ---- HTTP server ----
	srv := web.NewServer(convUC, insightUC, statsUC, scheduler, rateLimiter, cfg.RateLimit, cfg.Server, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := server.Shutdown(shutCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
