package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/database"
	"github.com/intervia/intervia-backend/internal/handler"
	"github.com/intervia/intervia-backend/internal/inference"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/logger"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/repository"
	"github.com/intervia/intervia-backend/internal/router"
	"github.com/intervia/intervia-backend/internal/service"
	"github.com/intervia/intervia-backend/internal/validator"
	"github.com/intervia/intervia-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Intervia Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	archiveRepo := repository.NewArchiveRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	inferenceClient := inference.NewClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.InferenceTimeout, log)
	tokenService := service.NewTokenService(cfg)
	candidateService := service.NewCandidateService(candidateRepo, rdb, log)
	resumeService := service.NewResumeService(cfg, inferenceClient, candidateService, log)
	archiveService := service.NewArchiveService(rdb, log)
	snapshotService := service.NewSnapshotService(rdb, log)
	historyService := service.NewHistoryService(archiveRepo, log)

	// ─── Interview Session Manager ────────────────────────────────────
	manager := interview.NewManager(
		interview.Policy{
			QuestionCount: cfg.QuestionCount,
			Limits: model.TimeLimits{
				Easy:   cfg.TimeLimitEasySecs,
				Medium: cfg.TimeLimitMediumSecs,
				Hard:   cfg.TimeLimitHardSecs,
			},
			FallbackScorePerChar:      cfg.FallbackScorePerChar,
			PreserveRemainingOnResume: cfg.ResumePreserveRemaining,
		},
		interview.Deps{
			Questions: inferenceClient,
			Scorer:    inferenceClient,
			Archiver:  archiveService,
			Snapshots: snapshotService,
		},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Candidate: handler.NewCandidateHandler(candidateService, resumeService, tokenService),
		Interview: handler.NewInterviewHandler(manager, candidateService),
		History:   handler.NewHistoryHandler(historyService),
		WS:        handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	archiveWorker := worker.NewArchiveWorker(archiveRepo, rdb, log)
	snapshotWorker := worker.NewSnapshotWorker(rdb, cfg.SnapshotTTL, log)

	go archiveWorker.Start(workerCtx)
	go snapshotWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Snapshot live sessions so candidates can resume after restart.
	manager.Shutdown(shutdownCtx)

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
