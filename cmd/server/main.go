package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/database"
	"github.com/crisphq/crisp-backend/internal/engine"
	"github.com/crisphq/crisp-backend/internal/handler"
	"github.com/crisphq/crisp-backend/internal/logger"
	"github.com/crisphq/crisp-backend/internal/provider"
	"github.com/crisphq/crisp-backend/internal/repository"
	"github.com/crisphq/crisp-backend/internal/router"
	"github.com/crisphq/crisp-backend/internal/service"
	"github.com/crisphq/crisp-backend/internal/validator"
	"github.com/crisphq/crisp-backend/internal/worker"
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
		Msg("Starting Crisp Backend")

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
	answerRepo := repository.NewAnswerRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	// ─── Initialize LLM Provider ───────────────────────────────────────
	llm := provider.NewLLMClient(cfg, log)

	// ─── Initialize Services ──────────────────────────────────────────
	// sessionCtx outlives individual requests: session runners keep
	// counting down between HTTP calls until shutdown.
	sessionCtx, sessionCancel := context.WithCancel(context.Background())

	interviewService := service.NewInterviewService(
		sessionCtx, candidateRepo, sessionRepo, rdb, llm, llm, engine.SystemClock(), log,
	)
	candidateService := service.NewCandidateService(candidateRepo, answerRepo)
	resumeService := service.NewResumeService(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Candidate: handler.NewCandidateHandler(candidateService),
		Interview: handler.NewInterviewHandler(interviewService),
		Resume:    handler.NewResumeHandler(resumeService),
		WS:        handler.NewWSHandler(interviewService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(answerRepo, rdb, log)
	scoringWorker := worker.NewScoringWorker(interviewService, rdb, log)

	go answerWorker.Start(workerCtx)
	go scoringWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	// 2. Stop session runners; their last snapshots make every live
	//    session resumable on the next start.
	interviewService.Shutdown()
	sessionCancel()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
