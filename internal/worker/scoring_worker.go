package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/engine"
	"github.com/crisphq/crisp-backend/internal/service"
)

// ScoringRetryInterval spaces out retries so a down LLM provider is not
// hammered.
const ScoringRetryInterval = 30 * time.Second

// ScoringWorker consumes the pending-scores queue and re-drives scoring for
// sessions stuck in AWAITING_SCORE after a failed scoring call.
type ScoringWorker struct {
	interviewService *service.InterviewService
	rdb              *redis.Client
	log              zerolog.Logger
}

// NewScoringWorker creates a new ScoringWorker.
func NewScoringWorker(interviewService *service.InterviewService, rdb *redis.Client, log zerolog.Logger) *ScoringWorker {
	return &ScoringWorker{
		interviewService: interviewService,
		rdb:              rdb,
		log:              log.With().Str("component", "scoring_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ScoringWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ScoringWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PendingScoresQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	candidateID, err := strconv.Atoi(result[1])
	if err != nil {
		w.log.Error().Str("payload", result[1]).Msg("Invalid candidate ID in queue")
		return
	}

	st, err := w.interviewService.RetryScoring(ctx, candidateID)
	if err != nil {
		// A failed retry re-queues itself via the runner's DeferScoring
		// callback; wait before draining it again.
		w.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Scoring retry failed")
		select {
		case <-ctx.Done():
		case <-time.After(ScoringRetryInterval):
		}
		return
	}

	if st.Phase == engine.PhaseCompleted && st.Score != nil {
		w.log.Info().
			Int("candidate_id", candidateID).
			Int("score", st.Score.Value).
			Msg("Deferred scoring completed")
	}
}
