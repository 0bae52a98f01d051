package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/engine"
	"github.com/crisphq/crisp-backend/internal/model"
	"github.com/crisphq/crisp-backend/internal/repository"
)

// ErrDecisionRequired is returned when an abandoned session exists and the
// candidate must choose between continuing and restarting before the
// interview can proceed.
var ErrDecisionRequired = errors.New("previous session found, resumption decision required")

// QueuedAnswer is the envelope pushed to the answer persistence queue.
type QueuedAnswer struct {
	CandidateID int          `json:"candidate_id"`
	Answer      model.Answer `json:"answer"`
}

// InterviewService orchestrates interview sessions. Each active candidate
// gets one Runner; the service owns the registry and the persistence wiring
// around the engine.
type InterviewService struct {
	candidateRepo *repository.CandidateRepository
	sessionRepo   *repository.SessionRepository
	rdb           *redis.Client
	source        engine.QuestionSource
	scorer        engine.ScoringAuthority
	clock         engine.Clock
	log           zerolog.Logger

	baseCtx context.Context

	mu      sync.Mutex
	runners map[int]*engine.Runner
}

// NewInterviewService creates a new InterviewService. baseCtx bounds the
// lifetime of every runner it spawns.
func NewInterviewService(
	baseCtx context.Context,
	candidateRepo *repository.CandidateRepository,
	sessionRepo *repository.SessionRepository,
	rdb *redis.Client,
	source engine.QuestionSource,
	scorer engine.ScoringAuthority,
	clock engine.Clock,
	log zerolog.Logger,
) *InterviewService {
	return &InterviewService{
		candidateRepo: candidateRepo,
		sessionRepo:   sessionRepo,
		rdb:           rdb,
		source:        source,
		scorer:        scorer,
		clock:         clock,
		log:           log.With().Str("component", "interview_service").Logger(),
		baseCtx:       baseCtx,
		runners:       make(map[int]*engine.Runner),
	}
}

// ─── Session lifecycle ──────────────────────────────────────────────

// Start begins an interview for the candidate, or returns ErrDecisionRequired
// when an abandoned attempt exists so the client can prompt the candidate.
// For an idle session it drives the first question fetch and returns once a
// question is current.
func (s *InterviewService) Start(ctx context.Context, candidateID int) (engine.State, error) {
	if _, err := s.candidateRepo.GetByID(ctx, candidateID); err != nil {
		return engine.State{}, fmt.Errorf("get candidate: %w", err)
	}

	s.mu.Lock()
	if r, ok := s.runners[candidateID]; ok {
		s.mu.Unlock()
		return r.NextQuestion(ctx)
	}

	st, err := s.loadState(ctx, candidateID)
	if err != nil {
		s.mu.Unlock()
		return engine.State{}, err
	}
	if engine.NeedsDecision(st) {
		// Resumption guard: never silently continue or discard an
		// abandoned attempt.
		s.mu.Unlock()
		return st, ErrDecisionRequired
	}
	if st.Phase == engine.PhaseCompleted {
		s.mu.Unlock()
		return st, nil
	}
	r := s.spawnRunner(st)
	s.mu.Unlock()

	return r.NextQuestion(ctx)
}

// Resume applies the candidate's continue-or-restart decision to an
// abandoned session and brings the runner up. Continue re-arms the countdown
// at the stored remaining time; restart discards everything and fetches the
// first question fresh.
func (s *InterviewService) Resume(ctx context.Context, candidateID int, decision engine.Decision) (engine.State, error) {
	s.mu.Lock()
	if r, ok := s.runners[candidateID]; ok {
		// Already live; only a restart decision means anything here.
		s.mu.Unlock()
		if decision == engine.DecisionRestart {
			if _, err := r.Reset(ctx); err != nil {
				return engine.State{}, err
			}
		}
		return r.NextQuestion(ctx)
	}

	st, err := s.loadState(ctx, candidateID)
	if err != nil {
		s.mu.Unlock()
		return engine.State{}, err
	}
	resolved, err := engine.Resolve(st, decision)
	if err != nil {
		s.mu.Unlock()
		return engine.State{}, err
	}
	r := s.spawnRunner(resolved)
	s.mu.Unlock()

	if resolved.Phase == engine.PhaseAwaitingScore {
		return r.RetryScoring(ctx)
	}
	if resolved.Current != nil {
		// Continue with a live question: the runner re-armed the timer on
		// Start, nothing else to drive.
		return r.State(ctx)
	}
	return r.NextQuestion(ctx)
}

// Answer submits the candidate's response to the current question.
func (s *InterviewService) Answer(ctx context.Context, candidateID int, text string) (engine.State, error) {
	r, err := s.runner(candidateID)
	if err != nil {
		return engine.State{}, err
	}
	return r.Submit(ctx, text)
}

// NextQuestion drives the session toward its next question. Used after an
// answer when the client polls rather than listening on the stream.
func (s *InterviewService) NextQuestion(ctx context.Context, candidateID int) (engine.State, error) {
	r, err := s.runner(candidateID)
	if err != nil {
		return engine.State{}, err
	}
	return r.NextQuestion(ctx)
}

// State reports the session state: the live runner's if one exists,
// otherwise the last persisted snapshot, otherwise a fresh idle state.
func (s *InterviewService) State(ctx context.Context, candidateID int) (engine.State, error) {
	s.mu.Lock()
	r, ok := s.runners[candidateID]
	s.mu.Unlock()
	if ok {
		return r.State(ctx)
	}
	return s.loadState(ctx, candidateID)
}

// RetryScoring re-drives scoring for a session stuck awaiting its score.
// Sessions with no live runner (e.g. after a restart of the server) are
// rehydrated first.
func (s *InterviewService) RetryScoring(ctx context.Context, candidateID int) (engine.State, error) {
	s.mu.Lock()
	r, ok := s.runners[candidateID]
	if !ok {
		st, err := s.loadState(ctx, candidateID)
		if err != nil {
			s.mu.Unlock()
			return engine.State{}, err
		}
		if st.Phase != engine.PhaseAwaitingScore {
			s.mu.Unlock()
			return st, nil
		}
		r = s.spawnRunner(st)
	}
	s.mu.Unlock()
	return r.RetryScoring(ctx)
}

// Subscribe attaches to a candidate's live event stream, spawning a runner
// from the persisted snapshot when none is active yet.
func (s *InterviewService) Subscribe(ctx context.Context, candidateID int) (<-chan engine.StreamEvent, func(), error) {
	s.mu.Lock()
	r, ok := s.runners[candidateID]
	if !ok {
		st, err := s.loadState(ctx, candidateID)
		if err != nil {
			s.mu.Unlock()
			return nil, nil, err
		}
		if engine.NeedsDecision(st) {
			s.mu.Unlock()
			return nil, nil, ErrDecisionRequired
		}
		r = s.spawnRunner(st)
	}
	s.mu.Unlock()
	ch, cancel := r.Subscribe()
	return ch, cancel, nil
}

// Shutdown stops every live runner. Snapshots already persisted by the
// runners make the sessions resumable after the next start.
func (s *InterviewService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.runners {
		r.Stop()
		delete(s.runners, id)
	}
}

// ─── Internals ──────────────────────────────────────────────────────

// spawnRunner must be called with s.mu held.
func (s *InterviewService) spawnRunner(st engine.State) *engine.Runner {
	rec := &sessionRecorder{
		candidateRepo: s.candidateRepo,
		sessionRepo:   s.sessionRepo,
		rdb:           s.rdb,
		log:           s.log,
	}
	r := engine.NewRunner(st, s.source, s.scorer, rec, engine.NewTimerController(s.clock), s.log)
	r.Start(s.baseCtx)
	s.runners[st.CandidateID] = r
	return r
}

func (s *InterviewService) runner(candidateID int) (*engine.Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runners[candidateID]
	if !ok {
		return nil, engine.ErrNoActiveQuestion
	}
	return r, nil
}

// loadState reads the candidate's snapshot, Redis first with a PostgreSQL
// fallback that self-heals the cache.
func (s *InterviewService) loadState(ctx context.Context, candidateID int) (engine.State, error) {
	key := config.CacheKey.SessionSnapshotKey(candidateID)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		raw, err = s.sessionRepo.Get(ctx, candidateID)
		if err != nil {
			return engine.State{}, fmt.Errorf("load session snapshot: %w", err)
		}
		if raw == nil {
			return engine.NewState(candidateID), nil
		}
		_ = s.rdb.Set(ctx, key, raw, 0)
	} else if err != nil {
		return engine.State{}, fmt.Errorf("load session snapshot: %w", err)
	}
	st, err := engine.Restore(raw)
	if err != nil {
		return engine.State{}, err
	}
	if st.CandidateID != candidateID {
		return engine.State{}, fmt.Errorf("snapshot candidate mismatch: stored %d, requested %d", st.CandidateID, candidateID)
	}
	return st, nil
}

// sessionRecorder implements engine.Recorder. Snapshots are written through
// to Redis and PostgreSQL; answers and scoring retries are handed to workers
// via Redis queues so the session loop never blocks on slow persistence.
type sessionRecorder struct {
	candidateRepo *repository.CandidateRepository
	sessionRepo   *repository.SessionRepository
	rdb           *redis.Client
	log           zerolog.Logger
}

func (rec *sessionRecorder) SaveSnapshot(ctx context.Context, st engine.State) error {
	raw, err := st.Snapshot()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := config.CacheKey.SessionSnapshotKey(st.CandidateID)
	if err := rec.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		// Redis down is not fatal as long as the durable copy lands.
		rec.log.Warn().Err(err).Int("candidate_id", st.CandidateID).Msg("Snapshot cache write failed")
	}
	return rec.sessionRepo.Save(ctx, st.CandidateID, string(st.Phase), raw)
}

func (rec *sessionRecorder) RecordAnswer(ctx context.Context, candidateID int, ans model.Answer) error {
	payload, err := json.Marshal(QueuedAnswer{CandidateID: candidateID, Answer: ans})
	if err != nil {
		return fmt.Errorf("encode queued answer: %w", err)
	}
	return rec.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err()
}

func (rec *sessionRecorder) Finalize(ctx context.Context, candidateID int, score model.Score, answers []model.Answer) error {
	return rec.candidateRepo.SetResult(ctx, candidateID, score.Value, score.Summary)
}

func (rec *sessionRecorder) DeferScoring(ctx context.Context, candidateID int) error {
	return rec.rdb.RPush(ctx, config.WorkerKey.PendingScoresQueue, strconv.Itoa(candidateID)).Err()
}
