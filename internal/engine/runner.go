package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crisphq/crisp-backend/internal/model"
)

// QuestionSource supplies the next question for a tier. A nil question with
// a nil error signals exhaustion from the provider's perspective.
type QuestionSource interface {
	NextQuestion(ctx context.Context, candidateID int, difficulty model.Difficulty, previous []string) (*model.Question, error)
}

// ScoringAuthority computes the final score and summary for a completed
// answer sequence.
type ScoringAuthority interface {
	ScoreSession(ctx context.Context, candidateID int, answers []model.Answer) (model.Score, error)
}

// Recorder receives persistence callbacks from the runner. Implementations
// must tolerate repeated snapshots; RecordAnswer failures are logged and do
// not block the session.
type Recorder interface {
	SaveSnapshot(ctx context.Context, s State) error
	RecordAnswer(ctx context.Context, candidateID int, ans model.Answer) error
	Finalize(ctx context.Context, candidateID int, score model.Score, answers []model.Answer) error
	DeferScoring(ctx context.Context, candidateID int) error
}

// StreamEventType enumerates events pushed to session subscribers.
type StreamEventType string

const (
	StreamQuestion      StreamEventType = "question"
	StreamTick          StreamEventType = "tick"
	StreamExpired       StreamEventType = "expired"
	StreamAwaitingScore StreamEventType = "awaiting_score"
	StreamCompleted     StreamEventType = "completed"
	StreamReset         StreamEventType = "reset"
	StreamError         StreamEventType = "error"
)

// StreamEvent is the live feed a client (WebSocket or otherwise) observes.
type StreamEvent struct {
	Type      StreamEventType `json:"event"`
	Question  *model.Question `json:"question,omitempty"`
	Remaining int             `json:"remaining_seconds"`
	Answered  int             `json:"answered"`
	Score     *model.Score    `json:"score,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type stateReply struct {
	state State
	err   error
}

// Runner owns one candidate's session. All state transitions flow through a
// single goroutine (one active transition in flight), so the Session State
// Store is never mutated concurrently. The timer and both external calls
// only ever post events back into that stream.
type Runner struct {
	state State

	cmds   chan func()
	ctx    context.Context
	cancel context.CancelFunc

	source QuestionSource
	scorer ScoringAuthority
	rec    Recorder
	timer  *TimerController
	log    zerolog.Logger

	// epoch invalidates in-flight external responses after a restart;
	// qseq invalidates timer callbacks for a question that is no longer
	// current.
	epoch uint64
	qseq  uint64

	cancelTimer   func()
	fetchInFlight bool
	scoreInFlight bool

	qWaiters     []chan stateReply
	scoreWaiters []chan stateReply

	subMu  sync.Mutex
	nextID uint64
	subs   map[uint64]chan StreamEvent
}

// NewRunner builds a runner around a validated session state. Call Start
// before any other method.
func NewRunner(st State, source QuestionSource, scorer ScoringAuthority, rec Recorder, timer *TimerController, log zerolog.Logger) *Runner {
	return &Runner{
		state:  st,
		cmds:   make(chan func(), 16),
		source: source,
		scorer: scorer,
		rec:    rec,
		timer:  timer,
		log:    log.With().Str("component", "session_runner").Int("candidate_id", st.CandidateID).Logger(),
		subs:   make(map[uint64]chan StreamEvent),
	}
}

// Start launches the transition loop. A resumed in-progress session re-arms
// the countdown at the stored remaining time — no reset, no re-fetch.
func (r *Runner) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	go r.run()
	r.post(func() {
		switch {
		case r.state.Current != nil:
			r.armTimer()
		case r.state.Phase == PhaseInProgress:
			// Crashed between answer and next question; resume the fetch.
			r.startFetch()
		}
	})
}

// Stop shuts the runner down and cancels any outstanding countdown.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) run() {
	defer func() {
		r.stopTimer()
	}()
	for {
		select {
		case <-r.ctx.Done():
			return
		case cmd := <-r.cmds:
			cmd()
		}
	}
}

// post delivers a command without waiting for it.
func (r *Runner) post(fn func()) {
	select {
	case r.cmds <- fn:
	case <-r.ctx.Done():
	}
}

// do delivers a command and waits for it to run.
func (r *Runner) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case r.cmds <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrRunnerStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return ErrRunnerStopped
	}
}

// ─── Public API ─────────────────────────────────────────────────────

// State returns a snapshot of the current session state.
func (r *Runner) State(ctx context.Context) (State, error) {
	var st State
	if err := r.do(ctx, func() { st = r.state }); err != nil {
		return State{}, err
	}
	return st, nil
}

// NextQuestion ensures a question fetch is underway (unless a question is
// already current or the sequence has terminated) and waits until the
// session has a current question, moves to scoring, or the fetch fails.
func (r *Runner) NextQuestion(ctx context.Context) (State, error) {
	ch := make(chan stateReply, 1)
	err := r.do(ctx, func() {
		if r.state.Current != nil || r.state.Phase == PhaseAwaitingScore || r.state.Phase == PhaseCompleted {
			ch <- stateReply{state: r.state}
			return
		}
		r.startFetch()
		r.qWaiters = append(r.qWaiters, ch)
	})
	if err != nil {
		return State{}, err
	}
	return r.await(ctx, ch)
}

// Submit records a user-provided answer for the current question. The
// outstanding countdown is cancelled before the answer is recorded, so an
// expiry can never fire after a user submission for the same question.
func (r *Runner) Submit(ctx context.Context, text string) (State, error) {
	var reply stateReply
	err := r.do(ctx, func() {
		reply.state, reply.err = r.submit(text, false)
	})
	if err != nil {
		return State{}, err
	}
	return reply.state, reply.err
}

// RetryScoring re-drives the scoring call for a session stuck in
// AWAITING_SCORE and waits for the outcome. A call while a scoring request
// is already outstanding joins it instead of running a duplicate.
func (r *Runner) RetryScoring(ctx context.Context) (State, error) {
	ch := make(chan stateReply, 1)
	err := r.do(ctx, func() {
		switch r.state.Phase {
		case PhaseCompleted:
			ch <- stateReply{state: r.state}
		case PhaseAwaitingScore:
			r.startScoring()
			r.scoreWaiters = append(r.scoreWaiters, ch)
		default:
			ch <- stateReply{state: r.state, err: fmt.Errorf("%w: scoring in phase %s", ErrInvalidTransition, r.state.Phase)}
		}
	})
	if err != nil {
		return State{}, err
	}
	return r.await(ctx, ch)
}

// Reset discards all session progress and returns to idle. Any outstanding
// countdown is cancelled and in-flight external responses are treated as
// stale when they arrive.
func (r *Runner) Reset(ctx context.Context) (State, error) {
	var st State
	err := r.do(ctx, func() {
		r.stopTimer()
		r.epoch++
		r.fetchInFlight = false
		r.scoreInFlight = false
		r.state, _ = Apply(r.state, SessionReset{})
		r.saveSnapshot()
		r.resolveQuestionWaiters(r.state, nil)
		r.resolveScoreWaiters(r.state, nil)
		r.notify(StreamEvent{Type: StreamReset})
		st = r.state
	})
	if err != nil {
		return State{}, err
	}
	return st, nil
}

// Subscribe attaches a listener to the session's event stream. Slow
// listeners drop events rather than stalling the session.
func (r *Runner) Subscribe() (<-chan StreamEvent, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.nextID++
	id := r.nextID
	ch := make(chan StreamEvent, 32)
	r.subs[id] = ch
	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

func (r *Runner) await(ctx context.Context, ch chan stateReply) (State, error) {
	select {
	case reply := <-ch:
		return reply.state, reply.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-r.ctx.Done():
		return State{}, ErrRunnerStopped
	}
}

// ─── Loop-internal transitions ──────────────────────────────────────

func (r *Runner) startFetch() {
	if r.fetchInFlight || r.state.Current != nil {
		return
	}
	difficulty, ok := NextDifficulty(len(r.state.Answers))
	if !ok {
		r.finishSequence()
		return
	}
	r.fetchInFlight = true
	epoch := r.epoch
	candidateID := r.state.CandidateID
	previous := make([]string, 0, len(r.state.Answers))
	for _, a := range r.state.Answers {
		previous = append(previous, a.QuestionText)
	}
	go func() {
		q, err := r.source.NextQuestion(r.ctx, candidateID, difficulty, previous)
		r.post(func() { r.applyFetched(epoch, q, err) })
	}()
}

func (r *Runner) applyFetched(epoch uint64, q *model.Question, err error) {
	if epoch != r.epoch {
		r.log.Debug().Msg("Dropping stale question fetch response")
		return
	}
	r.fetchInFlight = false
	if err != nil {
		wrapped := fmt.Errorf("fetch next question: %w", err)
		r.log.Warn().Err(err).Msg("Question fetch failed")
		r.notify(StreamEvent{Type: StreamError, Answered: len(r.state.Answers), Message: wrapped.Error()})
		r.resolveQuestionWaiters(r.state, wrapped)
		return
	}
	if q == nil {
		// The provider claims exhaustion while the sequencer still expects
		// a question. Never skip a tier or terminate early.
		r.log.Error().Int("answered", len(r.state.Answers)).Msg("Provider exhausted before quota")
		r.notify(StreamEvent{Type: StreamError, Answered: len(r.state.Answers), Message: ErrProviderExhausted.Error()})
		r.resolveQuestionWaiters(r.state, ErrProviderExhausted)
		return
	}
	issued := *q
	if issued.ID == uuid.Nil {
		issued.ID = uuid.New()
	}
	next, err := Apply(r.state, QuestionIssued{Question: issued, At: time.Now()})
	if err != nil {
		r.log.Error().Err(err).Msg("Rejected fetched question")
		r.resolveQuestionWaiters(r.state, err)
		return
	}
	r.state = next
	r.armTimer()
	r.saveSnapshot()
	r.notify(StreamEvent{
		Type:      StreamQuestion,
		Question:  r.state.Current,
		Remaining: r.state.Remaining,
		Answered:  len(r.state.Answers),
	})
	r.resolveQuestionWaiters(r.state, nil)
}

func (r *Runner) armTimer() {
	r.qseq++
	seq := r.qseq
	r.cancelTimer = r.timer.Start(r.state.Remaining,
		func() { r.post(func() { r.onTick(seq) }) },
		func() { r.post(func() { r.onExpire(seq) }) },
	)
}

func (r *Runner) stopTimer() {
	if r.cancelTimer != nil {
		r.cancelTimer()
		r.cancelTimer = nil
	}
	r.qseq++
}

func (r *Runner) onTick(seq uint64) {
	if seq != r.qseq {
		return
	}
	next, err := Apply(r.state, Ticked{})
	if err != nil {
		return
	}
	r.state = next
	r.saveSnapshot()
	r.notify(StreamEvent{
		Type:      StreamTick,
		Remaining: r.state.Remaining,
		Answered:  len(r.state.Answers),
	})
}

func (r *Runner) onExpire(seq uint64) {
	if seq != r.qseq {
		return
	}
	r.notify(StreamEvent{Type: StreamExpired, Answered: len(r.state.Answers)})
	if _, err := r.submit("", true); err != nil {
		r.log.Error().Err(err).Msg("Forced submission rejected")
	}
}

// submit is the shared answer path for user and timer-forced submissions.
func (r *Runner) submit(text string, forced bool) (State, error) {
	if r.state.Phase != PhaseInProgress || r.state.Current == nil {
		return r.state, ErrNoActiveQuestion
	}
	r.stopTimer()
	next, err := Apply(r.state, AnswerSubmitted{Text: text, Forced: forced, At: time.Now()})
	if err != nil {
		return r.state, err
	}
	r.state = next
	ans := r.state.Answers[len(r.state.Answers)-1]
	if err := r.rec.RecordAnswer(r.ctx, r.state.CandidateID, ans); err != nil {
		r.log.Warn().Err(err).Msg("Answer record failed, snapshot remains authoritative")
	}
	r.saveSnapshot()
	if len(r.state.Answers) >= QuestionQuota {
		r.finishSequence()
	} else {
		r.startFetch()
	}
	return r.state, nil
}

func (r *Runner) finishSequence() {
	if r.state.Phase == PhaseAwaitingScore || r.state.Phase == PhaseCompleted {
		return
	}
	next, err := Apply(r.state, SequenceFinished{})
	if err != nil {
		r.log.Error().Err(err).Msg("Sequence termination rejected")
		return
	}
	r.state = next
	r.saveSnapshot()
	r.notify(StreamEvent{Type: StreamAwaitingScore, Answered: len(r.state.Answers)})
	r.resolveQuestionWaiters(r.state, nil)
	r.startScoring()
}

func (r *Runner) startScoring() {
	if r.scoreInFlight || r.state.Phase != PhaseAwaitingScore {
		return
	}
	r.scoreInFlight = true
	epoch := r.epoch
	candidateID := r.state.CandidateID
	answers := r.state.Answers
	go func() {
		score, err := r.scorer.ScoreSession(r.ctx, candidateID, answers)
		r.post(func() { r.applyScored(epoch, score, err) })
	}()
}

func (r *Runner) applyScored(epoch uint64, score model.Score, err error) {
	if epoch != r.epoch {
		r.log.Debug().Msg("Dropping stale scoring response")
		return
	}
	r.scoreInFlight = false
	if err != nil {
		wrapped := fmt.Errorf("%w: %s", ErrScoringUnavailable, err)
		r.log.Warn().Err(err).Msg("Scoring failed, session stays awaiting score")
		if derr := r.rec.DeferScoring(r.ctx, r.state.CandidateID); derr != nil {
			r.log.Error().Err(derr).Msg("Could not queue scoring retry")
		}
		r.notify(StreamEvent{Type: StreamError, Answered: len(r.state.Answers), Message: wrapped.Error()})
		r.resolveScoreWaiters(r.state, wrapped)
		return
	}
	next, applyErr := Apply(r.state, ScoreApplied{Score: score})
	if applyErr != nil {
		r.log.Error().Err(applyErr).Msg("Score merge rejected")
		r.resolveScoreWaiters(r.state, applyErr)
		return
	}
	r.state = next
	r.saveSnapshot()
	if ferr := r.rec.Finalize(r.ctx, r.state.CandidateID, score, r.state.Answers); ferr != nil {
		r.log.Error().Err(ferr).Msg("Finalize failed after score merge")
	}
	r.notify(StreamEvent{
		Type:     StreamCompleted,
		Answered: len(r.state.Answers),
		Score:    r.state.Score,
	})
	r.resolveScoreWaiters(r.state, nil)
}

func (r *Runner) saveSnapshot() {
	if err := r.rec.SaveSnapshot(r.ctx, r.state); err != nil {
		r.log.Warn().Err(err).Msg("Snapshot save failed")
	}
}

func (r *Runner) resolveQuestionWaiters(st State, err error) {
	for _, ch := range r.qWaiters {
		ch <- stateReply{state: st, err: err}
	}
	r.qWaiters = nil
}

func (r *Runner) resolveScoreWaiters(st State, err error) {
	for _, ch := range r.scoreWaiters {
		ch <- stateReply{state: st, err: err}
	}
	r.scoreWaiters = nil
}

func (r *Runner) notify(ev StreamEvent) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
