package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/crisphq/crisp-backend/internal/model"
)

// Phase enumerates session lifecycle states.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseInProgress    Phase = "IN_PROGRESS"
	PhaseAwaitingScore Phase = "AWAITING_SCORE"
	PhaseCompleted     Phase = "COMPLETED"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseInProgress, PhaseAwaitingScore, PhaseCompleted:
		return true
	}
	return false
}

// State is the complete session aggregate for one candidate. It is a value
// type: transitions go through Apply, which returns a new State and never
// mutates its input. Nothing outside this package mutates a State directly.
type State struct {
	CandidateID int             `json:"candidate_id"`
	Phase       Phase           `json:"phase"`
	Current     *model.Question `json:"current_question,omitempty"`
	Remaining   int             `json:"remaining_seconds"`
	Answers     []model.Answer  `json:"answers"`
	Score       *model.Score    `json:"score,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
}

// NewState returns an idle session for the given candidate.
func NewState(candidateID int) State {
	return State{
		CandidateID: candidateID,
		Phase:       PhaseIdle,
	}
}

// AnsweredCount returns how many answers are recorded.
func (s State) AnsweredCount() int { return len(s.Answers) }

// Event is a session transition input. The closed set of implementations
// lives in this file.
type Event interface{ event() }

// QuestionIssued makes the supplied question current and arms the countdown
// at the question's own budget.
type QuestionIssued struct {
	Question model.Question
	At       time.Time
}

// Ticked decrements the remaining time of the current question by one second.
type Ticked struct{}

// AnswerSubmitted records an answer for the current question. Forced marks a
// submission produced by timer expiry rather than the candidate.
type AnswerSubmitted struct {
	Text   string
	Forced bool
	At     time.Time
}

// SequenceFinished moves a fully-answered session to AWAITING_SCORE.
type SequenceFinished struct{}

// ScoreApplied merges the final score and completes the session.
type ScoreApplied struct {
	Score model.Score
}

// SessionReset discards all progress and returns to idle, keeping the
// candidate identity.
type SessionReset struct{}

func (QuestionIssued) event()   {}
func (Ticked) event()           {}
func (AnswerSubmitted) event()  {}
func (SequenceFinished) event() {}
func (ScoreApplied) event()     {}
func (SessionReset) event()     {}

// Apply runs one transition. Invalid events are rejected with an error and
// the returned State equals the input — there are no partial mutations.
func Apply(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case QuestionIssued:
		if s.Phase != PhaseIdle && s.Phase != PhaseInProgress {
			return s, fmt.Errorf("%w: issue question in phase %s", ErrInvalidTransition, s.Phase)
		}
		if s.Current != nil {
			return s, fmt.Errorf("%w: a question is already active", ErrInvalidTransition)
		}
		if len(s.Answers) >= QuestionQuota {
			return s, ErrQuotaReached
		}
		want, _ := NextDifficulty(len(s.Answers))
		if e.Question.Difficulty != want {
			return s, fmt.Errorf("%w: question tier %s, sequence requires %s",
				ErrInvalidTransition, e.Question.Difficulty, want)
		}
		q := e.Question
		if q.TimeBudget <= 0 {
			q.TimeBudget = q.Difficulty.TimeBudget()
		}
		s.Phase = PhaseInProgress
		s.Current = &q
		s.Remaining = q.TimeBudget
		if s.StartedAt == nil {
			at := e.At
			s.StartedAt = &at
		}
		return s, nil

	case Ticked:
		if s.Phase != PhaseInProgress || s.Current == nil {
			return s, ErrNoActiveQuestion
		}
		if s.Remaining <= 0 {
			// The countdown reaches zero at most once per question.
			return s, fmt.Errorf("%w: countdown already expired", ErrInvalidTransition)
		}
		s.Remaining--
		return s, nil

	case AnswerSubmitted:
		if s.Phase != PhaseInProgress || s.Current == nil {
			return s, ErrNoActiveQuestion
		}
		ans := model.Answer{
			QuestionID:     s.Current.ID,
			QuestionText:   s.Current.Text,
			Difficulty:     s.Current.Difficulty,
			Text:           e.Text,
			ElapsedSeconds: s.Current.TimeBudget - s.Remaining,
			Forced:         e.Forced,
			CreatedAt:      e.At,
		}
		answers := make([]model.Answer, len(s.Answers), len(s.Answers)+1)
		copy(answers, s.Answers)
		s.Answers = append(answers, ans)
		s.Current = nil
		s.Remaining = 0
		return s, nil

	case SequenceFinished:
		if s.Phase != PhaseInProgress || s.Current != nil {
			return s, fmt.Errorf("%w: finish sequence in phase %s", ErrInvalidTransition, s.Phase)
		}
		if len(s.Answers) != QuestionQuota {
			return s, fmt.Errorf("%w: finish sequence with %d/%d answers",
				ErrInvalidTransition, len(s.Answers), QuestionQuota)
		}
		s.Phase = PhaseAwaitingScore
		return s, nil

	case ScoreApplied:
		if s.Phase != PhaseAwaitingScore {
			// Also guards against applying a score twice.
			return s, fmt.Errorf("%w: apply score in phase %s", ErrInvalidTransition, s.Phase)
		}
		sc := e.Score
		s.Score = &sc
		s.Phase = PhaseCompleted
		return s, nil

	case SessionReset:
		return NewState(s.CandidateID), nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

// Snapshot serializes the state for persistence. Restore reverses it
// byte-for-byte.
func (s State) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// Restore deserializes a persisted snapshot and validates its invariants
// before handing it back to the engine.
func Restore(raw []byte) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	if !s.Phase.Valid() {
		return State{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidTransition, s.Phase)
	}
	if len(s.Answers) > QuestionQuota {
		return State{}, fmt.Errorf("%w: %d answers exceed quota", ErrInvalidTransition, len(s.Answers))
	}
	if s.Current != nil {
		if s.Remaining < 0 || s.Remaining > s.Current.TimeBudget {
			return State{}, fmt.Errorf("%w: remaining %ds outside [0, %ds]",
				ErrInvalidTransition, s.Remaining, s.Current.TimeBudget)
		}
	}
	if (s.Score != nil) != (s.Phase == PhaseCompleted) {
		return State{}, fmt.Errorf("%w: score presence disagrees with phase %s",
			ErrInvalidTransition, s.Phase)
	}
	return s, nil
}
