package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crisphq/crisp-backend/internal/model"
)

func testQuestion(d model.Difficulty) model.Question {
	return model.Question{
		ID:         uuid.New(),
		Text:       fmt.Sprintf("describe a %s topic", d),
		Difficulty: d,
		TimeBudget: d.TimeBudget(),
	}
}

// mustApply fails the test on a rejected transition.
func mustApply(t *testing.T, s State, ev Event) State {
	t.Helper()
	next, err := Apply(s, ev)
	if err != nil {
		t.Fatalf("Apply(%T): %v", ev, err)
	}
	return next
}

// answeredState drives a fresh session through n issued-and-answered
// questions following the tier ladder.
func answeredState(t *testing.T, n int) State {
	t.Helper()
	s := NewState(1)
	for i := 0; i < n; i++ {
		d, ok := NextDifficulty(i)
		if !ok {
			t.Fatalf("sequence terminated at %d", i)
		}
		s = mustApply(t, s, QuestionIssued{Question: testQuestion(d), At: time.Now()})
		s = mustApply(t, s, AnswerSubmitted{Text: "an answer", At: time.Now()})
	}
	return s
}

func TestQuestionIssuedStartsCountdown(t *testing.T) {
	s := NewState(7)
	q := testQuestion(model.DifficultyEasy)
	s = mustApply(t, s, QuestionIssued{Question: q, At: time.Now()})

	if s.Phase != PhaseInProgress {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseInProgress)
	}
	if s.Current == nil || s.Current.ID != q.ID {
		t.Fatal("current question not set")
	}
	if s.Remaining != 20 {
		t.Errorf("remaining = %d, want 20", s.Remaining)
	}
	if s.StartedAt == nil {
		t.Error("started_at not recorded on first question")
	}
}

func TestQuestionIssuedRejectsWrongTier(t *testing.T) {
	s := NewState(1)
	_, err := Apply(s, QuestionIssued{Question: testQuestion(model.DifficultyHard), At: time.Now()})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for out-of-order tier, got %v", err)
	}
}

func TestQuestionIssuedRejectsWhileActive(t *testing.T) {
	s := NewState(1)
	s = mustApply(t, s, QuestionIssued{Question: testQuestion(model.DifficultyEasy), At: time.Now()})
	_, err := Apply(s, QuestionIssued{Question: testQuestion(model.DifficultyEasy), At: time.Now()})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected rejection of a second active question, got %v", err)
	}
}

func TestQuestionIssuedRejectsPastQuota(t *testing.T) {
	s := answeredState(t, QuestionQuota)
	_, err := Apply(s, QuestionIssued{Question: testQuestion(model.DifficultyHard), At: time.Now()})
	if !errors.Is(err, ErrQuotaReached) {
		t.Errorf("expected ErrQuotaReached, got %v", err)
	}
}

func TestTickedDecrementsMonotonically(t *testing.T) {
	s := NewState(1)
	s = mustApply(t, s, QuestionIssued{Question: testQuestion(model.DifficultyEasy), At: time.Now()})

	prev := s.Remaining
	for i := 0; i < 20; i++ {
		s = mustApply(t, s, Ticked{})
		if s.Remaining >= prev {
			t.Fatalf("remaining did not decrease: %d -> %d", prev, s.Remaining)
		}
		if s.Remaining < 0 {
			t.Fatalf("remaining went negative: %d", s.Remaining)
		}
		prev = s.Remaining
	}
	if s.Remaining != 0 {
		t.Errorf("remaining = %d after full budget, want 0", s.Remaining)
	}

	// The countdown reaches zero at most once.
	if _, err := Apply(s, Ticked{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("tick past zero should be rejected, got %v", err)
	}
}

func TestTickedRequiresActiveQuestion(t *testing.T) {
	if _, err := Apply(NewState(1), Ticked{}); !errors.Is(err, ErrNoActiveQuestion) {
		t.Errorf("expected ErrNoActiveQuestion, got %v", err)
	}
}

func TestAnswerElapsedTime(t *testing.T) {
	s := NewState(1)
	s = mustApply(t, s, QuestionIssued{Question: testQuestion(model.DifficultyMedium), At: time.Now()})
	for i := 0; i < 13; i++ {
		s = mustApply(t, s, Ticked{})
	}
	s = mustApply(t, s, AnswerSubmitted{Text: "use a worker pool", At: time.Now()})

	ans := s.Answers[len(s.Answers)-1]
	if ans.ElapsedSeconds != 13 {
		t.Errorf("elapsed = %d, want budget-remaining = 13", ans.ElapsedSeconds)
	}
	if ans.Forced {
		t.Error("user submission marked as forced")
	}
	if s.Current != nil {
		t.Error("current question not cleared after answer")
	}
	if s.Remaining != 0 {
		t.Errorf("remaining = %d after answer, want 0", s.Remaining)
	}
}

func TestAnswerRejectedWithoutQuestion(t *testing.T) {
	s := NewState(1)
	next, err := Apply(s, AnswerSubmitted{Text: "stray", At: time.Now()})
	if !errors.Is(err, ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion, got %v", err)
	}
	if len(next.Answers) != 0 {
		t.Error("rejected submission mutated the answer history")
	}
}

func TestAnswersCopyOnWrite(t *testing.T) {
	s := answeredState(t, 1)
	before := s
	s = mustApply(t, s, QuestionIssued{Question: testQuestion(model.DifficultyEasy), At: time.Now()})
	_ = mustApply(t, s, AnswerSubmitted{Text: "second", At: time.Now()})

	if len(before.Answers) != 1 {
		t.Fatalf("earlier snapshot grew to %d answers", len(before.Answers))
	}
	if before.Answers[0].Text != "an answer" {
		t.Error("earlier snapshot's answer was mutated")
	}
}

func TestSequenceFinishedRequiresQuota(t *testing.T) {
	s := answeredState(t, 3)
	if _, err := Apply(s, SequenceFinished{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("finishing at 3/6 should be rejected, got %v", err)
	}

	s = answeredState(t, QuestionQuota)
	s = mustApply(t, s, SequenceFinished{})
	if s.Phase != PhaseAwaitingScore {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseAwaitingScore)
	}
}

func TestScoreAppliedExactlyOnce(t *testing.T) {
	s := answeredState(t, QuestionQuota)
	s = mustApply(t, s, SequenceFinished{})
	s = mustApply(t, s, ScoreApplied{Score: model.Score{Value: 71, Summary: "solid fundamentals"}})

	if s.Phase != PhaseCompleted {
		t.Errorf("phase = %s, want %s", s.Phase, PhaseCompleted)
	}
	if s.Score == nil || s.Score.Value != 71 {
		t.Fatal("score not merged")
	}

	if _, err := Apply(s, ScoreApplied{Score: model.Score{Value: 99}}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second score merge should be rejected, got %v", err)
	}
}

func TestScoreRejectedBeforeSequenceEnds(t *testing.T) {
	s := answeredState(t, 2)
	if _, err := Apply(s, ScoreApplied{Score: model.Score{Value: 50}}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("score before termination should be rejected, got %v", err)
	}
}

func TestSessionResetKeepsCandidate(t *testing.T) {
	s := answeredState(t, 4)
	s = mustApply(t, s, SessionReset{})
	if s.Phase != PhaseIdle || len(s.Answers) != 0 || s.Current != nil || s.Remaining != 0 {
		t.Errorf("reset left residue: %+v", s)
	}
	if s.CandidateID != 1 {
		t.Error("reset dropped the candidate identity")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := answeredState(t, 2)
	s = mustApply(t, s, QuestionIssued{Question: testQuestion(model.DifficultyMedium), At: time.Now()})
	for i := 0; i < 17; i++ {
		s = mustApply(t, s, Ticked{})
	}

	raw, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := Restore(raw)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Phase != s.Phase || restored.Remaining != s.Remaining {
		t.Errorf("restore drifted: phase=%s remaining=%d", restored.Phase, restored.Remaining)
	}
	if restored.Current == nil || restored.Current.ID != s.Current.ID {
		t.Error("restore lost the current question")
	}
	if len(restored.Answers) != 2 {
		t.Errorf("restore has %d answers, want 2", len(restored.Answers))
	}

	again, err := restored.Snapshot()
	if err != nil {
		t.Fatalf("re-snapshot: %v", err)
	}
	if string(again) != string(raw) {
		t.Error("snapshot is not byte-for-byte restorable")
	}
}

func TestRestoreRejectsCorruptSnapshots(t *testing.T) {
	cases := map[string]string{
		"unknown phase":  `{"candidate_id":1,"phase":"PAUSED","remaining_seconds":0}`,
		"negative timer": `{"candidate_id":1,"phase":"IN_PROGRESS","remaining_seconds":-3,"current_question":{"id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","text":"q","difficulty":"easy","time_budget":20}}`,
		"timer over budget": `{"candidate_id":1,"phase":"IN_PROGRESS","remaining_seconds":90,` +
			`"current_question":{"id":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","text":"q","difficulty":"easy","time_budget":20}}`,
		"score without completion": `{"candidate_id":1,"phase":"IDLE","remaining_seconds":0,"score":{"value":80,"summary":"s"}}`,
		"not json":                 `{{`,
	}
	for name, raw := range cases {
		if _, err := Restore([]byte(raw)); err == nil {
			t.Errorf("%s: corrupt snapshot accepted", name)
		}
	}
}
