package engine

import (
	"errors"
	"testing"

	"github.com/crisphq/crisp-backend/internal/model"
)

func TestNeedsDecisionByPhase(t *testing.T) {
	idle := NewState(1)
	if NeedsDecision(idle) {
		t.Error("idle session should not prompt")
	}

	inProgress := answeredState(t, 1)
	if !NeedsDecision(inProgress) {
		t.Error("in-progress session must prompt")
	}

	awaiting := answeredState(t, QuestionQuota)
	awaiting = mustApply(t, awaiting, SequenceFinished{})
	if !NeedsDecision(awaiting) {
		t.Error("awaiting-score session must prompt")
	}

	completed := mustApply(t, awaiting, ScoreApplied{Score: model.Score{Value: 60, Summary: "ok"}})
	if NeedsDecision(completed) {
		t.Error("completed session should not prompt")
	}
}

func TestResolveRejectsUnknownDecision(t *testing.T) {
	s := answeredState(t, 2)
	if _, err := Resolve(s, Decision("pause")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestResolveRestartYieldsIdle(t *testing.T) {
	s := answeredState(t, 4)
	out, err := Resolve(s, DecisionRestart)
	if err != nil {
		t.Fatalf("resolve restart: %v", err)
	}
	if out.Phase != PhaseIdle || len(out.Answers) != 0 {
		t.Errorf("restart did not clear session: %+v", out)
	}
}
