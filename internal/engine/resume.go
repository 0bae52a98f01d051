package engine

import "fmt"

// Decision resolves the continue-or-restart prompt for an abandoned session.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionRestart  Decision = "restart"
)

// NeedsDecision reports whether a freshly loaded snapshot represents an
// abandoned attempt that requires the candidate to choose between resuming
// and starting over. Idle and completed sessions proceed without prompting.
func NeedsDecision(s State) bool {
	return s.Phase == PhaseInProgress || s.Phase == PhaseAwaitingScore
}

// Resolve applies the candidate's decision to a loaded snapshot.
// Continue hands back the state untouched: same current question, same
// remaining time, no re-fetch. Restart clears question history, answers and
// timer state while keeping the candidate identity.
func Resolve(s State, d Decision) (State, error) {
	switch d {
	case DecisionContinue:
		return s, nil
	case DecisionRestart:
		return Apply(s, SessionReset{})
	default:
		return s, fmt.Errorf("%w: unknown resumption decision %q", ErrInvalidTransition, d)
	}
}
