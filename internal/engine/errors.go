package engine

import "errors"

var (
	// ErrNoActiveQuestion rejects a submission or tick when the session has
	// no current question. The state is left untouched.
	ErrNoActiveQuestion = errors.New("no active question")

	// ErrProviderExhausted means the question provider could not supply a
	// question for a tier the sequencer still requires. Fatal to the
	// sequence until retried; the session stays in progress.
	ErrProviderExhausted = errors.New("question provider exhausted")

	// ErrScoringUnavailable means the scoring authority call failed. The
	// session stays in AWAITING_SCORE and the call may be retried.
	ErrScoringUnavailable = errors.New("scoring authority unavailable")

	// ErrInvalidTransition rejects any event the current phase does not
	// admit. No partial mutation is applied.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrQuotaReached rejects issuing a question past the fixed quota.
	ErrQuotaReached = errors.New("question quota reached")

	// ErrRequestInFlight rejects a second external request of the same kind
	// while one is still outstanding for the session.
	ErrRequestInFlight = errors.New("external request already in flight")

	// ErrRunnerStopped is returned by runner methods after shutdown.
	ErrRunnerStopped = errors.New("session runner stopped")
)
