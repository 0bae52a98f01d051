package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Interview-specific ────────────────────────────────────────────
	ErrNoActiveQuestion    ErrCode = "NO_ACTIVE_QUESTION"
	ErrProviderExhausted   ErrCode = "PROVIDER_EXHAUSTED"
	ErrScoringUnavailable  ErrCode = "SCORING_UNAVAILABLE"
	ErrSessionCompleted    ErrCode = "SESSION_COMPLETED"
	ErrDecisionRequired    ErrCode = "RESUME_DECISION_REQUIRED"
	ErrInvalidDecision     ErrCode = "INVALID_RESUME_DECISION"
	ErrNetworkFailure      ErrCode = "NETWORK_FAILURE"
	ErrCandidateIncomplete ErrCode = "CANDIDATE_PROFILE_INCOMPLETE"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Interview-specific ────────────────────────────────────────────
	case ErrNoActiveQuestion:
		return "There is no active question to answer."
	case ErrProviderExhausted:
		return "The question provider could not supply the next question. Please retry."
	case ErrScoringUnavailable:
		return "Scoring is temporarily unavailable. The interview result will be finalized shortly."
	case ErrSessionCompleted:
		return "This interview session is already completed."
	case ErrDecisionRequired:
		return "An unfinished interview exists. Choose to continue or restart."
	case ErrInvalidDecision:
		return "Resume decision must be \"continue\" or \"restart\"."
	case ErrNetworkFailure:
		return "A network error occurred while contacting an upstream service. Please retry."
	case ErrCandidateIncomplete:
		return "Candidate profile is missing required fields."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
