package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/crisphq/crisp-backend/internal/engine"
	"github.com/crisphq/crisp-backend/internal/model"
	"github.com/crisphq/crisp-backend/internal/response"
	"github.com/crisphq/crisp-backend/internal/service"
	"github.com/crisphq/crisp-backend/internal/validator"
)

// InterviewHandler handles interview session endpoints.
type InterviewHandler struct {
	interviewService *service.InterviewService
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(interviewService *service.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

// resumeRequest is the payload resolving an abandoned session.
type resumeRequest struct {
	Decision string `json:"decision" binding:"required,oneof=continue restart"`
}

func candidateID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// StartInterview godoc
// POST /api/v1/candidates/:candidate_id/interview/start
// Begins the interview or, when an abandoned attempt exists, responds 409
// with the stored session so the client can prompt continue-or-restart.
func (h *InterviewHandler) StartInterview(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	st, err := h.interviewService.Start(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDecisionRequired) {
			response.Fail(c, http.StatusConflict, response.ErrDecisionRequired)
			return
		}
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": st})
}

// ResumeInterview godoc
// POST /api/v1/candidates/:candidate_id/interview/resume
// Applies the candidate's continue-or-restart decision.
func (h *InterviewHandler) ResumeInterview(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req resumeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidDecision, fields)
		return
	}

	st, err := h.interviewService.Resume(c.Request.Context(), id, engine.Decision(req.Decision))
	if err != nil {
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": st})
}

// SubmitAnswer godoc
// POST /api/v1/candidates/:candidate_id/interview/answer
// Records the candidate's answer to the current question and advances the
// session.
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.interviewService.Answer(c.Request.Context(), id, req.Text)
	if err != nil {
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": st})
}

// NextQuestion godoc
// POST /api/v1/candidates/:candidate_id/interview/next
// Waits until the session has its next question (or moves to scoring).
// Useful for clients polling instead of listening on the stream.
func (h *InterviewHandler) NextQuestion(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	st, err := h.interviewService.NextQuestion(c.Request.Context(), id)
	if err != nil {
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": st})
}

// GetState godoc
// GET /api/v1/candidates/:candidate_id/interview/state
// Reports the current session state without mutating anything.
func (h *InterviewHandler) GetState(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	st, err := h.interviewService.State(c.Request.Context(), id)
	if err != nil {
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":           st,
		"decision_required": engine.NeedsDecision(st),
	})
}

// RetryScoring godoc
// POST /api/v1/candidates/:candidate_id/interview/score/retry
// Re-drives the scoring call for a session stuck awaiting its score.
func (h *InterviewHandler) RetryScoring(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	st, err := h.interviewService.RetryScoring(c.Request.Context(), id)
	if err != nil {
		failInterview(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": st})
}

// failInterview maps engine and service errors onto the response taxonomy.
func failInterview(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, service.ErrCandidateNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, engine.ErrNoActiveQuestion):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveQuestion)
	case errors.Is(err, engine.ErrProviderExhausted):
		response.Fail(c, http.StatusBadGateway, response.ErrProviderExhausted)
	case errors.Is(err, engine.ErrScoringUnavailable):
		response.Fail(c, http.StatusBadGateway, response.ErrScoringUnavailable)
	case errors.Is(err, engine.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrDecisionRequired):
		response.Fail(c, http.StatusConflict, response.ErrDecisionRequired)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
