package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crisphq/crisp-backend/internal/model"
	"github.com/crisphq/crisp-backend/internal/response"
	"github.com/crisphq/crisp-backend/internal/service"
	"github.com/crisphq/crisp-backend/internal/validator"
)

// CandidateHandler handles candidate registration and dashboard endpoints.
type CandidateHandler struct {
	candidateService *service.CandidateService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService *service.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

// CreateCandidate godoc
// POST /api/v1/candidates
// Registers a candidate with complete identity fields.
func (h *CandidateHandler) CreateCandidate(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidateService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// ListCandidates godoc
// GET /api/v1/candidates
// Lists all candidates, scored candidates first (highest on top).
func (h *CandidateHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.candidateService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// GetCandidate godoc
// GET /api/v1/candidates/:candidate_id
// Returns a candidate with their full answer history.
func (h *CandidateHandler) GetCandidate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.candidateService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": detail})
}
