package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crisphq/crisp-backend/internal/model"
	"github.com/crisphq/crisp-backend/internal/repository"
)

// ErrCandidateNotFound is returned when a candidate ID does not exist.
var ErrCandidateNotFound = errors.New("candidate not found")

// CandidateDetail is a candidate together with their recorded answers, as
// shown on the interviewer's drill-down view.
type CandidateDetail struct {
	model.Candidate
	Answers []model.Answer `json:"answers"`
}

// CandidateService handles candidate registration and the interviewer
// dashboard queries.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	answerRepo    *repository.AnswerRepository
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidateRepo *repository.CandidateRepository, answerRepo *repository.AnswerRepository) *CandidateService {
	return &CandidateService{candidateRepo: candidateRepo, answerRepo: answerRepo}
}

// Create registers a candidate. All identity fields must already be
// complete — missing resume fields are collected by the client before this
// call.
func (s *CandidateService) Create(ctx context.Context, req *model.CreateCandidateRequest) (*model.Candidate, error) {
	c := &model.Candidate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		ResumePath: req.ResumePath,
	}
	if err := s.candidateRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	return c, nil
}

// List returns all candidates ordered for the dashboard: scored candidates
// first, highest score on top.
func (s *CandidateService) List(ctx context.Context) ([]model.Candidate, error) {
	return s.candidateRepo.List(ctx)
}

// Get returns a single candidate with their full answer history.
func (s *CandidateService) Get(ctx context.Context, id int) (*CandidateDetail, error) {
	c, err := s.candidateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	answers, err := s.answerRepo.ListByCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &CandidateDetail{Candidate: *c, Answers: answers}, nil
}
