package model

import "time"

// Candidate represents a person taking an interview. Identity fields are
// captured before the session starts and are immutable afterwards.
type Candidate struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	ResumePath *string    `json:"resume_path,omitempty"`
	Score      *int       `json:"score,omitempty"`
	Summary    *string    `json:"summary,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CreateCandidateRequest is the payload for registering a candidate.
type CreateCandidateRequest struct {
	Name       string  `json:"name" binding:"required,min=1,max=120"`
	Email      string  `json:"email" binding:"required,email,max=254"`
	Phone      string  `json:"phone" binding:"required,min=7,max=20"`
	ResumePath *string `json:"resume_path,omitempty" binding:"omitempty,max=512"`
}
