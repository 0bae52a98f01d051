package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one recorded response, bound to the question it resolves.
// Append-only: once recorded it is never mutated. Question text and
// difficulty are denormalized so the answer history reads without the
// question bank.
type Answer struct {
	QuestionID     uuid.UUID  `json:"question_id"`
	QuestionText   string     `json:"question_text"`
	Difficulty     Difficulty `json:"difficulty"`
	Text           string     `json:"text"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Forced         bool       `json:"forced"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Score is the final result attached to a completed session.
type Score struct {
	Value   int    `json:"value"`
	Summary string `json:"summary"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	Text string `json:"text" binding:"max=10000"`
}
