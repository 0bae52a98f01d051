package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crisphq/crisp-backend/internal/model"
)

// AnswerRepository handles persisted interview answers.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Insert records one answer. Re-delivery from the queue is harmless: the
// (candidate_id, question_id) pair is unique and duplicates are dropped.
func (r *AnswerRepository) Insert(ctx context.Context, candidateID int, a *model.Answer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interview_answers
		   (candidate_id, question_id, question_text, difficulty, answer, elapsed_seconds, forced, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (candidate_id, question_id) DO NOTHING`,
		candidateID, a.QuestionID, a.QuestionText, a.Difficulty, a.Text, a.ElapsedSeconds, a.Forced, a.CreatedAt)
	return err
}

// ListByCandidate returns a candidate's answers in interview order.
func (r *AnswerRepository) ListByCandidate(ctx context.Context, candidateID int) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, question_text, difficulty, answer, elapsed_seconds, forced, created_at
		 FROM interview_answers
		 WHERE candidate_id = $1
		 ORDER BY created_at ASC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.QuestionID, &a.QuestionText, &a.Difficulty, &a.Text, &a.ElapsedSeconds, &a.Forced, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
