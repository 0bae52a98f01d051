package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crisphq/crisp-backend/internal/model"
)

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// Create inserts a candidate record and fills the generated ID.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, phone, resume_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.Name, c.Email, c.Phone, c.ResumePath,
	).Scan(&c.ID, &c.CreatedAt)
}

// GetByID retrieves a single candidate.
func (r *CandidateRepository) GetByID(ctx context.Context, id int) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, resume_path, score, summary, created_at, finished_at
		 FROM candidates
		 WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ResumePath, &c.Score, &c.Summary, &c.CreatedAt, &c.FinishedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List retrieves all candidates, scored ones first (highest score on top),
// then by name. This backs the interviewer dashboard.
func (r *CandidateRepository) List(ctx context.Context) ([]model.Candidate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, resume_path, score, summary, created_at, finished_at
		 FROM candidates
		 ORDER BY score DESC NULLS LAST, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ResumePath, &c.Score, &c.Summary, &c.CreatedAt, &c.FinishedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// SetResult writes the final score and summary once the interview completes.
func (r *CandidateRepository) SetResult(ctx context.Context, id int, score int, summary string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates
		 SET score = $1, summary = $2, finished_at = NOW()
		 WHERE id = $3`,
		score, summary, id)
	return err
}
