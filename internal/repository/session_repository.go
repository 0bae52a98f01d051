package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository stores durable interview session snapshots. The hot copy
// lives in Redis; this table is the fallback that survives a cache flush.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Save upserts the JSONB snapshot for a candidate's session.
func (r *SessionRepository) Save(ctx context.Context, candidateID int, phase string, snapshot []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO interview_sessions (candidate_id, phase, snapshot, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (candidate_id)
		 DO UPDATE SET phase = EXCLUDED.phase, snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		candidateID, phase, snapshot)
	return err
}

// Get returns the stored snapshot, or (nil, nil) when none exists.
func (r *SessionRepository) Get(ctx context.Context, candidateID int) ([]byte, error) {
	var snapshot []byte
	err := r.pool.QueryRow(ctx,
		`SELECT snapshot FROM interview_sessions WHERE candidate_id = $1`,
		candidateID,
	).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Delete removes a candidate's stored session.
func (r *SessionRepository) Delete(ctx context.Context, candidateID int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM interview_sessions WHERE candidate_id = $1`, candidateID)
	return err
}
