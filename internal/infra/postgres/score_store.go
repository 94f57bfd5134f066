package postgres

import (
	"context"
	"fmt"

	"sifir-drill-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore keeps best scores in the scores table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

const upsertBest = `
INSERT INTO scores (id, name, class_name, score, recorded_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    class_name = EXCLUDED.class_name,
    score = EXCLUDED.score,
    recorded_at = EXCLUDED.recorded_at
WHERE scores.score < EXCLUDED.score`

// SaveBest inserts rec or replaces a lower stored score.
func (s *ScoreStore) SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx, upsertBest, rec.ID, rec.Name, rec.ClassName, rec.Score, rec.Timestamp)
	if err != nil {
		return false, fmt.Errorf("save score: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ScoreStore) List(ctx context.Context) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, class_name, score, recorded_at FROM scores ORDER BY score DESC, recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ScoreRecord, 0)
	for rows.Next() {
		var rec domain.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.ClassName, &rec.Score, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return records, nil
}

func (s *ScoreStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}
