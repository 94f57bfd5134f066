package memory

import (
	"context"
	"sync"

	"sifir-drill-service/internal/domain"
)

// ScoreStore keeps the best score per record ID in memory.
type ScoreStore struct {
	mu      sync.RWMutex
	records map[string]domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{records: make(map[string]domain.ScoreRecord)}
}

// SaveBest stores rec if it is new or beats the existing score.
func (s *ScoreStore) SaveBest(_ context.Context, rec domain.ScoreRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[rec.ID]; ok && existing.Score >= rec.Score {
		return false, nil
	}
	s.records[rec.ID] = rec
	return true, nil
}

func (s *ScoreStore) List(_ context.Context) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *ScoreStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.ScoreRecord)
	return nil
}
