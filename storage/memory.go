package storage

import (
	"context"
	"sync"

	"studyassist/core"
)

// MemoryStore keeps records in per-table slices. Default backend and
// the test double for the other two.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]core.EmbeddingRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: map[string][]core.EmbeddingRecord{}}
}

func (s *MemoryStore) Insert(_ context.Context, table string, records []core.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], records...)
	return nil
}

func (s *MemoryStore) Scan(_ context.Context, table string, limit int) ([]core.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[table]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]core.EmbeddingRecord, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemoryStore) DeleteSource(_ context.Context, table, sourceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	kept := rows[:0]
	deleted := 0
	for _, r := range rows {
		if r.SourceID == sourceID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.tables[table] = kept
	return deleted, nil
}

func (s *MemoryStore) HasSource(_ context.Context, table, sourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.tables[table] {
		if r.SourceID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
