// Package storage provides the chunk document store: a scan-only
// contract with in-memory, Postgres/pgvector and Milvus backends.
// Ranking happens in-process, so every backend only has to return rows.
package storage

import (
	"context"

	"studyassist/config"
	"studyassist/core"
	"studyassist/logging"
)

// DocumentStore persists embedded chunk records. Scan is a plain
// bounded read with no ordering or index guarantees.
type DocumentStore interface {
	Insert(ctx context.Context, table string, records []core.EmbeddingRecord) error
	Scan(ctx context.Context, table string, limit int) ([]core.EmbeddingRecord, error)
	DeleteSource(ctx context.Context, table, sourceID string) (int, error)
	HasSource(ctx context.Context, table, sourceID string) (bool, error)
	Close(ctx context.Context) error
}

// Open selects a backend from cfg.Store ("memory", "pgvector",
// "milvus"). Backend init failure falls back to the in-memory store
// with a logged warning, never an error.
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) DocumentStore {
	switch cfg.Store {
	case "pgvector":
		s, err := NewPgStore(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Warn("pgvector store init failed, falling back to memory store", "error", err)
			return NewMemoryStore()
		}
		logger.Info("using pgvector store")
		return s
	case "milvus":
		s, err := NewMilvusStore(ctx, cfg.MilvusAddr)
		if err != nil {
			logger.Warn("milvus store init failed, falling back to memory store", "error", err)
			return NewMemoryStore()
		}
		logger.Info("using milvus store")
		return s
	case "", "memory":
		return NewMemoryStore()
	default:
		logger.Warn("unknown store kind, using memory store", "store", cfg.Store)
		return NewMemoryStore()
	}
}
