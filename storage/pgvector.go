package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"studyassist/core"
)

const embeddingDim = 1536

// PgStore is the Postgres backend. The embedding column uses pgvector
// for storage only; Scan is a plain SELECT with a row limit and no
// vector ordering, keeping ranking identical to the other backends.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(ctx context.Context, dbURL string) (*PgStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgStore{pool: pool}
	if err := s.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) ensureTables(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	for _, table := range []string{core.TableVideo, core.TablePDF} {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id SERIAL PRIMARY KEY,
				source_id VARCHAR(255) NOT NULL,
				source_type VARCHAR(16) NOT NULL,
				title VARCHAR(500),
				chunk_id INT NOT NULL,
				content TEXT NOT NULL,
				start_time FLOAT,
				end_time FLOAT,
				page_number INT,
				embedding vector(%d),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(source_id, chunk_id)
			);
		`, table, embeddingDim)
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

// checkTable guards the table name interpolated into SQL.
func checkTable(table string) error {
	if table != core.TableVideo && table != core.TablePDF {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

func (s *PgStore) Insert(ctx context.Context, table string, records []core.EmbeddingRecord) error {
	if err := checkTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (source_id, source_type, title, chunk_id, content, start_time, end_time, page_number, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_id, chunk_id) DO UPDATE
		SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
	`, table)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			r.SourceID, r.SourceType, r.Title, r.ChunkID, r.Text,
			r.StartTime, r.EndTime, r.PageNumber, pgvector.NewVector(r.Embedding))
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

func (s *PgStore) Scan(ctx context.Context, table string, limit int) ([]core.EmbeddingRecord, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT source_id, source_type, title, chunk_id, content, start_time, end_time, page_number, embedding
		FROM %s LIMIT $1
	`, table)
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.EmbeddingRecord
	for rows.Next() {
		var r core.EmbeddingRecord
		var vec pgvector.Vector
		if err := rows.Scan(&r.SourceID, &r.SourceType, &r.Title, &r.ChunkID, &r.Text,
			&r.StartTime, &r.EndTime, &r.PageNumber, &vec); err != nil {
			// one bad row never aborts the pass
			continue
		}
		r.Embedding = vec.Slice()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PgStore) DeleteSource(ctx context.Context, table, sourceID string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE source_id = $1", table), sourceID)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStore) HasSource(ctx context.Context, table, sourceID string) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	var exists bool
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE source_id = $1)", table), sourceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check source in %s: %w", table, err)
	}
	return exists, nil
}

func (s *PgStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
