package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studyassist/core"
	"studyassist/logging"
)

// ErrAlreadyIngested is returned when a source exists and force was not set.
var ErrAlreadyIngested = errors.New("source already ingested")

// insertBatchSize bounds one store insert call.
const insertBatchSize = 25

// EmbeddingGateway is the ingest-side view of the embedding provider.
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore is the ingest-side view of the chunk store.
type DocumentStore interface {
	Insert(ctx context.Context, table string, records []core.EmbeddingRecord) error
	DeleteSource(ctx context.Context, table, sourceID string) (int, error)
	HasSource(ctx context.Context, table, sourceID string) (bool, error)
}

type Ingestor struct {
	store     DocumentStore
	embedder  EmbeddingGateway
	logger    *logging.Logger
	chunkSize int
	overlap   int
}

func NewIngestor(store DocumentStore, embedder EmbeddingGateway, logger *logging.Logger, chunkSize, overlap int) *Ingestor {
	return &Ingestor{
		store:     store,
		embedder:  embedder,
		logger:    logger,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// ChunksFromSegments chunks each transcript segment independently so
// timestamps stay attached to their originating segment. Chunk IDs are
// monotonic across the whole source.
func ChunksFromSegments(segments []core.Segment, sourceID, title string, chunkSize, overlap int) []core.ChunkRecord {
	var records []core.ChunkRecord
	chunkID := 0
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		for _, span := range Chunk(seg.Text, chunkSize, overlap) {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			records = append(records, core.ChunkRecord{
				SourceID:   sourceID,
				SourceType: core.SourceVideo,
				Title:      title,
				ChunkID:    chunkID,
				Text:       text,
				StartTime:  seg.Start,
				EndTime:    seg.End,
			})
			chunkID++
		}
	}
	return records
}

// ChunksFromPages applies the same window to each page's text. Chunk IDs
// are monotonic across the whole document.
func ChunksFromPages(pages []core.Page, sourceID, title string, chunkSize, overlap int) []core.ChunkRecord {
	var records []core.ChunkRecord
	chunkID := 0
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, span := range Chunk(page.Text, chunkSize, overlap) {
			text := strings.TrimSpace(span.Text)
			if text == "" {
				continue
			}
			records = append(records, core.ChunkRecord{
				SourceID:   sourceID,
				SourceType: core.SourcePDF,
				Title:      title,
				ChunkID:    chunkID,
				Text:       text,
				PageNumber: page.Number,
			})
			chunkID++
		}
	}
	return records
}

// Options tune one ingestion run. Zero values fall back to the
// ingestor's configured window.
type Options struct {
	Force     bool
	ChunkSize int
	Overlap   int
}

func (in *Ingestor) window(opts Options) (int, int) {
	size, overlap := in.chunkSize, in.overlap
	if opts.ChunkSize > 0 {
		size = opts.ChunkSize
	}
	if opts.Overlap > 0 {
		overlap = opts.Overlap
	}
	return size, overlap
}

// IngestVideo chunks, embeds and stores a video transcript. With force
// set, existing chunks for the source are deleted first; without it, an
// already-ingested source returns ErrAlreadyIngested.
func (in *Ingestor) IngestVideo(ctx context.Context, segments []core.Segment, sourceID, title string, opts Options) ([]core.EmbeddingRecord, error) {
	size, overlap := in.window(opts)
	chunks := ChunksFromSegments(segments, sourceID, title, size, overlap)
	return in.ingest(ctx, core.TableVideo, sourceID, chunks, opts.Force)
}

// IngestPDF chunks, embeds and stores a PDF's per-page text.
func (in *Ingestor) IngestPDF(ctx context.Context, pages []core.Page, sourceID, title string, opts Options) ([]core.EmbeddingRecord, error) {
	size, overlap := in.window(opts)
	chunks := ChunksFromPages(pages, sourceID, title, size, overlap)
	return in.ingest(ctx, core.TablePDF, sourceID, chunks, opts.Force)
}

func (in *Ingestor) ingest(ctx context.Context, table, sourceID string, chunks []core.ChunkRecord, force bool) ([]core.EmbeddingRecord, error) {
	exists, err := in.store.HasSource(ctx, table, sourceID)
	if err != nil {
		return nil, fmt.Errorf("check source %s: %w", sourceID, err)
	}
	if exists {
		if !force {
			return nil, ErrAlreadyIngested
		}
		deleted, err := in.store.DeleteSource(ctx, table, sourceID)
		if err != nil {
			return nil, fmt.Errorf("delete source %s: %w", sourceID, err)
		}
		in.logger.Info("re-ingesting source", "source_id", sourceID, "deleted", deleted)
	}

	// Embedding failures skip the chunk rather than aborting the run.
	stored := make([]core.EmbeddingRecord, 0, len(chunks))
	var batch []core.EmbeddingRecord
	for _, chunk := range chunks {
		vector, err := in.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			in.logger.Warn("embedding failed, skipping chunk",
				"source_id", sourceID, "chunk_id", chunk.ChunkID, "error", err)
			continue
		}
		record := core.EmbeddingRecord{ChunkRecord: chunk, Embedding: vector}
		batch = append(batch, record)
		if len(batch) >= insertBatchSize {
			if err := in.store.Insert(ctx, table, batch); err != nil {
				return stored, fmt.Errorf("insert batch: %w", err)
			}
			stored = append(stored, batch...)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := in.store.Insert(ctx, table, batch); err != nil {
			return stored, fmt.Errorf("insert batch: %w", err)
		}
		stored = append(stored, batch...)
	}

	in.logger.Info("ingestion complete",
		"source_id", sourceID, "table", table,
		"chunks", len(chunks), "stored", len(stored))
	return stored, nil
}
