package storage

import (
	"context"
	"testing"

	"studyassist/core"
)

func record(sourceID string, chunkID int) core.EmbeddingRecord {
	return core.EmbeddingRecord{
		ChunkRecord: core.ChunkRecord{
			SourceID:   sourceID,
			SourceType: core.SourceVideo,
			ChunkID:    chunkID,
			Text:       "chunk text",
		},
		Embedding: []float32{1, 0, 0},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	records := []core.EmbeddingRecord{record("a", 0), record("a", 1), record("b", 0)}
	if err := s.Insert(ctx, core.TableVideo, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := s.Scan(ctx, core.TableVideo, 10)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Scan returned %d rows, want 3", len(rows))
	}

	limited, err := s.Scan(ctx, core.TableVideo, 2)
	if err != nil {
		t.Fatalf("Scan limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited scan returned %d rows, want 2", len(limited))
	}

	// tables are isolated
	other, err := s.Scan(ctx, core.TablePDF, 10)
	if err != nil {
		t.Fatalf("Scan pdf: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("pdf table holds %d rows, want 0", len(other))
	}
}

func TestMemoryStoreDeleteSource(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Insert(ctx, core.TableVideo, []core.EmbeddingRecord{record("a", 0), record("a", 1), record("b", 0)})

	deleted, err := s.DeleteSource(ctx, core.TableVideo, "a")
	if err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d rows, want 2", deleted)
	}

	has, err := s.HasSource(ctx, core.TableVideo, "a")
	if err != nil {
		t.Fatalf("HasSource: %v", err)
	}
	if has {
		t.Error("source a still present after delete")
	}
	has, _ = s.HasSource(ctx, core.TableVideo, "b")
	if !has {
		t.Error("source b should survive the delete")
	}
}
