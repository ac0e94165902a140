package retrieval

import (
	"fmt"
	"testing"

	"studyassist/core"
)

func pdfDoc(sourceID string, chunkID, page int, score float64) core.ScoredDocument {
	return core.ScoredDocument{
		EmbeddingRecord: core.EmbeddingRecord{
			ChunkRecord: core.ChunkRecord{
				SourceID:   sourceID,
				SourceType: core.SourcePDF,
				ChunkID:    chunkID,
				PageNumber: page,
				Text:       fmt.Sprintf("pdf %s chunk %d", sourceID, chunkID),
			},
		},
		Score: score,
	}
}

func videoDoc(sourceID string, chunkID int, start, score float64) core.ScoredDocument {
	return core.ScoredDocument{
		EmbeddingRecord: core.EmbeddingRecord{
			ChunkRecord: core.ChunkRecord{
				SourceID:   sourceID,
				SourceType: core.SourceVideo,
				ChunkID:    chunkID,
				StartTime:  start,
				Text:       fmt.Sprintf("video %s chunk %d", sourceID, chunkID),
			},
		},
		Score: score,
	}
}

func TestExpandPDFSameSource(t *testing.T) {
	thresholds := DefaultThresholds()
	top := pdfDoc("pdf1", 5, 2, 0.8)
	ranked := []core.ScoredDocument{
		top,
		pdfDoc("pdf1", 3, 1, 0.35),
		pdfDoc("pdf1", 9, 4, 0.25),
		pdfDoc("pdf1", 1, 1, 0.3),
		pdfDoc("pdf2", 0, 1, 0.6),  // different source, not pulled
		pdfDoc("pdf1", 7, 3, 0.1),  // below Min-0.1
		videoDoc("vid1", 0, 30, 0.28),
	}

	out := Expand([]core.ScoredDocument{top}, ranked, thresholds)

	// no duplicated chunk within the same source
	seen := map[string]bool{}
	for _, doc := range out {
		key := fmt.Sprintf("%s/%d", doc.SourceID, doc.ChunkID)
		if seen[key] {
			t.Errorf("duplicate chunk %s in expanded set", key)
		}
		seen[key] = true
	}

	// same-source additions after the original member are ordered by (page, chunk_id)
	var samePDF []core.ScoredDocument
	for _, doc := range out[1:] {
		if doc.SourceID == "pdf1" {
			samePDF = append(samePDF, doc)
		}
	}
	if len(samePDF) != 3 {
		t.Fatalf("expected 3 same-source additions, got %d", len(samePDF))
	}
	for i := 1; i < len(samePDF); i++ {
		prev, cur := samePDF[i-1], samePDF[i]
		if cur.PageNumber < prev.PageNumber ||
			(cur.PageNumber == prev.PageNumber && cur.ChunkID < prev.ChunkID) {
			t.Errorf("additions out of order at %d: page %d chunk %d after page %d chunk %d",
				i, cur.PageNumber, cur.ChunkID, prev.PageNumber, prev.ChunkID)
		}
	}

	// cross-source balancing pulled the video chunk (>= Min-0.05)
	foundVideo := false
	for _, doc := range out {
		if doc.SourceType == core.SourceVideo {
			foundVideo = true
		}
	}
	if !foundVideo {
		t.Error("expected a cross-source video addition")
	}

	// original member survives at the front
	if out[0].SourceID != "pdf1" || out[0].ChunkID != 5 {
		t.Error("expansion must not displace the original working set")
	}
}

func TestExpandVideoChronological(t *testing.T) {
	thresholds := DefaultThresholds()
	top := videoDoc("vid1", 4, 120, 0.7)
	ranked := []core.ScoredDocument{
		top,
		videoDoc("vid1", 9, 300, 0.3),
		videoDoc("vid1", 1, 15, 0.25),
		videoDoc("vid1", 6, 180, 0.4),
	}
	out := Expand([]core.ScoredDocument{top}, ranked, thresholds)

	var added []core.ScoredDocument
	for _, doc := range out[1:] {
		added = append(added, doc)
	}
	if len(added) != 3 {
		t.Fatalf("expected 3 additions, got %d", len(added))
	}
	for i := 1; i < len(added); i++ {
		if added[i].StartTime < added[i-1].StartTime {
			t.Errorf("video additions not chronological at %d", i)
		}
	}
}

func TestExpandCapsAdditions(t *testing.T) {
	thresholds := DefaultThresholds()
	top := pdfDoc("pdf1", 0, 1, 0.8)
	ranked := []core.ScoredDocument{top}
	for i := 1; i <= 12; i++ {
		ranked = append(ranked, pdfDoc("pdf1", i, i, 0.4))
	}
	out := Expand([]core.ScoredDocument{top}, ranked, thresholds)
	// 1 original + at most 8 same-source additions
	if len(out) > 9 {
		t.Fatalf("expanded set size %d exceeds the PDF cap", len(out))
	}
}

func TestExpandEmptyWorkingSet(t *testing.T) {
	out := Expand(nil, scoredDocs(0.9), DefaultThresholds())
	if len(out) != 0 {
		t.Fatalf("expanding an empty working set returned %d docs", len(out))
	}
}
