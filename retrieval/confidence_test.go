package retrieval

import (
	"testing"

	"studyassist/core"
)

func scoredDocs(scores ...float64) []core.ScoredDocument {
	docs := make([]core.ScoredDocument, len(scores))
	for i, s := range scores {
		docs[i] = core.ScoredDocument{
			EmbeddingRecord: core.EmbeddingRecord{
				ChunkRecord: core.ChunkRecord{SourceType: core.SourceVideo, ChunkID: i, Text: "chunk"},
			},
			Score: s,
		}
	}
	return docs
}

func TestClassify(t *testing.T) {
	thresholds := DefaultThresholds()
	cases := []struct {
		name      string
		scores    []float64
		wantLabel string
		wantSize  int
	}{
		{"high tier", []float64{0.9, 0.6, 0.2}, ConfidenceHigh, 2},
		{"low band top 3", []float64{0.45, 0.35}, ConfidencePartial, 2},
		{"low band capped", []float64{0.49, 0.48, 0.47, 0.46}, ConfidencePartial, 3},
		{"single best above min", []float64{0.31}, ConfidencePartial, 1},
		{"below min", []float64{0.1}, ConfidenceNone, 0},
		{"empty", nil, ConfidenceNone, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(scoredDocs(tc.scores...), thresholds)
			if got.Label != tc.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tc.wantLabel)
			}
			if len(got.WorkingSet) != tc.wantSize {
				t.Errorf("working set size = %d, want %d", len(got.WorkingSet), tc.wantSize)
			}
		})
	}
}

func TestClassifyHighExcludesLowBand(t *testing.T) {
	got := Classify(scoredDocs(0.9, 0.45, 0.2), DefaultThresholds())
	if got.Label != ConfidenceHigh {
		t.Fatalf("label = %q, want high", got.Label)
	}
	if len(got.WorkingSet) != 1 {
		t.Fatalf("working set = %d docs, want only the high-tier one", len(got.WorkingSet))
	}
	if got.WorkingSet[0].Score != 0.9 {
		t.Errorf("working set holds score %v, want 0.9", got.WorkingSet[0].Score)
	}
}
