// Package retrieval scores scanned chunk candidates against a query
// embedding and applies the confidence and expansion policy.
package retrieval

import (
	"context"
	"math"
	"sort"

	"studyassist/core"
	"studyassist/logging"
)

// minSearchK is the floor on how many candidates a query considers.
const minSearchK = 20

// CandidateSource is the ranker's view of the document store.
type CandidateSource interface {
	Scan(ctx context.Context, table string, limit int) ([]core.EmbeddingRecord, error)
}

type Ranker struct {
	store   CandidateSource
	logger  *logging.Logger
	hardCap int
}

func NewRanker(store CandidateSource, logger *logging.Logger, hardCap int) *Ranker {
	if hardCap <= 0 {
		hardCap = 1000
	}
	return &Ranker{store: store, logger: logger, hardCap: hardCap}
}

// Cosine returns the cosine similarity of two vectors, 0 when either
// norm is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores candidates against the query vector and sorts descending.
// Candidates with a mismatched dimension are skipped, not errored. The
// sort is stable, so ties keep scan order.
func Rank(queryVector []float32, candidates []core.EmbeddingRecord) []core.ScoredDocument {
	scored := make([]core.ScoredDocument, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) != len(queryVector) {
			continue
		}
		scored = append(scored, core.ScoredDocument{
			EmbeddingRecord: c,
			Score:           Cosine(queryVector, c.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// Search fetches candidates from both tables and ranks them. There is
// no index, so the per-table fetch is capped at min(3*searchK, hardCap)
// with searchK = max(topK, 20) — a latency/precision trade-off.
func (r *Ranker) Search(ctx context.Context, queryVector []float32, topK int) ([]core.ScoredDocument, error) {
	searchK := topK
	if searchK < minSearchK {
		searchK = minSearchK
	}
	fetchLimit := 3 * searchK
	if fetchLimit > r.hardCap {
		fetchLimit = r.hardCap
	}

	var candidates []core.EmbeddingRecord
	for _, table := range []string{core.TableVideo, core.TablePDF} {
		rows, err := r.store.Scan(ctx, table, fetchLimit)
		if err != nil {
			r.logger.Warn("candidate scan failed", "table", table, "error", err)
			continue
		}
		candidates = append(candidates, rows...)
	}

	scored := Rank(queryVector, candidates)
	if len(scored) > searchK {
		scored = scored[:searchK]
	}
	return scored, nil
}
