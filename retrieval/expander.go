package retrieval

import (
	"sort"

	"studyassist/core"
)

// Expansion thresholds are relative to the minimum confidence
// threshold: same-source pulls are more permissive than cross-source.
const (
	sameSourceSlack  = 0.1
	crossSourceSlack = 0.05

	maxPDFAdditions   = 8
	maxVideoAdditions = 6
	maxCrossAdditions = 3
)

// Expand completes the working set around its top hit. Same-source
// chunks scoring at least Min-0.1 are appended — PDF additions ordered
// by (page, chunk ID), video additions chronologically. If the set then
// covers only one source type, up to 3 chunks of the other type at
// Min-0.05 are appended. Content-hash dedupe keeps every chunk at most
// once; expansion never removes original members.
func Expand(workingSet, ranked []core.ScoredDocument, t Thresholds) []core.ScoredDocument {
	if len(workingSet) == 0 {
		return workingSet
	}

	seen := make(map[string]struct{}, len(workingSet))
	for _, doc := range workingSet {
		seen[core.ContentHash(doc.Text)] = struct{}{}
	}
	out := workingSet

	top := workingSet[0]
	sameThreshold := t.Min - sameSourceSlack

	var additions []core.ScoredDocument
	for _, doc := range ranked {
		if doc.SourceType != top.SourceType || doc.SourceID != top.SourceID {
			continue
		}
		if doc.Score < sameThreshold {
			continue
		}
		if _, dup := seen[core.ContentHash(doc.Text)]; dup {
			continue
		}
		additions = append(additions, doc)
	}

	var limit int
	if top.SourceType == core.SourcePDF {
		sort.SliceStable(additions, func(i, j int) bool {
			if additions[i].PageNumber != additions[j].PageNumber {
				return additions[i].PageNumber < additions[j].PageNumber
			}
			return additions[i].ChunkID < additions[j].ChunkID
		})
		limit = maxPDFAdditions
	} else {
		sort.SliceStable(additions, func(i, j int) bool {
			return additions[i].StartTime < additions[j].StartTime
		})
		limit = maxVideoAdditions
	}
	if len(additions) > limit {
		additions = additions[:limit]
	}
	for _, doc := range additions {
		seen[core.ContentHash(doc.Text)] = struct{}{}
		out = append(out, doc)
	}

	// Cross-source balancing when one source type dominates entirely.
	hasPDF, hasVideo := false, false
	for _, doc := range out {
		switch doc.SourceType {
		case core.SourcePDF:
			hasPDF = true
		case core.SourceVideo:
			hasVideo = true
		}
	}
	var wantType string
	switch {
	case hasPDF && !hasVideo:
		wantType = core.SourceVideo
	case hasVideo && !hasPDF:
		wantType = core.SourcePDF
	default:
		return out
	}

	crossThreshold := t.Min - crossSourceSlack
	added := 0
	for _, doc := range ranked {
		if added >= maxCrossAdditions {
			break
		}
		if doc.SourceType != wantType || doc.Score < crossThreshold {
			continue
		}
		hash := core.ContentHash(doc.Text)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, doc)
		added++
	}
	return out
}
