package retrieval

import "studyassist/core"

// Confidence labels driving response-strategy selection.
const (
	ConfidenceHigh    = "high"
	ConfidencePartial = "partial"
	ConfidenceNone    = "none"
)

// lowBandKeep caps how many low-band documents survive when nothing
// clears the high threshold.
const lowBandKeep = 3

// Thresholds partition scored documents into confidence tiers.
// High > Low > Min must hold.
type Thresholds struct {
	High float64
	Low  float64
	Min  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.5, Low: 0.4, Min: 0.3}
}

// Classification is the working set plus its confidence label.
type Classification struct {
	Label      string
	WorkingSet []core.ScoredDocument
	BestScore  float64
}

// Classify applies the tiered fallback policy, in order:
//  1. documents >= High form the working set (label high)
//  2. else top 3 of the Low..High band (label partial)
//  3. else the single best document if it clears Min (label partial)
//  4. else the working set is empty (label none) — refuse upstream
//     without calling generation
func Classify(ranked []core.ScoredDocument, t Thresholds) Classification {
	var high, low []core.ScoredDocument
	for _, doc := range ranked {
		switch {
		case doc.Score >= t.High:
			high = append(high, doc)
		case doc.Score >= t.Low:
			low = append(low, doc)
		}
	}

	best := 0.0
	if len(ranked) > 0 {
		best = ranked[0].Score
	}

	if len(high) > 0 {
		return Classification{Label: ConfidenceHigh, WorkingSet: high, BestScore: best}
	}
	if len(low) > 0 {
		keep := low
		if len(keep) > lowBandKeep {
			keep = keep[:lowBandKeep]
		}
		return Classification{Label: ConfidencePartial, WorkingSet: keep, BestScore: best}
	}
	if len(ranked) > 0 && best >= t.Min {
		return Classification{Label: ConfidencePartial, WorkingSet: ranked[:1], BestScore: best}
	}
	return Classification{Label: ConfidenceNone, BestScore: best}
}
