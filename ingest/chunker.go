// Package ingest turns raw transcript segments and PDF pages into
// embedded chunk records ready for the document store.
package ingest

import (
	"strings"

	"studyassist/core"
)

// PositionedSegment is a segment augmented with its character range in
// the joined full text. Ranges are monotonic and non-overlapping.
type PositionedSegment struct {
	core.Segment
	CharStart int `json:"char_start"`
	CharEnd   int `json:"char_end"`
}

// BuildFullText joins segments into one position-addressable string.
// Segments are joined with a single space; segments whose trimmed text
// is empty are skipped and consume no position.
func BuildFullText(segments []core.Segment) (string, []PositionedSegment) {
	var pieces []string
	augmented := make([]PositionedSegment, 0, len(segments))
	cursor := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if len(pieces) > 0 {
			pieces = append(pieces, " ")
			cursor++
		}
		pieces = append(pieces, text)
		segStart := cursor
		segEnd := cursor + len([]rune(text))
		augmented = append(augmented, PositionedSegment{
			Segment:   core.Segment{Start: seg.Start, End: seg.End, Text: text},
			CharStart: segStart,
			CharEnd:   segEnd,
		})
		cursor = segEnd
	}
	return strings.Join(pieces, ""), augmented
}

// Chunk slides a fixed-size overlapping window over text. Positions are
// rune offsets. Rules:
//   - overlap >= chunkSize is clamped to chunkSize-1
//   - a step that makes no progress jumps to the window end instead
//   - a hard iteration cap bounds the loop on pathological inputs
//   - empty input yields no chunks
func Chunk(text string, chunkSize, overlap int) []core.ChunkSpan {
	runes := []rune(text)
	n := len(runes)
	if n == 0 || chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	step := chunkSize - overlap
	maxIterations := 2 * (n/step + 1)

	var chunks []core.ChunkSpan
	start := 0
	for i := 0; start < n && i < maxIterations; i++ {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, core.ChunkSpan{
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
		next := end - overlap
		if next <= start {
			next = end
		}
		if next >= n {
			break
		}
		start = next
	}
	return chunks
}

// MapTimestamps maps a chunk's character range back to the time span of
// the segments it overlaps. A segment overlaps when its range intersects
// the chunk's half-open range. Returns false when no segment overlaps.
func MapTimestamps(chunkStart, chunkEnd int, segments []PositionedSegment) (float64, float64, bool) {
	var first, last *PositionedSegment
	for i := range segments {
		seg := &segments[i]
		if seg.CharStart >= chunkEnd {
			break
		}
		if seg.CharEnd <= chunkStart {
			continue
		}
		if first == nil {
			first = seg
		}
		last = seg
	}
	if first == nil {
		return 0, 0, false
	}
	return first.Start, last.End, true
}
