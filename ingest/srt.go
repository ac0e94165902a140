package ingest

import (
	"strconv"
	"strings"

	"studyassist/core"
)

// ParseSRT parses SRT-like subtitle text into transcript segments.
// Blocks are separated by blank lines; the time line is the first line
// containing "-->" (an index line before it is tolerated). Timestamps
// are HH:MM:SS with an optional millisecond part that is dropped.
// Blocks without a time line or without text are skipped.
func ParseSRT(text string) []core.Segment {
	var segments []core.Segment
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}

		var timeLine string
		var textLines []string
		switch {
		case strings.Contains(lines[0], "-->"):
			timeLine = lines[0]
			textLines = lines[1:]
		case strings.Contains(lines[1], "-->"):
			timeLine = lines[1]
			textLines = lines[2:]
		default:
			continue
		}

		startRaw, endRaw, ok := strings.Cut(timeLine, "-->")
		if !ok {
			continue
		}
		start, err := parseTimecode(startRaw)
		if err != nil {
			continue
		}
		end, err := parseTimecode(endRaw)
		if err != nil {
			continue
		}

		var parts []string
		for _, l := range textLines {
			if l = strings.TrimSpace(l); l != "" {
				parts = append(parts, l)
			}
		}
		joined := strings.Join(parts, " ")
		if joined == "" {
			continue
		}
		segments = append(segments, core.Segment{Start: start, End: end, Text: joined})
	}
	return segments
}

// parseTimecode converts "HH:MM:SS[,ms]" (or "." before ms) to seconds.
func parseTimecode(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ",."); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	var seconds float64
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, err
		}
		seconds = seconds*60 + float64(v)
	}
	return seconds, nil
}
