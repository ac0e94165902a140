package ingest

import "testing"

const sampleSRT = `1
00:00:00,000 --> 00:00:02,000
Hello everyone,

2
00:00:02,000 --> 00:00:04,500
Welcome to this video
on AI.

3
00:01:04,000 --> 00:01:06,000

4
not a time line
still not a time line
`

func TestParseSRT(t *testing.T) {
	segments := ParseSRT(sampleSRT)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}

	if segments[0].Text != "Hello everyone," {
		t.Errorf("segment 0 text = %q", segments[0].Text)
	}
	if segments[0].Start != 0 || segments[0].End != 2 {
		t.Errorf("segment 0 times = (%v,%v), want (0,2)", segments[0].Start, segments[0].End)
	}

	// multi-line text joined with spaces, milliseconds dropped
	if segments[1].Text != "Welcome to this video on AI." {
		t.Errorf("segment 1 text = %q", segments[1].Text)
	}
	if segments[1].Start != 2 || segments[1].End != 4 {
		t.Errorf("segment 1 times = (%v,%v), want (2,4)", segments[1].Start, segments[1].End)
	}
}

func TestParseSRTTimeLineFirst(t *testing.T) {
	srt := "00:01:30,000 --> 00:01:35,000\nNo index line here."
	segments := ParseSRT(srt)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Start != 90 || segments[0].End != 95 {
		t.Errorf("times = (%v,%v), want (90,95)", segments[0].Start, segments[0].End)
	}
}

func TestParseSRTEmpty(t *testing.T) {
	if got := ParseSRT(""); len(got) != 0 {
		t.Fatalf("expected no segments, got %d", len(got))
	}
}
