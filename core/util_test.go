package core

import "testing"

func TestFormatTime(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00"},
		{65, "01:05"},
		{3599, "59:59"},
		{-5, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.sec); got != tc.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tc.sec, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short, 10) = %q", got)
	}
	if got := Truncate("abcdefghij", 4); got != "abcd..." {
		t.Errorf("Truncate = %q, want abcd...", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("Truncate with no limit = %q", got)
	}
}

func TestContentHashIgnoresSurroundingSpace(t *testing.T) {
	if ContentHash("  some text ") != ContentHash("some text") {
		t.Error("hash should ignore surrounding whitespace")
	}
	if ContentHash("a") == ContentHash("b") {
		t.Error("different content must hash differently")
	}
}
