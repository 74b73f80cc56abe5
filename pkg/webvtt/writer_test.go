package webvtt

import (
	"strings"
	"testing"
	"time"
)

func TestAddCueEmitsOnTargetDurationBoundary(t *testing.T) {
	w := NewWriter(Config{TargetDuration: 4}, nil)

	if seg, err := w.AddCue(Cue{Start: 0, End: time.Second, Text: "one"}); err != nil || seg != nil {
		t.Fatalf("expected no emission for the first cue, got seg=%v err=%v", seg, err)
	}
	if seg, err := w.AddCue(Cue{Start: 2 * time.Second, End: 3 * time.Second, Text: "two"}); err != nil || seg != nil {
		t.Fatalf("expected no emission before the boundary, got seg=%v err=%v", seg, err)
	}

	seg, err := w.AddCue(Cue{Start: 5 * time.Second, End: 6 * time.Second, Text: "three"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg == nil {
		t.Fatal("expected a segment once accumulated duration reaches target")
	}
	if !strings.HasPrefix(seg.Text, "WEBVTT\n\n") {
		t.Fatalf("expected a WEBVTT header, got %q", seg.Text)
	}
	if strings.Contains(seg.Text, "three") {
		t.Fatal("expected the boundary-crossing cue to start the next segment, not this one")
	}
	if !strings.Contains(seg.Text, "one") || !strings.Contains(seg.Text, "two") {
		t.Fatalf("expected both buffered cues in the emitted segment, got %q", seg.Text)
	}
}

func TestRenderOmitsHoursWhenZero(t *testing.T) {
	c := Cue{Start: 1500 * time.Millisecond, End: 4 * time.Second, Text: "hi"}
	rendered := c.render()
	if !strings.HasPrefix(rendered, "00:01.500 --> 00:04.000") {
		t.Fatalf("expected hour-less timestamps, got %q", rendered)
	}
}

func TestRenderIncludesHoursWhenNonZero(t *testing.T) {
	c := Cue{Start: time.Hour + 2*time.Second, End: time.Hour + 5*time.Second, Text: "hi"}
	rendered := c.render()
	if !strings.HasPrefix(rendered, "1:00:02.000 --> 1:00:05.000") {
		t.Fatalf("expected hour-included timestamps, got %q", rendered)
	}
}

func TestRenderIncludesPositionAndAlignSettings(t *testing.T) {
	pos := 25
	c := Cue{Start: 0, End: time.Second, Text: "hi", Position: &pos, Align: "center"}
	rendered := c.render()
	if !strings.Contains(rendered, "position:25% align:center") {
		t.Fatalf("expected settings in the cue line, got %q", rendered)
	}
}

func TestAddCueRejectsOverlappingCue(t *testing.T) {
	w := NewWriter(Config{TargetDuration: 4}, nil)
	if _, err := w.AddCue(Cue{Start: 0, End: 2 * time.Second, Text: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := w.AddCue(Cue{Start: time.Second, End: 3 * time.Second, Text: "b"}); err == nil {
		t.Fatal("expected an error for an overlapping cue")
	}
}

func TestAddCueRejectsInvertedCue(t *testing.T) {
	w := NewWriter(Config{TargetDuration: 4}, nil)
	if _, err := w.AddCue(Cue{Start: 2 * time.Second, End: time.Second, Text: "a"}); err == nil {
		t.Fatal("expected an error when end precedes start")
	}
}

func TestFinishFlushesRemainingCues(t *testing.T) {
	w := NewWriter(Config{TargetDuration: 100}, nil)
	if _, err := w.AddCue(Cue{Start: 0, End: time.Second, Text: "only"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seg, err := w.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seg == nil || !strings.Contains(seg.Text, "only") {
		t.Fatalf("expected Finish to flush the buffered cue, got %v", seg)
	}

	if _, err := w.AddCue(Cue{Start: 2 * time.Second, End: 3 * time.Second, Text: "late"}); err == nil {
		t.Fatal("expected AddCue after Finish to fail")
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	w := NewWriter(Config{TargetDuration: 100}, nil)
	if _, err := w.Finish(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seg, err := w.Finish()
	if err != nil || seg != nil {
		t.Fatalf("expected a no-op on the second Finish, got seg=%v err=%v", seg, err)
	}
}
