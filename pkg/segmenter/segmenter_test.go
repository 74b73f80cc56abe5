package segmenter

import "testing"

func frame(ts, dur uint32, keyframe bool) EncodedFrame {
	return EncodedFrame{Data: []byte{0x01, 0x02}, Timestamp: ts, Duration: dur, Keyframe: keyframe}
}

func TestVideoSegmenterKeyframeBoundary(t *testing.T) {
	cfg := Config{TargetDuration: 2, Timescale: 1, NamingPattern: "segment_%d.m4s"}
	s := NewVideoSegmenter(cfg, nil, nil)

	if _, err := s.Ingest(frame(0, 1, true)); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if seg, err := s.Ingest(frame(1, 1, false)); err != nil || seg != nil {
		t.Fatalf("expected no emission yet, got seg=%v err=%v", seg, err)
	}
	// accumulated duration now 2 (>= target); boundary waits for next keyframe
	if seg, err := s.Ingest(frame(2, 1, false)); err != nil || seg != nil {
		t.Fatalf("expected boundary held for non-keyframe, got seg=%v err=%v", seg, err)
	}
	seg, err := s.Ingest(frame(3, 1, true))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if seg == nil {
		t.Fatal("expected a segment on next keyframe after target duration reached")
	}
	if seg.Duration != 3 {
		t.Fatalf("expected emitted duration 3, got %v", seg.Duration)
	}
}

func TestVideoSegmenterRejectsNonKeyframeFirst(t *testing.T) {
	cfg := Config{TargetDuration: 2, Timescale: 1}
	s := NewVideoSegmenter(cfg, nil, nil)
	if _, err := s.Ingest(frame(0, 1, false)); err == nil {
		t.Fatal("expected KeyframeExpected error for non-keyframe first frame")
	}
}

func TestAudioSegmenterBoundary(t *testing.T) {
	cfg := Config{TargetDuration: 2, Timescale: 1}
	s := NewAudioSegmenter(cfg, nil)
	s.Ingest(frame(0, 1, false))
	seg, err := s.Ingest(frame(1, 1, false))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if seg == nil {
		t.Fatal("expected audio segmenter to close at target duration without keyframe gating")
	}
}

func TestForceSegmentBoundary(t *testing.T) {
	cfg := Config{TargetDuration: 10, Timescale: 1}
	s := NewAudioSegmenter(cfg, nil)
	s.Ingest(frame(0, 1, false))
	seg, err := s.ForceSegmentBoundary()
	if err != nil {
		t.Fatalf("force boundary: %v", err)
	}
	if seg == nil {
		t.Fatal("expected forced segment emission")
	}
	if seg2, _ := s.ForceSegmentBoundary(); seg2 != nil {
		t.Fatal("expected no-op on empty buffer")
	}
}

func TestFinishFlushesRemainder(t *testing.T) {
	cfg := Config{TargetDuration: 10, Timescale: 1}
	s := NewAudioSegmenter(cfg, nil)
	s.Ingest(frame(0, 3, false))
	seg, err := s.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if seg == nil || seg.Duration != 3 {
		t.Fatalf("expected final short segment, got %v", seg)
	}
	if _, err := s.Ingest(frame(3, 1, false)); err == nil {
		t.Fatal("expected SegmenterFinished error after finish()")
	}
}

func TestOutOfOrderTimestampRejected(t *testing.T) {
	cfg := Config{TargetDuration: 10, Timescale: 1}
	s := NewAudioSegmenter(cfg, nil)
	s.Ingest(frame(5, 1, false))
	if _, err := s.Ingest(frame(3, 1, false)); err == nil {
		t.Fatal("expected OutOfOrderTimestamp error")
	}
}

func TestRingBufferRetention(t *testing.T) {
	cfg := Config{TargetDuration: 1, Timescale: 1, RingBufferSize: 2}
	s := NewAudioSegmenter(cfg, nil)
	for i := uint32(0); i < 5; i++ {
		s.Ingest(frame(i, 1, false))
	}
	recent := s.RecentSegments()
	if len(recent) != 2 {
		t.Fatalf("expected ring buffer capped at 2, got %d", len(recent))
	}
}
