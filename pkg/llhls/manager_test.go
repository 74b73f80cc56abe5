package llhls

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
)

func TestAddPartialRequiresIndependentFirst(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 2, MaxPartialsPerSegment: 6})
	if _, err := m.AddPartial(0.33334, false, false, nil); err == nil {
		t.Fatal("expected error for non-independent first partial")
	}
	if _, err := m.AddPartial(0.33334, true, false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddPartialEnforcesMaxPerSegment(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1, MaxPartialsPerSegment: 2})
	if _, err := m.AddPartial(0.33334, true, false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.AddPartial(0.33334, false, false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.AddPartial(0.33334, false, false, nil); err == nil {
		t.Fatal("expected TooManyPartials error")
	} else if errors.CodeOf(err) != errors.ErrCodeTooManyPartials {
		t.Fatalf("expected ErrCodeTooManyPartials, got %v", errors.CodeOf(err))
	}
}

func TestCompleteSegmentAdvancesMSN(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 2, MaxPartialsPerSegment: 6})
	m.AddPartial(0.33334, true, false, nil)
	if err := m.CompleteSegment(2.0, "segment_0.m4s", nil, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.AddPartial(0.33334, true, false, nil)
	if err := m.CompleteSegment(2.0, "segment_1.m4s", nil, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.nextMSN != 2 {
		t.Fatalf("expected nextMSN 2, got %d", m.nextMSN)
	}
}

func TestEndStreamRejectsFurtherMutation(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 2, MaxPartialsPerSegment: 6})
	m.EndStream()
	if _, err := m.AddPartial(0.33334, true, false, nil); errors.CodeOf(err) != errors.ErrCodeStreamAlreadyEnded {
		t.Fatalf("expected StreamAlreadyEnded, got %v", err)
	}
	if err := m.CompleteSegment(2.0, "s.m4s", nil, false); errors.CodeOf(err) != errors.ErrCodeStreamAlreadyEnded {
		t.Fatalf("expected StreamAlreadyEnded, got %v", err)
	}
}

func TestRenderRetainsPartsForRecentSegmentsOnly(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1, MaxPartialsPerSegment: 6, RetainedPartialSegments: 1, CanBlockReload: true})
	for seg := 0; seg < 3; seg++ {
		m.AddPartial(0.33334, true, false, nil)
		m.AddPartial(0.33334, false, false, nil)
		m.CompleteSegment(0.66668, "segment.m4s", nil, false)
	}
	text := m.Render()
	if strings.Count(text, "#EXT-X-PART:") != 2 {
		t.Fatalf("expected parts retained for exactly the last completed segment, got:\n%s", text)
	}
	if !strings.Contains(text, "#EXT-X-SERVER-CONTROL") {
		t.Fatal("expected EXT-X-SERVER-CONTROL")
	}
	if !strings.Contains(text, "#EXT-X-PRELOAD-HINT") {
		t.Fatal("expected a preload hint while the stream is live")
	}
}

func TestRenderDeltaSkipsOldSegments(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.2, SegmentTarget: 1, MaxPartialsPerSegment: 6, RetainedPartialSegments: 1, CanSkip: true})
	for seg := 0; seg < 10; seg++ {
		m.AddPartial(0.2, true, false, nil)
		m.CompleteSegment(1.0, "segment.m4s", nil, false)
	}
	text, ok := m.RenderDelta()
	if !ok {
		t.Fatal("expected a delta update to be possible with 10s of history and a 6s skip window")
	}
	if !strings.Contains(text, "#EXT-X-SKIP:SKIPPED-SEGMENTS=") {
		t.Fatalf("expected EXT-X-SKIP tag, got:\n%s", text)
	}
}

func TestRenderDeltaUnavailableWhenCanSkipDisabled(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.2, SegmentTarget: 1, CanSkip: false})
	m.AddPartial(0.2, true, false, nil)
	m.CompleteSegment(1.0, "segment.m4s", nil, false)
	if _, ok := m.RenderDelta(); ok {
		t.Fatal("expected no delta update when CanSkip is disabled")
	}
}

// TestBlockingAwaitWakesOnCompletion mirrors spec.md §8's scenario: a waiter
// blocks on msn=0/part=2 and is woken once the third partial (index 2) is
// added.
func TestBlockingAwaitWakesOnCompletion(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1, MaxPartialsPerSegment: 6})
	h := NewBlockingPlaylistHandler(m)

	partIndex := 2
	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		text, err := h.AwaitPlaylist(context.Background(), Request{MSN: 0, Part: &partIndex}, 2*time.Second)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- text
	}()

	deadline := time.After(time.Second)
	for h.PendingRequestCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("waiter never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	m.AddPartial(0.33334, true, false, nil)
	m.AddPartial(0.33334, false, false, nil)
	m.AddPartial(0.33334, false, false, nil)

	select {
	case text := <-resultCh:
		if !strings.Contains(text, "#EXT-X-PART:") {
			t.Fatalf("expected rendered playlist to contain parts:\n%s", text)
		}
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("await did not return after the awaited partial was added")
	}
}

func TestBlockingAwaitTimesOut(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1})
	h := NewBlockingPlaylistHandler(m)
	partIndex := 5
	_, err := h.AwaitPlaylist(context.Background(), Request{MSN: 0, Part: &partIndex}, 30*time.Millisecond)
	if errors.CodeOf(err) != errors.ErrCodeRequestTimeout {
		t.Fatalf("expected ErrCodeRequestTimeout, got %v", err)
	}
}

func TestBlockingAwaitFailsWhenEndStreamLeavesRequestUnsatisfied(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1})
	h := NewBlockingPlaylistHandler(m)
	partIndex := 0

	errCh := make(chan error, 1)
	go func() {
		_, err := h.AwaitPlaylist(context.Background(), Request{MSN: 0, Part: &partIndex}, 2*time.Second)
		errCh <- err
	}()

	deadline := time.After(time.Second)
	for h.PendingRequestCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("waiter never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	m.EndStream()

	select {
	case err := <-errCh:
		if errors.CodeOf(err) != errors.ErrCodeStreamAlreadyEnded {
			t.Fatalf("expected ErrCodeStreamAlreadyEnded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("await did not return after end_stream")
	}
}

func TestAwaitPlaylistFailsImmediatelyWhenStreamAlreadyEnded(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1})
	h := NewBlockingPlaylistHandler(m)
	m.EndStream()

	partIndex := 0
	_, err := h.AwaitPlaylist(context.Background(), Request{MSN: 0, Part: &partIndex}, time.Second)
	if errors.CodeOf(err) != errors.ErrCodeStreamAlreadyEnded {
		t.Fatalf("expected ErrCodeStreamAlreadyEnded, got %v", err)
	}
}

func TestAwaitPlaylistSucceedsWhenAlreadySatisfiedEvenAfterEndStream(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1})
	h := NewBlockingPlaylistHandler(m)
	m.AddPartial(0.33334, true, false, nil)
	if err := m.CompleteSegment(0.33334, "segment_0.m4s", nil, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.EndStream()

	text, err := h.AwaitPlaylist(context.Background(), Request{MSN: 0, Part: nil}, time.Second)
	if err != nil {
		t.Fatalf("expected an already-satisfied request to succeed despite end_stream, got %v", err)
	}
	if !strings.Contains(text, "#EXT-X-ENDLIST") {
		t.Fatalf("expected rendered playlist to contain EXT-X-ENDLIST:\n%s", text)
	}
}

func TestBlockingAwaitCancelledByContext(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 1})
	h := NewBlockingPlaylistHandler(m)
	ctx, cancel := context.WithCancel(context.Background())
	partIndex := 9

	errCh := make(chan error, 1)
	go func() {
		_, err := h.AwaitPlaylist(ctx, Request{MSN: 0, Part: &partIndex}, 2*time.Second)
		errCh <- err
	}()

	deadline := time.After(time.Second)
	for h.PendingRequestCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("waiter never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if errors.CodeOf(err) != errors.ErrCodeRequestCancelled {
			t.Fatalf("expected ErrCodeRequestCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("await did not return after context cancellation")
	}
}

func TestDetachStopsFurtherNotifications(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 2, MaxPartialsPerSegment: 6})
	h := NewBlockingPlaylistHandler(m)

	if len(m.handlers) != 1 {
		t.Fatalf("expected 1 attached handler, got %d", len(m.handlers))
	}
	h.Detach()
	if len(m.handlers) != 0 {
		t.Fatalf("expected 0 attached handlers after Detach, got %d", len(m.handlers))
	}

	// A second Detach (or detaching an already-unknown token) is a no-op.
	h.Detach()
}

func TestAttachBlockingHandlerReturnsDistinctTokens(t *testing.T) {
	m := NewManager(Config{PartTarget: 0.33334, SegmentTarget: 2})
	h1 := NewBlockingPlaylistHandler(m)
	h2 := NewBlockingPlaylistHandler(m)
	if h1.detachToken == "" || h2.detachToken == "" {
		t.Fatal("expected non-empty detach tokens")
	}
	if h1.detachToken == h2.detachToken {
		t.Fatal("expected distinct tokens for distinct handlers")
	}
	if len(m.handlers) != 2 {
		t.Fatalf("expected 2 attached handlers, got %d", len(m.handlers))
	}
}
