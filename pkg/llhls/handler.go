package llhls

import (
	"context"
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
)

// Request describes a blocking playlist request, per spec.md §4.8: a client
// polling for msn.part to become available (part is nil for a whole-segment
// wait).
type Request struct {
	MSN  uint64
	Part *int
}

// satisfiedBy reports whether m's current state already covers req, without
// locking — callers must hold m.mu. It does not consider end_stream: a
// request outstanding when the stream ends must fail with
// StreamAlreadyEnded rather than be treated as satisfied, per spec.md §4.8.
func (req Request) satisfiedBy(m *Manager) bool {
	for i := range m.records {
		rec := &m.records[i]
		if rec.MSN < req.MSN {
			continue
		}
		if rec.MSN > req.MSN {
			return true
		}
		if req.Part == nil {
			return rec.Completed
		}
		if rec.Completed || len(rec.Partials) > *req.Part {
			return true
		}
		return false
	}
	return false
}

type waiter struct {
	req Request
	ch  chan struct{}

	// endedUnsatisfied is set by wake before ch is closed when the waiter is
	// being woken by end_stream without its request ever being satisfied.
	endedUnsatisfied bool
}

// BlockingPlaylistHandler implements the long-poll half of LL-HLS delivery:
// AwaitPlaylist blocks until the manager's state satisfies the requested
// msn/part, the stream ends, the caller's context is cancelled, or timeout
// elapses — whichever comes first. Grounded on pkg/room/reconnection.go's
// select{ctx.Done()/time.After(delay)} retry loop, generalized here to a
// single wake-on-mutation wait instead of a bounded retry count.
type BlockingPlaylistHandler struct {
	mgr         *Manager
	detachToken string

	mu      sync.Mutex
	waiters []*waiter
}

// NewBlockingPlaylistHandler creates a handler attached to mgr.
func NewBlockingPlaylistHandler(mgr *Manager) *BlockingPlaylistHandler {
	h := &BlockingPlaylistHandler{mgr: mgr}
	h.detachToken = mgr.AttachBlockingHandler(h)
	return h
}

// Detach unsubscribes h from its manager, per spec.md §9's explicit
// teardown. Any waiters still blocked in AwaitPlaylist are unaffected; they
// resolve on their own context/timeout.
func (h *BlockingPlaylistHandler) Detach() {
	h.mgr.DetachBlockingHandler(h.detachToken)
}

// AwaitPlaylist blocks until req is satisfied by mgr's state, then returns
// the rendered playlist. It returns RequestCancelled if ctx is done first,
// RequestTimeout if timeout elapses first (timeout <= 0 means no timeout),
// and StreamAlreadyEnded if the stream has already ended, or ends while
// req is still outstanding, without req ever being satisfied, per spec.md
// §4.8.
func (h *BlockingPlaylistHandler) AwaitPlaylist(ctx context.Context, req Request, timeout time.Duration) (string, error) {
	h.mgr.mu.Lock()
	if req.satisfiedBy(h.mgr) {
		text := h.mgr.renderLocked()
		h.mgr.mu.Unlock()
		return text, nil
	}
	if h.mgr.ended {
		h.mgr.mu.Unlock()
		return "", errors.New(errors.ErrCodeStreamAlreadyEnded, "await_playlist: stream already ended")
	}
	w := &waiter{req: req, ch: make(chan struct{})}
	h.mu.Lock()
	h.waiters = append(h.waiters, w)
	h.mu.Unlock()
	h.mgr.mu.Unlock()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-ctx.Done():
		h.removeWaiter(w)
		return "", errors.New(errors.ErrCodeRequestCancelled, "await_playlist: context cancelled")
	case <-timeoutCh:
		h.removeWaiter(w)
		return "", errors.New(errors.ErrCodeRequestTimeout, "await_playlist: timed out waiting for playlist update")
	case <-w.ch:
		if w.endedUnsatisfied {
			return "", errors.New(errors.ErrCodeStreamAlreadyEnded, "await_playlist: stream ended before request was satisfied")
		}
		h.mgr.mu.Lock()
		text := h.mgr.renderLocked()
		h.mgr.mu.Unlock()
		return text, nil
	}
}

// wake is called by Manager after every mutation. It checks every pending
// waiter against the manager's current state and closes the channel of
// those now satisfied. Once the stream has ended, any waiter whose request
// was never satisfied is also woken, but flagged to resolve with
// StreamAlreadyEnded rather than success.
func (h *BlockingPlaylistHandler) wake() {
	h.mgr.mu.Lock()
	ended := h.mgr.ended
	var ready []*waiter
	h.mu.Lock()
	remaining := h.waiters[:0]
	for _, w := range h.waiters {
		switch {
		case w.req.satisfiedBy(h.mgr):
			ready = append(ready, w)
		case ended:
			w.endedUnsatisfied = true
			ready = append(ready, w)
		default:
			remaining = append(remaining, w)
		}
	}
	h.waiters = remaining
	h.mu.Unlock()
	h.mgr.mu.Unlock()

	for _, w := range ready {
		close(w.ch)
	}
}

func (h *BlockingPlaylistHandler) removeWaiter(target *waiter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, w := range h.waiters {
		if w == target {
			h.waiters = append(h.waiters[:i], h.waiters[i+1:]...)
			return
		}
	}
}

// PendingRequestCount reports how many AwaitPlaylist calls are currently
// blocked on this handler. Exists for tests.
func (h *BlockingPlaylistHandler) PendingRequestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.waiters)
}
