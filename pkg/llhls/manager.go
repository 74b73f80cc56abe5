// Package llhls implements the LLHLSManager and BlockingPlaylistHandler of
// spec.md §4.7-4.8: a mutex-serialized record of completed segments and
// in-progress partials, rendered to an LL-HLS playlist, with long-poll
// blocking reads that wake on mutation. The manager's segment-record
// bookkeeping is grounded on the teacher SDK's playlist.go
// (AddSegment/segment-deque style); the blocking-await half is grounded on
// pkg/room/reconnection.go's select{ctx.Done()/time.After(delay)} pattern,
// generalized from a retry loop to a wake-on-mutation wait.
package llhls

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/manifest"
)

// Config configures one LLHLSManager, per spec.md §4.7.
type Config struct {
	PartTarget              float64
	MaxPartialsPerSegment   uint16
	SegmentTarget           float64
	RetainedPartialSegments uint16
	CanBlockReload          bool
	CanSkip                 bool
	InitSegmentURI          string
	SegmentNamingPattern    string // printf with one %d (msn)
	PartNamingPattern       string // printf with two %d (msn, part index)
}

func (c *Config) segmentPattern() string {
	if c.SegmentNamingPattern != "" {
		return c.SegmentNamingPattern
	}
	return "segment_%d.m4s"
}

func (c *Config) partPattern() string {
	if c.PartNamingPattern != "" {
		return c.PartNamingPattern
	}
	return "segment_%d.part_%d.m4s"
}

// PartialSegment is one EXT-X-PART entry, per spec.md §4.7.
type PartialSegment struct {
	Index       int
	URI         string
	Duration    float64
	Independent bool
	Gap         bool
	ByteRange   *manifest.ByteRange
}

// SegmentRecord is one tracked segment, completed or in progress.
type SegmentRecord struct {
	MSN              uint64
	Completed        bool
	Partials         []PartialSegment
	URI              string
	Duration         float64
	ProgramDateTime  *time.Time
	HasDiscontinuity bool
}

// Manager is the LL-HLS playlist state machine of spec.md §4.7.
type Manager struct {
	mu sync.Mutex

	cfg Config

	independentSegments bool
	records              []SegmentRecord // completed + exactly one building record at the tail, when present
	nextMSN              uint64
	ended                bool

	handlers map[string]*BlockingPlaylistHandler
}

// NewManager creates an LLHLSManager.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) building() *SegmentRecord {
	if len(m.records) == 0 {
		return nil
	}
	last := &m.records[len(m.records)-1]
	if last.Completed {
		return nil
	}
	return last
}

// AddPartial appends a partial segment to the currently building segment,
// starting a new one if none is in progress. The first partial of any
// segment must be independent.
func (m *Manager) AddPartial(duration float64, independent bool, gap bool, byteRange *manifest.ByteRange) (*PartialSegment, error) {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return nil, errors.New(errors.ErrCodeStreamAlreadyEnded, "cannot add a partial after end_stream")
	}

	rec := m.building()
	if rec == nil {
		m.records = append(m.records, SegmentRecord{MSN: m.nextMSN})
		rec = &m.records[len(m.records)-1]
	}

	if len(rec.Partials) == 0 && !independent {
		m.mu.Unlock()
		return nil, errors.New(errors.ErrCodeInvalidPartial, "first partial of a segment must be independent")
	}
	if m.cfg.MaxPartialsPerSegment > 0 && uint16(len(rec.Partials)) >= m.cfg.MaxPartialsPerSegment {
		m.mu.Unlock()
		return nil, errors.Newf(errors.ErrCodeTooManyPartials, "segment %d already has %d partials, call complete_segment first", rec.MSN, len(rec.Partials))
	}

	p := PartialSegment{
		Index:       len(rec.Partials),
		URI:         fmt.Sprintf(m.cfg.partPattern(), rec.MSN, len(rec.Partials)),
		Duration:    duration,
		Independent: independent,
		Gap:         gap,
		ByteRange:   byteRange,
	}
	rec.Partials = append(rec.Partials, p)
	m.mu.Unlock()
	m.notify()
	return &p, nil
}

// CompleteSegment marks the currently building segment completed and
// advances the MSN counter.
func (m *Manager) CompleteSegment(duration float64, uri string, programDateTime *time.Time, hasDiscontinuity bool) error {
	m.mu.Lock()
	if m.ended {
		m.mu.Unlock()
		return errors.New(errors.ErrCodeStreamAlreadyEnded, "cannot complete a segment after end_stream")
	}

	rec := m.building()
	if rec == nil {
		m.records = append(m.records, SegmentRecord{MSN: m.nextMSN})
		rec = &m.records[len(m.records)-1]
	}
	rec.Completed = true
	rec.Duration = duration
	rec.URI = uri
	rec.ProgramDateTime = programDateTime
	rec.HasDiscontinuity = hasDiscontinuity
	m.nextMSN++
	m.mu.Unlock()
	m.notify()
	return nil
}

// UpdateMetadata applies injected header flags, per spec.md §4.7.
func (m *Manager) UpdateMetadata(independentSegments bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.independentSegments = independentSegments
}

// EndStream marks the stream ended; subsequent renders include
// EXT-X-ENDLIST and omit the preload hint. Wakes every pending waiter with
// StreamAlreadyEnded.
func (m *Manager) EndStream() {
	m.mu.Lock()
	m.ended = true
	m.mu.Unlock()
	m.notify()
}

// AttachBlockingHandler registers h to be notified on every mutation,
// returning a detach token per spec.md §9's "explicit subscription
// returning a detachable token" design note. The manager holds only this
// non-owning reference; DetachBlockingHandler is the explicit teardown.
func (m *Manager) AttachBlockingHandler(h *BlockingPlaylistHandler) string {
	token := uuid.New().String()
	m.mu.Lock()
	if m.handlers == nil {
		m.handlers = make(map[string]*BlockingPlaylistHandler)
	}
	m.handlers[token] = h
	m.mu.Unlock()
	return token
}

// DetachBlockingHandler removes the handler registered under token. A
// handler that has already detached, or an unknown token, is a no-op.
func (m *Manager) DetachBlockingHandler(token string) {
	m.mu.Lock()
	delete(m.handlers, token)
	m.mu.Unlock()
}

// notify snapshots the registered handlers and wakes each one. Callers must
// not hold m.mu when calling this.
func (m *Manager) notify() {
	m.mu.Lock()
	handlers := make([]*BlockingPlaylistHandler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()
	for _, h := range handlers {
		h.wake()
	}
}
