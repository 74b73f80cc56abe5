package playlist

import "github.com/hlskit/hlskit/pkg/manifest"

// DVRConfig configures a DVRPlaylist, per spec.md §4.6.
type DVRConfig struct {
	DVRWindowDuration   float64
	TargetDuration      float64
	InitSegmentURI      string
	IndependentSegments bool
}

// DVRPlaylist retains segments within a trailing time window measured from
// the latest segment's end timestamp, evicting older segments from the
// front and bumping discontinuity_sequence when an evicted segment itself
// carried a discontinuity marker.
type DVRPlaylist struct {
	base
	dvrWindowDuration float64
}

// NewDVRPlaylist creates a DVRPlaylist.
func NewDVRPlaylist(cfg DVRConfig) *DVRPlaylist {
	return &DVRPlaylist{
		base: base{
			targetDuration:      cfg.TargetDuration,
			initSegmentURI:      cfg.InitSegmentURI,
			independentSegments: cfg.IndependentSegments,
		},
		dvrWindowDuration: cfg.DVRWindowDuration,
	}
}

// AddSegment appends a segment, then evicts any segment whose interval ends
// before the new cutoff = latest_end - dvr_window_duration.
func (p *DVRPlaylist) AddSegment(s Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendSegment(s)

	latestEnd := s.Timestamp + s.Duration
	cutoff := latestEnd - p.dvrWindowDuration

	evictCount := 0
	for _, seg := range p.segments {
		if seg.Timestamp+seg.Duration < cutoff {
			evictCount++
		} else {
			break
		}
	}
	if evictCount == 0 {
		return
	}
	for _, seg := range p.segments[:evictCount] {
		if seg.Discontinuity {
			p.discontinuitySequence++
		}
	}
	p.segments = p.segments[evictCount:]
	p.mediaSequence += uint64(evictCount)
}

// InsertDiscontinuity marks the next appended segment as a discontinuity.
func (p *DVRPlaylist) InsertDiscontinuity() { p.base.InsertDiscontinuity() }

// Render produces the full current M3U8 text (no DVR offset applied).
func (p *DVRPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render("", false)
}

// RenderFromOffset renders a playlist beginning with the first retained
// segment whose timestamp >= live_edge + offsetSeconds, where offsetSeconds
// is conventionally negative (seeking behind the live edge), per spec.md
// §4.6. Returns the same full playlist if offsetSeconds selects no later
// segment than the first retained one.
func (p *DVRPlaylist) RenderFromOffset(offsetSeconds float64) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.segments) == 0 {
		return p.render("", false)
	}
	liveEdge := p.segments[len(p.segments)-1].Timestamp + p.segments[len(p.segments)-1].Duration
	threshold := liveEdge + offsetSeconds

	startIdx := 0
	for i, seg := range p.segments {
		if seg.Timestamp >= threshold {
			startIdx = i
			break
		}
		startIdx = i + 1
	}
	if startIdx >= len(p.segments) {
		startIdx = len(p.segments) - 1
	}

	sub := &base{
		targetDuration:        p.targetDuration,
		maxSegmentDuration:    p.maxSegmentDuration,
		mediaSequence:         p.mediaSequence + uint64(startIdx),
		discontinuitySequence: p.discontinuitySequence,
		initSegmentURI:        p.initSegmentURI,
		independentSegments:   p.independentSegments,
		segments:              p.segments[startIdx:],
	}
	doc := &manifest.Document{Kind: manifest.DocMedia, Media: sub.toModel("", false)}
	return manifest.Generate(doc)
}
