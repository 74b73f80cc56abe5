package playlist

// SlidingWindowConfig configures a SlidingWindowPlaylist, per spec.md §4.6.
type SlidingWindowConfig struct {
	WindowSize          uint32
	TargetDuration      float64
	InitSegmentURI      string
	IndependentSegments bool
}

// SlidingWindowPlaylist keeps the most recent WindowSize segments, bumping
// media_sequence as older ones are evicted. It never emits
// EXT-X-PLAYLIST-TYPE or EXT-X-ENDLIST.
type SlidingWindowPlaylist struct {
	base
	windowSize uint32
}

// NewSlidingWindowPlaylist creates a SlidingWindowPlaylist.
func NewSlidingWindowPlaylist(cfg SlidingWindowConfig) *SlidingWindowPlaylist {
	return &SlidingWindowPlaylist{
		base: base{
			targetDuration:      cfg.TargetDuration,
			initSegmentURI:      cfg.InitSegmentURI,
			independentSegments: cfg.IndependentSegments,
		},
		windowSize: cfg.WindowSize,
	}
}

// AddSegment appends a segment, evicting the oldest once the window size is
// exceeded. An evicted segment that carried a discontinuity bumps
// discontinuity_sequence, per spec.md §4.6, the same as DVRPlaylist.
func (p *SlidingWindowPlaylist) AddSegment(s Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendSegment(s)
	if p.windowSize > 0 && uint32(len(p.segments)) > p.windowSize {
		if p.segments[0].Discontinuity {
			p.discontinuitySequence++
		}
		p.segments = p.segments[1:]
		p.mediaSequence++
	}
}

// InsertDiscontinuity marks the next appended segment as a discontinuity.
func (p *SlidingWindowPlaylist) InsertDiscontinuity() { p.base.InsertDiscontinuity() }

// Render produces the current M3U8 text.
func (p *SlidingWindowPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render("", false)
}
