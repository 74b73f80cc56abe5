package playlist

// EventConfig configures an EventPlaylist, per spec.md §4.6.
type EventConfig struct {
	TargetDuration      float64
	InitSegmentURI      string
	IndependentSegments bool
}

// EventPlaylist is append-only and emits EXT-X-PLAYLIST-TYPE:EVENT; no
// segment is ever evicted.
type EventPlaylist struct {
	base
	ended bool
}

// NewEventPlaylist creates an EventPlaylist.
func NewEventPlaylist(cfg EventConfig) *EventPlaylist {
	return &EventPlaylist{
		base: base{
			targetDuration:      cfg.TargetDuration,
			initSegmentURI:      cfg.InitSegmentURI,
			independentSegments: cfg.IndependentSegments,
		},
	}
}

// AddSegment appends a segment; EventPlaylist never evicts.
func (p *EventPlaylist) AddSegment(s Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendSegment(s)
}

// InsertDiscontinuity marks the next appended segment as a discontinuity.
func (p *EventPlaylist) InsertDiscontinuity() { p.base.InsertDiscontinuity() }

// EndStream marks the stream ended and returns the final rendered playlist,
// per spec.md §4.6.
func (p *EventPlaylist) EndStream() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = true
	return p.render("EVENT", true)
}

// Render produces the current M3U8 text.
func (p *EventPlaylist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render("EVENT", p.ended)
}
