// Package playlist implements the live playlist engines of spec.md §4.6:
// SlidingWindowPlaylist, EventPlaylist, and DVRPlaylist, sharing a common
// base of a segment deque, media sequence counter, and renderer. Grounded on
// the teacher SDK's MediaPlaylist.AddSegment/RemoveOldSegments
// (pkg/streaming/hls/playlist.go) for the sliding-window eviction rule and
// DVRWindow.trimWindow (pkg/streaming/hls/dvr.go) for cutoff-time eviction.
package playlist

import (
	"math"
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/manifest"
)

// Segment is one entry appended to a playlist engine.
type Segment struct {
	URI             string
	Duration        float64
	Timestamp       float64 // seconds since stream start
	Discontinuity   bool
	ProgramDateTime *time.Time
	ByteRange       *manifest.ByteRange
	Key             *manifest.Key
}

// base holds the state shared by every playlist variant, all guarded by mu
// per the teacher's actor-isolation convention.
type base struct {
	mu sync.Mutex

	targetDuration        float64
	maxSegmentDuration     float64
	mediaSequence          uint64
	discontinuitySequence  uint64
	initSegmentURI         string
	independentSegments    bool
	segments               []Segment
	pendingDiscontinuity   bool
}

func (b *base) appendSegment(s Segment) {
	if b.pendingDiscontinuity {
		s.Discontinuity = true
		b.pendingDiscontinuity = false
	}
	b.segments = append(b.segments, s)
	if s.Duration > b.maxSegmentDuration {
		b.maxSegmentDuration = s.Duration
	}
}

// InsertDiscontinuity marks the next appended segment's discontinuity flag,
// per spec.md §4.6. Called before any segment has been appended, it is not
// an error: SPEC_FULL.md §9 resolves this as a deferred marker applied to
// whichever segment is appended next.
func (b *base) InsertDiscontinuity() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingDiscontinuity = true
}

func (b *base) version() int {
	if b.initSegmentURI != "" {
		return 7
	}
	return 3
}

func (b *base) renderedTargetDuration() int {
	d := b.targetDuration
	if b.maxSegmentDuration > d {
		d = b.maxSegmentDuration
	}
	return int(math.Ceil(d))
}

func (b *base) toModel(playlistType string, endList bool) *manifest.MediaPlaylist {
	p := &manifest.MediaPlaylist{
		Version:               b.version(),
		TargetDuration:        b.renderedTargetDuration(),
		MediaSequence:         b.mediaSequence,
		DiscontinuitySequence: b.discontinuitySequence,
		PlaylistType:          playlistType,
		IndependentSegments:   b.independentSegments,
		EndList:               endList,
	}
	if b.initSegmentURI != "" {
		p.Map = &manifest.Map{URI: b.initSegmentURI}
	}
	for _, s := range b.segments {
		ms := manifest.MediaSegment{
			URI:           s.URI,
			Duration:      s.Duration,
			Discontinuity: s.Discontinuity,
			ByteRange:     s.ByteRange,
			Key:           s.Key,
		}
		if s.ProgramDateTime != nil {
			ms.ProgramDateTime = s.ProgramDateTime.UTC().Format(time.RFC3339Nano)
		}
		p.Segments = append(p.Segments, ms)
	}
	return p
}

func (b *base) render(playlistType string, endList bool) string {
	doc := &manifest.Document{Kind: manifest.DocMedia, Media: b.toModel(playlistType, endList)}
	return manifest.Generate(doc)
}

// SegmentCount returns the number of segments currently retained.
func (b *base) SegmentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.segments)
}

// MediaSequence returns the current EXT-X-MEDIA-SEQUENCE value.
func (b *base) MediaSequence() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mediaSequence
}
