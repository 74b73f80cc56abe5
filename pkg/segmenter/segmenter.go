// Package segmenter implements the IncrementalSegmenter of spec.md §4.5:
// ingest encoded frames, buffer them, and emit LiveSegments on target- or
// keyframe-aligned boundaries. Its struct-behind-a-mutex shape and
// keyframe + target-duration + 1.5x-forced-flush boundary rule are grounded
// on the teacher SDK's Transmuxer.WriteVideoFrame (pkg/streaming/hls/transmuxer.go).
package segmenter

import (
	"fmt"
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/logger"
	"github.com/hlskit/hlskit/pkg/manifest"
)

// EncodedFrame is one access unit ingested by the segmenter.
type EncodedFrame struct {
	Data      []byte
	Timestamp uint32 // in the track's timescale units
	Duration  uint32
	Keyframe  bool
	CTSOffset int32
}

// LiveSegment is one emitted segment: raw concatenated frame bytes unless a
// Transform substitutes the payload.
type LiveSegment struct {
	Index           uint32
	URI             string
	Duration        float64
	Data            []byte
	Keyframe        bool
	Discontinuity   bool
	ProgramDateTime time.Time
	Frames          []EncodedFrame
	Key             *manifest.Key // set by EncryptionHook when the segment is content-encrypted
}

// Transform substitutes a segment's byte payload, e.g. invoking
// fmp4.Writer.BuildMediaSegment over the buffered frames, per spec.md §4.5's
// "transform hook".
type Transform func(seg *LiveSegment, frames []EncodedFrame) (*LiveSegment, error)

// Config configures one IncrementalSegmenter instance.
type Config struct {
	TargetDuration      float64
	MaxDuration         float64 // defaults to TargetDuration * 1.5 when zero
	RingBufferSize      int     // 0 means unbounded
	KeyframeAligned     bool
	StartIndex          uint32
	TrackProgramDateTime bool
	NamingPattern       string // printf-style with a single %d, e.g. "segment_%d.m4s"
	Timescale           uint32 // units per second for Timestamp/Duration fields; defaults to 90000
	Transform           Transform
}

func (c *Config) maxDuration() float64 {
	if c.MaxDuration > 0 {
		return c.MaxDuration
	}
	return c.TargetDuration * 1.5
}

func (c *Config) timescale() uint32 {
	if c.Timescale > 0 {
		return c.Timescale
	}
	return 90000
}

func (c *Config) namingPattern() string {
	if c.NamingPattern != "" {
		return c.NamingPattern
	}
	return "segment_%d.m4s"
}

// Segmenter is the shared incremental-segmentation engine behind
// AudioSegmenter and VideoSegmenter. All mutable state lives behind mu,
// matching the teacher's Transmuxer actor-isolation pattern.
type Segmenter struct {
	mu sync.Mutex

	cfg    Config
	log    logger.Logger
	nextIndex uint32

	pending       []EncodedFrame
	pendingDur    float64 // accumulated duration of pending, in seconds
	sawFirstFrame bool
	firstFrameAt  time.Time
	cumulativeDur float64 // total duration emitted so far, for PDT derivation
	finished      bool
	keyframeAligned bool

	ring []LiveSegment
}

// newSegmenter builds the shared engine; keyframeAligned is forced by the
// caller (VideoSegmenter=true, AudioSegmenter=false) regardless of
// cfg.KeyframeAligned, since only video frames carry meaningful keyframe
// flags.
func newSegmenter(cfg Config, log logger.Logger, keyframeAligned bool) *Segmenter {
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}
	return &Segmenter{
		cfg:             cfg,
		log:             log,
		nextIndex:       cfg.StartIndex,
		keyframeAligned: keyframeAligned,
	}
}

// Ingest consumes one frame, buffering it and emitting a segment when a
// boundary closes, per spec.md §4.5's boundary rule.
func (s *Segmenter) Ingest(frame EncodedFrame) (*LiveSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return nil, errors.New(errors.ErrCodeSegmenterFinished, "ingest called after finish()")
	}
	if len(frame.Data) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyFrame, "frame has no data")
	}
	if s.keyframeAligned && !s.sawFirstFrame && !frame.Keyframe {
		return nil, errors.New(errors.ErrCodeKeyframeExpected, "first video frame is not a keyframe")
	}
	if len(s.pending) > 0 {
		last := s.pending[len(s.pending)-1]
		if frame.Timestamp < last.Timestamp {
			return nil, errors.Newf(errors.ErrCodeOutOfOrderTimestamp, "frame timestamp %d precedes previous %d", frame.Timestamp, last.Timestamp)
		}
	}

	if !s.sawFirstFrame {
		s.sawFirstFrame = true
		s.firstFrameAt = time.Now()
	}

	// Keyframe-aligned boundaries open only on a keyframe: if a boundary is
	// due and this frame is not a keyframe, keep buffering past target until
	// the next keyframe (or the 1.5x forced-flush ceiling).
	boundaryDue := BoundaryDue(s.pendingDur, s.cfg.TargetDuration)
	forced := s.pendingDur >= s.cfg.maxDuration()

	var emitted *LiveSegment
	if len(s.pending) > 0 && ((s.keyframeAligned && boundaryDue && frame.Keyframe) || forced) {
		seg, err := s.emit()
		if err != nil {
			return nil, err
		}
		emitted = seg
	}

	s.pending = append(s.pending, frame)
	s.pendingDur += float64(frame.Duration) / float64(s.cfg.timescale())

	// Without keyframe alignment, the buffer closes as soon as the frame just
	// appended brings it to the target duration.
	if emitted == nil && !s.keyframeAligned && BoundaryDue(s.pendingDur, s.cfg.TargetDuration) {
		seg, err := s.emit()
		if err != nil {
			return nil, err
		}
		emitted = seg
	}

	return emitted, nil
}

// ForceSegmentBoundary emits the accumulated buffer immediately, per
// spec.md §4.5. No-op if the buffer is empty.
func (s *Segmenter) ForceSegmentBoundary() (*LiveSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, nil
	}
	return s.emit()
}

// Finish flushes any remaining buffered frames into a final segment and
// marks the segmenter closed to further ingestion.
func (s *Segmenter) Finish() (*LiveSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, nil
	}
	s.finished = true
	if len(s.pending) == 0 {
		return nil, nil
	}
	return s.emit()
}

// emit must be called with mu held.
func (s *Segmenter) emit() (*LiveSegment, error) {
	frames := s.pending
	s.pending = nil
	dur := s.pendingDur
	s.pendingDur = 0

	idx := s.nextIndex
	s.nextIndex++

	data := make([]byte, 0)
	for _, f := range frames {
		data = append(data, f.Data...)
	}

	seg := &LiveSegment{
		Index:    idx,
		URI:      fmt.Sprintf(s.cfg.namingPattern(), idx),
		Duration: dur,
		Data:     data,
		Keyframe: len(frames) > 0 && frames[0].Keyframe,
		Frames:   frames,
	}

	if s.cfg.TrackProgramDateTime {
		if idx == s.cfg.StartIndex {
			firstTS := time.Duration(0)
			if len(frames) > 0 {
				firstTS = time.Duration(float64(frames[0].Timestamp)/float64(s.cfg.timescale())*float64(time.Second))
			}
			seg.ProgramDateTime = s.firstFrameAt.Add(firstTS)
		} else {
			seg.ProgramDateTime = s.firstFrameAt.Add(time.Duration(s.cumulativeDur * float64(time.Second)))
		}
	}
	s.cumulativeDur += dur

	if s.cfg.Transform != nil {
		transformed, err := s.cfg.Transform(seg, frames)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeEncodingFailed, "segment transform failed", err)
		}
		seg = transformed
	}

	s.appendRing(*seg)
	s.log.Debug("emitted segment", logger.Uint64("index", uint64(seg.Index)), logger.Float64("duration", seg.Duration))
	return seg, nil
}

func (s *Segmenter) appendRing(seg LiveSegment) {
	if s.cfg.RingBufferSize <= 0 {
		s.ring = append(s.ring, seg)
		return
	}
	s.ring = append(s.ring, seg)
	if len(s.ring) > s.cfg.RingBufferSize {
		s.ring = s.ring[len(s.ring)-s.cfg.RingBufferSize:]
	}
}

// RecentSegments returns the retained ring buffer contents, oldest first.
func (s *Segmenter) RecentSegments() []LiveSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LiveSegment, len(s.ring))
	copy(out, s.ring)
	return out
}
