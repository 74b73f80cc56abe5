// Package webvtt implements LiveWebVTTWriter, spec.md §5's
// actor-isolated subtitle segmenter and §6's WebVTT wire format. It closes
// a segment on target_duration the same way AudioSegmenter does — never
// splitting a cue across a segment boundary — sharing the boundary check
// with pkg/segmenter via segmenter.BoundaryDue. Grounded on the teacher
// SDK's Transmuxer mutex-guarded emit loop (pkg/streaming/hls/transmuxer.go),
// generalized from frames to cues.
package webvtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/logger"
	"github.com/hlskit/hlskit/pkg/segmenter"
)

// Cue is one subtitle cue, timed relative to the start of the stream.
type Cue struct {
	Start    time.Duration
	End      time.Duration
	Text     string
	Position *int   // percent, omitted when nil
	Align    string // "start", "center", "end", "left", "right"; omitted when empty
}

func (c Cue) settings() string {
	var parts []string
	if c.Position != nil {
		parts = append(parts, fmt.Sprintf("position:%d%%", *c.Position))
	}
	if c.Align != "" {
		parts = append(parts, fmt.Sprintf("align:%s", c.Align))
	}
	return strings.Join(parts, " ")
}

// formatTimestamp renders a WebVTT cue timestamp, omitting the hours field
// when it is zero, per spec.md §6.
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond

	if hours == 0 {
		return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func (c Cue) render() string {
	line := fmt.Sprintf("%s --> %s", formatTimestamp(c.Start), formatTimestamp(c.End))
	if s := c.settings(); s != "" {
		line += " " + s
	}
	return line + "\n" + c.Text + "\n"
}

// Segment is one emitted WebVTT segment.
type Segment struct {
	Index    uint32
	URI      string
	Duration float64
	Text     string
}

// Config configures one Writer.
type Config struct {
	TargetDuration float64
	StartIndex     uint32
	NamingPattern  string // printf-style with a single %d, e.g. "subs_%d.vtt"
}

func (c *Config) namingPattern() string {
	if c.NamingPattern != "" {
		return c.NamingPattern
	}
	return "subs_%d.vtt"
}

// Writer accumulates cues and emits WebVTT segments on a target-duration
// boundary. All mutable state lives behind mu, matching the teacher's
// actor-isolation convention.
type Writer struct {
	mu sync.Mutex

	log  logger.Logger
	conf Config

	nextIndex    uint32
	pending      []Cue
	segmentStart time.Duration
	finished     bool
}

// NewWriter builds a Writer.
func NewWriter(cfg Config, log logger.Logger) *Writer {
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}
	return &Writer{
		conf:      cfg,
		log:       log,
		nextIndex: cfg.StartIndex,
	}
}

// AddCue appends cue to the buffer, emitting the previously buffered
// segment first if cue.Start has crossed the target-duration boundary.
// Cues are never split: the boundary check only ever fires between cues.
func (w *Writer) AddCue(cue Cue) (*Segment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return nil, errors.New(errors.ErrCodeSegmenterFinished, "AddCue called after Finish()")
	}
	if cue.End <= cue.Start {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cue end must be after cue start")
	}
	if len(w.pending) > 0 && cue.Start < w.pending[len(w.pending)-1].End {
		return nil, errors.New(errors.ErrCodeOutOfOrderTimestamp, "cue overlaps the previous cue")
	}

	var emitted *Segment
	if len(w.pending) > 0 {
		accumulated := (cue.Start - w.segmentStart).Seconds()
		if segmenter.BoundaryDue(accumulated, w.conf.TargetDuration) {
			seg := w.emit(cue.Start)
			emitted = seg
		}
	}

	w.pending = append(w.pending, cue)
	return emitted, nil
}

// Finish flushes any remaining buffered cues into a final segment and
// closes the writer to further cues.
func (w *Writer) Finish() (*Segment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return nil, nil
	}
	w.finished = true
	if len(w.pending) == 0 {
		return nil, nil
	}
	last := w.pending[len(w.pending)-1].End
	return w.emit(last), nil
}

// emit must be called with mu held.
func (w *Writer) emit(boundary time.Duration) *Segment {
	cues := w.pending
	w.pending = nil
	duration := (boundary - w.segmentStart).Seconds()
	w.segmentStart = boundary

	idx := w.nextIndex
	w.nextIndex++

	var body strings.Builder
	body.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		body.WriteString(c.render())
		body.WriteString("\n")
	}

	seg := &Segment{
		Index:    idx,
		URI:      fmt.Sprintf(w.conf.namingPattern(), idx),
		Duration: duration,
		Text:     body.String(),
	}
	w.log.Debug("emitted webvtt segment", logger.Uint64("index", uint64(seg.Index)), logger.Float64("duration", seg.Duration))
	return seg
}
