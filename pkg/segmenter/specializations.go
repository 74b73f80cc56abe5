package segmenter

import "github.com/hlskit/hlskit/pkg/logger"

// AudioSegmenter segments an audio track with no keyframe gating, per
// spec.md §4.5.
type AudioSegmenter struct {
	*Segmenter
}

// NewAudioSegmenter creates an AudioSegmenter.
func NewAudioSegmenter(cfg Config, log logger.Logger) *AudioSegmenter {
	return &AudioSegmenter{Segmenter: newSegmenter(cfg, log, false)}
}

// VideoSegmenter segments a keyframe-aligned video track, optionally pairing
// each emitted video segment with the audio segment covering the same
// interval via SegmentOutput, per spec.md §4.5.
type VideoSegmenter struct {
	*Segmenter

	audio *AudioSegmenter
}

// NewVideoSegmenter creates a VideoSegmenter. audio may be nil when the
// stream carries no interleaved audio sub-stream.
func NewVideoSegmenter(cfg Config, log logger.Logger, audio *AudioSegmenter) *VideoSegmenter {
	return &VideoSegmenter{Segmenter: newSegmenter(cfg, log, true), audio: audio}
}

// SegmentOutput pairs a video segment with its time-aligned audio segment,
// when present.
type SegmentOutput struct {
	Video *LiveSegment
	Audio *LiveSegment
}

// IngestVideo ingests a video frame and, when the video segmenter closes a
// boundary, forces the paired audio segmenter to close at the same point so
// SegmentOutput carries time-aligned segments.
func (v *VideoSegmenter) IngestVideo(frame EncodedFrame) (*SegmentOutput, error) {
	videoSeg, err := v.Ingest(frame)
	if err != nil {
		return nil, err
	}
	if videoSeg == nil {
		return nil, nil
	}
	out := &SegmentOutput{Video: videoSeg}
	if v.audio != nil {
		audioSeg, err := v.audio.ForceSegmentBoundary()
		if err != nil {
			return nil, err
		}
		out.Audio = audioSeg
	}
	return out, nil
}
