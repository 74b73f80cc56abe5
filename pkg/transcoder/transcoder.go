// Package transcoder defines the Transcoder contract of spec.md §6: an
// optional, externally-supplied collaborator (an AVFoundation or FFmpeg
// wrapper, for instance) that core treats as a pluggable interface rather
// than a dependency. Grounded on spec.md §9's design note: core ships only
// NoTranscoder, which always reports TranscoderNotAvailable.
package transcoder

import (
	"context"

	"github.com/hlskit/hlskit/pkg/errors"
)

// Preset names a transcoding quality/speed tradeoff; interpretation is left
// to the concrete Transcoder implementation.
type Preset string

// VariantSpec describes one output rendition of a multi-variant transcode.
type VariantSpec struct {
	Name      string
	Width     int
	Height    int
	Bandwidth int64
	Preset    Preset
}

// Config carries encoder parameters a Transcoder implementation interprets;
// core does not inspect its contents.
type Config struct {
	VideoCodec string
	AudioCodec string
	Extra      map[string]string
}

// Progress reports transcoding progress, delivered via the ProgressFunc
// callback.
type Progress struct {
	PercentComplete float64
	CurrentPhase    string
}

// ProgressFunc receives progress updates during a transcode.
type ProgressFunc func(Progress)

// Result is the outcome of a single-variant transcode.
type Result struct {
	OutputURI string
	Duration  float64
}

// MultiVariantResult is the outcome of a transcode_variants call: one
// Result per requested VariantSpec, same order as the input.
type MultiVariantResult struct {
	Variants []Result
}

// Transcoder is the external collaborator contract of spec.md §6.
type Transcoder interface {
	Transcode(ctx context.Context, inputURI string, outDir string, preset Preset, cfg Config, onProgress ProgressFunc) (*Result, error)
	TranscodeVariants(ctx context.Context, inputURI string, outDir string, cfg Config, variants []VariantSpec, onProgress ProgressFunc) (*MultiVariantResult, error)
}

// NoTranscoder is the core-shipped Transcoder that performs no transcoding
// and always reports TranscoderNotAvailable, per spec.md §9's design note.
// It exists so callers can wire a Transcoder-shaped dependency even when no
// platform encoder is available, rather than making the field optional.
type NoTranscoder struct{}

func (NoTranscoder) Transcode(ctx context.Context, inputURI string, outDir string, preset Preset, cfg Config, onProgress ProgressFunc) (*Result, error) {
	return nil, errors.New(errors.ErrCodeTranscoderNotAvailable, "no transcoder is configured")
}

func (NoTranscoder) TranscodeVariants(ctx context.Context, inputURI string, outDir string, cfg Config, variants []VariantSpec, onProgress ProgressFunc) (*MultiVariantResult, error) {
	return nil, errors.New(errors.ErrCodeTranscoderNotAvailable, "no transcoder is configured")
}
