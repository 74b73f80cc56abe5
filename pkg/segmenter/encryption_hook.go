package segmenter

import (
	"github.com/hlskit/hlskit/pkg/encryption"
	"github.com/hlskit/hlskit/pkg/fmp4"
)

// EncryptionHook wraps a segment_transform with AES-128 content encryption,
// per SPEC_FULL.md §4.5's segment_transform-shaped encryption hook. It
// supports two encryption shapes, selected by whether Writer is set:
//
//   - CMAF (Writer != nil): each frame's sample data is encrypted
//     independently and the segment is rebuilt via
//     fmp4.Writer.WriteEncryptedMediaSegment, so encryption never touches
//     styp/moof — only the bytes mdat carries, per SPEC_FULL.md §4.2.
//     Inner, if set, still runs first but its return value is used only for
//     Index/URI/Duration/ProgramDateTime bookkeeping; its Data is discarded
//     and rebuilt from frames.
//   - Raw (Writer == nil): Inner runs first (if set) and the resulting
//     seg.Data is encrypted wholesale, matching how HLS AES-128 encrypts an
//     entire non-fMP4 segment file.
type EncryptionHook struct {
	Key   []byte
	IV    [16]byte
	URI   string
	Inner Transform

	// Writer, TrackID select the CMAF encryption path. baseMediaDecodeTime is
	// derived from the segment's first frame timestamp, which already carries
	// the track's timescale units.
	Writer  *fmp4.Writer
	TrackID uint32
}

// Transform returns a Transform suitable for Config.Transform.
func (h *EncryptionHook) Transform() Transform {
	if h.Writer != nil {
		return h.cmafTransform()
	}
	return h.rawTransform()
}

func (h *EncryptionHook) cmafTransform() Transform {
	return func(seg *LiveSegment, frames []EncodedFrame) (*LiveSegment, error) {
		if h.Inner != nil {
			var err error
			seg, err = h.Inner(seg, frames)
			if err != nil {
				return nil, err
			}
		}

		samples := make([]fmp4.Sample, len(frames))
		for i, f := range frames {
			samples[i] = fmp4.Sample{Duration: f.Duration, Data: f.Data, CTSOffset: f.CTSOffset, Keyframe: f.Keyframe}
		}
		var baseMediaDecodeTime uint64
		if len(frames) > 0 {
			baseMediaDecodeTime = uint64(frames[0].Timestamp)
		}

		data, err := h.Writer.WriteEncryptedMediaSegment(h.TrackID, seg.Index+1, baseMediaDecodeTime, samples, h.Key, h.IV)
		if err != nil {
			return nil, err
		}
		seg.Data = data
		seg.Key = encryption.KeyInfo{Key: h.Key, IV: h.IV, URI: h.URI}.ToManifestKey()
		return seg, nil
	}
}

func (h *EncryptionHook) rawTransform() Transform {
	return func(seg *LiveSegment, frames []EncodedFrame) (*LiveSegment, error) {
		if h.Inner != nil {
			var err error
			seg, err = h.Inner(seg, frames)
			if err != nil {
				return nil, err
			}
		}
		ciphertext, err := encryption.EncryptSample(h.Key, h.IV, seg.Data)
		if err != nil {
			return nil, err
		}
		seg.Data = ciphertext
		seg.Key = encryption.KeyInfo{Key: h.Key, IV: h.IV, URI: h.URI}.ToManifestKey()
		return seg, nil
	}
}
