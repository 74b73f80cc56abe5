// Package rtpframe adapts a depacketized github.com/pion/rtp packet stream
// into segmenter.EncodedFrames, per SPEC_FULL.md §4.5: the RTP marker bit
// signals the end of an access unit, and consecutive packets sharing an RTP
// timestamp are accumulated into one frame. Grounded on the teacher SDK's
// pkg/streaming/webrtc.TrackReader.readLoop/updateStats, which reads RTP
// packets off a track and tracks per-packet/per-frame bookkeeping behind a
// mutex; this adapter keeps that shape but produces EncodedFrames instead of
// forwarding packets to an SFU.
package rtpframe

import (
	"sync"

	"github.com/pion/rtp"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/segmenter"
)

// IsKeyframe reports whether a reassembled access unit opens a new
// keyframe-aligned boundary. Codec-specific (e.g. inspecting H.264 NAL unit
// types); nil means every frame is treated as a keyframe, appropriate for
// audio tracks.
type IsKeyframe func(payload []byte) bool

// Config configures one Adapter.
type Config struct {
	// ClockRate is the RTP timestamp clock rate in Hz, e.g. 90000 for H.264
	// or 48000 for Opus. It doubles as the Timescale a caller should set on
	// the destination segmenter.Config, since the adapter passes RTP
	// timestamps through unscaled.
	ClockRate uint32

	IsKeyframe IsKeyframe
}

func (c *Config) clockRate() uint32 {
	if c.ClockRate > 0 {
		return c.ClockRate
	}
	return 90000
}

// Adapter reassembles RTP packets into EncodedFrames. All state lives
// behind mu, matching the teacher's TrackReader actor-isolation pattern.
type Adapter struct {
	mu  sync.Mutex
	cfg Config

	buf            []byte
	frameTimestamp uint32
	lastTimestamp  uint32
	haveLast       bool
}

// NewAdapter builds an Adapter for the given clock rate and keyframe
// detector.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// ClockRate returns the configured (or defaulted) RTP clock rate.
func (a *Adapter) ClockRate() uint32 {
	return a.cfg.clockRate()
}

// WritePacket feeds one depacketized RTP packet into the adapter. It
// returns a completed EncodedFrame when packet.Marker closes an access
// unit, or (nil, nil) while the frame is still being reassembled.
func (a *Adapter) WritePacket(packet *rtp.Packet) (*segmenter.EncodedFrame, error) {
	if packet == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil RTP packet")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buf) == 0 {
		a.frameTimestamp = packet.Timestamp
	}
	a.buf = append(a.buf, packet.Payload...)

	if !packet.Marker {
		return nil, nil
	}

	data := a.buf
	a.buf = nil

	var duration uint32
	if a.haveLast {
		duration = a.frameTimestamp - a.lastTimestamp
	}
	a.lastTimestamp = a.frameTimestamp
	a.haveLast = true

	keyframe := true
	if a.cfg.IsKeyframe != nil {
		keyframe = a.cfg.IsKeyframe(data)
	}

	return &segmenter.EncodedFrame{
		Data:      data,
		Timestamp: a.frameTimestamp,
		Duration:  duration,
		Keyframe:  keyframe,
	}, nil
}

// Reset discards any partially reassembled frame, e.g. after a detected
// packet-loss gap the caller does not want stitched into the next frame.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = nil
}
