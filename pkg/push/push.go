// Package push defines the SegmentPusher contract of spec.md §6: the
// boundary between the core HLS/LL-HLS model and whatever external
// transport actually delivers playlists and segments to viewers. Grounded
// on the teacher SDK's pkg/storage.Storage interface shape (context-first
// methods, a connection lifecycle, bounded retry in the concrete
// implementations).
package push

import (
	"context"

	"github.com/hlskit/hlskit/pkg/llhls"
	"github.com/hlskit/hlskit/pkg/segmenter"
)

// ConnectionState is the Pusher's readable connection lifecycle state.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats accumulates push outcomes across the lifetime of a Pusher.
type Stats struct {
	SuccessCount     uint64
	FailureCount     uint64
	TotalBytesPushed uint64
}

// Pusher is the SegmentPusher contract of spec.md §6: implemented by
// external transports (S3, filesystem, CDN origin push, ...), consumed by
// core only through this interface.
type Pusher interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ConnectionState() ConnectionState
	Stats() Stats

	PushSegment(ctx context.Context, seg *segmenter.LiveSegment, filename string) error
	PushPartial(ctx context.Context, part *llhls.PartialSegment, data []byte, filename string) error
	PushPlaylist(ctx context.Context, text string, filename string) error
	PushInitSegment(ctx context.Context, data []byte, filename string) error
}
