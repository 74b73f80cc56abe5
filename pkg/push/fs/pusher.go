// Package fs implements push.Pusher against a local directory, grounded on
// the teacher SDK's pkg/storage.LocalStorage (MkdirAll base path, write to
// a temp path then place, bounded retry). Meant for tests and for operators
// without S3.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/llhls"
	"github.com/hlskit/hlskit/pkg/logger"
	"github.com/hlskit/hlskit/pkg/push"
	"github.com/hlskit/hlskit/pkg/segmenter"
)

// Config configures a Pusher.
type Config struct {
	BasePath   string
	MaxRetries int
	RetryDelay time.Duration
	Logger     logger.Logger
}

// Pusher writes playlists, segments, partials, and init segments beneath a
// local base directory.
type Pusher struct {
	cfg Config
	log logger.Logger

	mu    sync.Mutex
	state push.ConnectionState
	stats push.Stats
}

// New creates a Pusher. It does not touch the filesystem until Connect.
func New(cfg Config) (*Pusher, error) {
	if cfg.BasePath == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "base_path is required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}
	return &Pusher{cfg: cfg, log: log, state: push.Disconnected}, nil
}

// Connect creates the base directory if it does not already exist.
func (p *Pusher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.MkdirAll(p.cfg.BasePath, 0o755); err != nil {
		p.state = push.Failed
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to create base path", err)
	}
	p.state = push.Connected
	return nil
}

// Disconnect marks the pusher disconnected; the filesystem is untouched.
func (p *Pusher) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = push.Disconnected
	return nil
}

// ConnectionState reports the current lifecycle state.
func (p *Pusher) ConnectionState() push.ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stats reports accumulated push outcomes.
func (p *Pusher) Stats() push.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pusher) path(filename string) string {
	return filepath.Join(p.cfg.BasePath, strings.TrimPrefix(filename, "/"))
}

func (p *Pusher) write(filename string, data []byte) error {
	p.mu.Lock()
	connected := p.state == push.Connected
	retries := p.cfg.MaxRetries
	delay := p.cfg.RetryDelay
	p.mu.Unlock()

	if !connected {
		p.recordFailure()
		return errors.New(errors.ErrCodeNotConnected, "fs pusher is not connected, call Connect first")
	}

	dst := p.path(filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		p.recordFailure()
		return errors.Wrap(errors.ErrCodeConnectionFailed, "failed to create directory", err)
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			p.log.Warn("retrying fs push", logger.Int("attempt", attempt), logger.String("path", dst))
			time.Sleep(delay)
		}
		tmp := dst + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			lastErr = err
			continue
		}
		if err := os.Rename(tmp, dst); err != nil {
			lastErr = err
			os.Remove(tmp)
			continue
		}
		p.recordSuccess(len(data))
		return nil
	}

	p.mu.Lock()
	p.state = push.Failed
	p.mu.Unlock()
	p.recordFailure()
	return errors.Wrap(errors.ErrCodeConnectionFailed, fmt.Sprintf("fs push failed after %d attempts", retries+1), lastErr)
}

func (p *Pusher) recordSuccess(bytesWritten int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.SuccessCount++
	p.stats.TotalBytesPushed += uint64(bytesWritten)
}

func (p *Pusher) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FailureCount++
}

// PushSegment writes a completed media segment.
func (p *Pusher) PushSegment(ctx context.Context, seg *segmenter.LiveSegment, filename string) error {
	return p.write(filename, seg.Data)
}

// PushPartial writes a low-latency partial segment.
func (p *Pusher) PushPartial(ctx context.Context, part *llhls.PartialSegment, data []byte, filename string) error {
	return p.write(filename, data)
}

// PushPlaylist writes rendered M3U8 text.
func (p *Pusher) PushPlaylist(ctx context.Context, text string, filename string) error {
	return p.write(filename, []byte(text))
}

// PushInitSegment writes a CMAF init segment.
func (p *Pusher) PushInitSegment(ctx context.Context, data []byte, filename string) error {
	return p.write(filename, data)
}
