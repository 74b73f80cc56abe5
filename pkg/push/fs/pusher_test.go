package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/push"
)

func TestPushPlaylistWritesFile(t *testing.T) {
	dir := t.TempDir()
	p, err := New(Config{BasePath: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	if err := p.Connect(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ConnectionState() != push.Connected {
		t.Fatalf("expected Connected, got %v", p.ConnectionState())
	}

	if err := p.PushPlaylist(ctx, "#EXTM3U\n", "live.m3u8"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "live.m3u8"))
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != "#EXTM3U\n" {
		t.Fatalf("unexpected file contents: %q", data)
	}

	stats := p.Stats()
	if stats.SuccessCount != 1 || stats.TotalBytesPushed != uint64(len("#EXTM3U\n")) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPushBeforeConnectFails(t *testing.T) {
	p, err := New(Config{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PushPlaylist(context.Background(), "#EXTM3U\n", "live.m3u8"); errors.CodeOf(err) != errors.ErrCodeNotConnected {
		t.Fatalf("expected ErrCodeNotConnected, got %v", err)
	}
	if p.Stats().FailureCount != 1 {
		t.Fatalf("expected failure recorded, got %+v", p.Stats())
	}
}

func TestPushInitSegmentNestedPath(t *testing.T) {
	dir := t.TempDir()
	p, _ := New(Config{BasePath: dir})
	ctx := context.Background()
	p.Connect(ctx)

	if err := p.PushInitSegment(ctx, []byte{0x00, 0x01}, "variants/720p/init.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "variants", "720p", "init.mp4")); err != nil {
		t.Fatalf("expected nested file to exist: %v", err)
	}
}
