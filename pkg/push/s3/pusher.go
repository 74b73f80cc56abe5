// Package s3 implements push.Pusher against an S3-compatible bucket, built
// the way the teacher SDK's pkg/storage.S3Storage is built: credential
// resolution via the default AWS chain (or static keys), path-style
// addressing (always on) for MinIO-compatible endpoints, and bounded retry with a fixed
// delay on transient upload failures.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/hlskit/hlskit/pkg/llhls"
	"github.com/hlskit/hlskit/pkg/logger"
	"github.com/hlskit/hlskit/pkg/push"
	"github.com/hlskit/hlskit/pkg/segmenter"
)

// nonRetryableAPIErrors are S3 API error codes that bounded retry should
// never paper over: the credentials or bucket are wrong, and retrying with
// the same request will only fail the same way.
var nonRetryableAPIErrors = map[string]bool{
	"AccessDenied":          true,
	"NoSuchBucket":          true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
}

// isRetryable reports whether err is worth another attempt. Non-API errors
// (network timeouts, etc.) are always retried; API errors are retried
// unless their code names a permanent misconfiguration.
func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return !nonRetryableAPIErrors[apiErr.ErrorCode()]
	}
	return true
}

// Config configures a Pusher.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // for S3-compatible services, e.g. MinIO
	AccessKeyID     string
	SecretAccessKey string
	KeyPrefix       string
	MaxRetries      int
	RetryDelay      time.Duration
	Logger          logger.Logger
}

// Pusher pushes playlists, segments, partials, and init segments to an S3
// bucket.
type Pusher struct {
	cfg    Config
	client *s3.Client
	log    logger.Logger

	mu    sync.Mutex
	state push.ConnectionState
	stats push.Stats
}

// New creates a Pusher. It does not connect until Connect is called.
func New(cfg Config) (*Pusher, error) {
	if cfg.Bucket == "" {
		return nil, pushErrInvalidConfig("bucket is required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}
	return &Pusher{cfg: cfg, log: log, state: push.Disconnected}, nil
}

// Connect resolves AWS credentials and creates the S3 client.
func (p *Pusher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = push.Connecting

	var awsCfg aws.Config
	var err error
	if p.cfg.AccessKeyID != "" && p.cfg.SecretAccessKey != "" {
		p.log.Info("connecting to S3 with static credentials",
			logger.String("bucket", p.cfg.Bucket),
			logger.String("access_key_id", p.cfg.AccessKeyID),
			logger.Secret("secret_access_key", p.cfg.SecretAccessKey),
		)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(p.cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				p.cfg.AccessKeyID, p.cfg.SecretAccessKey, "",
			)),
		)
	} else {
		p.log.Info("connecting to S3 with default credential chain", logger.String("bucket", p.cfg.Bucket))
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.cfg.Region))
	}
	if err != nil {
		p.state = push.Failed
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) { o.UsePathStyle = true },
	}
	if p.cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(p.cfg.Endpoint) })
	}
	p.client = s3.NewFromConfig(awsCfg, opts...)
	p.state = push.Connected
	return nil
}

// Disconnect marks the pusher disconnected. The AWS SDK client has no
// explicit close.
func (p *Pusher) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = push.Disconnected
	p.client = nil
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

func (p *Pusher) key(filename string) string {
	if p.cfg.KeyPrefix == "" {
		return strings.TrimPrefix(filename, "/")
	}
	return strings.TrimSuffix(p.cfg.KeyPrefix, "/") + "/" + strings.TrimPrefix(filename, "/")
}

func (p *Pusher) put(ctx context.Context, key string, data []byte, contentType string) error {
	p.mu.Lock()
	client := p.client
	connected := p.state == push.Connected
	retries := p.cfg.MaxRetries
	delay := p.cfg.RetryDelay
	p.mu.Unlock()

	if !connected || client == nil {
		p.recordFailure()
		return pushErrNotConnected()
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			p.log.Warn("retrying S3 push", logger.Int("attempt", attempt), logger.String("key", key))
			time.Sleep(delay)
		}
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err == nil {
			p.recordSuccess(len(data))
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	p.mu.Lock()
	p.state = push.Failed
	p.mu.Unlock()
	p.recordFailure()
	return pushErrConnectionFailed(fmt.Errorf("S3 push failed after %d attempts: %w", retries+1, lastErr))
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

// PushSegment uploads a completed media segment.
func (p *Pusher) PushSegment(ctx context.Context, seg *segmenter.LiveSegment, filename string) error {
	return p.put(ctx, p.key(filename), seg.Data, "video/mp4")
}

// PushPartial uploads a low-latency partial segment.
func (p *Pusher) PushPartial(ctx context.Context, part *llhls.PartialSegment, data []byte, filename string) error {
	return p.put(ctx, p.key(filename), data, "video/mp4")
}

// PushPlaylist uploads rendered M3U8 text.
func (p *Pusher) PushPlaylist(ctx context.Context, text string, filename string) error {
	return p.put(ctx, p.key(filename), []byte(text), "application/vnd.apple.mpegurl")
}

// PushInitSegment uploads a CMAF init segment.
func (p *Pusher) PushInitSegment(ctx context.Context, data []byte, filename string) error {
	return p.put(ctx, p.key(filename), data, "video/mp4")
}
