// Package config implements HLSKit's YAML-driven configuration, per
// SPEC_FULL.md §2: segmenter defaults, playlist engine defaults, and
// LL-HLS presets, loaded and defaulted the way the teacher SDK's
// config.Config was (gopkg.in/yaml.v3, DefaultConfig + env overrides).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level HLSKit configuration.
type Config struct {
	Segmenter SegmenterConfig `json:"segmenter" yaml:"segmenter"`
	Playlist  PlaylistConfig  `json:"playlist" yaml:"playlist"`
	LLHLS     LLHLSConfig     `json:"llhls" yaml:"llhls"`
	Push      PushConfig      `json:"push" yaml:"push"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// SegmenterConfig holds IncrementalSegmenter defaults.
type SegmenterConfig struct {
	// TargetDuration is the nominal segment duration in seconds.
	TargetDuration float64 `json:"target_duration" yaml:"target_duration"`

	// MaxDuration is the forced-flush ceiling in seconds; defaults to
	// TargetDuration * 1.5 when zero.
	MaxDuration float64 `json:"max_duration" yaml:"max_duration"`

	// RingBufferSize bounds the number of retained segments; 0 is unbounded.
	RingBufferSize int `json:"ring_buffer_size" yaml:"ring_buffer_size"`

	// Timescale is the clock rate Timestamp/Duration fields are expressed in.
	Timescale uint32 `json:"timescale" yaml:"timescale"`

	// NamingPattern is a printf-style pattern with a single %d, e.g.
	// "segment_%d.m4s".
	NamingPattern string `json:"naming_pattern" yaml:"naming_pattern"`
}

// PlaylistConfig holds live-playlist engine defaults.
type PlaylistConfig struct {
	// WindowSize is the number of segments retained in the live playlist.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// PlaylistType is "EVENT" or "VOD", empty for a rolling live playlist.
	PlaylistType string `json:"playlist_type" yaml:"playlist_type"`
}

// LLHLSPreset names one of the three presets spec.md §4.7 requires.
type LLHLSPreset string

const (
	PresetUltraLowLatency LLHLSPreset = "ultra_low_latency"
	PresetLowLatency      LLHLSPreset = "low_latency"
	PresetBalanced        LLHLSPreset = "balanced"
)

// LLHLSConfig holds LL-HLS manager defaults.
type LLHLSConfig struct {
	// Enabled turns on partial-segment production and blocking playlist reload.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Preset selects one of llhls.UltraLowLatencyConfig /
	// LowLatencyConfig / BalancedConfig. Empty means "balanced".
	Preset LLHLSPreset `json:"preset" yaml:"preset"`

	// RetainedPartialSegments bounds how many completed segments still
	// publish EXT-X-PART lines in the rendered playlist.
	RetainedPartialSegments uint32 `json:"retained_partial_segments" yaml:"retained_partial_segments"`
}

// PushConfig holds SegmentPusher defaults, selecting between the s3 and fs
// reference collaborators.
type PushConfig struct {
	// Backend is "s3", "fs", or empty for no pusher configured.
	Backend string `json:"backend" yaml:"backend"`

	S3 S3PushConfig `json:"s3" yaml:"s3"`
	FS FSPushConfig `json:"fs" yaml:"fs"`
}

// S3PushConfig mirrors push/s3.Config's YAML-facing fields.
type S3PushConfig struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	KeyPrefix       string `json:"key_prefix" yaml:"key_prefix"`
	MaxRetries      int    `json:"max_retries" yaml:"max_retries"`
}

// FSPushConfig mirrors push/fs.Config's YAML-facing fields.
type FSPushConfig struct {
	BasePath   string `json:"base_path" yaml:"base_path"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns a default configuration: a 6s-target segmenter, a
// 5-segment rolling playlist window, LL-HLS disabled, no push backend, and
// text-format info-level logging.
func DefaultConfig() *Config {
	return &Config{
		Segmenter: SegmenterConfig{
			TargetDuration: 6,
			Timescale:      90000,
			NamingPattern:  "segment_%d.m4s",
		},
		Playlist: PlaylistConfig{
			WindowSize: 5,
		},
		LLHLS: LLHLSConfig{
			Enabled:                 false,
			Preset:                  PresetBalanced,
			RetainedPartialSegments: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a YAML configuration file, starting from
// DefaultConfig and overriding with whatever the file and environment
// specify, matching the teacher's Load/loadFromEnv layering.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromEnv overrides config from environment variables.
func (c *Config) loadFromEnv() {
	if level := os.Getenv("HLSKIT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if bucket := os.Getenv("HLSKIT_PUSH_S3_BUCKET"); bucket != "" {
		c.Push.S3.Bucket = bucket
	}
	if secret := os.Getenv("HLSKIT_PUSH_S3_SECRET_ACCESS_KEY"); secret != "" {
		c.Push.S3.SecretAccessKey = secret
	}
}

// TimescaleDuration converts a SegmenterConfig.Timescale tick count into a
// time.Duration, used by callers translating EncodedFrame.Timestamp into
// wall-clock offsets.
func (s SegmenterConfig) TimescaleDuration(ticks uint32) time.Duration {
	if s.Timescale == 0 {
		return 0
	}
	return time.Duration(float64(ticks) / float64(s.Timescale) * float64(time.Second))
}
