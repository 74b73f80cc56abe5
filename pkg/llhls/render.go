package llhls

import (
	"fmt"
	"math"
	"time"

	"github.com/hlskit/hlskit/pkg/manifest"
)

// UltraLowLatencyConfig, LowLatencyConfig and BalancedConfig return the
// Config fields spec.md §4.7 names for the three stock latency profiles:
// UltraLowLatencyConfig (0.2s parts), LowLatencyConfig (0.33334s parts, the
// common ~3x-per-second cadence), and BalancedConfig (0.5s parts). Each sets
// SegmentTarget; callers still set MaxPartialsPerSegment, InitSegmentURI and
// naming patterns themselves.
func UltraLowLatencyConfig() Config {
	return Config{PartTarget: 0.2, SegmentTarget: 1.0, RetainedPartialSegments: 3, CanBlockReload: true, CanSkip: true}
}

func LowLatencyConfig() Config {
	return Config{PartTarget: 0.33334, SegmentTarget: 2.0, RetainedPartialSegments: 3, CanBlockReload: true, CanSkip: true}
}

func BalancedConfig() Config {
	return Config{PartTarget: 0.5, SegmentTarget: 4.0, RetainedPartialSegments: 2, CanBlockReload: true, CanSkip: true}
}

func partsToModel(partials []PartialSegment) []manifest.Part {
	if len(partials) == 0 {
		return nil
	}
	out := make([]manifest.Part, 0, len(partials))
	for _, p := range partials {
		out = append(out, manifest.Part{
			URI:         p.URI,
			Duration:    p.Duration,
			Independent: p.Independent,
			ByteRange:   p.ByteRange,
			Gap:         p.Gap,
		})
	}
	return out
}

// toModel builds the manifest.MediaPlaylist for the tail window
// records[from:], per spec.md §4.7's rendering rules: EXT-X-PART is
// retained only on the last RetainedPartialSegments completed segments plus
// the segment currently being built; a preload hint for the next part is
// appended unless the stream has ended.
func (m *Manager) toModel(from int) *manifest.MediaPlaylist {
	records := m.records[from:]

	completedCount := 0
	for _, rec := range records {
		if rec.Completed {
			completedCount++
		}
	}
	keepFrom := completedCount - int(m.cfg.RetainedPartialSegments)

	segments := make([]manifest.MediaSegment, 0, len(records))
	completedIdx := 0
	for _, rec := range records {
		seg := manifest.MediaSegment{Discontinuity: rec.HasDiscontinuity}
		if rec.ProgramDateTime != nil {
			seg.ProgramDateTime = rec.ProgramDateTime.UTC().Format(time.RFC3339Nano)
		}
		retainParts := false
		if rec.Completed {
			seg.URI = rec.URI
			seg.Duration = rec.Duration
			if completedIdx >= keepFrom {
				retainParts = true
			}
			completedIdx++
		} else {
			retainParts = true
		}
		if retainParts {
			seg.Parts = partsToModel(rec.Partials)
		}
		segments = append(segments, seg)
	}

	var mediaSequence uint64
	if len(records) > 0 {
		mediaSequence = records[0].MSN
	} else {
		mediaSequence = m.nextMSN
	}

	sc := &manifest.ServerControl{CanBlockReload: m.cfg.CanBlockReload}
	partHoldBack := 3 * m.cfg.PartTarget
	sc.PartHoldBack = &partHoldBack
	if m.cfg.CanSkip {
		canSkipUntil := 6 * m.cfg.SegmentTarget
		sc.CanSkipUntil = &canSkipUntil
	}

	var preload *manifest.PreloadHint
	if !m.ended {
		hintMSN, hintIndex := m.nextMSN, 0
		if rec := m.building(); rec != nil {
			hintMSN, hintIndex = rec.MSN, len(rec.Partials)
		}
		preload = &manifest.PreloadHint{
			Type: "PART",
			URI:  fmt.Sprintf(m.cfg.partPattern(), hintMSN, hintIndex),
		}
	}

	var initMap *manifest.Map
	if m.cfg.InitSegmentURI != "" {
		initMap = &manifest.Map{URI: m.cfg.InitSegmentURI}
	}

	version := 9
	return &manifest.MediaPlaylist{
		Version:             version,
		TargetDuration:      int(math.Ceil(m.cfg.SegmentTarget)),
		MediaSequence:       mediaSequence,
		IndependentSegments: m.independentSegments,
		Map:                 initMap,
		Segments:            segments,
		EndList:             m.ended,
		ServerControl:       sc,
		PartInf:             &manifest.PartInf{PartTarget: m.cfg.PartTarget},
		PreloadHint:         preload,
	}
}

// renderLocked renders the full current playlist. Callers must hold m.mu.
func (m *Manager) renderLocked() string {
	doc := &manifest.Document{Kind: manifest.DocMedia, Media: m.toModel(0)}
	return manifest.Generate(doc)
}

// Render produces the full current LL-HLS media playlist text.
func (m *Manager) Render() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderLocked()
}

// RenderDelta produces an EXT-X-SKIP delta update: segments older than the
// server's CAN-SKIP-UNTIL window are replaced with a single EXT-X-SKIP tag
// instead of being rendered in full, per spec.md §4.7. It returns (text,
// true) when a delta could be produced, or ("", false) when skipping is
// disabled or there is nothing old enough to skip — callers should fall
// back to Render() in that case.
func (m *Manager) RenderDelta() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.CanSkip || len(m.records) == 0 {
		return "", false
	}

	canSkipUntil := 6 * m.cfg.SegmentTarget
	cumulative := 0.0
	keepFrom := len(m.records)
	for i := len(m.records) - 1; i >= 0; i-- {
		d := m.records[i].Duration
		if d == 0 {
			d = m.cfg.SegmentTarget
		}
		cumulative += d
		if cumulative > canSkipUntil {
			break
		}
		keepFrom = i
	}
	if keepFrom <= 0 {
		return "", false
	}

	model := m.toModel(keepFrom)
	model.Skip = &manifest.Skip{SkippedSegments: uint64(keepFrom)}
	doc := &manifest.Document{Kind: manifest.DocMedia, Media: model}
	return manifest.Generate(doc), true
}
