package manifest

import "fmt"

// Severity classifies a ValidationResult entry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ValidationResult is one rule outcome, per spec.md §4.4.
type ValidationResult struct {
	Severity Severity
	Field    string
	Message  string
}

// ValidationReport collects every rule outcome. Validate never mutates the
// document it inspects, generalizing the teacher's ValidatePlaylist (which
// returned the first error) into a full report of every finding.
type ValidationReport struct {
	Results []ValidationResult
}

// HasErrors reports whether the report contains any error-severity result.
func (r *ValidationReport) HasErrors() bool {
	for _, res := range r.Results {
		if res.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *ValidationReport) add(sev Severity, field, format string, args ...interface{}) {
	r.Results = append(r.Results, ValidationResult{
		Severity: sev,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate runs every applicable rule against doc and returns the
// accumulated report; it is safe to call repeatedly and never mutates doc.
func Validate(doc *Document) *ValidationReport {
	report := &ValidationReport{}
	switch doc.Kind {
	case DocMaster:
		validateMaster(doc.Master, report)
	default:
		validateMedia(doc.Media, report)
	}
	return report
}

func validateMedia(p *MediaPlaylist, r *ValidationReport) {
	if p.TargetDuration <= 0 {
		r.add(SeverityError, "target_duration", "target duration must be positive, got %d", p.TargetDuration)
	}
	if p.Version < 1 {
		r.add(SeverityError, "version", "version must be >= 1, got %d", p.Version)
	}

	requiresV4 := false
	requiresV7 := p.Map != nil || p.PartInf != nil

	maxSegDuration := 0.0
	for i, seg := range p.Segments {
		if seg.Duration <= 0 && seg.URI != "" {
			r.add(SeverityError, "segments", "segment %d has non-positive duration %.3f", i, seg.Duration)
		}
		if seg.Duration > maxSegDuration {
			maxSegDuration = seg.Duration
		}
		if seg.Duration > float64(p.TargetDuration)+1.0 {
			r.add(SeverityWarning, "segments", "segment %d duration %.3f exceeds target duration %d by more than 1s", i, seg.Duration, p.TargetDuration)
		}
		if seg.URI == "" && len(seg.Parts) == 0 {
			r.add(SeverityError, "segments", "segment %d has neither a URI nor parts", i)
		}
		if seg.ByteRange != nil {
			requiresV4 = true
		}
		if seg.Map != nil {
			requiresV7 = requiresV7 || true
		}
		if len(seg.Parts) > 0 {
			requiresV7 = true
		}
	}

	if requiresV7 && p.Version < 7 {
		r.add(SeverityError, "version", "EXT-X-MAP/LL-HLS parts require EXT-X-VERSION >= 7, got %d", p.Version)
	} else if requiresV4 && p.Version < 4 {
		r.add(SeverityError, "version", "EXT-X-BYTERANGE requires EXT-X-VERSION >= 4, got %d", p.Version)
	}

	if p.PartInf != nil {
		if p.ServerControl == nil {
			r.add(SeverityWarning, "server_control", "EXT-X-PART-INF present without EXT-X-SERVER-CONTROL")
		} else if p.ServerControl.PartHoldBack != nil && *p.ServerControl.PartHoldBack < p.PartInf.PartTarget {
			r.add(SeverityError, "server_control", "PART-HOLD-BACK (%.3f) must be at least PART-TARGET (%.3f)", *p.ServerControl.PartHoldBack, p.PartInf.PartTarget)
		}
		if p.PartInf.PartTarget <= 0 {
			r.add(SeverityError, "part_inf", "PART-TARGET must be positive")
		}
		if float64(p.TargetDuration) < p.PartInf.PartTarget {
			r.add(SeverityError, "part_inf", "PART-TARGET (%.3f) must not exceed TARGETDURATION (%d)", p.PartInf.PartTarget, p.TargetDuration)
		}
	}

	seenDateRangeIDs := make(map[string]bool, len(p.DateRanges))
	for _, dr := range p.DateRanges {
		if dr.ID == "" {
			r.add(SeverityError, "daterange", "EXT-X-DATERANGE missing required ID")
			continue
		}
		if seenDateRangeIDs[dr.ID] {
			r.add(SeverityError, "daterange", "duplicate EXT-X-DATERANGE id %q", dr.ID)
		}
		seenDateRangeIDs[dr.ID] = true
		if dr.StartDate == "" {
			r.add(SeverityError, "daterange", "EXT-X-DATERANGE %q missing START-DATE", dr.ID)
		}
	}

	if p.PlaylistType != "" && p.PlaylistType != "VOD" && p.PlaylistType != "EVENT" {
		r.add(SeverityWarning, "playlist_type", "unrecognized EXT-X-PLAYLIST-TYPE %q", p.PlaylistType)
	}
	if p.PlaylistType == "VOD" && !p.EndList {
		r.add(SeverityWarning, "endlist", "VOD playlists conventionally include EXT-X-ENDLIST")
	}
}

func validateMaster(m *MasterPlaylist, r *ValidationReport) {
	if len(m.Variants) == 0 && len(m.IFrameVariants) == 0 {
		r.add(SeverityError, "variants", "master playlist has no variants")
	}

	groupIDsByType := make(map[string]map[string]bool)
	for _, mr := range m.Media {
		if groupIDsByType[mr.Type] == nil {
			groupIDsByType[mr.Type] = make(map[string]bool)
		}
		groupIDsByType[mr.Type][mr.GroupID] = true
	}

	for i, v := range m.Variants {
		if v.Bandwidth <= 0 {
			r.add(SeverityError, "variants", "variant %d has invalid bandwidth %d", i, v.Bandwidth)
		}
		if v.URI == "" {
			r.add(SeverityError, "variants", "variant %d has empty URI", i)
		}
		if v.Audio != "" && !groupIDsByType["AUDIO"][v.Audio] {
			r.add(SeverityError, "rendition_groups", "variant %d references unresolved AUDIO group %q", i, v.Audio)
		}
		if v.Subtitles != "" && !groupIDsByType["SUBTITLES"][v.Subtitles] {
			r.add(SeverityError, "rendition_groups", "variant %d references unresolved SUBTITLES group %q", i, v.Subtitles)
		}
		if v.ClosedCaptions != "" && v.ClosedCaptions != "NONE" && !groupIDsByType["CLOSED-CAPTIONS"][v.ClosedCaptions] {
			r.add(SeverityError, "rendition_groups", "variant %d references unresolved CLOSED-CAPTIONS group %q", i, v.ClosedCaptions)
		}
	}

	for i, iv := range m.IFrameVariants {
		if iv.Bandwidth <= 0 {
			r.add(SeverityError, "iframe_variants", "I-frame variant %d has invalid bandwidth %d", i, iv.Bandwidth)
		}
		if iv.URI == "" {
			r.add(SeverityError, "iframe_variants", "I-frame variant %d has empty URI attribute", i)
		}
	}

	for _, mr := range m.Media {
		if mr.Type == "" {
			r.add(SeverityError, "media", "EXT-X-MEDIA missing TYPE")
		}
		if mr.GroupID == "" {
			r.add(SeverityError, "media", "EXT-X-MEDIA missing GROUP-ID")
		}
	}
}
