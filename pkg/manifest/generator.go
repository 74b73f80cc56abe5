package manifest

import (
	"strconv"

	"github.com/hlskit/hlskit/pkg/tag"
)

// Generate renders a Document to canonical M3U8 text, per spec.md §4.4:
// tags precede their anchor segment, attribute order is stable, and the
// output ends with a trailing newline. Generate never mutates doc.
func Generate(doc *Document) string {
	switch doc.Kind {
	case DocMaster:
		return generateMaster(doc.Master)
	default:
		return generateMedia(doc.Media)
	}
}

func generateMedia(p *MediaPlaylist) string {
	w := tag.NewWriter()
	w.ExtM3U()

	version := p.Version
	if version == 0 {
		version = 3
	}
	w.Version(version)

	if p.IndependentSegments {
		w.IndependentSegments()
	}
	if p.ServerControl != nil {
		w.ServerControl(serverControlToAttrs(p.ServerControl))
	}
	if p.PartInf != nil {
		w.PartInf(tag.NewAttrList().SetFloat("PART-TARGET", p.PartInf.PartTarget))
	}

	w.TargetDuration(p.TargetDuration)
	w.MediaSequence(p.MediaSequence)
	if p.DiscontinuitySequence > 0 {
		w.DiscontinuitySequence(p.DiscontinuitySequence)
	}
	if p.Map != nil {
		w.Map(mapToAttrs(p.Map))
	}
	if p.PlaylistType != "" {
		w.PlaylistType(p.PlaylistType)
	}

	for _, dr := range p.DateRanges {
		w.DateRange(dateRangeToAttrs(dr))
	}

	if p.Skip != nil {
		w.Skip(tag.NewAttrList().SetInt("SKIPPED-SEGMENTS", int64(p.Skip.SkippedSegments)))
	}

	for _, seg := range p.Segments {
		writeSegment(w, seg)
	}

	if p.PreloadHint != nil {
		w.PreloadHint(preloadHintToAttrs(p.PreloadHint))
	}
	for _, rr := range p.RenditionReports {
		w.RenditionReport(renditionReportToAttrs(rr))
	}

	if p.EndList {
		w.EndList()
	}
	return w.String()
}

func writeSegment(w *tag.Writer, seg MediaSegment) {
	if seg.Discontinuity {
		w.Discontinuity()
	}
	if seg.Key != nil {
		w.Key(keyToAttrs(*seg.Key))
	}
	if seg.Map != nil {
		w.Map(mapToAttrs(seg.Map))
	}
	if seg.ProgramDateTime != "" {
		w.ProgramDateTime(seg.ProgramDateTime)
	}
	for _, part := range seg.Parts {
		w.Part(partToAttrs(part))
	}
	if seg.Gap {
		w.Gap()
	}
	if seg.ByteRange != nil {
		w.ByteRange(seg.ByteRange.Length, seg.ByteRange.Offset)
	}
	if seg.URI != "" {
		w.Inf(seg.Duration, seg.Title, seg.URI)
	}
}

func generateMaster(m *MasterPlaylist) string {
	w := tag.NewWriter()
	w.ExtM3U()

	version := m.Version
	if version == 0 {
		version = 3
	}
	w.Version(version)

	if m.IndependentSegments {
		w.IndependentSegments()
	}
	for _, sd := range m.SessionData {
		attrs := tag.NewAttrList().SetString("DATA-ID", sd.DataID)
		if sd.Value != "" {
			attrs.SetString("VALUE", sd.Value)
		}
		if sd.URI != "" {
			attrs.SetString("URI", sd.URI)
		}
		if sd.Language != "" {
			attrs.SetString("LANGUAGE", sd.Language)
		}
		w.SessionData(attrs)
	}
	for _, k := range m.SessionKeys {
		w.SessionKey(keyToAttrs(k))
	}
	if m.ContentSteering != nil {
		attrs := tag.NewAttrList().SetString("SERVER-URI", m.ContentSteering.ServerURI)
		if m.ContentSteering.PathwayID != "" {
			attrs.SetString("PATHWAY-ID", m.ContentSteering.PathwayID)
		}
		w.ContentSteering(attrs)
	}
	for _, mr := range m.Media {
		w.Media(mediaRenditionToAttrs(mr))
	}
	for _, v := range m.Variants {
		w.StreamInf(variantToAttrs(v), v.URI)
	}
	for _, iv := range m.IFrameVariants {
		w.IFrameStreamInf(iframeVariantToAttrs(iv))
	}
	return w.String()
}

func keyToAttrs(k Key) *tag.AttrList {
	a := tag.NewAttrList().Set("METHOD", k.Method)
	if k.URI != "" {
		a.SetString("URI", k.URI)
	}
	if k.IV != "" {
		a.Set("IV", k.IV)
	}
	if k.KeyFormat != "" {
		a.SetString("KEYFORMAT", k.KeyFormat)
	}
	if k.KeyFormatVersions != "" {
		a.SetString("KEYFORMATVERSIONS", k.KeyFormatVersions)
	}
	return a
}

func mapToAttrs(m *Map) *tag.AttrList {
	a := tag.NewAttrList().SetString("URI", m.URI)
	if m.ByteRange != nil {
		a.Set("BYTERANGE", byteRangeString(m.ByteRange))
	}
	return a
}

func byteRangeString(br *ByteRange) string {
	s := strconv.FormatUint(br.Length, 10)
	if br.Offset != nil {
		s += "@" + strconv.FormatUint(*br.Offset, 10)
	}
	return s
}

func partToAttrs(p Part) *tag.AttrList {
	a := tag.NewAttrList().SetString("URI", p.URI).SetFloat("DURATION", p.Duration)
	if p.Independent {
		a.SetBool("INDEPENDENT", true)
	}
	if p.ByteRange != nil {
		a.Set("BYTERANGE", byteRangeString(p.ByteRange))
	}
	if p.Gap {
		a.SetBool("GAP", true)
	}
	return a
}

func variantToAttrs(v Variant) *tag.AttrList {
	a := tag.NewAttrList().SetInt("BANDWIDTH", v.Bandwidth)
	if v.AverageBandwidth > 0 {
		a.SetInt("AVERAGE-BANDWIDTH", v.AverageBandwidth)
	}
	if v.Codecs != "" {
		a.SetString("CODECS", v.Codecs)
	}
	if v.Width > 0 && v.Height > 0 {
		a.SetResolution("RESOLUTION", v.Width, v.Height)
	}
	if v.FrameRate > 0 {
		a.SetFloat("FRAME-RATE", v.FrameRate)
	}
	if v.HDCPLevel != "" {
		a.Set("HDCP-LEVEL", v.HDCPLevel)
	}
	if v.Audio != "" {
		a.SetString("AUDIO", v.Audio)
	}
	if v.Video != "" {
		a.SetString("VIDEO", v.Video)
	}
	if v.Subtitles != "" {
		a.SetString("SUBTITLES", v.Subtitles)
	}
	if v.ClosedCaptions != "" {
		a.SetString("CLOSED-CAPTIONS", v.ClosedCaptions)
	}
	return a
}

func iframeVariantToAttrs(iv IFrameVariant) *tag.AttrList {
	a := tag.NewAttrList().SetInt("BANDWIDTH", iv.Bandwidth)
	if iv.Codecs != "" {
		a.SetString("CODECS", iv.Codecs)
	}
	if iv.Width > 0 && iv.Height > 0 {
		a.SetResolution("RESOLUTION", iv.Width, iv.Height)
	}
	if iv.Video != "" {
		a.SetString("VIDEO", iv.Video)
	}
	a.SetString("URI", iv.URI)
	return a
}

func mediaRenditionToAttrs(mr MediaRendition) *tag.AttrList {
	a := tag.NewAttrList().Set("TYPE", mr.Type)
	if mr.URI != "" {
		a.SetString("URI", mr.URI)
	}
	a.SetString("GROUP-ID", mr.GroupID)
	if mr.Language != "" {
		a.SetString("LANGUAGE", mr.Language)
	}
	if mr.AssocLanguage != "" {
		a.SetString("ASSOC-LANGUAGE", mr.AssocLanguage)
	}
	a.SetString("NAME", mr.Name)
	a.SetBool("DEFAULT", mr.Default)
	a.SetBool("AUTOSELECT", mr.Autoselect)
	if mr.Type == "SUBTITLES" {
		a.SetBool("FORCED", mr.Forced)
	}
	if mr.InstreamID != "" {
		a.SetString("INSTREAM-ID", mr.InstreamID)
	}
	if mr.Channels != "" {
		a.SetString("CHANNELS", mr.Channels)
	}
	return a
}

func serverControlToAttrs(sc *ServerControl) *tag.AttrList {
	a := tag.NewAttrList()
	if sc.CanSkipUntil != nil {
		a.SetFloat("CAN-SKIP-UNTIL", *sc.CanSkipUntil)
	}
	if sc.CanSkipDateranges {
		a.SetBool("CAN-SKIP-DATERANGES", true)
	}
	if sc.HoldBack != nil {
		a.SetFloat("HOLD-BACK", *sc.HoldBack)
	}
	if sc.PartHoldBack != nil {
		a.SetFloat("PART-HOLD-BACK", *sc.PartHoldBack)
	}
	a.SetBool("CAN-BLOCK-RELOAD", sc.CanBlockReload)
	return a
}

func preloadHintToAttrs(ph *PreloadHint) *tag.AttrList {
	a := tag.NewAttrList().Set("TYPE", ph.Type).SetString("URI", ph.URI)
	if ph.ByteRangeStart != nil {
		a.SetInt("BYTERANGE-START", int64(*ph.ByteRangeStart))
	}
	if ph.ByteRangeLength != nil {
		a.SetInt("BYTERANGE-LENGTH", int64(*ph.ByteRangeLength))
	}
	return a
}

func renditionReportToAttrs(rr RenditionReport) *tag.AttrList {
	a := tag.NewAttrList().SetString("URI", rr.URI).SetInt("LAST-MSN", int64(rr.LastMSN))
	if rr.LastPart != nil {
		a.SetInt("LAST-PART", int64(*rr.LastPart))
	}
	return a
}

func dateRangeToAttrs(dr DateRange) *tag.AttrList {
	a := tag.NewAttrList().SetString("ID", dr.ID)
	if dr.Class != "" {
		a.SetString("CLASS", dr.Class)
	}
	a.SetString("START-DATE", dr.StartDate)
	if dr.EndDate != "" {
		a.SetString("END-DATE", dr.EndDate)
	}
	if dr.Duration != nil {
		a.SetFloat("DURATION", *dr.Duration)
	}
	if dr.PlannedDuration != nil {
		a.SetFloat("PLANNED-DURATION", *dr.PlannedDuration)
	}
	if dr.SCTE35Cmd != "" {
		a.Set("SCTE35-CMD", dr.SCTE35Cmd)
	}
	if dr.SCTE35Out != "" {
		a.Set("SCTE35-OUT", dr.SCTE35Out)
	}
	if dr.SCTE35In != "" {
		a.Set("SCTE35-IN", dr.SCTE35In)
	}
	if dr.EndOnNext {
		a.SetBool("END-ON-NEXT", true)
	}
	for k, v := range dr.CustomAttributes {
		a.SetString(k, v)
	}
	return a
}
