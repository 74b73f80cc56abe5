package manifest

import (
	"strconv"

	"github.com/hlskit/hlskit/pkg/errors"
	"github.com/hlskit/hlskit/pkg/tag"
)

// DocKind distinguishes a media playlist from a master playlist, decided by
// the first content-bearing tag encountered per spec.md §4.4.
type DocKind int

const (
	DocUnknown DocKind = iota
	DocMedia
	DocMaster
)

// Document is the parsed result: exactly one of Media or Master is set,
// matching Kind.
type Document struct {
	Kind   DocKind
	Media  *MediaPlaylist
	Master *MasterPlaylist
}

// Parse reads an M3U8 document and dispatches to the media- or
// master-playlist subparser, per spec.md §4.4.
func Parse(data []byte) (*Document, error) {
	events, err := tag.Parse(data)
	if err != nil {
		return nil, err
	}

	p := &parseState{events: events}
	return p.run()
}

type parseState struct {
	events []tag.Event
	kind   DocKind
	media  *MediaPlaylist
	master *MasterPlaylist

	pendingKey           *Key
	pendingMap           *Map
	pendingDiscontinuity bool
	pendingPDT           string
	pendingGap           bool
	pendingByteRange     *ByteRange
	pendingParts         []Part
	pendingInf           *tag.Event // the EXTINF event awaiting its URI line
}

func (p *parseState) run() (*Document, error) {
	p.media = &MediaPlaylist{Version: 3}
	p.master = &MasterPlaylist{Version: 3}

	for _, ev := range p.events {
		if err := p.handle(ev); err != nil {
			return nil, err
		}
	}

	if len(p.pendingParts) > 0 {
		p.media.Segments = append(p.media.Segments, MediaSegment{Parts: p.pendingParts})
	}

	switch p.kind {
	case DocMedia:
		return &Document{Kind: DocMedia, Media: p.media}, nil
	case DocMaster:
		return &Document{Kind: DocMaster, Master: p.master}, nil
	default:
		// No content-bearing tag seen (e.g. an empty or header-only
		// playlist): default to an empty media playlist.
		return &Document{Kind: DocMedia, Media: p.media}, nil
	}
}

func (p *parseState) setKind(k DocKind, ev tag.Event) error {
	if p.kind == DocUnknown {
		p.kind = k
		return nil
	}
	if p.kind != k {
		return errors.NewParserError(errors.ErrCodeUnexpectedContent, ev.Line, "media and master playlist tags are mutually exclusive")
	}
	return nil
}

func (p *parseState) handle(ev tag.Event) error {
	switch ev.Kind {
	case tag.KindExtM3U:
		return nil
	case tag.KindVersion:
		v, err := strconv.Atoi(ev.Value)
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "EXT-X-VERSION is not an integer")
		}
		p.media.Version = v
		p.master.Version = v
		return nil
	case tag.KindIndependentSegments:
		p.media.IndependentSegments = true
		p.master.IndependentSegments = true
		return nil
	case tag.KindTargetDuration:
		if err := p.setKind(DocMedia, ev); err != nil {
			return err
		}
		n, err := strconv.Atoi(ev.Value)
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "EXT-X-TARGETDURATION is not an integer")
		}
		p.media.TargetDuration = n
		return nil
	case tag.KindMediaSequence:
		n, err := strconv.ParseUint(ev.Value, 10, 64)
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "EXT-X-MEDIA-SEQUENCE is not an integer")
		}
		p.media.MediaSequence = n
		return nil
	case tag.KindDiscontinuitySequence:
		n, err := strconv.ParseUint(ev.Value, 10, 64)
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "EXT-X-DISCONTINUITY-SEQUENCE is not an integer")
		}
		p.media.DiscontinuitySequence = n
		return nil
	case tag.KindPlaylistType:
		p.media.PlaylistType = ev.Value
		return nil
	case tag.KindEndList:
		p.media.EndList = true
		return nil
	case tag.KindDiscontinuity:
		p.pendingDiscontinuity = true
		return nil
	case tag.KindGap:
		p.pendingGap = true
		return nil
	case tag.KindProgramDateTime:
		p.pendingPDT = ev.Value
		return nil
	case tag.KindByteRange:
		br, err := parseByteRange(ev.Value, ev.Line)
		if err != nil {
			return err
		}
		p.pendingByteRange = br
		return nil
	case tag.KindKey:
		k := keyFromAttrs(ev.Attrs)
		p.pendingKey = &k
		return nil
	case tag.KindMap:
		m := Map{}
		if u, ok := ev.Attrs.GetString("URI"); ok {
			m.URI = u
		}
		if br, ok := ev.Attrs.Get("BYTERANGE"); ok {
			parsed, err := parseByteRange(br, ev.Line)
			if err != nil {
				return err
			}
			m.ByteRange = parsed
		}
		p.pendingMap = &m
		return nil
	case tag.KindInf:
		if err := p.setKind(DocMedia, ev); err != nil {
			return err
		}
		evCopy := ev
		p.pendingInf = &evCopy
		return nil
	case tag.KindPart:
		part, err := partFromAttrs(ev.Attrs, ev.Line)
		if err != nil {
			return err
		}
		p.pendingParts = append(p.pendingParts, part)
		return nil
	case tag.KindURI:
		return p.handleURI(ev)
	case tag.KindStreamInf:
		if err := p.setKind(DocMaster, ev); err != nil {
			return err
		}
		v, err := variantFromAttrs(ev.Attrs, ev.Line)
		if err != nil {
			return err
		}
		p.pendingVariant(v)
		return nil
	case tag.KindIFrameStreamInf:
		if err := p.setKind(DocMaster, ev); err != nil {
			return err
		}
		iv, err := iframeVariantFromAttrs(ev.Attrs, ev.Line)
		if err != nil {
			return err
		}
		p.master.IFrameVariants = append(p.master.IFrameVariants, iv)
		return nil
	case tag.KindMedia:
		mr := mediaRenditionFromAttrs(ev.Attrs)
		p.master.Media = append(p.master.Media, mr)
		return nil
	case tag.KindSessionData:
		sd := SessionData{}
		sd.DataID, _ = ev.Attrs.GetString("DATA-ID")
		sd.Value, _ = ev.Attrs.GetString("VALUE")
		sd.URI, _ = ev.Attrs.GetString("URI")
		sd.Language, _ = ev.Attrs.GetString("LANGUAGE")
		p.master.SessionData = append(p.master.SessionData, sd)
		return nil
	case tag.KindSessionKey:
		k := keyFromAttrs(ev.Attrs)
		p.master.SessionKeys = append(p.master.SessionKeys, k)
		return nil
	case tag.KindContentSteering:
		cs := &ContentSteering{}
		cs.ServerURI, _ = ev.Attrs.GetString("SERVER-URI")
		cs.PathwayID, _ = ev.Attrs.GetString("PATHWAY-ID")
		p.master.ContentSteering = cs
		return nil
	case tag.KindDateRange:
		dr, err := dateRangeFromAttrs(ev.Attrs, ev.Line)
		if err != nil {
			return err
		}
		p.media.DateRanges = append(p.media.DateRanges, dr)
		return nil
	case tag.KindServerControl:
		sc := serverControlFromAttrs(ev.Attrs)
		p.media.ServerControl = &sc
		return nil
	case tag.KindPartInf:
		pt, _, err := ev.Attrs.GetFloat("PART-TARGET")
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "PART-TARGET is not numeric")
		}
		p.media.PartInf = &PartInf{PartTarget: pt}
		return nil
	case tag.KindPreloadHint:
		ph := preloadHintFromAttrs(ev.Attrs)
		p.media.PreloadHint = &ph
		return nil
	case tag.KindRenditionReport:
		rr, err := renditionReportFromAttrs(ev.Attrs, ev.Line)
		if err != nil {
			return err
		}
		p.media.RenditionReports = append(p.media.RenditionReports, rr)
		return nil
	case tag.KindSkip:
		n, _, err := ev.Attrs.GetInt("SKIPPED-SEGMENTS")
		if err != nil {
			return errors.NewParserError(errors.ErrCodeMalformedAttr, ev.Line, "SKIPPED-SEGMENTS is not an integer")
		}
		p.media.Skip = &Skip{SkippedSegments: uint64(n)}
		return nil
	default:
		return nil // forward-compatible: ignore unrecognized tags
	}
}

// pendingVariant stores the upcoming variant; its URI is filled when the
// following bare URI line arrives.
func (p *parseState) pendingVariant(v Variant) {
	p.master.Variants = append(p.master.Variants, v)
}

func (p *parseState) handleURI(ev tag.Event) error {
	switch {
	case p.pendingInf != nil:
		seg := MediaSegment{
			URI:             ev.URI,
			Discontinuity:   p.pendingDiscontinuity,
			Gap:             p.pendingGap,
			ProgramDateTime: p.pendingPDT,
			ByteRange:       p.pendingByteRange,
			Key:             p.pendingKey,
			Map:             p.pendingMap,
			Parts:           p.pendingParts,
		}
		if d, err := strconv.ParseFloat(p.pendingInf.Value, 64); err == nil {
			seg.Duration = d
		}
		if p.pendingInf.Attrs != nil {
			seg.Title, _ = p.pendingInf.Attrs.GetString("TITLE")
		}
		p.media.Segments = append(p.media.Segments, seg)
		p.clearSegmentPending()
		return nil
	case p.kind == DocMaster && len(p.master.Variants) > 0:
		p.master.Variants[len(p.master.Variants)-1].URI = ev.URI
		return nil
	default:
		return errors.NewParserError(errors.ErrCodeOrphanURI, ev.Line, "URI line has no preceding EXTINF or EXT-X-STREAM-INF")
	}
}

func (p *parseState) clearSegmentPending() {
	p.pendingDiscontinuity = false
	p.pendingGap = false
	p.pendingPDT = ""
	p.pendingByteRange = nil
	p.pendingKey = nil
	p.pendingMap = nil
	p.pendingParts = nil
	p.pendingInf = nil
}

func parseByteRange(s string, line int) (*ByteRange, error) {
	at := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			at = i
			break
		}
	}
	lengthStr := s
	var offsetStr string
	if at >= 0 {
		lengthStr = s[:at]
		offsetStr = s[at+1:]
	}
	length, err := strconv.ParseUint(lengthStr, 10, 64)
	if err != nil {
		return nil, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "BYTERANGE length is not an integer")
	}
	br := &ByteRange{Length: length}
	if offsetStr != "" {
		off, err := strconv.ParseUint(offsetStr, 10, 64)
		if err != nil {
			return nil, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "BYTERANGE offset is not an integer")
		}
		br.Offset = &off
	}
	return br, nil
}

func keyFromAttrs(a *tag.AttrList) Key {
	k := Key{}
	if a == nil {
		return k
	}
	k.Method, _ = a.Get("METHOD")
	k.URI, _ = a.GetString("URI")
	k.IV, _ = a.Get("IV")
	k.KeyFormat, _ = a.GetString("KEYFORMAT")
	k.KeyFormatVersions, _ = a.GetString("KEYFORMATVERSIONS")
	return k
}

func partFromAttrs(a *tag.AttrList, line int) (Part, error) {
	p := Part{}
	p.URI, _ = a.GetString("URI")
	d, _, err := a.GetFloat("DURATION")
	if err != nil {
		return p, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "EXT-X-PART DURATION is not numeric")
	}
	p.Duration = d
	p.Independent, _ = a.GetBool("INDEPENDENT")
	p.Gap, _ = a.GetBool("GAP")
	if br, ok := a.Get("BYTERANGE"); ok {
		parsed, err := parseByteRange(br, line)
		if err != nil {
			return p, err
		}
		p.ByteRange = parsed
	}
	return p, nil
}

func variantFromAttrs(a *tag.AttrList, line int) (Variant, error) {
	v := Variant{}
	bw, _, err := a.GetInt("BANDWIDTH")
	if err != nil {
		return v, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "BANDWIDTH is not an integer")
	}
	v.Bandwidth = bw
	if abw, ok, _ := a.GetInt("AVERAGE-BANDWIDTH"); ok {
		v.AverageBandwidth = abw
	}
	v.Codecs, _ = a.GetString("CODECS")
	if res, ok := a.Get("RESOLUTION"); ok {
		w, h := parseResolution(res)
		v.Width, v.Height = w, h
	}
	if fr, ok, _ := a.GetFloat("FRAME-RATE"); ok {
		v.FrameRate = fr
	}
	v.HDCPLevel, _ = a.Get("HDCP-LEVEL")
	v.Audio, _ = a.GetString("AUDIO")
	v.Video, _ = a.GetString("VIDEO")
	v.Subtitles, _ = a.GetString("SUBTITLES")
	v.ClosedCaptions, _ = a.GetString("CLOSED-CAPTIONS")
	return v, nil
}

func iframeVariantFromAttrs(a *tag.AttrList, line int) (IFrameVariant, error) {
	iv := IFrameVariant{}
	bw, _, err := a.GetInt("BANDWIDTH")
	if err != nil {
		return iv, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "BANDWIDTH is not an integer")
	}
	iv.Bandwidth = bw
	iv.Codecs, _ = a.GetString("CODECS")
	iv.URI, _ = a.GetString("URI")
	iv.Video, _ = a.GetString("VIDEO")
	if res, ok := a.Get("RESOLUTION"); ok {
		iv.Width, iv.Height = parseResolution(res)
	}
	return iv, nil
}

func parseResolution(s string) (int, int) {
	for i := 0; i < len(s); i++ {
		if s[i] == 'x' {
			w, _ := strconv.Atoi(s[:i])
			h, _ := strconv.Atoi(s[i+1:])
			return w, h
		}
	}
	return 0, 0
}

func mediaRenditionFromAttrs(a *tag.AttrList) MediaRendition {
	mr := MediaRendition{}
	mr.Type, _ = a.Get("TYPE")
	mr.URI, _ = a.GetString("URI")
	mr.GroupID, _ = a.GetString("GROUP-ID")
	mr.Language, _ = a.GetString("LANGUAGE")
	mr.AssocLanguage, _ = a.GetString("ASSOC-LANGUAGE")
	mr.Name, _ = a.GetString("NAME")
	mr.Default, _ = a.GetBool("DEFAULT")
	mr.Autoselect, _ = a.GetBool("AUTOSELECT")
	mr.Forced, _ = a.GetBool("FORCED")
	mr.InstreamID, _ = a.GetString("INSTREAM-ID")
	mr.Channels, _ = a.GetString("CHANNELS")
	return mr
}

func dateRangeFromAttrs(a *tag.AttrList, line int) (DateRange, error) {
	dr := DateRange{}
	dr.ID, _ = a.GetString("ID")
	if dr.ID == "" {
		return dr, errors.NewParserError(errors.ErrCodeMissingField, line, "EXT-X-DATERANGE missing ID")
	}
	dr.Class, _ = a.GetString("CLASS")
	dr.StartDate, _ = a.GetString("START-DATE")
	dr.EndDate, _ = a.GetString("END-DATE")
	if d, ok, _ := a.GetFloat("DURATION"); ok {
		dr.Duration = &d
	}
	if d, ok, _ := a.GetFloat("PLANNED-DURATION"); ok {
		dr.PlannedDuration = &d
	}
	dr.SCTE35Cmd, _ = a.Get("SCTE35-CMD")
	dr.SCTE35Out, _ = a.Get("SCTE35-OUT")
	dr.SCTE35In, _ = a.Get("SCTE35-IN")
	dr.EndOnNext, _ = a.GetBool("END-ON-NEXT")
	for _, k := range a.Keys() {
		if len(k) > 2 && k[:2] == "X-" {
			if dr.CustomAttributes == nil {
				dr.CustomAttributes = make(map[string]string)
			}
			v, _ := a.GetString(k)
			dr.CustomAttributes[k] = v
		}
	}
	return dr, nil
}

func serverControlFromAttrs(a *tag.AttrList) ServerControl {
	sc := ServerControl{}
	if v, ok, _ := a.GetFloat("CAN-SKIP-UNTIL"); ok {
		sc.CanSkipUntil = &v
	}
	sc.CanSkipDateranges, _ = a.GetBool("CAN-SKIP-DATERANGES")
	if v, ok, _ := a.GetFloat("HOLD-BACK"); ok {
		sc.HoldBack = &v
	}
	if v, ok, _ := a.GetFloat("PART-HOLD-BACK"); ok {
		sc.PartHoldBack = &v
	}
	sc.CanBlockReload, _ = a.GetBool("CAN-BLOCK-RELOAD")
	return sc
}

func preloadHintFromAttrs(a *tag.AttrList) PreloadHint {
	ph := PreloadHint{}
	ph.Type, _ = a.Get("TYPE")
	ph.URI, _ = a.GetString("URI")
	if v, ok, _ := a.GetInt("BYTERANGE-START"); ok {
		u := uint64(v)
		ph.ByteRangeStart = &u
	}
	if v, ok, _ := a.GetInt("BYTERANGE-LENGTH"); ok {
		u := uint64(v)
		ph.ByteRangeLength = &u
	}
	return ph
}

func renditionReportFromAttrs(a *tag.AttrList, line int) (RenditionReport, error) {
	rr := RenditionReport{}
	rr.URI, _ = a.GetString("URI")
	msn, _, err := a.GetInt("LAST-MSN")
	if err != nil {
		return rr, errors.NewParserError(errors.ErrCodeMalformedAttr, line, "LAST-MSN is not an integer")
	}
	rr.LastMSN = uint64(msn)
	if lp, ok, _ := a.GetInt("LAST-PART"); ok {
		u := uint64(lp)
		rr.LastPart = &u
	}
	return rr, nil
}
