package tag

import (
	"strconv"
	"strings"

	"github.com/hlskit/hlskit/pkg/errors"
)

// Parse tokenizes M3U8 text into a flat list of Events, one per source line,
// tolerant of CRLF line endings per spec.md §4.3. It does not attach
// per-segment tags to segments or dispatch media/master subparsing — that
// aggregation is ManifestParser's job (pkg/manifest); this layer only lexes.
func Parse(data []byte) ([]Event, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var events []Event
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			events = append(events, Event{Kind: KindURI, URI: line, Line: lineNo})
			continue
		}
		ev, err := parseTagLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if len(events) == 0 || events[0].Kind != KindExtM3U {
		return nil, errors.NewParserError(errors.ErrCodeMissingExtM3U, firstLine(events), "playlist does not begin with #EXTM3U")
	}
	return events, nil
}

func firstLine(events []Event) int {
	if len(events) == 0 {
		return 0
	}
	return events[0].Line
}

func parseTagLine(line string, lineNo int) (Event, error) {
	if line == "#EXTM3U" {
		return Event{Kind: KindExtM3U, Line: lineNo}, nil
	}

	body := line[1:] // drop leading '#'
	name, rest, hasColon := cutColon(body)
	kind := Kind(name)

	switch kind {
	case KindVersion, KindTargetDuration:
		return Event{Kind: kind, Value: rest, Line: lineNo}, nil
	case KindMediaSequence, KindDiscontinuitySequence:
		if !hasColon {
			return Event{}, errors.NewParserError(errors.ErrCodeMalformedAttr, lineNo, string(kind)+" requires a value")
		}
		return Event{Kind: kind, Value: rest, Line: lineNo}, nil
	case KindPlaylistType:
		return Event{Kind: kind, Value: rest, Line: lineNo}, nil
	case KindDiscontinuity, KindGap, KindEndList, KindIndependentSegments:
		return Event{Kind: kind, Line: lineNo}, nil
	case KindInf:
		dur, title, err := parseInf(rest, lineNo)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: kind, Value: dur, Attrs: singleAttr("TITLE", title), Line: lineNo}, nil
	case KindByteRange:
		return Event{Kind: kind, Value: rest, Line: lineNo}, nil
	case KindProgramDateTime:
		return Event{Kind: kind, Value: rest, Line: lineNo}, nil
	case KindKey, KindMap, KindStreamInf, KindIFrameStreamInf, KindMedia,
		KindSessionData, KindSessionKey, KindContentSteering, KindDateRange,
		KindServerControl, KindPartInf, KindPart, KindPreloadHint,
		KindRenditionReport, KindSkip:
		attrs, err := ParseAttrList(rest, lineNo)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: kind, Attrs: attrs, Line: lineNo}, nil
	default:
		// Unknown or vendor tag: keep as a best-effort attribute event so
		// forward-compatible playlists still round-trip their other tags.
		attrs, _ := ParseAttrList(rest, lineNo)
		return Event{Kind: kind, Value: rest, Attrs: attrs, Line: lineNo}, nil
	}
}

func singleAttr(key, value string) *AttrList {
	return NewAttrList().SetString(key, value)
}

func cutColon(s string) (name, rest string, hasColon bool) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

// parseInf parses "duration[,title]" from an EXTINF tag body.
func parseInf(rest string, lineNo int) (duration, title string, err error) {
	idx := strings.IndexByte(rest, ',')
	durStr := rest
	if idx >= 0 {
		durStr = rest[:idx]
		title = rest[idx+1:]
	}
	if _, parseErr := strconv.ParseFloat(durStr, 64); parseErr != nil {
		return "", "", errors.NewParserError(errors.ErrCodeMalformedAttr, lineNo, "EXTINF duration is not numeric: "+durStr)
	}
	return durStr, title, nil
}

// ParseAttrList splits a comma-separated KEY=value attribute string,
// respecting quoted values that may themselves contain commas, per
// spec.md §4.3's attribute grammar.
func ParseAttrList(s string, lineNo int) (*AttrList, error) {
	out := NewAttrList()
	pairs, err := splitAttrPairs(s, lineNo)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		eq := strings.IndexByte(p, '=')
		if eq < 0 {
			return nil, errors.NewParserError(errors.ErrCodeMalformedAttr, lineNo, "attribute missing '=': "+p)
		}
		key := p[:eq]
		value := p[eq+1:]
		out.Set(key, value)
	}
	return out, nil
}

// splitAttrPairs splits on top-level commas only: a comma inside a
// double-quoted value does not split.
func splitAttrPairs(s string, lineNo int) ([]string, error) {
	var out []string
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if inQuotes {
		return nil, errors.NewParserError(errors.ErrCodeMalformedAttr, lineNo, "unterminated quoted attribute value")
	}
	if start <= len(s) {
		out = append(out, s[start:])
	}
	// Filter empty trailing segment from a trailing comma.
	filtered := out[:0]
	for _, v := range out {
		if v != "" {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}
