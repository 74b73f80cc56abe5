// Package fmp4 implements a CMAF-profile fragmented MP4 (ISO/IEC 14496-12)
// box writer and reader: init segments (ftyp+moov), media segments
// (styp+moof+mdat), and a generic nested-box parser.
//
// The writer holds only its track configuration (no mutable state, no
// mutex); its Write*(...) ([]byte, error) method style is grounded on the teacher SDK's
// TSWriter (pkg/streaming/hls/segment.go), generalized from MPEG-TS packets
// to ISO-BMFF boxes.
package fmp4

import (
	"fmt"
	"strings"

	"github.com/hlskit/hlskit/pkg/codec"
)

// Box is a parsed or to-be-written ISO-BMFF box.
type Box struct {
	Type     string
	Size     uint64 // full box size including header, 0 when not yet known
	Payload  []byte // leaf payload, excluding any nested children
	Children []Box
}

// containerTypes lists the box types that recurse into children rather than
// carrying an opaque payload, per spec.md §4.2.
var containerTypes = map[string]bool{
	"moov": true,
	"trak": true,
	"mdia": true,
	"minf": true,
	"stbl": true,
	"moof": true,
	"traf": true,
	"mvex": true,
	"edts": true,
	"dinf": true,
	"udta": true,
}

// IsContainer reports whether t is a box type this package treats as a
// container (recurses into Children) rather than a leaf (opaque Payload).
func IsContainer(t string) bool {
	return containerTypes[t]
}

// FindChild returns the first direct child of the given type, if any.
func (b *Box) FindChild(t string) *Box {
	for i := range b.Children {
		if b.Children[i].Type == t {
			return &b.Children[i]
		}
	}
	return nil
}

// FindByPath descends a slash-separated path of box types, e.g.
// "trak/mdia/minf/stbl", returning nil if any segment is missing.
func (b *Box) FindByPath(path string) *Box {
	cur := b
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				seg := path[start:i]
				cur = cur.FindChild(seg)
				if cur == nil {
					return nil
				}
			}
			start = i + 1
		}
	}
	return cur
}

// String renders an indented box tree, e.g. for logging a segment's
// structure while debugging a manifest/segment mismatch.
func (b *Box) String() string {
	var sb strings.Builder
	b.writeIndented(&sb, 0)
	return sb.String()
}

func (b *Box) writeIndented(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "%s%s (size=%d)\n", strings.Repeat("  ", depth), b.Type, b.Size)
	for i := range b.Children {
		b.Children[i].writeIndented(sb, depth+1)
	}
}

// encode serializes the box (header + payload/children) into w, using the
// 64-bit large-size form only when the full size would otherwise overflow a
// uint32, per spec.md §4.1.
func (b *Box) encode(w *codec.Writer) {
	bodyWriter := codec.NewWriter()

	if len(b.Children) > 0 {
		for i := range b.Children {
			b.Children[i].encode(bodyWriter)
		}
	} else {
		bodyWriter.Raw(b.Payload)
	}
	body := bodyWriter.Bytes()

	fullSize := uint64(8 + len(body))
	if fullSize > 0xFFFFFFFF {
		w.U32(1)
		w.FourCC(b.Type)
		w.U64(fullSize + 8) // account for the extra 8-byte largesize field
		w.Raw(body)
	} else {
		w.U32(uint32(fullSize))
		w.FourCC(b.Type)
		w.Raw(body)
	}
}

// Encode serializes a top-level list of boxes into a single byte slice.
func Encode(boxes []Box) []byte {
	w := codec.NewWriter()
	for i := range boxes {
		boxes[i].encode(w)
	}
	return w.Bytes()
}
