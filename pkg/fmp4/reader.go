package fmp4

import (
	"github.com/hlskit/hlskit/pkg/codec"
	"github.com/hlskit/hlskit/pkg/errors"
)

// requiredTopLevel are box types a well-formed init or media segment must
// eventually contain; ReadBoxes itself stays permissive (any top-level list
// parses), but callers validating a specific segment kind can consult this.
var requiredTopLevel = map[string]bool{
	"ftyp": true,
	"moov": true,
	"styp": true,
	"moof": true,
	"mdat": true,
}

// ReadBoxes parses a flat top-level box list from data, descending eagerly
// into every known container type (spec.md §4.2's "descends into containers
// on demand" is realized here as eager-on-parse since CMAF box trees are
// shallow and fully buffered in memory already).
func ReadBoxes(data []byte) ([]Box, error) {
	r := codec.NewReader(data)
	var boxes []Box
	for r.Remaining() > 0 {
		b, err := readOne(r)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

func readOne(r *codec.Reader) (Box, error) {
	if r.Remaining() < 8 {
		return Box{}, errors.New(errors.ErrCodeTruncatedBox, "box header truncated")
	}
	size32, err := r.U32()
	if err != nil {
		return Box{}, errors.Wrap(errors.ErrCodeTruncatedBox, "reading box size", err)
	}
	typ, err := r.FourCC()
	if err != nil {
		return Box{}, errors.Wrap(errors.ErrCodeTruncatedBox, "reading box type", err)
	}

	var fullSize uint64
	headerLen := 8
	switch size32 {
	case 0:
		// Size extends to end of the buffer (spec.md §3: "0=to-EOF").
		fullSize = uint64(8 + r.Remaining())
	case 1:
		large, err := r.U64()
		if err != nil {
			return Box{}, errors.Wrap(errors.ErrCodeTruncatedBox, "reading large size", err)
		}
		fullSize = large
		headerLen = 16
	default:
		fullSize = uint64(size32)
	}

	if fullSize < uint64(headerLen) {
		return Box{}, errors.Newf(errors.ErrCodeInvalidSize, "box %q has size %d smaller than its header", typ, fullSize)
	}
	payloadLen := int(fullSize) - headerLen
	if payloadLen < 0 || payloadLen > r.Remaining() {
		return Box{}, errors.Newf(errors.ErrCodeTruncatedBox, "box %q declares %d payload bytes, only %d remain", typ, payloadLen, r.Remaining())
	}

	payload, err := r.Slice(payloadLen)
	if err != nil {
		return Box{}, errors.Wrap(errors.ErrCodeTruncatedBox, "reading box payload", err)
	}

	b := Box{Type: typ, Size: fullSize}
	if IsContainer(typ) {
		children, err := ReadBoxes(payload)
		if err != nil {
			return Box{}, err
		}
		b.Children = children
	} else {
		b.Payload = payload
	}
	return b, nil
}

// RequireTopLevel verifies that boxes contains every named type, in any
// order, returning ErrCodeUnknownRequiredBox naming the first one missing.
func RequireTopLevel(boxes []Box, types ...string) error {
	present := make(map[string]bool, len(boxes))
	for _, b := range boxes {
		present[b.Type] = true
	}
	for _, t := range types {
		if !present[t] {
			return errors.Newf(errors.ErrCodeUnknownRequiredBox, "missing required top-level box %q", t)
		}
	}
	return nil
}

// RequireKnownTopLevel checks boxes against requiredTopLevel, but only for
// the subset named in want (e.g. ReadInitSegment passes {"ftyp", "moov"}).
// It exists so init/media segment readers can validate against the same
// canonical requiredTopLevel set, instead of each caller
// spelling out literal box-name strings.
func RequireKnownTopLevel(boxes []Box, want ...string) error {
	for _, t := range want {
		if !requiredTopLevel[t] {
			return errors.Newf(errors.ErrCodeUnknownRequiredBox, "%q is not a recognized top-level box", t)
		}
	}
	return RequireTopLevel(boxes, want...)
}

// ReadInitSegment parses data and verifies it carries the ftyp+moov top-level
// boxes a CMAF init segment requires, per spec.md §4.2.
func ReadInitSegment(data []byte) ([]Box, error) {
	boxes, err := ReadBoxes(data)
	if err != nil {
		return nil, err
	}
	if err := RequireKnownTopLevel(boxes, "ftyp", "moov"); err != nil {
		return nil, err
	}
	return boxes, nil
}

// ReadMediaSegment parses data and verifies it carries the moof+mdat
// top-level boxes a CMAF media segment requires, per spec.md §4.2. styp is
// optional in some encoders' output, so it is not required; absence of
// moof/mdat is always an error.
func ReadMediaSegment(data []byte) ([]Box, error) {
	boxes, err := ReadBoxes(data)
	if err != nil {
		return nil, err
	}
	if err := RequireKnownTopLevel(boxes, "moof", "mdat"); err != nil {
		return nil, err
	}
	return boxes, nil
}
