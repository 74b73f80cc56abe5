// Package codec provides big-endian binary encoding helpers shared by the
// fMP4 box writer/reader. It mirrors the field-by-field packing style the
// teacher SDK used for MPEG-TS/PES headers (manual offset tracking over a
// byte slice with encoding/binary), generalized into a reusable
// reader/writer pair instead of one-off packet builders.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates big-endian encoded fields into a growable buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// NewWriterCap creates a Writer with a pre-sized buffer.
func NewWriterCap(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer. The returned slice aliases the
// writer's internal storage and must not be retained across further writes.
func (w *Writer) Bytes() []byte { return w.buf }

// U8 appends a single byte.
func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// U16 appends a big-endian uint16.
func (w *Writer) U16(v uint16) *Writer {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// U32 appends a big-endian uint32.
func (w *Writer) U32(v uint32) *Writer {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// U64 appends a big-endian uint64.
func (w *Writer) U64(v uint64) *Writer {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// FourCC appends a 4-byte ASCII box type token, e.g. "ftyp".
func (w *Writer) FourCC(code string) *Writer {
	if len(code) != 4 {
		panic(fmt.Sprintf("codec: FourCC %q is not 4 bytes", code))
	}
	w.buf = append(w.buf, code...)
	return w
}

// Fixed16_16 appends a 16.16 fixed-point value (e.g. QuickTime matrix / rate
// fields) from a float64.
func (w *Writer) Fixed16_16(v float64) *Writer {
	return w.U32(uint32(int32(v * 65536)))
}

// Fixed8_8 appends an 8.8 fixed-point value (e.g. QuickTime volume field).
func (w *Writer) Fixed8_8(v float64) *Writer {
	return w.U16(uint16(int16(v * 256)))
}

// Bytes appends raw bytes verbatim.
func (w *Writer) Raw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// PutU32At overwrites 4 bytes at offset with a big-endian uint32. Used to
// patch size/offset fields (e.g. stco, trun.data_offset) once the final
// layout is known — see SPEC_FULL.md §9 on the stco/co64 two-pass rule.
func (w *Writer) PutU32At(offset int, v uint32) error {
	if offset < 0 || offset+4 > len(w.buf) {
		return fmt.Errorf("codec: PutU32At offset %d out of range (len=%d)", offset, len(w.buf))
	}
	binary.BigEndian.PutUint32(w.buf[offset:offset+4], v)
	return nil
}

// PutU64At overwrites 8 bytes at offset with a big-endian uint64.
func (w *Writer) PutU64At(offset int, v uint64) error {
	if offset < 0 || offset+8 > len(w.buf) {
		return fmt.Errorf("codec: PutU64At offset %d out of range (len=%d)", offset, len(w.buf))
	}
	binary.BigEndian.PutUint64(w.buf[offset:offset+8], v)
	return nil
}

// Reader consumes big-endian encoded fields from a fixed byte slice,
// tracking a cursor and returning bounded-slice errors instead of panicking
// on truncated input.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential big-endian reads.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current read cursor.
func (r *Reader) Pos() int { return r.pos }

// Seek moves the cursor to an absolute offset within bounds.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return fmt.Errorf("codec: seek %d out of range (len=%d)", pos, len(r.buf))
	}
	r.pos = pos
	return nil
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("codec: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U16 reads a big-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// U32 reads a big-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a big-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// FourCC reads a 4-byte ASCII token.
func (r *Reader) FourCC() (string, error) {
	if err := r.need(4); err != nil {
		return "", err
	}
	v := string(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Fixed16_16 reads a 16.16 fixed-point value as a float64.
func (r *Reader) Fixed16_16() (float64, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return float64(int32(v)) / 65536, nil
}

// Slice reads n raw bytes, bounds-checked, returning a copy so the caller
// may retain it independent of the reader's backing array.
func (r *Reader) Slice(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("codec: negative slice length %d", n)
	}
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// RestBytes returns every remaining unread byte, as a copy.
func (r *Reader) RestBytes() []byte {
	out := make([]byte, r.Remaining())
	copy(out, r.buf[r.pos:])
	r.pos = len(r.buf)
	return out
}
