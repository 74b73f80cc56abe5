package fmp4

import (
	"encoding/binary"
	"strings"
	"testing"
)

func testWriter() *Writer {
	return NewWriter(
		&AudioConfig{SampleRate: 48000, Channels: 2, Profile: AudioProfileAACLC, TrackID: 2},
		&VideoConfig{Codec: VideoCodecH264, Width: 1280, Height: 720, SPS: []byte{0x67, 0x42, 0x00, 0x1E, 0xAA}, PPS: []byte{0x68, 0xCE}, TrackID: 1, Timescale: 90000},
	)
}

func TestInitSegmentTopLevelBoxOrder(t *testing.T) {
	w := testWriter()
	data := w.BuildInitSegment()

	boxes, err := ReadInitSegment(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boxes) < 2 || boxes[0].Type != "ftyp" || boxes[1].Type != "moov" {
		t.Fatalf("expected [ftyp, moov, ...], got %+v", boxes)
	}

	moov := boxes[1]
	if moov.FindChild("mvex") == nil {
		t.Fatal("expected moov to contain mvex")
	}
	if moov.FindChild("trak") == nil {
		t.Fatal("expected moov to contain at least one trak")
	}
}

func TestInitSegmentCarriesBothTracks(t *testing.T) {
	w := testWriter()
	boxes, err := ReadInitSegment(w.BuildInitSegment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moov := boxes[1]

	trakCount := 0
	for _, c := range moov.Children {
		if c.Type == "trak" {
			trakCount++
		}
	}
	if trakCount != 2 {
		t.Fatalf("expected 2 trak boxes (audio+video), got %d", trakCount)
	}
}

func TestMediaSegmentTopLevelBoxes(t *testing.T) {
	w := testWriter()
	samples := []Sample{
		{Duration: 3000, Data: []byte{0x01, 0x02, 0x03}, Keyframe: true},
		{Duration: 3000, Data: []byte{0x04, 0x05}, Keyframe: false},
	}
	data := w.BuildMediaSegment(1, 1, 0, samples)

	boxes, err := ReadMediaSegment(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boxes) != 3 || boxes[0].Type != "styp" || boxes[1].Type != "moof" || boxes[2].Type != "mdat" {
		t.Fatalf("expected [styp, moof, mdat], got %+v", boxes)
	}

	wantMdatSize := uint64(8 + 3 + 2)
	if boxes[2].Size != wantMdatSize {
		t.Fatalf("expected mdat.size == %d, got %d", wantMdatSize, boxes[2].Size)
	}
}

func TestMediaSegmentSequenceNumberRoundTrips(t *testing.T) {
	w := testWriter()
	samples := []Sample{{Duration: 3000, Data: []byte{0xAA}, Keyframe: true}}

	for _, seq := range []uint32{1, 2, 3} {
		data := w.BuildMediaSegment(1, seq, 0, samples)
		boxes, err := ReadMediaSegment(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		moof := boxes[1]
		mfhd := moof.FindChild("mfhd")
		if mfhd == nil {
			t.Fatal("expected moof to contain mfhd")
		}
		got := binary.BigEndian.Uint32(mfhd.Payload[4:8])
		if got != seq {
			t.Fatalf("expected mfhd sequence_number %d, got %d", seq, got)
		}
	}
}

func TestMediaSegmentTrunDataOffsetPointsPastMdatHeader(t *testing.T) {
	w := testWriter()
	samples := []Sample{{Duration: 3000, Data: []byte{0x01, 0x02, 0x03, 0x04}, Keyframe: true}}
	data := w.BuildMediaSegment(1, 1, 0, samples)

	boxes, err := ReadMediaSegment(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moofSize := boxes[1].Size
	traf := boxes[1].FindChild("traf")
	trun := traf.FindChild("trun")
	dataOffset := binary.BigEndian.Uint32(trun.Payload[8:12])

	if uint64(dataOffset) != moofSize+8 {
		t.Fatalf("expected trun.data_offset == moof.size+8 (%d), got %d", moofSize+8, dataOffset)
	}
	mdatPayloadStart := int(dataOffset) - int(moofSize)
	if mdatPayloadStart != 8 {
		t.Fatalf("expected data_offset to land at mdat's payload start, got relative offset %d", mdatPayloadStart)
	}
}

func TestReadBoxesRejectsTruncatedHeader(t *testing.T) {
	if _, err := ReadBoxes([]byte{0x00, 0x00, 0x00}); err == nil {
		t.Fatal("expected an error for a truncated box header")
	}
}

func TestReadBoxesRejectsUndersizedBox(t *testing.T) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], 4) // smaller than the 8-byte header
	copy(buf[4:8], "ftyp")
	if _, err := ReadBoxes(buf); err == nil {
		t.Fatal("expected an error for a box whose declared size is smaller than its header")
	}
}

func TestFindByPathDescendsNestedContainers(t *testing.T) {
	w := testWriter()
	boxes, err := ReadInitSegment(w.BuildInitSegment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moov := boxes[1]
	stbl := moov.FindByPath("trak/mdia/minf/stbl")
	if stbl == nil {
		t.Fatal("expected to find trak/mdia/minf/stbl")
	}
	if stbl.FindChild("stsd") == nil {
		t.Fatal("expected stbl to contain stsd")
	}
}

func TestRequireTopLevelReportsMissingBox(t *testing.T) {
	err := RequireTopLevel([]Box{{Type: "ftyp"}}, "ftyp", "moov")
	if err == nil {
		t.Fatal("expected an error when moov is missing")
	}
}

func TestBoxStringIndentsNestedChildren(t *testing.T) {
	w := testWriter()
	boxes, err := ReadInitSegment(w.BuildInitSegment())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	moov := boxes[1]
	s := moov.String()
	if !strings.Contains(s, "moov (size=") {
		t.Fatalf("expected String() to include moov, got:\n%s", s)
	}
	if !strings.Contains(s, "  trak (size=") {
		t.Fatalf("expected trak to be indented one level under moov, got:\n%s", s)
	}
}

func TestWriteEncryptedMediaSegmentPreservesBoxStructure(t *testing.T) {
	w := testWriter()
	samples := []Sample{
		{Duration: 3000, Data: []byte{0x01, 0x02, 0x03}, Keyframe: true},
	}
	key := make([]byte, 16)
	var iv [16]byte

	data, err := w.WriteEncryptedMediaSegment(1, 1, 0, samples, key, iv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boxes, err := ReadMediaSegment(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boxes) != 3 || boxes[0].Type != "styp" || boxes[1].Type != "moof" || boxes[2].Type != "mdat" {
		t.Fatalf("expected [styp, moof, mdat], got %+v", boxes)
	}

	mdat := boxes[2]
	if len(mdat.Payload) == 0 || len(mdat.Payload)%16 != 0 {
		t.Fatalf("expected mdat payload to be a whole number of AES blocks, got %d bytes", len(mdat.Payload))
	}
	if len(mdat.Payload) == len(samples[0].Data) {
		t.Fatal("expected mdat payload length to reflect PKCS#7-padded ciphertext, not the raw plaintext length")
	}

	traf := boxes[1].FindChild("traf")
	trun := traf.FindChild("trun")
	sampleSize := binary.BigEndian.Uint32(trun.Payload[16:20])
	if uint64(sampleSize) != uint64(len(mdat.Payload)) {
		t.Fatalf("expected trun sample_size (%d) to match the ciphertext length (%d)", sampleSize, len(mdat.Payload))
	}
}
