package rtpframe

import (
	"bytes"
	"testing"

	"github.com/pion/rtp"
)

func packet(seq uint16, ts uint32, marker bool, payload []byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			SequenceNumber: seq,
			Timestamp:      ts,
			Marker:         marker,
		},
		Payload: payload,
	}
}

func TestWritePacketBuffersUntilMarker(t *testing.T) {
	a := NewAdapter(Config{ClockRate: 90000})

	frame, err := a.WritePacket(packet(1, 1000, false, []byte{0x01, 0x02}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame != nil {
		t.Fatal("expected no frame before the marker bit closes the access unit")
	}

	frame, err = a.WritePacket(packet(2, 1000, true, []byte{0x03, 0x04}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame == nil {
		t.Fatal("expected a completed frame on the marker packet")
	}
	if !bytes.Equal(frame.Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("expected reassembled payload, got %x", frame.Data)
	}
	if frame.Timestamp != 1000 {
		t.Fatalf("expected frame timestamp 1000, got %d", frame.Timestamp)
	}
	if !frame.Keyframe {
		t.Fatal("expected Keyframe true when no IsKeyframe detector is configured")
	}
}

func TestWritePacketComputesDurationFromConsecutiveFrames(t *testing.T) {
	a := NewAdapter(Config{ClockRate: 90000})

	if _, err := a.WritePacket(packet(1, 1000, true, []byte{0x01})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame, err := a.WritePacket(packet(2, 4000, true, []byte{0x02}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Duration != 3000 {
		t.Fatalf("expected duration 3000 (4000-1000), got %d", frame.Duration)
	}
}

func TestWritePacketUsesIsKeyframeDetector(t *testing.T) {
	calls := 0
	a := NewAdapter(Config{
		ClockRate: 90000,
		IsKeyframe: func(payload []byte) bool {
			calls++
			return len(payload) > 0 && payload[0] == 0xFF
		},
	})

	frame, err := a.WritePacket(packet(1, 1000, true, []byte{0xAA}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Keyframe {
		t.Fatal("expected Keyframe false for a non-matching payload")
	}

	frame, err = a.WritePacket(packet(2, 2000, true, []byte{0xFF, 0x01}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !frame.Keyframe {
		t.Fatal("expected Keyframe true for a matching payload")
	}
	if calls != 2 {
		t.Fatalf("expected the detector to run once per completed frame, got %d calls", calls)
	}
}

func TestWritePacketRejectsNilPacket(t *testing.T) {
	a := NewAdapter(Config{})
	if _, err := a.WritePacket(nil); err == nil {
		t.Fatal("expected an error for a nil packet")
	}
}

func TestResetDiscardsPartialFrame(t *testing.T) {
	a := NewAdapter(Config{ClockRate: 90000})
	if _, err := a.WritePacket(packet(1, 1000, false, []byte{0x01, 0x02})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Reset()

	frame, err := a.WritePacket(packet(5, 5000, true, []byte{0x09}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(frame.Data, []byte{0x09}) {
		t.Fatalf("expected reset to discard the earlier partial payload, got %x", frame.Data)
	}
}

func TestClockRateDefaultsTo90kHz(t *testing.T) {
	a := NewAdapter(Config{})
	if a.ClockRate() != 90000 {
		t.Fatalf("expected default clock rate 90000, got %d", a.ClockRate())
	}
}
