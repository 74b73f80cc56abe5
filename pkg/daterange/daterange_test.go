package daterange

import (
	"testing"
	"time"

	"github.com/hlskit/hlskit/pkg/errors"
)

func TestOpenRejectsDuplicateID(t *testing.T) {
	m := NewManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	if err := m.Open("ad-1", start, "com.example.ad", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Open("ad-1", start, "com.example.ad", nil, nil); errors.CodeOf(err) != errors.ErrCodeDuplicateDateRangeID {
		t.Fatalf("expected ErrCodeDuplicateDateRangeID, got %v", err)
	}
}

func TestCloseFixesDuration(t *testing.T) {
	m := NewManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	m.Open("ad-1", start, "com.example.ad", nil, nil)
	end := start.Add(30 * time.Second)
	if err := m.Close("ad-1", end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ranges := m.Ranges()
	if len(ranges) != 1 || ranges[0].Duration == nil || *ranges[0].Duration != 30 {
		t.Fatalf("expected duration 30, got %+v", ranges)
	}
}

func TestCloseUnknownIDFails(t *testing.T) {
	m := NewManager()
	if err := m.Close("missing", time.Now()); errors.CodeOf(err) != errors.ErrCodeDateRangeNotFound {
		t.Fatalf("expected ErrCodeDateRangeNotFound, got %v", err)
	}
}

func TestRemovePreservesInsertionOrderOfSurvivors(t *testing.T) {
	m := NewManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	m.Open("a", start, "c", nil, nil)
	m.Open("b", start, "c", nil, nil)
	m.Open("c", start, "c", nil, nil)
	if err := m.Remove("b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ranges := m.Ranges()
	if len(ranges) != 2 || ranges[0].ID != "a" || ranges[1].ID != "c" {
		t.Fatalf("expected [a c] in order, got %+v", ranges)
	}
}

func TestCompletedIDsSubsetOfKnownIDs(t *testing.T) {
	m := NewManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	m.Open("a", start, "c", nil, nil)
	m.Open("b", start, "c", nil, nil)
	m.Close("a", start.Add(time.Second))

	completed := m.CompletedIDs()
	if len(completed) != 1 || completed[0] != "a" {
		t.Fatalf("expected only [a] completed, got %+v", completed)
	}
}

func TestInterstitialScheduleRendersExpectedAttributes(t *testing.T) {
	im := NewInterstitialManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	playoutLimit := 60.0
	err := im.Schedule(Interstitial{
		ID:           "preroll-1",
		StartDate:    start,
		AssetURI:     "https://ads.example.com/preroll.m3u8",
		Restrict:     Restrictions{Jump: true, Seek: true},
		PlayoutLimit: &playoutLimit,
		Snap:         "IN",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ranges := im.Ranges()
	if len(ranges) != 1 {
		t.Fatalf("expected 1 range, got %d", len(ranges))
	}
	r := ranges[0]
	if r.Class != interstitialClass {
		t.Fatalf("expected interstitial class, got %q", r.Class)
	}
	if r.CustomAttributes["X-ASSET-URI"] != "https://ads.example.com/preroll.m3u8" {
		t.Fatalf("expected X-ASSET-URI set, got %+v", r.CustomAttributes)
	}
	if r.CustomAttributes["X-RESTRICT"] != "JUMP,SEEK" {
		t.Fatalf("expected X-RESTRICT=JUMP,SEEK, got %q", r.CustomAttributes["X-RESTRICT"])
	}
	if r.CustomAttributes["X-PLAYOUT-LIMIT"] != "60" {
		t.Fatalf("expected X-PLAYOUT-LIMIT=60, got %q", r.CustomAttributes["X-PLAYOUT-LIMIT"])
	}
}

func TestInterstitialScheduleCarriesSCTE35Opaquely(t *testing.T) {
	im := NewInterstitialManager()
	start := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	err := im.Schedule(Interstitial{
		ID:              "cue-1",
		StartDate:       start,
		AssetListURI:    "https://ads.example.com/list.json",
		SCTE35CueBase64: "/DAvAAAAAAAA///wFAVIAB",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ranges := im.Ranges()
	if ranges[0].SCTE35Cmd != "/DAvAAAAAAAA///wFAVIAB" {
		t.Fatalf("expected SCTE-35 cue carried opaquely, got %q", ranges[0].SCTE35Cmd)
	}
	if ranges[0].CustomAttributes["X-ASSET-LIST"] != "https://ads.example.com/list.json" {
		t.Fatalf("expected X-ASSET-LIST set, got %+v", ranges[0].CustomAttributes)
	}
}
