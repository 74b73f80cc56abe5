package tag

import "testing"

func TestWriterInfRoundTrip(t *testing.T) {
	w := NewWriter()
	w.ExtM3U()
	w.Version(3)
	w.TargetDuration(7)
	w.MediaSequence(0)
	w.Inf(6.006, "", "segment_0.m4s")
	w.EndList()

	events, err := Parse([]byte(w.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if events[0].Kind != KindExtM3U {
		t.Fatalf("expected first event EXTM3U, got %v", events[0].Kind)
	}

	var sawInf, sawURI, sawEndList bool
	for _, ev := range events {
		switch ev.Kind {
		case KindInf:
			sawInf = true
			if ev.Value != "6.006" {
				t.Errorf("expected duration 6.006, got %q", ev.Value)
			}
		case KindURI:
			sawURI = true
			if ev.URI != "segment_0.m4s" {
				t.Errorf("expected uri segment_0.m4s, got %q", ev.URI)
			}
		case KindEndList:
			sawEndList = true
		}
	}
	if !sawInf || !sawURI || !sawEndList {
		t.Fatalf("missing expected events: inf=%v uri=%v endlist=%v", sawInf, sawURI, sawEndList)
	}
}

func TestParseAttrListQuotedComma(t *testing.T) {
	attrs, err := ParseAttrList(`METHOD=AES-128,URI="https://example.com/key,1",IV=0x1234`, 1)
	if err != nil {
		t.Fatalf("ParseAttrList: %v", err)
	}
	uri, ok := attrs.GetString("URI")
	if !ok || uri != "https://example.com/key,1" {
		t.Fatalf("expected quoted URI with comma preserved, got %q ok=%v", uri, ok)
	}
	method, _ := attrs.Get("METHOD")
	if method != "AES-128" {
		t.Fatalf("expected METHOD=AES-128, got %q", method)
	}
}

func TestParseMissingExtM3U(t *testing.T) {
	_, err := Parse([]byte("#EXT-X-VERSION:3\n"))
	if err == nil {
		t.Fatal("expected error for missing #EXTM3U")
	}
}

func TestParseCRLF(t *testing.T) {
	events, err := Parse([]byte("#EXTM3U\r\n#EXT-X-VERSION:3\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
}

func TestStreamInfRoundTrip(t *testing.T) {
	w := NewWriter()
	attrs := NewAttrList().SetInt("BANDWIDTH", 1280000).SetString("CODECS", "avc1.64001f,mp4a.40.2").SetResolution("RESOLUTION", 1280, 720)
	w.StreamInf(attrs, "variant_1280x720.m3u8")

	events, err := Parse([]byte("#EXTM3U\n" + w.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var found bool
	for _, ev := range events {
		if ev.Kind == KindStreamInf {
			found = true
			bw, _, err := ev.Attrs.GetInt("BANDWIDTH")
			if err != nil || bw != 1280000 {
				t.Errorf("expected BANDWIDTH 1280000, got %d err=%v", bw, err)
			}
		}
	}
	if !found {
		t.Fatal("expected EXT-X-STREAM-INF event")
	}
}
