package daterange

import (
	"strconv"
	"strings"
	"time"
)

const interstitialClass = "com.apple.hls.interstitial"

// Restrictions controls what a client may do while an interstitial plays,
// per spec.md §4.9: jump disallows seeking past it, seek disallows seeking
// within it.
type Restrictions struct {
	Jump bool
	Seek bool
}

func (r Restrictions) tokens() string {
	var toks []string
	if r.Jump {
		toks = append(toks, "JUMP")
	}
	if r.Seek {
		toks = append(toks, "SEEK")
	}
	return strings.Join(toks, ",")
}

// Interstitial describes one ad/auxiliary content break to schedule, per
// spec.md §4.9. Exactly one of AssetURI/AssetListURI should be set.
type Interstitial struct {
	ID              string
	StartDate       time.Time
	PlannedDuration *float64
	AssetURI        string
	AssetListURI    string
	Restrict        Restrictions
	ResumeOffset    *float64
	PlayoutLimit    *float64
	Snap            string // "IN", "OUT", or "IN,OUT"
	ContentMayVary  *bool
	SCTE35CueBase64 string
}

// InterstitialManager layers ad-insertion semantics on top of Manager:
// EXT-X-DATERANGE lines carrying class com.apple.hls.interstitial and the
// X-ASSET-*/X-RESTRICT/X-RESUME-OFFSET/X-SNAP custom attributes HLS
// interstitials use for ad breaks.
type InterstitialManager struct {
	*Manager
}

// NewInterstitialManager creates an InterstitialManager.
func NewInterstitialManager() *InterstitialManager {
	return &InterstitialManager{Manager: NewManager()}
}

// Schedule opens a new interstitial date range.
func (im *InterstitialManager) Schedule(in Interstitial) error {
	attrs := map[string]string{}
	if in.AssetListURI != "" {
		attrs["X-ASSET-LIST"] = in.AssetListURI
	} else {
		attrs["X-ASSET-URI"] = in.AssetURI
	}
	if toks := in.Restrict.tokens(); toks != "" {
		attrs["X-RESTRICT"] = toks
	}
	if in.ResumeOffset != nil {
		attrs["X-RESUME-OFFSET"] = strconv.FormatFloat(*in.ResumeOffset, 'f', -1, 64)
	}
	if in.PlayoutLimit != nil {
		attrs["X-PLAYOUT-LIMIT"] = strconv.FormatFloat(*in.PlayoutLimit, 'f', -1, 64)
	}
	if in.Snap != "" {
		attrs["X-SNAP"] = in.Snap
	}
	if in.ContentMayVary != nil {
		if *in.ContentMayVary {
			attrs["X-CONTENT-MAY-VARY"] = "YES"
		} else {
			attrs["X-CONTENT-MAY-VARY"] = "NO"
		}
	}

	if err := im.Manager.Open(in.ID, in.StartDate, interstitialClass, in.PlannedDuration, attrs); err != nil {
		return err
	}
	if in.SCTE35CueBase64 != "" {
		return im.Manager.SetSCTE35(in.ID, in.SCTE35CueBase64, "", "")
	}
	return nil
}
