// Package manifest implements the ManifestModel, Parser, Generator, and
// Validator of spec.md §4.4: a typed in-memory representation of an HLS
// media or master playlist, built from pkg/tag's Event stream and rendered
// back to canonical text. It is grounded on the teacher SDK's
// playlist.go MediaPlaylist/MasterPlaylist/Variant structs and its
// ValidatePlaylist/ValidateMasterPlaylist functions, generalized from one
// fixed rendering path to the full HLS tag set.
package manifest

// ByteRange is EXT-X-BYTERANGE's length and optional starting offset.
type ByteRange struct {
	Length uint64
	Offset *uint64
}

// Key is an EXT-X-KEY or EXT-X-SESSION-KEY encryption descriptor.
type Key struct {
	Method            string // NONE, AES-128, SAMPLE-AES, SAMPLE-AES-CTR
	URI               string
	IV                string
	KeyFormat         string
	KeyFormatVersions string
}

// Map is an EXT-X-MAP initialization segment reference.
type Map struct {
	URI       string
	ByteRange *ByteRange
}

// Part is an EXT-X-PART low-latency partial segment.
type Part struct {
	URI         string
	Duration    float64
	Independent bool
	ByteRange   *ByteRange
	Gap         bool
}

// DateRange is an EXT-X-DATERANGE interval, per spec.md §4.9.
type DateRange struct {
	ID               string
	Class            string
	StartDate        string
	EndDate          string
	Duration         *float64
	PlannedDuration  *float64
	SCTE35Cmd        string
	SCTE35Out        string
	SCTE35In         string
	EndOnNext        bool
	CustomAttributes map[string]string
}

// MediaSegment is one EXTINF-anchored segment, with any pending per-segment
// tags consumed per spec.md §4.4's parser rule.
type MediaSegment struct {
	URI             string
	Duration        float64
	Title           string
	ByteRange       *ByteRange
	Discontinuity   bool
	Key             *Key
	Map             *Map
	ProgramDateTime string
	Gap             bool
	Parts           []Part
}

// ServerControl is EXT-X-SERVER-CONTROL, per spec.md §4.8.
type ServerControl struct {
	CanSkipUntil      *float64
	CanSkipDateranges bool
	HoldBack          *float64
	PartHoldBack      *float64
	CanBlockReload    bool
}

// PartInf is EXT-X-PART-INF.
type PartInf struct {
	PartTarget float64
}

// PreloadHint is EXT-X-PRELOAD-HINT.
type PreloadHint struct {
	Type            string // PART or MAP
	URI             string
	ByteRangeStart  *uint64
	ByteRangeLength *uint64
}

// RenditionReport is EXT-X-RENDITION-REPORT.
type RenditionReport struct {
	URI      string
	LastMSN  uint64
	LastPart *uint64
}

// Skip is EXT-X-SKIP, produced by delta updates.
type Skip struct {
	SkippedSegments uint64
}

// MediaPlaylist is the ManifestModel's media-playlist half.
type MediaPlaylist struct {
	Version               int
	TargetDuration        int
	MediaSequence         uint64
	DiscontinuitySequence uint64
	PlaylistType          string // "" (live), "VOD", "EVENT"
	IndependentSegments   bool
	Map                   *Map
	Segments              []MediaSegment
	DateRanges            []DateRange
	EndList               bool
	ServerControl         *ServerControl
	PartInf               *PartInf
	PreloadHint           *PreloadHint
	RenditionReports      []RenditionReport
	Skip                  *Skip
}

// Variant is an EXT-X-STREAM-INF entry in a master playlist.
type Variant struct {
	URI              string
	Bandwidth        int64
	AverageBandwidth int64
	Codecs           string
	Width            int
	Height           int
	FrameRate        float64
	HDCPLevel        string
	Audio            string
	Video            string
	Subtitles        string
	ClosedCaptions   string
}

// IFrameVariant is an EXT-X-I-FRAME-STREAM-INF entry (URI is an attribute,
// not a following line).
type IFrameVariant struct {
	URI       string
	Bandwidth int64
	Codecs    string
	Width     int
	Height    int
	Video     string
}

// MediaRendition is an EXT-X-MEDIA entry.
type MediaRendition struct {
	Type           string // AUDIO, VIDEO, SUBTITLES, CLOSED-CAPTIONS
	URI            string
	GroupID        string
	Language       string
	AssocLanguage  string
	Name           string
	Default        bool
	Autoselect     bool
	Forced         bool
	InstreamID     string
	Channels       string
}

// SessionData is an EXT-X-SESSION-DATA entry.
type SessionData struct {
	DataID   string
	Value    string
	URI      string
	Language string
}

// ContentSteering is EXT-X-CONTENT-STEERING.
type ContentSteering struct {
	ServerURI string
	PathwayID string
}

// MasterPlaylist is the ManifestModel's master-playlist half.
type MasterPlaylist struct {
	Version             int
	IndependentSegments bool
	Variants            []Variant
	IFrameVariants      []IFrameVariant
	Media               []MediaRendition
	SessionData         []SessionData
	SessionKeys         []Key
	ContentSteering     *ContentSteering
}
