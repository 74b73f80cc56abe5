package fmp4

import (
	"github.com/hlskit/hlskit/pkg/codec"
	"github.com/hlskit/hlskit/pkg/encryption"
)

// AudioProfile enumerates the AAC profiles CmafWriter can describe in an
// esds AudioSpecificConfig, per spec.md §4.2.
type AudioProfile int

const (
	AudioProfileAACLC AudioProfile = iota
	AudioProfileHEAAC
	AudioProfileHEAACv2
)

// aacObjectType returns the MPEG-4 Audio Object Type for the profile.
func (p AudioProfile) aacObjectType() uint8 {
	switch p {
	case AudioProfileHEAAC:
		return 5 // SBR
	case AudioProfileHEAACv2:
		return 29 // PS
	default:
		return 2 // AAC-LC
	}
}

// AudioConfig describes the audio track carried in an init segment's stsd.
type AudioConfig struct {
	SampleRate uint32
	Channels   uint8
	Profile    AudioProfile
	TrackID    uint32
	Timescale  uint32 // defaults to SampleRate when zero
}

// VideoCodec enumerates the video codecs CmafWriter can describe.
type VideoCodec int

const (
	VideoCodecH264 VideoCodec = iota
	VideoCodecHEVC
)

// VideoConfig describes the video track carried in an init segment's stsd.
// Parameter sets are supplied pre-parsed (without their start codes).
type VideoConfig struct {
	Codec     VideoCodec
	Width     uint16
	Height    uint16
	SPS       []byte // H.264: single SPS. HEVC: first SPS NAL.
	PPS       []byte // H.264: single PPS. HEVC: first PPS NAL.
	VPS       []byte // HEVC only.
	TrackID   uint32
	Timescale uint32 // conventionally 90000 for H.264/HEVC, per spec.md §6.
}

// Writer builds CMAF init and media segments. It holds no mutable state of
// its own beyond the track configuration supplied at construction — each
// BuildXxx call is independent and safe to invoke from multiple goroutines,
// unlike the teacher's TSWriter which accumulated continuity counters across
// calls; fMP4 sample counters live in the caller-supplied sequence number
// and base decode time instead.
type Writer struct {
	Audio *AudioConfig
	Video *VideoConfig
}

// NewWriter creates a Writer for the given optional audio/video tracks. At
// least one of audio or video must be non-nil.
func NewWriter(audio *AudioConfig, video *VideoConfig) *Writer {
	return &Writer{Audio: audio, Video: video}
}

// BuildInitSegment emits ftyp+moov for the configured tracks, per spec.md
// §4.2's CMAF init segment box tree.
func (w *Writer) BuildInitSegment() []byte {
	boxes := []Box{
		buildFtyp("iso5", []string{"iso5", "iso6", "mp41"}),
		w.buildMoov(),
	}
	return Encode(boxes)
}

func buildFtyp(major string, compat []string) Box {
	bw := codec.NewWriter()
	bw.FourCC(major)
	bw.U32(0) // minor version
	for _, c := range compat {
		bw.FourCC(c)
	}
	return Box{Type: "ftyp", Payload: bw.Bytes()}
}

func (w *Writer) buildMoov() Box {
	var traks []Box
	var trexs []Box

	if w.Video != nil {
		traks = append(traks, w.buildVideoTrak())
		trexs = append(trexs, buildTrex(w.Video.TrackID))
	}
	if w.Audio != nil {
		traks = append(traks, w.buildAudioTrak())
		trexs = append(trexs, buildTrex(w.Audio.TrackID))
	}

	mvhdW := codec.NewWriter()
	mvhdW.U8(0).U8(0).U8(0).U8(0) // version + flags
	mvhdW.U32(0)                  // creation_time
	mvhdW.U32(0)                  // modification_time
	mvhdW.U32(1000)               // timescale (arbitrary movie-level unit)
	mvhdW.U32(0)                  // duration (unknown for live/fragmented)
	mvhdW.Fixed16_16(1.0)         // rate
	mvhdW.Fixed8_8(1.0)           // volume
	mvhdW.U16(0)                  // reserved
	mvhdW.U32(0).U32(0)           // reserved
	identityMatrix(mvhdW)
	for i := 0; i < 6; i++ {
		mvhdW.U32(0) // pre_defined
	}
	mvhdW.U32(nextTrackID(w)) // next_track_ID
	mvhd := Box{Type: "mvhd", Payload: mvhdW.Bytes()}

	mvex := Box{Type: "mvex", Children: trexs}

	children := append([]Box{mvhd}, traks...)
	children = append(children, mvex)
	return Box{Type: "moov", Children: children}
}

func nextTrackID(w *Writer) uint32 {
	max := uint32(0)
	if w.Video != nil && w.Video.TrackID > max {
		max = w.Video.TrackID
	}
	if w.Audio != nil && w.Audio.TrackID > max {
		max = w.Audio.TrackID
	}
	return max + 1
}

func identityMatrix(w *codec.Writer) {
	w.Fixed16_16(1).Fixed16_16(0).Fixed16_16(0)
	w.Fixed16_16(0).Fixed16_16(1).Fixed16_16(0)
	w.Fixed16_16(0).Fixed16_16(0).Fixed16_16(16384) // 1.0 in 2.30 fixed point
}

func buildTrex(trackID uint32) Box {
	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0) // version + flags
	bw.U32(trackID)
	bw.U32(1) // default_sample_description_index
	bw.U32(0) // default_sample_duration (set per-sample in trun)
	bw.U32(0) // default_sample_size
	bw.U32(0) // default_sample_flags
	return Box{Type: "trex", Payload: bw.Bytes()}
}

func (w *Writer) buildVideoTrak() Box {
	v := w.Video
	tkhd := buildTkhd(v.TrackID, uint32(v.Width)<<16, uint32(v.Height)<<16)
	mdhd := buildMdhd(v.Timescale)
	hdlr := buildHdlr("vide", "VideoHandler")

	vmhd := Box{Type: "vmhd", Payload: []byte{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}}
	dinf := buildDinf()
	stsd := buildVideoStsd(v)
	stbl := buildEmptyStbl(stsd)
	minf := Box{Type: "minf", Children: []Box{vmhd, dinf, stbl}}
	mdia := Box{Type: "mdia", Children: []Box{mdhd, hdlr, minf}}
	return Box{Type: "trak", Children: []Box{tkhd, mdia}}
}

func (w *Writer) buildAudioTrak() Box {
	a := w.Audio
	tkhd := buildTkhd(a.TrackID, 0, 0)
	timescale := a.Timescale
	if timescale == 0 {
		timescale = a.SampleRate
	}
	mdhd := buildMdhd(timescale)
	hdlr := buildHdlr("soun", "SoundHandler")

	smhd := Box{Type: "smhd", Payload: []byte{0, 0, 0, 0, 0, 0, 0, 0}}
	dinf := buildDinf()
	stsd := buildAudioStsd(a)
	stbl := buildEmptyStbl(stsd)
	minf := Box{Type: "minf", Children: []Box{smhd, dinf, stbl}}
	mdia := Box{Type: "mdia", Children: []Box{mdhd, hdlr, minf}}
	return Box{Type: "trak", Children: []Box{tkhd, mdia}}
}

func buildTkhd(trackID uint32, widthFixed, heightFixed uint32) Box {
	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(7) // version 0, flags=track_enabled|track_in_movie|track_in_preview
	bw.U32(0)                  // creation_time
	bw.U32(0)                  // modification_time
	bw.U32(trackID)
	bw.U32(0) // reserved
	bw.U32(0) // duration (unknown, fragmented)
	bw.U32(0).U32(0)
	bw.U16(0) // layer
	bw.U16(0) // alternate_group
	bw.Fixed8_8(0) // volume (0 for video tracks)
	bw.U16(0)      // reserved
	identityMatrix(bw)
	bw.U32(widthFixed)
	bw.U32(heightFixed)
	return Box{Type: "tkhd", Payload: bw.Bytes()}
}

func buildMdhd(timescale uint32) Box {
	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0)
	bw.U32(0) // creation_time
	bw.U32(0) // modification_time
	bw.U32(timescale)
	bw.U32(0)     // duration (unknown)
	bw.U16(0x55C4) // language "und"
	bw.U16(0)     // pre_defined
	return Box{Type: "mdhd", Payload: bw.Bytes()}
}

func buildHdlr(handlerType, name string) Box {
	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0)
	bw.U32(0) // pre_defined
	bw.FourCC(handlerType)
	bw.U32(0).U32(0).U32(0) // reserved
	bw.Raw([]byte(name))
	bw.U8(0) // null terminator
	return Box{Type: "hdlr", Payload: bw.Bytes()}
}

func buildDinf() Box {
	urlW := codec.NewWriter()
	urlW.U8(0).U8(0).U8(0).U8(1) // self-contained flag
	url := Box{Type: "url ", Payload: urlW.Bytes()}

	drefW := codec.NewWriter()
	drefW.U8(0).U8(0).U8(0).U8(0)
	drefW.U32(1) // entry_count
	drefBody := Encode([]Box{url})
	drefW.Raw(drefBody)
	dref := Box{Type: "dref", Payload: drefW.Bytes()}
	return Box{Type: "dinf", Children: []Box{dref}}
}

// buildEmptyStbl wraps stsd with the minimal stts/stsc/stsz/stco sample
// tables a CMAF init segment carries (all empty: samples live only in media
// segments, per spec.md §4.2).
func buildEmptyStbl(stsd Box) Box {
	empty := func(t string) Box {
		bw := codec.NewWriter()
		bw.U8(0).U8(0).U8(0).U8(0)
		bw.U32(0) // entry_count == 0
		return Box{Type: t, Payload: bw.Bytes()}
	}
	stsz := func() Box {
		bw := codec.NewWriter()
		bw.U8(0).U8(0).U8(0).U8(0)
		bw.U32(0) // sample_size
		bw.U32(0) // sample_count
		return Box{Type: "stsz", Payload: bw.Bytes()}
	}()
	return Box{Type: "stbl", Children: []Box{stsd, empty("stts"), empty("stsc"), stsz, empty("stco")}}
}

func buildVideoStsd(v *VideoConfig) Box {
	var sampleEntry Box
	switch v.Codec {
	case VideoCodecHEVC:
		sampleEntry = buildHvc1(v)
	default:
		sampleEntry = buildAvc1(v)
	}

	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0)
	bw.U32(1) // entry_count
	bw.Raw(Encode([]Box{sampleEntry}))
	return Box{Type: "stsd", Payload: bw.Bytes()}
}

func visualSampleEntryHeader(w *codec.Writer, width, height uint16) {
	w.U32(0).U16(0) // reserved
	w.U16(0)        // reserved
	w.U16(1)        // data_reference_index
	w.U16(0).U16(0) // pre_defined, reserved
	w.U32(0).U32(0).U32(0) // pre_defined[3]
	w.U16(width)
	w.U16(height)
	w.Fixed16_16(72) // horizresolution 72dpi
	w.Fixed16_16(72) // vertresolution 72dpi
	w.U32(0)         // reserved
	w.U16(1)         // frame_count
	for i := 0; i < 32; i++ {
		w.U8(0) // compressorname (empty pascal string, 32 bytes)
	}
	w.U16(0x0018) // depth
	w.U16(0xFFFF) // pre_defined = -1
}

func buildAvc1(v *VideoConfig) Box {
	bw := codec.NewWriter()
	visualSampleEntryHeader(bw, v.Width, v.Height)
	bw.Raw(Encode([]Box{buildAvcC(v)}))
	return Box{Type: "avc1", Payload: bw.Bytes()}
}

func buildAvcC(v *VideoConfig) Box {
	bw := codec.NewWriter()
	bw.U8(1) // configurationVersion
	if len(v.SPS) >= 4 {
		bw.U8(v.SPS[1]) // AVCProfileIndication
		bw.U8(v.SPS[2]) // profile_compatibility
		bw.U8(v.SPS[3]) // AVCLevelIndication
	} else {
		bw.U8(0x42).U8(0x00).U8(0x1E) // baseline profile fallback
	}
	bw.U8(0xFF) // reserved(6) + lengthSizeMinusOne=3 (4-byte NAL lengths)
	bw.U8(0xE1) // reserved(3) + numOfSequenceParameterSets=1
	bw.U16(uint16(len(v.SPS)))
	bw.Raw(v.SPS)
	bw.U8(1) // numOfPictureParameterSets
	bw.U16(uint16(len(v.PPS)))
	bw.Raw(v.PPS)
	return Box{Type: "avcC", Payload: bw.Bytes()}
}

func buildHvc1(v *VideoConfig) Box {
	bw := codec.NewWriter()
	visualSampleEntryHeader(bw, v.Width, v.Height)
	bw.Raw(Encode([]Box{buildHvcC(v)}))
	return Box{Type: "hvc1", Payload: bw.Bytes()}
}

// buildHvcC emits a minimal hvcC with one NAL-unit array per parameter set
// kind, sufficient to round-trip VPS/SPS/PPS without full profile/tier/level
// field derivation (those are zeroed — players fall back to in-band parsing
// for the fields this omits).
func buildHvcC(v *VideoConfig) Box {
	bw := codec.NewWriter()
	bw.U8(1) // configurationVersion
	bw.U8(0) // general_profile_space/tier/idc
	bw.U32(0) // general_profile_compatibility_flags
	for i := 0; i < 6; i++ {
		bw.U8(0) // general_constraint_indicator_flags (48 bits)
	}
	bw.U8(0)      // general_level_idc
	bw.U16(0xF000) // reserved + min_spatial_segmentation_idc
	bw.U8(0xFC)   // reserved + parallelismType
	bw.U8(0xFC)   // reserved + chroma_format_idc
	bw.U8(0xF8)   // reserved + bit_depth_luma_minus8
	bw.U8(0xF8)   // reserved + bit_depth_chroma_minus8
	bw.U16(0)     // avg_frame_rate
	bw.U8(0x0F)   // constant_frame_rate(2)+num_temporal_layers(3)+temporal_id_nested(1)+length_size_minus_one(2)=3

	type nalArray struct {
		nalType uint8
		data    []byte
	}
	var arrays []nalArray
	if len(v.VPS) > 0 {
		arrays = append(arrays, nalArray{32, v.VPS})
	}
	if len(v.SPS) > 0 {
		arrays = append(arrays, nalArray{33, v.SPS})
	}
	if len(v.PPS) > 0 {
		arrays = append(arrays, nalArray{34, v.PPS})
	}
	bw.U8(uint8(len(arrays)))
	for _, a := range arrays {
		bw.U8(0x80 | a.nalType) // array_completeness + reserved + NAL_unit_type
		bw.U16(1)               // numNalus
		bw.U16(uint16(len(a.data)))
		bw.Raw(a.data)
	}
	return Box{Type: "hvcC", Payload: bw.Bytes()}
}

func buildAudioStsd(a *AudioConfig) Box {
	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0)
	bw.U32(1)
	bw.Raw(Encode([]Box{buildMp4a(a)}))
	return Box{Type: "stsd", Payload: bw.Bytes()}
}

func buildMp4a(a *AudioConfig) Box {
	bw := codec.NewWriter()
	bw.U32(0).U16(0) // reserved
	bw.U16(1)        // data_reference_index
	bw.U32(0).U32(0) // reserved
	bw.U16(uint16(a.Channels))
	bw.U16(16) // samplesize
	bw.U16(0)  // pre_defined
	bw.U16(0)  // reserved
	bw.Fixed16_16(float64(a.SampleRate))
	bw.Raw(Encode([]Box{buildEsds(a)}))
	return Box{Type: "mp4a", Payload: bw.Bytes()}
}

// buildEsds emits an esds carrying a 2-byte AudioSpecificConfig derived from
// {sample_rate, channels, profile}, per spec.md §4.2.
func buildEsds(a *AudioConfig) Box {
	asc := audioSpecificConfig(a)

	decSpecificInfo := mpeg4Descriptor(0x05, asc)
	decConfig := codec.NewWriter()
	decConfig.U8(0x40) // objectTypeIndication: Audio ISO/IEC 14496-3
	decConfig.U8(0x15) // streamType(6)=audio(5)<<2 | upStream(1)=0 | reserved(1)=1
	decConfig.U8(0).U8(0).U8(0) // bufferSizeDB (24 bits)
	decConfig.U32(0)            // maxBitrate
	decConfig.U32(0)            // avgBitrate
	decConfig.Raw(decSpecificInfo)
	decConfigDesc := mpeg4Descriptor(0x04, decConfig.Bytes())

	slConfig := mpeg4Descriptor(0x06, []byte{0x02})

	esW := codec.NewWriter()
	esW.U16(0) // ES_ID
	esW.U8(0)  // flags
	esW.Raw(decConfigDesc)
	esW.Raw(slConfig)
	esDesc := mpeg4Descriptor(0x03, esW.Bytes())

	bw := codec.NewWriter()
	bw.U8(0).U8(0).U8(0).U8(0) // version + flags
	bw.Raw(esDesc)
	return Box{Type: "esds", Payload: bw.Bytes()}
}

// mpeg4Descriptor wraps payload in an MPEG-4 descriptor tag + expandable
// length field (the single-byte form, sufficient for esds's small payloads).
func mpeg4Descriptor(tag uint8, payload []byte) []byte {
	w := codec.NewWriter()
	w.U8(tag)
	w.U8(uint8(len(payload)))
	w.Raw(payload)
	return w.Bytes()
}

var aacSampleRateTable = []uint32{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350,
}

func audioSpecificConfigIndex(sampleRate uint32) uint8 {
	for i, sr := range aacSampleRateTable {
		if sr == sampleRate {
			return uint8(i)
		}
	}
	return 15 // escape value: explicit frequency (not further encoded here)
}

func audioSpecificConfig(a *AudioConfig) []byte {
	objType := a.Profile.aacObjectType()
	freqIdx := audioSpecificConfigIndex(a.SampleRate)
	chanCfg := a.Channels

	b0 := (objType << 3) | (freqIdx >> 1)
	b1 := (freqIdx << 7) | (chanCfg << 3)
	return []byte{b0, b1}
}

// Sample is one encoded access unit destined for a trun entry and the
// segment's mdat, per spec.md §4.2.
type Sample struct {
	Duration   uint32 // in the track's timescale
	Data       []byte
	CTSOffset  int32 // composition time offset (B-frame reordering)
	Keyframe   bool
}

const (
	sampleFlagNonSync           = 1 << 16 // sample_is_non_sync_sample
	trunFlagDataOffset          = 0x000001
	trunFlagFirstSampleFlags    = 0x000004
	trunFlagSampleDuration      = 0x000100
	trunFlagSampleSize          = 0x000200
	trunFlagSampleFlags         = 0x000400
	trunFlagSampleCompositionTO = 0x000800
	tfhdFlagDefaultBaseIsMoof   = 0x020000
)

// BuildMediaSegment emits styp+moof+mdat for one track's samples, per
// spec.md §4.2. trackID and timescale select which configured track the
// segment belongs to; baseMediaDecodeTime is the tfdt value for the segment's
// first sample. sequenceNumber becomes mfhd's running fragment counter.
//
// trun.data_offset is patched after the moof's size is known (SPEC_FULL.md
// §9's two-pass rule): the moof is serialized once with a placeholder
// data_offset, then the offset is overwritten in place once moof's encoded
// length — and therefore mdat's start relative to moof's start — is fixed.
func (w *Writer) BuildMediaSegment(trackID uint32, sequenceNumber uint32, baseMediaDecodeTime uint64, samples []Sample) []byte {
	moofW := codec.NewWriter()
	moof := buildMoof(trackID, sequenceNumber, baseMediaDecodeTime, samples)
	moof.encode(moofW)
	moofBytes := moofW.Bytes()

	dataOffsetPos, ok := findTrunDataOffsetPos(moof, moofBytes)
	if ok {
		dataOffset := uint32(len(moofBytes) + 8) // moof length + mdat header
		patchU32(moofBytes, dataOffsetPos, dataOffset)
	}

	mdatPayload := make([]byte, 0, totalSampleBytes(samples))
	for _, s := range samples {
		mdatPayload = append(mdatPayload, s.Data...)
	}

	out := codec.NewWriter()
	styp := buildStyp()
	styp.encode(out)
	out.Raw(moofBytes)
	mdat := Box{Type: "mdat", Payload: mdatPayload}
	mdat.encode(out)
	return out.Bytes()
}

// WriteEncryptedMediaSegment builds a media segment exactly like
// BuildMediaSegment, except each sample's mdat payload is independently
// encrypted with AES-128-CBC first, per SPEC_FULL.md §4.2: whole-sample
// SAMPLE-AES-style encryption (not per-NAL CENC), matching the EXT-X-KEY
// METHOD=AES-128 scheme signaled at the playlist level. trun's sample_size
// reflects each ciphertext's PKCS#7-padded length, so styp/moof stay
// byte-accurate — encryption never touches box structure, only the bytes
// mdat carries.
func (w *Writer) WriteEncryptedMediaSegment(trackID uint32, sequenceNumber uint32, baseMediaDecodeTime uint64, samples []Sample, key []byte, iv [16]byte) ([]byte, error) {
	encrypted := make([]Sample, len(samples))
	for i, s := range samples {
		ciphertext, err := encryption.EncryptSample(key, iv, s.Data)
		if err != nil {
			return nil, err
		}
		encrypted[i] = s
		encrypted[i].Data = ciphertext
	}
	return w.BuildMediaSegment(trackID, sequenceNumber, baseMediaDecodeTime, encrypted), nil
}

func totalSampleBytes(samples []Sample) int {
	n := 0
	for _, s := range samples {
		n += len(s.Data)
	}
	return n
}

func buildStyp() Box {
	return buildFtyp("msdh", []string{"msdh", "msix"}).withType("styp")
}

func (b Box) withType(t string) Box {
	b.Type = t
	return b
}

func buildMoof(trackID uint32, sequenceNumber uint32, baseMediaDecodeTime uint64, samples []Sample) Box {
	mfhdW := codec.NewWriter()
	mfhdW.U8(0).U8(0).U8(0).U8(0)
	mfhdW.U32(sequenceNumber)
	mfhd := Box{Type: "mfhd", Payload: mfhdW.Bytes()}

	tfhdW := codec.NewWriter()
	tfhdW.U8(0)
	tfhdW.U8(byte(tfhdFlagDefaultBaseIsMoof>>16)).U8(byte(tfhdFlagDefaultBaseIsMoof>>8)).U8(byte(tfhdFlagDefaultBaseIsMoof))
	tfhdW.U32(trackID)
	tfhd := Box{Type: "tfhd", Payload: tfhdW.Bytes()}

	tfdtW := codec.NewWriter()
	tfdtW.U8(1).U8(0).U8(0).U8(0) // version 1: 64-bit base_media_decode_time
	tfdtW.U64(baseMediaDecodeTime)
	tfdt := Box{Type: "tfdt", Payload: tfdtW.Bytes()}

	trun := buildTrun(samples)

	traf := Box{Type: "traf", Children: []Box{tfhd, tfdt, trun}}
	return Box{Type: "moof", Children: []Box{mfhd, traf}}
}

func buildTrun(samples []Sample) Box {
	flags := uint32(trunFlagDataOffset | trunFlagSampleDuration | trunFlagSampleSize | trunFlagSampleFlags | trunFlagSampleCompositionTO)

	bw := codec.NewWriter()
	bw.U8(1) // version 1: signed sample_composition_time_offset
	bw.U8(byte(flags >> 16)).U8(byte(flags >> 8)).U8(byte(flags))
	bw.U32(uint32(len(samples)))
	bw.U32(0) // data_offset placeholder, patched post-encode

	for _, s := range samples {
		bw.U32(s.Duration)
		bw.U32(uint32(len(s.Data)))
		flags := uint32(0)
		if !s.Keyframe {
			flags = sampleFlagNonSync
		}
		bw.U32(flags)
		bw.U32(uint32(int32(s.CTSOffset)))
	}
	return Box{Type: "trun", Payload: bw.Bytes()}
}

// findTrunDataOffsetPos locates the byte offset, within the already-encoded
// moof buffer, of trun's data_offset field — 8 bytes into trun's payload
// (after version+flags+sample_count), following the box header.
func findTrunDataOffsetPos(moof Box, encoded []byte) (int, bool) {
	traf := moof.FindChild("traf")
	if traf == nil {
		return 0, false
	}
	// moof header (8) + mfhd (full box) precede traf; walk encoded headers
	// directly instead of recomputing sizes from the Box tree, since Size
	// isn't populated on freshly-built boxes.
	pos := 8 // skip moof's own header
	mfhd := moof.FindChild("mfhd")
	if mfhd == nil {
		return 0, false
	}
	mfhdLen := boxEncodedLen(encoded, pos)
	pos += mfhdLen // now at traf's header
	pos += 8       // skip traf's header, now inside traf's children
	tfhdLen := boxEncodedLen(encoded, pos)
	pos += tfhdLen
	tfdtLen := boxEncodedLen(encoded, pos)
	pos += tfdtLen
	// pos now at trun's header; data_offset sits at header(8) + version/flags(4) + sample_count(4)
	return pos + 8 + 4 + 4, true
}

// boxEncodedLen reads the 32-bit size field of the box starting at pos
// within encoded, returning its total length (large-size boxes are not
// expected here since moof/traf children are always small).
func boxEncodedLen(encoded []byte, pos int) int {
	r := codec.NewReader(encoded[pos:])
	size, err := r.U32()
	if err != nil {
		return 0
	}
	return int(size)
}

func patchU32(buf []byte, offset int, v uint32) {
	if offset < 0 || offset+4 > len(buf) {
		return
	}
	buf[offset] = byte(v >> 24)
	buf[offset+1] = byte(v >> 16)
	buf[offset+2] = byte(v >> 8)
	buf[offset+3] = byte(v)
}
