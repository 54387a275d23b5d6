// Package codecs derives RFC 6381 codec tags and presentation dimensions
// from decoder-configuration bytes, grounded on the same parsing libraries
// gohlslib/mediamtx use for HLS packaging (see
// _examples/other_examples/bluenviron-mediamtx__*.go and
// _examples/other_examples/mogilevtsevdmitry-converter__codec.go for the
// tag-string shapes). SPS parsing is authoritative for width/height; the
// stsd box's own fields are only a fallback.
package codecs

import (
	"errors"
	"fmt"

	"github.com/bluenviron/mediacommon/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/pkg/codecs/h265"
	"github.com/bluenviron/mediacommon/pkg/codecs/mpeg4audio"

	"github.com/monibuca/movtohls/internal/bmff"
)

// ErrUnsupported is returned when a sample description names a codec this
// packager cannot derive a tag or TS stream_type for.
var ErrUnsupported = errors.New("codecs: unsupported codec")

// Params is what the Segmenter and Playlist Emitter need about one track's
// codec: the RFC 6381 tag, the TS stream_type, and the presentation size
// (zero for audio).
type Params struct {
	Tag          string
	StreamType   uint8 // MPEG-TS stream_type, see TS stream_type table
	Width        uint16
	Height       uint16
}

// MPEG-TS stream_type values this packager knows how to mux.
const (
	streamTypeAAC  = 0x0F
	streamTypeAC3  = 0x81
	streamTypeEAC3 = 0x87
	streamTypeH264 = 0x1B
	streamTypeH265 = 0x24
)

// Derive inspects a bmff.SampleDescription and returns its Params, parsing
// SPS/AudioSpecificConfig bytes where available and falling back to the
// stsd box's own width/height when SPS parsing fails.
func Derive(desc bmff.SampleDescription) (Params, error) {
	switch desc.FourCC {
	case "avc1", "avc3", "avc4", "dvav", "dva1":
		return deriveH264(desc)
	case "hev1", "hvc1", "dvhe", "dvh1":
		return deriveH265(desc)
	case "mp4a":
		return deriveAAC(desc)
	case "ac-3":
		return Params{Tag: "ac-3", StreamType: streamTypeAC3}, nil
	case "ec-3":
		return Params{Tag: "ec-3", StreamType: streamTypeEAC3}, nil
	default:
		return Params{}, fmt.Errorf("%w: %s", ErrUnsupported, desc.FourCC)
	}
}

func deriveH264(desc bmff.SampleDescription) (Params, error) {
	p := Params{StreamType: streamTypeH264, Width: desc.Width, Height: desc.Height}
	if len(desc.AVCSPS) == 0 {
		return p, fmt.Errorf("%w: h264: missing SPS", ErrUnsupported)
	}
	var sps h264.SPS
	if err := sps.Unmarshal(desc.AVCSPS); err != nil {
		p.Tag = fallbackAVCTag(desc.AVCSPS)
		return p, nil
	}
	p.Tag = fmt.Sprintf("avc1.%02X%02X%02X",
		sps.ProfileIdc, constraintSetFlagsByte(sps), sps.LevelIdc)
	w, h := sps.Width(), sps.Height()
	if w > 0 && h > 0 {
		p.Width, p.Height = uint16(w), uint16(h)
	}
	return p, nil
}

// constraintSetFlagsByte packs the six constraint_set*_flag bits into the
// byte position RFC 6381's avc1.PPCCLL tag expects (the two low-order bits
// are reserved and stay zero).
func constraintSetFlagsByte(sps h264.SPS) byte {
	var b byte
	if sps.ConstraintSet0Flag {
		b |= 1 << 7
	}
	if sps.ConstraintSet1Flag {
		b |= 1 << 6
	}
	if sps.ConstraintSet2Flag {
		b |= 1 << 5
	}
	if sps.ConstraintSet3Flag {
		b |= 1 << 4
	}
	if sps.ConstraintSet4Flag {
		b |= 1 << 3
	}
	if sps.ConstraintSet5Flag {
		b |= 1 << 2
	}
	return b
}

// fallbackAVCTag builds avc1.PPCCLL directly from the first three SPS bytes
// (profile_idc, constraint flags, level_idc) per RFC 6381 §3.4, used when
// the full SPS cannot be parsed.
func fallbackAVCTag(sps []byte) string {
	if len(sps) < 4 {
		return "avc1"
	}
	// sps[0] is the NALU header; the profile/constraint/level triplet
	// begins at sps[1] per ITU-T H.264 §7.3.2.1.1.
	return fmt.Sprintf("avc1.%02X%02X%02X", sps[1], sps[2], sps[3])
}

func deriveH265(desc bmff.SampleDescription) (Params, error) {
	p := Params{StreamType: streamTypeH265, Width: desc.Width, Height: desc.Height}
	if len(desc.HVCSPS) == 0 {
		return p, fmt.Errorf("%w: h265: missing SPS", ErrUnsupported)
	}
	var sps h265.SPS
	if err := sps.Unmarshal(desc.HVCSPS); err != nil {
		p.Tag = "hvc1"
		return p, nil
	}
	p.Tag = h265Tag(sps)
	w, h := sps.Width(), sps.Height()
	if w > 0 && h > 0 {
		p.Width, p.Height = uint16(w), uint16(h)
	}
	return p, nil
}

// h265Tag formats the ISO/IEC 14496-15 Annex E general_profile tag:
// hvc1.<profile_space><profile_idc>.<compat_flags_hex>.<tier><level>.<constraint_hex>
func h265Tag(sps h265.SPS) string {
	ptl := sps.ProfileTierLevel
	profileSpace := ""
	switch ptl.GeneralProfileSpace {
	case 1:
		profileSpace = "A"
	case 2:
		profileSpace = "B"
	case 3:
		profileSpace = "C"
	}
	tier := "L"
	if ptl.GeneralTierFlag != 0 {
		tier = "H"
	}
	return fmt.Sprintf("hvc1.%s%d.%X.%s%d.%02X",
		profileSpace, ptl.GeneralProfileIdc,
		reverseBits32(profileCompatibilityFlagsToUint32(ptl.GeneralProfileCompatibilityFlag)),
		tier, ptl.GeneralLevelIdc,
		generalConstraintFlagsByte(ptl))
}

// profileCompatibilityFlagsToUint32 packs the 32 general_profile_compatibility_flag
// bits (bitstream order, MSB first) into a uint32 the same way a packed
// field from the bitstream would be represented.
func profileCompatibilityFlagsToUint32(flags [32]bool) uint32 {
	var v uint32
	for i, set := range flags {
		if set {
			v |= 1 << uint(31-i)
		}
	}
	return v
}

// generalConstraintFlagsByte packs the first byte's worth of
// general_constraint_indicator_flags (the eight highest-order bits, per
// ISO/IEC 14496-15 Annex E bit order) from the individual constraint flags
// mediacommon exposes.
func generalConstraintFlagsByte(ptl h265.SPS_ProfileTierLevel) byte {
	flags := [8]bool{
		ptl.GeneralProgressiveSourceFlag,
		ptl.GeneralInterlacedSourceFlag,
		ptl.GeneralNonPackedConstraintFlag,
		ptl.GeneralFrameOnlyConstraintFlag,
		ptl.GeneralMax12bitConstraintFlag,
		ptl.GeneralMax10bitConstraintFlag,
		ptl.GeneralMax8bitConstraintFlag,
		ptl.GeneralMax422ChromeConstraintFlag,
	}
	var b byte
	for i, set := range flags {
		if set {
			b |= 1 << uint(7-i)
		}
	}
	return b
}

// reverseBits32 matches the bit-reversal RFC 6381 Annex E's
// general_profile_compatibility_flags encoding requires (the flags are
// serialized MSB-first but the tag is conventionally written from the
// lowest set bit).
func reverseBits32(v uint32) uint32 {
	var r uint32
	for i := 0; i < 32; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

func deriveAAC(desc bmff.SampleDescription) (Params, error) {
	p := Params{StreamType: streamTypeAAC}
	if len(desc.AudioConfig) == 0 {
		return p, fmt.Errorf("%w: aac: missing AudioSpecificConfig", ErrUnsupported)
	}
	var cfg mpeg4audio.Config
	if err := cfg.Unmarshal(desc.AudioConfig); err != nil {
		return p, fmt.Errorf("%w: aac: %v", ErrUnsupported, err)
	}
	p.Tag = fmt.Sprintf("mp4a.40.%d", cfg.Type)
	return p, nil
}
