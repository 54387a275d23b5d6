package bmff

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/hevc"
	"github.com/Eyevinn/mp4ff/mp4"
)

// descriptionFromStsd reads the single sample entry a stsd box carries for
// one track and extracts the decoder-configuration bytes codecs.Derive
// needs. Only the first entry is considered: multiple sample description
// indices (mid-stream codec changes) are not something this packager's
// inputs are expected to use.
func descriptionFromStsd(stsd *mp4.StsdBox, kind Kind) (SampleDescription, error) {
	if stsd == nil {
		return SampleDescription{}, fmt.Errorf("missing stsd box")
	}

	switch {
	case stsd.AvcX != nil:
		return descFromAVC(stsd.AvcX)
	case stsd.HvcX != nil:
		return descFromHEVC(stsd.HvcX)
	case stsd.Mp4a != nil:
		return descFromMp4a(stsd.Mp4a)
	case stsd.AC3 != nil:
		return SampleDescription{FourCC: "ac-3"}, nil
	case stsd.EC3 != nil:
		return SampleDescription{FourCC: "ec-3"}, nil
	}

	if kind == Video {
		return SampleDescription{}, fmt.Errorf("unsupported video sample entry")
	}
	return SampleDescription{}, fmt.Errorf("unsupported audio sample entry")
}

func descFromAVC(entry *mp4.VisualSampleEntryBox) (SampleDescription, error) {
	d := SampleDescription{
		FourCC: entry.Type(),
		Width:  entry.Width,
		Height: entry.Height,
	}
	if entry.AvcC == nil || len(entry.AvcC.SPSnalus) == 0 {
		return d, fmt.Errorf("avcC box missing SPS")
	}
	d.AVCSPS = entry.AvcC.SPSnalus[0]
	return d, nil
}

func descFromHEVC(entry *mp4.VisualSampleEntryBox) (SampleDescription, error) {
	d := SampleDescription{
		FourCC: entry.Type(),
		Width:  entry.Width,
		Height: entry.Height,
	}
	if entry.HvcC == nil {
		return d, fmt.Errorf("hvcC box missing")
	}
	for _, arr := range entry.HvcC.NaluArrays {
		if len(arr.Nalus) == 0 {
			continue
		}
		if arr.NaluType() == hevc.NALU_SPS {
			d.HVCSPS = arr.Nalus[0]
			break
		}
	}
	if d.HVCSPS == nil {
		return d, fmt.Errorf("hvcC box missing SPS")
	}
	return d, nil
}

func descFromMp4a(entry *mp4.AudioSampleEntryBox) (SampleDescription, error) {
	d := SampleDescription{FourCC: "mp4a"}
	if entry.Esds == nil {
		return d, fmt.Errorf("esds box missing")
	}
	dci := entry.Esds.DecConfigDescriptor
	if dci == nil || dci.DecSpecificInfo == nil {
		return d, fmt.Errorf("esds box missing AudioSpecificConfig")
	}
	d.AudioConfig = dci.DecSpecificInfo.DecConfig
	return d, nil
}
