package bmff

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmented reads CMAF-style inputs: one init segment (moov, with the
// sample description and default sample values in mvex/trex) followed by a
// sequence of moof+mdat media segments. Samples across every segment are
// concatenated into the same flat per-track list the static path produces,
// keeping one Track/cursor implementation for both input shapes.
func (c *Container) buildFragmented(f *mp4.File) error {
	init := f.Init
	if init == nil || init.Moov == nil {
		return fmt.Errorf("%w: %s", ErrNoMovie, c.Path)
	}

	trex := map[uint32]*mp4.TrexBox{}
	if init.Moov.Mvex != nil {
		for _, t := range init.Moov.Mvex.Trexs {
			trex[t.TrackID] = t
		}
	}

	type trackBuild struct {
		kind      Kind
		timescale uint32
		desc      SampleDescription
		samples   []Sample
	}
	builds := map[uint32]*trackBuild{}

	for _, trak := range init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		var kind Kind
		switch trak.Mdia.Hdlr.HandlerType {
		case "vide":
			kind = Video
		case "soun":
			kind = Audio
		default:
			continue
		}
		desc, err := descriptionFromStsd(trak.Mdia.Minf.Stbl.Stsd, kind)
		if err != nil {
			return fmt.Errorf("%w: %s: track %d: %v", ErrOpen, c.Path, trak.Tkhd.TrackID, err)
		}
		builds[trak.Tkhd.TrackID] = &trackBuild{
			kind:      kind,
			timescale: trak.Mdia.Mdhd.Timescale,
			desc:      desc,
		}
	}
	if len(builds) == 0 {
		return fmt.Errorf("%w: %s", ErrNoMedia, c.Path)
	}

	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			for _, traf := range frag.Moof.Trafs {
				trackID := traf.Tfhd.TrackID
				b, ok := builds[trackID]
				if !ok {
					continue
				}
				fs, err := frag.GetFullSamples(trex[trackID])
				if err != nil {
					return fmt.Errorf("%w: %s: track %d: %v", ErrOpen, c.Path, trackID, err)
				}
				for _, s := range fs {
					b.samples = append(b.samples, Sample{
						DTS:      s.DecodeTime,
						Duration: s.Sample.Dur,
						Sync:     isSyncSampleFlags(s.Sample.Flags),
						Payload:  s.Data,
					})
				}
			}
		}
	}

	for _, b := range builds {
		c.assign(b.kind, &Track{
			Kind:      b.kind,
			timescale: b.timescale,
			desc:      b.desc,
			samples:   b.samples,
		})
	}
	return nil
}

// sampleIsNonSyncSample is bit 16 (0x00010000) of a trun sample_flags field,
// per ISO/IEC 14496-12 8.8.3.1. A sample is a sync sample when the bit is
// clear.
const sampleIsNonSyncSample = 0x00010000

func isSyncSampleFlags(flags uint32) bool {
	return flags&sampleIsNonSyncSample == 0
}
