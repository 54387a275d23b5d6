package bmff

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildStatic walks the moov/stbl sample tables the way monibuca's
// plugin/mp4/pkg/demuxer.go buildSampleList does: chunk offsets from
// stco/co64, samples-per-chunk runs from stsc, per-sample sizes from stsz,
// per-sample durations from stts, sync flags from stss. Unlike the teacher,
// payload bytes are read eagerly here rather than kept as a lazy offset,
// since this repo materializes the whole sample list up front.
func (c *Container) buildStatic(f *mp4.File) error {
	for _, trak := range f.Moov.Traks {
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

		stbl := trak.Mdia.Minf.Stbl
		raws, err := rawSamplesFromStbl(stbl)
		if err != nil {
			return fmt.Errorf("%w: %s: track %d: %v", ErrOpen, c.Path, trak.Tkhd.TrackID, err)
		}
		samples, err := c.readPayloads(raws)
		if err != nil {
			return fmt.Errorf("%w: %s: track %d: %v", ErrOpen, c.Path, trak.Tkhd.TrackID, err)
		}

		desc, err := descriptionFromStsd(stbl.Stsd, kind)
		if err != nil {
			return fmt.Errorf("%w: %s: track %d: %v", ErrOpen, c.Path, trak.Tkhd.TrackID, err)
		}

		c.assign(kind, &Track{
			Kind:      kind,
			timescale: trak.Mdia.Mdhd.Timescale,
			desc:      desc,
			samples:   samples,
		})
	}
	return nil
}

func (c *Container) assign(kind Kind, t *Track) {
	switch kind {
	case Video:
		if c.Video == nil {
			c.Video = t
		}
	case Audio:
		if c.Audio == nil {
			c.Audio = t
		}
	}
}

func (c *Container) readPayloads(raws []rawSample) ([]Sample, error) {
	out := make([]Sample, len(raws))
	for i, r := range raws {
		buf := make([]byte, r.size)
		if r.size > 0 {
			if _, err := c.reader.ReadAt(buf, int64(r.offset)); err != nil {
				return nil, fmt.Errorf("sample %d at offset %d: %w", i, r.offset, err)
			}
		}
		out[i] = Sample{
			DTS:      r.dts,
			Duration: r.duration,
			Sync:     r.sync,
			Payload:  buf,
		}
	}
	return out, nil
}

// rawSamplesFromStbl flattens stco/stsc/stsz/stts/stss into one rawSample
// per entry, in sample order. Chunk base offsets come from stco/co64;
// within a chunk, successive samples' offsets accumulate by size, exactly
// as monibuca's buildSampleList walks it.
func rawSamplesFromStbl(stbl *mp4.StblBox) ([]rawSample, error) {
	if stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsz/stsc box")
	}
	sampleCount := int(stbl.Stsz.SampleNumber)
	if sampleCount == 0 {
		return nil, nil
	}

	var chunkCount int
	var chunkOffset func(i int) uint64
	switch {
	case stbl.Stco != nil:
		chunkCount = len(stbl.Stco.ChunkOffset)
		chunkOffset = func(i int) uint64 { return uint64(stbl.Stco.ChunkOffset[i]) }
	case stbl.Co64 != nil:
		chunkCount = len(stbl.Co64.ChunkOffset)
		chunkOffset = func(i int) uint64 { return stbl.Co64.ChunkOffset[i] }
	default:
		return nil, fmt.Errorf("missing stco/co64 box")
	}

	sync := map[int]bool{}
	if stbl.Stss != nil {
		for _, n := range stbl.Stss.SampleNumber {
			sync[int(n)] = true
		}
	}
	allSync := stbl.Stss == nil

	durations := expandStts(stbl.Stts, sampleCount)

	raws := make([]rawSample, 0, sampleCount)
	entries := stbl.Stsc.Entries

	sampleIdx := 0 // 0-based index into raws/durations
	var dts uint64
	for e := 0; e < len(entries) && sampleIdx < sampleCount; e++ {
		firstChunk := int(entries[e].FirstChunk)
		lastChunk := chunkCount
		if e+1 < len(entries) {
			lastChunk = int(entries[e+1].FirstChunk) - 1
		}
		spc := int(entries[e].SamplesPerChunk)
		for chunk := firstChunk; chunk <= lastChunk && chunk <= chunkCount && sampleIdx < sampleCount; chunk++ {
			base := chunkOffset(chunk - 1)
			var withinChunk uint64
			for s := 0; s < spc && sampleIdx < sampleCount; s++ {
				size := stbl.Stsz.GetSampleSize(sampleIdx + 1)
				raws = append(raws, rawSample{
					offset:   base + withinChunk,
					size:     size,
					dts:      dts,
					duration: durations[sampleIdx],
					sync:     allSync || sync[sampleIdx+1],
				})
				withinChunk += uint64(size)
				dts += uint64(durations[sampleIdx])
				sampleIdx++
			}
		}
	}
	if sampleIdx != sampleCount {
		return nil, fmt.Errorf("chunk/sample table mismatch: expanded %d of %d samples", sampleIdx, sampleCount)
	}
	return raws, nil
}

func expandStts(stts *mp4.SttsBox, sampleCount int) []uint32 {
	out := make([]uint32, 0, sampleCount)
	if stts == nil {
		for len(out) < sampleCount {
			out = append(out, 0)
		}
		return out
	}
	for i := range stts.SampleCount {
		count := stts.SampleCount[i]
		delta := stts.SampleTimeDelta[i]
		for n := uint32(0); n < count && len(out) < sampleCount; n++ {
			out = append(out, delta)
		}
	}
	for len(out) < sampleCount {
		out = append(out, 0)
	}
	return out
}
