// Package bmff reads ISO-BMFF (MOV/MP4) containers and exposes the uniform
// Sample Source contract the rest of the packager drives: forward-only,
// non-restartable, audio/video samples in ascending decode order.
//
// Box-tree decoding is delegated to github.com/Eyevinn/mp4ff, which the
// teacher repo already depends on. Both static (moov/stbl) and fragmented
// (moof/traf/trun) inputs are materialized eagerly into an ordered sample
// list per track at Open time; the Sample Source contract only promises
// forward-only delivery, not a particular internal representation, and
// eager materialization keeps the two input shapes behind one cursor type
// without a second, streaming code path.
package bmff

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Errors surfaced to callers, per the documented error kinds.
var (
	ErrOpen     = errors.New("bmff: could not open input")
	ErrNoMovie  = errors.New("bmff: no movie header")
	ErrNoMedia  = errors.New("bmff: no audio or video track")
	ErrEndOfStream = errors.New("bmff: end of stream")
)

// Kind distinguishes the two track types this packager understands.
type Kind int

const (
	Video Kind = iota
	Audio
)

func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "audio"
}

// SampleDescription carries the elementary-stream codec identifier and the
// raw decoder-configuration bytes RFC 6381 tag derivation needs.
type SampleDescription struct {
	FourCC       string // e.g. "avc1", "hev1", "mp4a", "ac-3", "ec-3"
	Width, Height uint16 // from stsd, used only as a fallback
	AVCSPS       []byte // first SPS NALU from avcC, H.264 only
	HVCSPS       []byte // first SPS NALU from hvcC, H.265 only
	AudioConfig  []byte // AudioSpecificConfig from esds, AAC only
}

// Sample is a single immutable media unit, timestamps in the track's media
// time scale.
type Sample struct {
	DTS      uint64
	Duration uint32
	Sync     bool
	Payload  []byte
}

// rawSample is the intermediate record produced while walking stco/stsc/stsz:
// the file offset and length needed to read the actual payload bytes.
type rawSample struct {
	offset   uint64
	size     uint32
	dts      uint64
	duration uint32
	sync     bool
}

// Track is a forward-only, non-restartable Sample Source over one audio or
// video track of a Container.
type Track struct {
	Kind      Kind
	timescale uint32
	desc      SampleDescription
	samples   []Sample
	cursor    int
}

// Timescale returns the constant media time scale (ticks per second).
func (t *Track) Timescale() uint32 { return t.timescale }

// Description returns the track's sample description.
func (t *Track) Description() SampleDescription { return t.desc }

// Next returns the next Sample in decode order, or ErrEndOfStream once the
// track is exhausted. Not restartable: once exhausted, always exhausted.
func (t *Track) Next() (Sample, error) {
	if t.cursor >= len(t.samples) {
		return Sample{}, ErrEndOfStream
	}
	s := t.samples[t.cursor]
	t.cursor++
	return s, nil
}

// SyncTimesSeconds returns, for a video track, the DTS of every sync sample
// converted to seconds — the raw material for a Keyframe Index. Empty for
// audio tracks.
func (t *Track) SyncTimesSeconds() []float32 {
	if t.Kind != Video {
		return nil
	}
	out := make([]float32, 0, len(t.samples)/8+1)
	for _, s := range t.samples {
		if s.Sync {
			out = append(out, float32(float64(s.DTS)/float64(t.timescale)))
		}
	}
	return out
}

// Container owns one ISO-BMFF file and its decoded tracks.
type Container struct {
	Path       string
	Video      *Track
	Audio      *Track
	fragmented bool
	closer     io.Closer
	reader     io.ReaderAt
}

// Fragmented reports whether the source file used moof/moov fragments.
func (c *Container) Fragmented() bool { return c.fragmented }

// Close releases the underlying file handle.
func (c *Container) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Open decodes the movie header and every sample table of path, building
// the audio/video Tracks eagerly.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	mp4File, err := mp4.DecodeFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}

	c := &Container{Path: path, closer: f, reader: f}

	if mp4File.IsFragmented() {
		c.fragmented = true
		if err := c.buildFragmented(mp4File); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if mp4File.Moov == nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s", ErrNoMovie, path)
		}
		if err := c.buildStatic(mp4File); err != nil {
			f.Close()
			return nil, err
		}
	}

	if c.Video == nil && c.Audio == nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoMedia, path)
	}
	return c, nil
}
