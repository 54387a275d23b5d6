// Package tsmux drives gomedia's MPEG-2 TS muxer to write one TS segment
// per call, re-emitting PAT/PMT at the start of every segment the way a
// standalone HLS segment must (no continuity assumed with its neighbours).
// Grounded on the teacher's own use of gomedia for H.264/H.265/AAC
// bitstream concerns (plugin/mp4/pkg/box/mp4track.go, codec.go); the TS
// muxer itself comes from the same module rather than the teacher's
// hand-rolled plugin/hls/pkg/ts writer (see DESIGN.md).
package tsmux

import (
	"bytes"
	"errors"
	"fmt"

	mpeg2 "github.com/yapingcat/gomedia/go-mpeg2"

	"github.com/monibuca/movtohls/internal/codecs"
)

// ErrUnsupportedCodec is returned when a stream's derived stream_type has
// no known gomedia TS_STREAM_* mapping.
var ErrUnsupportedCodec = errors.New("tsmux: unsupported codec for TS muxing")

// Stream describes one elementary stream to be muxed into a segment, in
// the PID order it should be registered (video, then audio).
type Stream struct {
	Params codecs.Params
}

// Segment accumulates the TS packets of one HLS media segment: it owns a
// freshly constructed muxer with its own PAT/PMT so every segment decodes
// independently.
type Segment struct {
	muxer *mpeg2.TSMuxer
	buf   *bytes.Buffer
	pids  map[int]uint16 // index into streams -> gomedia pid
}

// NewSegment builds a muxer carrying PAT/PMT entries for the given
// streams, in order. video stream (if present) should be streams[0].
func NewSegment(streams []Stream) (*Segment, error) {
	buf := &bytes.Buffer{}
	muxer := mpeg2.NewTSMuxer()
	muxer.OnPacket = func(pkg []byte) {
		buf.Write(pkg)
	}

	pids := make(map[int]uint16, len(streams))
	for i, s := range streams {
		tsType, err := tsStreamType(s.Params.StreamType)
		if err != nil {
			return nil, err
		}
		pid := muxer.AddStream(tsType)
		pids[i] = pid
	}

	return &Segment{muxer: muxer, buf: buf, pids: pids}, nil
}

// WriteSample muxes one access unit of stream index idx with the given
// presentation/decode timestamps, in 90kHz TS clock units.
func (s *Segment) WriteSample(idx int, payload []byte, pts, dts uint64) error {
	pid, ok := s.pids[idx]
	if !ok {
		return fmt.Errorf("tsmux: unknown stream index %d", idx)
	}
	return s.muxer.Write(pid, payload, pts, dts)
}

// Bytes returns the accumulated TS packet stream for this segment.
func (s *Segment) Bytes() []byte {
	return s.buf.Bytes()
}

func tsStreamType(streamType uint8) (mpeg2.TS_STREAM_TYPE, error) {
	switch streamType {
	case 0x1B:
		return mpeg2.TS_STREAM_H264, nil
	case 0x24:
		return mpeg2.TS_STREAM_H265, nil
	case 0x0F:
		return mpeg2.TS_STREAM_AAC, nil
	case 0x81:
		return mpeg2.TS_STREAM_TYPE(0x81), nil
	case 0x87:
		return mpeg2.TS_STREAM_TYPE(0x87), nil
	default:
		return 0, fmt.Errorf("%w: stream_type 0x%02X", ErrUnsupportedCodec, streamType)
	}
}
