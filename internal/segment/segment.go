// Package segment drives the TS muxer to turn one Input Rendition into a
// sequence of TS segments plus per-rendition Statistics, following the
// interleaved DTS-order emission loop.
package segment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/monibuca/movtohls/internal/align"
	"github.com/monibuca/movtohls/internal/bmff"
	"github.com/monibuca/movtohls/internal/rendition"
	"github.com/monibuca/movtohls/internal/tsmux"
)

// Error kinds, matching the documented OutputDirError and IOError.
var (
	ErrOutputDir = errors.New("segment: could not create output directory")
	ErrIO        = errors.New("segment: read or write failure")
)

// Stats carries the per-rendition tallies the master playlist needs.
type Stats struct {
	TotalBytes    int64
	TotalDuration float64
	SegmentCount  int
	PeakBitrate   float64 // bits per second
	CodecString   string  // RFC 6381 tags, video then audio
	HasResolution bool
	Width, Height uint16
}

// Result is what one Segmenter run produces: the Stats plus the per-segment
// durations the media playlist needs, in order.
type Result struct {
	Stats             Stats
	SegmentDurations  []float64
	SegmentFilenames  []string
}

// Runner owns one Input Rendition for the duration of one segmentation
// run; construction is an explicit ownership transfer — the caller must
// not touch in again after passing it here, matching the resolved
// ownership design.
type Runner struct {
	in *rendition.Input
}

// NewRunner takes ownership of in.
func NewRunner(in *rendition.Input) *Runner {
	return &Runner{in: in}
}

// Close releases the owned Input Rendition.
func (r *Runner) Close() error {
	return r.in.Close()
}

type cursor struct {
	track     *bmff.Track
	timescale float64
	present   bool
	eos       bool
	tsSec     float64
	durSec    float64
	sample    bmff.Sample
}

func (c *cursor) advance() error {
	s, err := c.track.Next()
	if err != nil {
		if errors.Is(err, bmff.ErrEndOfStream) {
			c.tsSec = c.tsSec + c.durSec
			c.eos = true
			return nil
		}
		return err
	}
	c.sample = s
	c.tsSec = float64(s.DTS) / c.timescale
	c.durSec = float64(s.Duration) / c.timescale
	return nil
}

// Run segments the owned rendition into outDir, cutting at entries of
// boundaries when video is present and boundaries is non-empty
// (keyframe-aligned mode), or at targetSeconds intervals otherwise
// (time-based mode — this is also the fallback when alignment produced
// an empty boundary list, e.g. fully-disagreeing inputs). A fragmented
// input has no keyframe index and is always cut in time-based mode.
func (r *Runner) Run(outDir string, boundaries []float32, targetSeconds float64) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrOutputDir, outDir, err)
	}
	if r.in.Fragmented() {
		boundaries = nil
	}

	var video, audio cursor
	streams := []tsmux.Stream{}
	codecParts := []string{}

	if r.in.HasVideo {
		video = cursor{track: r.in.VideoTrack(), timescale: float64(r.in.VideoTrack().Timescale()), present: true}
		if err := video.advance(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
		streams = append(streams, tsmux.Stream{Params: r.in.VideoParams})
		codecParts = append(codecParts, r.in.VideoParams.Tag)
	}
	if r.in.HasAudio {
		audio = cursor{track: r.in.AudioTrack(), timescale: float64(r.in.AudioTrack().Timescale()), present: true}
		if err := audio.advance(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}
		streams = append(streams, tsmux.Stream{Params: r.in.AudioParams})
		codecParts = append(codecParts, r.in.AudioParams.Tag)
	}

	videoIdx, audioIdx := -1, -1
	i := 0
	if r.in.HasVideo {
		videoIdx = i
		i++
	}
	if r.in.HasAudio {
		audioIdx = i
	}

	var (
		res          Result
		segNo        int
		lastTS       float64
		needNew      = true
		cur          *tsmux.Segment
		segStartSize int64
	)

	flushCut := func(candidate float64) error {
		segDur := candidate - lastTS
		segBytes := cur.Bytes()
		segSize := int64(len(segBytes)) - segStartSize
		if err := writeSegmentFile(outDir, segNo, segBytes); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		res.SegmentDurations = append(res.SegmentDurations, segDur)
		res.SegmentFilenames = append(res.SegmentFilenames, segmentFilename(segNo))
		res.Stats.TotalBytes += segSize
		res.Stats.TotalDuration += segDur
		res.Stats.SegmentCount++
		if segDur > 0 {
			bitrate := 8 * float64(segSize) / segDur
			if bitrate > res.Stats.PeakBitrate {
				res.Stats.PeakBitrate = bitrate
			}
		}
		segNo++
		lastTS = candidate
		needNew = true
		return nil
	}

	for {
		chosen := selectTrack(&audio, &video)

		syncFrame := false
		switch chosen {
		case chosenVideo:
			syncFrame = video.sample.Sync
		case chosenAudio:
			if !video.present {
				syncFrame = true
			}
		}

		if syncFrame || chosen == chosenNone {
			candidate := audio.tsSec
			if video.present {
				candidate = video.tsSec
			}
			cut := chosen == chosenNone
			if !cut {
				if video.present && len(boundaries) > 0 {
					cut = nearAny(boundaries, candidate)
				} else {
					cut = candidate-lastTS >= targetSeconds
				}
			}
			if cut && cur != nil {
				if err := flushCut(candidate); err != nil {
					return Result{}, err
				}
			}
		}

		if chosen == chosenNone {
			break
		}

		if needNew {
			seg, err := tsmux.NewSegment(streams)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
			}
			cur = seg
			segStartSize = int64(len(seg.Bytes()))
			needNew = false
		}

		var idx int
		var payload []byte
		var pts, dts uint64
		switch chosen {
		case chosenVideo:
			idx = videoIdx
			payload = video.sample.Payload
			dts = uint64(video.sample.DTS) * 90000 / uint64(video.track.Timescale())
			pts = dts
		case chosenAudio:
			idx = audioIdx
			payload = audio.sample.Payload
			dts = uint64(audio.sample.DTS) * 90000 / uint64(audio.track.Timescale())
			pts = dts
		}
		if err := cur.WriteSample(idx, payload, pts, dts); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
		}

		switch chosen {
		case chosenVideo:
			if err := video.advance(); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
			}
		case chosenAudio:
			if err := audio.advance(); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrIO, err)
			}
		}
	}

	res.Stats.CodecString = joinCodecs(codecParts)
	if r.in.HasVideo {
		res.Stats.HasResolution = true
		res.Stats.Width = r.in.VideoParams.Width
		res.Stats.Height = r.in.VideoParams.Height
	}
	return res, nil
}

type chosenTrack int

const (
	chosenNone chosenTrack = iota
	chosenAudio
	chosenVideo
)

// selectTrack implements the track-selection rule: audio is the default
// when present; video preempts it whenever video's timestamp is at or
// behind audio's (or when there is no audio left at all).
func selectTrack(audio, video *cursor) chosenTrack {
	chosen := chosenNone
	if audio.present && !audio.eos {
		chosen = chosenAudio
	}
	if video.present && !video.eos {
		if audio.present && !audio.eos {
			if video.tsSec <= audio.tsSec {
				chosen = chosenVideo
			}
		} else {
			chosen = chosenVideo
		}
	}
	if (!audio.present || audio.eos) && (!video.present || video.eos) {
		chosen = chosenNone
	}
	return chosen
}

func nearAny(boundaries []float32, candidate float64) bool {
	for _, b := range boundaries {
		if abs64(float64(b)-candidate) < 2*align.Epsilon {
			return true
		}
	}
	return false
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func joinCodecs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}

func segmentFilename(n int) string {
	return fmt.Sprintf("segment-%d.ts", n)
}

func writeSegmentFile(outDir string, n int, data []byte) error {
	path := filepath.Join(outDir, segmentFilename(n))
	return os.WriteFile(path, data, 0o644)
}
