// Package rendition bundles one opened input container with its derived
// codec parameters into the Input Rendition the aligner and segmenter
// drive, translating bmff's byte-oriented errors into the documented error
// kinds (pkg/error.go's sentinel-error convention in the teacher repo).
package rendition

import (
	"errors"
	"fmt"

	"github.com/monibuca/movtohls/internal/bmff"
	"github.com/monibuca/movtohls/internal/codecs"
)

// Sentinel error kinds, matching the documented InputOpenError,
// NoMovieError, NoMediaError, UnsupportedCodec kinds.
var (
	ErrInputOpen       = errors.New("rendition: could not open input")
	ErrNoMovie         = errors.New("rendition: no movie header")
	ErrNoMedia         = errors.New("rendition: no audio or video track")
	ErrUnsupportedCodec = errors.New("rendition: unsupported codec")
)

// Input is one opened rendition: the decoded container plus the derived
// RFC 6381 / TS parameters for whichever of its video and audio tracks are
// present. Not safe for concurrent use from more than one goroutine.
type Input struct {
	Path      string
	container *bmff.Container

	HasVideo bool
	HasAudio bool

	VideoParams codecs.Params
	AudioParams codecs.Params
}

// Open opens path, decodes its sample tables and derives codec parameters
// for each present track.
func Open(path string) (*Input, error) {
	c, err := bmff.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, bmff.ErrNoMovie):
			return nil, fmt.Errorf("%w: %s: %v", ErrNoMovie, path, err)
		case errors.Is(err, bmff.ErrNoMedia):
			return nil, fmt.Errorf("%w: %s: %v", ErrNoMedia, path, err)
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrInputOpen, path, err)
		}
	}

	in := &Input{Path: path, container: c}

	if c.Video != nil {
		p, err := codecs.Derive(c.Video.Description())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCodec, path, err)
		}
		in.HasVideo = true
		in.VideoParams = p
	}
	if c.Audio != nil {
		p, err := codecs.Derive(c.Audio.Description())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCodec, path, err)
		}
		in.HasAudio = true
		in.AudioParams = p
	}
	return in, nil
}

// Close releases the underlying container's file handle.
func (in *Input) Close() error {
	return in.container.Close()
}

// Fragmented reports whether the source used moof fragments rather than a
// single moov sample table.
func (in *Input) Fragmented() bool {
	return in.container.Fragmented()
}

// VideoTrack and AudioTrack expose the underlying Sample Sources for the
// segmenter's interleaved emission loop. Either may be nil; check HasVideo
// / HasAudio first.
func (in *Input) VideoTrack() *bmff.Track { return in.container.Video }
func (in *Input) AudioTrack() *bmff.Track { return in.container.Audio }
