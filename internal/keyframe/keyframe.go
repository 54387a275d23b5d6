// Package keyframe builds the Keyframe Index the Alignment Planner uses to
// find common segment-boundary candidates across renditions.
package keyframe

import (
	"log/slog"

	"github.com/monibuca/movtohls/internal/rendition"
)

// Index is the ordered list of video sync-sample times, in seconds, a
// rendition's video track exposes as candidate cut points. Empty for an
// audio-only rendition, or for a fragmented rendition (see Build).
type Index struct {
	Times []float32
}

// Build derives a Keyframe Index for in. Fragmented inputs are refused
// deliberately: this packager materializes fragment sample tables eagerly
// and could technically walk them for sync flags, but the documented
// behavior for fragmented sources is to fall back to time-based alignment,
// so an empty index is returned and a warning is logged naming the file,
// rather than silently building an index the rest of the system isn't
// specified to expect.
func Build(in *rendition.Input, log *slog.Logger) Index {
	if in.Fragmented() {
		log.Warn("fragmented input, keyframe index unavailable, falling back to time-based alignment",
			"path", in.Path)
		return Index{}
	}
	if !in.HasVideo {
		return Index{}
	}
	return Index{Times: in.VideoTrack().SyncTimesSeconds()}
}

// Empty reports whether this index carries no candidate boundaries; such
// an index imposes no constraint in align.Plan.
func (i Index) Empty() bool {
	return len(i.Times) == 0
}
