// Package playlist writes the per-rendition media playlist and the
// multi-variant master playlist, per the HLS v3 grammar.
package playlist

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const crlf = "\r\n"

// Media writes one rendition's media playlist to path. hasVideo controls
// whether #EXT-X-INDEPENDENT-SEGMENTS is emitted.
func Media(path string, hasVideo bool, segmentNames []string, durations []float64) error {
	var b strings.Builder
	b.WriteString("#EXTM3U" + crlf)
	b.WriteString("#EXT-X-VERSION:3" + crlf)
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD" + crlf)
	if hasVideo {
		b.WriteString("#EXT-X-INDEPENDENT-SEGMENTS" + crlf)
	}
	b.WriteString(fmt.Sprintf("#EXT-X-TARGETDURATION:%d%s", targetDuration(durations), crlf))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0" + crlf)
	for i, name := range segmentNames {
		b.WriteString(fmt.Sprintf("#EXTINF:%.6f,%s", durations[i], crlf))
		b.WriteString(name + crlf)
	}
	b.WriteString("#EXT-X-ENDLIST" + crlf)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// targetDuration is floor(max(d_i) + 0.5), maximized over the segment
// durations.
func targetDuration(durations []float64) int {
	var max float64
	for _, d := range durations {
		if d > max {
			max = d
		}
	}
	return int(math.Floor(max + 0.5))
}

// Variant is one rendition's contribution to the master playlist.
type Variant struct {
	AverageBandwidth int64
	Bandwidth        int64
	Codecs           string
	HasResolution    bool
	Width, Height    uint16
	URI              string
}

// Master writes the master playlist at path, one #EXT-X-STREAM-INF block
// per variant in the order given.
func Master(path string, variants []Variant) error {
	var b strings.Builder
	b.WriteString("#EXTM3U" + crlf)
	b.WriteString("#EXT-X-VERSION:3" + crlf)
	for _, v := range variants {
		attrs := []string{
			fmt.Sprintf("AVERAGE-BANDWIDTH=%d", v.AverageBandwidth),
			fmt.Sprintf("BANDWIDTH=%d", v.Bandwidth),
			fmt.Sprintf("CODECS=%q", v.Codecs),
		}
		if v.HasResolution {
			attrs = append(attrs, fmt.Sprintf("RESOLUTION=%dx%d", v.Width, v.Height))
		}
		b.WriteString("#EXT-X-STREAM-INF:" + strings.Join(attrs, ",") + crlf)
		b.WriteString(v.URI + crlf)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// JoinOutputPath builds the on-disk path of a rendition directory, media
// playlist or master playlist, rooted at outputDir/output per the
// preserved on-disk layout. Master playlist entry URIs are not built here.
func JoinOutputPath(outputDir string, parts ...string) string {
	return filepath.Join(append([]string{outputDir, "output"}, parts...)...)
}
