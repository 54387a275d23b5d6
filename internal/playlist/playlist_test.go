package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMediaPlaylistLineCountMatchesSegments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.m3u8")
	names := []string{"segment-0.ts", "segment-1.ts", "segment-2.ts"}
	durations := []float64{4.0, 4.0, 2.0}

	if err := Media(path, true, names, durations); err != nil {
		t.Fatalf("Media: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	extinf := strings.Count(content, "#EXTINF:")
	if extinf != len(names) {
		t.Fatalf("got %d #EXTINF lines, want %d", extinf, len(names))
	}
	if !strings.Contains(content, "#EXT-X-INDEPENDENT-SEGMENTS") {
		t.Fatalf("expected #EXT-X-INDEPENDENT-SEGMENTS for video rendition")
	}
	if !strings.Contains(content, "#EXT-X-TARGETDURATION:4") {
		t.Fatalf("expected targetduration 4, got: %s", content)
	}
	if !strings.HasSuffix(strings.TrimRight(content, "\n"), "#EXT-X-ENDLIST\r") {
		t.Fatalf("expected trailing ENDLIST, got: %q", content)
	}
}

func TestMediaPlaylistAudioOnlyOmitsIndependentSegments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stream.m3u8")
	if err := Media(path, false, []string{"segment-0.ts"}, []float64{6.0}); err != nil {
		t.Fatalf("Media: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "#EXT-X-INDEPENDENT-SEGMENTS") {
		t.Fatalf("audio-only playlist must not have #EXT-X-INDEPENDENT-SEGMENTS")
	}
}

func TestTargetDurationIsFloorPlusHalf(t *testing.T) {
	got := targetDuration([]float64{3.9, 4.4, 2.0})
	if got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
}

func TestMasterPlaylistSingleVariant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.m3u8")
	variants := []Variant{
		{AverageBandwidth: 500000, Bandwidth: 600000, Codecs: "mp4a.40.2", URI: "media-0/stream.m3u8"},
	}
	if err := Master(path, variants); err != nil {
		t.Fatalf("Master: %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Count(content, "#EXT-X-STREAM-INF:") != 1 {
		t.Fatalf("expected exactly one stream-inf block, got: %s", content)
	}
	if strings.Contains(content, "RESOLUTION") {
		t.Fatalf("audio-only variant must not declare RESOLUTION")
	}
}

func TestMasterPlaylistCodecsOrderedVideoThenAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.m3u8")
	variants := []Variant{
		{Codecs: "avc1.640028,mp4a.40.2", HasResolution: true, Width: 1280, Height: 720, URI: "media-0/stream.m3u8"},
	}
	if err := Master(path, variants); err != nil {
		t.Fatalf("Master: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `CODECS="avc1.640028,mp4a.40.2"`) {
		t.Fatalf("expected video-then-audio codecs order, got: %s", string(data))
	}
	if !strings.Contains(string(data), "RESOLUTION=1280x720") {
		t.Fatalf("expected resolution field, got: %s", string(data))
	}
}
