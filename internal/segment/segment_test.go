package segment

import "testing"

func TestSelectTrackAudioDefault(t *testing.T) {
	audio := &cursor{present: true, tsSec: 1.0}
	video := &cursor{present: true, tsSec: 2.0}
	if got := selectTrack(audio, video); got != chosenAudio {
		t.Fatalf("got %v, want chosenAudio", got)
	}
}

func TestSelectTrackVideoPreemptsWhenCaughtUp(t *testing.T) {
	audio := &cursor{present: true, tsSec: 2.0}
	video := &cursor{present: true, tsSec: 1.0}
	if got := selectTrack(audio, video); got != chosenVideo {
		t.Fatalf("got %v, want chosenVideo", got)
	}
}

func TestSelectTrackVideoOnly(t *testing.T) {
	audio := &cursor{present: false}
	video := &cursor{present: true, tsSec: 5.0}
	if got := selectTrack(audio, video); got != chosenVideo {
		t.Fatalf("got %v, want chosenVideo", got)
	}
}

func TestSelectTrackNoneWhenBothEOS(t *testing.T) {
	audio := &cursor{present: true, eos: true}
	video := &cursor{present: true, eos: true}
	if got := selectTrack(audio, video); got != chosenNone {
		t.Fatalf("got %v, want chosenNone", got)
	}
}

func TestSelectTrackAudioEOSFallsBackToVideo(t *testing.T) {
	audio := &cursor{present: true, eos: true, tsSec: 10}
	video := &cursor{present: true, tsSec: 3.0}
	if got := selectTrack(audio, video); got != chosenVideo {
		t.Fatalf("got %v, want chosenVideo", got)
	}
}

func TestNearAnyWithinSearchWindow(t *testing.T) {
	boundaries := []float32{4.0, 8.0}
	if !nearAny(boundaries, 4.05) {
		t.Fatalf("expected 4.05 to be near 4.0")
	}
	if nearAny(boundaries, 5.0) {
		t.Fatalf("did not expect 5.0 to be near any boundary")
	}
}

func TestJoinCodecsVideoThenAudio(t *testing.T) {
	got := joinCodecs([]string{"avc1.640028", "mp4a.40.2"})
	want := "avc1.640028,mp4a.40.2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSegmentFilenameTemplate(t *testing.T) {
	if got := segmentFilename(7); got != "segment-7.ts" {
		t.Fatalf("got %q", got)
	}
}
