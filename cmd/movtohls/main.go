// Command movtohls converts one or more ISO-BMFF (MOV/MP4) inputs into an
// HLS v3 presentation: per-input TS segments and a media playlist, plus a
// single master playlist across all inputs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/monibuca/movtohls/internal/align"
	"github.com/monibuca/movtohls/internal/config"
	"github.com/monibuca/movtohls/internal/keyframe"
	"github.com/monibuca/movtohls/internal/logging"
	"github.com/monibuca/movtohls/internal/playlist"
	"github.com/monibuca/movtohls/internal/rendition"
	"github.com/monibuca/movtohls/internal/segment"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "movtohls:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// run opens every rendition, plans the Aligned Boundary List, then hands
// each rendition's ownership to a Segmenter Runner for the rest of its
// lifetime — once NewRunner is called for an input, this function never
// touches that input again directly.
func run(cfg config.Config, log *slog.Logger) error {
	var runners []*segment.Runner
	defer func() {
		for _, r := range runners {
			r.Close()
		}
	}()

	indexes := make([][]float32, 0, len(cfg.InputFiles))
	for _, path := range cfg.InputFiles {
		in, err := rendition.Open(path)
		if err != nil {
			return err
		}
		idx := keyframe.Build(in, log)
		indexes = append(indexes, idx.Times)
		log.Debug("opened rendition", "path", path, "video", in.HasVideo, "audio", in.HasAudio)
		runners = append(runners, segment.NewRunner(in))
	}

	boundaries := align.Plan(indexes, cfg.SegmentDuration)
	log.Debug("computed aligned boundary list", "count", len(boundaries))

	variants := make([]playlist.Variant, len(runners))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.MaxParallelRenditions)

	for i, r := range runners {
		i, r := i, r
		g.Go(func() error {
			v, err := runOneRendition(cfg, log, i, r, boundaries)
			if err != nil {
				return err
			}
			variants[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	masterPath := playlist.JoinOutputPath(cfg.OutputDir, cfg.MasterPlaylist)
	if err := playlist.Master(masterPath, variants); err != nil {
		return fmt.Errorf("%w: %v", segment.ErrIO, err)
	}
	log.Info("wrote master playlist", "path", masterPath, "variants", len(variants))
	return nil
}

func runOneRendition(cfg config.Config, log *slog.Logger, idx int, runner *segment.Runner, boundaries []float32) (playlist.Variant, error) {
	folder := fmt.Sprintf("media-%d", idx)
	outDir := playlist.JoinOutputPath(cfg.OutputDir, folder)

	result, err := runner.Run(outDir, boundaries, cfg.SegmentDuration)
	if err != nil {
		return playlist.Variant{}, err
	}

	streamPath := playlist.JoinOutputPath(cfg.OutputDir, folder, "stream.m3u8")
	if err := playlist.Media(streamPath, result.Stats.HasResolution, result.SegmentFilenames, result.SegmentDurations); err != nil {
		return playlist.Variant{}, fmt.Errorf("%w: %v", segment.ErrIO, err)
	}

	log.Info("segmented rendition", "folder", folder, "segments", result.Stats.SegmentCount,
		"bytes", result.Stats.TotalBytes, "duration", result.Stats.TotalDuration)

	avgBandwidth := int64(0)
	if result.Stats.TotalDuration > 0 {
		avgBandwidth = int64(math.Ceil(8 * float64(result.Stats.TotalBytes) / result.Stats.TotalDuration))
	}

	return playlist.Variant{
		AverageBandwidth: avgBandwidth,
		Bandwidth:        int64(math.Ceil(result.Stats.PeakBitrate)),
		Codecs:           result.Stats.CodecString,
		HasResolution:    result.Stats.HasResolution,
		Width:            result.Stats.Width,
		Height:           result.Stats.Height,
		URI:              folder + "/stream.m3u8",
	}, nil
}
