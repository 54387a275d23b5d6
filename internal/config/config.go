// Package config parses the command-line flags this packager accepts, the
// same way the teacher's own main.go and example/*/main.go parse flags:
// the standard library flag package, no cobra/pflag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ErrMissingRequired is returned when a required flag was not supplied.
var ErrMissingRequired = errors.New("config: missing required flag")

// Config holds the parsed, validated CLI configuration.
type Config struct {
	InputFiles             []string
	OutputDir              string
	SegmentDuration         float64
	MasterPlaylist          string
	Verbose                 bool
	LogLevel                string
	MaxParallelRenditions   int
}

// Parse parses args (excluding the program name) into a validated Config.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("movtohls", flag.ContinueOnError)

	var (
		inputFiles string
		outputDir  string
		segDur     float64
		master     string
		verbose    bool
		logLevel   string
		maxPar     int
	)

	fs.StringVar(&inputFiles, "input-files", "", "comma-separated list of input file paths")
	fs.StringVar(&inputFiles, "i", "", "shorthand for --input-files")
	fs.StringVar(&outputDir, "output-dir", "", "output directory, created on demand per rendition")
	fs.StringVar(&outputDir, "o", "", "shorthand for --output-dir")
	fs.Float64Var(&segDur, "segment-duration", 6, "target segment duration, seconds")
	fs.StringVar(&master, "master-playlist", "master.m3u8", "master playlist filename")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&verbose, "v", false, "shorthand for --verbose")
	fs.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.IntVar(&maxPar, "max-parallel-renditions", 0, "bound on concurrent rendition runs, 0 = GOMAXPROCS")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "movtohls converts ISO-BMFF inputs into an HLS v3 presentation.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		return Config{}, err
	}

	if inputFiles == "" {
		return Config{}, fmt.Errorf("%w: --input-files", ErrMissingRequired)
	}
	if outputDir == "" {
		return Config{}, fmt.Errorf("%w: --output-dir", ErrMissingRequired)
	}

	cfg := Config{
		InputFiles:            splitNonEmpty(inputFiles, ","),
		OutputDir:             outputDir,
		SegmentDuration:       segDur,
		MasterPlaylist:        master,
		Verbose:               verbose,
		LogLevel:              logLevel,
		MaxParallelRenditions: maxPar,
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.MaxParallelRenditions <= 0 {
		cfg.MaxParallelRenditions = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
