// Command dcm2vol converts a DICOM series into a raw volume, a DDS texture
// and tar archives.
//
// Usage:
//
//	dcm2vol [-config settings.yaml] [-skip n] [-o dir] [-v] <dir | file...>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robert-malhotra/go-dcm2vol/convert"
	"github.com/robert-malhotra/go-dcm2vol/internal/config"
)

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "dcm2vol: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	cfgPath := flag.String("config", "", "settings file (YAML)")
	skip := flag.Int("skip", 0, "keep every Nth slice (overrides skipEveryNSlices)")
	outRoot := flag.String("o", "", "directory the output path is resolved against (default: input directory)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <dir | file...>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		exitf("%v", err)
	}
	if *skip > 0 {
		cfg.SkipEveryNSlices = *skip
	}
	level, err := cfg.Level()
	if err != nil {
		exitf("%v", err)
	}
	if *verbose {
		level = zerolog.DebugLevel
	}

	inputs, err := collectInputs(flag.Args())
	if err != nil {
		exitf("%v", err)
	}

	id := uuid.NewString()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rep, err := convert.Run(ctx, inputs, convert.Options{
		Config:     cfg,
		OutputRoot: *outRoot,
		Logger:     logger,
		RunID:      id,
	})
	if err != nil {
		logger.Error().Err(err).Str("run", id).Msg("Conversion failed")
		os.Exit(1)
	}

	logSummary(logger.With().Str("run", id).Logger(), rep, len(inputs), time.Since(start))
	for _, p := range rep.Outputs {
		fmt.Println(p)
	}
}

// logSummary writes the closing line of a run. Skipped files were already
// reported by convert.Run and are only counted here.
func logSummary(log zerolog.Logger, rep *convert.Report, files int, elapsed time.Duration) {
	log.Info().
		Int("files", files).
		Int("decoded", rep.Decoded).
		Int("skipped", len(rep.Skipped)).
		Int("slices", rep.Volume.Slices).
		Int("width", rep.Volume.Columns).
		Int("height", rep.Volume.Rows).
		Float64("depth", rep.Volume.Depth).
		Dur("elapsed", elapsed).
		Msg("Conversion finished")
}

// collectInputs expands a single directory argument into its files.
func collectInputs(args []string) ([]string, error) {
	if len(args) == 1 {
		fi, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			inputs, err := convert.Inputs(args[0])
			if err != nil {
				return nil, err
			}
			if len(inputs) == 0 {
				return nil, fmt.Errorf("no files in %s", args[0])
			}
			return inputs, nil
		}
	}
	return args, nil
}
