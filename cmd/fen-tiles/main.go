// Command fen-tiles builds a labelled tile dataset from board screenshots.
//
// The manifest lists one image per line with the FEN it shows, separated by
// a tab. Each board is located and aligned, cut into 64 tiles, and every
// tile is written to <out>/<class>/tile_<n>.png where <class> is the label
// the FEN gives that square.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ironsheep/chessboard-fen-mcp/internal/config"
	"github.com/ironsheep/chessboard-fen-mcp/internal/pipeline"
)

type Settings struct {
	Manifest string
	Output   string
	Config   string
	Threads  int
	Augment  bool
	Seed     int64
	Verbose  bool
}

func main() {
	settings := Settings{
		Output:  "tiles",
		Threads: max(1, runtime.NumCPU()/2),
		Seed:    1,
	}

	flag.StringVar(&settings.Manifest, "manifest", settings.Manifest, "Path to manifest file (image path<TAB>FEN per line)")
	flag.StringVar(&settings.Output, "out", settings.Output, "Output folder for class directories")
	flag.StringVar(&settings.Config, "config", settings.Config, "Optional JSON config file")
	flag.IntVar(&settings.Threads, "threads", settings.Threads, "Number of boards processed at once")
	flag.BoolVar(&settings.Augment, "augment", settings.Augment, "Also write a brightness/contrast jittered copy of every tile")
	flag.Int64Var(&settings.Seed, "seed", settings.Seed, "Random seed for augmentation")
	flag.BoolVar(&settings.Verbose, "v", settings.Verbose, "Debug logging")
	flag.Parse()

	if err := run(settings); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(settings Settings) error {
	if settings.Manifest == "" {
		return fmt.Errorf("-manifest is required")
	}

	logConfig := zap.NewDevelopmentConfig()
	if !settings.Verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := config.Default()
	if settings.Config != "" {
		if cfg, err = config.Load(settings.Config); err != nil {
			return err
		}
	}

	entries, err := ReadManifest(settings.Manifest)
	if err != nil {
		return err
	}
	logger.Info("manifest loaded", zap.Int("boards", len(entries)), zap.String("out", settings.Output))

	slicer := &Slicer{
		Recognizer: pipeline.New(cfg, logger.Named("pipeline")),
		Output:     settings.Output,
		Threads:    settings.Threads,
		Augment:    settings.Augment,
		Seed:       settings.Seed,
		Logger:     logger,
	}
	stats, err := slicer.Run(context.Background(), entries)
	if err != nil {
		return err
	}

	fmt.Printf("\nDone! Wrote %d tiles from %d boards (%d skipped).\n", stats.Tiles, stats.Boards, stats.Skipped)
	fmt.Println("\nClass distribution:")
	for _, line := range stats.Distribution() {
		fmt.Println(line)
	}
	return nil
}
