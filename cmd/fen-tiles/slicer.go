package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/imgio"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/chessboard-fen-mcp/internal/pipeline"
	"github.com/ironsheep/chessboard-fen-mcp/internal/position"
)

// ManifestEntry is one labelled board image.
type ManifestEntry struct {
	Path string
	FEN  string
	Line int
}

// ReadManifest parses a manifest file. Blank lines and lines starting with
// '#' are skipped; relative image paths are taken from the manifest's
// folder.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var entries []ManifestEntry
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		imgPath, fen, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected <path><TAB><fen>", path, line)
		}
		imgPath, fen = strings.TrimSpace(imgPath), strings.TrimSpace(fen)
		if err := position.ValidateFEN(fen); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if !filepath.IsAbs(imgPath) {
			imgPath = filepath.Join(dir, imgPath)
		}
		entries = append(entries, ManifestEntry{Path: imgPath, FEN: fen, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Stats counts what a run produced.
type Stats struct {
	Boards  int
	Skipped int
	Tiles   int
	Classes [position.NumClasses]int
}

// Distribution formats the per-class tile counts, one class per line.
func (s Stats) Distribution() []string {
	lines := make([]string, 0, position.NumClasses)
	for c := position.Empty; c <= position.BlackKing; c++ {
		lines = append(lines, fmt.Sprintf("  %s: %d", c, s.Classes[c]))
	}
	return lines
}

// Slicer cuts labelled boards into per-class tile folders.
type Slicer struct {
	Recognizer *pipeline.Recognizer
	Output     string
	Threads    int
	Augment    bool
	Seed       int64
	Logger     *zap.Logger
}

// Run processes every entry. Boards that cannot be read are logged and
// skipped; failing to write a tile stops the run.
func (s *Slicer) Run(ctx context.Context, entries []ManifestEntry) (Stats, error) {
	var stats Stats
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for c := position.Empty; c <= position.BlackKing; c++ {
		if err := os.MkdirAll(filepath.Join(s.Output, c.String()), 0o755); err != nil {
			return stats, err
		}
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Threads))

	for i, entry := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			counts, err := s.sliceBoard(i, entry)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isReadError(err) {
					logger.Warn("skipping board", zap.String("path", entry.Path), zap.Int("line", entry.Line), zap.Error(err))
					stats.Skipped++
					return nil
				}
				return fmt.Errorf("%s: %w", entry.Path, err)
			}

			stats.Boards++
			for c, n := range counts {
				stats.Classes[c] += n
				stats.Tiles += n
			}
			logger.Debug("board sliced", zap.String("path", entry.Path))
			return nil
		})
	}

	err := g.Wait()
	return stats, err
}

// readError marks failures to load a board, which only skip that board.
type readError struct{ err error }

func (e readError) Error() string { return e.err.Error() }
func (e readError) Unwrap() error { return e.err }

func isReadError(err error) bool {
	var re readError
	return errors.As(err, &re)
}

// sliceBoard writes the tiles of board number n and returns how many tiles
// of each class were written.
func (s *Slicer) sliceBoard(n int, entry ManifestEntry) ([position.NumClasses]int, error) {
	var counts [position.NumClasses]int

	labels, err := position.Labels(entry.FEN)
	if err != nil {
		return counts, readError{err}
	}
	img, err := imgio.Open(entry.Path)
	if err != nil {
		return counts, readError{err}
	}
	board, err := s.Recognizer.Prepare(img, nil)
	if err != nil {
		return counts, readError{err}
	}

	rng := rand.New(rand.NewSource(s.Seed + int64(n)))
	for i, tile := range board.Tiles {
		class := labels[i]
		name := fmt.Sprintf("tile_%07d", n*64+i)
		dir := filepath.Join(s.Output, class.String())

		if err := imgio.Save(filepath.Join(dir, name+".png"), tile, imgio.PNGEncoder()); err != nil {
			return counts, err
		}
		counts[class]++

		if s.Augment {
			if err := imgio.Save(filepath.Join(dir, name+"_aug.png"), augment(tile, rng), imgio.PNGEncoder()); err != nil {
				return counts, err
			}
			counts[class]++
		}
	}
	return counts, nil
}

// augment jitters brightness and contrast by up to 10% each.
func augment(tile image.Image, rng *rand.Rand) image.Image {
	out := adjust.Brightness(tile, rng.Float64()*0.2-0.1)
	return adjust.Contrast(out, rng.Float64()*0.2-0.1)
}
