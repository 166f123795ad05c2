// Package config holds the tunables of the recognition pipeline and the
// server: defaults, JSON file loading, loose-map overrides and validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"

	"github.com/ironsheep/chessboard-fen-mcp/internal/detection"
	"github.com/ironsheep/chessboard-fen-mcp/internal/imaging"
)

// Config represents the application configuration
type Config struct {
	Contrast imaging.CLAHEOptions     `json:"contrast" mapstructure:"contrast"`
	Edges    EdgeConfig               `json:"edges" mapstructure:"edges"`
	Locator  detection.LocatorOptions `json:"locator" mapstructure:"locator"`
	Aligner  detection.AlignerOptions `json:"aligner" mapstructure:"aligner"`
	Tiles    TileConfig               `json:"tiles" mapstructure:"tiles"`
	Store    StoreConfig              `json:"store" mapstructure:"store"`
}

// EdgeConfig contains the hysteresis thresholds of the edge detector
type EdgeConfig struct {
	Strong float64 `json:"strong" mapstructure:"strong"`
	Weak   float64 `json:"weak" mapstructure:"weak"`
}

// TileConfig contains tile extraction settings
type TileConfig struct {
	Size       int     `json:"size" mapstructure:"size"`
	MinLineGap float64 `json:"min_line_gap" mapstructure:"min_line_gap"`
}

// StoreConfig contains recognition history settings. An empty path
// disables the history.
type StoreConfig struct {
	Path         string `json:"path" mapstructure:"path"`
	HistoryLimit int    `json:"history_limit" mapstructure:"history_limit"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Contrast: imaging.DefaultCLAHEOptions(),
		Edges: EdgeConfig{
			Strong: imaging.DefaultStrongThreshold,
			Weak:   imaging.DefaultWeakThreshold,
		},
		Locator: detection.DefaultLocatorOptions(),
		Aligner: detection.DefaultAlignerOptions(),
		Tiles: TileConfig{
			Size:       detection.DefaultTileSize,
			MinLineGap: detection.DefaultMinLineGap,
		},
		Store: StoreConfig{
			HistoryLimit: 20,
		},
	}
}

// Load reads a JSON configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a file
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyOverrides decodes a loose map, such as the options object of a tool
// call, on top of c. Keys follow the JSON names, nested by section:
//
//	{"locator": {"fast_path_score": 30}, "tiles": {"size": 64}}
//
// Unknown keys are rejected. The result is validated.
func (c *Config) ApplyOverrides(overrides map[string]interface{}) error {
	if len(overrides) == 0 {
		return nil
	}

	next := *c
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &next,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overrides); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*c = next
	return nil
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.Contrast.GridX >= 1 && c.Contrast.GridY >= 1,
		"contrast grid must be at least 1x1, got %dx%d", c.Contrast.GridX, c.Contrast.GridY)
	check(c.Contrast.ClipFactor > 0, "contrast clip_factor must be positive, got %g", c.Contrast.ClipFactor)

	check(c.Edges.Weak >= 0, "edges weak threshold must not be negative, got %g", c.Edges.Weak)
	check(c.Edges.Strong >= c.Edges.Weak,
		"edges strong threshold %g is below weak threshold %g", c.Edges.Strong, c.Edges.Weak)

	check(c.Locator.SizeSteps >= 1, "locator size_steps must be at least 1, got %d", c.Locator.SizeSteps)
	check(c.Locator.PositionSteps >= 1, "locator position_steps must be at least 1, got %d", c.Locator.PositionSteps)
	check(c.Locator.MinSizeFraction > 0 && c.Locator.MinSizeFraction <= 1,
		"locator min_size_fraction must be in (0, 1], got %g", c.Locator.MinSizeFraction)
	check(c.Locator.SampleInset >= 0 && c.Locator.SampleInset < 0.5,
		"locator sample_inset must be in [0, 0.5), got %g", c.Locator.SampleInset)
	check(c.Locator.ParityDelta >= 0, "locator parity_delta must not be negative, got %g", c.Locator.ParityDelta)

	check(c.Aligner.WidthTolerance >= 0 && c.Aligner.WidthTolerance < 1,
		"aligner width_tolerance must be in [0, 1), got %g", c.Aligner.WidthTolerance)
	check(c.Aligner.Step > 0, "aligner step must be positive, got %g", c.Aligner.Step)
	check(c.Aligner.Window >= 0, "aligner window must not be negative, got %d", c.Aligner.Window)
	check(c.Aligner.NearDepth >= 0 && c.Aligner.NearDepth < c.Aligner.FarDepth && c.Aligner.FarDepth <= 1,
		"aligner depths must satisfy 0 <= near < far <= 1, got %g and %g", c.Aligner.NearDepth, c.Aligner.FarDepth)

	check(c.Tiles.Size >= 8 && c.Tiles.Size <= 512, "tiles size must be in [8, 512], got %d", c.Tiles.Size)
	check(c.Tiles.MinLineGap >= 0, "tiles min_line_gap must not be negative, got %g", c.Tiles.MinLineGap)

	check(c.Store.HistoryLimit >= 1, "store history_limit must be at least 1, got %d", c.Store.HistoryLimit)

	return err
}
