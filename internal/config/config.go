package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	getter "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/voxelworld/internal/world"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds the world and streaming configuration.
type Config struct {
	ChunkWidthBits  int `json:"chunk_width_bits"`
	ChunkHeightBits int `json:"chunk_height_bits"`
	ChunkLengthBits int `json:"chunk_length_bits"`

	// World extent in chunks.
	WorldWidth  int `json:"world_width"`
	WorldHeight int `json:"world_height"`
	WorldLength int `json:"world_length"`

	LoadRadius     int     `json:"load_radius"` // in chunks
	Steps          int     `json:"steps"`
	StepsPerSecond float64 `json:"steps_per_second"` // 0 = unpaced

	Workers    int `json:"workers"` // 0 = one per CPU
	MaxPending int `json:"max_pending"`

	Seed          int64  `json:"seed"`
	GeneratorType string `json:"generator_type"` // "noise", "caves" or "flat"
	SeaLevel      int    `json:"sea_level"`

	LogLevel string `json:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkWidthBits:  4,
		ChunkHeightBits: 4,
		ChunkLengthBits: 4,
		WorldWidth:      32,
		WorldHeight:     8,
		WorldLength:     32,
		LoadRadius:      4,
		Steps:           16,
		StepsPerSecond:  8,
		MaxPending:      1024,
		GeneratorType:   "noise",
		SeaLevel:        48,
		LogLevel:        "info",
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	cfg.ChunkWidthBits = fromFile.ChunkWidthBits
	cfg.ChunkHeightBits = fromFile.ChunkHeightBits
	cfg.ChunkLengthBits = fromFile.ChunkLengthBits
	cfg.WorldWidth = fromFile.WorldWidth
	cfg.WorldHeight = fromFile.WorldHeight
	cfg.WorldLength = fromFile.WorldLength
	cfg.MaxPending = fromFile.MaxPending
	cfg.SeaLevel = fromFile.SeaLevel

	if !explicitFlags["radius"] {
		cfg.LoadRadius = fromFile.LoadRadius
	}
	if !explicitFlags["steps"] {
		cfg.Steps = fromFile.Steps
	}
	if !explicitFlags["steps-per-second"] {
		cfg.StepsPerSecond = fromFile.StepsPerSecond
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
}

// Load reads the JSON file at path into cfg. If the file does not exist,
// cfg is unchanged.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Fetch downloads a config file from src to dst. src is anything go-getter
// understands: a local path, an http(s) URL, a git:: or s3:: address.
func Fetch(ctx context.Context, src, dst string) error {
	if err := getter.GetFile(dst, src, getter.WithContext(ctx)); err != nil {
		return fmt.Errorf("fetch config %s: %w", src, err)
	}
	return nil
}

// Layout returns the chunk layout described by the chunk bit widths.
func (c *Config) Layout() (world.Layout, error) {
	return world.NewLayout(c.ChunkWidthBits, c.ChunkHeightBits, c.ChunkLengthBits)
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// Validate checks that cfg describes a world that can be built.
func (c *Config) Validate() error {
	if _, err := c.Layout(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 || c.WorldLength <= 0 {
		return fmt.Errorf("%w: world size %dx%dx%d", ErrInvalid, c.WorldWidth, c.WorldHeight, c.WorldLength)
	}
	if c.LoadRadius < 0 {
		return fmt.Errorf("%w: load radius %d", ErrInvalid, c.LoadRadius)
	}
	if c.Steps < 0 || c.StepsPerSecond < 0 {
		return fmt.Errorf("%w: steps %d at %g/s", ErrInvalid, c.Steps, c.StepsPerSecond)
	}
	if c.Workers < 0 || c.MaxPending < 0 {
		return fmt.Errorf("%w: workers %d, max pending %d", ErrInvalid, c.Workers, c.MaxPending)
	}
	switch c.GeneratorType {
	case "noise", "caves", "flat":
	default:
		return fmt.Errorf("%w: generator %q", ErrInvalid, c.GeneratorType)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
