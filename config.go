package cae

import (
	"fmt"

	"github.com/gogpu/cae/internal/core"
)

// Default configuration values and operating limits.
const (
	DefaultRule       uint8  = 30
	DefaultCellSize   uint32 = 10
	DefaultWidth      uint32 = 1280
	DefaultHeight     uint32 = 960
	DefaultDebounceMS uint64 = 0
	DefaultCacheTiles int    = 64
	DefaultTileSize   uint32 = 256

	// ZoomMin and ZoomMax bound the zoom ladder relative to DefaultCellSize.
	ZoomMin float32 = 0.1
	ZoomMax float32 = 50.0

	// Safety caps on a single compute request. Requests beyond these are
	// logged and skipped, keeping the previous frame on screen.
	MaxCellsX     uint32 = 5000
	MaxCellsY     uint32 = 5000
	MinCellSize   uint32 = 2
	MaxTotalCells uint64 = 10_000_000

	// renderParamsThrottleMS caps how often the render uniform is rewritten.
	renderParamsThrottleMS = 16
)

// Config holds the startup parameters of the visualizer. It is a plain
// struct without CLI dependencies; cmd/cae binds it to flags.
type Config struct {
	// Rule is the Wolfram CA rule number.
	Rule uint8

	// InitialState is the seed row as a binary string ("01101...").
	// Empty means a single live cell at world origin.
	InitialState string

	// Width and Height are the initial window size in pixels.
	Width  uint32
	Height uint32

	// DebounceMS is the quiet interval after the last viewport change
	// before a recompute is issued.
	DebounceMS uint64

	// CacheTiles is the LRU tile cache capacity. 0 disables caching.
	CacheTiles int

	// TileSize is the tile side length in cells.
	TileSize uint32

	// Fullscreen starts the window in fullscreen mode.
	Fullscreen bool
}

// DefaultConfig returns a Config populated with the defaults.
func DefaultConfig() Config {
	return Config{
		Rule:       DefaultRule,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		DebounceMS: DefaultDebounceMS,
		CacheTiles: DefaultCacheTiles,
		TileSize:   DefaultTileSize,
	}
}

// Validate checks every constraint and returns one message per violation.
// An empty slice means the configuration is usable.
func (c Config) Validate() []string {
	var errs []string

	// Rule is uint8, always in [0, 255].

	if _, err := core.ParseInitialState(c.InitialState); err != nil {
		errs = append(errs, err.Error())
	}

	if c.Width < 500 || c.Width > 8192 {
		errs = append(errs, fmt.Sprintf("width must be in [500, 8192] (got %d)", c.Width))
	}
	if c.Height < 500 || c.Height > 8192 {
		errs = append(errs, fmt.Sprintf("height must be in [500, 8192] (got %d)", c.Height))
	}
	if c.CacheTiles < 0 || c.CacheTiles > 256 {
		errs = append(errs, fmt.Sprintf("cache_tiles must be in [0, 256] (got %d)", c.CacheTiles))
	}
	if c.TileSize < 64 || c.TileSize > 1024 {
		errs = append(errs, fmt.Sprintf("tile_size must be in [64, 1024] (got %d)", c.TileSize))
	}
	if c.DebounceMS > 5000 {
		errs = append(errs, fmt.Sprintf("debounce_ms must be at most 5000 (got %d)", c.DebounceMS))
	}

	return errs
}
