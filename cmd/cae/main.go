// Command cae is the desktop front end of the cellular automaton
// visualizer: it parses startup parameters, opens an SDL2 window, and
// pumps input events into the engine's viewport core.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/cae"
)

// cliOptions are the raw command-line values before range validation.
type cliOptions struct {
	rule         uint
	initialState string
	width        uint
	height       uint
	debounceMS   uint64
	cacheTiles   int
	tileSize     uint
	fullscreen   bool
	verbose      bool
	hud          bool
}

func defaultOptions() cliOptions {
	def := cae.DefaultConfig()
	return cliOptions{
		rule:       uint(def.Rule),
		width:      uint(def.Width),
		height:     uint(def.Height),
		debounceMS: def.DebounceMS,
		cacheTiles: def.CacheTiles,
		tileSize:   uint(def.TileSize),
	}
}

// bind attaches the options to the provided FlagSet.
func (o *cliOptions) bind(fs *flag.FlagSet) {
	fs.UintVar(&o.rule, "rule", o.rule, "Wolfram CA rule number (0-255)")
	fs.StringVar(&o.initialState, "initial-state", o.initialState,
		"seed row as a binary string; empty for a single center cell")
	fs.UintVar(&o.width, "width", o.width, "window width in pixels (500-8192)")
	fs.UintVar(&o.height, "height", o.height, "window height in pixels (500-8192)")
	fs.Uint64Var(&o.debounceMS, "debounce-ms", o.debounceMS, "recompute debounce in milliseconds (0-5000)")
	fs.IntVar(&o.cacheTiles, "cache-tiles", o.cacheTiles, "LRU tile cache capacity (0 disables)")
	fs.UintVar(&o.tileSize, "tile-size", o.tileSize, "tile side length in cells (64-1024)")
	fs.BoolVar(&o.fullscreen, "fullscreen", o.fullscreen, "start in fullscreen")
	fs.BoolVar(&o.verbose, "verbose", o.verbose, "enable debug logging")
	fs.BoolVar(&o.hud, "hud", o.hud, "show the stats overlay")
}

// toConfig converts the options into an engine configuration, collecting
// every violated constraint.
func (o cliOptions) toConfig() (cae.Config, []string) {
	var errs []string
	if o.rule > 255 {
		// uint8 wrapping would silently pick a different rule.
		errs = append(errs, fmt.Sprintf("rule must be in [0, 255] (got %d)", o.rule))
		o.rule = 0
	}
	cfg := cae.Config{
		Rule:         uint8(o.rule),
		InitialState: o.initialState,
		Width:        uint32(o.width),
		Height:       uint32(o.height),
		DebounceMS:   o.debounceMS,
		CacheTiles:   o.cacheTiles,
		TileSize:     uint32(o.tileSize),
		Fullscreen:   o.fullscreen,
	}
	errs = append(errs, cfg.Validate()...)
	return cfg, errs
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := defaultOptions()
	fs := flag.NewFlagSet("cae", flag.ContinueOnError)
	opts.bind(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, errs := opts.toConfig()
	if len(errs) != 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, "cae:", e)
		}
		return 1
	}

	if opts.verbose {
		cae.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	printBanner(cfg)

	eng, err := cae.NewEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cae:", err)
		return 1
	}
	defer eng.Close()

	win, err := newWindow(cfg, eng, opts.hud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cae:", err)
		return 1
	}
	defer win.close()

	if err := win.loop(); err != nil {
		fmt.Fprintln(os.Stderr, "cae:", err)
		return 1
	}
	return 0
}

// printBanner writes the startup summary to stdout.
func printBanner(cfg cae.Config) {
	initial := cfg.InitialState
	if initial == "" {
		initial = "1 (single cell)"
	} else if len(initial) > 30 {
		initial = initial[:27] + "..."
	}

	fmt.Println("cae - 1D Cellular Automaton Engine")
	fmt.Printf("  rule:     %d\n", cfg.Rule)
	fmt.Printf("  initial:  %s\n", initial)
	fmt.Printf("  window:   %dx%d\n", cfg.Width, cfg.Height)
	fmt.Printf("  cache:    %d tiles of %dx%d\n", cfg.CacheTiles, cfg.TileSize, cfg.TileSize)
	fmt.Printf("  debounce: %d ms\n", cfg.DebounceMS)
	fmt.Println("controls: drag to pan, wheel to zoom, 0 resets, F11 fullscreen, Esc quits")
}
