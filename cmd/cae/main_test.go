package main

import (
	"flag"
	"strings"
	"testing"
)

func parseOptions(t *testing.T, args ...string) cliOptions {
	t.Helper()
	opts := defaultOptions()
	fs := flag.NewFlagSet("cae", flag.ContinueOnError)
	opts.bind(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return opts
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, errs := parseOptions(t).toConfig()
	if len(errs) != 0 {
		t.Fatalf("default options invalid: %v", errs)
	}
	if cfg.Rule != 30 || cfg.Width != 1280 || cfg.Height != 960 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestFlagParsing(t *testing.T) {
	opts := parseOptions(t,
		"-rule", "110",
		"-initial-state", "0110",
		"-width", "800", "-height", "600",
		"-debounce-ms", "250",
		"-cache-tiles", "16",
		"-tile-size", "128",
		"-fullscreen",
	)
	cfg, errs := opts.toConfig()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Rule != 110 || cfg.InitialState != "0110" {
		t.Errorf("rule/state = %d/%q", cfg.Rule, cfg.InitialState)
	}
	if cfg.Width != 800 || cfg.Height != 600 || cfg.DebounceMS != 250 {
		t.Errorf("geometry = %+v", cfg)
	}
	if cfg.CacheTiles != 16 || cfg.TileSize != 128 || !cfg.Fullscreen {
		t.Errorf("cache/tile/fullscreen = %+v", cfg)
	}
}

func TestRuleOutOfRange(t *testing.T) {
	opts := parseOptions(t, "-rule", "300")
	_, errs := opts.toConfig()
	found := false
	for _, e := range errs {
		if strings.Contains(e, "rule") {
			found = true
		}
	}
	if !found {
		t.Fatalf("rule 300 accepted: %v", errs)
	}
}

func TestInvalidStateRejected(t *testing.T) {
	opts := parseOptions(t, "-initial-state", "01x")
	if _, errs := opts.toConfig(); len(errs) == 0 {
		t.Fatal("invalid initial state accepted")
	}
}
