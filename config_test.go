package cae

import (
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string // substring of the expected message, "" for valid
	}{
		{"explicit state", func(c *Config) { c.InitialState = "010110" }, ""},
		{"bad state chars", func(c *Config) { c.InitialState = "01x" }, "initial_state"},
		{"width too small", func(c *Config) { c.Width = 499 }, "width"},
		{"width too large", func(c *Config) { c.Width = 8193 }, "width"},
		{"height too small", func(c *Config) { c.Height = 100 }, "height"},
		{"cache over limit", func(c *Config) { c.CacheTiles = 257 }, "cache_tiles"},
		{"cache disabled ok", func(c *Config) { c.CacheTiles = 0 }, ""},
		{"tile too small", func(c *Config) { c.TileSize = 63 }, "tile_size"},
		{"tile too large", func(c *Config) { c.TileSize = 1025 }, "tile_size"},
		{"debounce over limit", func(c *Config) { c.DebounceMS = 5001 }, "debounce_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := cfg.Validate()
			if tt.want == "" {
				if len(errs) != 0 {
					t.Fatalf("expected valid, got %v", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("expected a validation error")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("no message mentioning %q in %v", tt.want, errs)
			}
		})
	}
}

func TestConfigValidateCollectsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = 1
	cfg.Height = 1
	cfg.TileSize = 1
	if errs := cfg.Validate(); len(errs) < 3 {
		t.Errorf("expected every violation reported, got %v", errs)
	}
}
