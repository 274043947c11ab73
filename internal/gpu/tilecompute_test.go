package gpu

import (
	"strings"
	"testing"

	"github.com/gogpu/cae/internal/core"
)

func newTestPipeline(t *testing.T, tileSize uint32, capacity int) (*Device, *Kernel, *TileComputer, *TileCache, func()) {
	t.Helper()
	dev, devCleanup := newNoopDevice(t)
	k, err := NewKernel(dev)
	if err != nil {
		devCleanup()
		t.Fatalf("NewKernel: %v", err)
	}
	tc := NewTileComputer(dev, k, tileSize)
	cache := NewTileCache(dev, capacity)
	cleanup := func() {
		cache.Clear()
		k.Close()
		devCleanup()
	}
	return dev, k, tc, cache, cleanup
}

func TestComputeTileMetadata(t *testing.T) {
	dev, _, tc, _, cleanup := newTestPipeline(t, 64, 4)
	defer cleanup()

	tile, err := tc.ComputeTile(30, core.InitialState{}, -1, 1)
	if err != nil {
		t.Fatalf("ComputeTile: %v", err)
	}
	device, _ := dev.HAL()
	defer tile.release(device)

	// ty=1, T=64: generation end 128, padding 128, width 64 + 2*128.
	if tile.PaddingLeft != 128 {
		t.Errorf("PaddingLeft = %d, want 128", tile.PaddingLeft)
	}
	if tile.SimulatedWidth != 64+2*128 {
		t.Errorf("SimulatedWidth = %d, want %d", tile.SimulatedWidth, 64+2*128)
	}
	if tile.Buffer == nil {
		t.Error("tile buffer not allocated")
	}
}

func TestComputeTileNegativeRow(t *testing.T) {
	_, _, tc, _, cleanup := newTestPipeline(t, 64, 4)
	defer cleanup()

	if _, err := tc.ComputeTile(30, core.InitialState{}, 0, -1); err == nil {
		t.Fatal("expected error for negative tile row")
	}
}

func TestComputeTileOverflow(t *testing.T) {
	_, _, tc, _, cleanup := newTestPipeline(t, 1024, 4)
	defer cleanup()

	_, err := tc.ComputeTile(30, core.InitialState{}, 0, 1<<22)
	if err == nil || !strings.Contains(err.Error(), "overflow") {
		t.Fatalf("expected overflow error, got %v", err)
	}
}
