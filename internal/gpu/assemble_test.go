package gpu

import (
	"math"
	"testing"

	"github.com/gogpu/cae/internal/core"
)

func TestAssemblerTiledMetadata(t *testing.T) {
	dev, k, tc, cache, cleanup := newTestPipeline(t, 64, 8)
	defer cleanup()

	a := NewAssembler(dev, k, tc, cache)
	defer a.Close()

	res, err := a.Run(30, core.InitialState{}, 3, 20, 33, -10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantPadding := uint32(3 + 20)
	if res.PaddingLeft != wantPadding {
		t.Errorf("PaddingLeft = %d, want %d", res.PaddingLeft, wantPadding)
	}
	if res.SimulatedWidth != 33+2*wantPadding {
		t.Errorf("SimulatedWidth = %d, want %d", res.SimulatedWidth, 33+2*wantPadding)
	}
	if res.VisibleWidth != 33 {
		t.Errorf("VisibleWidth = %d, want 33", res.VisibleWidth)
	}
	if res.Height != 21 {
		t.Errorf("Height = %d, want 21", res.Height)
	}
	if res.Buffer == nil {
		t.Error("no output buffer")
	}

	// The viewport spans two tile columns in one tile row; every covering
	// tile was a miss.
	if got := cache.Stats().Misses; got == 0 {
		t.Error("expected cache misses for a cold run")
	}

	// A second identical run hits every tile.
	missesBefore := cache.Stats().Misses
	if _, err := a.Run(30, core.InitialState{}, 3, 20, 33, -10); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := cache.Stats().Misses; got != missesBefore {
		t.Errorf("warm run missed: %d -> %d", missesBefore, got)
	}
}

func TestAssemblerReusesOutputBuffer(t *testing.T) {
	dev, k, tc, cache, cleanup := newTestPipeline(t, 64, 8)
	defer cleanup()

	a := NewAssembler(dev, k, tc, cache)
	defer a.Close()

	res1, err := a.Run(30, core.InitialState{}, 0, 10, 20, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res2, err := a.Run(30, core.InitialState{}, 0, 10, 20, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res1.Buffer != res2.Buffer {
		t.Error("same-sized output buffer was reallocated")
	}

	res3, err := a.Run(30, core.InitialState{}, 0, 12, 20, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res3.Buffer == res1.Buffer && res3.SimulatedWidth == res1.SimulatedWidth {
		t.Error("output buffer not reallocated after size change")
	}
}

func TestAssemblerDirectMetadata(t *testing.T) {
	dev, k, tc, _, cleanup := newTestPipeline(t, 64, 0)
	defer cleanup()

	// nil cache selects the direct path.
	a := NewAssembler(dev, k, tc, nil)
	defer a.Close()

	res, err := a.Run(90, core.InitialState{}, 2, 8, 16, -4)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Direct and tiled paths share the padded output geometry.
	if res.PaddingLeft != 10 || res.SimulatedWidth != 16+2*10 || res.Height != 9 {
		t.Errorf("direct geometry = %+v", res)
	}
}

func TestAssemblerDisabledCacheDiscardsTiles(t *testing.T) {
	dev, k, tc, cache, cleanup := newTestPipeline(t, 64, 0)
	defer cleanup()

	a := NewAssembler(dev, k, tc, cache)
	defer a.Close()

	if _, err := a.Run(30, core.InitialState{}, 0, 8, 16, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := cache.Stats().Len; got != 0 {
		t.Errorf("disabled cache holds %d tiles", got)
	}
	// Every get still counts.
	if got := cache.Stats().Misses; got == 0 {
		t.Error("expected counted misses with caching disabled")
	}
}

func TestAssemblerOverflowRejected(t *testing.T) {
	dev, k, tc, cache, cleanup := newTestPipeline(t, 64, 4)
	defer cleanup()

	a := NewAssembler(dev, k, tc, cache)
	defer a.Close()

	if _, err := a.Run(30, core.InitialState{}, 0, 10, 100, math.MaxInt32-50); err == nil {
		t.Fatal("expected coordinate overflow error")
	}
}
