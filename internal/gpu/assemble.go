// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cae/internal/core"
)

// Result describes the assembled output buffer handed to the renderer: the
// viewport's visible cell rectangle in the same padded layout as tiles, so
// the renderer needs a single shader for the cached and the direct path.
type Result struct {
	Buffer         hal.Buffer
	SimulatedWidth uint32
	VisibleWidth   uint32
	Height         uint32
	PaddingLeft    uint32
}

// Assembler turns a viewport into an assembled output buffer. With a cache
// it covers the viewport with tiles, computing and inserting misses and
// blitting the visible slice of each tile. Without one it runs a single
// direct computation sized for the whole viewport; both paths agree
// cell-for-cell inside the visible rectangle.
//
// The output buffer is reused across runs and only reallocated when its
// byte size changes. Reallocation happens between fence-completed frames,
// so the previous buffer is never yanked from under an in-flight pass.
type Assembler struct {
	device hal.Device
	queue  hal.Queue
	kernel *Kernel
	tiles  *TileComputer
	cache  *TileCache // nil when caching is disabled

	out      hal.Buffer
	outBytes uint64
}

// NewAssembler creates an assembler. cache may be nil to disable tiling
// entirely; a cache with capacity 0 keeps the tiled path but discards every
// tile after its blit.
func NewAssembler(dev *Device, kernel *Kernel, tiles *TileComputer, cache *TileCache) *Assembler {
	device, queue := dev.HAL()
	return &Assembler{device: device, queue: queue, kernel: kernel, tiles: tiles, cache: cache}
}

// Close releases the output buffer. Cached tiles belong to the cache.
func (a *Assembler) Close() {
	if a.out != nil {
		a.device.DestroyBuffer(a.out)
		a.out = nil
		a.outBytes = 0
	}
}

// Run assembles the viewport rectangle starting at generation startGen,
// iterations generations deep and visibleWidth cells wide, with the leftmost
// visible column at world column horizOffset. The returned Result's buffer
// is owned by the assembler and valid until the next Run or Close.
func (a *Assembler) Run(rule uint8, state core.InitialState, startGen, iterations, visibleWidth uint32, horizOffset int32) (Result, error) {
	if int64(horizOffset)+int64(visibleWidth) > math.MaxInt32 {
		return Result{}, fmt.Errorf("assemble: viewport at %d width %d overflows cell coordinates", horizOffset, visibleWidth)
	}
	if int64(startGen)+int64(iterations) > math.MaxInt32 {
		return Result{}, fmt.Errorf("assemble: generations %d..%d overflow cell coordinates", startGen, startGen+iterations)
	}

	if a.cache == nil {
		return a.runDirect(rule, state, startGen, iterations, visibleWidth, horizOffset)
	}
	return a.runTiled(rule, state, startGen, iterations, visibleWidth, horizOffset)
}

// runTiled is the cached path: cover, fetch-or-compute, blit.
func (a *Assembler) runTiled(rule uint8, state core.InitialState, startGen, iterations, visibleWidth uint32, horizOffset int32) (Result, error) {
	view := core.ViewRect{
		XStart: horizOffset,
		XEnd:   horizOffset + int32(visibleWidth),
		YStart: int32(startGen),
		YEnd:   int32(startGen + iterations),
	}
	out := core.Output(startGen, iterations, visibleWidth)

	if err := a.ensureOutput(out); err != nil {
		return Result{}, err
	}

	cover := core.CoveringTiles(view.XStart, view.XEnd, view.YStart, view.YEnd, a.tiles.TileSize())
	stateHash := state.Hash()

	slogger().Debug("assemble: tiled",
		"tiles_x", fmt.Sprintf("%d..%d", cover.X0, cover.X1),
		"tiles_y", fmt.Sprintf("%d..%d", cover.Y0, cover.Y1),
		"out_sim_width", out.SimWidth, "out_height", out.Height)

	for ty := cover.Y0; ty <= cover.Y1; ty++ {
		for tx := cover.X0; tx <= cover.X1; tx++ {
			key := core.TileKey{Rule: rule, StateHash: stateHash, TX: tx, TY: ty}

			tile, ok := a.cache.Get(key)
			owned := false
			if !ok {
				var err error
				tile, err = a.tiles.ComputeTile(rule, state, tx, ty)
				if err != nil {
					return Result{}, fmt.Errorf("assemble: %w", err)
				}
				a.cache.Insert(key, tile)
				owned = !a.cache.Enabled()
			}

			if err := a.blitTile(view, out, tx, ty, tile); err != nil {
				if owned {
					tile.release(a.device)
				}
				return Result{}, err
			}
			if owned {
				tile.release(a.device)
			}
		}
	}

	return a.result(out), nil
}

// blitTile copies the intersection of the viewport and tile (tx, ty) into
// the output buffer, one region per row.
func (a *Assembler) blitTile(view core.ViewRect, out core.OutputGeometry, tx, ty int32, tile *Tile) error {
	r, ok := core.PlanBlit(view, out, tx, ty, a.tiles.TileSize(), tile.SimulatedWidth, tile.PaddingLeft)
	if !ok {
		return nil
	}

	regions := make([]hal.BufferCopy, 0, r.Rows)
	for i := uint32(0); i < r.Rows; i++ {
		regions = append(regions, hal.BufferCopy{
			SrcOffset: (uint64(r.SrcRow+i)*uint64(tile.SimulatedWidth) + uint64(r.SrcCol)) * 4,
			DstOffset: (uint64(r.DstRow+i)*uint64(out.SimWidth) + uint64(r.DstCol)) * 4,
			Size:      uint64(r.Width) * 4,
		})
	}
	if err := copyRegions(a.device, a.queue, tile.Buffer, a.out, regions); err != nil {
		return fmt.Errorf("assemble: blit tile (%d, %d): %w", tx, ty, err)
	}
	return nil
}

// runDirect computes the whole viewport in one kernel run, with the same
// padded geometry as the tiled path.
func (a *Assembler) runDirect(rule uint8, state core.InitialState, startGen, iterations, visibleWidth uint32, horizOffset int32) (Result, error) {
	out := core.Output(startGen, iterations, visibleWidth)
	bufHeight := startGen + iterations + 1

	slogger().Debug("assemble: direct",
		"sim_width", out.SimWidth, "buf_height", bufHeight, "padding", out.Padding)

	seed := state.SeedRow(out.SimWidth, out.Padding, horizOffset)
	history, err := a.kernel.Compute(seed, out.SimWidth, bufHeight, rule)
	if err != nil {
		return Result{}, fmt.Errorf("assemble: direct: %w", err)
	}
	defer a.device.DestroyBuffer(history)

	if err := a.ensureOutput(out); err != nil {
		return Result{}, err
	}

	err = copyRegions(a.device, a.queue, history, a.out, []hal.BufferCopy{{
		SrcOffset: uint64(startGen) * uint64(out.SimWidth) * 4,
		DstOffset: 0,
		Size:      uint64(out.SimWidth) * uint64(out.Height) * 4,
	}})
	if err != nil {
		return Result{}, fmt.Errorf("assemble: direct extract: %w", err)
	}

	return a.result(out), nil
}

// ensureOutput reuses the output buffer when the byte size is unchanged,
// otherwise reallocates. The buffer is zeroed either way: covering tiles
// write every visible cell, but padding columns must read dead.
func (a *Assembler) ensureOutput(out core.OutputGeometry) error {
	size := uint64(out.SimWidth) * uint64(out.Height) * 4
	if size < minBufferSize {
		size = minBufferSize
	}
	if a.out == nil || a.outBytes != size {
		if a.out != nil {
			a.device.DestroyBuffer(a.out)
			a.out = nil
		}
		buf, err := createBuffer(a.device, "ca_output",
			size, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("assemble: create output buffer: %w", err)
		}
		a.out = buf
		a.outBytes = size
	}

	zeros := make([]byte, a.outBytes)
	a.queue.WriteBuffer(a.out, 0, zeros)
	return nil
}

func (a *Assembler) result(out core.OutputGeometry) Result {
	return Result{
		Buffer:         a.out,
		SimulatedWidth: out.SimWidth,
		VisibleWidth:   out.VisibleWidth,
		Height:         out.Height,
		PaddingLeft:    out.Padding,
	}
}
