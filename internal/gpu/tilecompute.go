// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cae/internal/core"
)

// Tile is one cached region of the plane: tileSize rows of SimulatedWidth
// cells, PaddingLeft of which sit left of the tile's core columns. The
// buffer is device-resident for its whole lifetime.
type Tile struct {
	Buffer         hal.Buffer
	SimulatedWidth uint32
	PaddingLeft    uint32
}

// release destroys the tile's backing buffer.
func (t *Tile) release(device hal.Device) {
	if t.Buffer != nil {
		device.DestroyBuffer(t.Buffer)
		t.Buffer = nil
	}
}

// TileComputer produces self-contained tiles. Each tile is computed fresh
// from generation 0 with padding equal to its deepest generation, so its
// edge cells carry full neighbor history and never depend on other tiles.
// Building a tile from the one above is deliberately not supported: the
// deeper tile needs wider padding than the shallower one holds.
type TileComputer struct {
	device   hal.Device
	queue    hal.Queue
	kernel   *Kernel
	tileSize uint32
}

// NewTileComputer wires a tile computer over the shared kernel.
func NewTileComputer(dev *Device, kernel *Kernel, tileSize uint32) *TileComputer {
	device, queue := dev.HAL()
	return &TileComputer{device: device, queue: queue, kernel: kernel, tileSize: tileSize}
}

// TileSize returns the configured tile side length in cells.
func (tc *TileComputer) TileSize() uint32 { return tc.tileSize }

// ComputeTile computes tile (tx, ty) for the given rule and initial state.
// The full history from generation 0 is computed in a transient buffer;
// only the tile's own generation band survives in the returned tile.
func (tc *TileComputer) ComputeTile(rule uint8, state core.InitialState, tx, ty int32) (*Tile, error) {
	g, err := core.Geometry(tx, ty, tc.tileSize)
	if err != nil {
		return nil, err
	}

	slogger().Debug("tile: computing",
		"tx", tx, "ty", ty,
		"sim_width", g.SimWidth, "buf_height", g.BufHeight, "padding", g.Padding)

	seed := state.SeedRow(g.SimWidth, g.Padding, g.WorldXStart)
	history, err := tc.kernel.Compute(seed, g.SimWidth, g.BufHeight, rule)
	if err != nil {
		return nil, fmt.Errorf("tile (%d, %d): %w", tx, ty, err)
	}
	defer tc.device.DestroyBuffer(history)

	tileBytes := uint64(g.SimWidth) * uint64(tc.tileSize) * 4
	tileBuf, err := createBuffer(tc.device, "ca_tile",
		tileBytes, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, fmt.Errorf("tile (%d, %d): create buffer: %w", tx, ty, err)
	}

	err = copyRegions(tc.device, tc.queue, history, tileBuf, []hal.BufferCopy{{
		SrcOffset: uint64(g.RowOffset) * uint64(g.SimWidth) * 4,
		DstOffset: 0,
		Size:      tileBytes,
	}})
	if err != nil {
		tc.device.DestroyBuffer(tileBuf)
		return nil, fmt.Errorf("tile (%d, %d): extract: %w", tx, ty, err)
	}

	return &Tile{
		Buffer:         tileBuf,
		SimulatedWidth: g.SimWidth,
		PaddingLeft:    g.Padding,
	}, nil
}

// copyRegions records the given buffer-to-buffer copies, submits them, and
// blocks until the device has executed them.
func copyRegions(device hal.Device, queue hal.Queue, src, dst hal.Buffer, regions []hal.BufferCopy) error {
	if len(regions) == 0 {
		return nil
	}
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_copy"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_copy"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(src, dst, regions)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("GPU timeout after %v", fenceTimeout)
	}
	return nil
}
