// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// kernel.go drives the generation-stepping compute shader. One Kernel is
// created per device and reused for every tile and direct computation.

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/ca_step.wgsl
var caStepShaderWGSL string

const (
	// workgroupSize is the compute workgroup width. Matches @workgroup_size
	// in ca_step.wgsl.
	workgroupSize = 256

	// computeBatchSize is the number of generation dispatches recorded
	// between device synchronization points. Batching hides dispatch
	// latency while bounding command-queue depth.
	computeBatchSize = 32

	// fenceTimeout is the maximum time to wait for a submitted batch.
	fenceTimeout = 5 * time.Second

	// minBufferSize keeps every allocation at least one element long so
	// zero-sized requests still bind.
	minBufferSize = 4
)

// stepParams mirrors the Params uniform in ca_step.wgsl: 4 consecutive u32
// fields, little-endian.
type stepParams struct {
	Width      uint32
	Height     uint32
	Rule       uint32
	CurrentRow uint32
}

func (p stepParams) bytes() []byte {
	buf := make([]byte, 16)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.Width)
	le.PutUint32(buf[4:8], p.Height)
	le.PutUint32(buf[8:12], p.Rule)
	le.PutUint32(buf[12:16], p.CurrentRow)
	return buf
}

// Kernel owns the generation-step compute pipeline.
type Kernel struct {
	device hal.Device
	queue  hal.Queue

	module     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// NewKernel compiles the step shader and builds the compute pipeline.
func NewKernel(dev *Device) (*Kernel, error) {
	device, queue := dev.HAL()
	k := &Kernel{device: device, queue: queue}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "ca_step",
		Source: hal.ShaderSource{WGSL: caStepShaderWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("ca kernel: create shader module: %w", err)
	}
	k.module = module

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "ca_step_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("ca kernel: create bind group layout: %w", err)
	}
	k.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "ca_step_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("ca kernel: create pipeline layout: %w", err)
	}
	k.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "ca_step",
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("ca kernel: create compute pipeline: %w", err)
	}
	k.pipeline = pipeline

	slogger().Debug("ca kernel: pipeline created", "shader_bytes", len(caStepShaderWGSL))
	return k, nil
}

// Close releases the pipeline resources. The Kernel is unusable afterwards.
func (k *Kernel) Close() {
	if k.pipeline != nil {
		k.device.DestroyComputePipeline(k.pipeline)
		k.pipeline = nil
	}
	if k.pipeLayout != nil {
		k.device.DestroyPipelineLayout(k.pipeLayout)
		k.pipeLayout = nil
	}
	if k.bgLayout != nil {
		k.device.DestroyBindGroupLayout(k.bgLayout)
		k.bgLayout = nil
	}
	if k.module != nil {
		k.device.DestroyShaderModule(k.module)
		k.module = nil
	}
}

// workgroups returns the dispatch width for a row of the given cell count.
func workgroups(cells uint32) uint32 {
	return (cells + workgroupSize - 1) / workgroupSize
}

// createBuffer creates a device buffer with a minimum size guarantee.
func createBuffer(device hal.Device, label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	if size < minBufferSize {
		size = minBufferSize
	}
	return device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
}

// Compute seeds row 0 of a width x height history buffer with seed and
// advances the automaton one generation at a time until every row is
// filled. The returned buffer is device-resident and owned by the caller;
// destroy it when done. For height 0 a minimal empty buffer is returned.
//
// Generations are recorded in batches of computeBatchSize dispatches per
// command buffer with a fence wait in between, so the buffer is fully
// valid when Compute returns.
func (k *Kernel) Compute(seed []uint32, width, height uint32, rule uint8) (hal.Buffer, error) {
	if uint32(len(seed)) != width {
		return nil, fmt.Errorf("ca kernel: seed length %d does not match width %d", len(seed), width)
	}

	bufSize := uint64(width) * uint64(height) * 4
	cells, err := createBuffer(k.device, "ca_cells",
		bufSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, fmt.Errorf("ca kernel: create cells buffer: %w", err)
	}
	if height == 0 {
		return cells, nil
	}

	// Zero the history, then upload the seed row. Only row 0 crosses the
	// host-device boundary; every later row is written device-side.
	zeros := make([]byte, bufSize)
	k.queue.WriteBuffer(cells, 0, zeros)
	if width > 0 {
		k.queue.WriteBuffer(cells, 0, cellsToBytes(seed))
	}

	totalGens := height - 1
	wg := workgroups(width)
	for batchStart := uint32(0); batchStart < totalGens; batchStart += computeBatchSize {
		batchEnd := batchStart + computeBatchSize
		if batchEnd > totalGens {
			batchEnd = totalGens
		}
		if err := k.dispatchBatch(cells, width, height, rule, batchStart, batchEnd, wg); err != nil {
			k.device.DestroyBuffer(cells)
			return nil, err
		}
	}

	slogger().Debug("ca kernel: compute complete",
		"width", width, "height", height, "rule", rule)
	return cells, nil
}

// dispatchBatch records and submits generation steps [batchStart, batchEnd)
// and blocks until the device has executed them.
func (k *Kernel) dispatchBatch(cells hal.Buffer, width, height uint32, rule uint8, batchStart, batchEnd, wg uint32) error {
	encoder, err := k.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_step_batch"})
	if err != nil {
		return fmt.Errorf("ca kernel: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_step_batch"); err != nil {
		return fmt.Errorf("ca kernel: begin encoding: %w", err)
	}

	var bindGroups []hal.BindGroup
	var paramBufs []hal.Buffer
	cleanup := func() {
		for _, bg := range bindGroups {
			k.device.DestroyBindGroup(bg)
		}
		for _, pb := range paramBufs {
			k.device.DestroyBuffer(pb)
		}
	}

	for gen := batchStart; gen < batchEnd; gen++ {
		params := stepParams{Width: width, Height: height, Rule: uint32(rule), CurrentRow: gen}

		paramBuf, err := createBuffer(k.device, "ca_step_params",
			16, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			encoder.DiscardEncoding()
			cleanup()
			return fmt.Errorf("ca kernel: create params buffer: %w", err)
		}
		paramBufs = append(paramBufs, paramBuf)
		k.queue.WriteBuffer(paramBuf, 0, params.bytes())

		bg, err := k.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "ca_step_bg",
			Layout: k.bgLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: cells.NativeHandle()}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle()}},
			},
		})
		if err != nil {
			encoder.DiscardEncoding()
			cleanup()
			return fmt.Errorf("ca kernel: create bind group: %w", err)
		}
		bindGroups = append(bindGroups, bg)

		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "ca_step"})
		pass.SetPipeline(k.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(wg, 1, 1)
		pass.End()
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		cleanup()
		return fmt.Errorf("ca kernel: end encoding: %w", err)
	}
	defer k.device.FreeCommandBuffer(cmdBuf)
	defer cleanup()

	fence, err := k.device.CreateFence()
	if err != nil {
		return fmt.Errorf("ca kernel: create fence: %w", err)
	}
	defer k.device.DestroyFence(fence)

	if err := k.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("ca kernel: submit: %w", err)
	}
	ok, err := k.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("ca kernel: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("ca kernel: GPU timeout after %v", fenceTimeout)
	}
	return nil
}

// cellsToBytes serializes a cell row little-endian for upload.
func cellsToBytes(cells []uint32) []byte {
	buf := make([]byte, len(cells)*4)
	for i, v := range cells {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
