// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// renderer.go draws the assembled cell buffer with a fullscreen-quad render
// pipeline. The storage binding aliases the assembler's buffer; cell data
// never crosses back to the host on the way to the screen.

package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/cae/internal/core"
)

//go:embed shaders/render.wgsl
var renderShaderWGSL string

// quadVertices is a fullscreen quad as two triangles. Each vertex is
// position (clip space) followed by tex coords, float32x2 each. Tex coords
// put (0,0) at the window's top-left, matching the viewport convention.
var quadVertices = []float32{
	// x, y, u, v
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	1, 1, 1, 0,
	-1, 1, 0, 0,
	-1, -1, 0, 1,
}

const renderVertexStride = 16

// Renderer owns the render pipeline, the fullscreen quad, the params
// uniform, and an offscreen BGRA8 target for the readback presentation
// path. The cell source buffer is borrowed from the assembler for the
// duration of a frame and never outlives it.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	module     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	vertexBuf hal.Buffer
	paramsBuf hal.Buffer

	source    hal.Buffer // aliased assembled buffer, not owned
	bindGroup hal.BindGroup

	// Offscreen target for RenderPixels.
	tex        hal.Texture
	texView    hal.TextureView
	texW, texH uint32
}

// NewRenderer compiles the render shader and builds the pipeline. The WGSL
// is compiled to SPIR-V with naga up front so shader errors surface at
// startup rather than at first draw.
func NewRenderer(dev *Device) (*Renderer, error) {
	device, queue := dev.HAL()
	r := &Renderer{device: device, queue: queue}

	spirvBytes, err := naga.Compile(renderShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("renderer: compile shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "ca_render",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create shader module: %w", err)
	}
	r.module = module

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "ca_render_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: create bind group layout: %w", err)
	}
	r.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "ca_render_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "ca_render",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: renderVertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
						{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: create render pipeline: %w", err)
	}
	r.pipeline = pipeline

	vertexBuf, err := createBuffer(device, "ca_render_quad",
		uint64(len(quadVertices)*4), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: create vertex buffer: %w", err)
	}
	r.vertexBuf = vertexBuf
	queue.WriteBuffer(vertexBuf, 0, vertexBytes(quadVertices))

	paramsBuf, err := createBuffer(device, "ca_render_params",
		core.RenderParamsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: create params buffer: %w", err)
	}
	r.paramsBuf = paramsBuf

	return r, nil
}

// Close releases every GPU resource held by the renderer.
func (r *Renderer) Close() {
	r.dropBindGroup()
	r.dropTarget()
	if r.paramsBuf != nil {
		r.device.DestroyBuffer(r.paramsBuf)
		r.paramsBuf = nil
	}
	if r.vertexBuf != nil {
		r.device.DestroyBuffer(r.vertexBuf)
		r.vertexBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bgLayout != nil {
		r.device.DestroyBindGroupLayout(r.bgLayout)
		r.bgLayout = nil
	}
	if r.module != nil {
		r.device.DestroyShaderModule(r.module)
		r.module = nil
	}
}

func (r *Renderer) dropBindGroup() {
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	r.source = nil
}

func (r *Renderer) dropTarget() {
	if r.texView != nil {
		r.device.DestroyTextureView(r.texView)
		r.texView = nil
	}
	if r.tex != nil {
		r.device.DestroyTexture(r.tex)
		r.tex = nil
	}
	r.texW, r.texH = 0, 0
}

// SetSource binds the assembled buffer as the cell source. The buffer stays
// owned by the assembler; the renderer only holds the binding.
func (r *Renderer) SetSource(res Result) error {
	if res.Buffer == nil {
		return fmt.Errorf("renderer: nil source buffer")
	}
	r.dropBindGroup()

	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "ca_render_bg",
		Layout: r.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: res.Buffer.NativeHandle()}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.paramsBuf.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: create bind group: %w", err)
	}
	r.bindGroup = bg
	r.source = res.Buffer
	return nil
}

// HasSource reports whether an assembled buffer is bound.
func (r *Renderer) HasSource() bool { return r.bindGroup != nil }

// WriteParams uploads the render uniform.
func (r *Renderer) WriteParams(p core.RenderParams) {
	r.queue.WriteBuffer(r.paramsBuf, 0, p.Bytes())
}

// RenderTo draws the current frame into a caller-provided surface texture
// view and waits for completion; the caller presents afterwards.
func (r *Renderer) RenderTo(view hal.TextureView) error {
	return r.encodeFrame(view, nil, 0, 0)
}

// RenderPixels draws the current frame into the internal offscreen target
// and reads it back as BGRA8 rows, for adapters that present with their own
// blitting (cmd/cae streams these into an SDL texture). A new slice is
// allocated on every call.
func (r *Renderer) RenderPixels(w, h uint32) ([]byte, error) {
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("renderer: zero-sized target %dx%d", w, h)
	}
	if err := r.ensureTarget(w, h); err != nil {
		return nil, err
	}

	pixels := make([]byte, uint64(w)*uint64(h)*4)
	if err := r.encodeFrame(r.texView, pixels, w, h); err != nil {
		return nil, err
	}
	return pixels, nil
}

// ensureTarget creates or recreates the offscreen texture when the
// requested dimensions differ from the current target.
func (r *Renderer) ensureTarget(w, h uint32) error {
	if r.tex != nil && r.texW == w && r.texH == h {
		return nil
	}
	r.dropTarget()

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "ca_render_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("renderer: create target texture: %w", err)
	}
	r.tex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "ca_render_target_view"})
	if err != nil {
		r.dropTarget()
		return fmt.Errorf("renderer: create target view: %w", err)
	}
	r.texView = view
	r.texW, r.texH = w, h
	return nil
}

// encodeFrame records the render pass into view. With a non-nil pixels
// slice the internal target is copied to a staging buffer and read back
// after the fence.
func (r *Renderer) encodeFrame(view hal.TextureView, pixels []byte, w, h uint32) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_render_encoder"})
	if err != nil {
		return fmt.Errorf("renderer: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_render_frame"); err != nil {
		return fmt.Errorf("renderer: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "ca_render_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	// Draw only with a bound source; a cleared black frame is still a
	// valid frame before the first compute lands.
	if r.bindGroup != nil {
		rp.SetPipeline(r.pipeline)
		rp.SetBindGroup(0, r.bindGroup, nil)
		rp.SetVertexBuffer(0, r.vertexBuf, 0)
		rp.Draw(6, 1, 0, 0)
	}
	rp.End()

	var staging hal.Buffer
	if pixels != nil {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: r.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})

		staging, err = createBuffer(r.device, "ca_render_staging",
			uint64(len(pixels)), gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
		if err != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("renderer: create staging buffer: %w", err)
		}
		defer r.device.DestroyBuffer(staging)

		encoder.CopyTextureToBuffer(r.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: r.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("renderer: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("renderer: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("renderer: submit: %w", err)
	}
	ok, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("renderer: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("renderer: GPU timeout after %v", fenceTimeout)
	}

	if pixels != nil {
		if err := r.queue.ReadBuffer(staging, 0, pixels); err != nil {
			return fmt.Errorf("renderer: readback: %w", err)
		}
	}
	return nil
}

// vertexBytes serializes the quad vertices little-endian.
func vertexBytes(verts []float32) []byte {
	buf := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
