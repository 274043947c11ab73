package core

import "encoding/binary"

// RenderParams mirrors the RenderParams uniform block read by the fragment
// shader. The field order and sizes are load-bearing: the shader reads the
// block by offset. Twelve 32-bit fields, 48 bytes, little-endian.
//
// ViewportOffset is the viewport at render time; BufferOffset is the
// viewport the assembled buffer was computed for. Keeping both lets the
// renderer show the held buffer correctly shifted during interactive pan
// before a recompute completes, degrading to black outside its coverage.
type RenderParams struct {
	VisibleWidth    uint32 // output buffer width, cells
	VisibleHeight   uint32 // output buffer height, cells
	SimulatedWidth  uint32 // output buffer width including padding
	PaddingLeft     uint32 // cells of padding left of the buffer
	CellSize        uint32 // pixels per cell
	WindowWidth     uint32
	WindowHeight    uint32
	ViewportOffsetX int32
	ViewportOffsetY int32
	BufferOffsetX   int32
	BufferOffsetY   int32
	Pad             uint32
}

// RenderParamsSize is the byte size of the uniform block.
const RenderParamsSize = 48

// Bytes serializes the params in the exact layout the shader expects.
func (p RenderParams) Bytes() []byte {
	buf := make([]byte, RenderParamsSize)
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.VisibleWidth)
	le.PutUint32(buf[4:8], p.VisibleHeight)
	le.PutUint32(buf[8:12], p.SimulatedWidth)
	le.PutUint32(buf[12:16], p.PaddingLeft)
	le.PutUint32(buf[16:20], p.CellSize)
	le.PutUint32(buf[20:24], p.WindowWidth)
	le.PutUint32(buf[24:28], p.WindowHeight)
	le.PutUint32(buf[28:32], uint32(p.ViewportOffsetX))
	le.PutUint32(buf[32:36], uint32(p.ViewportOffsetY))
	le.PutUint32(buf[36:40], uint32(p.BufferOffsetX))
	le.PutUint32(buf[40:44], uint32(p.BufferOffsetY))
	le.PutUint32(buf[44:48], p.Pad)
	return buf
}
