package core

import (
	"encoding/binary"
	"testing"
)

func TestRenderParamsBytes(t *testing.T) {
	p := RenderParams{
		VisibleWidth:    128,
		VisibleHeight:   96,
		SimulatedWidth:  576,
		PaddingLeft:     224,
		CellSize:        10,
		WindowWidth:     1280,
		WindowHeight:    960,
		ViewportOffsetX: -64,
		ViewportOffsetY: 12,
		BufferOffsetX:   -64,
		BufferOffsetY:   12,
	}
	b := p.Bytes()
	if len(b) != RenderParamsSize {
		t.Fatalf("len = %d, want %d", len(b), RenderParamsSize)
	}

	le := binary.LittleEndian
	neg64 := int32(-64)
	// The shader reads by offset: each field's position is load-bearing.
	offsets := []struct {
		off  int
		want uint32
	}{
		{0, 128}, {4, 96}, {8, 576}, {12, 224}, {16, 10},
		{20, 1280}, {24, 960},
		{28, uint32(neg64)}, {32, 12},
		{36, uint32(neg64)}, {40, 12},
		{44, 0},
	}
	for _, o := range offsets {
		if got := le.Uint32(b[o.off : o.off+4]); got != o.want {
			t.Errorf("offset %d = %d, want %d", o.off, got, o.want)
		}
	}
}
