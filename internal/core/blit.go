package core

// ViewRect is the half-open world rectangle of an assembly request:
// columns [XStart, XEnd), generations [YStart, YEnd). YStart >= 0.
type ViewRect struct {
	XStart, XEnd int32
	YStart, YEnd int32
}

// OutputGeometry describes the assembled output buffer for a viewport.
// The output keeps the same padded layout as tiles so the renderer uses a
// single shader for the cached and the direct path.
type OutputGeometry struct {
	// Padding is the left/right padding in cells, startGen + iterations.
	Padding uint32
	// SimWidth is VisibleWidth + 2*Padding.
	SimWidth uint32
	// VisibleWidth is the viewport width in cells.
	VisibleWidth uint32
	// Height is iterations + 1 rows.
	Height uint32
}

// Output derives the assembled buffer geometry for a compute request
// starting at generation startGen, iterations generations deep and
// visibleWidth cells wide.
func Output(startGen, iterations, visibleWidth uint32) OutputGeometry {
	padding := startGen + iterations
	return OutputGeometry{
		Padding:      padding,
		SimWidth:     visibleWidth + 2*padding,
		VisibleWidth: visibleWidth,
		Height:       iterations + 1,
	}
}

// BlitRect is one rectangular tile-to-output copy. Rows are copied one at a
// time: row i copies Width elements from source element offset
// (SrcRow+i)*srcStride + SrcCol to destination offset
// (DstRow+i)*dstStride + DstCol.
type BlitRect struct {
	SrcRow, DstRow uint32
	Rows           uint32
	SrcCol, DstCol uint32
	Width          uint32
}

// PlanBlit computes the copy of the intersection between view and the tile
// at (tx, ty), in the coordinate conventions of the two buffers: the tile
// buffer is tileSimWidth wide with tilePadding columns of left padding and
// tileSize core rows starting at generation ty*tileSize; the output buffer
// follows out. Returns false when the intersection is empty.
//
// Intersections of distinct covering tiles never overlap in the output:
// tile y-ranges partition the generations and x-ranges partition the
// columns, so the viewport is written exactly once.
func PlanBlit(view ViewRect, out OutputGeometry, tx, ty int32, tileSize, tileSimWidth, tilePadding uint32) (BlitRect, bool) {
	t := int32(tileSize)
	tileX0 := tx * t
	tileX1 := tileX0 + t
	tileY0 := ty * t
	tileY1 := tileY0 + t

	x0 := max32(view.XStart, tileX0)
	x1 := min32(view.XEnd, tileX1)
	y0 := max32(view.YStart, tileY0)
	y1 := min32(view.YEnd, tileY1)
	if x1 <= x0 || y1 <= y0 {
		return BlitRect{}, false
	}

	r := BlitRect{
		SrcRow: uint32(y0 - tileY0),
		DstRow: uint32(y0 - view.YStart),
		Rows:   uint32(y1 - y0),
		SrcCol: uint32(x0-tileX0) + tilePadding,
		DstCol: uint32(x0-view.XStart) + out.Padding,
		Width:  uint32(x1 - x0),
	}

	// Bounds guards: a fractional viewport edge can ask for one cell more
	// than either buffer holds.
	if r.SrcCol+r.Width > tileSimWidth || r.DstCol+r.Width > out.SimWidth {
		return BlitRect{}, false
	}
	if iters := out.Height - 1; r.DstRow+r.Rows > iters {
		if r.DstRow >= iters {
			return BlitRect{}, false
		}
		r.Rows = iters - r.DstRow
	}
	if r.SrcRow+r.Rows > tileSize {
		if r.SrcRow >= tileSize {
			return BlitRect{}, false
		}
		r.Rows = tileSize - r.SrcRow
	}

	return r, true
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
