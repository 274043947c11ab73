package core

import "testing"

// cpuTile computes tile (tx, ty) on the CPU with the exact geometry the GPU
// tile computer uses, returning tileSize rows of SimWidth cells.
func cpuTile(t *testing.T, rule uint8, state InitialState, tx, ty int32, tileSize uint32) ([][]uint32, TileGeometry) {
	t.Helper()
	g, err := Geometry(tx, ty, tileSize)
	if err != nil {
		t.Fatalf("Geometry(%d, %d): %v", tx, ty, err)
	}
	seed := state.SeedRow(g.SimWidth, g.Padding, g.WorldXStart)
	history := computeReference(rule, seed, g.BufHeight)
	return history[g.RowOffset : g.RowOffset+tileSize], g
}

// cpuAssemble mirrors the assembler's tiled path on the CPU: covering tiles,
// per-tile blit plans, plan execution into a zeroed padded output buffer.
func cpuAssemble(t *testing.T, rule uint8, state InitialState, view ViewRect, tileSize uint32) ([][]uint32, OutputGeometry) {
	t.Helper()
	startGen := uint32(view.YStart)
	iterations := uint32(view.YEnd - view.YStart)
	visibleW := uint32(view.XEnd - view.XStart)
	out := Output(startGen, iterations, visibleW)

	buf := make([][]uint32, out.Height)
	for i := range buf {
		buf[i] = make([]uint32, out.SimWidth)
	}

	cover := CoveringTiles(view.XStart, view.XEnd, view.YStart, view.YEnd, tileSize)
	for ty := cover.Y0; ty <= cover.Y1; ty++ {
		for tx := cover.X0; tx <= cover.X1; tx++ {
			rows, g := cpuTile(t, rule, state, tx, ty, tileSize)
			r, ok := PlanBlit(view, out, tx, ty, tileSize, g.SimWidth, g.Padding)
			if !ok {
				t.Fatalf("empty blit for covering tile (%d, %d)", tx, ty)
			}
			for i := uint32(0); i < r.Rows; i++ {
				copy(buf[r.DstRow+i][r.DstCol:r.DstCol+r.Width], rows[r.SrcRow+i][r.SrcCol:r.SrcCol+r.Width])
			}
		}
	}
	return buf, out
}

// checkAssembled compares every visible cell of the assembled buffer against
// an independent per-cell reference computation.
func checkAssembled(t *testing.T, rule uint8, state InitialState, view ViewRect, tileSize uint32) {
	t.Helper()
	buf, out := cpuAssemble(t, rule, state, view, tileSize)
	for y := view.YStart; y < view.YEnd; y++ {
		for x := view.XStart; x < view.XEnd; x++ {
			got := buf[y-view.YStart][out.Padding+uint32(x-view.XStart)]
			want := referenceCell(t, rule, state, x, uint32(y))
			if got != want {
				t.Fatalf("rule %d tile %d: assembled cell (%d, %d) = %d, want %d", rule, tileSize, x, y, got, want)
			}
		}
	}
}

func TestAssembleRule30Window(t *testing.T) {
	state, _ := ParseInitialState("")
	view := ViewRect{XStart: -10, XEnd: 11, YStart: 0, YEnd: 11}
	checkAssembled(t, 30, state, view, 256)

	// Sanity check on the last visible row: a single live cell spreads into
	// a mixed pattern, neither all dead nor all alive.
	buf, out := cpuAssemble(t, 30, state, view, 256)
	rowCells := make([]uint32, 0, 21)
	rowCells = append(rowCells, buf[10][out.Padding:out.Padding+21]...)
	live := 0
	for _, v := range rowCells {
		live += int(v)
	}
	if live == 0 || live == 21 {
		t.Errorf("rule 30 row 10 is degenerate: %v", rowCells)
	}
	if buf[0][out.Padding+10] != 1 {
		t.Errorf("row 0 must hold the single seed cell at column 0")
	}
}

func TestAssembleRule90Sierpinski(t *testing.T) {
	state, _ := ParseInitialState("")
	view := ViewRect{XStart: -16, XEnd: 17, YStart: 0, YEnd: 17}
	checkAssembled(t, 90, state, view, 256)

	// Row 16 is live exactly at the triangle's outer edges.
	buf, out := cpuAssemble(t, 90, state, view, 256)
	for x := int32(-16); x <= 16; x++ {
		want := uint32(0)
		if x == -16 || x == 16 {
			want = 1
		}
		if got := buf[16][out.Padding+uint32(x+16)]; got != want {
			t.Errorf("rule 90 row 16 cell %d = %d, want %d", x, got, want)
		}
	}
}

func TestAssembleRule0Dies(t *testing.T) {
	state, _ := ParseInitialState("1011")
	view := ViewRect{XStart: -3, XEnd: 9, YStart: 0, YEnd: 6}
	buf, out := cpuAssemble(t, 0, state, view, 64)
	for y := uint32(1); y < 6; y++ {
		for x := uint32(0); x < out.VisibleWidth; x++ {
			if buf[y][out.Padding+x] != 0 {
				t.Fatalf("rule 0 cell (%d, %d) alive", x, y)
			}
		}
	}
}

func TestAssembleRule255Saturates(t *testing.T) {
	state, _ := ParseInitialState("10")
	view := ViewRect{XStart: 0, XEnd: 8, YStart: 0, YEnd: 4}
	buf, out := cpuAssemble(t, 255, state, view, 64)

	// Row 0 is the seed: zeros outside the string.
	wantRow0 := []uint32{1, 0, 0, 0, 0, 0, 0, 0}
	for x, want := range wantRow0 {
		if got := buf[0][out.Padding+uint32(x)]; got != want {
			t.Errorf("row 0 cell %d = %d, want %d", x, got, want)
		}
	}
	// Every later cell is alive.
	for y := uint32(1); y < 4; y++ {
		for x := uint32(0); x < 8; x++ {
			if buf[y][out.Padding+x] != 1 {
				t.Fatalf("rule 255 cell (%d, %d) dead", x, y)
			}
		}
	}
}

// TestAssembleCrossTileAgreement forces the viewport across many small tiles
// and deep generations so column and generation seams are exercised.
func TestAssembleCrossTileAgreement(t *testing.T) {
	state, _ := ParseInitialState("")
	view := ViewRect{XStart: -13, XEnd: 14, YStart: 5, YEnd: 23}
	checkAssembled(t, 30, state, view, 8)
	checkAssembled(t, 110, state, view, 8)
}

// TestAssembleMatchesDirect verifies the tiled path is bit-identical to the
// direct single-buffer computation for the same viewport.
func TestAssembleMatchesDirect(t *testing.T) {
	state, _ := ParseInitialState("011")
	view := ViewRect{XStart: -9, XEnd: 12, YStart: 3, YEnd: 19}
	buf, out := cpuAssemble(t, 110, state, view, 8)

	// Direct path: one run sized for the whole viewport.
	seed := state.SeedRow(out.SimWidth, out.Padding, view.XStart)
	history := computeReference(110, seed, uint32(view.YEnd)+1)
	for y := view.YStart; y < view.YEnd; y++ {
		for x := uint32(0); x < out.VisibleWidth; x++ {
			got := buf[y-view.YStart][out.Padding+x]
			want := history[y][out.Padding+x]
			if got != want {
				t.Fatalf("tiled/direct mismatch at (%d, %d): %d vs %d", x, y, got, want)
			}
		}
	}
}

func TestPlanBlitDisjointTile(t *testing.T) {
	view := ViewRect{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10}
	out := Output(0, 10, 10)
	if _, ok := PlanBlit(view, out, 5, 5, 64, 64+2*384, 384); ok {
		t.Error("expected empty plan for a tile outside the viewport")
	}
}

func TestOutputGeometry(t *testing.T) {
	out := Output(7, 20, 33)
	if out.Padding != 27 {
		t.Errorf("Padding = %d, want 27", out.Padding)
	}
	if out.SimWidth != 33+2*27 {
		t.Errorf("SimWidth = %d, want %d", out.SimWidth, 33+2*27)
	}
	if out.Height != 21 {
		t.Errorf("Height = %d, want 21", out.Height)
	}
}
