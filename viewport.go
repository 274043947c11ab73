package cae

import (
	"math"
	"time"
)

// Viewport maps screen pixels to world cells: the window's top-left pixel
// shows world cell (OffsetX, OffsetY) at CellSize pixels per cell. OffsetY
// never goes below 0; the automaton has no history before generation 0.
type Viewport struct {
	OffsetX  float32
	OffsetY  float32
	CellSize uint32
}

// dragState tracks an active pointer (or single-touch) pan. The viewport at
// drag start is kept so panning is a pure function of the total pointer
// delta, immune to accumulated rounding.
type dragState struct {
	active          bool
	startX, startY  float64
	viewportAtStart Viewport
}

// touchPoint is one tracked finger.
type touchPoint struct {
	id   uint64
	x, y float64
}

// touchState tracks up to two fingers. One finger pans through dragState;
// two fingers pinch-zoom against the distance and cell size captured when
// the second finger landed.
type touchState struct {
	single          *touchPoint
	touch1          *touchPoint
	touch2          *touchPoint
	initialDistance float32
	initialCellSize uint32
	pinching        bool
}

// Controller is the viewport and input core: it owns the viewport state,
// converts pan/zoom/resize/reset input into viewport updates, and tracks the
// debounced recompute deadline. It is not safe for concurrent use; all
// events must arrive on the control goroutine.
type Controller struct {
	vp Viewport

	defaultCellSize uint32
	winW, winH      uint32

	drag  dragState
	touch touchState

	levels []uint32

	debounce       time.Duration
	pendingSince   time.Time
	pendingValid   bool
	needsRecompute bool
	dpiChanging    bool

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewController creates the input core for a window of the given pixel size.
// The viewport starts with the world origin centered horizontally and
// generation 0 at the top.
func NewController(winW, winH, cellSize uint32, debounce time.Duration) *Controller {
	c := &Controller{
		defaultCellSize: cellSize,
		winW:            winW,
		winH:            winH,
		levels:          zoomLevels(cellSize),
		debounce:        debounce,
		now:             time.Now,
	}
	c.vp = Viewport{
		OffsetX:  -float32(winW) / float32(cellSize) / 2,
		OffsetY:  0,
		CellSize: cellSize,
	}
	c.markViewportChanged()
	return c
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() Viewport { return c.vp }

// SetViewport overrides the viewport, e.g. when restoring a shared link.
// OffsetY is clamped and the cell size snapped to the ladder.
func (c *Controller) SetViewport(vp Viewport) {
	vp.OffsetY = clampOffsetY(vp.OffsetY)
	vp.CellSize = nearestZoomLevel(c.levels, vp.CellSize)
	c.vp = vp
	c.markViewportChanged()
}

// WindowSize returns the current window size in pixels.
func (c *Controller) WindowSize() (uint32, uint32) { return c.winW, c.winH }

// VisibleCells returns the viewport extent in cells, rounded up so partial
// cells at the edges are included.
func (c *Controller) VisibleCells() (uint32, uint32) {
	cs := c.vp.CellSize
	return (c.winW + cs - 1) / cs, (c.winH + cs - 1) / cs
}

// screenToWorld maps a window pixel to world cell coordinates under the
// given cell size.
func (c *Controller) screenToWorld(sx, sy float64, cellSize uint32) (float32, float32) {
	visX := float32(c.winW) / float32(cellSize)
	visY := float32(c.winH) / float32(cellSize)
	fx := float32(sx) / float32(c.winW)
	fy := float32(sy) / float32(c.winH)
	return c.vp.OffsetX + fx*visX, c.vp.OffsetY + fy*visY
}

// PointerDown begins a drag at the given window position.
func (c *Controller) PointerDown(x, y float64) {
	if c.touch.touch1 != nil {
		// Synthetic mouse event generated from touch input.
		return
	}
	c.drag = dragState{active: true, startX: x, startY: y, viewportAtStart: c.vp}
}

// PointerMove pans the viewport while a drag is active.
func (c *Controller) PointerMove(x, y float64) {
	if c.touch.touch1 != nil {
		return
	}
	if c.drag.active {
		c.applyPan(x, y)
	}
}

// PointerUp ends the drag.
func (c *Controller) PointerUp() {
	if c.touch.touch1 != nil {
		return
	}
	c.drag.active = false
}

// Scroll zooms one ladder step anchored at the given window position:
// positive delta zooms in.
func (c *Controller) Scroll(delta float32, x, y float64) {
	newCS := stepZoomLevel(c.levels, c.vp.CellSize, delta)
	if newCS != c.vp.CellSize {
		c.applyZoomAtPoint(newCS, x, y)
	}
}

// applyPan recomputes the offsets from the drag anchor and the current
// pointer position.
func (c *Controller) applyPan(x, y float64) {
	dx := x - c.drag.startX
	dy := y - c.drag.startY

	cs := c.vp.CellSize
	visX := float32(c.winW) / float32(cs)
	visY := float32(c.winH) / float32(cs)

	c.vp.OffsetX = c.drag.viewportAtStart.OffsetX - float32(dx)/float32(c.winW)*visX
	c.vp.OffsetY = clampOffsetY(c.drag.viewportAtStart.OffsetY - float32(dy)/float32(c.winH)*visY)

	c.markViewportChanged()
}

// applyZoomAtPoint changes the cell size so that the world coordinate under
// the anchor stays put across the zoom step.
func (c *Controller) applyZoomAtPoint(newCellSize uint32, anchorX, anchorY float64) {
	worldX, worldY := c.screenToWorld(anchorX, anchorY, c.vp.CellSize)
	fx := float32(anchorX) / float32(c.winW)
	fy := float32(anchorY) / float32(c.winH)

	c.vp.CellSize = newCellSize

	newVisX := float32(c.winW) / float32(newCellSize)
	newVisY := float32(c.winH) / float32(newCellSize)

	c.vp.OffsetX = worldX - fx*newVisX
	c.vp.OffsetY = clampOffsetY(worldY - fy*newVisY)

	c.markViewportChanged()
}

// TouchStart registers a finger. The first finger starts a pan; a second
// finger cancels the pan and starts a pinch.
func (c *Controller) TouchStart(id uint64, x, y float64) {
	switch {
	case c.touch.touch1 == nil:
		c.touch.touch1 = &touchPoint{id: id, x: x, y: y}
		c.touch.single = c.touch.touch1
		c.drag = dragState{active: true, startX: x, startY: y, viewportAtStart: c.vp}
	case c.touch.touch2 == nil && id != c.touch.touch1.id:
		c.touch.touch2 = &touchPoint{id: id, x: x, y: y}
		c.touch.single = nil
		c.drag.active = false
		c.touch.initialDistance = touchDistance(c.touch.touch1, c.touch.touch2)
		c.touch.initialCellSize = c.vp.CellSize
		c.touch.pinching = true
	}
}

// TouchMove drives a single-finger pan or a two-finger pinch zoom snapped to
// the ladder and anchored at the pair's midpoint.
func (c *Controller) TouchMove(id uint64, x, y float64) {
	if c.touch.single != nil && c.touch.single.id == id {
		c.touch.single.x, c.touch.single.y = x, y
		if c.drag.active {
			c.applyPan(x, y)
		}
		return
	}

	if c.touch.touch1 == nil || c.touch.touch2 == nil {
		return
	}
	if c.touch.touch1.id == id {
		c.touch.touch1.x, c.touch.touch1.y = x, y
	}
	if c.touch.touch2.id == id {
		c.touch.touch2.x, c.touch.touch2.y = x, y
	}
	if !c.touch.pinching || c.touch.initialDistance <= 0 {
		return
	}

	dist := touchDistance(c.touch.touch1, c.touch.touch2)
	factor := dist / c.touch.initialDistance
	target := float32(c.touch.initialCellSize) * factor
	if target < 1 {
		target = 1
	}
	if target > 500 {
		target = 500
	}
	newCS := nearestZoomLevel(c.levels, uint32(target))
	if newCS != c.vp.CellSize {
		midX := (c.touch.touch1.x + c.touch.touch2.x) / 2
		midY := (c.touch.touch1.y + c.touch.touch2.y) / 2
		c.applyZoomAtPoint(newCS, midX, midY)
	}
}

// TouchEnd drops a finger. When a pinch degrades to one finger the remaining
// finger restarts a pan with a fresh anchor.
func (c *Controller) TouchEnd(id uint64) {
	if c.touch.touch1 != nil && c.touch.touch1.id == id {
		c.touch.touch1 = c.touch.touch2
		c.touch.touch2 = nil
	} else if c.touch.touch2 != nil && c.touch.touch2.id == id {
		c.touch.touch2 = nil
	}

	if c.touch.single != nil && c.touch.single.id == id {
		c.touch.single = nil
		c.drag.active = false
	}

	if c.touch.touch1 == nil {
		c.touch.initialDistance = 0
		c.touch.initialCellSize = 0
		c.touch.pinching = false
	}

	if c.touch.touch1 != nil && c.touch.touch2 == nil {
		c.touch.single = c.touch.touch1
		c.touch.pinching = false
		c.drag = dragState{
			active:          true,
			startX:          c.touch.touch1.x,
			startY:          c.touch.touch1.y,
			viewportAtStart: c.vp,
		}
	}
}

// NotifyDPIChange marks the next resize as a DPI change: the window's
// physical size stays the same, only the pixel count changes, so the
// viewport offsets are kept.
func (c *Controller) NotifyDPIChange() { c.dpiChanging = true }

// Resize updates the window size. For a normal windowed resize, the edge
// opposite to the one being dragged is anchored so content stays put on the
// anchored side; leftEdgeMoved and topEdgeMoved say which edges moved.
func (c *Controller) Resize(w, h uint32, leftEdgeMoved, topEdgeMoved bool) {
	if w == 0 || h == 0 {
		c.winW, c.winH = w, h
		return
	}
	oldW, oldH := c.winW, c.winH
	c.winW, c.winH = w, h

	cs := c.vp.CellSize
	if c.dpiChanging {
		c.dpiChanging = false
	} else {
		if leftEdgeMoved && oldW != w {
			oldRight := c.vp.OffsetX + float32(oldW)/float32(cs)
			c.vp.OffsetX = oldRight - float32(w)/float32(cs)
		}
		if topEdgeMoved && oldH != h {
			oldBottom := c.vp.OffsetY + float32(oldH)/float32(cs)
			c.vp.OffsetY = clampOffsetY(oldBottom - float32(h)/float32(cs))
		}
	}

	c.markViewportChanged()
}

// Reset restores the initial viewport: default cell size, world origin
// centered horizontally, generation 0 at the top.
func (c *Controller) Reset() {
	c.vp.CellSize = c.defaultCellSize
	c.vp.OffsetX = -float32(c.winW) / float32(c.defaultCellSize) / 2
	c.vp.OffsetY = 0
	c.markViewportChanged()
}

func (c *Controller) markViewportChanged() {
	c.pendingSince = c.now()
	c.pendingValid = true
	c.needsRecompute = true
}

// RecomputeDue reports whether the debounce interval has elapsed since the
// last viewport change and a recompute is still owed.
func (c *Controller) RecomputeDue(now time.Time) bool {
	return c.pendingValid && c.needsRecompute && now.Sub(c.pendingSince) >= c.debounce
}

// RecomputeDone clears the pending state after a recompute completed, or
// was skipped for being oversized and the previous frame stays.
func (c *Controller) RecomputeDone() {
	c.pendingValid = false
	c.needsRecompute = false
}

// NextDeadline returns the time at which the pending recompute becomes due
// and whether one is pending. The event loop uses it to bound its wait.
func (c *Controller) NextDeadline() (time.Time, bool) {
	if !c.pendingValid || !c.needsRecompute {
		return time.Time{}, false
	}
	return c.pendingSince.Add(c.debounce), true
}

func clampOffsetY(y float32) float32 {
	if y < 0 {
		return 0
	}
	return y
}

func touchDistance(a, b *touchPoint) float32 {
	dx := b.x - a.x
	dy := b.y - a.y
	return float32(math.Sqrt(dx*dx + dy*dy))
}
