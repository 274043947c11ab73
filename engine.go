package cae

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/cae/internal/core"
	"github.com/gogpu/cae/internal/gpu"
)

// ErrInvalidConfig is returned by NewEngine for out-of-range startup
// parameters. The wrapped message lists every violation.
var ErrInvalidConfig = errors.New("cae: invalid configuration")

// computeRequest is one recompute of the visible region, derived from the
// viewport at the moment the debounce fired.
type computeRequest struct {
	startGen    uint32
	iterations  uint32
	visibleX    uint32
	visibleY    uint32
	horizOffset int32
}

// buildRequest derives the compute request from a viewport and window size.
// Visible cells are rounded up so partial edge cells are included; offsetY
// below generation 0 is clamped away.
func buildRequest(vp Viewport, winW, winH uint32) computeRequest {
	cs := vp.CellSize
	visX := (winW + cs - 1) / cs
	visY := (winH + cs - 1) / cs

	offY := vp.OffsetY
	if offY < 0 {
		offY = 0
	}
	return computeRequest{
		startGen:    uint32(offY),
		iterations:  visY,
		visibleX:    visX,
		visibleY:    visY,
		horizOffset: int32(vp.OffsetX),
	}
}

// checkRequestLimits enforces the safety caps on a compute request. A
// non-nil error means the request is skipped, keeping the previous frame;
// it is never fatal.
func checkRequestLimits(req computeRequest, cellSize uint32) error {
	if cellSize < MinCellSize {
		return fmt.Errorf("cell size %d below minimum %d", cellSize, MinCellSize)
	}
	if req.visibleX > MaxCellsX || req.visibleY > MaxCellsY {
		return fmt.Errorf("dimensions %dx%d exceed limits %dx%d", req.visibleX, req.visibleY, MaxCellsX, MaxCellsY)
	}
	// The 3x factor accounts for horizontal padding around the visible area.
	total := uint64(req.visibleX) * 3 * uint64(req.visibleY)
	if total > MaxTotalCells {
		return fmt.Errorf("total cell count %d exceeds limit %d", total, MaxTotalCells)
	}
	return nil
}

// Engine is the top-level object: it owns the viewport/input core, the tile
// cache, the assembler, and the renderer, and runs the debounced
// recompute-and-render loop. All methods must be called from one goroutine.
type Engine struct {
	cfg   Config
	state core.InitialState

	ctrl *Controller

	dev      *gpu.Device
	kernel   *gpu.Kernel
	tiles    *gpu.TileComputer
	cache    *gpu.TileCache // nil when caching is disabled
	asm      *gpu.Assembler
	renderer *gpu.Renderer

	// bufMeta and bufferViewport describe the most recently assembled
	// buffer; the renderer shows it shifted while the live viewport drifts.
	bufMeta        gpu.Result
	bufferViewport Viewport
	haveBuffer     bool

	lastParamsWrite time.Time
	haveParamsWrite bool
}

// NewEngine validates cfg, opens the GPU device, and builds the pipeline.
// On error nothing is left allocated.
func NewEngine(cfg Config) (*Engine, error) {
	if errs := cfg.Validate(); len(errs) != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	dev, err := gpu.OpenDevice()
	if err != nil {
		return nil, err
	}
	eng, err := newEngine(dev, cfg)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return eng, nil
}

// NewEngineWithDevice builds the pipeline over an externally owned device.
// The caller keeps ownership of the device. cfg is validated the same way
// as in NewEngine.
func NewEngineWithDevice(dev *gpu.Device, cfg Config) (*Engine, error) {
	if errs := cfg.Validate(); len(errs) != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	eng, err := newEngine(dev, cfg)
	if err != nil {
		return nil, err
	}
	eng.dev = nil // owned by the caller; Close leaves it alone
	return eng, nil
}

func newEngine(dev *gpu.Device, cfg Config) (*Engine, error) {
	state, err := core.ParseInitialState(cfg.InitialState)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	kernel, err := gpu.NewKernel(dev)
	if err != nil {
		return nil, err
	}

	renderer, err := gpu.NewRenderer(dev)
	if err != nil {
		kernel.Close()
		return nil, err
	}

	tiles := gpu.NewTileComputer(dev, kernel, cfg.TileSize)
	var cache *gpu.TileCache
	if cfg.CacheTiles > 0 {
		cache = gpu.NewTileCache(dev, cfg.CacheTiles)
	}
	asm := gpu.NewAssembler(dev, kernel, tiles, cache)

	e := &Engine{
		cfg:      cfg,
		state:    state,
		ctrl:     NewController(cfg.Width, cfg.Height, DefaultCellSize, time.Duration(cfg.DebounceMS)*time.Millisecond),
		dev:      dev,
		kernel:   kernel,
		tiles:    tiles,
		cache:    cache,
		asm:      asm,
		renderer: renderer,
	}
	return e, nil
}

// Close tears the pipeline down. The device is closed only if the engine
// opened it.
func (e *Engine) Close() {
	if e.asm != nil {
		e.asm.Close()
		e.asm = nil
	}
	if e.cache != nil {
		e.cache.Clear()
		e.cache = nil
	}
	if e.renderer != nil {
		e.renderer.Close()
		e.renderer = nil
	}
	if e.kernel != nil {
		e.kernel.Close()
		e.kernel = nil
	}
	if e.dev != nil {
		e.dev.Close()
		e.dev = nil
	}
}

// Input returns the viewport/input core. Windowing adapters feed pointer,
// scroll, touch, and resize events into it directly.
func (e *Engine) Input() *Controller { return e.ctrl }

// Config returns the engine's startup configuration.
func (e *Engine) Config() Config { return e.cfg }

// Rule returns the active rule number.
func (e *Engine) Rule() uint8 { return e.cfg.Rule }

// SetRule switches the rule at runtime. The tile cache is dropped: tiles
// under different rules never alias.
func (e *Engine) SetRule(rule uint8) {
	if rule == e.cfg.Rule {
		return
	}
	e.cfg.Rule = rule
	if e.cache != nil {
		e.cache.Clear()
	}
	e.ctrl.markViewportChanged()
}

// SetInitialState replaces the seed row at runtime. Invalid strings are
// rejected and leave the engine unchanged. The tile cache is dropped.
func (e *Engine) SetInitialState(s string) error {
	state, err := core.ParseInitialState(s)
	if err != nil {
		return err
	}
	e.cfg.InitialState = s
	e.state = state
	if e.cache != nil {
		e.cache.Clear()
	}
	e.ctrl.markViewportChanged()
	return nil
}

// CacheStats returns the tile cache counters; zeros when caching is off.
func (e *Engine) CacheStats() gpu.CacheStats {
	if e.cache == nil {
		return gpu.CacheStats{}
	}
	return e.cache.Stats()
}

// Step runs the debounce check and recomputes the visible region when due.
// It returns whether a recompute ran.
func (e *Engine) Step(now time.Time) (bool, error) {
	if !e.ctrl.RecomputeDue(now) {
		return false, nil
	}

	vp := e.ctrl.Viewport()
	winW, winH := e.ctrl.WindowSize()
	req := buildRequest(vp, winW, winH)

	if err := checkRequestLimits(req, vp.CellSize); err != nil {
		Logger().Warn("cae: compute request skipped", "reason", err)
		e.ctrl.RecomputeDone()
		return false, nil
	}

	res, err := e.asm.Run(e.cfg.Rule, e.state, req.startGen, req.iterations, req.visibleX, req.horizOffset)
	if err != nil {
		return false, err
	}
	if err := e.renderer.SetSource(res); err != nil {
		return false, err
	}
	e.bufMeta = res
	e.bufferViewport = vp
	e.haveBuffer = true

	// Frame the new buffer correctly on its first presentation: write the
	// uniform immediately, bypassing the throttle, with the buffer's own
	// visible extent.
	e.writeParams(vp, res.VisibleWidth, res.Height)
	e.lastParamsWrite = now
	e.haveParamsWrite = true

	e.ctrl.RecomputeDone()
	return true, nil
}

// RenderFrame updates the render uniform (throttled) and draws the frame,
// returning BGRA8 pixel rows for the presenting adapter. Before the first
// completed compute the frame is plain black.
func (e *Engine) RenderFrame(now time.Time) ([]byte, uint32, uint32, error) {
	winW, winH := e.ctrl.WindowSize()
	if winW == 0 || winH == 0 {
		return nil, 0, 0, fmt.Errorf("cae: zero-sized window")
	}

	e.maybeWriteParams(now)

	pixels, err := e.renderer.RenderPixels(winW, winH)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, winW, winH, nil
}

// maybeWriteParams rewrites the uniform from the live viewport at most once
// per throttle interval, giving immediate visual feedback during drags
// without flooding the queue with buffer writes.
func (e *Engine) maybeWriteParams(now time.Time) {
	if !e.haveBuffer {
		return
	}
	if e.haveParamsWrite && now.Sub(e.lastParamsWrite) < renderParamsThrottleMS*time.Millisecond {
		return
	}
	e.writeParams(e.bufferViewport, e.bufMeta.VisibleWidth, e.bufMeta.Height)
	e.lastParamsWrite = now
	e.haveParamsWrite = true
}

// writeParams fills the uniform from the current viewport, the given
// buffer-origin viewport, and the last assembled buffer's metadata.
func (e *Engine) writeParams(bufferVP Viewport, visW, visH uint32) {
	vp := e.ctrl.Viewport()
	winW, winH := e.ctrl.WindowSize()
	cs := vp.CellSize

	e.renderer.WriteParams(core.RenderParams{
		VisibleWidth:    visW,
		VisibleHeight:   visH,
		SimulatedWidth:  e.bufMeta.SimulatedWidth,
		PaddingLeft:     e.bufMeta.PaddingLeft,
		CellSize:        cs,
		WindowWidth:     winW,
		WindowHeight:    winH,
		ViewportOffsetX: int32(vp.OffsetX),
		ViewportOffsetY: int32(vp.OffsetY),
		BufferOffsetX:   int32(bufferVP.OffsetX),
		BufferOffsetY:   int32(bufferVP.OffsetY),
	})
}
