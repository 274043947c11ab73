// window.go is the SDL2 environment adapter: it owns the OS window, turns
// raw SDL events into viewport-core calls, and presents the rendered frame
// through a streaming texture.
package main

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/gogpu/cae"
)

// frameInterval bounds how often the loop redraws while idle.
const frameInterval = 16 * time.Millisecond

type window struct {
	eng *cae.Engine

	win      *sdl.Window
	renderer *sdl.Renderer
	tex      *sdl.Texture
	texW     int32
	texH     int32

	// Last known window position, for resize edge detection.
	posX, posY int32

	fullscreen bool
	showHUD    bool
	quit       bool
}

func newWindow(cfg cae.Config, eng *cae.Engine, showHUD bool) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	flags := uint32(sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	title := fmt.Sprintf("CAE - Cellular Automaton Engine | Rule %d", cfg.Rule)
	win, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	w := &window{
		eng:        eng,
		win:        win,
		renderer:   renderer,
		fullscreen: cfg.Fullscreen,
		showHUD:    showHUD,
	}
	w.posX, w.posY = win.GetPosition()

	// The created window may differ from the requested size (fullscreen,
	// window manager constraints); sync the viewport core to reality.
	aw, ah := win.GetSize()
	if aw > 0 && ah > 0 && (uint32(aw) != cfg.Width || uint32(ah) != cfg.Height) {
		eng.Input().NotifyDPIChange() // keep offsets; this is not a user resize
		eng.Input().Resize(uint32(aw), uint32(ah), false, false)
	}
	return w, nil
}

func (w *window) close() {
	if w.tex != nil {
		w.tex.Destroy()
		w.tex = nil
	}
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
}

// loop runs the event/compute/render cycle until quit. The wait timeout is
// bounded by the debounce deadline so a pending recompute fires on time
// even with no further input.
func (w *window) loop() error {
	for !w.quit {
		timeout := frameInterval
		if deadline, ok := w.eng.Input().NextDeadline(); ok {
			if until := time.Until(deadline); until < timeout {
				timeout = until
			}
		}
		if timeout < 0 {
			timeout = 0
		}

		// Block for one event, then drain whatever else arrived. All
		// pending input is applied before a recompute is considered.
		if ev := sdl.WaitEventTimeout(int(timeout / time.Millisecond)); ev != nil {
			w.handleEvent(ev)
		}
		for {
			ev := sdl.PollEvent()
			if ev == nil {
				break
			}
			w.handleEvent(ev)
		}
		if w.quit {
			break
		}

		now := time.Now()
		if _, err := w.eng.Step(now); err != nil {
			return err
		}
		if err := w.present(now); err != nil {
			return err
		}
	}
	return nil
}

func (w *window) handleEvent(ev sdl.Event) {
	in := w.eng.Input()
	switch t := ev.(type) {
	case *sdl.QuitEvent:
		w.quit = true

	case *sdl.MouseButtonEvent:
		if t.Button != sdl.BUTTON_LEFT {
			return
		}
		if t.Type == sdl.MOUSEBUTTONDOWN {
			in.PointerDown(float64(t.X), float64(t.Y))
		} else {
			in.PointerUp()
		}

	case *sdl.MouseMotionEvent:
		in.PointerMove(float64(t.X), float64(t.Y))

	case *sdl.MouseWheelEvent:
		mx, my, _ := sdl.GetMouseState()
		in.Scroll(float32(t.Y), float64(mx), float64(my))

	case *sdl.TouchFingerEvent:
		// Finger coordinates are normalized; scale to window pixels.
		ww, wh := in.WindowSize()
		x := float64(t.X) * float64(ww)
		y := float64(t.Y) * float64(wh)
		id := uint64(t.FingerID)
		switch t.Type {
		case sdl.FINGERDOWN:
			in.TouchStart(id, x, y)
		case sdl.FINGERMOTION:
			in.TouchMove(id, x, y)
		case sdl.FINGERUP:
			in.TouchEnd(id)
		}

	case *sdl.KeyboardEvent:
		if t.Type != sdl.KEYDOWN {
			return
		}
		switch t.Keysym.Sym {
		case sdl.K_ESCAPE:
			if w.fullscreen {
				w.toggleFullscreen()
			} else {
				w.quit = true
			}
		case sdl.K_F11:
			w.toggleFullscreen()
		case sdl.K_0, sdl.K_KP_0:
			in.Reset()
		case sdl.K_h:
			w.showHUD = !w.showHUD
		}

	case *sdl.WindowEvent:
		if t.Event != sdl.WINDOWEVENT_SIZE_CHANGED {
			return
		}
		newW, newH := uint32(t.Data1), uint32(t.Data2)
		// A moved origin means the left or top edge was dragged; anchor
		// the opposite edge. Fullscreen transitions skip anchoring.
		px, py := w.win.GetPosition()
		leftMoved := !w.fullscreen && px != w.posX
		topMoved := !w.fullscreen && py != w.posY
		w.posX, w.posY = px, py
		in.Resize(newW, newH, leftMoved, topMoved)
	}
}

func (w *window) toggleFullscreen() {
	if w.fullscreen {
		w.win.SetFullscreen(0)
	} else {
		w.win.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	}
	w.fullscreen = !w.fullscreen
}

// present renders the engine frame and streams it to the window texture.
func (w *window) present(now time.Time) error {
	pixels, pw, ph, err := w.eng.RenderFrame(now)
	if err != nil {
		return err
	}

	if w.showHUD {
		vp := w.eng.Input().Viewport()
		stats := w.eng.CacheStats()
		drawHUD(pixels, pw, ph, fmt.Sprintf(
			"rule %d | cell %dpx | offset (%.1f, %.1f) | cache %d/%d hit %d miss %d",
			w.eng.Rule(), vp.CellSize, vp.OffsetX, vp.OffsetY,
			stats.Len, stats.Capacity, stats.Hits, stats.Misses))
	}

	if err := w.ensureTexture(int32(pw), int32(ph)); err != nil {
		return err
	}
	if err := w.tex.Update(nil, pixels, int(pw)*4); err != nil {
		return fmt.Errorf("texture update: %w", err)
	}
	if err := w.renderer.Clear(); err != nil {
		return fmt.Errorf("renderer clear: %w", err)
	}
	if err := w.renderer.Copy(w.tex, nil, nil); err != nil {
		return fmt.Errorf("renderer copy: %w", err)
	}
	w.renderer.Present()
	return nil
}

// ensureTexture recreates the streaming texture when the frame size
// changes. BGRA8 rows map onto ARGB8888 on little-endian hosts.
func (w *window) ensureTexture(pw, ph int32) error {
	if w.tex != nil && w.texW == pw && w.texH == ph {
		return nil
	}
	if w.tex != nil {
		w.tex.Destroy()
		w.tex = nil
	}
	tex, err := w.renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, pw, ph)
	if err != nil {
		return fmt.Errorf("create texture: %w", err)
	}
	w.tex = tex
	w.texW, w.texH = pw, ph
	return nil
}
