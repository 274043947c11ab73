// Package cae is an interactive GPU visualizer for one-dimensional
// elementary cellular automata (Wolfram's 256 rules).
//
// # Overview
//
// cae computes large regions of the generation/position plane on the GPU and
// renders the visible portion as a pixel raster, letting a user pan and zoom
// over an effectively unbounded plane in real time. The heavy lifting is a
// tile-based compute cache: each tile is computed from generation zero with
// horizontal padding wide enough to cover the automaton's expanding light
// cone, so tiles are self-contained and composable. Tiles stay resident on
// the device; the renderer samples the assembled cell buffer directly from a
// fragment shader with no CPU readback of cell data.
//
// # Quick start
//
//	cfg := cae.DefaultConfig()
//	cfg.Rule = 110
//
//	eng, err := cae.NewEngine(cfg)
//	if err != nil {
//		// device unavailable or invalid configuration
//	}
//	defer eng.Close()
//
//	// Feed input events from the windowing layer, then:
//	eng.Step(time.Now())  // debounced recompute
//	eng.RenderFrame(time.Now()) // render with the current buffer
//
// # Collaborators
//
// Window creation, DPI plumbing, and raw event extraction are environment
// adapters and live outside this package; cmd/cae wires an SDL2 window. The
// engine consumes abstract pointer/scroll/touch/resize/reset events and owns
// the viewport, the tile cache, and the GPU pipeline.
//
// # Logging
//
// cae produces no log output by default. Call [SetLogger] to enable it.
package cae
