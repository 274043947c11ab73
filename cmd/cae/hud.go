// hud.go draws the optional stats line onto the rendered frame before it
// is streamed to the window.
package main

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawHUD renders one line of text into the top-left corner of a BGRA8
// frame. White glyphs are channel-symmetric, so drawing through an RGBA
// view of the BGRA rows is exact.
func drawHUD(pixels []byte, w, h uint32, line string) {
	if w == 0 || h == 0 {
		return
	}
	img := &image.RGBA{
		Pix:    pixels,
		Stride: int(w) * 4,
		Rect:   image.Rect(0, 0, int(w), int(h)),
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 16),
	}
	d.DrawString(line)
}
