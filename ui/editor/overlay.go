// Package editor provides the editor card widget: the interactive image
// viewport with its mark overlay and controls.
package editor

import (
	"image"
	"image/color"
)

// markRadius is the drawn badge radius in container pixels.
const markRadius = 11

var (
	markFill     = color.RGBA{R: 79, G: 70, B: 229, A: 230}
	markFillSel  = color.RGBA{R: 220, G: 38, B: 38, A: 240}
	markRing     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	markDigitCol = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9, one row per
// element, 3 bits wide.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// drawMarkBadge renders one numbered mark badge centered at (cx, cy). The
// scale factor converts container pixels to raster pixels.
func drawMarkBadge(dst *image.RGBA, cx, cy float64, index int, selected bool, scale float64) {
	fill := markFill
	if selected {
		fill = markFillSel
	}

	r := markRadius * scale
	fillCircle(dst, cx, cy, r, fill)
	strokeCircle(dst, cx, cy, r, markRing)

	drawNumber(dst, index, cx, cy, scale)
}

func fillCircle(dst *image.RGBA, cx, cy, r float64, col color.RGBA) {
	bounds := dst.Bounds()
	x0, x1 := int(cx-r), int(cx+r)+1
	y0, y1 := int(cy-r), int(cy+r)+1
	for y := y0; y < y1; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r*r {
				blend(dst, x, y, col)
			}
		}
	}
}

func strokeCircle(dst *image.RGBA, cx, cy, r float64, col color.RGBA) {
	bounds := dst.Bounds()
	inner := (r - 1.5) * (r - 1.5)
	outer := (r + 0.5) * (r + 0.5)
	x0, x1 := int(cx-r)-1, int(cx+r)+2
	y0, y1 := int(cy-r)-1, int(cy+r)+2
	for y := y0; y < y1; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := dx*dx + dy*dy
			if d >= inner && d <= outer {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}

// drawNumber draws the 1 or 2 digit index centered at (cx, cy) using the 3x5
// pixel font.
func drawNumber(dst *image.RGBA, n int, cx, cy float64, scale float64) {
	if n < 0 {
		return
	}
	digits := []int{}
	if n == 0 {
		digits = []int{0}
	}
	for v := n; v > 0; v /= 10 {
		digits = append([]int{v % 10}, digits...)
	}

	px := int(2 * scale)
	if px < 1 {
		px = 1
	}
	glyphW := 3*px + px // 3 columns plus spacing
	totalW := glyphW*len(digits) - px
	x := int(cx) - totalW/2
	y := int(cy) - (5*px)/2

	for _, d := range digits {
		drawDigit(dst, d, x, y, px)
		x += glyphW
	}
}

func drawDigit(dst *image.RGBA, d, x, y, px int) {
	pattern := digitPatterns[d]
	for row := 0; row < 5; row++ {
		for col := 0; col < 3; col++ {
			if pattern[row]&(1<<(2-col)) == 0 {
				continue
			}
			for dy := 0; dy < px; dy++ {
				for dx := 0; dx < px; dx++ {
					setIfInside(dst, x+col*px+dx, y+row*px+dy, markDigitCol)
				}
			}
		}
	}
}

func setIfInside(dst *image.RGBA, x, y int, col color.RGBA) {
	b := dst.Bounds()
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		dst.SetRGBA(x, y, col)
	}
}

// blend composites col over the destination pixel using its alpha.
func blend(dst *image.RGBA, x, y int, col color.RGBA) {
	a := float64(col.A) / 255
	inv := 1 - a
	existing := dst.RGBAAt(x, y)
	dst.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*a + float64(existing.R)*inv),
		G: uint8(float64(col.G)*a + float64(existing.G)*inv),
		B: uint8(float64(col.B)*a + float64(existing.B)*inv),
		A: 255,
	})
}
