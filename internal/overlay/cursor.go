// Package overlay draws where a click landed onto a screenshot.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// CursorSize is the size of the cursor sprite
const CursorSize = 20

var (
	rippleColor = color.RGBA{66, 133, 244, 255}
	cursorColor = color.RGBA{0, 0, 0, 255}
	fillColor   = color.RGBA{255, 255, 255, 255}
)

// MarkClick returns a copy of frame with a click ripple and an arrow cursor
// at p. scale enlarges both for high-density screenshots; values below 1 are
// treated as 1.
func MarkClick(frame image.Image, p image.Point, scale float64) *image.RGBA {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)

	// Copy original frame
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if !p.In(bounds) {
		return result
	}
	if scale < 1 {
		scale = 1
	}

	drawClickRipple(result, p.X, p.Y, scale)
	drawCursor(result, p.X, p.Y, scale)
	return result
}

// drawCursor draws a simple arrow cursor
func drawCursor(img *image.RGBA, x, y int, scale float64) {
	// Simple arrow cursor shape
	// Points define the cursor outline
	cursorPoints := []struct{ dx, dy int }{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}
	s := func(v int) int { return int(math.Round(float64(v) * scale)) }

	// Draw cursor fill
	for dy := 0; dy < s(18); dy++ {
		for dx := 0; dx < s(13); dx++ {
			if isInsideCursor(int(float64(dx)/scale), int(float64(dy)/scale)) {
				setPixelSafe(img, x+dx, y+dy, fillColor)
			}
		}
	}

	// Draw cursor outline
	for i := 0; i < len(cursorPoints); i++ {
		p1 := cursorPoints[i]
		p2 := cursorPoints[(i+1)%len(cursorPoints)]
		drawLine(img, x+s(p1.dx), y+s(p1.dy), x+s(p2.dx), y+s(p2.dy), cursorColor)
	}
}

// isInsideCursor checks if a point is inside the cursor shape
func isInsideCursor(dx, dy int) bool {
	// Simple triangular cursor approximation
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}

	// Main triangle part
	if dy <= 11 {
		return dx <= dy*12/16
	}

	// Arrow shaft part
	return dx <= 4
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawClickRipple draws two concentric rings around the click point.
func drawClickRipple(img *image.RGBA, x, y int, scale float64) {
	for _, r := range []float64{10, 18} {
		radius := r * scale
		for angle := 0.0; angle < 360; angle += 0.5 {
			rad := angle * math.Pi / 180
			px := x + int(radius*math.Cos(rad))
			py := y + int(radius*math.Sin(rad))
			setPixelSafe(img, px, py, rippleColor)
			setPixelSafe(img, px+1, py, rippleColor)
			setPixelSafe(img, px, py+1, rippleColor)
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
