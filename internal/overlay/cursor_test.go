package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func whiteFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestMarkClickDrawsRippleAndCursor(t *testing.T) {
	frame := whiteFrame(100, 100)
	out := MarkClick(frame, image.Point{X: 50, Y: 50}, 1)

	assert.Equal(t, rippleColor, out.RGBAAt(60, 50), "inner ring")
	assert.Equal(t, rippleColor, out.RGBAAt(68, 50), "outer ring")
	assert.Equal(t, cursorColor, out.RGBAAt(50, 50), "cursor tip")
	assert.Equal(t, fillColor, out.RGBAAt(52, 60), "cursor fill")

	// The input frame is left untouched.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, frame.RGBAAt(50, 50))
}

func TestMarkClickScales(t *testing.T) {
	out := MarkClick(whiteFrame(200, 200), image.Point{X: 100, Y: 100}, 2)
	assert.Equal(t, rippleColor, out.RGBAAt(120, 100))
	assert.Equal(t, cursorColor, out.RGBAAt(100, 132), "outline scaled to 16*2")
}

func TestMarkClickOutsideFrame(t *testing.T) {
	frame := whiteFrame(40, 40)
	out := MarkClick(frame, image.Point{X: 400, Y: 10}, 1)
	assert.Equal(t, frame.Pix, out.Pix)
}

func TestMarkClickNearEdge(t *testing.T) {
	out := MarkClick(whiteFrame(30, 30), image.Point{X: 28, Y: 28}, 1)
	assert.Equal(t, cursorColor, out.RGBAAt(28, 28))
}

func TestIsInsideCursor(t *testing.T) {
	assert.True(t, isInsideCursor(0, 0))
	assert.True(t, isInsideCursor(3, 8))
	assert.True(t, isInsideCursor(2, 15))
	assert.False(t, isInsideCursor(10, 2))
	assert.False(t, isInsideCursor(-1, 5))
	assert.False(t, isInsideCursor(0, 17))
}
