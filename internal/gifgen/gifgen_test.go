package gifgen

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestEncodeNormalisesFrameSizes(t *testing.T) {
	frames := []Frame{
		{Image: solid(400, 300, color.White)},
		{Image: solid(400, 900, color.RGBA{255, 0, 0, 255}), Delay: 300 * time.Millisecond},
		{Image: solid(800, 100, color.Black)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, frames, Options{MaxWidth: 200}))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 3)
	assert.Equal(t, 200, g.Config.Width)
	assert.Equal(t, 150, g.Config.Height)
	for _, img := range g.Image {
		assert.Equal(t, image.Rect(0, 0, 200, 150), img.Bounds())
	}
	assert.Equal(t, []int{150, 30, 150}, g.Delay)

	// The short third frame is padded with white below its content.
	r, gr, b, _ := g.Image[2].At(100, 140).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, gr, b})
}

func TestEncodeNoFrames(t *testing.T) {
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, nil, Options{}), ErrNoFrames)
}

func TestGenerateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.gif")
	size, err := Generate([]Frame{{Image: solid(64, 48, color.White)}}, path, Options{MaxWidth: 32, Delay: time.Second})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), size)
	assert.Positive(t, size)
}

func TestPaletteKeepsMarkerColours(t *testing.T) {
	p := generatePalette([]image.Image{solid(16, 16, color.RGBA{10, 20, 30, 255})})
	assert.Len(t, p, 256)
	assert.Contains(t, p, color.Color(color.RGBA{255, 0, 0, 255}))
	assert.Contains(t, p, color.Color(color.RGBA{10, 20, 30, 255}))
}

func TestCentiseconds(t *testing.T) {
	assert.Equal(t, 50, centiseconds(500*time.Millisecond, 0))
	assert.Equal(t, 100, centiseconds(0, time.Second))
	assert.Equal(t, 150, centiseconds(0, 0))
	assert.Equal(t, 2, centiseconds(time.Millisecond, 0))
}
