// Package gifgen encodes a session's screenshots as an animated replay.
package gifgen

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nfnt/resize"
)

// Options configures GIF generation
type Options struct {
	MaxWidth  uint          // output width; defaults to 800
	MaxHeight uint          // crop taller frames; defaults to the first frame's scaled height
	Delay     time.Duration // per-frame delay when a frame sets none; defaults to 1.5s
}

// Frame is one replay image and how long it stays on screen.
type Frame struct {
	Image image.Image
	Delay time.Duration
}

// ErrNoFrames is returned when there is nothing to encode.
var ErrNoFrames = errors.New("no frames to encode")

// Generate writes frames as a GIF to outputPath and returns the file size.
func Generate(frames []Frame, outputPath string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, ErrNoFrames
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, frames, opts); err != nil {
		return 0, err
	}

	// Get file size
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Encode writes frames as a looping GIF. Frames are scaled to a common width
// and cropped or padded to a common height.
func Encode(w io.Writer, frames []Frame, opts Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	outputWidth := opts.MaxWidth
	if outputWidth == 0 {
		outputWidth = 800
	}
	outputHeight := opts.MaxHeight
	if outputHeight == 0 {
		// Calculate height maintaining aspect ratio
		bounds := frames[0].Image.Bounds()
		aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
		outputHeight = uint(float64(outputWidth) * aspectRatio)
	}
	canvas := image.Rect(0, 0, int(outputWidth), int(outputHeight))

	images := make([]image.Image, len(frames))
	for i, fr := range frames {
		images[i] = fit(fr.Image, outputWidth, canvas)
	}
	palette := generatePalette(images)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0, // Infinite loop
		Config: image.Config{
			ColorModel: palette,
			Width:      canvas.Dx(),
			Height:     canvas.Dy(),
		},
	}

	for i, img := range images {
		// Convert to paletted image
		paletted := image.NewPaletted(canvas, palette)
		draw.FloydSteinberg.Draw(paletted, canvas, img, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = centiseconds(frames[i].Delay, opts.Delay)
	}

	return gif.EncodeAll(w, g)
}

// fit scales img to width and places it top-left on a white canvas.
func fit(img image.Image, width uint, canvas image.Rectangle) image.Image {
	resized := resize.Resize(width, 0, img, resize.Lanczos3)
	out := image.NewRGBA(canvas)
	draw.Draw(out, canvas, image.White, image.Point{}, draw.Src)
	draw.Draw(out, canvas, resized, resized.Bounds().Min, draw.Src)
	return out
}

// centiseconds converts a frame delay to GIF units (100ths of a second).
func centiseconds(d, fallback time.Duration) int {
	if d <= 0 {
		d = fallback
	}
	if d <= 0 {
		d = 1500 * time.Millisecond
	}
	cs := int(d / (10 * time.Millisecond))
	if cs < 2 {
		cs = 2
	}
	return cs
}

// generatePalette creates a 256-color palette from the most frequent colors
// across all frames.
func generatePalette(frames []image.Image) color.Palette {
	colorMap := make(map[color.RGBA]int)

	// Sample colors from the images
	step := 4 // Sample every 4th pixel for performance
	for _, img := range frames {
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
			for x := bounds.Min.X; x < bounds.Max.X; x += step {
				r, g, b, _ := img.At(x, y).RGBA()
				colorMap[color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}]++
			}
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}

	// Sort by count descending, ties by value for a stable palette
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		a, b := colors[i].c, colors[j].c
		return uint32(a.R)<<16|uint32(a.G)<<8|uint32(a.B) < uint32(b.R)<<16|uint32(b.G)<<8|uint32(b.B)
	})

	// Marker colours always survive quantisation
	palette := color.Palette{
		color.RGBA{255, 0, 0, 255},
		color.RGBA{255, 196, 0, 255},
		color.RGBA{0, 123, 255, 255},
		color.RGBA{0, 176, 80, 255},
		color.RGBA{66, 133, 244, 255},
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 255, 255, 255},
	}
	seen := make(map[color.RGBA]bool, 256)
	for _, c := range palette {
		seen[c.(color.RGBA)] = true
	}

	// Add most frequent colors
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		if !seen[colors[i].c] {
			seen[colors[i].c] = true
			palette = append(palette, colors[i].c)
		}
	}

	// If we don't have enough colors, pad with grayscale
	for g := 0; len(palette) < 256 && g < 256; g++ {
		c := color.RGBA{uint8(g), uint8(g), uint8(g), 255}
		if !seen[c] {
			seen[c] = true
			palette = append(palette, c)
		}
	}
	return palette
}
