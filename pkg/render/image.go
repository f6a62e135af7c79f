// Package render provides the camera ray generator, pixel accumulation
// buffer, and Ward-tonemapped PPM encoder.
package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/hxa7241/minilight/pkg/vector"
)

// IMAGE_DIM_MAX bounds both image dimensions, matching the reference
// design's sanity limit on a single PPM.
const IMAGE_DIM_MAX = 4000

// displayLuminanceMax is the Ward tone-mapping operator's assumed
// display peak luminance.
const displayLuminanceMax = 200.0

// Color is an 8-bit RGB pixel, aliasing image/color.RGBA as the
// teacher's render package does for its final on-screen pixel type.
type Color = color.RGBA

// RGB builds an opaque Color from three 8-bit channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// Image accumulates radiance per pixel across iterations and encodes
// the result as a binary PPM (P6) after Ward tone-mapping and gamma
// correction.
type Image struct {
	Width, Height int
	buffer        []vector.Vec3 // row-major, top scanline first; pixel row y=0 is stored last
}

// NewImage allocates a zeroed accumulation buffer. Width and height are
// clamped to [1, IMAGE_DIM_MAX].
func NewImage(width, height int) *Image {
	width = clampDim(width)
	height = clampDim(height)
	return &Image{
		Width:  width,
		Height: height,
		buffer: make([]vector.Vec3, width*height),
	}
}

func clampDim(v int) int {
	if v < 1 {
		return 1
	}
	if v > IMAGE_DIM_MAX {
		return IMAGE_DIM_MAX
	}
	return v
}

// AddToPixel accumulates radiance v into pixel (x,y). Out-of-range
// coordinates are silently ignored. Pixel row y=0 is the bottom
// scanline of the output image, so the buffer index flips y.
func (img *Image) AddToPixel(x, y int, v vector.Vec3) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	idx := x + (img.Height-1-y)*img.Width
	img.buffer[idx] = img.buffer[idx].Add(v)
}

// WritePPM tone-maps the accumulated radiance (divided by iteration,
// or 1 if iteration < 1) and writes a binary PPM (P6) to out.
func (img *Image) WritePPM(out io.Writer, iteration int) error {
	divider := 1.0
	if iteration > 1 {
		divider = 1.0 / float64(iteration)
	}

	scale := img.wardToneMapScale(divider)

	w := bufio.NewWriter(out)
	header := fmt.Sprintf("P6\n# http://www.hxa.name/minilight\n\n%d %d\n255\n", img.Width, img.Height)
	if _, err := w.WriteString(header); err != nil {
		return fmt.Errorf("write PPM header: %w", err)
	}

	row := make([]byte, img.Width*3)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.buffer[x+y*img.Width]
			r, g, b := tonemapPixel(px, divider, scale)
			row[x*3+0] = r
			row[x*3+1] = g
			row[x*3+2] = b
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("write PPM row %d: %w", y, err)
		}
	}
	return w.Flush()
}

// tonemapPixel applies the Ward scale and 0.45 gamma to one pixel's
// radiance and rounds it to 8-bit sRGB via go-colorful's clamp.
func tonemapPixel(raw vector.Vec3, divider, scale float64) (r, g, b byte) {
	gammaOne := func(v float64) float64 {
		return math.Pow(math.Max(v*divider*scale, 0), 0.45)
	}
	c := colorful.Color{R: gammaOne(raw.X), G: gammaOne(raw.Y), B: gammaOne(raw.Z)}.Clamped()
	r8, g8, b8 := c.RGB255()
	return r8, g8, b8
}

// wardToneMapScale computes the Ward operator's display scale factor
// from the buffer's mean log luminance.
func (img *Image) wardToneMapScale(divider float64) float64 {
	const lumWeightR, lumWeightG, lumWeightB = 0.2126, 0.7152, 0.0722
	const minLuminance = 1e-4

	sumLogY := 0.0
	for _, px := range img.buffer {
		y := (px.X*lumWeightR + px.Y*lumWeightG + px.Z*lumWeightB) * divider
		if y < minLuminance {
			y = minLuminance
		}
		sumLogY += math.Log10(y)
	}
	meanLogY := sumLogY / float64(len(img.buffer))
	adaptLuminance := math.Pow(10, meanLogY)

	a := 1.219 + math.Pow(displayLuminanceMax*0.25, 0.4)
	b := 1.219 + math.Pow(adaptLuminance, 0.4)
	return math.Pow(a/b, 2.5) / displayLuminanceMax
}
