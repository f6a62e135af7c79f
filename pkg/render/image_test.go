package render

import (
	"bytes"
	"testing"

	"github.com/hxa7241/minilight/pkg/vector"
)

func TestAddToPixelAccumulates(t *testing.T) {
	img := NewImage(2, 2)
	img.AddToPixel(0, 0, vector.V3(1, 1, 1))
	img.AddToPixel(0, 0, vector.V3(1, 1, 1))
	idx := 0 + (img.Height-1-0)*img.Width
	if img.buffer[idx] != (vector.V3(2, 2, 2)) {
		t.Errorf("accumulated pixel = %v, want (2,2,2)", img.buffer[idx])
	}
}

func TestAddToPixelOutOfRangeIgnored(t *testing.T) {
	img := NewImage(2, 2)
	img.AddToPixel(-1, 0, vector.V3(1, 1, 1))
	img.AddToPixel(0, 5, vector.V3(1, 1, 1))
	for _, px := range img.buffer {
		if px != (vector.Vec3{}) {
			t.Fatal("out-of-range AddToPixel should not mutate the buffer")
		}
	}
}

func TestWritePPMHeaderAndLength(t *testing.T) {
	img := NewImage(3, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.AddToPixel(x, y, vector.V3(0.5, 0.5, 0.5))
		}
	}
	var buf bytes.Buffer
	if err := img.WritePPM(&buf, 1); err != nil {
		t.Fatalf("WritePPM error: %v", err)
	}
	const header = "P6\n# http://www.hxa.name/minilight\n\n3 2\n255\n"
	got := buf.Bytes()
	if string(got[:len(header)]) != header {
		t.Fatalf("header mismatch, got %q", string(got[:len(header)]))
	}
	body := got[len(header):]
	if len(body) != 3*2*3 {
		t.Fatalf("body length = %d, want %d", len(body), 3*2*3)
	}
}

func TestDimensionsClamped(t *testing.T) {
	img := NewImage(0, IMAGE_DIM_MAX+500)
	if img.Width != 1 {
		t.Errorf("Width = %d, want 1", img.Width)
	}
	if img.Height != IMAGE_DIM_MAX {
		t.Errorf("Height = %d, want %d", img.Height, IMAGE_DIM_MAX)
	}
}
