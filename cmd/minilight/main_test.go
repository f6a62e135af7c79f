package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hxa7241/minilight/pkg/render"
	"github.com/hxa7241/minilight/pkg/vector"
)

// TestIsFlushIteration exercises end-to-end scenario 5: for 5
// iterations, a flush happens at 1, 2, 4, 5 and nowhere else.
func TestIsFlushIteration(t *testing.T) {
	want := map[int]bool{1: true, 2: true, 3: false, 4: true, 5: true}
	for iteration, wantFlush := range want {
		if got := isFlushIteration(iteration, 5); got != wantFlush {
			t.Errorf("isFlushIteration(%d, 5) = %v, want %v", iteration, got, wantFlush)
		}
	}
}

func TestFlushAndReportNoCompletedIterationReturnsInterrupted(t *testing.T) {
	img := render.NewImage(2, 2)
	err := flushAndReport(img, filepath.Join(t.TempDir(), "out.ppm"), 0, time.Now())
	if !errors.Is(err, errInterrupted) {
		t.Fatalf("flushAndReport with lastIteration=0 = %v, want errInterrupted", err)
	}
}

func TestFlushAndReportFlushesThenReportsInterrupted(t *testing.T) {
	img := render.NewImage(2, 2)
	img.AddToPixel(0, 0, vector.V3(1, 1, 1))
	path := filepath.Join(t.TempDir(), "out.ppm")

	err := flushAndReport(img, path, 1, time.Now())
	if !errors.Is(err, errInterrupted) {
		t.Fatalf("flushAndReport = %v, want errInterrupted", err)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("expected the last complete iteration to be flushed to disk: %v", readErr)
	}
	if !bytes.HasPrefix(data, []byte("P6\n")) {
		t.Errorf("flushed file does not look like a PPM: %q", data[:min(len(data), 16)])
	}
}
