// minilight - unbiased Monte Carlo global illumination renderer.
//
// Reads a scene description and writes a progressively refined,
// tone-mapped PPM image alongside it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hxa7241/minilight/pkg/modelfile"
	"github.com/hxa7241/minilight/pkg/prng"
	"github.com/hxa7241/minilight/pkg/raytracer"
	"github.com/hxa7241/minilight/pkg/render"
	"github.com/hxa7241/minilight/pkg/scene"
)

// errInterrupted marks a run that ended via signal rather than
// completing its iteration count, so main can report a non-zero exit
// status even when the last-completed iteration flushed cleanly.
var errInterrupted = errors.New("interrupted before completing all iterations")

var (
	workers = flag.Int("workers", 0, "render scanlines across N goroutines (0 = single-threaded reference loop)")
	seed    = flag.Uint("seed", 0, "override the PRNG seed (0 = use the documented default)")
	help    = flag.Bool("?", false, "show usage")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "minilight - Monte Carlo global illumination renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: minilight [options] <model-file>\n\n")
		fmt.Fprintf(os.Stderr, "Writes <model-file>.ppm, refining it every power-of-two iteration.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help || flag.NArg() < 1 {
		flag.Usage()
		if *help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		if errors.Is(err, errInterrupted) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(modelPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	model, err := modelfile.Load(modelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	s := scene.New(model.CameraPosition, model.Triangles, model.Sky, model.Ground)
	rt := raytracer.New(s)
	camera := render.NewCamera(model.CameraPosition, model.CameraDirection, model.CameraAngleDeg*math.Pi/180)
	img := render.NewImage(model.Width, model.Height)

	r := prng.New()
	if *seed != 0 {
		seed32 := uint32(*seed)
		r = prng.NewSeeded(seed32, seed32, seed32, seed32)
	}

	slog.Info("render starting",
		"model", modelPath,
		"iterations", model.Iterations,
		"width", model.Width,
		"height", model.Height,
		"triangles", len(model.Triangles),
		"emitters", s.EmitterCount(),
		"workers", *workers,
	)

	outPath := modelPath + ".ppm"
	start := time.Now()

	for iteration := 1; iteration <= model.Iterations; iteration++ {
		select {
		case <-ctx.Done():
			return flushAndReport(img, outPath, iteration-1, start)
		default:
		}

		if *workers > 0 {
			if err := camera.RenderFrameParallel(ctx, rt, iteration, *workers, img); err != nil {
				// The buffer now holds part of this iteration, so it is
				// not flushed; the last periodic PPM stays on disk.
				return errInterrupted
			}
		} else {
			camera.RenderFrame(rt, r, img)
		}

		if isFlushIteration(iteration, model.Iterations) {
			if err := writePPM(img, outPath, iteration); err != nil {
				return fmt.Errorf("write PPM at iteration %d: %w", iteration, err)
			}
			slog.Info("flushed PPM", "iteration", iteration, "elapsed", time.Since(start))
		}
	}

	return nil
}

// isFlushIteration matches spec's cadence: a power of two, or the last
// iteration.
func isFlushIteration(iteration, total int) bool {
	if iteration == total {
		return true
	}
	return iteration&(iteration-1) == 0
}

func writePPM(img *render.Image, path string, iteration int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return img.WritePPM(f, iteration)
}

// flushAndReport flushes the last fully-rendered iteration (if any) on
// interrupt and always returns a non-nil error, so the caller's exit
// status reflects the interruption even though the flush itself
// succeeded.
func flushAndReport(img *render.Image, path string, lastIteration int, start time.Time) error {
	if lastIteration < 1 {
		return errInterrupted
	}
	slog.Info("interrupted, flushing last complete iteration", "iteration", lastIteration, "elapsed", time.Since(start))
	if err := writePPM(img, path, lastIteration); err != nil {
		return fmt.Errorf("flush after interrupt: %w", err)
	}
	return errInterrupted
}
