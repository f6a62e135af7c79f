package raytracer

import (
	"testing"

	"github.com/hxa7241/minilight/pkg/prng"
	"github.com/hxa7241/minilight/pkg/scene"
	"github.com/hxa7241/minilight/pkg/vector"
)

func TestRadianceNonNegative(t *testing.T) {
	ceiling := scene.NewTriangle(
		vector.V3(-5, 5, -5), vector.V3(5, 5, -5), vector.V3(5, 5, 5),
		vector.Zero(), vector.V3(1, 1, 1),
	)
	floor := scene.NewTriangle(
		vector.V3(-5, -5, -5), vector.V3(5, -5, -5), vector.V3(5, -5, 5),
		vector.V3(0.7, 0.7, 0.7), vector.Zero(),
	)
	s := scene.New(vector.Zero(), []*scene.Triangle{&ceiling, &floor}, vector.V3(0.2, 0.2, 0.3), vector.Zero())
	rt := New(s)
	r := prng.New()

	for i := 0; i < 200; i++ {
		dir := vector.V3(r.Real64()*2-1, r.Real64()*2-1, r.Real64()*2-1).Unitize()
		if dir.IsZero() {
			continue
		}
		radiance := rt.Radiance(vector.Zero(), dir, r, nil)
		if radiance.X < 0 || radiance.Y < 0 || radiance.Z < 0 {
			t.Fatalf("negative radiance component at sample %d: %v", i, radiance)
		}
	}
}

func TestRadianceEmptySceneReturnsSky(t *testing.T) {
	sky := vector.V3(1, 1, 1)
	s := scene.New(vector.Zero(), nil, sky, vector.Zero())
	rt := New(s)
	r := prng.New()

	got := rt.Radiance(vector.Zero(), vector.V3(0, 1, 0), r, nil)
	if got != sky {
		t.Errorf("empty scene looking up = %v, want sky %v", got, sky)
	}
}

func TestRadianceDeterministic(t *testing.T) {
	emitter := scene.NewTriangle(
		vector.V3(-1, 5, -1), vector.V3(1, 5, -1), vector.V3(0, 5, 1),
		vector.Zero(), vector.V3(2, 2, 2),
	)
	floor := scene.NewTriangle(
		vector.V3(-5, -1, -5), vector.V3(5, -1, -5), vector.V3(0, -1, 5),
		vector.V3(0.6, 0.6, 0.6), vector.Zero(),
	)
	newScene := func() *scene.Scene {
		return scene.New(vector.V3(0, 0, -3), []*scene.Triangle{&emitter, &floor}, vector.Zero(), vector.Zero())
	}

	a := New(newScene())
	b := New(newScene())
	ra, rb := prng.New(), prng.New()

	for i := 0; i < 20; i++ {
		va := a.Radiance(vector.V3(0, 0, -3), vector.V3(0, -0.1, 1).Unitize(), ra, nil)
		vb := b.Radiance(vector.V3(0, 0, -3), vector.V3(0, -0.1, 1).Unitize(), rb, nil)
		if va != vb {
			t.Fatalf("sample %d diverged: %v != %v", i, va, vb)
		}
	}
}
