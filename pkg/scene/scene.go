package scene

import (
	"github.com/hxa7241/minilight/pkg/octree"
	"github.com/hxa7241/minilight/pkg/prng"
	"github.com/hxa7241/minilight/pkg/vector"
)

// Scene owns every triangle, the subset that act as light emitters, and
// the ambient sky/ground terms a ray receives if it escapes the scene
// entirely. It is immutable once built.
type Scene struct {
	Triangles []*Triangle
	emitters  []*Triangle
	sky       vector.Vec3
	ground    vector.Vec3
	index     *octree.Octree[*Triangle]
}

// New builds a Scene, indexing triangles with the given eye position so
// every ray cast from the camera starts inside the spatial index's root.
func New(eye vector.Vec3, triangles []*Triangle, sky, ground vector.Vec3) *Scene {
	var emitters []*Triangle
	for _, tri := range triangles {
		if tri.IsEmitter() {
			emitters = append(emitters, tri)
		}
	}
	return &Scene{
		Triangles: triangles,
		emitters:  emitters,
		sky:       sky.ClampMin0(),
		ground:    ground.Clamp01(),
		index:     octree.Build(eye, triangles),
	}
}

// GetIntersection returns the nearest triangle hit by the ray (o,d),
// ignoring lastHit (pass nil for none, as on a primary ray).
func (s *Scene) GetIntersection(o, d vector.Vec3, lastHit *Triangle) (*Triangle, vector.Vec3, bool) {
	return s.index.Intersect(o, d, lastHit, lastHit != nil)
}

// SampleEmitter picks one emitter uniformly and returns a point sampled
// on its surface, along with the chosen triangle. Returns ok=false if
// the scene has no emitters.
func (s *Scene) SampleEmitter(r *prng.Random) (point vector.Vec3, tri *Triangle, ok bool) {
	n := len(s.emitters)
	if n == 0 {
		return vector.Zero(), nil, false
	}
	index := int(r.Real64() * float64(n))
	if index >= n {
		index = n - 1
	}
	chosen := s.emitters[index]
	point = chosen.SamplePoint(r.Real64(), r.Real64())
	return point, chosen, true
}

// EmitterCount returns the number of emitting triangles, used to
// compensate next-event estimation for uniform emitter selection.
func (s *Scene) EmitterCount() int {
	return len(s.emitters)
}

// DefaultEmission returns the radiance contributed by a ray that never
// hits any geometry: sky when backDir points down (the ray itself
// travels upward) and the ground-tinted sky otherwise.
func (s *Scene) DefaultEmission(backDir vector.Vec3) vector.Vec3 {
	if backDir.Y < 0 {
		return s.sky
	}
	return s.sky.Mul(s.ground)
}
