// Package scene holds the renderable world: triangles, their emitters,
// and the ambient sky/ground terms sampled when a ray escapes entirely.
package scene

import (
	"math"

	"github.com/hxa7241/minilight/pkg/vector"
)

// tolerance is the geometric slack applied when a triangle's bound is
// built and when a spatial-index traversal accepts a hit against a
// node's bound.
const tolerance = 1.0 / 1024.0 // 2^-10

// epsilonDet is the Moller-Trumbore determinant threshold below which a
// ray is treated as parallel to the triangle's plane.
const epsilonDet = 1.0 / 1048576.0 // 2^-20

// Triangle is an immutable piece of scene geometry with a flat
// reflectivity/emissivity material. Fields beyond the three vertices
// and the two material colors are derived once at construction.
type Triangle struct {
	V0, V1, V2   vector.Vec3
	Reflectivity vector.Vec3
	Emissivity   vector.Vec3

	e0, e3 vector.Vec3 // v1-v0, v2-v0
	Tangent vector.Vec3
	Normal  vector.Vec3
	Area    float64
}

// NewTriangle builds a Triangle, clamping reflectivity to [0,1) and
// emissivity to non-negative, and deriving tangent/normal/area.
func NewTriangle(v0, v1, v2, reflectivity, emissivity vector.Vec3) Triangle {
	e0 := v1.Sub(v0)
	e3 := v2.Sub(v0)
	cross := e0.Cross(v2.Sub(v1))
	return Triangle{
		V0:           v0,
		V1:           v1,
		V2:           v2,
		Reflectivity: reflectivity.Clamp01(),
		Emissivity:   emissivity.ClampMin0(),
		e0:           e0,
		e3:           e3,
		Tangent:      e0.Unitize(),
		Normal:       cross.Unitize(),
		Area:         0.5 * cross.Len(),
	}
}

// IsEmitter reports whether the triangle should be considered for
// next-event (direct light) sampling.
func (t Triangle) IsEmitter() bool {
	return !t.Emissivity.IsZero() && t.Area > 0
}

// Bound returns the triangle's axis-aligned bound, expanded by
// tolerance on every side.
func (t Triangle) Bound() (min, max vector.Vec3) {
	min = t.V0.Min(t.V1).Min(t.V2)
	max = t.V0.Max(t.V1).Max(t.V2)
	slack := vector.Splat(tolerance)
	return min.Sub(slack), max.Add(slack)
}

// Intersect returns the ray/triangle hit distance and true, or false if
// the ray (origin O, unit direction D) misses, using Moller-Trumbore.
func (t Triangle) Intersect(o, d vector.Vec3) (float64, bool) {
	p := d.Cross(t.e3)
	det := t.e0.Dot(p)
	if math.Abs(det) < epsilonDet {
		return 0, false
	}
	invDet := 1 / det
	tv := o.Sub(t.V0)
	u := tv.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := tv.Cross(t.e0)
	v := d.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := t.e3.Dot(q) * invDet
	if dist < 0 {
		return 0, false
	}
	return dist, true
}

// SamplePoint returns a uniformly distributed point on the triangle's
// surface given two uniform draws in [0,1).
func (t Triangle) SamplePoint(r1, r2 float64) vector.Vec3 {
	s := math.Sqrt(r1)
	a := 1 - s
	b := (1 - r2) * s
	return t.V0.Add(t.e0.Scale(a)).Add(t.e3.Scale(b))
}
