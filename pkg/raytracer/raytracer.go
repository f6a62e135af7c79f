// Package raytracer implements the path-construction loop: next-event
// (direct light) sampling combined with Russian-roulette-terminated
// indirect continuation, grounded on the same recursive
// emitted+direct+indirect decomposition a classic path tracer uses, but
// following this renderer's simpler single-bounce-per-recursion,
// next-event-only estimator (no multiple-importance-sampling weights).
package raytracer

import (
	"github.com/hxa7241/minilight/pkg/prng"
	"github.com/hxa7241/minilight/pkg/scene"
	"github.com/hxa7241/minilight/pkg/shading"
	"github.com/hxa7241/minilight/pkg/vector"
)

// RayTracer evaluates radiance along rays cast into a Scene.
type RayTracer struct {
	scene *scene.Scene
}

// New returns a RayTracer bound to the given scene.
func New(s *scene.Scene) *RayTracer {
	return &RayTracer{scene: s}
}

// Radiance returns the total radiance arriving at the ray origin o
// along direction d. lastHit is the triangle the previous bounce came
// from (nil on a primary ray), excluded from the nearest-hit query so a
// ray doesn't immediately re-intersect its own surface.
func (rt *RayTracer) Radiance(o, d vector.Vec3, r *prng.Random, lastHit *scene.Triangle) vector.Vec3 {
	tri, hitPos, ok := rt.scene.GetIntersection(o, d, lastHit)
	if !ok {
		return rt.scene.DefaultEmission(d.Negate())
	}

	point := shading.New(tri, hitPos)
	backD := d.Negate()

	var localEmission vector.Vec3
	if lastHit == nil {
		localEmission = point.Emission(o, backD, false)
	}

	illumination := rt.directLight(point, backD, r)

	reflected := vector.Zero()
	if nextDir, weight, continues := point.NextDirection(r, backD); continues {
		incoming := rt.Radiance(hitPos, nextDir, r, tri)
		reflected = weight.Mul(incoming)
	}

	return reflected.Add(illumination).Add(localEmission)
}

// directLight performs one next-event (emitter) sample: pick an
// emitter point, trace a shadow ray, and if unobstructed, fold its
// contribution through the surface's BRDF.
func (rt *RayTracer) directLight(point shading.SurfacePoint, backD vector.Vec3, r *prng.Random) vector.Vec3 {
	emitterPoint, emitterTri, ok := rt.scene.SampleEmitter(r)
	if !ok {
		return vector.Zero()
	}

	toEmitter := emitterPoint.Sub(point.Position)
	dist := toEmitter.Len()
	if dist == 0 {
		return vector.Zero()
	}
	dir := toEmitter.Scale(1 / dist)

	shadowTri, _, hitSomething := rt.scene.GetIntersection(point.Position, dir, point.Triangle)
	if hitSomething && shadowTri != emitterTri {
		return vector.Zero()
	}

	emitterSurface := shading.New(emitterTri, emitterPoint)
	inRadiance := emitterSurface.Emission(point.Position, dir.Negate(), true).
		Scale(float64(rt.scene.EmitterCount()))

	return point.Reflection(dir, inRadiance, backD)
}
