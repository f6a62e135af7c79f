// Package shading implements the local surface model evaluated at each
// ray/triangle hit: emission toward the camera or a shadow ray, ideal
// Lambertian reflection, and Russian-roulette-terminated continuation
// sampling.
package shading

import (
	"math"

	"github.com/hxa7241/minilight/pkg/prng"
	"github.com/hxa7241/minilight/pkg/scene"
	"github.com/hxa7241/minilight/pkg/vector"
)

// minDistSq bounds the inverse-square falloff in Emission so a light
// sampled arbitrarily close to the surface never produces an infinity.
const minDistSq = 1e-6

// SurfacePoint is an ephemeral, non-owning reference to a hit: a
// triangle plus a position on it.
type SurfacePoint struct {
	Triangle *scene.Triangle
	Position vector.Vec3
}

// New builds a SurfacePoint for a triangle hit at position.
func New(tri *scene.Triangle, position vector.Vec3) SurfacePoint {
	return SurfacePoint{Triangle: tri, Position: position}
}

// Emission returns the radiance this point emits toward toPosition
// along outDirection (the direction from this point toward the
// viewer). isSolidAngle selects whether the result is expressed per
// unit solid angle (next-event sampling) or as a flat emission (the
// camera's direct view of an emitter).
func (p SurfacePoint) Emission(toPosition, outDirection vector.Vec3, isSolidAngle bool) vector.Vec3 {
	ray := toPosition.Sub(p.Position)
	cosArea := outDirection.Dot(p.Triangle.Normal) * p.Triangle.Area
	if cosArea <= 0 {
		return vector.Zero()
	}
	if !isSolidAngle {
		return p.Triangle.Emissivity
	}
	solidAngle := cosArea / math.Max(ray.Dot(ray), minDistSq)
	return p.Triangle.Emissivity.Scale(solidAngle)
}

// Reflection applies the ideal Lambertian BRDF: inRadiance arriving
// along inDir is reflected toward outDir, scaled by reflectivity and
// the incoming cosine, and divided by pi. Zero when inDir and outDir
// are on opposite sides of the surface.
func (p SurfacePoint) Reflection(inDir vector.Vec3, inRadiance vector.Vec3, outDir vector.Vec3) vector.Vec3 {
	n := p.Triangle.Normal
	inDot := inDir.Dot(n)
	outDot := outDir.Dot(n)
	sameSide := (inDot < 0) == (outDot < 0)
	if !sameSide || inDot == 0 {
		return vector.Zero()
	}
	return inRadiance.Mul(p.Triangle.Reflectivity).Scale(math.Abs(inDot) / math.Pi)
}

// NextDirection draws a cosine-weighted continuation direction on the
// hemisphere facing inDir, subject to Russian-roulette termination
// against the triangle's mean reflectivity. ok is false when the path
// terminates; color is the unbiased reflectance weight to multiply the
// recursive radiance by.
func (p SurfacePoint) NextDirection(r *prng.Random, inDir vector.Vec3) (dir vector.Vec3, color vector.Vec3, ok bool) {
	refl := p.Triangle.Reflectivity
	meanReflectivity := (refl.X + refl.Y + refl.Z) / 3
	if r.Real64() >= meanReflectivity {
		return vector.Zero(), vector.Zero(), false
	}

	n := p.Triangle.Normal
	if n.Dot(inDir) < 0 {
		n = n.Negate()
	}

	r1 := r.Real64()
	r2 := r.Real64()
	phi := 2 * math.Pi * r1
	s := math.Sqrt(r2)
	lx := math.Cos(phi) * s
	ly := math.Sin(phi) * s
	lz := math.Sqrt(1 - r2)

	tangent := p.Triangle.Tangent
	bitangent := n.Cross(tangent)
	sample := tangent.Scale(lx).Add(bitangent.Scale(ly)).Add(n.Scale(lz))

	return sample, refl.Scale(1 / meanReflectivity), true
}
