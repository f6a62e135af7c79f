// Package octree provides the spatial index that accelerates ray/triangle
// intersection queries against the scene.
//
// A node is a tagged union, built once and read-only thereafter: a
// branch with eight octant children, or a leaf with a short item
// list. The index is generic over any comparable item with a bound and
// a ray intersection test, so scene.Triangle plugs in without this
// package needing to know about materials or emission.
package octree

import (
	"math"

	"github.com/hxa7241/minilight/pkg/vector"
)

const (
	maxLevels = 44
	maxItems  = 8
	tolerance = 1.0 / 1024.0 // 2^-10, matches scene.Triangle's bound slack
)

// Item is anything an Octree can index: a bound for tree construction
// and a ray intersection test for traversal. comparable lets traversal
// recognize and skip the ray's originating item (lastHit) by identity.
type Item interface {
	comparable
	Bound() (min, max vector.Vec3)
	Intersect(origin, dir vector.Vec3) (distance float64, ok bool)
}

// node is either a branch (isBranch true, children populated, items
// nil) or a leaf (isBranch false, items populated, children all nil).
type node[T Item] struct {
	min, max vector.Vec3
	isBranch bool
	children [8]*node[T]
	items    []T
}

// Octree is a read-only spatial index over a fixed set of items.
type Octree[T Item] struct {
	root *node[T]
}

// Build constructs an octree enclosing every item's bound and the eye
// position (so traversal can always start inside the root).
func Build[T Item](eye vector.Vec3, items []T) *Octree[T] {
	if len(items) == 0 {
		return &Octree[T]{root: &node[T]{min: eye, max: eye}}
	}

	min, max := items[0].Bound()
	for _, it := range items[1:] {
		tmin, tmax := it.Bound()
		min = min.Min(tmin)
		max = max.Max(tmax)
	}
	min = min.Min(eye)
	max = max.Max(eye)

	extent := max.Sub(min)
	edge := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	max = min.Add(vector.Splat(edge))

	return &Octree[T]{root: build(0, min, max, items)}
}

func build[T Item](level int, min, max vector.Vec3, items []T) *node[T] {
	if len(items) <= maxItems || level >= maxLevels-1 {
		return &node[T]{min: min, max: max, items: items}
	}

	mid := min.Add(max).Scale(0.5)

	var childItems [8][]T
	for _, it := range items {
		tmin, tmax := it.Bound()
		for octant := 0; octant < 8; octant++ {
			cmin, cmax := childBound(octant, min, max, mid)
			if overlaps(tmin, tmax, cmin, cmax) {
				childItems[octant] = append(childItems[octant], it)
			}
		}
	}

	// Degenerate-subdivision guard: a huge triangle (e.g. a distant sun)
	// can overlap every octant. If more than one child would replicate
	// the whole parent set, stop subdividing there instead of recursing
	// forever.
	fullReplicas := 0
	for octant := 0; octant < 8; octant++ {
		if len(childItems[octant]) == len(items) {
			fullReplicas++
		}
	}

	n := &node[T]{min: min, max: max, isBranch: true}
	for octant := 0; octant < 8; octant++ {
		if len(childItems[octant]) == 0 {
			continue
		}
		cmin, cmax := childBound(octant, min, max, mid)
		childLevel := level + 1
		if fullReplicas > 1 || smallestEdge(cmin, cmax) < 4*tolerance {
			childLevel = maxLevels
		}
		n.children[octant] = build(childLevel, cmin, cmax, childItems[octant])
	}
	return n
}

// childBound returns the bound of the given octant (bit i of octant
// selects the low or high half of axis i) within [min,max] split at mid.
func childBound(octant int, min, max, mid vector.Vec3) (vector.Vec3, vector.Vec3) {
	sel := func(axis int, lo, hi float64) float64 {
		if (octant>>uint(axis))&1 == 1 {
			return hi
		}
		return lo
	}
	cmin := vector.V3(sel(0, min.X, mid.X), sel(1, min.Y, mid.Y), sel(2, min.Z, mid.Z))
	cmax := vector.V3(sel(0, mid.X, max.X), sel(1, mid.Y, max.Y), sel(2, mid.Z, max.Z))
	return cmin, cmax
}

// overlaps reports whether box a overlaps box b on every axis, using
// the asymmetric test (>= on the low side, < on the high side) that
// keeps an item straddling a midplane from being dropped by either
// neighbor.
func overlaps(aMin, aMax, bMin, bMax vector.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if bMin.At(axis) > aMax.At(axis) || aMin.At(axis) >= bMax.At(axis) {
			return false
		}
	}
	return true
}

func smallestEdge(min, max vector.Vec3) float64 {
	e := max.Sub(min)
	return math.Min(e.X, math.Min(e.Y, e.Z))
}

func octantOf(p, mid vector.Vec3) int {
	octant := 0
	if p.X >= mid.X {
		octant |= 1
	}
	if p.Y >= mid.Y {
		octant |= 2
	}
	if p.Z >= mid.Z {
		octant |= 4
	}
	return octant
}

// Intersect returns the nearest item (and hit point) struck by the ray
// (origin o, unit direction d), ignoring any item equal to lastHit
// under == (set hasLastHit false when there is none, e.g. the primary
// ray). Returns ok=false if nothing is hit.
func (idx *Octree[T]) Intersect(origin, dir vector.Vec3, lastHit T, hasLastHit bool) (item T, hit vector.Vec3, ok bool) {
	return traverse(idx.root, origin, dir, lastHit, hasLastHit, origin)
}

func traverse[T Item](n *node[T], o, d vector.Vec3, lastHit T, hasLastHit bool, start vector.Vec3) (T, vector.Vec3, bool) {
	if !n.isBranch {
		return intersectLeaf(n, o, d, lastHit, hasLastHit)
	}

	mid := n.min.Add(n.max).Scale(0.5)
	octant := octantOf(start, mid)

	for {
		if child := n.children[octant]; child != nil {
			cmin, cmax := childBound(octant, n.min, n.max, mid)
			entry := clampInto(start, cmin, cmax)
			if item, hit, ok := traverse(child, o, d, lastHit, hasLastHit, entry); ok {
				return item, hit, true
			}
		}

		bestAxis := -1
		bestDist := math.Inf(1)
		for axis := 0; axis < 3; axis++ {
			dv := d.At(axis)
			bit := (octant >> uint(axis)) & 1
			var face float64
			switch {
			case dv > 0:
				if bit == 1 {
					face = n.max.At(axis)
				} else {
					face = mid.At(axis)
				}
			case dv < 0:
				if bit == 0 {
					face = n.min.At(axis)
				} else {
					face = mid.At(axis)
				}
			default:
				continue
			}
			dist := (face - start.At(axis)) / dv
			if dist < bestDist {
				bestDist = dist
				bestAxis = axis
			}
		}
		if bestAxis == -1 {
			var zero T
			return zero, vector.Zero(), false
		}

		bit := (octant >> uint(bestAxis)) & 1
		movingPositive := d.At(bestAxis) > 0
		if (movingPositive && bit == 1) || (!movingPositive && bit == 0) {
			var zero T
			return zero, vector.Zero(), false // would exit this node
		}

		octant ^= 1 << uint(bestAxis)
		start = o.Add(d.Scale(bestDist))
	}
}

func clampInto(p, min, max vector.Vec3) vector.Vec3 {
	return p.Max(min).Min(max)
}

func intersectLeaf[T Item](n *node[T], o, d vector.Vec3, lastHit T, hasLastHit bool) (T, vector.Vec3, bool) {
	var best T
	found := false
	bestDist := math.Inf(1)
	for _, it := range n.items {
		if hasLastHit && it == lastHit {
			continue
		}
		dist, ok := it.Intersect(o, d)
		if !ok || dist >= bestDist {
			continue
		}
		hit := o.Add(d.Scale(dist))
		if !pointInBound(hit, n.min, n.max) {
			continue
		}
		best = it
		found = true
		bestDist = dist
	}
	if !found {
		var zero T
		return zero, vector.Zero(), false
	}
	return best, o.Add(d.Scale(bestDist)), true
}

func pointInBound(p, min, max vector.Vec3) bool {
	lo := min.Sub(vector.Splat(tolerance))
	hi := max.Add(vector.Splat(tolerance))
	for axis := 0; axis < 3; axis++ {
		if p.At(axis) < lo.At(axis) || p.At(axis) > hi.At(axis) {
			return false
		}
	}
	return true
}
