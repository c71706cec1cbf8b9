package physics

import "math"

// AABB is an axis-aligned bounding box, used both as the tight
// per-fixture bound (recomputed every step from shape+transform) and as
// the broad-phase's padded "fat" bound (dynamictree.go, spatialhash.go).
type AABB struct {
	Min, Max Vec2
}

// NewAABB builds an AABB from two corner points, normalizing min/max.
func NewAABB(a, b Vec2) AABB {
	return AABB{
		Min: Vec2{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: Vec2{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}
}

// Width/Height of the box.
func (b AABB) Width() float64  { return b.Max[0] - b.Min[0] }
func (b AABB) Height() float64 { return b.Max[1] - b.Min[1] }

// Center of the box.
func (b AABB) Center() Vec2 {
	return Vec2{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}

// Perimeter is used by the broad-phase's surface-area-heuristic rotation
// (spec.md §4.1 "SAH rotation"); in 2D that heuristic operates on
// perimeter rather than area.
func (b AABB) Perimeter() float64 {
	return 2 * (b.Width() + b.Height())
}

// Union returns the smallest AABB containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: Vec2{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1])},
		Max: Vec2{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1])},
	}
}

// Expand pads the AABB by r on every side, producing the broad-phase's
// "fat" AABB (spec.md §4.1, default expansion ~0.2 world units).
func (b AABB) Expand(r float64) AABB {
	return AABB{
		Min: Vec2{b.Min[0] - r, b.Min[1] - r},
		Max: Vec2{b.Max[0] + r, b.Max[1] + r},
	}
}

// Contains reports whether o is fully inside b — the broad-phase uses
// this to decide whether a tight AABB still fits its stored fat AABB.
func (b AABB) Contains(o AABB) bool {
	return b.Min[0] <= o.Min[0] && b.Min[1] <= o.Min[1] &&
		b.Max[0] >= o.Max[0] && b.Max[1] >= o.Max[1]
}

// Overlaps reports whether b and o intersect.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1]
}

// Shift translates the AABB by v — spec.md §4.1 `shift(v)`.
func (b AABB) Shift(v Vec2) AABB {
	return AABB{Min: b.Min.Add(v), Max: b.Max.Add(v)}
}

// ContainsPoint reports whether p lies within b.
func (b AABB) ContainsPoint(p Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

// RayCast intersects a ray (origin o, direction d, not required to be
// unit length) against the box, restricted to [0, maxFraction] of d's
// length. Returns the hit fraction and whether a hit occurred, using the
// standard slab method.
func (b AABB) RayCast(o, d Vec2, maxFraction float64) (fraction float64, hit bool) {
	tmin, tmax := 0.0, maxFraction
	for axis := 0; axis < 2; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			if o[axis] < b.Min[axis] || o[axis] > b.Max[axis] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / d[axis]
		t1 := (b.Min[axis] - o[axis]) * inv
		t2 := (b.Max[axis] - o[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
