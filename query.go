package physics

import "math"

// query.go implements the raycast/convex-cast query layer named in
// SPEC_FULL.md's "Supplemented features": spec.md treats geometric
// queries as an external collaborator, but every engine in the pack
// exposes them directly off the world, mirrored here from the teacher's
// `PointQueryNearest`/`SegmentQueryFirst`/ray call sites in space.go.

// RayCastHit is one fixture intersection along a ray.
type RayCastHit struct {
	Body     *Body
	Fixture  *Fixture
	Point    Vec2
	Normal   Vec2
	Fraction float64
}

// RayCastAll returns every fixture the ray (origin, direction,
// unnormalized, scaled so that origin+direction is the ray's far end)
// intersects, in the broad-phase's candidate order, each refined with an
// exact shape-vs-ray test.
func RayCastAll(bp Broadphase, origin, direction Vec2) []RayCastHit {
	length := direction.Len()
	if length < 1e-12 {
		return nil
	}
	candidates := bp.RayCast(origin, direction, 1.0)
	var hits []RayCastHit
	for _, item := range candidates {
		if item.Body == nil || item.Fixture == nil {
			continue
		}
		if hit, ok := rayCastShape(item, origin, direction); ok {
			hits = append(hits, hit)
		}
	}
	return hits
}

// RayCastClosest returns only the nearest intersection along the ray, if any.
func RayCastClosest(bp Broadphase, origin, direction Vec2) (RayCastHit, bool) {
	hits := RayCastAll(bp, origin, direction)
	if len(hits) == 0 {
		return RayCastHit{}, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.Fraction < best.Fraction {
			best = h
		}
	}
	return best, true
}

func rayCastShape(item BroadphaseItem, origin, direction Vec2) (RayCastHit, bool) {
	t := item.Body.Transform()
	aabb := item.Fixture.AABB(t)
	fraction, hit := aabb.RayCast(origin, direction, 1.0)
	if !hit {
		return RayCastHit{}, false
	}

	switch sh := item.Fixture.Shape.(type) {
	case Circle:
		center := t.TransformPoint(sh.Center)
		f, ok := rayCastCircle(origin, direction, center, sh.R)
		if !ok {
			return RayCastHit{}, false
		}
		point := origin.Add(direction.Mul(f))
		return RayCastHit{Body: item.Body, Fixture: item.Fixture, Point: point, Normal: safeNormalize(point.Sub(center)), Fraction: f}, true
	case Polygon:
		f, normal, ok := rayCastPolygon(origin, direction, sh, t)
		if !ok {
			return RayCastHit{}, false
		}
		point := origin.Add(direction.Mul(f))
		return RayCastHit{Body: item.Body, Fixture: item.Fixture, Point: point, Normal: normal, Fraction: f}, true
	default:
		// No exact test available for this shape kind; fall back to the
		// broad-phase AABB fraction already computed above.
		return RayCastHit{Body: item.Body, Fixture: item.Fixture, Point: origin.Add(direction.Mul(fraction)), Fraction: fraction}, true
	}
}

func rayCastCircle(origin, direction, center Vec2, radius float64) (float64, bool) {
	m := origin.Sub(center)
	b := m.Dot(direction)
	c := m.Dot(m) - radius*radius
	a := direction.Dot(direction)
	discriminant := b*b - a*c
	if discriminant < 0 || a < 1e-12 {
		return 0, false
	}
	t := (-b - math.Sqrt(discriminant)) / a
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// rayCastPolygon clips the ray's parameter interval against each edge's
// half-plane, the standard slab approach for convex polygons.
func rayCastPolygon(origin, direction Vec2, poly Polygon, t Transform) (float64, Vec2, bool) {
	localOrigin := t.InverseTransformPoint(origin)
	localDir := t.InverseTransformVector(direction)

	lower, upper := 0.0, 1.0
	var normal Vec2
	found := false

	for i, v := range poly.Vertices {
		n := poly.Normals[i]
		num := n.Dot(v.Sub(localOrigin))
		den := n.Dot(localDir)
		if den == 0 {
			if num < 0 {
				return 0, Vec2{}, false
			}
			continue
		}
		frac := num / den
		if den < 0 && frac > lower {
			lower = frac
			normal = n
			found = true
		} else if den > 0 && frac < upper {
			upper = frac
		}
		if lower > upper {
			return 0, Vec2{}, false
		}
	}
	if !found {
		return 0, Vec2{}, false
	}
	return lower, t.TransformVector(normal), true
}

// ConvexCastHit is the result of sweeping a shape along a translation.
type ConvexCastHit struct {
	Body     *Body
	Fixture  *Fixture
	Fraction float64
}

// ConvexCastAll sweeps shape (at the given starting transform) by
// translation and reports every broad-phase candidate it would hit
// along the way, via conservative advancement against each candidate's
// current pose (itself treated as stationary for the sweep).
func ConvexCastAll(bp Broadphase, shape Shape, start Transform, translation Vec2) []ConvexCastHit {
	end := Transform{Translation: start.Translation.Add(translation), Angle: start.Angle}
	end = NewTransform(end.Translation, end.Angle)
	sweptAABB := shape.AABB(start).Union(shape.AABB(end))

	var hits []ConvexCastHit
	for _, item := range bp.QueryAABB(sweptAABB) {
		if item.Fixture == nil {
			continue
		}
		otherTx := item.Body.Transform()
		res := timeOfImpact(shape, start, end, item.Fixture.Shape, otherTx, otherTx)
		if res.Hit {
			hits = append(hits, ConvexCastHit{Body: item.Body, Fixture: item.Fixture, Fraction: res.Fraction})
		}
	}
	return hits
}
