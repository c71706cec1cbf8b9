package physics

import "math"

// narrowphase.go implements spec.md §4.2: GJK for overlap/separation,
// EPA to extract penetration depth when GJK finds overlap. Reduced from
// `gazed-vu/physics/gjk.go` and `epa.go` (a 3D port of
// felipeek/raw-physics using a 4-vertex tetrahedral simplex and 3D
// polytope faces) to 2D: the simplex tops out at a triangle and the
// "polytope" is a 2D convex polygon of edges instead of 3D faces.

const gjkEpsilon = 1e-8
const gjkMaxIterations = 64
const epaMaxIterations = 64
const epaEpsilon = 1e-8

// Penetration describes overlap between two shapes (spec.md §4.2): a
// unit normal pointing from shape A to shape B, and a positive depth.
type Penetration struct {
	Normal Vec2
	Depth  float64
	Hit    bool
}

// Separation describes the gap between two non-overlapping shapes.
type Separation struct {
	Normal      Vec2
	Distance    float64
	ClosestA    Vec2
	ClosestB    Vec2
}

// support computes a point of the Minkowski difference shapeA ⊖ shapeB
// along direction d, in world space, together with the contributing
// world-space witness points on each shape.
type supportPoint struct {
	point Vec2 // world-space point on the Minkowski difference.
	a, b  Vec2 // world-space witness points on shape A and B.
}

func support(shapeA Shape, txA Transform, shapeB Shape, txB Transform, d Vec2) supportPoint {
	localDA := txA.InverseTransformVector(d)
	localDB := txB.InverseTransformVector(d.Mul(-1))
	wa := txA.TransformPoint(shapeA.Support(localDA))
	wb := txB.TransformPoint(shapeB.Support(localDB))
	return supportPoint{point: wa.Sub(wb), a: wa, b: wb}
}

// simplex2D is a GJK simplex of up to three vertices in the
// configuration-space difference (spec.md §4.2).
type simplex2D struct {
	pts [3]supportPoint
	n   int
}

func (s *simplex2D) push(p supportPoint) {
	copy(s.pts[1:], s.pts[:s.n])
	s.pts[0] = p
	if s.n < 3 {
		s.n++
	}
}

// GJK runs the GJK algorithm between two shapes under their transforms.
// It returns whether the shapes overlap and, if so, the final simplex
// for EPA to expand.
func GJK(shapeA Shape, txA Transform, shapeB Shape, txB Transform) (overlap bool, simplex simplex2D) {
	dir := txA.TransformPoint(Vec2Zero).Sub(txB.TransformPoint(Vec2Zero))
	if dir.Dot(dir) < 1e-20 {
		dir = Vec2{1, 0}
	}
	simplex.push(support(shapeA, txA, shapeB, txB, dir))
	dir = simplex.pts[0].point.Mul(-1)

	for i := 0; i < gjkMaxIterations; i++ {
		if dir.Dot(dir) < gjkEpsilon {
			return true, simplex
		}
		next := support(shapeA, txA, shapeB, txB, dir)
		if next.point.Dot(dir) < 0 {
			return false, simplex
		}
		simplex.push(next)
		var contained bool
		contained, dir = doSimplex2D(&simplex)
		if contained {
			return true, simplex
		}
	}
	// Iteration cap hit: treat the best current approximation as
	// "no collision" per spec.md §4.2 edge-case policy.
	return false, simplex
}

// doSimplex2D reduces the simplex to the feature closest to the origin
// and returns the next search direction, or (true, _) if the origin is
// contained in the simplex.
func doSimplex2D(s *simplex2D) (contained bool, dir Vec2) {
	switch s.n {
	case 2:
		a, b := s.pts[0].point, s.pts[1].point
		ab := b.Sub(a)
		ao := a.Mul(-1)
		if ab.Dot(ao) > 0 {
			return false, tripleCross(ab, ao, ab)
		}
		s.n = 1
		return false, ao
	case 3:
		a, b, c := s.pts[0].point, s.pts[1].point, s.pts[2].point
		ab := b.Sub(a)
		ac := c.Sub(a)
		ao := a.Mul(-1)
		abPerp := tripleCross(ac, ab, ab)
		acPerp := tripleCross(ab, ac, ac)
		if abPerp.Dot(ao) > 0 {
			s.n = 2
			return false, abPerp
		}
		if acPerp.Dot(ao) > 0 {
			s.pts[1] = s.pts[2]
			s.n = 2
			return false, acPerp
		}
		return true, Vec2Zero
	}
	return false, Vec2Zero
}

// tripleCross computes (a x b) x c in the 2D sense used to pick the
// direction perpendicular to an edge that still points toward ao,
// mirroring `gazed-vu/physics/gjk.go`'s `triple_cross` (there a genuine
// 3D double-cross; here expanded via the BAC-CAB identity since 2D has
// no vector cross product result to chain through).
func tripleCross(a, b, c Vec2) Vec2 {
	ac := a.Dot(c)
	bc := b.Dot(c)
	return Vec2{b[0]*ac - a[0]*bc, b[1]*ac - a[1]*bc}
}

// polygonEdge is one edge of the expanding EPA polytope.
type polygonEdge struct {
	a, b           supportPoint
	normal         Vec2
	distance       float64
}

// EPA expands the GJK terminal simplex into a convex polytope (here, a
// 2D polygon) to extract the penetration normal and depth, following
// `gazed-vu/physics/epa.go`'s expand-by-support-point loop reduced from
// 3D faces to 2D edges.
func EPA(shapeA Shape, txA Transform, shapeB Shape, txB Transform, simplex simplex2D) (Penetration, supportPoint, supportPoint) {
	if simplex.n < 3 {
		return Penetration{}, supportPoint{}, supportPoint{}
	}
	polytope := []supportPoint{simplex.pts[0], simplex.pts[1], simplex.pts[2]}
	ensureCCW(polytope)

	for iter := 0; iter < epaMaxIterations; iter++ {
		edge := closestEdge(polytope)
		newPoint := support(shapeA, txA, shapeB, txB, edge.normal)
		d := newPoint.point.Dot(edge.normal)

		if d-edge.distance < epaEpsilon {
			depth := edge.distance
			if depth <= 0 {
				// Zero-depth EPA result is a numerical artifact, not a
				// real collision (spec.md §4.2 edge-case policy).
				return Penetration{}, supportPoint{}, supportPoint{}
			}
			return Penetration{Normal: edge.normal, Depth: depth, Hit: true}, edge.a, edge.b
		}

		polytope = insertAfterEdge(polytope, edge, newPoint)
	}
	// Iteration cap: return the best current approximation.
	edge := closestEdge(polytope)
	if edge.distance <= 0 {
		return Penetration{}, supportPoint{}, supportPoint{}
	}
	return Penetration{Normal: edge.normal, Depth: edge.distance, Hit: true}, edge.a, edge.b
}

func ensureCCW(p []supportPoint) {
	area := 0.0
	for i := range p {
		a := p[i].point
		b := p[(i+1)%len(p)].point
		area += cross2(a, b)
	}
	if area < 0 {
		for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
	}
}

func closestEdge(polytope []supportPoint) polygonEdge {
	best := polygonEdge{distance: math.MaxFloat64}
	n := len(polytope)
	for i := 0; i < n; i++ {
		a := polytope[i]
		b := polytope[(i+1)%n]
		edgeVec := b.point.Sub(a.point)
		normal := safeNormalize(rperp(edgeVec))
		dist := normal.Dot(a.point)
		if dist < 0 {
			normal = normal.Mul(-1)
			dist = -dist
		}
		if dist < best.distance {
			best = polygonEdge{a: a, b: b, normal: normal, distance: dist}
		}
	}
	return best
}

func insertAfterEdge(polytope []supportPoint, edge polygonEdge, point supportPoint) []supportPoint {
	n := len(polytope)
	for i := 0; i < n; i++ {
		if polytope[i].point == edge.a.point && polytope[(i+1)%n].point == edge.b.point {
			out := make([]supportPoint, 0, n+1)
			out = append(out, polytope[:i+1]...)
			out = append(out, point)
			out = append(out, polytope[i+1:]...)
			return out
		}
	}
	return append(polytope, point)
}

// Distance runs GJK to find the separation between two non-overlapping
// shapes: a unit normal, the gap distance, and the closest witness
// point on each shape (spec.md §4.2 "If not overlapping, produce a
// separation"). Used by the conservative-advancement TOI detector
// (toi.go), which repeatedly needs the current gap between two convex
// shapes under interpolated transforms.
func Distance(shapeA Shape, txA Transform, shapeB Shape, txB Transform) Separation {
	dir := txA.TransformPoint(Vec2Zero).Sub(txB.TransformPoint(Vec2Zero))
	if dir.Dot(dir) < 1e-20 {
		dir = Vec2{1, 0}
	}
	var simplex simplex2D
	simplex.push(support(shapeA, txA, shapeB, txB, dir))

	for i := 0; i < gjkMaxIterations; i++ {
		closest, witnessA, witnessB := closestOnSimplex(&simplex)
		if closest.Dot(closest) < gjkEpsilon {
			// Overlapping: no meaningful separation to report.
			return Separation{}
		}
		dir = closest.Mul(-1)
		next := support(shapeA, txA, shapeB, txB, dir)
		improvement := closest.Dot(closest) - next.point.Dot(dir.Mul(-1))
		if improvement < gjkEpsilon {
			n := safeNormalize(closest)
			return Separation{Normal: n, Distance: closest.Len(), ClosestA: witnessA, ClosestB: witnessB}
		}
		simplex.push(next)
		if simplex.n == 3 {
			simplex.n = pruneToClosestFeature(&simplex)
		}
	}
	closest, witnessA, witnessB := closestOnSimplex(&simplex)
	return Separation{Normal: safeNormalize(closest), Distance: closest.Len(), ClosestA: witnessA, ClosestB: witnessB}
}

// closestOnSimplex returns the closest point to the origin on the
// current simplex (vertex, edge, or — if it already contains the
// origin — the zero vector) together with its witness points on each
// shape, recovered via barycentric interpolation of the simplex's
// support points.
func closestOnSimplex(s *simplex2D) (closest, witnessA, witnessB Vec2) {
	switch s.n {
	case 1:
		return s.pts[0].point, s.pts[0].a, s.pts[0].b
	case 2:
		a, b := s.pts[0], s.pts[1]
		ab := b.point.Sub(a.point)
		t := 0.0
		denom := ab.Dot(ab)
		if denom > 1e-12 {
			t = -a.point.Dot(ab) / denom
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
		}
		closest = a.point.Add(ab.Mul(t))
		witnessA = lerp2(a.a, b.a, t)
		witnessB = lerp2(a.b, b.b, t)
		return closest, witnessA, witnessB
	case 3:
		// Origin already enclosed (GJK would have reported overlap);
		// report the centroid as a degenerate closest point.
		c := s.pts[0].point.Add(s.pts[1].point).Add(s.pts[2].point).Mul(1.0 / 3.0)
		return c, s.pts[0].a, s.pts[0].b
	}
	return Vec2Zero, Vec2Zero, Vec2Zero
}

// pruneToClosestFeature drops the simplex vertex not part of the edge
// closest to the origin, keeping the simplex at size 2 (a line segment)
// for the next iteration's distance query.
func pruneToClosestFeature(s *simplex2D) int {
	bestDist := math.MaxFloat64
	bestI, bestJ := 0, 1
	for i := 0; i < s.n; i++ {
		j := (i + 1) % s.n
		ab := s.pts[j].point.Sub(s.pts[i].point)
		t := 0.0
		denom := ab.Dot(ab)
		if denom > 1e-12 {
			t = -s.pts[i].point.Dot(ab) / denom
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
		}
		p := s.pts[i].point.Add(ab.Mul(t))
		d := p.Dot(p)
		if d < bestDist {
			bestDist = d
			bestI, bestJ = i, j
		}
	}
	a, b := s.pts[bestI], s.pts[bestJ]
	s.pts[0], s.pts[1] = a, b
	return 2
}

// NarrowphaseDetector is the pluggable interface of spec.md §6
// (`set_narrowphase_detector`).
type NarrowphaseDetector interface {
	Detect(shapeA Shape, txA Transform, shapeB Shape, txB Transform) (Penetration, bool)
}

// GJKEPADetector is the default narrow-phase detector.
type GJKEPADetector struct{}

func (GJKEPADetector) Detect(shapeA Shape, txA Transform, shapeB Shape, txB Transform) (Penetration, bool) {
	overlap, simplex := GJK(shapeA, txA, shapeB, txB)
	if !overlap {
		return Penetration{}, false
	}
	pen, _, _ := EPA(shapeA, txA, shapeB, txB, simplex)
	return pen, pen.Hit
}
