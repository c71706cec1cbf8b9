package physics

import "math"

// manifold.go implements spec.md §4.3: turning a penetration into 1-2
// contact points via Sutherland-Hodgman clipping of the incident edge
// against the reference edge's side planes. Reduced from
// `gazed-vu/physics/clipping.go`'s 3D face-clip-against-face-neighbors
// to the 2D case: "faces" become edges and "boundary planes" become the
// two points bounding the reference edge.

// FeatureID identifies which (reference edge index, incident edge
// index, incident vertex index) combination produced a contact point,
// used downstream by the warm-start matcher (spec.md §4.3 "stable
// identity"). IncidentVertex distinguishes the two points a single
// reference/incident edge pair can clip to (spec.md §4.3: "each point
// carries a stable identity... used downstream for warm-start
// matching" — the edge pair alone is not enough for a 2-point
// manifold, both points would otherwise collapse onto one identity).
type FeatureID struct {
	ReferenceEdge  int
	IncidentEdge   int
	IncidentVertex int
	ReferenceIsA   bool
}

// ManifoldPoint is one contact point with per-point depth.
type ManifoldPoint struct {
	ID       FeatureID
	Point    Vec2 // world-space contact point, taken on one shape's surface (not averaged between bodies).
	Depth    float64
}

// Manifold is the 1-2 point contact set of spec.md §4.3.
type Manifold struct {
	Normal Vec2 // points from shape A to shape B.
	Points []ManifoldPoint
}

// ManifoldSolver is the pluggable interface of spec.md §6
// (`set_manifold_solver`).
type ManifoldSolver interface {
	Solve(shapeA Shape, txA Transform, shapeB Shape, txB Transform, pen Penetration) Manifold
}

// ClippingManifoldSolver is the default manifold solver.
type ClippingManifoldSolver struct{}

func (ClippingManifoldSolver) Solve(shapeA Shape, txA Transform, shapeB Shape, txB Transform, pen Penetration) Manifold {
	return clippingManifold(shapeA, txA, shapeB, txB, pen)
}

// worldEdge is a polygon edge in world space: two vertices and the
// outward normal, plus which local edge/vertex index it came from.
type worldEdge struct {
	v1, v2           Vec2
	normal           Vec2
	index            int
	v1Index, v2Index int
}

// shapeWorldEdges returns the world-space edges of shape. Circles have
// none (they are always the incident shape, handled specially).
func shapeWorldEdges(s Shape, t Transform) []worldEdge {
	poly, ok := s.(Polygon)
	if !ok {
		return nil
	}
	n := len(poly.Vertices)
	edges := make([]worldEdge, n)
	for i := 0; i < n; i++ {
		edges[i] = worldEdge{
			v1:       t.TransformPoint(poly.Vertices[i]),
			v2:       t.TransformPoint(poly.Vertices[(i+1)%n]),
			normal:   t.TransformVector(poly.Normals[i]),
			index:    i,
			v1Index:  i,
			v2Index:  (i + 1) % n,
		}
	}
	return edges
}

// bestEdge picks the edge of edges whose normal most nearly matches dir.
func bestEdge(edges []worldEdge, dir Vec2) (worldEdge, bool) {
	if len(edges) == 0 {
		return worldEdge{}, false
	}
	best := edges[0]
	bestDot := best.normal.Dot(dir)
	for _, e := range edges[1:] {
		if d := e.normal.Dot(dir); d > bestDot {
			bestDot = d
			best = e
		}
	}
	return best, true
}

func clippingManifold(shapeA Shape, txA Transform, shapeB Shape, txB Transform, pen Penetration) Manifold {
	normal := pen.Normal
	_, aIsCircle := shapeA.(Circle)
	_, bIsCircle := shapeB.(Circle)

	switch {
	case aIsCircle && bIsCircle:
		return circleCircleManifold(shapeA.(Circle), txA, shapeB.(Circle), txB, pen)
	case aIsCircle:
		return circlePolygonManifold(shapeA.(Circle), txA, shapeB, txB, normal.Mul(-1), true)
	case bIsCircle:
		return circlePolygonManifold(shapeB.(Circle), txB, shapeA, txA, normal, false)
	default:
		return polygonPolygonManifold(shapeA, txA, shapeB, txB, pen)
	}
}

func circleCircleManifold(a Circle, txA Transform, b Circle, txB Transform, pen Penetration) Manifold {
	centerA := txA.TransformPoint(a.Center)
	point := centerA.Add(pen.Normal.Mul(a.R))
	return Manifold{Normal: pen.Normal, Points: []ManifoldPoint{{
		ID:    FeatureID{ReferenceEdge: 0, IncidentEdge: 0},
		Point: point,
		Depth: pen.Depth,
	}}}
}

// circlePolygonManifold handles a circle against a convex polygon (or
// another circle degenerated to a single support point). normal points
// from the polygon toward the circle; circleIsA tells us whether the
// returned Manifold.Normal should be negated to keep the A->B
// convention.
func circlePolygonManifold(c Circle, txC Transform, poly Shape, txP Transform, normal Vec2, circleIsA bool) Manifold {
	centerC := txC.TransformPoint(c.Center)
	// The point on the polygon closest to the circle is the support point
	// in the direction from the polygon toward the circle, i.e. `normal`
	// itself (the local-space support function returns the farthest
	// vertex along the given direction).
	closest := poly.Support(txP.InverseTransformVector(normal))
	closestWorld := txP.TransformPoint(closest)
	depth := c.R - normal.Dot(centerC.Sub(closestWorld))
	outNormal := normal
	if circleIsA {
		// `normal` points polygon->circle; the A->B convention needs
		// circle->polygon when the circle is shape A.
		outNormal = normal.Mul(-1)
	}
	return Manifold{Normal: outNormal, Points: []ManifoldPoint{{
		ID:    FeatureID{ReferenceEdge: 0, IncidentEdge: 0},
		Point: closestWorld,
		Depth: depth,
	}}}
}

func polygonPolygonManifold(shapeA Shape, txA Transform, shapeB Shape, txB Transform, pen Penetration) Manifold {
	edgesA := shapeWorldEdges(shapeA, txA)
	edgesB := shapeWorldEdges(shapeB, txB)

	refEdgeA, okA := bestEdge(edgesA, pen.Normal)
	refEdgeB, okB := bestEdge(edgesB, pen.Normal.Mul(-1))
	if !okA || !okB {
		return Manifold{Normal: pen.Normal}
	}

	var reference, incident worldEdge
	referenceIsA := refEdgeA.normal.Dot(pen.Normal) >= refEdgeB.normal.Dot(pen.Normal.Mul(-1))
	if referenceIsA {
		reference, incident = refEdgeA, refEdgeB
	} else {
		reference, incident = refEdgeB, refEdgeA
	}

	tangent := safeNormalize(reference.v2.Sub(reference.v1))
	clipped := clipSegment([2]Vec2{incident.v1, incident.v2}, tangent.Mul(-1), reference.v1.Dot(tangent.Mul(-1)))
	if clipped == nil {
		return Manifold{Normal: pen.Normal}
	}
	clipped = clipSegment(*clipped, tangent, reference.v2.Dot(tangent))
	if clipped == nil {
		return Manifold{Normal: pen.Normal}
	}

	refNormal := reference.normal
	refDist := refNormal.Dot(reference.v1)

	var points []ManifoldPoint
	for _, p := range clipped {
		depth := refDist - refNormal.Dot(p)
		if depth < -1e-6 {
			continue
		}
		// The clip can slide a vertex along the incident edge or
		// replace it outright with a point on the reference edge's
		// side plane; tag the contact with whichever original incident
		// vertex it still sits closest to so the two output points
		// keep distinct, stable identities across steps.
		vertexID := incident.v1Index
		if p.Sub(incident.v2).Len() < p.Sub(incident.v1).Len() {
			vertexID = incident.v2Index
		}
		points = append(points, ManifoldPoint{
			ID: FeatureID{
				ReferenceEdge:  reference.index,
				IncidentEdge:   incident.index,
				IncidentVertex: vertexID,
				ReferenceIsA:   referenceIsA,
			},
			Point: p,
			Depth: math.Max(depth, 0),
		})
	}
	return Manifold{Normal: pen.Normal, Points: points}
}

// clipSegment clips the segment seg against the half-plane
// {p : normal.Dot(p) <= offset}, matching the reference-edge side
// planes of spec.md §4.3's Sutherland-Hodgman clip. Returns nil if the
// entire segment is clipped away.
func clipSegment(seg [2]Vec2, normal Vec2, offset float64) *[2]Vec2 {
	d0 := normal.Dot(seg[0]) - offset
	d1 := normal.Dot(seg[1]) - offset

	var out []Vec2
	if d0 <= 0 {
		out = append(out, seg[0])
	}
	if d1 <= 0 {
		out = append(out, seg[1])
	}
	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		out = append(out, lerp2(seg[0], seg[1], t))
	}
	if len(out) < 2 {
		if len(out) == 1 {
			return &[2]Vec2{out[0], out[0]}
		}
		return nil
	}
	return &[2]Vec2{out[0], out[1]}
}
