package physics

import "math"

// Shape is a convex 2D geometry primitive local to a fixture. Spec.md
// §1 treats concrete geometry as an external collaborator; SPEC_FULL.md
// "Supplemented features" adds the minimal pair (circle, convex
// polygon) needed for the narrow-phase/manifold code paths to have
// something to operate on.
type Shape interface {
	// Support returns the extremum point of the shape, in local space,
	// along direction d — the GJK/EPA support function of spec.md §4.2.
	Support(d Vec2) Vec2
	// AABB returns the tight world-space AABB of the shape under t.
	AABB(t Transform) AABB
	// MassData returns the mass, centroid (local space) and rotational
	// inertia about the centroid for unit density; Fixture scales by density.
	MassData() (mass float64, centroid Vec2, inertia float64)
	// Radius returns the shape's corner/skin radius (0 for sharp polygons).
	Radius() float64
}

// Circle is a disc of the given radius centered at Center (local space).
type Circle struct {
	Center Vec2
	R      float64
}

func (c Circle) Support(d Vec2) Vec2 {
	n := safeNormalize(d)
	return c.Center.Add(n.Mul(c.R))
}

func (c Circle) AABB(t Transform) AABB {
	center := t.TransformPoint(c.Center)
	return AABB{
		Min: Vec2{center[0] - c.R, center[1] - c.R},
		Max: Vec2{center[0] + c.R, center[1] + c.R},
	}
}

func (c Circle) MassData() (float64, Vec2, float64) {
	mass := math.Pi * c.R * c.R
	inertia := mass * (0.5 * c.R * c.R)
	return mass, c.Center, inertia
}

func (c Circle) Radius() float64 { return c.R }

// Polygon is a convex polygon given by its local-space vertices in
// counter-clockwise winding order.
type Polygon struct {
	Vertices []Vec2
	Normals  []Vec2 // outward edge normals, parallel to Vertices.
}

// NewPolygon builds a Polygon from CCW vertices and derives edge normals.
func NewPolygon(vertices []Vec2) Polygon {
	p := Polygon{Vertices: append([]Vec2{}, vertices...)}
	n := len(vertices)
	p.Normals = make([]Vec2, n)
	for i := 0; i < n; i++ {
		edge := p.Vertices[(i+1)%n].Sub(p.Vertices[i])
		p.Normals[i] = safeNormalize(rperp(edge))
	}
	return p
}

// NewBoxPolygon builds an axis-aligned box polygon of the given
// half-extents centered on the origin.
func NewBoxPolygon(hx, hy float64) Polygon {
	return NewPolygon([]Vec2{
		{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy},
	})
}

func (p Polygon) Support(d Vec2) Vec2 {
	best := 0
	bestDot := p.Vertices[0].Dot(d)
	for i := 1; i < len(p.Vertices); i++ {
		dot := p.Vertices[i].Dot(d)
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return p.Vertices[best]
}

func (p Polygon) AABB(t Transform) AABB {
	world := t.TransformPoint(p.Vertices[0])
	aabb := AABB{Min: world, Max: world}
	for _, v := range p.Vertices[1:] {
		w := t.TransformPoint(v)
		aabb.Min = Vec2{math.Min(aabb.Min[0], w[0]), math.Min(aabb.Min[1], w[1])}
		aabb.Max = Vec2{math.Max(aabb.Max[0], w[0]), math.Max(aabb.Max[1], w[1])}
	}
	return aabb
}

func (p Polygon) MassData() (float64, Vec2, float64) {
	// Standard polygon mass-properties formula (shoelace-weighted),
	// computed about the origin of local space then shifted to the
	// centroid, matching the usual 2D engine derivation (Box2D's
	// b2PolygonShape::ComputeMass is the canonical reference for this).
	var area, centroidX, centroidY, inertia float64
	const k = 1.0 / 3.0
	origin := p.Vertices[0]
	for i := 1; i+1 < len(p.Vertices); i++ {
		e1 := p.Vertices[i].Sub(origin)
		e2 := p.Vertices[i+1].Sub(origin)
		d := cross2(e1, e2)
		triArea := 0.5 * d
		area += triArea
		centroidX += triArea * k * (e1[0] + e2[0])
		centroidY += triArea * k * (e1[1] + e2[1])
		intx2 := e1[0]*e1[0] + e1[0]*e2[0] + e2[0]*e2[0]
		inty2 := e1[1]*e1[1] + e1[1]*e2[1] + e2[1]*e2[1]
		inertia += (0.25 * k * d) * (intx2 + inty2)
	}
	if area < 1e-12 {
		return 0, p.Vertices[0], 0
	}
	centroid := Vec2{centroidX / area, centroidY / area}.Add(origin)
	// Shift inertia from origin to centroid (parallel-axis theorem).
	inertia -= area * origin.Sub(centroid).Dot(origin.Sub(centroid))
	return area, centroid, inertia
}

func (p Polygon) Radius() float64 { return 0 }
