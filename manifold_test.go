package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircleCircleManifoldSinglePoint(t *testing.T) {
	a := Circle{R: 1}
	b := Circle{R: 1}
	txA := NewTransform(Vec2{0, 0}, 0)
	txB := NewTransform(Vec2{1.5, 0}, 0)
	pen := Penetration{Normal: Vec2{1, 0}, Depth: 0.5, Hit: true}
	m := circleCircleManifold(a, txA, b, txB, pen)
	assert.Len(t, m.Points, 1)
	assert.InDelta(t, 0.5, m.Points[0].Depth, 1e-9)
}

func TestCirclePolygonManifoldPicksNearFaceAndPositiveDepth(t *testing.T) {
	box := NewBoxPolygon(1, 1) // spans x,y in [-1, 1]
	txBox := NewTransform(Vec2{0, 0}, 0)
	circle := Circle{R: 1}
	txCircle := NewTransform(Vec2{1.5, 0}, 0) // overlaps the box's right face by 0.5

	// bIsCircle path: shapeA = box, shapeB = circle.
	normal := Vec2{1, 0} // polygon -> circle, matches the EPA A->B convention here (A=box)
	m := circlePolygonManifold(circle, txCircle, box, txBox, normal, false)
	assert.Len(t, m.Points, 1)
	assert.InDelta(t, 0.5, m.Points[0].Depth, 1e-9)
	assert.InDelta(t, 1.0, m.Points[0].Point[0], 1e-9, "closest point should sit on the box's near (right) face, not the far face")
	assert.Equal(t, Vec2{1, 0}, m.Normal)

	// aIsCircle path: shapeA = circle, shapeB = box; normal passed in is
	// negated by the clippingManifold dispatcher before calling here.
	m2 := circlePolygonManifold(circle, txCircle, box, txBox, normal, true)
	assert.InDelta(t, 0.5, m2.Points[0].Depth, 1e-9)
	assert.Equal(t, Vec2{-1, 0}, m2.Normal, "A->B normal must point circle->polygon when the circle is shape A")
}

func TestClippingManifoldBoxOnBox(t *testing.T) {
	solver := ClippingManifoldSolver{}
	a := NewBoxPolygon(1, 1)
	b := NewBoxPolygon(1, 1)
	txA := NewTransform(Vec2{0, 0}, 0)
	txB := NewTransform(Vec2{0, 1.5}, 0)
	pen := Penetration{Normal: Vec2{0, 1}, Depth: 0.5, Hit: true}
	m := solver.Solve(a, txA, b, txB, pen)
	assert.Len(t, m.Points, 2, "two boxes face-to-face should clip to a two-point manifold")
	for _, p := range m.Points {
		assert.InDelta(t, 0.5, p.Depth, 1e-6)
	}
}

func TestClipSegmentFullyInside(t *testing.T) {
	seg := [2]Vec2{{0, 0}, {1, 0}}
	out := clipSegment(seg, Vec2{1, 0}, 2)
	assert.NotNil(t, out)
	assert.Equal(t, seg, *out)
}

func TestClipSegmentFullyOutside(t *testing.T) {
	seg := [2]Vec2{{3, 0}, {4, 0}}
	out := clipSegment(seg, Vec2{1, 0}, 2)
	assert.Nil(t, out)
}

func TestClipSegmentPartialClip(t *testing.T) {
	seg := [2]Vec2{{0, 0}, {4, 0}}
	out := clipSegment(seg, Vec2{1, 0}, 2)
	assert.NotNil(t, out)
	assert.Equal(t, Vec2{0, 0}, out[0])
	assert.InDelta(t, 2.0, out[1][0], 1e-9)
}

func TestManifoldFeatureIDStableAcrossSmallMovement(t *testing.T) {
	solver := ClippingManifoldSolver{}
	a := NewBoxPolygon(1, 1)
	b := NewBoxPolygon(1, 1)
	txA := NewTransform(Vec2{0, 0}, 0)
	pen := Penetration{Normal: Vec2{0, 1}, Depth: 0.5, Hit: true}

	m1 := solver.Solve(a, txA, b, NewTransform(Vec2{0, 1.5}, 0), pen)
	m2 := solver.Solve(a, txA, b, NewTransform(Vec2{0.01, 1.5}, 0), pen)
	assert.Equal(t, m1.Points[0].ID, m2.Points[0].ID, "warm starting depends on the feature id staying stable across a tiny nudge")
}

func TestPolygonManifoldTwoPointsHaveDistinctIDs(t *testing.T) {
	solver := ClippingManifoldSolver{}
	a := NewBoxPolygon(1, 1)
	b := NewBoxPolygon(1, 1)
	txA := NewTransform(Vec2{0, 0}, 0)
	txB := NewTransform(Vec2{0, 1.5}, 0)
	pen := Penetration{Normal: Vec2{0, 1}, Depth: 0.5, Hit: true}

	m := solver.Solve(a, txA, b, txB, pen)
	assert.Len(t, m.Points, 2)
	assert.NotEqual(t, m.Points[0].ID, m.Points[1].ID, "the two clipped points of a face-to-face manifold must carry distinct feature ids or warm-start matching collapses them")
}
