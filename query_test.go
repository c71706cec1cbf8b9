package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func addToTree(tree *DynamicTree, b *Body, f *Fixture) {
	tree.Add(BroadphaseItem{Body: b, Fixture: f}, f.AABB(b.Transform()))
}

func TestRayCastAllHitsCircleAndPolygon(t *testing.T) {
	tree := NewDynamicTree(0.1)

	circleBody := NewBody()
	circleBody.SetMassType(MassStatic)
	circleFixture := NewFixture(Circle{R: 1})
	circleBody.SetPosition(Vec2{5, 0})
	circleBody.AddFixture(circleFixture)
	addToTree(tree, circleBody, circleFixture)

	boxBody := NewBody()
	boxBody.SetMassType(MassStatic)
	boxFixture := NewFixture(NewBoxPolygon(0.5, 0.5))
	boxBody.SetPosition(Vec2{3, 0})
	boxBody.AddFixture(boxFixture)
	addToTree(tree, boxBody, boxFixture)

	hits := RayCastAll(tree, Vec2{0, 0}, Vec2{10, 0})
	assert.Len(t, hits, 2)
}

func TestRayCastClosestReturnsNearestHit(t *testing.T) {
	tree := NewDynamicTree(0.1)

	circleBody := NewBody()
	circleBody.SetMassType(MassStatic)
	circleFixture := NewFixture(Circle{R: 1})
	circleBody.SetPosition(Vec2{5, 0})
	circleBody.AddFixture(circleFixture)
	addToTree(tree, circleBody, circleFixture)

	boxBody := NewBody()
	boxBody.SetMassType(MassStatic)
	boxFixture := NewFixture(NewBoxPolygon(0.5, 0.5))
	boxBody.SetPosition(Vec2{3, 0})
	boxBody.AddFixture(boxFixture)
	addToTree(tree, boxBody, boxFixture)

	hit, ok := RayCastClosest(tree, Vec2{0, 0}, Vec2{10, 0})
	assert.True(t, ok)
	assert.Same(t, boxBody, hit.Body, "the nearer polygon should win over the farther circle")
	assert.InDelta(t, 0.25, hit.Fraction, 1e-9)
}

func TestRayCastAllMissesWhenNothingInPath(t *testing.T) {
	tree := NewDynamicTree(0.1)
	hits := RayCastAll(tree, Vec2{0, 0}, Vec2{10, 0})
	assert.Empty(t, hits)
}

func TestRayCastAllReturnsNilForZeroLengthDirection(t *testing.T) {
	tree := NewDynamicTree(0.1)
	hits := RayCastAll(tree, Vec2{0, 0}, Vec2{0, 0})
	assert.Nil(t, hits)
}

func TestConvexCastAllSweepsIntoWall(t *testing.T) {
	tree := NewDynamicTree(0.1)
	wallBody := NewBody()
	wallBody.SetMassType(MassStatic)
	wallFixture := NewFixture(NewBoxPolygon(0.1, 2))
	wallBody.SetPosition(Vec2{5, 0})
	wallBody.AddFixture(wallFixture)
	addToTree(tree, wallBody, wallFixture)

	hits := ConvexCastAll(tree, Circle{R: 0.1}, Transform{Translation: Vec2{0, 0}}, Vec2{10, 0})
	assert.NotEmpty(t, hits, "a shape swept through the wall's path should register a hit")
}
