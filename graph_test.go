package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dynamicBodyWithBox() *Body {
	b := NewBody()
	b.AddFixture(NewFixture(NewBoxPolygon(0.5, 0.5)))
	return b
}

func TestExtractIslandsGroupsConnectedBodies(t *testing.T) {
	a, b, c := dynamicBodyWithBox(), dynamicBodyWithBox(), dynamicBodyWithBox()
	g := newConstraintGraph()
	cc := &ContactConstraint{Body1: a, Body2: b, Enabled: true}
	g.addContactEdge(cc)

	islands := g.extractIslands()
	assert.Len(t, islands, 1)
	assert.Len(t, islands[0].Bodies, 2)
	assert.NotContains(t, islands[0].Bodies, c)
}

func TestStaticBodyDoesNotPropagateIsland(t *testing.T) {
	ground := NewBody()
	ground.SetMassType(MassStatic)
	a := dynamicBodyWithBox()
	b := dynamicBodyWithBox()

	g := newConstraintGraph()
	g.addContactEdge(&ContactConstraint{Body1: a, Body2: ground, Enabled: true})
	g.addContactEdge(&ContactConstraint{Body1: ground, Body2: b, Enabled: true})

	islands := g.extractIslands()
	assert.Len(t, islands, 2, "two dynamic bodies sharing only a static contact must not merge into one island")
	for _, isl := range islands {
		assert.Len(t, isl.Bodies, 1)
		assert.NotContains(t, isl.Bodies, ground, "static bodies never become island members")
	}
}

func TestExtractIslandsDedupesEdges(t *testing.T) {
	a, b := dynamicBodyWithBox(), dynamicBodyWithBox()
	g := newConstraintGraph()
	cc := &ContactConstraint{Body1: a, Body2: b, Enabled: true}
	g.addContactEdge(cc)
	g.addContactEdge(cc) // same constraint traversed from both endpoints

	islands := g.extractIslands()
	assert.Len(t, islands, 1)
	assert.Len(t, islands[0].Contacts, 1)
}

func TestDisabledContactAndJointDoNotFormEdges(t *testing.T) {
	a, b, c, d := dynamicBodyWithBox(), dynamicBodyWithBox(), dynamicBodyWithBox(), dynamicBodyWithBox()
	g := newConstraintGraph()
	g.addContactEdge(&ContactConstraint{Body1: a, Body2: b, Enabled: false})
	j := NewDistanceJoint(c, d, c.Position(), d.Position())
	j.SetEnabled(false)
	g.addJointEdge(j)

	islands := g.extractIslands()
	assert.Len(t, islands, 0, "a disabled contact or joint contributes no graph nodes at all")
}

func TestIsAtRestRequiresEveryBodySettled(t *testing.T) {
	a, b := dynamicBodyWithBox(), dynamicBodyWithBox()
	a.restTime, b.restTime = 1.0, 1.0
	isl := &Island{Bodies: []*Body{a, b}}
	assert.True(t, isl.isAtRest(0.01, 0.01, 0.5))

	b.LinearVelocity = Vec2{5, 0}
	assert.False(t, isl.isAtRest(0.01, 0.01, 0.5))
}
