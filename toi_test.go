package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeOfImpactDetectsApproachingBullet(t *testing.T) {
	bullet := Circle{R: 0.1}
	wall := NewBoxPolygon(0.1, 2)

	txA0 := Transform{Translation: Vec2{-10, 0}}
	txA1 := Transform{Translation: Vec2{10, 0}}
	txB0 := Transform{Translation: Vec2{0, 0}}
	txB1 := Transform{Translation: Vec2{0, 0}}

	res := timeOfImpact(bullet, txA0, txA1, wall, txB0, txB1)
	assert.True(t, res.Hit, "a bullet sweeping straight through a stationary wall must register a TOI hit")
	assert.Greater(t, res.Fraction, 0.0)
	assert.Less(t, res.Fraction, 1.0)
}

func TestTimeOfImpactMissesDivergingMotion(t *testing.T) {
	a := Circle{R: 0.1}
	b := Circle{R: 0.1}

	txA0 := Transform{Translation: Vec2{0, 0}}
	txA1 := Transform{Translation: Vec2{-10, 0}}
	txB0 := Transform{Translation: Vec2{1, 0}}
	txB1 := Transform{Translation: Vec2{11, 0}}

	res := timeOfImpact(a, txA0, txA1, b, txB0, txB1)
	assert.False(t, res.Hit, "shapes moving apart the whole step must not report a TOI hit")
}

func TestTimeOfImpactRejectsAlreadyOverlapping(t *testing.T) {
	a := Circle{R: 1}
	b := Circle{R: 1}

	txA0 := Transform{Translation: Vec2{0, 0}}
	txA1 := Transform{Translation: Vec2{0, 0}}
	txB0 := Transform{Translation: Vec2{0.5, 0}}
	txB1 := Transform{Translation: Vec2{0.5, 0}}

	res := timeOfImpact(a, txA0, txA1, b, txB0, txB1)
	assert.False(t, res.Hit, "shapes already overlapping at the start of the step are the discrete narrow-phase's job, not CCD")
}

func TestBoundingRadiusCircleIncludesOffsetAndRadius(t *testing.T) {
	c := Circle{Center: Vec2{1, 0}, R: 0.5}
	assert.InDelta(t, 1.5, boundingRadius(c), 1e-9)
}

func TestBoundingRadiusPolygonUsesFarthestVertex(t *testing.T) {
	p := NewBoxPolygon(1, 1)
	assert.InDelta(t, 1.4142135623730951, boundingRadius(p), 1e-9)
}
