package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is the vector type used throughout the engine: position, velocity,
// normals, impulses. mathgl's Vec2 only carries the vector algebra common
// to every dimension (Add, Sub, Mul, Dot, Len); the 2D-specific operators
// below (perpendicular, scalar "cross", rotation) are added here.
type Vec2 = mgl64.Vec2

// Vec2Zero is the zero vector.
var Vec2Zero = Vec2{0, 0}

// cross2 is the 2D analogue of the 3D cross product: it returns the
// z-component of (a x b) when a and b are treated as 3D vectors with
// z=0. Positive means b is counter-clockwise from a.
func cross2(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// crossVS returns v rotated -90 degrees and scaled by s: the 2D cross
// product of a vector and a scalar (v x s), the negation of crossSV.
func crossVS(v Vec2, s float64) Vec2 {
	return Vec2{s * v[1], -s * v[0]}
}

// crossSV returns the 2D cross product of a scalar and a vector (s x v).
func crossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v[1], s * v[0]}
}

// perp returns v rotated +90 degrees.
func perp(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}

// rperp returns v rotated -90 degrees (the right perpendicular).
func rperp(v Vec2) Vec2 {
	return Vec2{v[1], -v[0]}
}

// rotate rotates v by the given angle in radians.
func rotate(v Vec2, angle float64) Vec2 {
	s, c := math.Sincos(angle)
	return Vec2{v[0]*c - v[1]*s, v[0]*s + v[1]*c}
}

// lerp2 linearly interpolates between a and b at fraction t in [0,1].
func lerp2(a, b Vec2, t float64) Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// clampVec scales v down so its length does not exceed maxLen.
func clampVec(v Vec2, maxLen float64) Vec2 {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	return v.Mul(maxLen / l)
}

// safeNormalize normalizes v, returning the zero vector (instead of NaN)
// when v is degenerate. This is one of the places spec.md §7's
// "NumericalDegeneracy... absorbed silently" policy is enforced at the
// vector-math layer.
func safeNormalize(v Vec2) Vec2 {
	l := v.Len()
	if l < 1e-12 {
		return Vec2Zero
	}
	return v.Mul(1 / l)
}
