package physics

import "math"

// Transform is a rigid 2D pose: a translation plus a rotation angle. It
// maps local-space points/vectors of a body or fixture into world space.
//
// Mirrors the teacher's implicit `body.transform` (see the `SetStaticBody`,
// `AddShape`/`shape.Update(body.transform)` call sites in the teacher's
// Space); here it is a named type instead of an opaque field so fixtures,
// joints and CCD interpolation can all operate on it directly.
type Transform struct {
	Translation Vec2
	Angle       float64
	cos, sin    float64
}

// NewTransform builds a Transform at the given translation and angle.
func NewTransform(translation Vec2, angle float64) Transform {
	t := Transform{Translation: translation, Angle: angle}
	t.sin, t.cos = math.Sincos(angle)
	return t
}

// IdentityTransform is the zero pose.
func IdentityTransform() Transform {
	return NewTransform(Vec2Zero, 0)
}

// TransformPoint maps a local-space point into world space.
func (t Transform) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		t.cos*p[0] - t.sin*p[1] + t.Translation[0],
		t.sin*p[0] + t.cos*p[1] + t.Translation[1],
	}
}

// TransformVector maps a local-space vector (no translation) into world space.
func (t Transform) TransformVector(v Vec2) Vec2 {
	return Vec2{t.cos*v[0] - t.sin*v[1], t.sin*v[0] + t.cos*v[1]}
}

// InverseTransformPoint maps a world-space point into this transform's local space.
func (t Transform) InverseTransformPoint(p Vec2) Vec2 {
	d := p.Sub(t.Translation)
	return Vec2{t.cos*d[0] + t.sin*d[1], -t.sin*d[0] + t.cos*d[1]}
}

// InverseTransformVector maps a world-space vector into this transform's local space.
func (t Transform) InverseTransformVector(v Vec2) Vec2 {
	return Vec2{t.cos*v[0] + t.sin*v[1], -t.sin*v[0] + t.cos*v[1]}
}

// Mul composes two transforms: (t.Mul(o)).TransformPoint(p) == t.TransformPoint(o.TransformPoint(p)).
func (t Transform) Mul(o Transform) Transform {
	return NewTransform(t.TransformPoint(o.Translation), t.Angle+o.Angle)
}

// Lerp interpolates between two transforms at fraction f in [0,1]. Used
// by CCD (§4.8) to reconstruct a body's pose at an intermediate time of
// impact between its previous and current transform.
func Lerp(a, b Transform, f float64) Transform {
	return NewTransform(lerp2(a.Translation, b.Translation, f), a.Angle+(b.Angle-a.Angle)*f)
}

// Shift translates a transform by v, used by World.Shift (spec.md §4.1
// `shift(v)`, the long-range coordinate renormalization operation).
func (t Transform) Shift(v Vec2) Transform {
	return NewTransform(t.Translation.Add(v), t.Angle)
}
