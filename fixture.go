package physics

import "github.com/google/uuid"

// Filter is a bit-mask collision filter (spec.md §3 Fixture). Two
// fixtures sharing a non-zero group always collide (positive group) or
// never collide (negative group); otherwise each one's Category must
// match the other's Mask, following the conventional dyn4j/Box2D
// category/mask/group scheme.
type Filter struct {
	Category uint32
	Mask     uint32
	Group    int32 // non-zero groups force-allow (>0) or force-disallow (<0) regardless of mask.
}

// DefaultFilter collides with everything.
func DefaultFilter() Filter { return Filter{Category: 0x0001, Mask: 0xFFFFFFFF} }

// Reject reports whether a and b should NOT be tested for collision.
func (a Filter) Reject(b Filter) bool {
	if a.Group != 0 && a.Group == b.Group {
		return a.Group < 0
	}
	return a.Category&b.Mask == 0 || b.Category&a.Mask == 0
}

// Fixture is a convex shape attached to a Body with material properties,
// a collision filter, and a sensor flag (spec.md §3 Fixture).
type Fixture struct {
	ID uuid.UUID

	Shape  Shape
	Filter Filter
	Sensor bool

	Density                     float64
	Friction                    float64
	Restitution                 float64
	RestitutionVelocityThreshold float64

	body *Body
}

// NewFixture builds a fixture over shape with sensible material
// defaults (friction 0.2, no restitution — matching the teacher's own
// `CollisionHandlerDoNothing`-style "inert unless configured" default).
func NewFixture(shape Shape) *Fixture {
	return &Fixture{
		ID:                           uuid.New(),
		Shape:                        shape,
		Filter:                       DefaultFilter(),
		Density:                      1.0,
		Friction:                     0.2,
		Restitution:                  0.0,
		RestitutionVelocityThreshold: 1.0,
	}
}

// Body returns the fixture's owning body, or nil if unattached.
func (f *Fixture) Body() *Body { return f.body }

// AABB returns the fixture's tight world-space AABB under t.
func (f *Fixture) AABB(t Transform) AABB {
	return f.Shape.AABB(t)
}

func fixtureLess(a, b *Fixture) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	return a.ID.String() < b.ID.String()
}
