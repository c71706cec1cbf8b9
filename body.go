package physics

import (
	"math"

	"github.com/google/uuid"
)

// MassType classifies a body's mass/inertia behavior (spec.md §3 Body).
type MassType int

const (
	// MassNormal is a regular dynamic body: finite mass and inertia.
	MassNormal MassType = iota
	// MassStatic has infinite mass and inertia and never moves.
	MassStatic
	// MassKinematic has infinite mass/inertia but moves under a
	// user-driven velocity (not affected by forces or impulses).
	MassKinematic
	// MassFixedLinear has infinite mass but finite inertia (rotates
	// freely under torque, never translates).
	MassFixedLinear
	// MassFixedAngular has finite mass but infinite inertia (translates
	// freely under force, never rotates).
	MassFixedAngular
	// MassInfinite is an explicit infinite-mass, infinite-inertia body
	// that is nonetheless treated as "dynamic" for sleeping/islanding
	// purposes (distinguishing it from MassStatic, which never even
	// enters a constraint graph edge as a propagating node).
	MassInfinite
)

// timedForce is a force applied every step until its predicate reports
// completion (spec.md §3 Body accumulators, §9 "Timed forces/torques").
// A fixed-duration force is just a predicate closing over a remaining-
// time counter; this keeps the one "tagged variant" spec.md §9 calls for
// down to a single func field instead of a duration+predicate union.
type timedForce struct {
	point     Vec2 // application point, local space; zero means the body's local origin.
	force     Vec2
	predicate func(dt float64) bool
}

func (tf *timedForce) isComplete(dt float64) bool { return tf.predicate(dt) }

// Body is an independently simulated rigid entity (spec.md §3 Body).
type Body struct {
	ID uuid.UUID

	transform     Transform
	prevTransform Transform

	LinearVelocity  Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64

	massType    MassType
	mass        float64
	invMass     float64
	inertia     float64
	invInertia  float64
	localCenter Vec2 // local-space center of mass.

	force  Vec2
	torque float64
	timed  []*timedForce

	Enabled         bool
	Sleeping        bool
	AutoSleep       bool
	Bullet          bool
	restTime        float64

	onIsland bool // scratch flag used by island extraction (graph.go).

	fixtures []*Fixture

	world *World

	UserData any
}

// NewBody creates an enabled, awake, auto-sleep-eligible dynamic body at
// the identity pose. Use SetMassType to make it static/kinematic/etc.
func NewBody() *Body {
	b := &Body{
		ID:            uuid.New(),
		transform:     IdentityTransform(),
		prevTransform: IdentityTransform(),
		LinearDamping: 0.0,
		AngularDamping: 0.0,
		Enabled:       true,
		AutoSleep:     true,
		massType:      MassNormal,
	}
	b.computeMass()
	return b
}

func bodyLess(a, b *Body) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	return a.ID.String() < b.ID.String()
}

// Transform returns the body's current world pose.
func (b *Body) Transform() Transform { return b.transform }

// PreviousTransform returns the body's pose at the start of the current
// step (spec.md §3 "previous transform").
func (b *Body) PreviousTransform() Transform { return b.prevTransform }

// SetTransform sets the body's pose directly (teleport), e.g. for
// initial placement or kinematic driving.
func (b *Body) SetTransform(t Transform) {
	b.transform = t
	if b.world != nil {
		b.Activate()
	}
}

// SetPosition sets the translation component of the pose, keeping angle.
func (b *Body) SetPosition(p Vec2) { b.SetTransform(NewTransform(p, b.transform.Angle)) }

// SetAngle sets the rotation component of the pose, keeping translation.
func (b *Body) SetAngle(angle float64) {
	b.SetTransform(NewTransform(b.transform.Translation, angle))
}

// Position returns the body's world-space translation.
func (b *Body) Position() Vec2 { return b.transform.Translation }

// Angle returns the body's rotation in radians.
func (b *Body) Angle() float64 { return b.transform.Angle }

// WorldCenter returns the body's center of mass in world space.
func (b *Body) WorldCenter() Vec2 { return b.transform.TransformPoint(b.localCenter) }

// MassType returns the body's mass classification.
func (b *Body) MassType() MassType { return b.massType }

// SetMassType reclassifies the body and recomputes mass/inertia to
// match (spec.md §3 "mass type").
func (b *Body) SetMassType(t MassType) {
	b.massType = t
	b.computeMass()
}

// InverseMass and InverseInertia are what the solver actually consumes.
func (b *Body) InverseMass() float64    { return b.invMass }
func (b *Body) InverseInertia() float64 { return b.invInertia }
func (b *Body) Mass() float64           { return b.mass }
func (b *Body) Inertia() float64        { return b.inertia }

// IsStatic/IsKinematic/IsDynamic classify the current mass type for the
// constraint-graph and solver's frequent checks.
func (b *Body) IsStatic() bool    { return b.massType == MassStatic }
func (b *Body) IsKinematic() bool { return b.massType == MassKinematic }
func (b *Body) IsDynamic() bool   { return !b.IsStatic() && !b.IsKinematic() }

// AddFixture attaches shape (wrapped in a Fixture) to the body and
// returns it; recomputes mass. Ownership is exclusive: fixtures mutate
// the body's fixture list only through this handler, per spec.md §5
// "Shared-resource policy".
func (b *Body) AddFixture(f *Fixture) *Fixture {
	f.body = b
	b.fixtures = append(b.fixtures, f)
	b.computeMass()
	if b.world != nil {
		b.world.onFixtureAdded(b, f)
	}
	return b.fixtures[len(b.fixtures)-1]
}

// RemoveFixture detaches f, preserving the relative order of the rest
// (spec.md §3 Fixture lifecycle).
func (b *Body) RemoveFixture(f *Fixture) bool {
	for i, existing := range b.fixtures {
		if existing == f {
			b.fixtures = append(b.fixtures[:i], b.fixtures[i+1:]...)
			f.body = nil
			b.computeMass()
			if b.world != nil {
				b.world.onFixtureRemoved(b, f)
			}
			return true
		}
	}
	return false
}

// Fixtures returns the body's fixture list in insertion order. Callers
// must not mutate the returned slice's backing array.
func (b *Body) Fixtures() []*Fixture { return b.fixtures }

// computeMass recomputes mass, inertia and local center of mass from
// the current fixture list and mass type (spec.md §3 "mass properties").
func (b *Body) computeMass() {
	switch b.massType {
	case MassStatic, MassKinematic, MassInfinite:
		b.mass, b.invMass, b.inertia, b.invInertia = 0, 0, 0, 0
		b.localCenter = Vec2Zero
		return
	}

	var mass, inertia float64
	var center Vec2
	for _, f := range b.fixtures {
		if f.Density <= 0 {
			continue
		}
		m, c, i := f.Shape.MassData()
		m *= f.Density
		i *= f.Density
		mass += m
		center = center.Add(c.Mul(m))
		inertia += i + m*c.Dot(c)
	}

	if mass > 0 {
		center = center.Mul(1 / mass)
		inertia -= mass * center.Dot(center)
	} else {
		// Massless dynamic bodies (no fixtures, or zero density) act
		// like a point mass of 1 at the origin, never propagating NaN
		// (spec.md §8 boundary behavior).
		mass = 1
	}

	b.localCenter = center
	b.mass = mass
	if b.massType == MassFixedLinear {
		b.invMass = 0
	} else {
		b.invMass = 1 / mass
	}
	b.inertia = inertia
	if b.massType == MassFixedAngular || inertia <= 0 {
		b.invInertia = 0
	} else {
		b.invInertia = 1 / inertia
	}
}

// AddForce applies a force at a local-space point for one step (if
// persistUntil is nil, it is a one-shot force cleared by clearForces at
// step end) or every step until persistUntil fires (spec.md §3
// "two lazy lists of pending time-based forces").
func (b *Body) AddForce(point, force Vec2, persistUntil func(dt float64) bool) {
	if persistUntil == nil {
		b.force = b.force.Add(force)
		b.torque += cross2(point.Sub(b.localCenter), force)
		return
	}
	b.timed = append(b.timed, &timedForce{point: point, force: force, predicate: persistUntil})
}

// AddTorque applies a one-shot torque for the next step only.
func (b *Body) AddTorque(torque float64) { b.torque += torque }

// applyTimedForces folds every still-active timed force into this
// step's one-shot force/torque accumulators before velocity integration
// (spec.md §4.7 phase 1, "accumulate gravity + pending forces").
func (b *Body) applyTimedForces() {
	for _, tf := range b.timed {
		b.force = b.force.Add(tf.force)
		b.torque += cross2(tf.point.Sub(b.localCenter), tf.force)
	}
}

// clearForces zeroes the one-shot accumulators and drops any timed
// force whose predicate reports completion, run once per step after
// velocity integration (spec.md §4.7 phase 1, "clear one-shot forces;
// drop expired timed forces").
func (b *Body) clearForces(dt float64) {
	b.force = Vec2Zero
	b.torque = 0
	kept := b.timed[:0]
	for _, tf := range b.timed {
		if !tf.isComplete(dt) {
			kept = append(kept, tf)
		}
	}
	b.timed = kept
}

// Activate wakes the body (spec.md §3 "at-rest" flag).
func (b *Body) Activate() {
	if !b.Sleeping {
		return
	}
	b.Sleeping = false
	b.restTime = 0
}

// sleep puts the body to rest: velocities zeroed, accumulators cleared,
// at-rest flag set (spec.md §4.7 phase 7).
func (b *Body) sleep() {
	b.Sleeping = true
	b.LinearVelocity = Vec2Zero
	b.AngularVelocity = 0
	b.force = Vec2Zero
	b.torque = 0
	b.timed = nil
	b.restTime = 0
}

// KineticEnergy returns the body's linear plus rotational kinetic
// energy. Sleep decisions do not use it; they use sleepSpeedOK.
func (b *Body) KineticEnergy() float64 {
	return 0.5*b.mass*b.LinearVelocity.Dot(b.LinearVelocity) + 0.5*b.inertia*b.AngularVelocity*b.AngularVelocity
}

// integrateVelocity applies gravity, forces and damping (spec.md §4.7
// phase 1). Static and kinematic bodies are skipped entirely — this is
// the guard against spec.md §9's FIXME about double-integrating static
// bodies inside a DFS loop.
func (b *Body) integrateVelocity(gravity Vec2, dt float64) {
	if b.massType == MassStatic || b.massType == MassKinematic {
		return
	}
	if b.invMass > 0 {
		b.LinearVelocity = b.LinearVelocity.Add(gravity.Add(b.force.Mul(b.invMass)).Mul(dt))
	}
	if b.invInertia > 0 {
		b.AngularVelocity += b.invInertia * b.torque * dt
	}
	b.LinearVelocity = b.LinearVelocity.Mul(1.0 / (1.0 + dt*b.LinearDamping))
	b.AngularVelocity *= 1.0 / (1.0 + dt*b.AngularDamping)
}

// integratePosition advances the pose by the current velocities
// (spec.md §4.7 phase 5). Static bodies never integrate; kinematic
// bodies integrate using their user-driven velocity.
func (b *Body) integratePosition(dt float64) {
	if b.massType == MassStatic {
		return
	}
	center := b.WorldCenter().Add(b.LinearVelocity.Mul(dt))
	angle := b.transform.Angle + b.AngularVelocity*dt
	newTransform := NewTransform(Vec2Zero, angle)
	newTransform.Translation = center.Sub(newTransform.TransformVector(b.localCenter))
	b.transform = newTransform
}

// savePreviousTransform snapshots the pose before the step's integration
// (spec.md §4.9 orchestrator step 4).
func (b *Body) savePreviousTransform() { b.prevTransform = b.transform }

// shift translates the body's pose by v (spec.md §4.1 `shift(v)`).
func (b *Body) shift(v Vec2) {
	b.transform = b.transform.Shift(v)
	b.prevTransform = b.prevTransform.Shift(v)
}

func sleepSpeedOK(b *Body, linTol, angTol float64) bool {
	return b.LinearVelocity.Dot(b.LinearVelocity) < linTol*linTol && math.Abs(b.AngularVelocity) < angTol
}
