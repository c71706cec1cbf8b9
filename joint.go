package physics

import "math"

// joint.go implements spec.md §4.4: the pluggable Joint constraint
// interface plus the two concrete joints needed for scenario S2
// (distance and friction), grounded on the teacher's `Constraint`/
// `constraint.Class` plug point in space.go (`constraint.Class.PreStep`,
// `ApplyCachedImpulse`, `ApplyImpulse`).

// Joint is a bilateral constraint between two bodies, solved alongside
// contact constraints inside an island (spec.md §4.4).
type Joint interface {
	Body1() *Body
	Body2() *Body

	// IsMember reports whether b is one of the joint's endpoints, used by
	// World's joint lookups and cascade removal (spec.md §4.4).
	IsMember(b *Body) bool

	// IsCollisionAllowed reports whether the joint's own two bodies
	// should still be narrow-phase tested against each other.
	IsCollisionAllowed() bool

	// IsEnabled reports whether the joint currently participates in
	// island extraction and solving (spec.md §3 Joint "enabled flag").
	// A disabled joint still exists in the world's joint list but is a
	// dead edge: it neither propagates DFS nor is solved.
	IsEnabled() bool
	SetEnabled(enabled bool)

	initializeConstraints(dt float64)
	warmStart()
	solveVelocityConstraints()
	// solvePositionConstraints runs one Baumgarte-style position
	// correction iteration and reports whether the joint is within
	// its position tolerance (spec.md §4.7 phase 6).
	solvePositionConstraints() bool

	shift(v Vec2)
}

// jointBase factors the body pair and collision-allowed flag shared by
// every concrete joint.
type jointBase struct {
	body1, body2     *Body
	collisionAllowed bool
	enabled          bool
}

func (j *jointBase) Body1() *Body { return j.body1 }
func (j *jointBase) Body2() *Body { return j.body2 }
func (j *jointBase) IsMember(b *Body) bool {
	return b == j.body1 || b == j.body2
}
func (j *jointBase) IsCollisionAllowed() bool   { return j.collisionAllowed }
func (j *jointBase) IsEnabled() bool            { return j.enabled }
func (j *jointBase) SetEnabled(enabled bool)    { j.enabled = enabled }

// DistanceJoint keeps two anchor points a fixed distance apart (rigid
// when Frequency is zero; a soft spring-damper otherwise), the
// teacher's nearest equivalent to a `pivotJoint`/`pinJoint` pair solved
// as a single 1-DOF constraint (Box2D's b2DistanceJoint formulation).
type DistanceJoint struct {
	jointBase

	LocalAnchor1, LocalAnchor2 Vec2
	Length                     float64

	Frequency    float64 // Hz; 0 means rigid.
	DampingRatio float64

	mass      float64
	bias      float64
	gamma     float64
	impulse   float64
	u         Vec2
	rA, rB    Vec2
}

// NewDistanceJoint pins anchor1 on b1 and anchor2 on b2 (both in world
// space at construction time) at their current separation.
func NewDistanceJoint(b1, b2 *Body, anchor1, anchor2 Vec2) *DistanceJoint {
	return &DistanceJoint{
		jointBase:     jointBase{body1: b1, body2: b2, collisionAllowed: false, enabled: true},
		LocalAnchor1:  b1.transform.InverseTransformPoint(anchor1),
		LocalAnchor2:  b2.transform.InverseTransformPoint(anchor2),
		Length:        anchor2.Sub(anchor1).Len(),
	}
}

func (j *DistanceJoint) initializeConstraints(dt float64) {
	b1, b2 := j.body1, j.body2
	j.rA = b1.transform.TransformVector(j.LocalAnchor1.Sub(b1.localCenter))
	j.rB = b2.transform.TransformVector(j.LocalAnchor2.Sub(b2.localCenter))

	worldA := b1.WorldCenter().Add(j.rA)
	worldB := b2.WorldCenter().Add(j.rB)
	d := worldB.Sub(worldA)
	length := d.Len()
	if length < 1e-9 {
		j.u = Vec2{1, 0}
	} else {
		j.u = d.Mul(1 / length)
	}

	crA := cross2(j.rA, j.u)
	crB := cross2(j.rB, j.u)
	invMass := b1.invMass + b1.invInertia*crA*crA + b2.invMass + b2.invInertia*crB*crB

	j.gamma = 0
	j.bias = 0
	if j.Frequency > 0 {
		omega := 2 * math.Pi * j.Frequency
		d2 := 2 * j.DampingRatio * omega
		k := omega * omega
		j.gamma = dt * (d2 + dt*k)
		if j.gamma != 0 {
			j.gamma = 1 / j.gamma
		}
		c := length - j.Length
		j.bias = c * dt * k * j.gamma
		invMass += j.gamma
	}

	if invMass > 0 {
		j.mass = 1 / invMass
	} else {
		j.mass = 0
	}
}

func (j *DistanceJoint) warmStart() {
	impulse := j.u.Mul(j.impulse)
	applyImpulse(j.body1, j.body2, j.rA, j.rB, impulse.Mul(-1), impulse)
}

func (j *DistanceJoint) solveVelocityConstraints() {
	relVel := relativeVelocity(j.body1, j.body2, j.rA, j.rB).Dot(j.u)
	lambda := -j.mass * (relVel + j.bias + j.gamma*j.impulse)
	j.impulse += lambda
	impulse := j.u.Mul(lambda)
	applyImpulse(j.body1, j.body2, j.rA, j.rB, impulse.Mul(-1), impulse)
}

func (j *DistanceJoint) solvePositionConstraints() bool {
	if j.Frequency > 0 {
		return true // soft joints correct drift through the bias term only.
	}
	b1, b2 := j.body1, j.body2
	rA := b1.transform.TransformVector(j.LocalAnchor1.Sub(b1.localCenter))
	rB := b2.transform.TransformVector(j.LocalAnchor2.Sub(b2.localCenter))
	d := b2.WorldCenter().Add(rB).Sub(b1.WorldCenter().Add(rA))
	length := d.Len()
	if length < 1e-9 {
		return true
	}
	u := d.Mul(1 / length)
	c := clampF(length-j.Length, -0.2, 0.2)

	crA := cross2(rA, u)
	crB := cross2(rB, u)
	invMass := b1.invMass + b1.invInertia*crA*crA + b2.invMass + b2.invInertia*crB*crB
	if invMass <= 0 {
		return true
	}
	lambda := -c / invMass
	impulse := u.Mul(lambda)

	b1.transform = b1.transform.Shift(impulse.Mul(-b1.invMass))
	b1.transform = NewTransform(b1.transform.Translation, b1.transform.Angle-b1.invInertia*cross2(rA, impulse))
	b2.transform = b2.transform.Shift(impulse.Mul(b2.invMass))
	b2.transform = NewTransform(b2.transform.Translation, b2.transform.Angle+b2.invInertia*cross2(rB, impulse))

	return math.Abs(c) < 0.005
}

func (j *DistanceJoint) shift(v Vec2) {}

// FrictionJoint applies a velocity-only drag between two bodies, capped
// by MaxForce/MaxTorque — used to model surface friction decoupled from
// a contact normal (e.g. conveyor-style joints), matching the
// teacher's own separate "friction joint" as distinct from contact
// friction (space.go keeps contact friction and joint friction as
// different constraint classes).
type FrictionJoint struct {
	jointBase

	MaxForce  float64
	MaxTorque float64

	linearMass  float64
	angularMass float64
	linearImpulse  Vec2
	angularImpulse float64
}

// NewFrictionJoint couples b1 and b2 with pure velocity-matching drag.
func NewFrictionJoint(b1, b2 *Body) *FrictionJoint {
	return &FrictionJoint{jointBase: jointBase{body1: b1, body2: b2, collisionAllowed: true, enabled: true}}
}

func (j *FrictionJoint) initializeConstraints(dt float64) {
	b1, b2 := j.body1, j.body2
	invMass := b1.invMass + b2.invMass
	if invMass > 0 {
		j.linearMass = 1 / invMass
	}
	invInertia := b1.invInertia + b2.invInertia
	if invInertia > 0 {
		j.angularMass = 1 / invInertia
	}
}

func (j *FrictionJoint) warmStart() {
	b1, b2 := j.body1, j.body2
	b1.LinearVelocity = b1.LinearVelocity.Add(j.linearImpulse.Mul(-b1.invMass))
	b1.AngularVelocity -= b1.invInertia * j.angularImpulse
	b2.LinearVelocity = b2.LinearVelocity.Add(j.linearImpulse.Mul(b2.invMass))
	b2.AngularVelocity += b2.invInertia * j.angularImpulse
}

func (j *FrictionJoint) solveVelocityConstraints() {
	b1, b2 := j.body1, j.body2

	if j.angularMass > 0 {
		angularRel := b2.AngularVelocity - b1.AngularVelocity
		lambda := -j.angularMass * angularRel
		old := j.angularImpulse
		maxImpulse := j.MaxTorque
		j.angularImpulse = clampF(old+lambda, -maxImpulse, maxImpulse)
		lambda = j.angularImpulse - old
		b1.AngularVelocity -= b1.invInertia * lambda
		b2.AngularVelocity += b2.invInertia * lambda
	}

	if j.linearMass > 0 {
		relVel := b2.LinearVelocity.Sub(b1.LinearVelocity)
		lambda := relVel.Mul(-j.linearMass)
		old := j.linearImpulse
		maxImpulse := j.MaxForce
		newImpulse := old.Add(lambda)
		j.linearImpulse = clampVec(newImpulse, maxImpulse)
		applied := j.linearImpulse.Sub(old)
		b1.LinearVelocity = b1.LinearVelocity.Add(applied.Mul(-b1.invMass))
		b2.LinearVelocity = b2.LinearVelocity.Add(applied.Mul(b2.invMass))
	}
}

// solvePositionConstraints is a no-op: friction joints constrain
// velocity only, never position (spec.md §4.4 "some joints solve
// position, some solve only velocity").
func (j *FrictionJoint) solvePositionConstraints() bool { return true }

func (j *FrictionJoint) shift(v Vec2) {}
