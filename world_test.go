package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingStepListener struct {
	BaseStepListener
	steps int
}

func (l *countingStepListener) Begin(w *World) { l.steps++ }

func groundBody() *Body {
	g := NewBody()
	g.SetMassType(MassStatic)
	g.AddFixture(NewFixture(NewBoxPolygon(25, 0.5)))
	return g
}

func boxBody(pos Vec2) *Body {
	b := NewBody()
	b.SetPosition(pos)
	b.AddFixture(NewFixture(NewBoxPolygon(0.5, 0.5)))
	return b
}

// --- Lifecycle -------------------------------------------------------

func TestAddBodyRejectsNil(t *testing.T) {
	w := NewWorld()
	err := w.AddBody(nil)
	var physErr *Error
	assert.ErrorAs(t, err, &physErr)
	assert.Equal(t, ErrArgumentNull, physErr.Kind)
}

func TestAddBodyIsIdempotentForSameWorld(t *testing.T) {
	w := NewWorld()
	b := boxBody(Vec2{0, 0})
	assert.NoError(t, w.AddBody(b))
	assert.NoError(t, w.AddBody(b))
	assert.Len(t, w.Bodies(), 1)
}

func TestAddBodyRejectsAlreadyOwnedByAnotherWorld(t *testing.T) {
	w1, w2 := NewWorld(), NewWorld()
	b := boxBody(Vec2{0, 0})
	assert.NoError(t, w1.AddBody(b))

	err := w2.AddBody(b)
	var physErr *Error
	assert.ErrorAs(t, err, &physErr)
	assert.Equal(t, ErrAlreadyOwned, physErr.Kind)
}

func TestAddJointRejectsNil(t *testing.T) {
	w := NewWorld()
	err := w.AddJoint(nil)
	var physErr *Error
	assert.ErrorAs(t, err, &physErr)
	assert.Equal(t, ErrArgumentNull, physErr.Kind)
}

func TestAddJointRejectsBodyNotInWorld(t *testing.T) {
	w := NewWorld()
	a := boxBody(Vec2{0, 0})
	b := boxBody(Vec2{1, 0})
	assert.NoError(t, w.AddBody(a))
	// b is never added to w.

	j := NewDistanceJoint(a, b, a.Position(), b.Position())
	err := w.AddJoint(j)
	var physErr *Error
	assert.ErrorAs(t, err, &physErr)
	assert.Equal(t, ErrMembershipViolation, physErr.Kind)
}

func TestRemoveBodyCascadesJoints(t *testing.T) {
	w := NewWorld()
	a := boxBody(Vec2{0, 0})
	b := boxBody(Vec2{2, 0})
	assert.NoError(t, w.AddBody(a))
	assert.NoError(t, w.AddBody(b))
	j := NewDistanceJoint(a, b, a.Position(), b.Position())
	assert.NoError(t, w.AddJoint(j))

	assert.True(t, w.RemoveBody(a))
	assert.Empty(t, w.Joints(), "removing a joint's body must cascade-remove the joint")
	assert.Len(t, w.Bodies(), 1)
}

func TestRemoveAllBodiesAndJointsEmptiesWorld(t *testing.T) {
	w := NewWorld()
	a, b := boxBody(Vec2{0, 0}), boxBody(Vec2{2, 0})
	w.AddBody(a)
	w.AddBody(b)
	w.AddJoint(NewDistanceJoint(a, b, a.Position(), b.Position()))

	w.RemoveAllBodiesAndJoints()
	assert.Empty(t, w.Bodies())
	assert.Empty(t, w.Joints())
}

// --- Introspection -----------------------------------------------------

func TestGetJoinedBodiesAndIsJoined(t *testing.T) {
	w := NewWorld()
	a, b, c := boxBody(Vec2{0, 0}), boxBody(Vec2{2, 0}), boxBody(Vec2{4, 0})
	w.AddBody(a)
	w.AddBody(b)
	w.AddBody(c)
	w.AddJoint(NewDistanceJoint(a, b, a.Position(), b.Position()))

	assert.True(t, w.IsJoined(a, b))
	assert.False(t, w.IsJoined(a, c))
	assert.Equal(t, []*Body{b}, w.GetJoinedBodies(a))
	assert.Len(t, w.GetJoints(a), 1)
}

// --- Update/Step accumulator family -------------------------------------

func TestUpdateStepRejectsNonPositiveDT(t *testing.T) {
	w := NewWorld()
	assert.False(t, w.UpdateStep(1.0, 0, 0))
	assert.False(t, w.UpdateStep(1.0, -1, 0))
}

func TestUpdateRunsAccumulatedWholeSteps(t *testing.T) {
	w := NewWorld()
	l := &countingStepListener{}
	w.SetStepListener(l)

	dt := w.Settings().StepFrequency
	ranOne := w.Update(dt * 0.3)
	assert.False(t, ranOne, "less than one step's worth of elapsed time should not run a step yet")
	assert.Equal(t, 0, l.steps)

	ran := w.Update(dt * 1.3) // combined with the leftover 0.3dt, crosses exactly one whole step
	assert.True(t, ran)
	assert.Equal(t, 1, l.steps)
}

func TestUpdateMaxStepsBoundsStepsPerCall(t *testing.T) {
	w := NewWorld()
	l := &countingStepListener{}
	w.SetStepListener(l)

	dt := w.Settings().StepFrequency
	w.UpdateMaxSteps(dt*5.3, 2)
	assert.Equal(t, 2, l.steps, "at most maxSteps steps should run in a single call")

	w.UpdateMaxSteps(0, 10) // drain the remaining accumulated time
	assert.Equal(t, 5, l.steps)
}

func TestStepRunsExactlyNStepsIgnoringAccumulator(t *testing.T) {
	w := NewWorld()
	l := &countingStepListener{}
	w.SetStepListener(l)
	w.Step(3)
	assert.Equal(t, 3, l.steps)
}

// --- Scenario S1: falling box settles to sleep --------------------------

func TestFallingBoxSettlesAndSleeps(t *testing.T) {
	w := NewWorld()
	w.AddBody(groundBody())
	box := boxBody(Vec2{0, 3})
	w.AddBody(box)

	settled := false
	for i := 0; i < 600 && !settled; i++ {
		w.Step(1)
		settled = box.Sleeping
	}
	assert.True(t, settled, "a box dropped onto static ground should eventually sleep")
	assert.InDelta(t, 1.0, box.Position()[1], 0.05, "it should rest on the ground's top face at y=0.5 with its own 0.5 half-height")
}

// --- Scenario S2: friction joint damps relative velocity -----------------

func TestFrictionJointDampsRelativeVelocity(t *testing.T) {
	w := NewWorld()
	w.SetGravity(Vec2{0, 0})
	a := boxBody(Vec2{0, 0})
	b := boxBody(Vec2{2, 0})
	a.LinearVelocity = Vec2{5, 0}
	w.AddBody(a)
	w.AddBody(b)

	fj := NewFrictionJoint(a, b)
	fj.MaxForce = 100
	fj.MaxTorque = 100
	assert.NoError(t, w.AddJoint(fj))

	initialDiff := a.LinearVelocity.Sub(b.LinearVelocity).Len()
	for i := 0; i < 30; i++ {
		w.Step(1)
	}
	finalDiff := a.LinearVelocity.Sub(b.LinearVelocity).Len()
	assert.Less(t, finalDiff, initialDiff, "friction joint should pull the two bodies' velocities toward each other")
}

// --- Scenario S3: warm start keeps the resting contact stable ------------

func TestWarmStartKeepsRestingContactStable(t *testing.T) {
	w := NewWorld()
	w.AddBody(groundBody())
	box := boxBody(Vec2{0, 0.5})
	w.AddBody(box)

	for i := 0; i < 60; i++ {
		w.Step(1)
	}
	assert.True(t, w.IsInContact(box, w.Bodies()[0]))
	contacts := w.GetContacts(box)
	assert.NotEmpty(t, contacts)
	assert.NotEmpty(t, contacts[0].Points)
	assert.Greater(t, contacts[0].Points[0].NormalImpulse, 0.0, "a settled resting contact should carry a nonzero warm-started normal impulse")
}

// --- Scenario S4: bullet does not tunnel through a thin wall -------------

func TestBulletDoesNotTunnelThroughThinWall(t *testing.T) {
	w := NewWorld()
	settings := w.Settings()
	settings.ContinuousDetectionMode = ContinuousDetectionBulletsOnly
	w.SetSettings(settings)
	w.SetGravity(Vec2{0, 0})

	wall := NewBody()
	wall.SetMassType(MassStatic)
	wall.AddFixture(NewFixture(NewBoxPolygon(0.1, 2)))
	w.AddBody(wall)

	bullet := NewBody()
	bullet.Bullet = true
	bullet.AddFixture(NewFixture(Circle{R: 0.1}))
	bullet.SetPosition(Vec2{-10, 0})
	bulletDT := w.Settings().StepFrequency
	bullet.LinearVelocity = Vec2{20 / bulletDT, 0} // enough to cross the wall in one step without CCD
	w.AddBody(bullet)

	w.Step(1)
	assert.Less(t, bullet.Position()[0], 0.0, "continuous collision detection must stop the bullet before it tunnels past the wall")
}

// --- Scenario S5: separate contact islands solve independently ----------

func TestSeparateIslandsSettleIndependently(t *testing.T) {
	w := NewWorld()

	leftGround := groundBody()
	leftGround.SetPosition(Vec2{-100, 0})
	w.AddBody(leftGround)
	leftBox := boxBody(Vec2{-100, 3})
	w.AddBody(leftBox)

	rightGround := groundBody()
	rightGround.SetPosition(Vec2{100, 0})
	w.AddBody(rightGround)
	rightBox := boxBody(Vec2{100, 3})
	w.AddBody(rightBox)

	for i := 0; i < 600; i++ {
		w.Step(1)
		if leftBox.Sleeping && rightBox.Sleeping {
			break
		}
	}
	assert.True(t, leftBox.Sleeping)
	assert.True(t, rightBox.Sleeping)
	assert.InDelta(t, 1.0, leftBox.Position()[1], 0.05)
	assert.InDelta(t, 1.0, rightBox.Position()[1], 0.05)
}

// --- Scenario S6: a non-colliding joint suppresses contact ---------------

func TestJointCollisionAllowedFalseSuppressesContact(t *testing.T) {
	w := NewWorld()
	w.SetGravity(Vec2{0, 0})
	a := boxBody(Vec2{0, 0})
	b := boxBody(Vec2{0.2, 0}) // overlapping boxes
	w.AddBody(a)
	w.AddBody(b)

	j := NewDistanceJoint(a, b, a.Position(), b.Position()) // collisionAllowed defaults to false
	assert.NoError(t, w.AddJoint(j))
	assert.False(t, w.IsJointCollisionAllowed(a, b))

	w.Step(1)
	assert.False(t, w.IsInContact(a, b), "a joint with collision disallowed must suppress narrow-phase contact between its own bodies")
}
