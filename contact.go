package physics

import "math"

// contact.go implements the ContactConstraint and the begin/persist/end
// warm-start matcher of spec.md §4.5, grounded on the teacher's Arbiter
// (space.go's cached-impulse fields living on `arb.contacts[i].jnAcc`/
// `jtAcc`) and on `gazed-vu/physics/contact.go`'s `mergeContacts`
// closest-point matching idiom.

// ContactPoint is one persistent contact point of a ContactConstraint,
// carrying the accumulated impulses warm-started across steps.
type ContactPoint struct {
	ID FeatureID

	Point  Vec2
	Normal Vec2
	Depth  float64

	NormalImpulse  float64
	TangentImpulse float64

	// normalMass/tangentMass are effective masses computed once per step
	// by initializeVelocityConstraints; kept here so the solver doesn't need a
	// parallel slice indexed the same way.
	normalMass  float64
	tangentMass float64
	// rA/rB are the contact-point offsets from each body's center of
	// mass at the time the constraint was initialized this step.
	rA, rB Vec2

	velocityBias float64 // restitution bias baked in at init time.

	fresh bool // true for a point added this step (no warm-start source).
}

// ContactConstraint is the persistent per-pair solver edge produced once
// a CollisionData reaches "manifold collision" status (spec.md §4.9a
// step d), analogous to the teacher's Arbiter.
type ContactConstraint struct {
	Body1, Body2       *Body
	Fixture1, Fixture2 *Fixture

	Friction    float64
	Restitution float64
	RestitutionVelocityThreshold float64

	Sensor  bool
	Enabled bool

	Normal Vec2
	Points []ContactPoint

	onIsland bool // scratch flag used by island extraction (graph.go).
}

// newContactConstraint builds a fresh constraint from a collision pair
// and the mixed material values (spec.md §4.5 "mixed friction/
// restitution... via a pluggable mixer").
func newContactConstraint(data *CollisionData, mixer ValueMixer) *ContactConstraint {
	f1, f2 := data.Fixture1, data.Fixture2
	return &ContactConstraint{
		Body1:                        data.Body1,
		Body2:                        data.Body2,
		Fixture1:                     f1,
		Fixture2:                     f2,
		Friction:                     mixer.MixFriction(f1.Friction, f2.Friction),
		Restitution:                  mixer.MixRestitution(f1.Restitution, f2.Restitution),
		RestitutionVelocityThreshold: mixer.MixRestitutionVelocityThreshold(f1.RestitutionVelocityThreshold, f2.RestitutionVelocityThreshold),
		Sensor:                       f1.Sensor || f2.Sensor,
		Enabled:                      true,
	}
}

// updateFromManifold replaces cc's point set with the new manifold's
// points, carrying forward the accumulated impulses of any point whose
// FeatureID matches a point from the previous step (spec.md §4.5 "begin/
// persist/end" classification for warm starting), grounded on
// `gazed-vu/physics/contact.go`'s `mergeContacts`.
func (cc *ContactConstraint) updateFromManifold(m Manifold, listener ContactListener) {
	old := cc.Points
	next := make([]ContactPoint, len(m.Points))
	for i, mp := range m.Points {
		np := ContactPoint{ID: mp.ID, Point: mp.Point, Normal: m.Normal, Depth: mp.Depth, fresh: true}
		for j := range old {
			if old[j].ID == mp.ID {
				np.NormalImpulse = old[j].NormalImpulse
				np.TangentImpulse = old[j].TangentImpulse
				np.fresh = false
				break
			}
		}
		next[i] = np
	}

	if listener != nil {
		for i := range next {
			if next[i].fresh {
				listener.Begin(&next[i])
			} else {
				for j := range old {
					if old[j].ID == next[i].ID {
						listener.Persist(&old[j], &next[i])
						break
					}
				}
			}
		}
		for i := range old {
			if !manifoldHasFeature(m, old[i].ID) {
				listener.End(&old[i])
			}
		}
	}

	cc.Normal = m.Normal
	cc.Points = next
}

func manifoldHasFeature(m Manifold, id FeatureID) bool {
	for _, p := range m.Points {
		if p.ID == id {
			return true
		}
	}
	return false
}

// initializeVelocityConstraints precomputes the effective masses and
// restitution bias used by solveVelocity (spec.md §4.7 phase 2 "init
// contact constraints"), grounded on the standard sequential-impulse
// formulation (Box2D's b2ContactSolver::InitializeVelocityConstraints).
func (cc *ContactConstraint) initializeVelocityConstraints() {
	b1, b2 := cc.Body1, cc.Body2
	for i := range cc.Points {
		p := &cc.Points[i]
		p.rA = p.Point.Sub(b1.WorldCenter())
		p.rB = p.Point.Sub(b2.WorldCenter())

		rnA := cross2(p.rA, cc.Normal)
		rnB := cross2(p.rB, cc.Normal)
		kNormal := b1.invMass + b2.invMass + b1.invInertia*rnA*rnA + b2.invInertia*rnB*rnB
		if kNormal > 0 {
			p.normalMass = 1 / kNormal
		}

		tangent := rperp(cc.Normal)
		rtA := cross2(p.rA, tangent)
		rtB := cross2(p.rB, tangent)
		kTangent := b1.invMass + b2.invMass + b1.invInertia*rtA*rtA + b2.invInertia*rtB*rtB
		if kTangent > 0 {
			p.tangentMass = 1 / kTangent
		}

		relVel := relativeVelocity(b1, b2, p.rA, p.rB).Dot(cc.Normal)
		p.velocityBias = 0
		if relVel < -cc.RestitutionVelocityThreshold {
			p.velocityBias = -cc.Restitution * relVel
		}
	}
}

// warmStart applies the carried-over accumulated impulses before the
// first velocity iteration (spec.md §4.5 "warm starting").
func (cc *ContactConstraint) warmStart() {
	b1, b2 := cc.Body1, cc.Body2
	tangent := rperp(cc.Normal)
	for i := range cc.Points {
		p := &cc.Points[i]
		impulse := cc.Normal.Mul(p.NormalImpulse).Add(tangent.Mul(p.TangentImpulse))
		applyImpulse(b1, b2, p.rA, p.rB, impulse.Mul(-1), impulse)
	}
}

// solveVelocity runs one sequential-impulse velocity iteration: normal
// impulses clamped to >=0, tangent impulses clamped to the friction cone
// |Jt| <= mu*Jn (spec.md §4.7 phase 2/3).
func (cc *ContactConstraint) solveVelocity() {
	b1, b2 := cc.Body1, cc.Body2
	tangent := rperp(cc.Normal)

	for i := range cc.Points {
		p := &cc.Points[i]
		if p.tangentMass <= 0 {
			continue
		}
		relVel := relativeVelocity(b1, b2, p.rA, p.rB).Dot(tangent)
		lambda := -p.tangentMass * relVel
		maxFriction := cc.Friction * p.NormalImpulse
		newImpulse := clampF(p.TangentImpulse+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - p.TangentImpulse
		p.TangentImpulse = newImpulse
		impulse := tangent.Mul(lambda)
		applyImpulse(b1, b2, p.rA, p.rB, impulse.Mul(-1), impulse)
	}

	for i := range cc.Points {
		p := &cc.Points[i]
		if p.normalMass <= 0 {
			continue
		}
		relVel := relativeVelocity(b1, b2, p.rA, p.rB).Dot(cc.Normal)
		lambda := -p.normalMass * (relVel - p.velocityBias)
		newImpulse := math.Max(p.NormalImpulse+lambda, 0)
		lambda = newImpulse - p.NormalImpulse
		p.NormalImpulse = newImpulse
		impulse := cc.Normal.Mul(lambda)
		applyImpulse(b1, b2, p.rA, p.rB, impulse.Mul(-1), impulse)
	}
}

func relativeVelocity(b1, b2 *Body, rA, rB Vec2) Vec2 {
	vA := b1.LinearVelocity.Add(crossSV(b1.AngularVelocity, rA))
	vB := b2.LinearVelocity.Add(crossSV(b2.AngularVelocity, rB))
	return vB.Sub(vA)
}

func applyImpulse(b1, b2 *Body, rA, rB, impulseA, impulseB Vec2) {
	b1.LinearVelocity = b1.LinearVelocity.Add(impulseA.Mul(b1.invMass))
	b1.AngularVelocity += b1.invInertia * cross2(rA, impulseA)
	b2.LinearVelocity = b2.LinearVelocity.Add(impulseB.Mul(b2.invMass))
	b2.AngularVelocity += b2.invInertia * cross2(rB, impulseB)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
