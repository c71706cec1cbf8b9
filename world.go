package physics

import "log/slog"

// world.go is the top-level orchestrator of spec.md §1-§6, generalizing
// the teacher's `Space` (space.go) almost wholesale: body/fixture/joint
// lifecycle, the per-step detection sub-pipeline (§4.9a), the island
// solve dispatch (§4.7, solver.go), CCD (§4.8, ccd.go), and the
// pluggable-component setters of §6.

// World owns every body, joint and contact constraint in a simulation
// and drives them forward in discrete steps (spec.md §1 World).
type World struct {
	bodies []*Body
	joints []Joint

	gravity  Vec2
	settings Settings

	broadphase Broadphase
	narrow     NarrowphaseDetector
	manifold   ManifoldSolver
	mixer      ValueMixer

	pairs *pairMap

	stepListener       StepListener
	collisionListener  CollisionListener
	contactListener    ContactListener
	boundsListener     BoundsListener
	destructionListener DestructionListener
	toiListener        TimeOfImpactListener

	bounds    *AABB
	lastDT    float64
	accumTime float64

	log *slog.Logger

	UserData any
}

// NewWorld builds a World with the teacher's conventional defaults: a
// dynamic AABB tree broad-phase, GJK/EPA narrow-phase, clipping
// manifold solver, and the default value mixer.
func NewWorld() *World {
	return &World{
		gravity:    Vec2{0, -9.8},
		settings:   DefaultSettings(),
		broadphase: NewDynamicTree(defaultFatAABBMargin),
		narrow:     GJKEPADetector{},
		manifold:   ClippingManifoldSolver{},
		mixer:      DefaultValueMixer{},
		pairs:      newPairMap(),
		log:        slog.Default(),
	}
}

// Gravity/SetGravity.
func (w *World) Gravity() Vec2 { return w.gravity }
func (w *World) SetGravity(g Vec2) {
	w.gravity = g
	for _, b := range w.bodies {
		b.Activate()
	}
}

// Settings/SetSettings exposes the tunables of spec.md §6.
func (w *World) Settings() Settings     { return w.settings }
func (w *World) SetSettings(s Settings) { w.settings = s }

// SetBroadphaseDetector/SetNarrowphaseDetector/SetManifoldSolver/
// SetValueMixer are the pluggable-component setters of spec.md §6.
func (w *World) SetBroadphaseDetector(b Broadphase) {
	assert(b != nil, "broadphase detector must not be nil")
	w.broadphase = b
}
func (w *World) SetNarrowphaseDetector(n NarrowphaseDetector) {
	assert(n != nil, "narrowphase detector must not be nil")
	w.narrow = n
}
func (w *World) SetManifoldSolver(m ManifoldSolver) {
	assert(m != nil, "manifold solver must not be nil")
	w.manifold = m
}
func (w *World) SetValueMixer(m ValueMixer) {
	assert(m != nil, "value mixer must not be nil")
	w.mixer = m
}

func (w *World) SetStepListener(l StepListener)             { w.stepListener = l }
func (w *World) SetCollisionListener(l CollisionListener)    { w.collisionListener = l }
func (w *World) SetContactListener(l ContactListener)        { w.contactListener = l }
func (w *World) SetBoundsListener(l BoundsListener)          { w.boundsListener = l }
func (w *World) SetDestructionListener(l DestructionListener) { w.destructionListener = l }
func (w *World) SetTimeOfImpactListener(l TimeOfImpactListener) { w.toiListener = l }

// SetBounds sets the world boundary used to notify BoundsListener when
// an enabled body's fixtures move entirely outside it; nil disables the
// check (spec.md §4.9a step a).
func (w *World) SetBounds(b *AABB) { w.bounds = b }

// AddBody registers body with the world (spec.md §3 lifecycle,
// "exclusive ownership"). Returns an *Error (ErrArgumentNull /
// ErrAlreadyOwned) rather than panicking: spec.md §7 classifies "adding
// a body that belongs elsewhere" as a caller-recoverable precondition,
// not a programmer-bug assertion.
func (w *World) AddBody(b *Body) error {
	if b == nil {
		return newError(ErrArgumentNull, "body must not be nil")
	}
	if b.world == w {
		return nil
	}
	if b.world != nil {
		return newError(ErrAlreadyOwned, "body already belongs to a world")
	}
	b.world = w
	w.bodies = append(w.bodies, b)
	for _, f := range b.fixtures {
		w.broadphase.Add(BroadphaseItem{Body: b, Fixture: f}, f.AABB(b.transform).Expand(w.settings.BroadphaseFatAABBMargin))
	}
	return nil
}

func (w *World) onFixtureAdded(b *Body, f *Fixture) {
	if b.world != w {
		return
	}
	w.broadphase.Add(BroadphaseItem{Body: b, Fixture: f}, f.AABB(b.transform).Expand(w.settings.BroadphaseFatAABBMargin))
}

func (w *World) onFixtureRemoved(b *Body, f *Fixture) {
	if b.world != w {
		return
	}
	item := BroadphaseItem{Body: b, Fixture: f}
	w.broadphase.Remove(item)
	w.removePairsInvolving(item)
}

// RemoveBody removes body and cascades to its fixtures' broad-phase
// entries, contact constraints and joints, without notifying the
// destruction listener (spec.md §9 open question: notify vs non-notify
// removal; both variants run identical cascade logic).
func (w *World) RemoveBody(b *Body) bool { return w.removeBody(b, false) }

// RemoveBodyNotify is RemoveBody but dispatches DestructionListener for
// every cascaded removal.
func (w *World) RemoveBodyNotify(b *Body) bool { return w.removeBody(b, true) }

func (w *World) removeBody(b *Body, notify bool) bool {
	idx := -1
	for i, existing := range w.bodies {
		if existing == b {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	w.bodies = append(w.bodies[:idx], w.bodies[idx+1:]...)

	for _, f := range b.fixtures {
		item := BroadphaseItem{Body: b, Fixture: f}
		w.broadphase.Remove(item)
		w.removePairsInvolvingNotify(item, notify)
	}

	var keptJoints []Joint
	for _, j := range w.joints {
		if j.IsMember(b) {
			if notify && w.destructionListener != nil {
				w.destructionListener.JointDestroyed(j)
			}
			continue
		}
		keptJoints = append(keptJoints, j)
	}
	w.joints = keptJoints

	b.world = nil
	if notify && w.destructionListener != nil {
		w.destructionListener.BodyDestroyed(b)
	}
	return true
}

func (w *World) removePairsInvolving(item BroadphaseItem) {
	w.removePairsInvolvingNotify(item, false)
}

func (w *World) removePairsInvolvingNotify(item BroadphaseItem, notify bool) {
	w.pairs.each(func(d *CollisionData) {
		if d.ID.A == item || d.ID.B == item {
			d.removed = true
			if notify && d.Constraint != nil && w.destructionListener != nil {
				w.destructionListener.ContactConstraintDestroyed(d.Constraint)
			}
		}
	})
	var toDelete []PairID
	w.pairs.each(func(d *CollisionData) {
		if d.removed {
			toDelete = append(toDelete, d.ID)
		}
	})
	for _, id := range toDelete {
		w.pairs.delete(id)
	}
}

// AddJoint registers j with the world. Returns an *Error
// (ErrArgumentNull / ErrMembershipViolation) if j is nil or any body it
// references is not already in the world (spec.md §4.4 lifecycle, §6
// "fails if any referenced body is not in the world").
func (w *World) AddJoint(j Joint) error {
	if j == nil {
		return newError(ErrArgumentNull, "joint must not be nil")
	}
	if !w.hasBody(j.Body1()) || !w.hasBody(j.Body2()) {
		return newError(ErrMembershipViolation, "joint references a body not in this world")
	}
	w.joints = append(w.joints, j)
	return nil
}

func (w *World) hasBody(b *Body) bool {
	for _, existing := range w.bodies {
		if existing == b {
			return true
		}
	}
	return false
}

// RemoveJoint detaches j; returns false if it was not present.
func (w *World) RemoveJoint(j Joint) bool {
	for i, existing := range w.joints {
		if existing == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAllBodiesAndJoints clears the world back to empty (spec.md §6).
func (w *World) RemoveAllBodiesAndJoints() {
	for _, b := range append([]*Body{}, w.bodies...) {
		w.RemoveBody(b)
	}
	w.joints = nil
	w.broadphase.Clear()
	w.pairs = newPairMap()
}

// Bodies/Joints expose read-only snapshots for introspection.
func (w *World) Bodies() []*Body { return w.bodies }
func (w *World) Joints() []Joint { return w.joints }

// IsInContact reports whether a and b currently have an enabled,
// non-sensor contact constraint with at least one manifold point
// (spec.md §6 `is_in_contact`).
func (w *World) IsInContact(a, b *Body) bool {
	found := false
	w.pairs.each(func(d *CollisionData) {
		if found || d.Constraint == nil || d.Constraint.Sensor {
			return
		}
		if (d.Body1 == a && d.Body2 == b) || (d.Body1 == b && d.Body2 == a) {
			if len(d.Constraint.Points) > 0 {
				found = true
			}
		}
	})
	return found
}

// GetContacts returns every live ContactConstraint touching body
// (spec.md §6 `get_contacts`).
func (w *World) GetContacts(body *Body) []*ContactConstraint {
	var out []*ContactConstraint
	w.pairs.each(func(d *CollisionData) {
		if d.Constraint != nil && (d.Body1 == body || d.Body2 == body) {
			out = append(out, d.Constraint)
		}
	})
	return out
}

// GetJoints returns every joint that references body (spec.md §6 `get_joints`).
func (w *World) GetJoints(body *Body) []Joint {
	var out []Joint
	for _, j := range w.joints {
		if j.IsMember(body) {
			out = append(out, j)
		}
	}
	return out
}

// GetJoinedBodies returns every body jointed to body, in joint-list
// order (spec.md §6 `get_joined_bodies`).
func (w *World) GetJoinedBodies(body *Body) []*Body {
	var out []*Body
	for _, j := range w.joints {
		if !j.IsMember(body) {
			continue
		}
		if other := j.Body1(); other != body {
			out = append(out, other)
		} else {
			out = append(out, j.Body2())
		}
	}
	return out
}

// IsJoined reports whether any joint connects a and b (spec.md §6 `is_joined`).
func (w *World) IsJoined(a, b *Body) bool {
	for _, j := range w.joints {
		if j.IsMember(a) && j.IsMember(b) {
			return true
		}
	}
	return false
}

// IsJointCollisionAllowed reports whether every joint connecting a and
// b allows their fixtures to still collide (spec.md §6
// `is_joint_collision_allowed`); true (the permissive default) when no
// joint connects them at all.
func (w *World) IsJointCollisionAllowed(a, b *Body) bool {
	for _, j := range w.joints {
		if j.IsMember(a) && j.IsMember(b) && !j.IsCollisionAllowed() {
			return false
		}
	}
	return true
}

// Shift translates every body and the broad-phase by v, the long-range
// coordinate renormalization operation of spec.md §4.1.
func (w *World) Shift(v Vec2) {
	for _, b := range w.bodies {
		b.shift(v)
	}
	w.broadphase.Shift(v)
}

// UpdateV steps the world by dt using the velocity-only variant: no
// fixed-rate accumulation, just one discrete step of size dt (spec.md
// §4.9 "update"/"updatev" distinction).
func (w *World) UpdateV(dt float64) {
	w.step(dt)
}

// Update advances the world by elapsedTime using the fixed step
// frequency from Settings, running as many whole steps as have
// accumulated (spec.md §4.9 "update"): the conventional fixed-timestep
// accumulator pattern. Returns whether at least one step ran.
func (w *World) Update(elapsedTime float64) bool {
	return w.UpdateMaxSteps(elapsedTime, 0)
}

// UpdateMaxSteps is Update bounded to at most maxSteps fixed-size steps
// per call (spec.md §6 `update(elapsed, max_steps)`); maxSteps<=0 means
// unbounded. Any elapsed time beyond maxSteps*stepFrequency simply stays
// in the accumulator for the next call.
func (w *World) UpdateMaxSteps(elapsedTime float64, maxSteps int) bool {
	return w.UpdateStep(elapsedTime, w.settings.StepFrequency, maxSteps)
}

// UpdateStep is Update with an explicit fixed step size instead of
// Settings.StepFrequency (spec.md §6 `update(elapsed, step_dt, max_steps)`).
func (w *World) UpdateStep(elapsedTime, stepDT float64, maxSteps int) bool {
	if stepDT <= 0 {
		return false
	}
	w.accumTime += elapsedTime
	taken := 0
	for w.accumTime >= stepDT {
		if maxSteps > 0 && taken >= maxSteps {
			break
		}
		w.step(stepDT)
		w.accumTime -= stepDT
		taken++
	}
	return taken > 0
}

// Step runs exactly n fixed-size steps at Settings.StepFrequency
// (spec.md §6 `step(n)`), ignoring the accumulator.
func (w *World) Step(n int) {
	w.StepDT(n, w.settings.StepFrequency)
}

// StepDT runs exactly n steps of size dt (spec.md §6 `step(n, dt)`).
func (w *World) StepDT(n int, dt float64) {
	for i := 0; i < n; i++ {
		w.step(dt)
	}
}

// step runs exactly one fixed-size simulation tick (spec.md §4.9):
// bounds check, detection sub-pipeline, island extraction, per-island
// solve, CCD sweep.
func (w *World) step(dt float64) {
	if dt <= 0 {
		return
	}

	if w.stepListener != nil {
		w.stepListener.Begin(w)
	}

	for _, b := range w.bodies {
		b.savePreviousTransform()
		if w.bounds != nil && b.Enabled && w.boundsListener != nil && !w.bodyIntersectsBounds(b) {
			w.boundsListener.Outside(b)
		}
	}

	w.detect()

	graph := newConstraintGraph()
	w.pairs.each(func(d *CollisionData) {
		if d.Constraint != nil && !d.Constraint.Sensor {
			graph.addContactEdge(d.Constraint)
		}
	})
	for _, j := range w.joints {
		graph.addJointEdge(j)
	}

	cfg := w.settings.solverConfig(w.gravity)
	for _, island := range graph.extractIslands() {
		solveIsland(island, dt, cfg, w.contactListener)
		if len(island.Bodies) > 0 && island.Bodies[0].Sleeping {
			w.log.Debug("island asleep", "bodies", len(island.Bodies))
		}
	}
	// Bodies with no constraint-graph edges at all (isolated, no
	// contacts or joints) still integrate on their own.
	for _, b := range w.bodies {
		if !b.Enabled || b.Sleeping || graph.nodes[b] != nil {
			continue
		}
		b.applyTimedForces()
		b.integrateVelocity(w.gravity, dt)
		b.integratePosition(dt)
		b.clearForces(dt)
		if sleepSpeedOK(b, cfg.LinearSleepTolerance, cfg.AngularSleepTolerance) && b.AutoSleep {
			b.restTime += dt
			if b.restTime >= cfg.MinimumAtRestTime {
				b.sleep()
			}
		} else {
			b.restTime = 0
		}
	}

	if w.stepListener != nil {
		w.stepListener.UpdatePerformed(w)
	}

	runCCD(w.settings.ContinuousDetectionMode, w.bodies, w.broadphase, w.toiListener, w.toiListener, w.log)

	if w.stepListener != nil {
		w.stepListener.PostSolve(w)
	}

	w.broadphase.ClearUpdates()
	w.lastDT = dt

	if w.stepListener != nil {
		w.stepListener.End(w)
	}
}

func (w *World) bodyIntersectsBounds(b *Body) bool {
	for _, f := range b.fixtures {
		if f.AABB(b.transform).Overlaps(*w.bounds) {
			return true
		}
	}
	return len(b.fixtures) == 0
}

// detect runs the detection sub-pipeline of spec.md §4.9a in its two
// parts: (b) DetectPairs only *discovers* pairs to insert fresh
// CollisionData for — it is restricted to broad-phase nodes flagged
// "updated this tick" (spec.md §4.1, §9) and must not be used to decide
// which pairs get re-tested; (c) every pair already in the persistent
// map is re-run through filter/narrow-phase/manifold/contact-update
// every step, since a resting contact's fixtures can sit unmoving
// inside their fat AABBs indefinitely and must not be treated as stale.
func (w *World) detect() {
	w.broadphase.Update()

	w.pairs.resetAllStageFlags()

	for _, pair := range w.broadphase.DetectPairs() {
		if pair.A.Body == pair.B.Body {
			continue
		}
		if data, created := w.pairs.getOrCreate(pair.A, pair.B); created {
			data.removed = false
		}
	}

	var stale []PairID
	w.pairs.each(func(data *CollisionData) {
		id := data.ID

		// c.i: drop a pair whose endpoint left the broad-phase.
		if !w.broadphase.Contains(id.A) || !w.broadphase.Contains(id.B) {
			w.clearConstraint(data)
			stale = append(stale, id)
			return
		}

		// c.ii: an endpoint moved this tick re-tests fat-AABB overlap;
		// if the pair separated, still run it through the pipeline once
		// more (below) so end-contact events fire, then drop it.
		separated := false
		if w.broadphase.IsUpdated(id.A) || w.broadphase.IsUpdated(id.B) {
			aabbA, _ := w.broadphase.GetAABB(id.A)
			aabbB, _ := w.broadphase.GetAABB(id.B)
			separated = !aabbA.Overlaps(aabbB)
		}

		w.detectPair(data)

		if separated {
			stale = append(stale, id)
		}
	})
	for _, id := range stale {
		w.pairs.delete(id)
	}
}

// detectPair runs spec.md §4.9a steps iii-ix for one pair already
// resolved to be live in the broad-phase: user filter veto, narrow-phase,
// manifold, and contact-constraint update.
func (w *World) detectPair(data *CollisionData) {
	if !w.IsJointCollisionAllowed(data.Body1, data.Body2) {
		w.clearConstraint(data)
		return
	}
	if data.Fixture1.Filter.Reject(data.Fixture2.Filter) {
		w.clearConstraint(data)
		return
	}

	data.ReachedBroadphase = true
	if w.collisionListener != nil && !w.collisionListener.Broadphase(data) {
		w.clearConstraint(data)
		return
	}

	txA := data.Body1.Transform()
	txB := data.Body2.Transform()
	pen, hit := w.narrow.Detect(data.Fixture1.Shape, txA, data.Fixture2.Shape, txB)
	data.Penetration = pen
	if !hit {
		w.clearConstraint(data)
		return
	}
	data.ReachedNarrowphase = true
	if w.collisionListener != nil && !w.collisionListener.Narrowphase(data) {
		w.clearConstraint(data)
		return
	}

	m := w.manifold.Solve(data.Fixture1.Shape, txA, data.Fixture2.Shape, txB, pen)
	data.Manifold = m
	if len(m.Points) == 0 {
		w.clearConstraint(data)
		return
	}
	data.ReachedManifold = true
	if w.collisionListener != nil && !w.collisionListener.Manifold(data) {
		w.clearConstraint(data)
		return
	}

	if data.Constraint == nil {
		data.Constraint = newContactConstraint(data, w.mixer)
	}
	data.Constraint.updateFromManifold(m, w.contactListener)
	data.ReachedConstraint = true

	if w.contactListener != nil {
		allowed := true
		if !data.Constraint.Sensor {
			allowed = w.contactListener.PreSolve(data, data.Constraint)
		}
		data.Constraint.Enabled = allowed
		w.contactListener.Collision(data)
	}
	if w.collisionListener != nil {
		w.collisionListener.Collision(data)
	}
}

func (w *World) clearConstraint(d *CollisionData) {
	if d.Constraint != nil {
		if w.contactListener != nil {
			for i := range d.Constraint.Points {
				w.contactListener.End(&d.Constraint.Points[i])
			}
			w.contactListener.Destroyed(d.Constraint)
		}
		d.Constraint = nil
	}
	d.Manifold = Manifold{}
}
