package physics

// pair.go implements spec.md §3 "Collision pair / collision data" and
// §9 "Per-pair storage keyed by an unordered pair": a stable identity
// over {(body1,fix1),(body2,fix2)} independent of argument order, and
// an insertion-ordered map satisfying the iterator contract of §4.9a.
//
// Grounded on the teacher's `cachedArbiters` (a HashSetArbiter keyed by
// `HashPair(HashValue(a), HashValue(b))` with an order-independent
// `arbiterSetEql`) in space.go.

// PairID is the unordered-pair identity of two (body, fixture) items.
type PairID struct {
	A, B BroadphaseItem
}

// newPairID builds a PairID independent of argument order.
func newPairID(a, b BroadphaseItem) PairID {
	if ptrLess(a, b) {
		return PairID{A: a, B: b}
	}
	return PairID{A: b, B: a}
}

// CollisionData is the per-pair record the detection sub-pipeline
// (spec.md §4.9a) threads through broadphase/narrowphase/manifold, and
// which `process_collisions` (§4.9a step d) turns into a
// ContactConstraint edge when it reaches "manifold collision" status.
type CollisionData struct {
	ID PairID

	Body1, Body2       *Body
	Fixture1, Fixture2 *Fixture

	// Monotone non-decreasing flags within one pipeline stage (spec.md
	// §3 invariant 1); all reset at the start of every step.
	ReachedBroadphase bool
	ReachedNarrowphase bool
	ReachedManifold    bool
	ReachedConstraint  bool

	Penetration Penetration
	Manifold    Manifold

	Constraint *ContactConstraint

	// removed marks an endpoint no longer present in the world;
	// World.removePairsInvolvingNotify deletes the marked entries from
	// the pair map (spec.md §4.9a step c.i).
	removed bool
}

func (d *CollisionData) resetStageFlags() {
	d.ReachedBroadphase = false
	d.ReachedNarrowphase = false
	d.ReachedManifold = false
	d.ReachedConstraint = false
}

// pairMap is the insertion-ordered associative container spec.md §9
// requires for the CollisionData table (iteration order must equal
// insertion order, per spec.md §5 "Ordering guarantees").
type pairMap struct {
	data  map[PairID]*CollisionData
	order []PairID
}

func newPairMap() *pairMap {
	return &pairMap{data: map[PairID]*CollisionData{}}
}

func (m *pairMap) get(id PairID) (*CollisionData, bool) {
	d, ok := m.data[id]
	return d, ok
}

func (m *pairMap) getOrCreate(a, b BroadphaseItem) (*CollisionData, bool) {
	id := newPairID(a, b)
	if d, ok := m.data[id]; ok {
		return d, false
	}
	a1, b1 := id.A, id.B
	d := &CollisionData{
		ID:       id,
		Body1:    a1.Body,
		Fixture1: a1.Fixture,
		Body2:    b1.Body,
		Fixture2: b1.Fixture,
	}
	m.data[id] = d
	m.order = append(m.order, id)
	return d, true
}

func (m *pairMap) delete(id PairID) {
	if _, ok := m.data[id]; !ok {
		return
	}
	delete(m.data, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// each visits every pair in insertion order, matching the teacher's
// insertion-ordered pair-map iteration contract.
func (m *pairMap) each(f func(*CollisionData)) {
	for _, id := range m.order {
		if d, ok := m.data[id]; ok {
			f(d)
		}
	}
}

func (m *pairMap) resetAllStageFlags() {
	m.each(func(d *CollisionData) { d.resetStageFlags() })
}
