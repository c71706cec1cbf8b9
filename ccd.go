package physics

import "log/slog"

// ccd.go orchestrates the continuous-collision pass of spec.md §4.8:
// candidate filtering by ContinuousDetectionMode, a conservative-
// advancement TOI search per surviving pair, and resolving the earliest
// hit per body by rewinding its pose to the impact fraction. Grounded on
// the teacher's per-step pass ordering in space.go (the CCD sweep runs
// after the discrete solve, before the next step's broad-phase rebuild).

// ContinuousDetectionMode selects which bodies participate in CCD
// (spec.md §6 Settings).
type ContinuousDetectionMode int

const (
	// ContinuousDetectionNone disables CCD entirely.
	ContinuousDetectionNone ContinuousDetectionMode = iota
	// ContinuousDetectionBulletsOnly runs CCD only for bodies flagged
	// Bullet against any other body.
	ContinuousDetectionBulletsOnly
	// ContinuousDetectionAll runs CCD for every dynamic body against
	// static and kinematic bodies; a dynamic-vs-dynamic pair is still
	// swept only when at least one of the two is a Bullet.
	ContinuousDetectionAll
)

// ccdCandidate names a (body,fixture) item pair for a CCD sweep. runCCD
// does not build it: it works from the bodies selectCCDCandidates
// returns, and no speed threshold is applied to them.
type ccdCandidate struct {
	item1, item2 BroadphaseItem
}

// selectCCDCandidates filters bodies by mode: spec.md §4.8 step 1.
func selectCCDCandidates(mode ContinuousDetectionMode, bodies []*Body) []*Body {
	if mode == ContinuousDetectionNone {
		return nil
	}
	var out []*Body
	for _, b := range bodies {
		if !b.Enabled || b.IsStatic() || b.Sleeping {
			continue
		}
		if mode == ContinuousDetectionBulletsOnly && !b.Bullet {
			continue
		}
		out = append(out, b)
	}
	return out
}

// runCCD performs one full CCD pass: for each candidate body, sweep its
// fixtures against the broad-phase's swept AABB query, run conservative
// advancement on the earliest candidate pair, and rewind the body (and
// anything bullet-exempt excluded) to the impact pose. At most one TOI
// event is resolved per body per step, matching spec.md §4.8's policy
// against cascading re-sweeps within a single tick.
func runCCD(mode ContinuousDetectionMode, bodies []*Body, bp Broadphase, tolListener TimeOfImpactListener, resultListener TimeOfImpactListener, log *slog.Logger) {
	candidates := selectCCDCandidates(mode, bodies)
	resolved := map[*Body]bool{}

	for _, b := range candidates {
		if resolved[b] {
			continue
		}
		best := TOIResult{}
		var bestOther *Body

		for _, f := range b.Fixtures() {
			sweepAABB := f.AABB(b.PreviousTransform()).Union(f.AABB(b.Transform()))
			for _, other := range bp.QueryAABB(sweepAABB) {
				if other.Body == b || other.Body == nil {
					continue
				}
				if mode == ContinuousDetectionAll && !other.Body.IsStatic() && !b.Bullet && !other.Body.Bullet {
					// Dynamic-vs-dynamic still requires at least one
					// bullet even in all-dynamic mode (spec.md §4.8).
					continue
				}
				if tolListener != nil && !tolListener.AllowBodyPair(b, other.Body) {
					continue
				}
				if tolListener != nil && !tolListener.AllowFixturePair(f, other.Fixture) {
					continue
				}
				if f.Filter.Reject(other.Fixture.Filter) {
					continue
				}

				res := timeOfImpact(f.Shape, b.PreviousTransform(), b.Transform(),
					other.Fixture.Shape, other.Body.PreviousTransform(), other.Body.Transform())
				if res.Hit && (!best.Hit || res.Fraction < best.Fraction) {
					best = res
					bestOther = other.Body
				}
			}
		}

		if !best.Hit {
			continue
		}
		if resultListener != nil && !resultListener.AllowResolve(b, bestOther, best.Fraction) {
			continue
		}

		rewindToTOI(b, best.Fraction)
		if !bestOther.IsStatic() && !bestOther.IsKinematic() {
			rewindToTOI(bestOther, best.Fraction)
			resolved[bestOther] = true
		}
		resolved[b] = true
		if log != nil {
			log.Debug("ccd resolved", "fraction", best.Fraction)
		}
	}
}

// rewindToTOI sets b's pose to the interpolated transform at fraction.
// Velocities are left unchanged; the contact is left to the next step's
// discrete solver.
func rewindToTOI(b *Body, fraction float64) {
	b.transform = Lerp(b.PreviousTransform(), b.Transform(), fraction)
}
