package physics

import "math"

// toi.go implements spec.md §4.8's conservative-advancement
// time-of-impact search. No example repo in the pack implements TOI
// (gazed-vu's broad-phase is AABB pair-finding only, and the teacher's
// Chipmunk port has no CCD at all), so this is built directly from the
// spec prose and documented as a stdlib-only component in DESIGN.md.
const (
	toiMaxIterations = 20
	toiTargetDistance = 0.005 // linear slop the search converges toward.
	toiTolerance      = 0.0005
)

// TOIResult is the outcome of a conservative-advancement search between
// two bodies' swept motion over one step (spec.md §4.8).
type TOIResult struct {
	Hit      bool
	Fraction float64 // in [0,1]; the time within the step at which separation first reaches the target distance.
}

// timeOfImpact searches for the first fraction of [0,1] at which shapeA
// (swept from txA0 to txA1) and shapeB (swept from txB0 to txB1) come
// within toiTargetDistance of each other, using the conservative
// advancement bound: at any fraction t, the two shapes cannot have
// closed more than (relative angular speed * max radius + relative
// linear speed) * dt of separation, so a lower bound on the true TOI is
// always safe to advance to.
func timeOfImpact(shapeA Shape, txA0, txA1 Transform, shapeB Shape, txB0, txB1 Transform) TOIResult {
	maxRadiusA := boundingRadius(shapeA)
	maxRadiusB := boundingRadius(shapeB)

	t := 0.0
	for iter := 0; iter < toiMaxIterations; iter++ {
		txA := Lerp(txA0, txA1, t)
		txB := Lerp(txB0, txB1, t)

		sep := Distance(shapeA, txA, shapeB, txB)
		if sep.Distance < toiTargetDistance+toiTolerance {
			if t == 0 && sep.Distance < toiTargetDistance {
				// Already overlapping at the start of the step: the
				// discrete narrow-phase owns this pair, not CCD.
				return TOIResult{Hit: false}
			}
			return TOIResult{Hit: true, Fraction: t}
		}

		// Bound how much of the remaining separation could close per
		// unit fraction: translational closing speed plus each shape's
		// own rotation sweeping its farthest point through the gap.
		relLinear := txA1.Translation.Sub(txA0.Translation).Sub(txB1.Translation.Sub(txB0.Translation)).Len()
		angularSweepA := math.Abs(txA1.Angle-txA0.Angle) * maxRadiusA
		angularSweepB := math.Abs(txB1.Angle-txB0.Angle) * maxRadiusB
		closingRate := relLinear + angularSweepA + angularSweepB
		if closingRate < 1e-9 {
			return TOIResult{Hit: false}
		}

		advance := (sep.Distance - toiTargetDistance) / closingRate
		if advance <= 0 {
			advance = toiTolerance
		}
		t += advance
		if t >= 1 {
			return TOIResult{Hit: false}
		}
	}
	// Ran out of iterations still separated beyond target: treat as a
	// miss rather than reporting a spurious hit at t==1.
	return TOIResult{Hit: false}
}

// boundingRadius approximates the farthest local-space point from the
// shape's own origin, an upper bound used by the conservative-advancement
// angular sweep term above.
func boundingRadius(s Shape) float64 {
	switch sh := s.(type) {
	case Circle:
		return sh.Center.Len() + sh.R
	case Polygon:
		max := 0.0
		for _, v := range sh.Vertices {
			if l := v.Len(); l > max {
				max = l
			}
		}
		return max
	default:
		return 0
	}
}
