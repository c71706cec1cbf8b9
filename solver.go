package physics

// solver.go implements the island sequential-impulse solver of
// spec.md §4.7: integrate velocity, warm start, velocity iterations,
// integrate position, position iterations, sleep. Grounded on the
// teacher's `Space.Step` body (the section inside `space.Lock(){...}`
// in space.go), generalized from Chipmunk's single global solve to the
// spec's per-island solve.

// solverConfig carries the tunables solveIsland needs, threaded in from
// World.settings rather than a package-level global (spec.md §6
// "Settings govern stepping, not global state").
type solverConfig struct {
	Gravity               Vec2
	VelocityIterations    int
	PositionIterations    int
	LinearSleepTolerance  float64
	AngularSleepTolerance float64
	MinimumAtRestTime     float64
	MaxLinearCorrection   float64
}

// solveIsland runs one full step of the sequential-impulse pipeline for
// a single island (spec.md §4.7 phases 1-7). Islands are solved one at a
// time on the calling goroutine — see SPEC_FULL.md §5 for why island
// solving is not parallelized.
func solveIsland(isl *Island, dt float64, cfg solverConfig, listener ContactListener) {
	for _, b := range isl.Bodies {
		b.applyTimedForces()
		b.integrateVelocity(cfg.Gravity, dt)
	}

	for _, cc := range isl.Contacts {
		if cc.Sensor || !cc.Enabled || len(cc.Points) == 0 {
			continue
		}
		cc.initializeVelocityConstraints()
		cc.warmStart()
	}
	for _, j := range isl.Joints {
		j.initializeConstraints(dt)
		j.warmStart()
	}

	for iter := 0; iter < cfg.VelocityIterations; iter++ {
		for _, j := range isl.Joints {
			j.solveVelocityConstraints()
		}
		for _, cc := range isl.Contacts {
			if cc.Sensor || !cc.Enabled || len(cc.Points) == 0 {
				continue
			}
			cc.solveVelocity()
		}
	}

	if listener != nil {
		for _, cc := range isl.Contacts {
			if !cc.Sensor && cc.Enabled && len(cc.Points) > 0 {
				listener.PostSolve(nil, cc)
			}
		}
	}

	for _, b := range isl.Bodies {
		b.integratePosition(dt)
	}

	// positionConverged tracks whether the final position-iteration pass
	// found every joint and contact within tolerance (spec.md §4.7 phase
	// 6's "break early when all say converged" outcome); with zero
	// configured iterations there is nothing to diverge, so it starts
	// true. This is threaded into updateSleep below: phase 7 may only
	// put an island to sleep when both the per-body timers AND this
	// convergence flag agree (spec.md §9 "Sleep determinism" — splitting
	// the two checks causes spurious sleep/wakeup).
	positionConverged := true
	for iter := 0; iter < cfg.PositionIterations; iter++ {
		ok := true
		for _, j := range isl.Joints {
			if !j.solvePositionConstraints() {
				ok = false
			}
		}
		for _, cc := range isl.Contacts {
			if cc.Sensor || !cc.Enabled || len(cc.Points) == 0 {
				continue
			}
			if !solveContactPosition(cc, cfg.MaxLinearCorrection) {
				ok = false
			}
		}
		positionConverged = ok
		if ok {
			break
		}
	}

	for _, b := range isl.Bodies {
		b.clearForces(dt)
	}

	updateSleep(isl, dt, cfg, positionConverged)
}

// solveContactPosition runs one Nonlinear-Gauss-Seidel position
// correction pass over cc's contact points, nudging the bodies apart
// along the contact normal until the penetration clears a small slop,
// matching the teacher's post-velocity correction step (space.go's
// "bias coefficient" correction inside the solve loop) — reports false
// while any point still exceeds the linear-correction tolerance.
//
// rA/rB (captured once, at initializeVelocityConstraints) are held
// fixed for the duration of the position iterations: the incremental
// rotation across a handful of NGS passes is small enough that
// re-deriving the anchors from the rotated pose isn't worth the cost,
// matching the approximation most simple sequential-impulse solvers make.
func solveContactPosition(cc *ContactConstraint, maxCorrection float64) bool {
	const slop = 0.005
	b1, b2 := cc.Body1, cc.Body2
	converged := true
	for i := range cc.Points {
		p := &cc.Points[i]
		pointA := b1.WorldCenter().Add(p.rA)
		pointB := b2.WorldCenter().Add(p.rB)
		c := cc.Normal.Dot(pointB.Sub(pointA)) - p.Depth

		if c >= -slop {
			continue
		}
		converged = false

		correction := clampF(-(c + slop), 0, maxCorrection)

		rnA := cross2(p.rA, cc.Normal)
		rnB := cross2(p.rB, cc.Normal)
		k := b1.invMass + b2.invMass + b1.invInertia*rnA*rnA + b2.invInertia*rnB*rnB
		if k <= 0 {
			continue
		}
		lambda := correction / k
		impulse := cc.Normal.Mul(lambda)

		b1.transform = b1.transform.Shift(impulse.Mul(-b1.invMass))
		b1.transform = NewTransform(b1.transform.Translation, b1.transform.Angle-b1.invInertia*cross2(p.rA, impulse))
		b2.transform = b2.transform.Shift(impulse.Mul(b2.invMass))
		b2.transform = NewTransform(b2.transform.Translation, b2.transform.Angle+b2.invInertia*cross2(p.rB, impulse))
	}
	return converged
}

// updateSleep advances each body's at-rest timer and puts islands to
// sleep once the whole island clears the tolerances for long enough
// AND phase 6's position solve converged this step (spec.md §4.7 phase
// 7: "put the whole island to sleep" only when both hold together).
func updateSleep(isl *Island, dt float64, cfg solverConfig, positionConverged bool) {
	for _, b := range isl.Bodies {
		if !b.AutoSleep || b.IsKinematic() {
			b.restTime = 0
			continue
		}
		if sleepSpeedOK(b, cfg.LinearSleepTolerance, cfg.AngularSleepTolerance) {
			b.restTime += dt
		} else {
			b.restTime = 0
		}
	}
	if positionConverged && isl.isAtRest(cfg.LinearSleepTolerance, cfg.AngularSleepTolerance, cfg.MinimumAtRestTime) {
		isl.sleep()
	}
}
