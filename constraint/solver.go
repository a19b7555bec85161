package constraint

import (
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// SolveVelocity runs NumSolverVelocityIterations passes of projected
// Gauss-Seidel over rows, grounded on the teacher's
// ContactConstraint.SolveVelocity generalized from one row kind to the
// full table. Rows are visited in the order given (never re-sorted), so
// a hinge's limit row always follows its point rows.
func SolveVelocity(reg *registry.Registry, rows []*Row, dt float64, iterations int) {
	for _, r := range rows {
		a := loadBody(reg, r.BodyA)
		b := loadBody(reg, r.BodyB)
		r.computeEffectiveMass(a, b)
	}

	for iter := 0; iter < iterations; iter++ {
		for _, r := range rows {
			if r.NormalRow != nil {
				bound := r.Friction * r.NormalRow.Impulse
				r.LowerLimit, r.UpperLimit = -bound, bound
			}
			solveRow(reg, r, dt)
		}
	}

	commitWarmStarts(reg, rows)
}

func solveRow(reg *registry.Registry, r *Row, dt float64) {
	if r.EffectiveMass == 0 {
		return
	}
	a := loadBody(reg, r.BodyA)
	b := loadBody(reg, r.BodyB)
	jv := r.relativeVelocity(a, b)

	bias := 0.0
	if dt > 0 {
		erp := r.Options.ERP
		if erp == 0 {
			erp = 0.2
		}
		bias = r.Options.Error * erp / dt
	}
	bias -= r.Options.Restitution * r.PreSolveRelativeVelocity

	deltaLambda := (-(jv + bias)) * r.EffectiveMass
	newImpulse := clamp(r.Impulse+deltaLambda, r.LowerLimit, r.UpperLimit)
	deltaLambda = newImpulse - r.Impulse
	r.Impulse = newImpulse

	r.applyImpulse(reg, deltaLambda)
}

// commitWarmStarts persists every contact normal row's converged impulse
// back onto its point entity so PrepareContact can warm-start next step.
func commitWarmStarts(reg *registry.Registry, rows []*Row) {
	for _, r := range rows {
		if r.PointEntity == registry.Null {
			continue
		}
		registry.EmplaceOrReplace(reg, r.PointEntity, WarmStart{NormalImpulse: r.Impulse})
	}
}

// SolveRestitution runs the bounce-bias pass described in the spec:
// outer x inner iterations over contact rows with Restitution > 0, using
// the pre-solve approach velocity captured before this step's impulses
// were applied.
func SolveRestitution(reg *registry.Registry, rows []*Row, outer, inner int) {
	var restRows []*Row
	for _, r := range rows {
		if r.Kind == KindContact && r.Options.Restitution > 0 && r.NormalRow == nil {
			a := loadBody(reg, r.BodyA)
			b := loadBody(reg, r.BodyB)
			r.PreSolveRelativeVelocity = r.relativeVelocity(a, b)
			restRows = append(restRows, r)
		}
	}
	if len(restRows) == 0 {
		return
	}
	for _, r := range restRows {
		a := loadBody(reg, r.BodyA)
		b := loadBody(reg, r.BodyB)
		r.computeEffectiveMass(a, b)
	}
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for _, r := range restRows {
				solveRow(reg, r, 0)
			}
		}
	}
}

// SolvePosition runs non-linear Gauss-Seidel position correction: each
// row's current positional error is recomputed from live transforms
// (rather than reused from preparation time) and a damped fraction of
// the correcting impulse is integrated directly into position/orientation.
func SolvePosition(reg *registry.Registry, rows []*Row, iterations int) {
	const stepFactor = 0.2
	for iter := 0; iter < iterations; iter++ {
		for _, r := range rows {
			if !r.PositionCorrect {
				continue
			}
			a := loadBody(reg, r.BodyA)
			b := loadBody(reg, r.BodyB)
			k := a.InvMass*r.JLinA.Dot(r.JLinA) + r.JAngA.Dot(a.InvInertia.Mul3x1(r.JAngA)) +
				b.InvMass*r.JLinB.Dot(r.JLinB) + r.JAngB.Dot(b.InvInertia.Mul3x1(r.JAngB))
			if k <= 1e-12 {
				continue
			}
			lambda := clamp(-r.Options.Error/k, r.LowerLimit, r.UpperLimit) * stepFactor
			applyPositionCorrection(reg, r, lambda)
		}
	}
}

func applyPositionCorrection(reg *registry.Registry, r *Row, lambda float64) {
	if ta, ok := registry.GetPtr[actor.Transform](reg, r.BodyA); ok {
		massA, _ := registry.Get[actor.Mass](reg, r.BodyA)
		inertiaA, _ := registry.GetPtr[actor.Inertia](reg, r.BodyA)
		ta.Position = ta.Position.Add(r.JLinA.Mul(lambda * massA.Inv))
		if inertiaA != nil {
			ta.Rotation = actor.IntegrateOrientation(ta.Rotation, inertiaA.WorldInv.Mul3x1(r.JAngA.Mul(lambda)), 1)
			actor.RefreshWorldInertia(inertiaA, ta.Rotation)
		}
	}
	if tb, ok := registry.GetPtr[actor.Transform](reg, r.BodyB); ok {
		massB, _ := registry.Get[actor.Mass](reg, r.BodyB)
		inertiaB, _ := registry.GetPtr[actor.Inertia](reg, r.BodyB)
		tb.Position = tb.Position.Add(r.JLinB.Mul(lambda * massB.Inv))
		if inertiaB != nil {
			tb.Rotation = actor.IntegrateOrientation(tb.Rotation, inertiaB.WorldInv.Mul3x1(r.JAngB.Mul(lambda)), 1)
			actor.RefreshWorldInertia(inertiaB, tb.Rotation)
		}
	}
}
