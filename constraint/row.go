// Package constraint implements the solver's row-based pipeline: every
// constraint (contact, hinge, distance, soft distance) is flattened into
// one or more Jacobian rows before the velocity/restitution/position
// passes run over them uniformly, exactly the teacher's own
// ContactConstraint.SolveVelocity generalized from one hard-coded
// constraint kind to a table of prepare functions per kind.
package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// Kind identifies which prepare routine produced a Row. SolveVelocity and
// SolvePosition treat every Row uniformly; SolveRestitution uses Kind to
// pick out contact rows.
type Kind int

const (
	KindPoint Kind = iota
	KindDistance
	KindSoftDistance
	KindHinge
	KindGeneric
	KindContact
)

// Options carries the per-row bias terms the velocity solver folds into
// its right-hand side.
type Options struct {
	Error       float64 // signed positional error, divided by dt in SolveVelocity
	Restitution float64 // 0 unless this row is a contact normal row
	ERP         float64 // error reduction parameter override; 0 means use the solver default
}

// Row is the solver's atomic unit. J is stored as four Vec3 blocks
// (linear/angular on each body) rather than a flat slice, since every
// constraint in this engine only ever touches two bodies.
type Row struct {
	Kind Kind

	BodyA, BodyB registry.Entity

	JLinA, JAngA mgl64.Vec3
	JLinB, JAngB mgl64.Vec3

	LowerLimit float64
	UpperLimit float64

	Impulse       float64
	EffectiveMass float64

	Options Options

	// Friction and NormalRow are set only on a contact's tangential rows,
	// so SolveVelocity can rebound them to the friction pyramid after
	// every pass instead of fixing the bound once at preparation time.
	Friction  float64
	NormalRow *Row

	// PointEntity identifies the manifold.Point entity a contact normal
	// row was built from, so its converged impulse can be written back
	// for next step's warm start.
	PointEntity registry.Entity

	// PositionCorrect marks a row as eligible for SolvePosition: true for
	// point/hinge-pivot/distance/generic rows and contact normal rows,
	// false for angular limit/spring/friction rows and contact
	// tangential/roll/spin rows, which only ever correct velocity.
	PositionCorrect bool

	// PreSolveRelativeVelocity is set by SolveRestitution before it runs,
	// used to bake a bounce bias for contact normal rows.
	PreSolveRelativeVelocity float64
}

type bodyView struct {
	InvMass    float64
	InvInertia mgl64.Mat3
	Linear     mgl64.Vec3
	Angular    mgl64.Vec3
}

func loadBody(reg *registry.Registry, e registry.Entity) bodyView {
	mass, _ := registry.Get[actor.Mass](reg, e)
	inertia, _ := registry.Get[actor.Inertia](reg, e)
	vel, _ := registry.Get[actor.Velocity](reg, e)
	return bodyView{InvMass: mass.Inv, InvInertia: inertia.WorldInv, Linear: vel.Linear, Angular: vel.Angular}
}

// relativeVelocity returns J·v for the row given the two bodies' current
// velocities.
func (r *Row) relativeVelocity(a, b bodyView) float64 {
	return r.JLinA.Dot(a.Linear) + r.JAngA.Dot(a.Angular) +
		r.JLinB.Dot(b.Linear) + r.JAngB.Dot(b.Angular)
}

// computeEffectiveMass fills EffectiveMass from the two bodies' inverse
// mass/inertia and this row's Jacobian, clamping degenerate rows (both
// bodies infinitely massive along this axis) to zero contribution rather
// than dividing by zero.
func (r *Row) computeEffectiveMass(a, b bodyView) {
	k := a.InvMass*r.JLinA.Dot(r.JLinA) + r.JAngA.Dot(a.InvInertia.Mul3x1(r.JAngA)) +
		b.InvMass*r.JLinB.Dot(r.JLinB) + r.JAngB.Dot(b.InvInertia.Mul3x1(r.JAngB))
	if k <= 1e-12 {
		r.EffectiveMass = 0
		return
	}
	r.EffectiveMass = 1 / k
}

// applyImpulse adds a scalar impulse along this row's Jacobian to both
// bodies' velocity components in reg.
func (r *Row) applyImpulse(reg *registry.Registry, delta float64) {
	if delta == 0 {
		return
	}
	if velA, ok := registry.GetPtr[actor.Velocity](reg, r.BodyA); ok {
		massA, _ := registry.Get[actor.Mass](reg, r.BodyA)
		inertiaA, _ := registry.Get[actor.Inertia](reg, r.BodyA)
		velA.Linear = velA.Linear.Add(r.JLinA.Mul(delta * massA.Inv))
		velA.Angular = velA.Angular.Add(inertiaA.WorldInv.Mul3x1(r.JAngA.Mul(delta)))
	}
	if velB, ok := registry.GetPtr[actor.Velocity](reg, r.BodyB); ok {
		massB, _ := registry.Get[actor.Mass](reg, r.BodyB)
		inertiaB, _ := registry.Get[actor.Inertia](reg, r.BodyB)
		velB.Linear = velB.Linear.Add(r.JLinB.Mul(delta * massB.Inv))
		velB.Angular = velB.Angular.Add(inertiaB.WorldInv.Mul3x1(r.JAngB.Mul(delta)))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
