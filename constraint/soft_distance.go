package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// SoftDistance holds two pivots at a springy target separation instead of
// rigidly, grounded on
// original_source/src/edyn/constraints/soft_distance_constraint.cpp.
type SoftDistance struct {
	PivotA, PivotB mgl64.Vec3
	Distance       float64
	Stiffness      float64
	Damping        float64
}

// PrepareSoftDistance builds two rows sharing one Jacobian along the
// current pivot separation direction: a spring row whose bound alone
// drives the impulse (Error set to ±Inf, exactly as the original sets
// options.error to a large scalar) and a symmetric damping row.
func PrepareSoftDistance(reg *registry.Registry, bodyA, bodyB registry.Entity, c *SoftDistance, dt float64) []*Row {
	ta, _ := registry.Get[actor.Transform](reg, bodyA)
	tb, _ := registry.Get[actor.Transform](reg, bodyB)

	rA := ta.Rotation.Rotate(c.PivotA)
	rB := tb.Rotation.Rotate(c.PivotB)
	worldA := ta.Position.Add(rA)
	worldB := tb.Position.Add(rB)

	d := worldB.Sub(worldA)
	dist := d.Len()
	var dir mgl64.Vec3
	if dist > 1e-9 {
		dir = d.Mul(1 / dist)
	} else {
		dir = mgl64.Vec3{0, 1, 0}
	}

	jLinA := dir.Mul(-1)
	jAngA := rA.Cross(dir).Mul(-1)
	jLinB := dir
	jAngB := rB.Cross(dir)

	springBound := c.Stiffness * (c.Distance - dist) * dt
	springRow := &Row{
		Kind: KindSoftDistance, BodyA: bodyA, BodyB: bodyB,
		JLinA: jLinA, JAngA: jAngA, JLinB: jLinB, JAngB: jAngB,
		LowerLimit: minf(-springBound, springBound),
		UpperLimit: maxf(-springBound, springBound),
		Options:    Options{Error: posInf * sign(springBound)},
	}

	a := loadBody(reg, bodyA)
	b := loadBody(reg, bodyB)
	relSpeed := springRow.relativeVelocity(a, b)
	dampBound := c.Damping * relSpeed * dt
	dampRow := &Row{
		Kind: KindSoftDistance, BodyA: bodyA, BodyB: bodyB,
		JLinA: jLinA, JAngA: jAngA, JLinB: jLinB, JAngB: jAngB,
		LowerLimit: minf(-dampBound, dampBound),
		UpperLimit: maxf(-dampBound, dampBound),
		Options:    Options{Error: posInf * sign(-dampBound)},
	}

	return []*Row{springRow, dampRow}
}
