package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// Generic locks relative motion along an arbitrary set of body-local
// axes at each pivot, generalizing Point (which always locks all three
// axes) to a caller-chosen subset — a slider joint locks two axes and
// leaves one free, for instance.
type Generic struct {
	PivotA, PivotB mgl64.Vec3
	AxesA          []mgl64.Vec3 // body-A-local axes to constrain, world-normalized on use
}

// PrepareGeneric builds one unbounded row per axis, using the same
// point-to-point Jacobian shape as PreparePoint but projected onto each
// caller-supplied axis instead of the full basis.
func PrepareGeneric(reg *registry.Registry, bodyA, bodyB registry.Entity, c *Generic) []*Row {
	ta, _ := registry.Get[actor.Transform](reg, bodyA)
	tb, _ := registry.Get[actor.Transform](reg, bodyB)

	rA := ta.Rotation.Rotate(c.PivotA)
	rB := tb.Rotation.Rotate(c.PivotB)
	worldA := ta.Position.Add(rA)
	worldB := tb.Position.Add(rB)
	errVec := worldA.Sub(worldB)

	rows := make([]*Row, 0, len(c.AxesA))
	for _, localAxis := range c.AxesA {
		axis := ta.Rotation.Rotate(localAxis).Normalize()
		rows = append(rows, &Row{
			Kind:       KindGeneric,
			BodyA:      bodyA,
			BodyB:      bodyB,
			JLinA:      axis,
			JAngA:      rA.Cross(axis).Mul(-1),
			JLinB:      axis.Mul(-1),
			JAngB:      rB.Cross(axis),
			LowerLimit:      negInf,
			UpperLimit:      posInf,
			Options:         Options{Error: errVec.Dot(axis)},
			PositionCorrect: true,
		})
	}
	return rows
}

// Distance keeps two pivots at exactly Length apart (a rigid rod), the
// unbounded single-axis special case of Generic.
type Distance struct {
	PivotA, PivotB mgl64.Vec3
	Length         float64
}

// PrepareDistance builds the one row locking separation to Length along
// the current pivot-to-pivot direction.
func PrepareDistance(reg *registry.Registry, bodyA, bodyB registry.Entity, c *Distance) []*Row {
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

	return []*Row{{
		Kind:       KindDistance,
		BodyA:      bodyA,
		BodyB:      bodyB,
		JLinA:      dir.Mul(-1),
		JAngA:      rA.Cross(dir).Mul(-1),
		JLinB:      dir,
		JAngB:      rB.Cross(dir),
		LowerLimit:      negInf,
		UpperLimit:      posInf,
		Options:         Options{Error: dist - c.Length},
		PositionCorrect: true,
	}}
}
