package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// Point pins a local point on each body together (a ball-and-socket
// joint), grounded on original_source/src/edyn/constraints/point_constraint.cpp.
type Point struct {
	PivotA, PivotB mgl64.Vec3 // body-local offsets from center of mass
	ERP            float64
}

var worldAxes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// PreparePoint builds the three unbounded position rows described in the
// spec: J = (I, -skew(rA), -I, skew(rB)).
func PreparePoint(reg *registry.Registry, bodyA, bodyB registry.Entity, c *Point) []*Row {
	ta, _ := registry.Get[actor.Transform](reg, bodyA)
	tb, _ := registry.Get[actor.Transform](reg, bodyB)

	rA := ta.Rotation.Rotate(c.PivotA)
	rB := tb.Rotation.Rotate(c.PivotB)

	worldA := ta.Position.Add(rA)
	worldB := tb.Position.Add(rB)
	errVec := worldA.Sub(worldB)

	rows := make([]*Row, 0, 3)
	for i, axis := range worldAxes {
		row := &Row{
			Kind:       KindPoint,
			BodyA:      bodyA,
			BodyB:      bodyB,
			JLinA:      axis,
			JAngA:      rA.Cross(axis).Mul(-1),
			JLinB:      axis.Mul(-1),
			JAngB:      rB.Cross(axis),
			LowerLimit:      negInf,
			UpperLimit:      posInf,
			Options:         Options{Error: errVec[i], ERP: c.ERP},
			PositionCorrect: true,
		}
		rows = append(rows, row)
	}
	return rows
}

const posInf = 1e30
const negInf = -1e30
