package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/manifold"
	"github.com/nyxforge/rigid/registry"
)

// PrepareContact builds one normal row and two tangential friction rows
// per live manifold point, grounded on the teacher's ContactConstraint.
// Tangential rows carry a NormalRow back-reference so SolveVelocity can
// rebound them to ±Friction*NormalImpulse after every pass, keeping the
// friction pyramid inside Coulomb's cone for whatever impulse the normal
// row actually converges to.
func PrepareContact(reg *registry.Registry, m *manifold.Manifold) []*Row {
	rows := make([]*Row, 0, m.NumPoints*3)
	for i := 0; i < m.NumPoints; i++ {
		pt, ok := registry.Get[manifold.Point](reg, m.Points[i])
		if !ok {
			continue
		}
		worldA, worldB, ok := manifold.WorldPivots(reg, &pt)
		if !ok {
			continue
		}
		rA := worldA.Sub(mustPosition(reg, pt.BodyA))
		rB := worldB.Sub(mustPosition(reg, pt.BodyB))
		normal := pt.Normal

		normalRow := &Row{
			Kind:  KindContact,
			BodyA: pt.BodyA, BodyB: pt.BodyB,
			JLinA: normal.Mul(-1), JAngA: rA.Cross(normal).Mul(-1),
			JLinB: normal, JAngB: rB.Cross(normal),
			LowerLimit: 0,
			UpperLimit: posInf,
			Options:         Options{Error: pt.Distance, Restitution: pt.Restitution},
			Impulse:         normalWarmStart(reg, m.Points[i]),
			PointEntity:     m.Points[i],
			PositionCorrect: true,
		}
		rows = append(rows, normalRow)

		t1, t2 := orthonormalBasis(normal)
		for _, tangent := range [2]mgl64.Vec3{t1, t2} {
			rows = append(rows, &Row{
				Kind:  KindContact,
				BodyA: pt.BodyA, BodyB: pt.BodyB,
				JLinA: tangent.Mul(-1), JAngA: rA.Cross(tangent).Mul(-1),
				JLinB: tangent, JAngB: rB.Cross(tangent),
				Friction:  pt.Friction,
				NormalRow: normalRow,
			})
		}

		if pt.RollFriction > 0 {
			rows = append(rows, rollingFrictionRow(pt, normal))
		}
		if pt.SpinFriction > 0 {
			rows = append(rows, spinFrictionRow(pt, normal))
		}
	}
	return rows
}

// normalWarmStart looks up the previous step's converged normal impulse,
// stashed on the point entity by SolveVelocity, so contacts don't have to
// build up pressure from zero every step.
func normalWarmStart(reg *registry.Registry, pointEntity registry.Entity) float64 {
	w, ok := registry.Get[WarmStart](reg, pointEntity)
	if !ok {
		return 0
	}
	return w.NormalImpulse
}

// WarmStart persists a contact point's last converged normal impulse
// across steps, attached to the same entity as its manifold.Point.
type WarmStart struct {
	NormalImpulse float64
}

func rollingFrictionRow(pt manifold.Point, normal mgl64.Vec3) *Row {
	t1, _ := orthonormalBasis(normal)
	bound := pt.RollFriction
	return &Row{
		Kind: KindContact, BodyA: pt.BodyA, BodyB: pt.BodyB,
		JAngA: t1.Mul(-1), JAngB: t1,
		LowerLimit: -bound, UpperLimit: bound,
	}
}

func spinFrictionRow(pt manifold.Point, normal mgl64.Vec3) *Row {
	bound := pt.SpinFriction
	return &Row{
		Kind: KindContact, BodyA: pt.BodyA, BodyB: pt.BodyB,
		JAngA: normal.Mul(-1), JAngB: normal,
		LowerLimit: -bound, UpperLimit: bound,
	}
}

func mustPosition(reg *registry.Registry, e registry.Entity) mgl64.Vec3 {
	t, _ := registry.Get[actor.Transform](reg, e)
	return t.Position
}
