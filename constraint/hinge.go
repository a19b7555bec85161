package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// Hinge restricts two bodies to rotate about one shared axis, grounded
// line-for-line on original_source/src/edyn/constraints/hinge_constraint.cpp.
type Hinge struct {
	PivotA, PivotB mgl64.Vec3 // body-local pivot offsets
	AxisA, AxisB   mgl64.Vec3 // body-local hinge axis, each side's own frame

	HasLimit           bool
	AngleMin, AngleMax float64
	BumpStopStiffness  float64
	BumpStopLength     float64

	Stiffness  float64 // spring toward RestAngle, 0 disables
	RestAngle  float64
	Damping    float64

	FrictionTorque float64 // constant friction resisting relative rotation

	// Angle is the running hinge angle, tracked continuously across ±π
	// wrap by PrepareHinge; the caller persists this between steps.
	Angle float64
}

// PrepareHinge builds the point rows (as Point), two rows locking
// rotation orthogonal to the hinge axis, and the optional limit/spring/
// friction rows, in that fixed order — later rows (limit, spring,
// friction) depend on nothing computed by earlier ones so their relative
// order only matters for the deterministic-iteration guarantee.
func PrepareHinge(reg *registry.Registry, bodyA, bodyB registry.Entity, c *Hinge, dt float64) []*Row {
	ta, _ := registry.Get[actor.Transform](reg, bodyA)
	tb, _ := registry.Get[actor.Transform](reg, bodyB)

	rows := PreparePoint(reg, bodyA, bodyB, &Point{PivotA: c.PivotA, PivotB: c.PivotB})
	for _, r := range rows {
		r.Kind = KindHinge
	}

	axisAWorld := ta.Rotation.Rotate(c.AxisA).Normalize()
	axisBWorld := tb.Rotation.Rotate(c.AxisB).Normalize()

	t1, t2 := orthonormalBasis(axisAWorld)
	for _, perp := range [2]mgl64.Vec3{t1, t2} {
		rows = append(rows, &Row{
			Kind:       KindHinge,
			BodyA:      bodyA,
			BodyB:      bodyB,
			JAngA:      perp,
			JAngB:      perp.Mul(-1),
			LowerLimit: negInf,
			UpperLimit: posInf,
			Options:    Options{Error: axisAWorld.Cross(axisBWorld).Dot(perp)},
		})
	}

	measured := math.Atan2(t1.Cross(axisBWorld).Dot(axisAWorld), t1.Dot(axisBWorld))
	c.Angle = advanceAngle(c.Angle, measured)

	if c.HasLimit {
		mid := (c.AngleMin + c.AngleMax) / 2
		var limitError, lower, upper float64
		if c.Angle < mid {
			limitError = c.Angle - c.AngleMin
			lower, upper = 0, posInf
		} else {
			limitError = c.Angle - c.AngleMax
			lower, upper = negInf, 0
		}
		rows = append(rows, &Row{
			Kind:       KindHinge,
			BodyA:      bodyA,
			BodyB:      bodyB,
			JAngA:      axisAWorld,
			JAngB:      axisAWorld.Mul(-1),
			LowerLimit: lower,
			UpperLimit: upper,
			Options:    Options{Error: limitError},
		})

		if c.BumpStopStiffness > 0 {
			var bumpError float64
			switch {
			case c.Angle < c.AngleMin+c.BumpStopLength:
				bumpError = c.Angle - (c.AngleMin + c.BumpStopLength)
			case c.Angle > c.AngleMax-c.BumpStopLength:
				bumpError = c.Angle - (c.AngleMax - c.BumpStopLength)
			default:
				bumpError = 0
			}
			if bumpError != 0 {
				bound := c.BumpStopStiffness * math.Abs(bumpError) * dt
				rows = append(rows, &Row{
					Kind:       KindHinge,
					BodyA:      bodyA,
					BodyB:      bodyB,
					JAngA:      axisAWorld,
					JAngB:      axisAWorld.Mul(-1),
					LowerLimit: minf(-bound, bound),
					UpperLimit: maxf(-bound, bound),
					Options:    Options{Error: posInf * sign(bumpError)},
				})
			}
		}
	}

	if c.Stiffness > 0 {
		springError := c.Stiffness * (c.Angle - c.RestAngle) * dt
		rows = append(rows, &Row{
			Kind:       KindHinge,
			BodyA:      bodyA,
			BodyB:      bodyB,
			JAngA:      axisAWorld,
			JAngB:      axisAWorld.Mul(-1),
			LowerLimit: minf(-springError, springError),
			UpperLimit: maxf(-springError, springError),
			Options:    Options{Error: posInf * sign(-springError)},
		})
	}

	if c.FrictionTorque > 0 || c.Damping > 0 {
		frictionRow := &Row{
			Kind:  KindHinge,
			BodyA: bodyA,
			BodyB: bodyB,
			JAngA: axisAWorld,
			JAngB: axisAWorld.Mul(-1),
		}
		bound := c.FrictionTorque * dt
		if c.Damping > 0 {
			a := loadBody(reg, bodyA)
			b := loadBody(reg, bodyB)
			relvel := frictionRow.relativeVelocity(a, b)
			bound += math.Abs(relvel) * c.Damping * dt
		}
		frictionRow.LowerLimit = -bound
		frictionRow.UpperLimit = bound
		frictionRow.Options = Options{Error: 0}
		rows = append(rows, frictionRow)
	}

	return rows
}

// advanceAngle accumulates prev by the shorter of the raw delta to
// measured and that delta wrapped by ±2π, so a hinge tracks continuous
// rotation instead of snapping back at the ±π boundary.
func advanceAngle(prev, measured float64) float64 {
	base := normalizeAngle(prev)
	delta := measured - base
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return prev + delta
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func orthonormalBasis(axis mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t1 mgl64.Vec3
	if math.Abs(axis.X()) > 0.9 {
		t1 = mgl64.Vec3{0, 1, 0}
	} else {
		t1 = mgl64.Vec3{1, 0, 0}
	}
	t1 = t1.Sub(axis.Mul(t1.Dot(axis))).Normalize()
	t2 := axis.Cross(t1).Normalize()
	return t1, t2
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
