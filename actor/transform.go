package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform represents a position in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// IntegrateOrientation advances q by an angular velocity (rad/s) applied
// for delta seconds, using q' = normalize(q + 0.5*dt*[0,w]*q) — the
// standard first-order quaternion integrator, exact enough at simulation
// timesteps and much cheaper than exponentiating the angular velocity.
func IntegrateOrientation(q mgl64.Quat, angularVelocity mgl64.Vec3, dt float64) mgl64.Quat {
	spin := mgl64.Quat{W: 0, V: angularVelocity}
	dq := spin.Mul(q)
	next := mgl64.Quat{
		W: q.W + 0.5*dt*dq.W,
		V: q.V.Add(dq.V.Mul(0.5 * dt)),
	}
	return next.Normalize()
}
