package actor

import "math"

// ComputeMassInertia derives mass and inertia from a shape and density,
// following the teacher's actor.NewRigidBody factory, generalized to
// return plain values for the registry-based constructor to attach rather
// than writing directly into a RigidBody struct.
func ComputeMassInertia(kind Kind, shape ShapeInterface, density float64) (Mass, Inertia) {
	if kind != Dynamic {
		return Mass{Value: math.Inf(1), Inv: 0}, Inertia{}
	}

	m := shape.ComputeMass(density)
	local := shape.ComputeInertia(m)
	return Mass{Value: m}, Inertia{Local: local}
}
