package actor

import "github.com/go-gl/mathgl/mgl64"

// CollisionView is a transient snapshot of one body's transform and
// geometry, built by the narrowphase for a single pair's GJK/EPA query. It
// carries no simulation state of its own — narrowphase fills one from the
// registry's Transform and ShapeComp components immediately before
// testing a pair, and discards it afterward.
type CollisionView struct {
	Transform Transform
	Shape     ShapeInterface
}

// NewCollisionView builds a view with InverseRotation precomputed, as
// SupportWorld needs it on every call.
func NewCollisionView(transform Transform, shape ShapeInterface) *CollisionView {
	transform.InverseRotation = transform.Rotation.Inverse()
	return &CollisionView{Transform: transform, Shape: shape}
}

// SupportWorld maps a world-space direction to the shape's support point
// in world space: rotate into local space, query the shape, rotate and
// translate back out.
func (v *CollisionView) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := v.Transform.InverseRotation.Rotate(direction)
	localSupport := v.Shape.Support(localDirection)
	worldSupport := v.Transform.Rotation.Rotate(localSupport)
	return v.Transform.Position.Add(worldSupport)
}
