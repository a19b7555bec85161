package narrowphase

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
)

func view(pos mgl64.Vec3, shape actor.ShapeInterface) *actor.CollisionView {
	tr := actor.NewTransform()
	tr.Position = pos
	return actor.NewCollisionView(tr, shape)
}

func TestDispatchSphereSphereColliding(t *testing.T) {
	a := view(mgl64.Vec3{0, 0, 0}, &actor.Sphere{Radius: 1})
	b := view(mgl64.Vec3{1.5, 0, 0}, &actor.Sphere{Radius: 1})

	res := Dispatch(a, b)
	if !res.Colliding {
		t.Fatal("expected overlapping spheres to collide")
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	if res.Normal.Dot(mgl64.Vec3{1, 0, 0}) <= 0 {
		t.Fatalf("expected normal pointing from A to B, got %v", res.Normal)
	}
}

func TestDispatchSphereSphereSeparated(t *testing.T) {
	a := view(mgl64.Vec3{0, 0, 0}, &actor.Sphere{Radius: 1})
	b := view(mgl64.Vec3{5, 0, 0}, &actor.Sphere{Radius: 1})

	if Dispatch(a, b).Colliding {
		t.Fatal("expected distant spheres not to collide")
	}
}

func TestDispatchSphereBoxIsFlipSymmetric(t *testing.T) {
	sphere := view(mgl64.Vec3{0, 1.5, 0}, &actor.Sphere{Radius: 1})
	box := view(mgl64.Vec3{0, 0, 0}, &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})

	direct := Dispatch(sphere, box)
	flipped := Dispatch(box, sphere)

	if direct.Colliding != flipped.Colliding {
		t.Fatalf("expected sphere-box and box-sphere to agree on collision, got %v vs %v", direct.Colliding, flipped.Colliding)
	}
	if !direct.Colliding {
		t.Fatal("expected sphere resting on box to collide")
	}
	sum := direct.Normal.Add(flipped.Normal)
	if sum.Len() > 1e-9 {
		t.Fatalf("expected flipped normal to be negated, got %v and %v", direct.Normal, flipped.Normal)
	}
}

func TestDispatchSpherePlane(t *testing.T) {
	sphere := view(mgl64.Vec3{0, 0.5, 0}, &actor.Sphere{Radius: 1})
	plane := view(mgl64.Vec3{0, 0, 0}, &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0})

	res := Dispatch(sphere, plane)
	if !res.Colliding {
		t.Fatal("expected sphere penetrating plane to collide")
	}
}

func TestDispatchPlanePlaneNeverCollides(t *testing.T) {
	a := view(mgl64.Vec3{0, 0, 0}, &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}})
	b := view(mgl64.Vec3{0, 0, 0}, &actor.Plane{Normal: mgl64.Vec3{1, 0, 0}})

	if Dispatch(a, b).Colliding {
		t.Fatal("expected plane-plane dispatch to report no collision")
	}
}

func TestDispatchFallsBackToConvexConvexForBoxBox(t *testing.T) {
	a := view(mgl64.Vec3{0, 0, 0}, &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})
	b := view(mgl64.Vec3{1.5, 0, 0}, &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})

	res := Dispatch(a, b)
	if !res.Colliding {
		t.Fatal("expected overlapping boxes resolved via GJK/EPA to collide")
	}
}
