package rigid

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/constraint"
	"github.com/nyxforge/rigid/registry"
)

func TestMakeRigidBodyDynamicFallsUnderGravity(t *testing.T) {
	w := NewWorld(Settings{})
	e := w.MakeRigidBody(BodyDef{
		Kind:     actor.Dynamic,
		Position: mgl64.Vec3{0, 10, 0},
		Shape:    ShapeOrMass{Shape: &actor.Sphere{Radius: 1}, Density: 1},
	})

	for i := 0; i < 10; i++ {
		w.Step(w.Settings.FixedDt)
	}

	tr, ok := registry.Get[actor.Transform](w.Reg, e)
	if !ok {
		t.Fatal("expected transform to exist")
	}
	if tr.Position.Y() >= 10 {
		t.Fatalf("expected body to fall under gravity, got y=%v", tr.Position.Y())
	}
}

func TestStaticBodyDoesNotMove(t *testing.T) {
	w := NewWorld(Settings{})
	floor := w.MakeRigidBody(BodyDef{
		Kind:     actor.Static,
		Position: mgl64.Vec3{0, 0, 0},
		Shape:    ShapeOrMass{Shape: &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}},
	})

	for i := 0; i < 30; i++ {
		w.Step(w.Settings.FixedDt)
	}

	tr, _ := registry.Get[actor.Transform](w.Reg, floor)
	if tr.Position.Len() > 1e-9 {
		t.Fatalf("expected static floor to stay put, got %v", tr.Position)
	}
}

func TestSphereRestsOnPlane(t *testing.T) {
	w := NewWorld(Settings{})
	w.MakeRigidBody(BodyDef{
		Kind:     actor.Static,
		Position: mgl64.Vec3{0, 0, 0},
		Shape:    ShapeOrMass{Shape: &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}},
	})
	sphere := w.MakeRigidBody(BodyDef{
		Kind:     actor.Dynamic,
		Position: mgl64.Vec3{0, 1.05, 0},
		Shape:    ShapeOrMass{Shape: &actor.Sphere{Radius: 1}, Density: 1},
	})

	for i := 0; i < 240; i++ {
		w.Step(w.Settings.FixedDt)
	}

	tr, _ := registry.Get[actor.Transform](w.Reg, sphere)
	if tr.Position.Y() < 0.9 || tr.Position.Y() > 1.2 {
		t.Fatalf("expected sphere to settle near y=1, got y=%v", tr.Position.Y())
	}
}

func TestApplyImpulseChangesVelocity(t *testing.T) {
	w := NewWorld(Settings{Gravity: mgl64.Vec3{0, 0, 0}})
	e := w.MakeRigidBody(BodyDef{
		Kind:     actor.Dynamic,
		Position: mgl64.Vec3{0, 0, 0},
		Shape:    ShapeOrMass{Shape: &actor.Sphere{Radius: 1}, Density: 1},
	})

	w.ApplyImpulse(e, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 0})

	vel, ok := registry.Get[actor.Velocity](w.Reg, e)
	if !ok {
		t.Fatal("expected velocity component")
	}
	if vel.Linear.X() <= 0 {
		t.Fatalf("expected positive linear velocity along X after impulse, got %v", vel.Linear)
	}
}

func TestKinematicVelocityIsClearedAfterStep(t *testing.T) {
	w := NewWorld(Settings{})
	e := w.MakeRigidBody(BodyDef{
		Kind:           actor.Kinematic,
		Position:       mgl64.Vec3{0, 0, 0},
		LinearVelocity: mgl64.Vec3{1, 0, 0},
	})

	w.Step(w.Settings.FixedDt)

	vel, _ := registry.Get[actor.Velocity](w.Reg, e)
	if vel.Linear.Len() != 0 {
		t.Fatalf("expected kinematic velocity cleared after step, got %v", vel.Linear)
	}
}

func TestAdvanceAccumulatesPartialSteps(t *testing.T) {
	w := NewWorld(Settings{FixedDt: 1.0 / 60.0})

	w.Advance(w.Settings.FixedDt * 2.5)
	if math.Abs(w.Alpha()-0.5) > 1e-9 {
		t.Fatalf("expected alpha near 0.5 after 2.5 steps worth of time, got %v", w.Alpha())
	}
}

func TestPointConstraintPullsBodiesTogetherAcrossSteps(t *testing.T) {
	w := NewWorld(Settings{Gravity: mgl64.Vec3{0, 0, 0}})
	a := w.MakeRigidBody(BodyDef{
		Kind:     actor.Dynamic,
		Position: mgl64.Vec3{-2, 0, 0},
		Shape:    ShapeOrMass{ExplicitMass: floatPtr(1)},
	})
	b := w.MakeRigidBody(BodyDef{
		Kind:     actor.Dynamic,
		Position: mgl64.Vec3{2, 0, 0},
		Shape:    ShapeOrMass{ExplicitMass: floatPtr(1)},
	})

	w.AddPointConstraint(a, b, constraint.Point{ERP: 0.2})

	for i := 0; i < 120; i++ {
		w.Step(w.Settings.FixedDt)
	}

	ta, _ := registry.Get[actor.Transform](w.Reg, a)
	tb, _ := registry.Get[actor.Transform](w.Reg, b)
	if ta.Position.Sub(tb.Position).Len() > 0.5 {
		t.Fatalf("expected constrained bodies to converge, got distance %v", ta.Position.Sub(tb.Position).Len())
	}
}

func floatPtr(v float64) *float64 { return &v }
