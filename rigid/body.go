package rigid

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// GravityOverride replaces World.Settings.Gravity for one body, set by a
// non-nil BodyDef.Gravity.
type GravityOverride struct {
	Value mgl64.Vec3
}

// PreviousTransform snapshots a body's transform at the start of the most
// recent fixed step, so UpdatePresentation can interpolate between it and
// the current transform for a render frame that lands between steps.
type PreviousTransform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// MakeRigidBody creates an entity from def, attaching every component the
// simulation pipeline needs and registering it as a graph node, grounded
// on the teacher's NewRigidBody factory generalized from a single struct
// literal to a registry-backed entity build.
func (w *World) MakeRigidBody(def BodyDef) registry.Entity {
	e := w.Reg.Create()

	registry.Emplace(w.Reg, e, actor.KindComp{Kind: def.Kind})

	transform := actor.NewTransform()
	transform.Position = def.Position
	if def.Orientation == (mgl64.Quat{}) {
		transform.Rotation = mgl64.QuatIdent()
	} else {
		transform.Rotation = def.Orientation
	}
	registry.Emplace(w.Reg, e, transform)

	registry.Emplace(w.Reg, e, actor.Velocity{Linear: def.LinearVelocity, Angular: def.AngularVelocity})

	mass, inertia := massInertiaFor(def)
	registry.Emplace(w.Reg, e, mass)
	registry.Emplace(w.Reg, e, inertia)
	if ptr, ok := registry.GetPtr[actor.Inertia](w.Reg, e); ok {
		actor.RefreshWorldInertia(ptr, transform.Rotation)
	}

	if def.Shape.Shape != nil {
		def.Shape.Shape.ComputeAABB(transform)
		registry.Emplace(w.Reg, e, actor.ShapeComp{Shape: def.Shape.Shape})
		registry.Emplace(w.Reg, e, actor.AABBComp{Box: def.Shape.Shape.GetAABB()})
	}

	registry.Emplace(w.Reg, e, def.Material)

	mask := def.CollisionMask
	if mask == 0 {
		mask = ^uint32(0)
	}
	registry.Emplace(w.Reg, e, actor.CollisionFilter{Group: def.CollisionGroup, Mask: mask})

	registry.Emplace(w.Reg, e, actor.SleepState{Disabled: def.Kind != actor.Dynamic})

	if def.Sensor {
		registry.Emplace(w.Reg, e, actor.Sensor{})
	}
	if def.ContinuousContacts {
		registry.Emplace(w.Reg, e, actor.ContinuousContactsTag{})
	}
	if def.Presentation {
		registry.Emplace(w.Reg, e, actor.Presentation{Position: transform.Position, Orientation: transform.Rotation})
		registry.Emplace(w.Reg, e, PreviousTransform{Position: transform.Position, Rotation: transform.Rotation})
	}
	if def.Gravity != nil {
		registry.Emplace(w.Reg, e, GravityOverride{Value: *def.Gravity})
	}
	if def.Kind == actor.Dynamic {
		registry.Emplace(w.Reg, e, actor.ProceduralTag{})
	}

	nonConnecting := def.Kind != actor.Dynamic
	w.Graph.InsertNode(e, nonConnecting)
	w.entities = append(w.entities, e)

	return e
}

// BatchRigidBodies creates every def in order, returning entities in the
// same order — a thin loop, kept as its own entry point so callers building
// a scene from a level file don't have to write it themselves.
func (w *World) BatchRigidBodies(defs []BodyDef) []registry.Entity {
	out := make([]registry.Entity, len(defs))
	for i, def := range defs {
		out[i] = w.MakeRigidBody(def)
	}
	return out
}

func massInertiaFor(def BodyDef) (actor.Mass, actor.Inertia) {
	if def.Shape.ExplicitMass != nil {
		m := actor.Mass{Value: *def.Shape.ExplicitMass}
		var local mgl64.Mat3
		if def.Shape.ExplicitInertia != nil {
			local = *def.Shape.ExplicitInertia
		}
		return m, actor.Inertia{Local: local}
	}
	if def.Shape.Shape == nil {
		return actor.Mass{}, actor.Inertia{}
	}
	m, i := actor.ComputeMassInertia(def.Kind, def.Shape.Shape, def.Shape.Density)
	return m, i
}

// RigidBodySetMass overwrites a body's mass, firing the registry observer
// that keeps Mass.Inv in sync.
func RigidBodySetMass(reg *registry.Registry, e registry.Entity, mass float64) {
	registry.Replace(reg, e, actor.Mass{Value: mass})
}

// RigidBodyUpdateInertia recomputes a body's inertia tensor from its
// current shape and mass, for callers that resized a shape or changed
// density after creation.
func RigidBodyUpdateInertia(reg *registry.Registry, e registry.Entity) {
	shape, ok := registry.Get[actor.ShapeComp](reg, e)
	if !ok {
		return
	}
	mass, ok := registry.Get[actor.Mass](reg, e)
	if !ok {
		return
	}
	local := shape.Shape.ComputeInertia(mass.Value)
	registry.Replace(reg, e, actor.Inertia{Local: local})
	if transform, ok := registry.Get[actor.Transform](reg, e); ok {
		if ptr, ok := registry.GetPtr[actor.Inertia](reg, e); ok {
			actor.RefreshWorldInertia(ptr, transform.Rotation)
		}
	}
}

// ApplyImpulse adds a linear+angular impulse at worldPoint to e's velocity
// and wakes its island, mirroring the teacher's RigidBody.ApplyImpulseAt.
func (w *World) ApplyImpulse(e registry.Entity, impulse, worldPoint mgl64.Vec3) {
	mass, ok := registry.Get[actor.Mass](w.Reg, e)
	if !ok {
		return
	}
	vel, ok := registry.GetPtr[actor.Velocity](w.Reg, e)
	if !ok {
		return
	}
	transform, _ := registry.Get[actor.Transform](w.Reg, e)
	inertia, _ := registry.Get[actor.Inertia](w.Reg, e)

	vel.Linear = vel.Linear.Add(impulse.Mul(mass.Inv))
	r := worldPoint.Sub(transform.Position)
	vel.Angular = vel.Angular.Add(inertia.WorldInv.Mul3x1(r.Cross(impulse)))

	w.wakeEntity(e)
}

// UpdateKinematicPosition moves a kinematic body directly, bypassing the
// solver entirely, and wakes any dynamic body touching it.
func (w *World) UpdateKinematicPosition(e registry.Entity, position mgl64.Vec3) {
	if t, ok := registry.GetPtr[actor.Transform](w.Reg, e); ok {
		t.Position = position
	}
	w.wakeEntity(e)
}

// UpdateKinematicOrientation moves a kinematic body's orientation directly
// and refreshes its world inertia, since a kinematic body can still carry
// angular velocity used to compute contact response on the dynamic side.
func (w *World) UpdateKinematicOrientation(e registry.Entity, orientation mgl64.Quat) {
	if t, ok := registry.GetPtr[actor.Transform](w.Reg, e); ok {
		t.Rotation = orientation
	}
	if inertia, ok := registry.GetPtr[actor.Inertia](w.Reg, e); ok {
		if t, ok := registry.Get[actor.Transform](w.Reg, e); ok {
			actor.RefreshWorldInertia(inertia, t.Rotation)
		}
	}
	w.wakeEntity(e)
}

// UpdatePresentation blends a body's Presentation transform between the
// previous and current simulation transform by alpha in [0, 1], for
// rendering at a time between two fixed steps.
func UpdatePresentation(reg *registry.Registry, e registry.Entity, alpha float64) {
	prev, ok := registry.Get[PreviousTransform](reg, e)
	if !ok {
		return
	}
	cur, ok := registry.Get[actor.Transform](reg, e)
	if !ok {
		return
	}
	pres, ok := registry.GetPtr[actor.Presentation](reg, e)
	if !ok {
		return
	}
	pres.Position = prev.Position.Mul(1 - alpha).Add(cur.Position.Mul(alpha))
	pres.Orientation = mgl64.QuatSlerp(prev.Rotation, cur.Rotation, alpha).Normalize()
}
