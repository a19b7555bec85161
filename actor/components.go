package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/registry"
)

// Kind classifies how a body participates in the simulation.
type Kind int

const (
	// Dynamic bodies have finite mass and are moved by the solver.
	Dynamic Kind = iota
	// Kinematic bodies are moved externally (UpdateKinematicPosition) and
	// push dynamic bodies around without being pushed back.
	Kinematic
	// Static bodies never move and never connect islands.
	Static
)

// Velocity holds a body's linear and angular velocity, in world space.
type Velocity struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// PresolveVelocity snapshots velocity right after integration, before the
// velocity solver runs, so restitution can be computed against the
// pre-collision approach speed rather than the post-solve one.
type PresolveVelocity struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// LinearAcceleration is a persistent per-body acceleration (in addition to
// world gravity), applied every step by the integrator.
type LinearAcceleration mgl64.Vec3

// Mass holds a body's scalar mass and its cached inverse. Inv is kept
// in sync by a registry write observer (see RegisterObservers) rather than
// by every caller remembering to recompute it.
type Mass struct {
	Value float64
	Inv   float64
}

// Inertia holds a body's body-frame inertia tensor, its inverse, and the
// inverse rotated into world space (refreshed every time orientation
// changes, since the solver reads it many times per step).
type Inertia struct {
	Local    mgl64.Mat3
	LocalInv mgl64.Mat3
	WorldInv mgl64.Mat3
}

// AABBComp is the world-space bounding box, refreshed by the integrator
// and consumed by broadphase.
type AABBComp struct {
	Box AABB
}

// ShapeComp attaches collision geometry to an entity.
type ShapeComp struct {
	Shape ShapeInterface
}

// Material governs contact response when this body touches another.
type Material struct {
	Friction    float64
	Restitution float64
	Stiffness   float64
	Damping     float64
}

// FeatureMaterial overrides Material per shape feature (vertex, edge, or
// face index), for convex meshes painted with mixed surfaces — an icy
// patch on one face of an otherwise rubbery crate.
type FeatureMaterial struct {
	Vertices map[int]Material
	Edges    map[int]Material
	Faces    map[int]Material
}

// Lookup finds the override for feature kind/index, where kind matches
// manifold.FeatureKind's int values (1=vertex, 2=edge, 3=face).
func (fm FeatureMaterial) Lookup(kind, index int) (Material, bool) {
	var table map[int]Material
	switch kind {
	case 1:
		table = fm.Vertices
	case 2:
		table = fm.Edges
	case 3:
		table = fm.Faces
	default:
		return Material{}, false
	}
	m, ok := table[index]
	return m, ok
}

// CollisionFilter narrows which pairs broadphase will report.
type CollisionFilter struct {
	Group uint32
	Mask  uint32
}

// KindComp tags an entity with its Kind.
type KindComp struct {
	Kind Kind
}

// ProceduralTag marks a node as connecting for island purposes. Bodies
// without it (static/kinematic) never merge islands together.
type ProceduralTag struct{}

// SleepState tracks a body's dwell-time-based sleep lifecycle.
type SleepState struct {
	Sleeping     bool
	Disabled     bool // never allowed to sleep
	QuietFor     float64
}

// ContinuousContactsTag opts a fast-moving body into persistent contact
// tracking across larger separations (raised breaking threshold).
type ContinuousContactsTag struct{}

// Sensor marks a body as reporting contacts without physical response.
type Sensor struct{}

// Presentation holds the interpolated transform used for rendering,
// distinct from the simulation transform so networked corrections (via
// Discontinuity) can be blended in smoothly rather than popping.
type Presentation struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// RegisterObservers wires the derived-state observers every Registry
// needs before any body is created in it: Mass.Inv and Inertia.WorldInv stay in
// sync with Mass/Inertia writes, mirroring the construct/replace hooks the
// original engine wires in its world constructor.
func RegisterObservers(reg *registry.Registry) {
	syncMass := func(r *registry.Registry, e registry.Entity) {
		m, _ := registry.GetPtr[Mass](r, e)
		if m.Value > 0 && !math.IsInf(m.Value, 1) {
			m.Inv = 1 / m.Value
		} else {
			m.Inv = 0
		}
	}
	registry.OnConstruct[Mass](reg, syncMass)
	registry.OnReplace[Mass](reg, syncMass)

	syncInertia := func(r *registry.Registry, e registry.Entity) {
		i, _ := registry.GetPtr[Inertia](r, e)
		i.LocalInv = invertDiagonal(i.Local)
		i.WorldInv = i.LocalInv
	}
	registry.OnConstruct[Inertia](reg, syncInertia)
	registry.OnReplace[Inertia](reg, syncInertia)
}

func invertDiagonal(m mgl64.Mat3) mgl64.Mat3 {
	inv := func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		return 1 / v
	}
	return mgl64.Mat3{
		inv(m[0]), 0, 0,
		0, inv(m[4]), 0,
		0, 0, inv(m[8]),
	}
}

// RefreshWorldInertia recomputes WorldInv = R * LocalInv * R^T from the
// current orientation. Called by the integrator and position solver after
// every rotation change.
func RefreshWorldInertia(inertia *Inertia, rotation mgl64.Quat) {
	r := rotation.Mat4().Mat3()
	inertia.WorldInv = r.Mul3(inertia.LocalInv).Mul3(r.Transpose())
}
