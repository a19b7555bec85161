// Package rigid ties every other package into a steppable simulation:
// registry-backed body construction, a fixed-timestep accumulator loop,
// and the per-step pipeline (broadphase, narrowphase, manifold merge,
// constraint solve, integration, island bookkeeping). Grounded on the
// teacher's single World type, generalized from a single-body substep
// loop to a registry-wide pipeline; island.Coordinator partitions bodies
// for sleep/wake bookkeeping, but Step still runs each pipeline phase
// once over the whole registry rather than dispatching per island.
package rigid

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/island"
	"github.com/nyxforge/rigid/registry"
)

// ExecutionMode selects whether narrowphase runs on the calling goroutine
// or across goroutines.
type ExecutionMode int

const (
	// Sequential resolves every manifold on the calling goroutine, in order.
	Sequential ExecutionMode = iota
	// Async parallelizes narrowphase contact resolution (narrowphase.Dispatch
	// per live manifold) across a goroutine per manifold; every other phase
	// of Step still runs single-threaded over the shared registry. It does
	// not dispatch whole islands to private registry mirrors.
	Async
)

// ShouldCollideFunc lets the host application veto a candidate pair
// before narrowphase runs, beyond the built-in CollisionFilter check.
type ShouldCollideFunc func(reg *registry.Registry, a, b registry.Entity) bool

// StepCallback runs once per fixed step, before (PreStepCallback) or
// after (PostStepCallback) the pipeline.
type StepCallback func(reg *registry.Registry, dt float64)

// NetworkSettings is a tagged union: at most one of Client/Server is set.
type NetworkSettings struct {
	Client *ClientNetworkSettings
	Server *ServerNetworkSettings
}

// ClientNetworkSettings configures a rigid.World driven by network
// snapshots rather than purely local input.
type ClientNetworkSettings struct {
	ServerPlayoutDelay float64
	AllowExtrapolation bool
}

// ServerNetworkSettings configures a rigid.World authoritative over
// networked clients.
type ServerNetworkSettings struct {
	AllowFullOwnership bool
}

// Settings configures a World's fixed-timestep pipeline. Zero-value
// fields are filled from DefaultSettings by NewWorld.
type Settings struct {
	FixedDt float64
	Paused  bool
	Gravity mgl64.Vec3

	NumSolverVelocityIterations        int
	NumSolverPositionIterations        int
	NumRestitutionIterations           int
	NumIndividualRestitutionIterations int

	ExecutionMode ExecutionMode

	PreStepCallback  StepCallback
	PostStepCallback StepCallback

	ShouldCollideFunc ShouldCollideFunc

	SleepSettings island.SleepSettings

	NetworkSettings NetworkSettings
}

// DefaultSettings matches the teacher's own World defaults, generalized
// to the multi-island pipeline's extra iteration counts.
func DefaultSettings() Settings {
	return Settings{
		FixedDt:                             1.0 / 60.0,
		Gravity:                             mgl64.Vec3{0, -9.81, 0},
		NumSolverVelocityIterations:         8,
		NumSolverPositionIterations:         3,
		NumRestitutionIterations:            8,
		NumIndividualRestitutionIterations:  3,
		ExecutionMode:                       Sequential,
		SleepSettings:                       island.DefaultSleepSettings(),
	}
}

func fillDefaults(s Settings) Settings {
	d := DefaultSettings()
	if s.FixedDt == 0 {
		s.FixedDt = d.FixedDt
	}
	if s.Gravity == (mgl64.Vec3{}) {
		s.Gravity = d.Gravity
	}
	if s.NumSolverVelocityIterations == 0 {
		s.NumSolverVelocityIterations = d.NumSolverVelocityIterations
	}
	if s.NumSolverPositionIterations == 0 {
		s.NumSolverPositionIterations = d.NumSolverPositionIterations
	}
	if s.NumRestitutionIterations == 0 {
		s.NumRestitutionIterations = d.NumRestitutionIterations
	}
	if s.NumIndividualRestitutionIterations == 0 {
		s.NumIndividualRestitutionIterations = d.NumIndividualRestitutionIterations
	}
	if s.SleepSettings == (island.SleepSettings{}) {
		s.SleepSettings = d.SleepSettings
	}
	return s
}

// BodyDef describes a body to create via MakeRigidBody.
type BodyDef struct {
	Kind actor.Kind

	Position    mgl64.Vec3
	Orientation mgl64.Quat

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	Shape ShapeOrMass

	Gravity *mgl64.Vec3 // per-body override; nil uses World.Settings.Gravity

	Material actor.Material
	Sensor   bool

	Presentation       bool
	ContinuousContacts bool

	CollisionGroup uint32
	CollisionMask  uint32
}

// ShapeOrMass carries either a shape (mass/inertia computed from shape +
// Density) or an explicit Mass/Inertia pair, mirroring the spec's
// "Mass, Inertia or Shape" BodyDef field.
type ShapeOrMass struct {
	Shape   actor.ShapeInterface
	Density float64

	ExplicitMass    *float64
	ExplicitInertia *mgl64.Mat3
}
