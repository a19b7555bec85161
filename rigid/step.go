package rigid

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/broadphase"
	"github.com/nyxforge/rigid/constraint"
	"github.com/nyxforge/rigid/manifold"
	"github.com/nyxforge/rigid/narrowphase"
	"github.com/nyxforge/rigid/registry"
)

// maxSubsteps bounds how many fixed steps one Advance call will run,
// so a long pause (debugger breakpoint, dropped frame) doesn't cause the
// simulation to spiral trying to catch up.
const maxSubsteps = 5

// Advance consumes realDt of wall-clock time, running zero or more fixed
// Settings.FixedDt steps and leaving the remainder in w.accumulator for
// next call.
func (w *World) Advance(realDt float64) {
	if w.Settings.Paused {
		return
	}
	w.accumulator += realDt
	steps := 0
	for w.accumulator >= w.Settings.FixedDt && steps < maxSubsteps {
		w.Step(w.Settings.FixedDt)
		w.accumulator -= w.Settings.FixedDt
		steps++
	}
	if steps == maxSubsteps {
		w.accumulator = 0
	}
}

// Alpha returns how far the accumulator is into the next fixed step, in
// [0, 1), for interpolating presentation transforms between simulation
// states.
func (w *World) Alpha() float64 {
	if w.Settings.FixedDt <= 0 {
		return 0
	}
	return w.accumulator / w.Settings.FixedDt
}

// Step runs one fixed timestep through the full pipeline: broadphase,
// narrowphase, manifold merge, constraint preparation, restitution,
// velocity solve, integration, position solve, manifold retirement and
// sleep evaluation. Grounded on the teacher's own World.Step, generalized
// from a single body loop to a registry-wide pipeline. Only
// evaluateSleep partitions work by island; every other phase runs once
// over the whole registry regardless of Settings.ExecutionMode, which
// only affects how runNarrowphase resolves individual manifolds.
func (w *World) Step(dt float64) {
	if w.Settings.PreStepCallback != nil {
		w.Settings.PreStepCallback(w.Reg, dt)
	}

	w.snapshotPresentation()

	w.updateBroadphase()
	w.runNarrowphase()

	w.applyForces(dt)

	edges := w.liveEdges()
	rows := constraint.BuildCache(w.Reg, edges, dt)

	w.Islands.Rescan()

	w.solve(rows, dt)

	w.integrate(dt)

	constraint.SolvePosition(w.Reg, rows, w.Settings.NumSolverPositionIterations)

	w.retireManifolds()

	w.evaluateSleep(dt)
	w.clearKinematicVelocities()

	if w.Settings.PostStepCallback != nil {
		w.Settings.PostStepCallback(w.Reg, dt)
	}
}

func (w *World) snapshotPresentation() {
	for _, e := range registry.View[actor.Presentation](w.Reg) {
		t, ok := registry.Get[actor.Transform](w.Reg, e)
		if !ok {
			continue
		}
		registry.Replace(w.Reg, e, PreviousTransform{Position: t.Position, Rotation: t.Rotation})
	}
}

// updateBroadphase refreshes every body's AABB, rebuilds the grid, and
// diffs pair overlap to create or destroy manifold edges.
func (w *World) updateBroadphase() {
	for _, e := range w.entities {
		shape, ok := registry.Get[actor.ShapeComp](w.Reg, e)
		if !ok {
			continue
		}
		t, ok := registry.Get[actor.Transform](w.Reg, e)
		if !ok {
			continue
		}
		shape.Shape.ComputeAABB(t)
		registry.Replace(w.Reg, e, actor.AABBComp{Box: shape.Shape.GetAABB()})
	}

	w.Grid.Update(w.Reg, w.entities)
	events := w.Grid.Events(w.Reg, w.entities)

	for _, ev := range events {
		key := broadphase.PairKey{A: ev.A, B: ev.B}
		switch ev.Kind {
		case broadphase.PairStart:
			w.createManifold(key)
		case broadphase.PairEnd:
			w.destroyManifold(key)
		}
	}
}

func (w *World) createManifold(key broadphase.PairKey) {
	if _, exists := w.manifolds[key]; exists {
		return
	}
	if w.Settings.ShouldCollideFunc != nil && !w.Settings.ShouldCollideFunc(w.Reg, key.A, key.B) {
		return
	}
	e := w.Reg.Create()
	registry.Emplace(w.Reg, e, manifold.Manifold{BodyA: key.A, BodyB: key.B})
	w.manifolds[key] = e

	nodeA, okA := w.Graph.NodeOf(key.A)
	nodeB, okB := w.Graph.NodeOf(key.B)
	if okA && okB {
		w.Graph.InsertEdge(e, nodeA, nodeB)
		w.Islands.OnEdgeInserted(nodeA, nodeB)
	}
}

func (w *World) destroyManifold(key broadphase.PairKey) {
	e, ok := w.manifolds[key]
	if !ok {
		return
	}
	delete(w.manifolds, key)

	nodeA, okA := w.Graph.NodeOf(key.A)
	nodeB, okB := w.Graph.NodeOf(key.B)
	if ei, ok := w.Graph.EdgeOf(e); ok {
		w.Graph.RemoveEdge(ei)
	}
	if okA && okB {
		w.Islands.OnEdgeRemoved(nodeA, nodeB)
	}
	w.Reg.Destroy(e)
}

// runNarrowphase resolves every live manifold's exact contact geometry and
// merges it into the manifold's persistent point set. Dispatch itself
// touches no registry state (it only reads two CollisionView snapshots),
// so under Async execution the resolve step runs on one goroutine per
// manifold;
// the merge that follows always runs back on the calling goroutine, since
// Cache.Merge creates and mutates registry entities.
func (w *World) runNarrowphase() {
	manifoldEntities := registry.View[manifold.Manifold](w.Reg)
	results := make([]narrowphase.Result, len(manifoldEntities))

	resolve := func(i int) {
		e := manifoldEntities[i]
		m, ok := registry.Get[manifold.Manifold](w.Reg, e)
		if !ok {
			return
		}
		va, okA := w.collisionView(m.BodyA)
		vb, okB := w.collisionView(m.BodyB)
		if !okA || !okB {
			return
		}
		results[i] = narrowphase.Dispatch(va, vb)
	}

	if w.Settings.ExecutionMode == Async && len(manifoldEntities) > 1 {
		var wg sync.WaitGroup
		wg.Add(len(manifoldEntities))
		for i := range manifoldEntities {
			go func(i int) {
				defer wg.Done()
				resolve(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range manifoldEntities {
			resolve(i)
		}
	}

	for i, e := range manifoldEntities {
		if !results[i].Colliding {
			continue
		}
		m, ok := registry.GetPtr[manifold.Manifold](w.Reg, e)
		if !ok {
			continue
		}
		w.Cache.Merge(w.Reg, e, m, results[i].Candidates)
	}
}

func (w *World) collisionView(e registry.Entity) (*actor.CollisionView, bool) {
	t, ok := registry.Get[actor.Transform](w.Reg, e)
	if !ok {
		return nil, false
	}
	s, ok := registry.Get[actor.ShapeComp](w.Reg, e)
	if !ok {
		return nil, false
	}
	return actor.NewCollisionView(t, s.Shape), true
}

// applyForces integrates gravity and any per-body linear acceleration into
// velocity for every dynamic, non-sleeping body.
func (w *World) applyForces(dt float64) {
	for _, e := range registry.View[actor.ProceduralTag](w.Reg) {
		sleep, _ := registry.Get[actor.SleepState](w.Reg, e)
		if sleep.Sleeping {
			continue
		}
		vel, ok := registry.GetPtr[actor.Velocity](w.Reg, e)
		if !ok {
			continue
		}
		g := w.Settings.Gravity
		if override, ok := registry.Get[GravityOverride](w.Reg, e); ok {
			g = override.Value
		}
		vel.Linear = vel.Linear.Add(g.Mul(dt))
		if extra, ok := registry.Get[actor.LinearAcceleration](w.Reg, e); ok {
			vel.Linear = vel.Linear.Add(mgl64.Vec3(extra).Mul(dt))
		}
	}
}

// liveEdges gathers every manifold and constraint edge entity currently in
// the graph, in a deterministic order (entity handle) so the solver visits
// rows in a stable sequence run to run.
func (w *World) liveEdges() []registry.Entity {
	var edges []registry.Entity
	edges = append(edges, registry.View[manifold.Manifold](w.Reg)...)
	edges = append(edges, registry.View[constraint.Point](w.Reg)...)
	edges = append(edges, registry.View[constraint.Hinge](w.Reg)...)
	edges = append(edges, registry.View[constraint.SoftDistance](w.Reg)...)
	edges = append(edges, registry.View[constraint.Distance](w.Reg)...)
	edges = append(edges, registry.View[constraint.Generic](w.Reg)...)
	return edges
}

func (w *World) solve(rows []*constraint.Row, dt float64) {
	constraint.SolveRestitution(w.Reg, rows, w.Settings.NumRestitutionIterations, w.Settings.NumIndividualRestitutionIterations)
	constraint.SolveVelocity(w.Reg, rows, dt, w.Settings.NumSolverVelocityIterations)
}

// integrate advances position and orientation for every non-sleeping
// dynamic body, then refreshes its world-space inverse inertia and AABB.
func (w *World) integrate(dt float64) {
	for _, e := range registry.View[actor.ProceduralTag](w.Reg) {
		sleep, _ := registry.Get[actor.SleepState](w.Reg, e)
		if sleep.Sleeping {
			continue
		}
		t, ok := registry.GetPtr[actor.Transform](w.Reg, e)
		if !ok {
			continue
		}
		vel, ok := registry.Get[actor.Velocity](w.Reg, e)
		if !ok {
			continue
		}
		t.Position = t.Position.Add(vel.Linear.Mul(dt))
		t.Rotation = actor.IntegrateOrientation(t.Rotation, vel.Angular, dt)

		if inertia, ok := registry.GetPtr[actor.Inertia](w.Reg, e); ok {
			actor.RefreshWorldInertia(inertia, t.Rotation)
		}
	}
}

func (w *World) retireManifolds() {
	for _, e := range registry.View[manifold.Manifold](w.Reg) {
		m, ok := registry.GetPtr[manifold.Manifold](w.Reg, e)
		if !ok {
			continue
		}
		w.Cache.Retire(w.Reg, m)
	}
}

// evaluateSleep runs the dwell-based sleep vote per island.
func (w *World) evaluateSleep(dt float64) {
	for _, isl := range w.Islands.Islands() {
		isl.TrySleep(w.Reg, dt, w.Settings.SleepSettings)
	}
}

// clearKinematicVelocities zeroes every kinematic body's Velocity after
// the step has used it for contact response, since a kinematic body's
// actual motion comes from UpdateKinematicPosition/Orientation rather
// than velocity integration and a stale velocity would otherwise leak
// into next step's restitution bias.
func (w *World) clearKinematicVelocities() {
	for _, e := range registry.View[actor.KindComp](w.Reg) {
		k, _ := registry.Get[actor.KindComp](w.Reg, e)
		if k.Kind != actor.Kinematic {
			continue
		}
		if vel, ok := registry.GetPtr[actor.Velocity](w.Reg, e); ok {
			*vel = actor.Velocity{}
		}
	}
}
