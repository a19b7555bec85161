package rigid

import (
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/broadphase"
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/island"
	"github.com/nyxforge/rigid/manifold"
	"github.com/nyxforge/rigid/registry"
)

// World owns every subsystem's state for one simulation and drives them
// through the fixed-timestep pipeline in step.go, grounded on the
// teacher's own World type generalized from "one flat body slice" to
// "registry + graph + islands + broadphase + manifold cache".
type World struct {
	Reg     *registry.Registry
	Graph   *graph.Graph
	Islands *island.Coordinator
	Grid    *broadphase.Grid
	Cache   *manifold.Cache

	Settings Settings

	entities    []registry.Entity
	manifolds   map[broadphase.PairKey]registry.Entity
	accumulator float64
}

// NewWorld builds an empty World, wiring the registry's derived-state
// observers before any body can be created in it.
func NewWorld(settings Settings) *World {
	reg := registry.New()
	actor.RegisterObservers(reg)
	g := graph.New()

	w := &World{
		Reg:       reg,
		Graph:     g,
		Islands:   island.New(reg, g),
		Grid:      broadphase.New(4.0, 4096, manifold.BreakingThreshold),
		Cache:     manifold.NewCache(manifold.NewMixTable()),
		Settings:  fillDefaults(settings),
		manifolds: make(map[broadphase.PairKey]registry.Entity),
	}
	return w
}

func (w *World) wakeEntity(e registry.Entity) {
	node, ok := w.Graph.NodeOf(e)
	if !ok {
		return
	}
	for _, isl := range w.Islands.Islands() {
		if isl.Entities[e] || isl.Statics[e] {
			isl.WakeUp(w.Reg)
		}
	}
	_ = node
}
