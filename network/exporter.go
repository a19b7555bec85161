package network

import (
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
)

// componentTimer tracks how long a dirty component write for one entity
// should keep re-appearing in exported snapshots after it last changed,
// so a single write survives a dropped packet without needing a full
// resend of every component every tick.
type componentTimer struct {
	Index       ComponentIndex
	RemainingMS float64
}

// resendWindowMS is how long a dirty write keeps re-exporting after it
// last changed, chosen to comfortably outlast a couple of dropped frames
// at typical tick rates without re-sending indefinitely.
const resendWindowMS = 150

// Exporter tracks per-entity dirty component writes off a registry and
// turns them into Snapshot pools, either for a fully-owned subtree (server
// broadcasting authoritative state) or for input-only components (client
// forwarding its own input upstream). Grounded on the teacher's dirty-flag
// component observers, generalized from a single-process cache eviction
// signal to a network resend timer.
type Exporter struct {
	reg   *registry.Registry
	graph *graph.Graph
	list  ComponentList

	observerEnabled bool
	modified        map[registry.Entity][]componentTimer
}

// NewExporter wires an Exporter to reg/g using list as the shared, ordered
// component set. Observers are registered immediately but stay inert
// until SetObserverEnabled(true), so replication doesn't start recording
// churn produced while the world is still being constructed.
func NewExporter(reg *registry.Registry, g *graph.Graph, list ComponentList) *Exporter {
	ex := &Exporter{
		reg:      reg,
		graph:    g,
		list:     list,
		modified: make(map[registry.Entity][]componentTimer),
	}
	for i, c := range list {
		idx := ComponentIndex(i)
		c.Observe(reg, func(_ *registry.Registry, e registry.Entity) {
			ex.markDirty(e, idx)
		})
	}
	return ex
}

// SetObserverEnabled toggles whether component writes are recorded as
// dirty at all.
func (ex *Exporter) SetObserverEnabled(enabled bool) {
	ex.observerEnabled = enabled
}

func (ex *Exporter) markDirty(e registry.Entity, idx ComponentIndex) {
	if !ex.observerEnabled {
		return
	}
	timers := ex.modified[e]
	for i := range timers {
		if timers[i].Index == idx {
			timers[i].RemainingMS = resendWindowMS
			return
		}
	}
	ex.modified[e] = append(timers, componentTimer{Index: idx, RemainingMS: resendWindowMS})
}

// Update decays every entity's resend timers by deltaMS, dropping any that
// have expired. Call once per exported tick, after building that tick's
// Snapshot.
func (ex *Exporter) Update(deltaMS float64) {
	for e, timers := range ex.modified {
		kept := timers[:0]
		for _, t := range timers {
			t.RemainingMS -= deltaMS
			if t.RemainingMS > 0 {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(ex.modified, e)
		} else {
			ex.modified[e] = kept
		}
	}
}

// ExportOwned builds a Snapshot of every component change reachable from
// roots (a client's owned bodies plus whatever they're connected to)
// belonging to entities not owned by another client, always including a
// dynamic body's Transform and Velocity so a freshly-visible body arrives
// whole rather than accumulating one field at a time.
func (ex *Exporter) ExportOwned(roots []registry.Entity, own *Ownership, exclude ClientID) Snapshot {
	var starts []graph.NodeIndex
	for _, r := range roots {
		if n, ok := ex.graph.NodeOf(r); ok {
			starts = append(starts, n)
		}
	}
	nodes, _ := ex.graph.Reach(starts, nil)

	entitySet := make(map[registry.Entity]bool, len(nodes))
	for _, n := range nodes {
		e := ex.graph.Entity(n)
		if owner, ok := own.Owner(e); ok && owner != exclude {
			continue
		}
		entitySet[e] = true
	}

	pools := make(map[ComponentIndex]*Pool)
	addEntry := func(idx ComponentIndex, e registry.Entity) {
		c := ex.list[idx]
		raw, ok := c.Get(ex.reg, e)
		if !ok {
			return
		}
		p, exists := pools[idx]
		if !exists {
			p = &Pool{Index: idx}
			pools[idx] = p
		}
		p.Entries = append(p.Entries, PoolEntry{Entity: e, Payload: raw})
	}

	for e := range entitySet {
		if _, ok := registry.Get[actor.ProceduralTag](ex.reg, e); ok {
			for i, c := range ex.list {
				if c.AlwaysSync() {
					addEntry(ComponentIndex(i), e)
				}
			}
		}
		for _, t := range ex.modified[e] {
			addEntry(t.Index, e)
		}
	}

	entities := make([]registry.Entity, 0, len(entitySet))
	for e := range entitySet {
		entities = append(entities, e)
	}
	snap := Snapshot{Entities: entities}
	for _, p := range pools {
		snap.Pools = append(snap.Pools, *p)
	}
	return snap
}

// ExportInput builds a Snapshot carrying only input-tagged components on
// entities the client owns, used by a client forwarding local input
// upstream regardless of whether it currently owns the target body's
// whole connected component.
func (ex *Exporter) ExportInput(roots []registry.Entity) Snapshot {
	pools := make(map[ComponentIndex]*Pool)
	for _, e := range roots {
		for i, c := range ex.list {
			if !c.IsInput() {
				continue
			}
			raw, ok := c.Get(ex.reg, e)
			if !ok {
				continue
			}
			idx := ComponentIndex(i)
			p, exists := pools[idx]
			if !exists {
				p = &Pool{Index: idx}
				pools[idx] = p
			}
			p.Entries = append(p.Entries, PoolEntry{Entity: e, Payload: raw})
		}
	}
	snap := Snapshot{Entities: append([]registry.Entity(nil), roots...)}
	for _, p := range pools {
		snap.Pools = append(snap.Pools, *p)
	}
	return snap
}
