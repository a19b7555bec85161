// Package island groups connected bodies into islands that can be stepped
// independently, and carries the sleep policy that lets quiet islands stop
// consuming solver time. Grounded on the teacher's single-World Step loop,
// generalized from "one world, every body" to "one coordinator, many
// islands" the way the original engine's on_construct_dynamic_tag observer
// spins up a fresh island per newly connected component.
package island

import (
	"sort"

	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
	"github.com/sirupsen/logrus"
)

// Island is one connected component of dynamic bodies. Self is the island's
// own registry entity, used as its stable, sortable identity (dispatch order and merge tie-breaking both sort on it).
type Island struct {
	Self      registry.Entity
	Entities  map[registry.Entity]bool // dynamic (procedural) members
	Statics   map[registry.Entity]bool // non-connecting members touching it
	Timestamp float64
	Sleeping  bool
	dirty     bool
}

func newIsland(self registry.Entity) *Island {
	return &Island{
		Self:     self,
		Entities: make(map[registry.Entity]bool),
		Statics:  make(map[registry.Entity]bool),
	}
}

// Coordinator owns the entity graph and the set of islands derived from
// it. It runs on the goroutine stepping the World; islands are not handed
// to worker goroutines in either execution mode.
type Coordinator struct {
	reg   *registry.Registry
	graph *graph.Graph
	log   *logrus.Logger

	islands    map[registry.Entity]*Island
	nodeIsland map[graph.NodeIndex]registry.Entity
	dirty      map[registry.Entity]bool
}

// New returns a Coordinator operating over reg's entity graph, logging
// merge/split/sleep transitions to logrus.StandardLogger(). Use SetLogger
// to redirect a Coordinator's own logs elsewhere.
func New(reg *registry.Registry, g *graph.Graph) *Coordinator {
	return &Coordinator{
		reg:        reg,
		graph:      g,
		log:        logrus.StandardLogger(),
		islands:    make(map[registry.Entity]*Island),
		nodeIsland: make(map[graph.NodeIndex]registry.Entity),
		dirty:      make(map[registry.Entity]bool),
	}
}

// SetLogger overrides the coordinator's logger, e.g. to attach a
// server-wide logrus instance with shared fields.
func (c *Coordinator) SetLogger(log *logrus.Logger) {
	c.log = log
}

// Islands returns every live island, sorted by entity handle for
// deterministic dispatch order in Sequential execution mode.
func (c *Coordinator) Islands() []*Island {
	out := make([]*Island, 0, len(c.islands))
	for _, isl := range c.islands {
		out = append(out, isl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Self < out[j].Self })
	return out
}

// OnEdgeInserted reacts to a new manifold/constraint edge: it merges the
// islands of the two endpoints (creating islands for any endpoint that had
// none), or, if an endpoint is non-connecting, just adds it as a static
// member of the other endpoint's island.
func (c *Coordinator) OnEdgeInserted(nodeA, nodeB graph.NodeIndex) {
	entA, entB := c.graph.Entity(nodeA), c.graph.Entity(nodeB)
	nonA, nonB := c.graph.NonConnecting(nodeA), c.graph.NonConnecting(nodeB)

	switch {
	case nonA && nonB:
		return // two statics never share an island
	case nonA:
		isl := c.ensureIsland(nodeB)
		isl.Statics[entA] = true
		c.wake(isl)
	case nonB:
		isl := c.ensureIsland(nodeA)
		isl.Statics[entB] = true
		c.wake(isl)
	default:
		islA := c.ensureIsland(nodeA)
		islB := c.ensureIsland(nodeB)
		if islA.Self != islB.Self {
			c.merge(islA, islB)
		} else {
			c.wake(islA)
		}
	}
}

func (c *Coordinator) ensureIsland(n graph.NodeIndex) *Island {
	if islEntity, ok := c.nodeIsland[n]; ok {
		return c.islands[islEntity]
	}
	self := c.reg.Create()
	isl := newIsland(self)
	ent := c.graph.Entity(n)
	isl.Entities[ent] = true
	c.islands[self] = isl
	c.nodeIsland[n] = self
	return isl
}

// merge folds the smaller island into the larger one (by member count,
// ties broken by the lower island entity handle for determinism) and
// destroys the now-empty island.
func (c *Coordinator) merge(a, b *Island) {
	keep, drop := a, b
	if len(b.Entities) > len(a.Entities) || (len(b.Entities) == len(a.Entities) && b.Self < a.Self) {
		keep, drop = b, a
	}
	for e := range drop.Entities {
		keep.Entities[e] = true
		if n, ok := c.graph.NodeOf(e); ok {
			c.nodeIsland[n] = keep.Self
		}
	}
	for e := range drop.Statics {
		keep.Statics[e] = true
	}
	delete(c.islands, drop.Self)
	c.reg.Destroy(drop.Self)
	c.log.WithFields(logrus.Fields{"kept": keep.Self, "dropped": drop.Self, "members": len(keep.Entities)}).Debug("island merge")
	c.wake(keep)
}

// OnEdgeRemoved marks both endpoints' islands dirty so Rescan re-checks
// connectivity at the next frame boundary instead of doing an expensive
// split check inline on every removal.
func (c *Coordinator) OnEdgeRemoved(nodeA, nodeB graph.NodeIndex) {
	for _, n := range []graph.NodeIndex{nodeA, nodeB} {
		if islEntity, ok := c.nodeIsland[n]; ok {
			c.dirty[islEntity] = true
		}
	}
}

// Rescan re-derives connectivity for every island marked dirty since the
// last call, splitting off disconnected partitions into freshly created
// islands. Call once per frame, after all edge removals for the frame
// have been applied.
func (c *Coordinator) Rescan() {
	for islEntity := range c.dirty {
		isl, ok := c.islands[islEntity]
		if !ok {
			continue
		}
		c.splitIfNeeded(isl)
	}
	c.dirty = make(map[registry.Entity]bool)
}

func (c *Coordinator) splitIfNeeded(isl *Island) {
	if len(isl.Entities) <= 1 {
		return
	}
	remaining := make(map[registry.Entity]bool, len(isl.Entities))
	for e := range isl.Entities {
		remaining[e] = true
	}

	var components [][]registry.Entity
	for len(remaining) > 0 {
		var start registry.Entity
		for e := range remaining {
			start = e
			break
		}
		startNode, ok := c.graph.NodeOf(start)
		if !ok {
			delete(remaining, start)
			continue
		}
		var comp []registry.Entity
		c.graph.Traverse(startNode, func(n graph.NodeIndex) {
			e := c.graph.Entity(n)
			if remaining[e] {
				comp = append(comp, e)
				delete(remaining, e)
			}
		})
		components = append(components, comp)
	}

	if len(components) <= 1 {
		return
	}
	sort.Slice(components, func(i, j int) bool { return len(components[i]) > len(components[j]) })

	// Largest component keeps the original island; the rest get new ones.
	kept := make(map[registry.Entity]bool, len(components[0]))
	for _, e := range components[0] {
		kept[e] = true
	}
	isl.Entities = kept

	for _, comp := range components[1:] {
		self := c.reg.Create()
		fresh := newIsland(self)
		for _, e := range comp {
			fresh.Entities[e] = true
			if n, ok := c.graph.NodeOf(e); ok {
				c.nodeIsland[n] = self
			}
		}
		c.islands[self] = fresh
		c.log.WithFields(logrus.Fields{"parent": isl.Self, "split": self, "members": len(comp)}).Debug("island split")
		c.wake(fresh)
	}
}

func (c *Coordinator) wake(isl *Island) {
	if isl.Sleeping {
		c.log.WithField("island", isl.Self).Debug("island wake")
	}
	isl.Sleeping = false
}
