package network

import (
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
)

// ClientID identifies one connected client, stable for the life of its
// connection.
type ClientID uint32

// Ownership records which client, if any, authors each dynamic body a
// server tracks. A body absent from the map is server-owned.
type Ownership struct {
	owner map[registry.Entity]ClientID
}

// NewOwnership returns an empty ownership table.
func NewOwnership() *Ownership {
	return &Ownership{owner: make(map[registry.Entity]ClientID)}
}

// Owner reports the owning client of e, if any.
func (o *Ownership) Owner(e registry.Entity) (ClientID, bool) {
	c, ok := o.owner[e]
	return c, ok
}

// SetOwner assigns e to client; ClearOwner returns it to server ownership.
func (o *Ownership) SetOwner(e registry.Entity, client ClientID) {
	o.owner[e] = client
}

// ClearOwner removes any ownership record for e, returning it to
// server-owned.
func (o *Ownership) ClearOwner(e registry.Entity) {
	delete(o.owner, e)
}

// IsFullyOwnedByClient reports whether every dynamic body reachable from
// root belongs to client — a compound object (ragdoll, vehicle) only
// accepts client writes when the client owns the whole connected set, so a
// player can't drag a single wheel's constraint out from under a body
// another client drives.
func IsFullyOwnedByClient(g *graph.Graph, reg *registry.Registry, own *Ownership, root registry.Entity, client ClientID) bool {
	node, ok := g.NodeOf(root)
	if !ok {
		return false
	}
	nodes, _ := g.Reach([]graph.NodeIndex{node}, nil)
	for _, n := range nodes {
		e := g.Entity(n)
		k, ok := registry.Get[actor.KindComp](reg, e)
		if !ok || k.Kind != actor.Dynamic {
			continue
		}
		owner, owned := own.Owner(e)
		if !owned || owner != client {
			return false
		}
	}
	return true
}

// ImportPool applies one incoming Pool from client, translating remote
// entity handles through m and rejecting writes the client isn't entitled
// to make. Unknown entities are dropped silently — the client is expected
// to be a step or two behind the server's authoritative entity map, and a
// dropped stale write is normal, not an error.
func ImportPool(reg *registry.Registry, g *graph.Graph, m *EntityMap, own *Ownership, client ClientID, codec Codec, p Pool) {
	for _, entry := range p.Entries {
		local, ok := m.ToLocal(entry.Entity)
		if !ok {
			continue
		}
		if !codec.IsInput() && !IsFullyOwnedByClient(g, reg, own, local, client) {
			continue
		}
		_ = codec.Apply(reg, local, entry.Payload)
	}
}
