package network

import (
	"github.com/nyxforge/rigid/graph"
	"github.com/nyxforge/rigid/registry"
	"github.com/sirupsen/logrus"
)

// Snapshot is a self-contained slice of registry state: a set of entities
// and a set of component pools referencing them, expressed either in
// local or in remote entity space depending on which side produced it.
type Snapshot struct {
	Entities  []registry.Entity `json:"entities"`
	Pools     []Pool            `json:"pools"`
	Timestamp float64           `json:"timestamp"`
}

// ConvertRemoteToLocal remaps every entity in s (both the entity list and
// every pool entry) from remote to local space via m, returning ok=false
// without partial results if any referenced entity has no local mapping
// yet — the caller is expected to wait for the entity-map round trip
// rather than construct entities implicitly from a snapshot.
func (s Snapshot) ConvertRemoteToLocal(m *EntityMap) (Snapshot, bool) {
	local := Snapshot{Timestamp: s.Timestamp}

	local.Entities = make([]registry.Entity, len(s.Entities))
	for i, re := range s.Entities {
		le, ok := m.ToLocal(re)
		if !ok {
			return Snapshot{}, false
		}
		local.Entities[i] = le
	}

	local.Pools = make([]Pool, len(s.Pools))
	for pi, p := range s.Pools {
		lp := Pool{Index: p.Index, Entries: make([]PoolEntry, len(p.Entries))}
		for ei, entry := range p.Entries {
			le, ok := m.ToLocal(entry.Entity)
			if !ok {
				return Snapshot{}, false
			}
			lp.Entries[ei] = PoolEntry{Entity: le, Payload: entry.Payload}
		}
		local.Pools[pi] = lp
	}
	return local, true
}

// Apply writes every pool entry in s (already in local entity space) onto
// reg via the matching codec in list, skipping and logging any entry whose
// index falls outside list rather than failing the whole snapshot — a
// version-mismatched packet should degrade, not crash the importer.
func (s Snapshot) Apply(reg *registry.Registry, list ComponentList) {
	for _, p := range s.Pools {
		if int(p.Index) < 0 || int(p.Index) >= len(list) {
			logrus.WithField("index", p.Index).Warn("network: snapshot pool references unknown component index")
			continue
		}
		c := list[p.Index]
		for _, entry := range p.Entries {
			_ = c.Apply(reg, entry.Entity, entry.Payload)
		}
	}
}

// ApplyFromClient writes s (already in local entity space) onto reg the
// way a server does with a client-authored snapshot: input components
// apply unconditionally, everything else only where client fully owns the
// target's connected component. Use Apply instead for a client trusting
// its server's snapshot.
func (s Snapshot) ApplyFromClient(reg *registry.Registry, g *graph.Graph, m *EntityMap, own *Ownership, client ClientID, list ComponentList) {
	for _, p := range s.Pools {
		if int(p.Index) < 0 || int(p.Index) >= len(list) {
			logrus.WithField("index", p.Index).Warn("network: snapshot pool references unknown component index")
			continue
		}
		ImportPool(reg, g, m, own, client, list[p.Index], p)
	}
}
