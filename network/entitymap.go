// Package network replicates a subset of a registry.Registry across a
// websocket link: entity handles are remapped per endpoint (a remote
// entity never means the same uint64 locally), components are exported in
// small dirty-tracked pools, and a client can extrapolate past a stale
// snapshot using recorded input. Grounded on the sushiag pack's websocket
// client/server pairing for transport, generalized from a room/message
// relay to a registry snapshot/import pipeline.
package network

import "github.com/nyxforge/rigid/registry"

// EntityMap translates between one peer's entity handles and the local
// registry's, in both directions, so a remote entity value never leaks
// into local component data without translation.
type EntityMap struct {
	remoteToLocal map[registry.Entity]registry.Entity
	localToRemote map[registry.Entity]registry.Entity
}

// NewEntityMap returns an empty map.
func NewEntityMap() *EntityMap {
	return &EntityMap{
		remoteToLocal: make(map[registry.Entity]registry.Entity),
		localToRemote: make(map[registry.Entity]registry.Entity),
	}
}

// Insert records that remote corresponds to local, in both directions.
func (m *EntityMap) Insert(remote, local registry.Entity) {
	m.remoteToLocal[remote] = local
	m.localToRemote[local] = remote
}

// Erase drops any mapping involving remote or local, whichever is known.
func (m *EntityMap) Erase(remote, local registry.Entity) {
	if local == registry.Null {
		local = m.remoteToLocal[remote]
	}
	if remote == registry.Null {
		remote = m.localToRemote[local]
	}
	delete(m.remoteToLocal, remote)
	delete(m.localToRemote, local)
}

// ToLocal resolves a remote entity handle, if known.
func (m *EntityMap) ToLocal(remote registry.Entity) (registry.Entity, bool) {
	e, ok := m.remoteToLocal[remote]
	return e, ok
}

// ToRemote resolves a local entity handle, if known.
func (m *EntityMap) ToRemote(local registry.Entity) (registry.Entity, bool) {
	e, ok := m.localToRemote[local]
	return e, ok
}

// EntityPair is the wire form of one EntityMap entry, used by
// UpdateEntityMap packets.
type EntityPair struct {
	Remote registry.Entity `json:"remote"`
	Local  registry.Entity `json:"local"`
}
