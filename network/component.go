package network

import (
	"encoding/json"

	"github.com/nyxforge/rigid/registry"
)

// ComponentIndex is a stable position into the ordered component list
// negotiated between a Client and Server at construction — both sides
// must build their list from the same types in the same order.
type ComponentIndex int

// Codec knows how to read one component type off an entity into wire
// bytes and back, so Exporter/ImportPool can stay generic over whatever
// component list the caller wires in.
type Codec interface {
	Name() string
	// IsInput marks a component as belonging to the input-only export
	// path (client-authored, replicated regardless of ownership scope).
	IsInput() bool
	// AlwaysSync marks a component that a full-ownership export always
	// includes for a dynamic body, so a newly-visible body arrives whole
	// instead of accumulating fields one dirty write at a time.
	AlwaysSync() bool
	Get(reg *registry.Registry, e registry.Entity) (json.RawMessage, bool)
	Apply(reg *registry.Registry, e registry.Entity, raw json.RawMessage) error
	// Observe registers fn against every construct/replace of T, used by
	// Exporter to build its dirty-tracking write observers without the
	// caller needing to know T.
	Observe(reg *registry.Registry, fn func(*registry.Registry, registry.Entity))
}

type codec[T any] struct {
	name       string
	isInput    bool
	alwaysSync bool
}

// NewCodec returns a Codec for component type T, identified by name for
// logging only — wire identity is the codec's position in a ComponentList,
// not its name.
func NewCodec[T any](name string) Codec {
	return codec[T]{name: name}
}

// NewInputCodec returns a Codec for a component type the input-only
// export path replicates regardless of full-ownership scope (steering,
// throttle, button state — anything the owning client alone produces).
func NewInputCodec[T any](name string) Codec {
	return codec[T]{name: name, isInput: true}
}

// NewAlwaysSyncCodec returns a Codec the full-ownership export path always
// includes for a dynamic body regardless of dirty state (Transform,
// Velocity — the minimum a newly-visible body needs to appear correctly).
func NewAlwaysSyncCodec[T any](name string) Codec {
	return codec[T]{name: name, alwaysSync: true}
}

func (c codec[T]) Name() string       { return c.name }
func (c codec[T]) IsInput() bool      { return c.isInput }
func (c codec[T]) AlwaysSync() bool   { return c.alwaysSync }

func (c codec[T]) Observe(reg *registry.Registry, fn func(*registry.Registry, registry.Entity)) {
	registry.OnConstruct[T](reg, fn)
	registry.OnReplace[T](reg, fn)
}

func (c codec[T]) Get(reg *registry.Registry, e registry.Entity) (json.RawMessage, bool) {
	v, ok := registry.Get[T](reg, e)
	if !ok {
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (c codec[T]) Apply(reg *registry.Registry, e registry.Entity, raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	registry.EmplaceOrReplace(reg, e, v)
	return nil
}

// ComponentList is the shared ordered list a Client and Server both build
// once at construction; a Pool.Index is a position into this list.
type ComponentList []Codec

// Pool bundles one component's (entity, payload) pairs for compact
// encoding, mirroring the original engine's per-component packet section.
type Pool struct {
	Index   ComponentIndex `json:"index"`
	Entries []PoolEntry    `json:"entries"`
}

// PoolEntry is one component value keyed by the entity it was read from,
// in whichever entity space its enclosing Snapshot is expressed in.
type PoolEntry struct {
	Entity  registry.Entity `json:"entity"`
	Payload json.RawMessage `json:"payload"`
}
