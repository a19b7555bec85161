// Package registry implements the entity-component store the rest of the
// engine is built on: opaque entity handles, typed component pools, and
// construct/replace/destroy observer hooks used to keep derived state
// (inverse mass, inverse inertia, graph nodes) in sync without every system
// having to remember to do it.
package registry

import (
	"fmt"
	"reflect"
)

// Entity is an opaque handle: the low 32 bits are a slot index, the high 32
// bits are a generation counter. A stale handle (wrong generation) never
// resolves to live data, even after its slot is recycled.
type Entity uint64

// Null is the distinguished invalid entity.
const Null Entity = 0

func makeEntity(index, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) index() uint32      { return uint32(e) }
func (e Entity) generation() uint32 { return uint32(e >> 32) }

// Valid reports whether e is not the null entity. It does not imply the
// entity is still alive in any particular Registry.
func (e Entity) Valid() bool { return e != Null }

type pool interface {
	remove(r *Registry, e Entity)
	has(e Entity) bool
}

// Registry owns every entity and component in a simulation. It is not safe
// for concurrent use without external synchronization; a World shares one
// Registry, and Async narrowphase goroutines only read from it.
type Registry struct {
	generations []uint32
	free        []uint32
	alive       int

	pools map[reflect.Type]pool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{pools: make(map[reflect.Type]pool)}
}

// Create allocates a fresh entity, reusing a free slot when one exists.
func (r *Registry) Create() Entity {
	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		r.alive++
		return makeEntity(idx, r.generations[idx])
	}
	// Generations start at 1 so no live handle ever equals Null.
	idx := uint32(len(r.generations))
	r.generations = append(r.generations, 1)
	r.alive++
	return makeEntity(idx, 1)
}

// Alive reports whether e refers to a live entity (correct generation).
func (r *Registry) Alive(e Entity) bool {
	idx := e.index()
	return e != Null && int(idx) < len(r.generations) && r.generations[idx] == e.generation()
}

// Destroy removes every component attached to e (firing destroy observers)
// and recycles its slot with a bumped generation.
func (r *Registry) Destroy(e Entity) {
	if !r.Alive(e) {
		return
	}
	for _, p := range r.pools {
		if p.has(e) {
			p.remove(r, e)
		}
	}
	idx := e.index()
	r.generations[idx]++
	r.free = append(r.free, idx)
	r.alive--
}

// Count returns the number of currently alive entities.
func (r *Registry) Count() int { return r.alive }

func componentPool[T any](r *Registry) *Pool[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	p, ok := r.pools[t]
	if !ok {
		np := &Pool[T]{index: make(map[Entity]int)}
		r.pools[t] = np
		return np
	}
	typed, ok := p.(*Pool[T])
	if !ok {
		panic(fmt.Sprintf("registry: type pool corruption for %v", t))
	}
	return typed
}

// Pool stores every live instance of one component type contiguously, so
// views iterate densely packed slices rather than chasing maps.
type Pool[T any] struct {
	entities []Entity
	data     []T
	index    map[Entity]int

	onConstruct []func(*Registry, Entity)
	onReplace   []func(*Registry, Entity)
	onDestroy   []func(*Registry, Entity)
}

func (p *Pool[T]) has(e Entity) bool {
	_, ok := p.index[e]
	return ok
}

func (p *Pool[T]) remove(r *Registry, e Entity) {
	i, ok := p.index[e]
	if !ok {
		return
	}
	for _, fn := range p.onDestroy {
		fn(r, e)
	}
	last := len(p.entities) - 1
	p.entities[i] = p.entities[last]
	p.data[i] = p.data[last]
	p.index[p.entities[i]] = i
	p.entities = p.entities[:last]
	p.data = p.data[:last]
	delete(p.index, e)
}

// Emplace attaches a new T to e, panicking if one is already present — use
// Replace to overwrite. Fires construct observers.
func Emplace[T any](r *Registry, e Entity, v T) *T {
	p := componentPool[T](r)
	if _, exists := p.index[e]; exists {
		panic(fmt.Sprintf("registry: component %T already present on entity", v))
	}
	p.index[e] = len(p.entities)
	p.entities = append(p.entities, e)
	p.data = append(p.data, v)
	for _, fn := range p.onConstruct {
		fn(r, e)
	}
	return &p.data[len(p.data)-1]
}

// EmplaceOrReplace attaches v if absent, otherwise overwrites the existing
// value and fires replace observers instead of construct ones.
func EmplaceOrReplace[T any](r *Registry, e Entity, v T) *T {
	p := componentPool[T](r)
	if i, exists := p.index[e]; exists {
		p.data[i] = v
		for _, fn := range p.onReplace {
			fn(r, e)
		}
		return &p.data[i]
	}
	return Emplace(r, e, v)
}

// Get returns the component and whether it is present.
func Get[T any](r *Registry, e Entity) (T, bool) {
	p := componentPool[T](r)
	i, ok := p.index[e]
	if !ok {
		var zero T
		return zero, false
	}
	return p.data[i], true
}

// GetPtr returns a pointer into the pool's backing slice. The pointer is
// invalidated by any Emplace/Remove on the same component type (slice
// growth/compaction) — do not retain it across those calls.
func GetPtr[T any](r *Registry, e Entity) (*T, bool) {
	p := componentPool[T](r)
	i, ok := p.index[e]
	if !ok {
		return nil, false
	}
	return &p.data[i], true
}

// Has reports component presence without copying the value.
func Has[T any](r *Registry, e Entity) bool {
	p := componentPool[T](r)
	_, ok := p.index[e]
	return ok
}

// Remove detaches T from e, firing destroy observers. A no-op if absent.
func Remove[T any](r *Registry, e Entity) {
	p := componentPool[T](r)
	p.remove(r, e)
}

// Replace overwrites an existing component, firing replace observers. It
// panics if the component is not already present — use EmplaceOrReplace
// when presence is uncertain.
func Replace[T any](r *Registry, e Entity, v T) {
	p := componentPool[T](r)
	i, ok := p.index[e]
	if !ok {
		panic(fmt.Sprintf("registry: Replace on entity missing %T", v))
	}
	p.data[i] = v
	for _, fn := range p.onReplace {
		fn(r, e)
	}
}

// View returns a snapshot slice of every entity currently carrying T. The
// slice is a copy of the pool's entity list, safe to iterate while mutating
// components (but not while destroying entities mid-iteration).
func View[T any](r *Registry) []Entity {
	p := componentPool[T](r)
	out := make([]Entity, len(p.entities))
	copy(out, p.entities)
	return out
}

// Count returns the number of entities carrying T.
func Count[T any](r *Registry) int {
	return len(componentPool[T](r).entities)
}

// OnConstruct registers fn to run after every Emplace of T.
func OnConstruct[T any](r *Registry, fn func(*Registry, Entity)) {
	p := componentPool[T](r)
	p.onConstruct = append(p.onConstruct, fn)
}

// OnReplace registers fn to run after every Replace/EmplaceOrReplace-over-
// existing of T.
func OnReplace[T any](r *Registry, fn func(*Registry, Entity)) {
	p := componentPool[T](r)
	p.onReplace = append(p.onReplace, fn)
}

// OnDestroy registers fn to run just before a T is removed (either via
// Remove or via Destroy of the owning entity).
func OnDestroy[T any](r *Registry, fn func(*Registry, Entity)) {
	p := componentPool[T](r)
	p.onDestroy = append(p.onDestroy, fn)
}
