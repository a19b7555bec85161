package constraint

import (
	"github.com/nyxforge/rigid/manifold"
	"github.com/nyxforge/rigid/registry"
)

// Edge names the two bodies a constraint or manifold connects; every
// constraint component type is stored keyed by its own edge entity, the
// same way manifold.Manifold is, so both live as graph edges.
type Edge struct {
	BodyA, BodyB registry.Entity
}

// BuildCache assembles one flat row slice for every constraint and
// manifold edge entity given, grounded on the teacher's per-step
// row-cache rebuild (constraints are cheap enough to re-flatten every
// step rather than incrementally patched). Rows preserve each
// constraint's own preparation order; constraints are visited in the
// order their edge entities are given, never resorted.
func BuildCache(reg *registry.Registry, edges []registry.Entity, dt float64) []*Row {
	var rows []*Row
	for _, e := range edges {
		if m, ok := registry.GetPtr[manifold.Manifold](reg, e); ok {
			rows = append(rows, PrepareContact(reg, m)...)
			continue
		}
		if p, ok := registry.GetPtr[Point](reg, e); ok {
			edge, _ := registry.Get[Edge](reg, e)
			rows = append(rows, PreparePoint(reg, edge.BodyA, edge.BodyB, p)...)
			continue
		}
		if h, ok := registry.GetPtr[Hinge](reg, e); ok {
			edge, _ := registry.Get[Edge](reg, e)
			rows = append(rows, PrepareHinge(reg, edge.BodyA, edge.BodyB, h, dt)...)
			continue
		}
		if sd, ok := registry.GetPtr[SoftDistance](reg, e); ok {
			edge, _ := registry.Get[Edge](reg, e)
			rows = append(rows, PrepareSoftDistance(reg, edge.BodyA, edge.BodyB, sd, dt)...)
			continue
		}
		if d, ok := registry.GetPtr[Distance](reg, e); ok {
			edge, _ := registry.Get[Edge](reg, e)
			rows = append(rows, PrepareDistance(reg, edge.BodyA, edge.BodyB, d)...)
			continue
		}
		if g, ok := registry.GetPtr[Generic](reg, e); ok {
			edge, _ := registry.Get[Edge](reg, e)
			rows = append(rows, PrepareGeneric(reg, edge.BodyA, edge.BodyB, g)...)
			continue
		}
	}
	return rows
}
