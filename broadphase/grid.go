// Package broadphase finds candidate colliding pairs cheaply before the
// narrowphase does exact geometry tests. Adapted from the teacher's
// SpatialGrid: a uniform hashed grid, generalized from a []*RigidBody
// slice to registry entities, with AABBs inset by a breaking threshold so
// manifolds survive small separations instead of flickering in and out.
package broadphase

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// CellKey identifies one cell of the grid.
type CellKey struct{ X, Y, Z int }

type cell struct {
	entities []registry.Entity
}

// PairKey canonically orders two entities so (a, b) and (b, a) hash the
// same way in a map.
type PairKey struct{ A, B registry.Entity }

func canonical(a, b registry.Entity) PairKey {
	if a <= b {
		return PairKey{a, b}
	}
	return PairKey{b, a}
}

// Grid is a uniform spatial hash over inset AABBs.
type Grid struct {
	cellSize float64
	cells    []cell
	cellMask int
	inset    float64
	active   map[PairKey]bool
}

// New returns a grid with the given cell size and cell-table capacity
// (rounded up to the next power of two). Every AABB is grown by inset on
// each side before insertion (see package doc).
func New(cellSize float64, numCells int, inset float64) *Grid {
	numCells = nextPowerOfTwo(numCells)
	cells := make([]cell, numCells)
	return &Grid{cellSize: cellSize, cells: cells, cellMask: numCells - 1, inset: inset, active: make(map[PairKey]bool)}
}

// PairKind distinguishes a pair beginning to overlap from one that just
// stopped, so the caller knows whether to create or destroy a manifold.
type PairKind int

const (
	PairStart PairKind = iota
	PairEnd
)

// PairEvent reports one pair transitioning into or out of overlap.
type PairEvent struct {
	A, B registry.Entity
	Kind PairKind
}

// Events diffs this frame's overlapping pairs (from Pairs) against the
// set active after the previous call, reporting PairStart for every pair
// newly overlapping and PairEnd for every pair that dropped out. Call
// once per step, after Update.
func (g *Grid) Events(reg *registry.Registry, entities []registry.Entity) []PairEvent {
	current := g.Pairs(reg, entities)
	currentSet := make(map[PairKey]bool, len(current))
	var events []PairEvent

	for _, p := range current {
		currentSet[p] = true
		if !g.active[p] {
			events = append(events, PairEvent{A: p.A, B: p.B, Kind: PairStart})
		}
	}
	for p := range g.active {
		if !currentSet[p] {
			events = append(events, PairEvent{A: p.A, B: p.B, Kind: PairEnd})
		}
	}
	g.active = currentSet
	return events
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

func (g *Grid) clear() {
	for i := range g.cells {
		g.cells[i].entities = g.cells[i].entities[:0]
	}
}

func (g *Grid) insetAABB(box actor.AABB) actor.AABB {
	v := mgl64.Vec3{g.inset, g.inset, g.inset}
	return actor.AABB{Min: box.Min.Sub(v), Max: box.Max.Add(v)}
}

func (g *Grid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / g.cellSize)),
		Y: int(math.Floor(pos.Y() / g.cellSize)),
		Z: int(math.Floor(pos.Z() / g.cellSize)),
	}
}

func (g *Grid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & g.cellMask
}

// Update rebuilds the grid from scratch for the given entities. Called
// once per step, after the integrator has refreshed every AABBComp.
func (g *Grid) Update(reg *registry.Registry, entities []registry.Entity) {
	g.clear()
	for _, e := range entities {
		box, ok := registry.Get[actor.AABBComp](reg, e)
		if !ok {
			continue
		}
		inset := g.insetAABB(box.Box)
		minCell := g.worldToCell(inset.Min)
		maxCell := g.worldToCell(inset.Max)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					idx := g.hashCell(CellKey{x, y, z})
					g.cells[idx].entities = append(g.cells[idx].entities, e)
				}
			}
		}
	}
	for i := range g.cells {
		if len(g.cells[i].entities) > 1 {
			sort.Slice(g.cells[i].entities, func(a, b int) bool {
				return g.cells[i].entities[a] < g.cells[i].entities[b]
			})
		}
	}
}

// Pairs returns every candidate pair whose inset AABBs overlap, skipping
// static-static pairs and fully-sleeping pairs. A pair where either shape
// is an infinite Plane is always reported, since planes intentionally
// keep an unbounded AABB along non-dominant axes.
func (g *Grid) Pairs(reg *registry.Registry, entities []registry.Entity) []PairKey {
	seen := make(map[PairKey]bool)
	var out []PairKey

	for _, a := range entities {
		boxA, ok := registry.Get[actor.AABBComp](reg, a)
		if !ok {
			continue
		}
		inset := g.insetAABB(boxA.Box)
		minCell := g.worldToCell(inset.Min)
		maxCell := g.worldToCell(inset.Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					idx := g.hashCell(CellKey{x, y, z})
					for _, b := range g.cells[idx].entities {
						if b == a {
							continue
						}
						key := canonical(a, b)
						if seen[key] {
							continue
						}
						if g.shouldPair(reg, a, b) {
							seen[key] = true
							out = append(out, key)
						}
					}
				}
			}
		}
	}
	return out
}

func (g *Grid) shouldPair(reg *registry.Registry, a, b registry.Entity) bool {
	kindA, _ := registry.Get[actor.KindComp](reg, a)
	kindB, _ := registry.Get[actor.KindComp](reg, b)
	if kindA.Kind != actor.Dynamic && kindB.Kind != actor.Dynamic {
		return false
	}

	sleepA, _ := registry.Get[actor.SleepState](reg, a)
	sleepB, _ := registry.Get[actor.SleepState](reg, b)
	if sleepA.Sleeping && sleepB.Sleeping {
		return false
	}

	shapeA, _ := registry.Get[actor.ShapeComp](reg, a)
	shapeB, _ := registry.Get[actor.ShapeComp](reg, b)
	_, aIsPlane := shapeA.Shape.(*actor.Plane)
	_, bIsPlane := shapeB.Shape.(*actor.Plane)
	if aIsPlane || bIsPlane {
		return true
	}

	boxA, _ := registry.Get[actor.AABBComp](reg, a)
	boxB, _ := registry.Get[actor.AABBComp](reg, b)
	return g.insetAABB(boxA.Box).Overlaps(g.insetAABB(boxB.Box))
}
