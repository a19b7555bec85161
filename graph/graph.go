// Package graph implements the entity connectivity graph islands are
// derived from: bodies are nodes, manifolds and constraints are edges.
// Non-connecting nodes (static and kinematic bodies) participate in edges
// but never merge two components together, mirroring the original
// engine's insert_node(entity, non_connecting) distinction.
package graph

import "github.com/nyxforge/rigid/registry"

// NodeIndex is a dense index into Graph's node table.
type NodeIndex int

// EdgeIndex is a dense index into Graph's edge table.
type EdgeIndex int

type node struct {
	entity        registry.Entity
	nonConnecting bool
	edges         []EdgeIndex
	alive         bool
}

type edge struct {
	entity registry.Entity
	nodeA  NodeIndex
	nodeB  NodeIndex
	alive  bool
}

// Graph tracks bodies (nodes) and the manifolds/constraints (edges)
// connecting them. It is mutated only from the goroutine stepping the
// World (by the World itself and its island Coordinator).
type Graph struct {
	nodes []node
	edges []edge

	entityNode map[registry.Entity]NodeIndex
	entityEdge map[registry.Entity]EdgeIndex

	freeNodes []NodeIndex
	freeEdges []EdgeIndex
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		entityNode: make(map[registry.Entity]NodeIndex),
		entityEdge: make(map[registry.Entity]EdgeIndex),
	}
}

// InsertNode registers entity as a graph node. nonConnecting marks static
// and kinematic bodies, which participate in edges but never propagate
// connectivity between the components on either side of them.
func (g *Graph) InsertNode(entity registry.Entity, nonConnecting bool) NodeIndex {
	if idx, ok := g.entityNode[entity]; ok {
		return idx
	}
	n := node{entity: entity, nonConnecting: nonConnecting, alive: true}
	var idx NodeIndex
	if len(g.freeNodes) > 0 {
		idx = g.freeNodes[len(g.freeNodes)-1]
		g.freeNodes = g.freeNodes[:len(g.freeNodes)-1]
		g.nodes[idx] = n
	} else {
		idx = NodeIndex(len(g.nodes))
		g.nodes = append(g.nodes, n)
	}
	g.entityNode[entity] = idx
	return idx
}

// RemoveNode detaches a node and every edge touching it.
func (g *Graph) RemoveNode(idx NodeIndex) {
	if idx < 0 || int(idx) >= len(g.nodes) || !g.nodes[idx].alive {
		return
	}
	for _, eidx := range append([]EdgeIndex{}, g.nodes[idx].edges...) {
		g.RemoveEdge(eidx)
	}
	delete(g.entityNode, g.nodes[idx].entity)
	g.nodes[idx] = node{}
	g.freeNodes = append(g.freeNodes, idx)
}

// InsertEdge registers entity (a manifold or constraint) as an edge
// between two existing nodes.
func (g *Graph) InsertEdge(entity registry.Entity, a, b NodeIndex) EdgeIndex {
	if idx, ok := g.entityEdge[entity]; ok {
		return idx
	}
	e := edge{entity: entity, nodeA: a, nodeB: b, alive: true}
	var idx EdgeIndex
	if len(g.freeEdges) > 0 {
		idx = g.freeEdges[len(g.freeEdges)-1]
		g.freeEdges = g.freeEdges[:len(g.freeEdges)-1]
		g.edges[idx] = e
	} else {
		idx = EdgeIndex(len(g.edges))
		g.edges = append(g.edges, e)
	}
	g.entityEdge[entity] = idx
	g.nodes[a].edges = append(g.nodes[a].edges, idx)
	g.nodes[b].edges = append(g.nodes[b].edges, idx)
	return idx
}

// RemoveEdge detaches an edge from both of its endpoints.
func (g *Graph) RemoveEdge(idx EdgeIndex) {
	if idx < 0 || int(idx) >= len(g.edges) || !g.edges[idx].alive {
		return
	}
	e := g.edges[idx]
	g.nodes[e.nodeA].edges = removeEdgeIndex(g.nodes[e.nodeA].edges, idx)
	g.nodes[e.nodeB].edges = removeEdgeIndex(g.nodes[e.nodeB].edges, idx)
	delete(g.entityEdge, e.entity)
	g.edges[idx] = edge{}
	g.freeEdges = append(g.freeEdges, idx)
}

func removeEdgeIndex(s []EdgeIndex, target EdgeIndex) []EdgeIndex {
	for i, e := range s {
		if e == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// NodeOf returns the node index for an entity, if it has one.
func (g *Graph) NodeOf(entity registry.Entity) (NodeIndex, bool) {
	idx, ok := g.entityNode[entity]
	return idx, ok
}

// EdgeOf returns the edge index an entity (manifold or constraint) was
// registered as, if it has one.
func (g *Graph) EdgeOf(entity registry.Entity) (EdgeIndex, bool) {
	idx, ok := g.entityEdge[entity]
	return idx, ok
}

// EdgeEndpoints returns the two node indices an edge connects.
func (g *Graph) EdgeEndpoints(idx EdgeIndex) (NodeIndex, NodeIndex) {
	e := g.edges[idx]
	return e.nodeA, e.nodeB
}

// Entity returns the entity a node index was created from.
func (g *Graph) Entity(idx NodeIndex) registry.Entity { return g.nodes[idx].entity }

// NonConnecting reports whether a node stops connectivity propagation.
func (g *Graph) NonConnecting(idx NodeIndex) bool { return g.nodes[idx].nonConnecting }

// Traverse runs a breadth-first walk from start, calling visit for every
// node reached (start itself included). It never crosses a
// non-connecting node's far side — a non-connecting node is visited but
// does not propagate further, matching the original engine's island
// boundary rule at static/kinematic bodies.
func (g *Graph) Traverse(start NodeIndex, visit func(NodeIndex)) {
	seen := map[NodeIndex]bool{start: true}
	queue := []NodeIndex{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visit(cur)
		if g.nodes[cur].nonConnecting {
			continue
		}
		for _, eidx := range g.nodes[cur].edges {
			a, b := g.EdgeEndpoints(eidx)
			next := a
			if next == cur {
				next = b
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
}

// Reach gathers every node and edge reachable from the given starting
// nodes, subject to predicate (nil predicate accepts every node). It
// returns nodes and edges visited, used by network export to determine
// full-ownership connectivity and by the extrapolation path to gather a
// re-simulation working set.
func (g *Graph) Reach(starts []NodeIndex, predicate func(NodeIndex) bool) (nodes []NodeIndex, edges []EdgeIndex) {
	seenNode := map[NodeIndex]bool{}
	seenEdge := map[EdgeIndex]bool{}
	var queue []NodeIndex
	for _, s := range starts {
		if !seenNode[s] {
			seenNode[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if predicate != nil && !predicate(cur) {
			continue
		}
		nodes = append(nodes, cur)
		if g.nodes[cur].nonConnecting {
			continue
		}
		for _, eidx := range g.nodes[cur].edges {
			if !seenEdge[eidx] {
				seenEdge[eidx] = true
				edges = append(edges, eidx)
			}
			a, b := g.EdgeEndpoints(eidx)
			next := a
			if next == cur {
				next = b
			}
			if !seenNode[next] {
				seenNode[next] = true
				queue = append(queue, next)
			}
		}
	}
	return nodes, edges
}
