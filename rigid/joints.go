package rigid

import (
	"github.com/nyxforge/rigid/constraint"
	"github.com/nyxforge/rigid/registry"
)

// addEdge creates an entity carrying constraint.Edge plus payload,
// registers it as a graph edge between bodyA and bodyB, and notifies the
// island coordinator, exactly the wiring broadphase pair-start does for
// manifolds — a constraint and a manifold are both just graph edges.
func (w *World) addEdge(bodyA, bodyB registry.Entity, payload any) registry.Entity {
	e := w.Reg.Create()
	registry.Emplace(w.Reg, e, constraint.Edge{BodyA: bodyA, BodyB: bodyB})
	switch p := payload.(type) {
	case constraint.Point:
		registry.Emplace(w.Reg, e, p)
	case constraint.Hinge:
		registry.Emplace(w.Reg, e, p)
	case constraint.SoftDistance:
		registry.Emplace(w.Reg, e, p)
	case constraint.Distance:
		registry.Emplace(w.Reg, e, p)
	case constraint.Generic:
		registry.Emplace(w.Reg, e, p)
	}

	nodeA, okA := w.Graph.NodeOf(bodyA)
	nodeB, okB := w.Graph.NodeOf(bodyB)
	if okA && okB {
		w.Graph.InsertEdge(e, nodeA, nodeB)
		w.Islands.OnEdgeInserted(nodeA, nodeB)
	}
	return e
}

// AddPointConstraint pins a local point on each body together.
func (w *World) AddPointConstraint(bodyA, bodyB registry.Entity, c constraint.Point) registry.Entity {
	return w.addEdge(bodyA, bodyB, c)
}

// AddHingeConstraint restricts bodyA/bodyB to rotate about a shared axis.
func (w *World) AddHingeConstraint(bodyA, bodyB registry.Entity, c constraint.Hinge) registry.Entity {
	return w.addEdge(bodyA, bodyB, c)
}

// AddSoftDistanceConstraint keeps two pivots near a target distance with a
// spring rather than a hard limit.
func (w *World) AddSoftDistanceConstraint(bodyA, bodyB registry.Entity, c constraint.SoftDistance) registry.Entity {
	return w.addEdge(bodyA, bodyB, c)
}

// AddDistanceConstraint keeps two pivots exactly Length apart.
func (w *World) AddDistanceConstraint(bodyA, bodyB registry.Entity, c constraint.Distance) registry.Entity {
	return w.addEdge(bodyA, bodyB, c)
}

// AddGenericConstraint locks relative motion along a caller-chosen subset
// of body-local axes.
func (w *World) AddGenericConstraint(bodyA, bodyB registry.Entity, c constraint.Generic) registry.Entity {
	return w.addEdge(bodyA, bodyB, c)
}

// RemoveConstraint destroys a constraint edge, marking both islands dirty
// so the next Rescan splits them if this was their only connection.
func (w *World) RemoveConstraint(edgeEntity registry.Entity) {
	edge, ok := registry.Get[constraint.Edge](w.Reg, edgeEntity)
	if !ok {
		return
	}
	nodeA, okA := w.Graph.NodeOf(edge.BodyA)
	nodeB, okB := w.Graph.NodeOf(edge.BodyB)
	if ei, ok := w.Graph.EdgeOf(edgeEntity); ok {
		w.Graph.RemoveEdge(ei)
	}
	if okA && okB {
		w.Islands.OnEdgeRemoved(nodeA, nodeB)
	}
	w.Reg.Destroy(edgeEntity)
}
