// Package manifold implements the contact manifold lifecycle: temporal
// caching of narrowphase contact points across frames so the solver can
// warm-start impulses and friction builds up consistently instead of
// popping every step. Grounded on the teacher's box-box Sutherland-Hodgman
// manifold generation (epa.GenerateManifold), generalized from "recompute
// every step" to "merge into a persisted per-pair cache".
package manifold

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// MaxContacts bounds live points per manifold, matching the original
// engine's default (four points is enough to stabilize a box resting on
// a face without the cost of tracking more).
const MaxContacts = 4

// NormalAttachment records which body's frame a point's LocalNormal was
// captured in, so curved-vs-flat contacts track rotation on reuse.
type NormalAttachment int

const (
	AttachNone NormalAttachment = iota
	AttachA
	AttachB
)

// Feature identifies which part of a shape a contact touched, for mesh
// contacts that carry per-vertex/edge/face material.
type Feature struct {
	Kind  FeatureKind
	Index int
}

type FeatureKind int

const (
	FeatureNone FeatureKind = iota
	FeatureVertex
	FeatureEdge
	FeatureFace
)

// Point is one persistent contact point, attached as a component to its
// own entity (manifold->point is a non-owning registry.Entity relation).
type Point struct {
	BodyA, BodyB registry.Entity

	PivotA, PivotB mgl64.Vec3 // object space, relative to each body's origin
	Normal         mgl64.Vec3 // world space, from A toward B
	LocalNormal    mgl64.Vec3 // in the anchor body's frame, when attached

	NormalAttachment NormalAttachment

	Friction     float64
	Restitution  float64
	RollFriction float64
	SpinFriction float64

	Lifetime int
	Distance float64

	FeatureA, FeatureB Feature

	matched bool // scratch flag used only during Cache.Merge
}

// Manifold is a graph edge between two bodies, carrying up to MaxContacts
// live contact point entities. One manifold entity exists per interacting
// pair, created by broadphase on pair-start and destroyed on pair-end.
type Manifold struct {
	BodyA, BodyB registry.Entity
	Points       [MaxContacts]registry.Entity
	NumPoints    int
}

// BreakingThreshold is the separation distance beyond which a point is
// retired, and the AABB inset broadphase uses so manifolds survive small
// separations rather than flickering in and out every frame.
const BreakingThreshold = 0.02

// CachingThreshold is the squared-distance threshold (on either pivot)
// used by Cache.Merge to decide whether a new candidate matches an
// existing point.
const CachingThreshold = 0.02 * 0.02

// Candidate is one narrowphase-produced contact before it has been merged
// into a Manifold's persistent point set.
type Candidate struct {
	PivotA, PivotB     mgl64.Vec3
	Normal             mgl64.Vec3
	Distance           float64
	FeatureA, FeatureB Feature
}

// WorldPivots recomputes a point's pivots in world space from the current
// transforms of its two bodies.
func WorldPivots(reg *registry.Registry, p *Point) (worldA, worldB mgl64.Vec3, ok bool) {
	ta, ok1 := registry.Get[actor.Transform](reg, p.BodyA)
	tb, ok2 := registry.Get[actor.Transform](reg, p.BodyB)
	if !ok1 || !ok2 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	worldA = ta.Position.Add(ta.Rotation.Rotate(p.PivotA))
	worldB = tb.Position.Add(tb.Rotation.Rotate(p.PivotB))
	return worldA, worldB, true
}
