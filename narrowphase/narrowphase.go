// Package narrowphase resolves broadphase candidate pairs into exact
// contact geometry. Analytic routines cover sphere-sphere, sphere-box and
// sphere-plane; box-box, box-plane and any other convex pairing fall back
// to gjk/epa, mirroring the teacher's own box-box path generalized to
// arbitrary convex shapes. Two planes never collide.
package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/epa"
	"github.com/nyxforge/rigid/gjk"
	"github.com/nyxforge/rigid/manifold"
)

// Result is a Dispatch outcome: no contact, or a normal (from A toward
// B) plus a set of candidate points ready for manifold.Cache.Merge.
type Result struct {
	Colliding  bool
	Normal     mgl64.Vec3
	Candidates []manifold.Candidate
}

type collideFunc func(a, b *actor.CollisionView) Result

// table is indexed [actor.ShapeType][actor.ShapeType], filled once at package init
// exactly the way the teacher would hand-write a small dispatch switch,
// just wide enough to cover every ShapeType actor currently defines.
var table [3][3]collideFunc

func init() {
	table[actor.ShapeTypeSphere][actor.ShapeTypeSphere] = collideSphereSphere
	table[actor.ShapeTypeSphere][actor.ShapeTypeBox] = collideSphereBox
	table[actor.ShapeTypeBox][actor.ShapeTypeSphere] = flip(collideSphereBox)
	table[actor.ShapeTypeSphere][actor.ShapeTypePlane] = collideSpherePlane
	table[actor.ShapeTypePlane][actor.ShapeTypeSphere] = flip(collideSpherePlane)
	table[actor.ShapeTypeBox][actor.ShapeTypeBox] = collideConvexConvex
	table[actor.ShapeTypeBox][actor.ShapeTypePlane] = collideConvexConvex
	table[actor.ShapeTypePlane][actor.ShapeTypeBox] = collideConvexConvex
	table[actor.ShapeTypePlane][actor.ShapeTypePlane] = collidePlanePlane
}

func flip(fn collideFunc) collideFunc {
	return func(a, b *actor.CollisionView) Result {
		r := fn(b, a)
		if !r.Colliding {
			return r
		}
		r.Normal = r.Normal.Mul(-1)
		for i := range r.Candidates {
			r.Candidates[i].PivotA, r.Candidates[i].PivotB = r.Candidates[i].PivotB, r.Candidates[i].PivotA
			r.Candidates[i].FeatureA, r.Candidates[i].FeatureB = r.Candidates[i].FeatureB, r.Candidates[i].FeatureA
		}
		return r
	}
}

// Dispatch resolves exact contact geometry between two collision views,
// selecting the routine by shape kind. Any pairing the table has no
// entry for — the capsule/convex-polyhedron pairing the original engine
// itself left unimplemented (collide_capsule_polyhedron.cpp) — falls
// through to the generic GJK/EPA convex path, since this port carries no
// capsule shape for that stub to guard.
func Dispatch(a, b *actor.CollisionView) Result {
	fn := table[a.Shape.Kind()][b.Shape.Kind()]
	if fn == nil {
		fn = collideConvexConvex
	}
	return fn(a, b)
}

func collidePlanePlane(a, b *actor.CollisionView) Result {
	return Result{}
}

func collideSphereSphere(a, b *actor.CollisionView) Result {
	sa := a.Shape.(*actor.Sphere)
	sb := b.Shape.(*actor.Sphere)

	d := b.Transform.Position.Sub(a.Transform.Position)
	dist := d.Len()
	radiusSum := sa.Radius + sb.Radius
	if dist >= radiusSum {
		return Result{}
	}

	var normal mgl64.Vec3
	if dist > 1e-9 {
		normal = d.Mul(1 / dist)
	} else {
		normal = mgl64.Vec3{0, 1, 0}
	}

	penetration := radiusSum - dist

	return Result{
		Colliding: true,
		Normal:    normal,
		Candidates: []manifold.Candidate{{
			PivotA:   a.Transform.InverseRotation.Rotate(normal.Mul(sa.Radius)),
			PivotB:   b.Transform.InverseRotation.Rotate(normal.Mul(-sb.Radius)),
			Normal:   normal,
			Distance: -penetration,
			FeatureA: manifold.Feature{Kind: manifold.FeatureVertex},
			FeatureB: manifold.Feature{Kind: manifold.FeatureVertex},
		}},
	}
}

// collideSphereBox tests a sphere (a) against an oriented box (b) by
// clamping the sphere center, expressed in the box's local frame, to the
// box's half-extents.
func collideSphereBox(a, b *actor.CollisionView) Result {
	sphere := a.Shape.(*actor.Sphere)
	box := b.Shape.(*actor.Box)

	localCenter := b.Transform.InverseRotation.Rotate(a.Transform.Position.Sub(b.Transform.Position))

	clamped := mgl64.Vec3{
		clamp(localCenter.X(), -box.HalfExtents.X(), box.HalfExtents.X()),
		clamp(localCenter.Y(), -box.HalfExtents.Y(), box.HalfExtents.Y()),
		clamp(localCenter.Z(), -box.HalfExtents.Z(), box.HalfExtents.Z()),
	}

	localDelta := localCenter.Sub(clamped)
	dist := localDelta.Len()
	if dist >= sphere.Radius {
		return Result{}
	}

	var localNormal mgl64.Vec3
	if dist > 1e-9 {
		localNormal = localDelta.Mul(1 / dist)
	} else {
		// Sphere center is inside the box: push out along the axis of least
		// penetration.
		localNormal = leastPenetrationAxis(localCenter, box.HalfExtents)
		dist = 0
	}

	normal := b.Transform.Rotation.Rotate(localNormal).Mul(-1) // from A (sphere) toward B (box)
	penetration := sphere.Radius - dist

	pivotBWorldPoint := b.Transform.Position.Add(b.Transform.Rotation.Rotate(clamped))
	pivotAWorldPoint := a.Transform.Position.Add(normal.Mul(sphere.Radius))

	pivotA := a.Transform.InverseRotation.Rotate(pivotAWorldPoint.Sub(a.Transform.Position))
	pivotB := b.Transform.InverseRotation.Rotate(pivotBWorldPoint.Sub(b.Transform.Position))

	return Result{
		Colliding: true,
		Normal:    normal,
		Candidates: []manifold.Candidate{{
			PivotA:   pivotA,
			PivotB:   pivotB,
			Normal:   normal,
			Distance: -penetration,
			FeatureA: manifold.Feature{Kind: manifold.FeatureVertex},
			FeatureB: manifold.Feature{Kind: manifold.FeatureFace},
		}},
	}
}

func leastPenetrationAxis(localCenter, halfExtents mgl64.Vec3) mgl64.Vec3 {
	dx := halfExtents.X() - math.Abs(localCenter.X())
	dy := halfExtents.Y() - math.Abs(localCenter.Y())
	dz := halfExtents.Z() - math.Abs(localCenter.Z())

	sign := func(v float64) float64 {
		if v < 0 {
			return -1
		}
		return 1
	}

	switch {
	case dx <= dy && dx <= dz:
		return mgl64.Vec3{sign(localCenter.X()), 0, 0}
	case dy <= dx && dy <= dz:
		return mgl64.Vec3{0, sign(localCenter.Y()), 0}
	default:
		return mgl64.Vec3{0, 0, sign(localCenter.Z())}
	}
}

func collideSpherePlane(a, b *actor.CollisionView) Result {
	sphere := a.Shape.(*actor.Sphere)
	plane := b.Shape.(*actor.Plane)

	worldNormal := b.Transform.Rotation.Rotate(plane.Normal).Normalize()
	planePoint := b.Transform.Position.Add(worldNormal.Mul(-plane.Distance))

	dist := a.Transform.Position.Sub(planePoint).Dot(worldNormal)
	penetration := sphere.Radius - dist
	if penetration <= 0 {
		return Result{}
	}

	normal := worldNormal.Mul(-1) // from A (sphere) toward B (plane)
	pivotAWorld := a.Transform.Position.Add(worldNormal.Mul(-sphere.Radius))
	pivotBWorld := a.Transform.Position.Sub(worldNormal.Mul(dist))

	pivotA := a.Transform.InverseRotation.Rotate(pivotAWorld.Sub(a.Transform.Position))
	pivotB := b.Transform.InverseRotation.Rotate(pivotBWorld.Sub(b.Transform.Position))

	return Result{
		Colliding: true,
		Normal:    normal,
		Candidates: []manifold.Candidate{{
			PivotA:   pivotA,
			PivotB:   pivotB,
			Normal:   normal,
			Distance: -penetration,
			FeatureA: manifold.Feature{Kind: manifold.FeatureVertex},
			FeatureB: manifold.Feature{Kind: manifold.FeatureFace},
		}},
	}
}

// collideConvexConvex handles every pairing without a closed-form
// routine (box-box, box-plane and the general convex fallback) via
// gjk.GJK + epa.EPA + epa.GenerateManifold, exactly the teacher's box-box
// pipeline generalized to any ShapeInterface implementor.
func collideConvexConvex(a, b *actor.CollisionView) Result {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	simplex.Reset()
	defer gjk.SimplexPool.Put(simplex)

	if !gjk.GJK(a, b, simplex) {
		return Result{}
	}

	result, err := epa.EPA(a, b, simplex)
	if err != nil {
		return Result{}
	}

	candidates := make([]manifold.Candidate, 0, len(result.Points))
	for _, c := range result.Points {
		pivotA := a.Transform.InverseRotation.Rotate(c.Position.Sub(a.Transform.Position))
		pivotB := b.Transform.InverseRotation.Rotate(c.Position.Sub(b.Transform.Position))
		candidates = append(candidates, manifold.Candidate{
			PivotA:   pivotA,
			PivotB:   pivotB,
			Normal:   result.Normal,
			Distance: -c.Penetration,
			FeatureA: manifold.Feature{Kind: manifold.FeatureFace},
			FeatureB: manifold.Feature{Kind: manifold.FeatureFace},
		})
	}

	return Result{Colliding: len(candidates) > 0, Normal: result.Normal, Candidates: candidates}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
