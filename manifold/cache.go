package manifold

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// Cache owns the merge/retire lifecycle for every live manifold. It holds
// no state of its own beyond the mix table — manifolds and points live in
// the registry, keeping the cache stateless and safe to share across
// islands (it never mutates anything the coordinator doesn't already own).
type Cache struct {
	Mix *MixTable
}

// NewCache returns a Cache backed by mix for friction/restitution
// derivation.
func NewCache(mix *MixTable) *Cache {
	return &Cache{Mix: mix}
}

// Merge folds narrowphase candidates into m's persistent point set,
// matching existing points by pivot proximity (CachingThreshold) and
// replacing the least useful point when the manifold is full. Grounded on
// the original engine's manifold merge/find_nearest_contact pair.
func (c *Cache) Merge(reg *registry.Registry, manifoldEntity registry.Entity, m *Manifold, candidates []Candidate) {
	matched := make([]bool, len(candidates))

	// Update existing points against the nearest unmatched candidate.
	for i := 0; i < m.NumPoints; i++ {
		pe := m.Points[i]
		pt, ok := registry.GetPtr[Point](reg, pe)
		if !ok {
			continue
		}
		pt.matched = false
		best := -1
		bestDist := CachingThreshold
		for ci, cand := range candidates {
			if matched[ci] {
				continue
			}
			dA := pt.PivotA.Sub(cand.PivotA).LenSqr()
			dB := pt.PivotB.Sub(cand.PivotB).LenSqr()
			d := dA
			if dB < d {
				d = dB
			}
			if d < bestDist {
				bestDist = d
				best = ci
			}
		}
		if best >= 0 {
			cand := candidates[best]
			matched[best] = true
			pt.matched = true
			applyCandidate(pt, cand)
			c.refreshNormal(reg, pt)
		}
	}

	// Insert or displace for every candidate that found no match.
	for ci, cand := range candidates {
		if matched[ci] {
			continue
		}
		if m.NumPoints < MaxContacts {
			pe := reg.Create()
			pt := registry.Emplace(reg, pe, *newPointFromCandidate(reg, m, cand))
			c.deriveMaterial(reg, pt)
			registry.Replace(reg, pe, *pt)
			m.Points[m.NumPoints] = pe
			m.NumPoints++
			continue
		}
		// Manifold full: replace the point that minimizes a utility score.
		victim := c.leastUseful(reg, m, cand)
		if victim < 0 {
			continue
		}
		pe := m.Points[victim]
		pt, ok := registry.GetPtr[Point](reg, pe)
		if !ok {
			continue
		}
		applyCandidate(pt, cand)
		c.deriveMaterial(reg, pt)
	}
}

func applyCandidate(pt *Point, cand Candidate) {
	pt.PivotA = cand.PivotA
	pt.PivotB = cand.PivotB
	pt.Normal = cand.Normal
	pt.Distance = cand.Distance
	pt.FeatureA = cand.FeatureA
	pt.FeatureB = cand.FeatureB
}

func newPointFromCandidate(reg *registry.Registry, m *Manifold, cand Candidate) *Point {
	return &Point{
		BodyA: m.BodyA, BodyB: m.BodyB,
		PivotA: cand.PivotA, PivotB: cand.PivotB,
		Normal: cand.Normal, Distance: cand.Distance,
		FeatureA: cand.FeatureA, FeatureB: cand.FeatureB,
	}
}

// leastUseful scores every live point against the incoming candidate,
// preferring to keep the deepest penetration and the set of points that
// maximizes pairwise pivot spread (retains manifold shape rather than
// collapsing to a corner). The deepest existing point is never evicted
// unless the candidate is deeper. Returns the index of the point to evict,
// or -1 if keeping the existing points gives at least as much spread as
// any eviction would, in which case the candidate is dropped.
func (c *Cache) leastUseful(reg *registry.Registry, m *Manifold, cand Candidate) int {
	points := make([]Point, m.NumPoints)
	for i := 0; i < m.NumPoints; i++ {
		points[i], _ = registry.Get[Point](reg, m.Points[i])
	}

	deepest := 0
	for i, p := range points {
		if p.Distance < points[deepest].Distance {
			deepest = i
		}
	}
	candIsDeepest := cand.Distance < points[deepest].Distance

	spreadWithout := func(skip int, skipIsCandidate bool) float64 {
		spread := 0.0
		pivots := make([]mgl64.Vec3, 0, m.NumPoints+1)
		for i, p := range points {
			if !skipIsCandidate && i == skip {
				continue
			}
			pivots = append(pivots, p.PivotA)
		}
		if !skipIsCandidate {
			pivots = append(pivots, cand.PivotA)
		}
		for i := 0; i < len(pivots); i++ {
			for j := i + 1; j < len(pivots); j++ {
				spread += pivots[i].Sub(pivots[j]).LenSqr()
			}
		}
		return spread
	}

	bestVictim := -1
	bestSpread := -1.0
	for i := range points {
		if i == deepest && !candIsDeepest {
			continue // never evict the deepest point unless the candidate itself is deepest
		}
		s := spreadWithout(i, false)
		if s > bestSpread {
			bestSpread = s
			bestVictim = i
		}
	}

	// Compare against dropping the candidate entirely.
	if bestVictim >= 0 && spreadWithout(-1, true) >= bestSpread {
		return -1
	}
	return bestVictim
}

// refreshNormal recomputes a matched point's world normal from the anchor
// body's current orientation when NormalAttachment is set, so curved
// contacts track rotation instead of freezing the normal at creation.
func (c *Cache) refreshNormal(reg *registry.Registry, pt *Point) {
	var anchor registry.Entity
	switch pt.NormalAttachment {
	case AttachA:
		anchor = pt.BodyA
	case AttachB:
		anchor = pt.BodyB
	default:
		return
	}
	t, ok := registry.Get[actor.Transform](reg, anchor)
	if !ok {
		return
	}
	n := t.Rotation.Rotate(pt.LocalNormal)
	if pt.NormalAttachment == AttachB {
		n = n.Mul(-1)
	}
	pt.Normal = n.Normalize()
}

// AttachNormal captures the world normal of a freshly created point into
// the anchor body's local frame, called once at insertion time when the
// caller wants normal_on_A/normal_on_B semantics (e.g. sphere on a convex
// mesh face).
func AttachNormal(reg *registry.Registry, pt *Point, attachment NormalAttachment) {
	pt.NormalAttachment = attachment
	var anchor registry.Entity
	sign := 1.0
	switch attachment {
	case AttachA:
		anchor = pt.BodyA
	case AttachB:
		anchor = pt.BodyB
		sign = -1
	default:
		return
	}
	t, ok := registry.Get[actor.Transform](reg, anchor)
	if !ok {
		return
	}
	pt.LocalNormal = t.Rotation.Inverse().Rotate(pt.Normal.Mul(sign))
}

// Retire removes points whose separation has grown past BreakingThreshold
// or whose tangential drift exceeds it, called once per step after the
// solver has moved bodies. Surviving points get Lifetime incremented.
func (c *Cache) Retire(reg *registry.Registry, m *Manifold) {
	i := 0
	for i < m.NumPoints {
		pe := m.Points[i]
		pt, ok := registry.GetPtr[Point](reg, pe)
		if !ok {
			m.removeAt(reg, i)
			continue
		}
		worldA, worldB, ok := WorldPivots(reg, pt)
		if !ok {
			m.removeAt(reg, i)
			continue
		}
		d := worldB.Sub(worldA)
		normalDist := d.Dot(pt.Normal)
		tangent := d.Sub(pt.Normal.Mul(normalDist))

		if normalDist > BreakingThreshold || tangent.LenSqr() > BreakingThreshold*BreakingThreshold {
			m.removeAt(reg, i)
			continue
		}
		pt.Distance = normalDist
		pt.Lifetime++
		i++
	}
}

// removeAt swap-removes point index i from the manifold and destroys its
// backing entity.
func (m *Manifold) removeAt(reg *registry.Registry, i int) {
	pe := m.Points[i]
	last := m.NumPoints - 1
	m.Points[i] = m.Points[last]
	m.NumPoints--
	reg.Destroy(pe)
}
