package manifold

import (
	"math"
	"sync"

	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

// MaterialID names one entry in a MixTable, negotiated by the caller (a
// small int per distinct actor.Material configuration is typical — the
// zero value means "no explicit mix entry, fall back to scalar mixing").
type MaterialID int

// MixEntry stores explicit friction/restitution overrides for one
// material pair, taking precedence over scalar mixing when present.
type MixEntry struct {
	Friction    float64
	Restitution float64
}

// MixTable is read-only after Configure; Configure takes an exclusive
// lock only at setup time, mirroring the original engine's read-mostly
// material_mix_table (lookups may run concurrently; only Configure writes).
type MixTable struct {
	mu      sync.RWMutex
	entries map[[2]MaterialID]MixEntry
}

// NewMixTable returns an empty table; every pair falls back to scalar
// mixing until Configure adds explicit entries.
func NewMixTable() *MixTable {
	return &MixTable{entries: make(map[[2]MaterialID]MixEntry)}
}

func canonicalPair(a, b MaterialID) [2]MaterialID {
	if a <= b {
		return [2]MaterialID{a, b}
	}
	return [2]MaterialID{b, a}
}

// Configure installs (or overwrites) the mix entry for a material pair.
func (t *MixTable) Configure(a, b MaterialID, entry MixEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[canonicalPair(a, b)] = entry
}

func (t *MixTable) lookup(a, b MaterialID) (MixEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[canonicalPair(a, b)]
	return e, ok
}

// MixFriction combines two scalar friction coefficients by geometric
// mean, the original engine's default.
func MixFriction(a, b float64) float64 { return math.Sqrt(a * b) }

// MixRestitution combines two scalar restitution coefficients by taking
// the max — a soft body should not damp a bouncy one.
func MixRestitution(a, b float64) float64 { return math.Max(a, b) }

// MixHarmonic combines stiffness/damping coefficients by harmonic mean,
// so a rigid spring in series with an infinitely stiff one behaves like
// the finite one.
func MixHarmonic(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

// deriveMaterial resolves friction and restitution for a freshly merged or
// inserted point, following §6.3's three-tier lookup: explicit mix table
// entry, then per-feature material, then plain scalar mixing. It does not
// set RollFriction or SpinFriction.
func (c *Cache) deriveMaterial(reg *registry.Registry, pt *Point) {
	matA, okA := registry.Get[actor.Material](reg, pt.BodyA)
	matB, okB := registry.Get[actor.Material](reg, pt.BodyB)
	if !okA || !okB {
		return
	}

	if c.Mix != nil {
		idA, idB := materialID(reg, pt.BodyA), materialID(reg, pt.BodyB)
		if entry, ok := c.Mix.lookup(idA, idB); ok {
			pt.Friction = entry.Friction
			pt.Restitution = entry.Restitution
			return
		}
	}

	frictionA, restA := featureOverride(reg, pt.BodyA, pt.FeatureA, matA.Friction, matA.Restitution)
	frictionB, restB := featureOverride(reg, pt.BodyB, pt.FeatureB, matB.Friction, matB.Restitution)

	pt.Friction = MixFriction(frictionA, frictionB)
	pt.Restitution = MixRestitution(restA, restB)
}

// materialID derives a stable MaterialID for a body: its entity handle,
// since this engine does not intern materials into a shared table of its
// own.
func materialID(reg *registry.Registry, e registry.Entity) MaterialID {
	return MaterialID(e)
}

// featureOverride looks up per-feature material in the body's
// actor.FeatureMaterial component, if it carries one, falling back to the
// body's plain scalar material.
func featureOverride(reg *registry.Registry, e registry.Entity, f Feature, friction, restitution float64) (float64, float64) {
	fm, ok := registry.Get[actor.FeatureMaterial](reg, e)
	if !ok || f.Kind == FeatureNone {
		return friction, restitution
	}
	if v, ok := fm.Lookup(int(f.Kind), f.Index); ok {
		return v.Friction, v.Restitution
	}
	return friction, restitution
}
