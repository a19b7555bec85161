package manifold

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/nyxforge/rigid/actor"
	"github.com/nyxforge/rigid/registry"
)

func newBody(reg *registry.Registry, pos mgl64.Vec3, mat actor.Material) registry.Entity {
	e := reg.Create()
	registry.Emplace(reg, e, actor.Transform{Position: pos, Rotation: mgl64.QuatIdent()})
	registry.Emplace(reg, e, mat)
	return e
}

func TestMergeInsertsNewPointsUpToMaxContacts(t *testing.T) {
	reg := registry.New()
	cache := NewCache(NewMixTable())

	a := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 0.5, Restitution: 0.1})
	b := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 0.5, Restitution: 0.1})

	m := &Manifold{BodyA: a, BodyB: b}
	candidates := []Candidate{
		{PivotA: mgl64.Vec3{1, 0, 0}, PivotB: mgl64.Vec3{-1, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}, Distance: -0.1},
		{PivotA: mgl64.Vec3{-1, 0, 0}, PivotB: mgl64.Vec3{1, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}, Distance: -0.1},
	}

	cache.Merge(reg, reg.Create(), m, candidates)

	if m.NumPoints != 2 {
		t.Fatalf("expected 2 points inserted, got %d", m.NumPoints)
	}
	pt, ok := registry.Get[Point](reg, m.Points[0])
	if !ok {
		t.Fatal("expected point component to exist")
	}
	if pt.Friction <= 0 {
		t.Fatalf("expected derived friction to be positive, got %v", pt.Friction)
	}
}

func TestMergeMatchesExistingPointByProximity(t *testing.T) {
	reg := registry.New()
	cache := NewCache(NewMixTable())

	a := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 0.5})
	b := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 0.5})

	m := &Manifold{BodyA: a, BodyB: b}
	cache.Merge(reg, reg.Create(), m, []Candidate{
		{PivotA: mgl64.Vec3{1, 0, 0}, PivotB: mgl64.Vec3{-1, 0, 0}, Distance: -0.1},
	})
	if m.NumPoints != 1 {
		t.Fatalf("expected 1 point after first merge, got %d", m.NumPoints)
	}
	firstPoint := m.Points[0]

	// A candidate close to the existing pivot should update, not add.
	cache.Merge(reg, reg.Create(), m, []Candidate{
		{PivotA: mgl64.Vec3{1.001, 0, 0}, PivotB: mgl64.Vec3{-1.001, 0, 0}, Distance: -0.05},
	})

	if m.NumPoints != 1 {
		t.Fatalf("expected matched candidate to update existing point, not add one, got %d points", m.NumPoints)
	}
	if m.Points[0] != firstPoint {
		t.Fatal("expected the same point entity to be reused across the match")
	}
	pt, _ := registry.Get[Point](reg, firstPoint)
	if pt.Distance != -0.05 {
		t.Fatalf("expected matched point distance updated to -0.05, got %v", pt.Distance)
	}
}

func TestMergeEvictsLeastUsefulWhenFull(t *testing.T) {
	reg := registry.New()
	cache := NewCache(NewMixTable())

	a := newBody(reg, mgl64.Vec3{}, actor.Material{})
	b := newBody(reg, mgl64.Vec3{}, actor.Material{})

	m := &Manifold{BodyA: a, BodyB: b}
	corners := []mgl64.Vec3{
		{1, 1, 0}, {1, -1, 0}, {-1, 1, 0}, {-1, -1, 0},
	}
	var candidates []Candidate
	for _, c := range corners {
		candidates = append(candidates, Candidate{PivotA: c, PivotB: c, Distance: -0.1})
	}
	cache.Merge(reg, reg.Create(), m, candidates)
	if m.NumPoints != MaxContacts {
		t.Fatalf("expected manifold to fill to MaxContacts, got %d", m.NumPoints)
	}

	// A fifth, very deep candidate far from the existing cluster should
	// evict one of the shallower points rather than being dropped.
	cache.Merge(reg, reg.Create(), m, []Candidate{
		{PivotA: mgl64.Vec3{5, 5, 5}, PivotB: mgl64.Vec3{5, 5, 5}, Distance: -10},
	})
	if m.NumPoints != MaxContacts {
		t.Fatalf("expected manifold to stay at MaxContacts after eviction, got %d", m.NumPoints)
	}
}

func TestRetireRemovesSeparatedPoints(t *testing.T) {
	reg := registry.New()
	cache := NewCache(NewMixTable())

	a := newBody(reg, mgl64.Vec3{0, 0, 0}, actor.Material{})
	b := newBody(reg, mgl64.Vec3{0, 0, 0}, actor.Material{})

	m := &Manifold{BodyA: a, BodyB: b}
	cache.Merge(reg, reg.Create(), m, []Candidate{
		{PivotA: mgl64.Vec3{0.5, 0, 0}, PivotB: mgl64.Vec3{-0.5, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}, Distance: -0.1},
	})
	if m.NumPoints != 1 {
		t.Fatalf("expected 1 point before separation, got %d", m.NumPoints)
	}

	tb, _ := registry.GetPtr[actor.Transform](reg, b)
	tb.Position = mgl64.Vec3{10, 0, 0}

	cache.Retire(reg, m)
	if m.NumPoints != 0 {
		t.Fatalf("expected point retired after bodies separated past BreakingThreshold, got %d remaining", m.NumPoints)
	}
}

func TestMixTableExplicitEntryOverridesScalarMixing(t *testing.T) {
	reg := registry.New()
	mix := NewMixTable()

	a := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 1, Restitution: 1})
	b := newBody(reg, mgl64.Vec3{}, actor.Material{Friction: 1, Restitution: 1})
	mix.Configure(materialID(reg, a), materialID(reg, b), MixEntry{Friction: 0.01, Restitution: 0.01})

	cache := NewCache(mix)
	m := &Manifold{BodyA: a, BodyB: b}
	cache.Merge(reg, reg.Create(), m, []Candidate{
		{PivotA: mgl64.Vec3{1, 0, 0}, PivotB: mgl64.Vec3{-1, 0, 0}, Distance: -0.1},
	})

	pt, _ := registry.Get[Point](reg, m.Points[0])
	if pt.Friction != 0.01 || pt.Restitution != 0.01 {
		t.Fatalf("expected explicit mix entry to override scalar mixing, got friction=%v restitution=%v", pt.Friction, pt.Restitution)
	}
}

func TestMixFrictionAndRestitutionAndHarmonic(t *testing.T) {
	if got := MixFriction(4, 9); got != 6 {
		t.Fatalf("expected geometric mean 6, got %v", got)
	}
	if got := MixRestitution(0.2, 0.8); got != 0.8 {
		t.Fatalf("expected max restitution 0.8, got %v", got)
	}
	if got := MixHarmonic(2, 2); got != 2 {
		t.Fatalf("expected harmonic mean of equal values to equal that value, got %v", got)
	}
	if got := MixHarmonic(0, 5); got != 0 {
		t.Fatalf("expected harmonic mean to be 0 when either input is non-positive, got %v", got)
	}
}

func TestAttachNormalAndRefreshNormalTrackRotation(t *testing.T) {
	reg := registry.New()
	a := newBody(reg, mgl64.Vec3{}, actor.Material{})
	b := newBody(reg, mgl64.Vec3{}, actor.Material{})
	cache := NewCache(NewMixTable())

	pt := &Point{BodyA: a, BodyB: b, Normal: mgl64.Vec3{0, 1, 0}}
	AttachNormal(reg, pt, AttachA)
	if pt.NormalAttachment != AttachA {
		t.Fatal("expected AttachNormal to record AttachA")
	}

	ta, _ := registry.GetPtr[actor.Transform](reg, a)
	ta.Rotation = mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{1, 0, 0})

	cache.refreshNormal(reg, pt)
	if pt.Normal.Sub(mgl64.Vec3{0, 1, 0}).Len() < 1e-6 {
		t.Fatal("expected refreshed normal to change after anchor body rotated")
	}
}
