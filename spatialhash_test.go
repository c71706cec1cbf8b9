package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpatialHashAddAndQuery(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)

	assert.True(t, h.Contains(item))
	assert.Contains(t, h.QueryAABB(aabb), item)
}

func TestSpatialHashRemove(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)
	h.Remove(item)
	assert.False(t, h.Contains(item))
}

func TestSpatialHashDetectPairsFindsOverlap(t *testing.T) {
	h := NewSpatialHash(1.0)
	item1, aabb1 := treeTestItem()
	h.Add(item1, aabb1)

	b2 := NewBody()
	f2 := NewFixture(NewBoxPolygon(0.5, 0.5))
	b2.SetPosition(Vec2{0.5, 0})
	b2.AddFixture(f2)
	item2 := BroadphaseItem{Body: b2, Fixture: f2}
	h.Add(item2, f2.AABB(b2.Transform()))

	pairs := h.DetectPairs()
	assert.Len(t, pairs, 1)
}

func TestSpatialHashDetectPairsSkipsDistantCells(t *testing.T) {
	h := NewSpatialHash(1.0)
	item1, aabb1 := treeTestItem()
	h.Add(item1, aabb1)

	b2 := NewBody()
	f2 := NewFixture(NewBoxPolygon(0.5, 0.5))
	b2.SetPosition(Vec2{1000, 1000})
	b2.AddFixture(f2)
	item2 := BroadphaseItem{Body: b2, Fixture: f2}
	h.Add(item2, f2.AABB(b2.Transform()))

	assert.Empty(t, h.DetectPairs())
}

func TestSpatialHashUpdateMovesCells(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)

	item.Body.SetPosition(Vec2{50, 0})
	h.Update()

	fat, ok := h.GetAABB(item)
	assert.True(t, ok)
	tight := item.Fixture.AABB(item.Body.Transform())
	assert.True(t, fat.Contains(tight))
}

func TestSpatialHashClear(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)
	h.Clear()
	assert.False(t, h.Contains(item))
}

func TestSpatialHashShiftTranslatesAABBs(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)
	before, _ := h.GetAABB(item)
	h.Shift(Vec2{10, 0})
	after, _ := h.GetAABB(item)
	assert.InDelta(t, before.Min[0]+10, after.Min[0], 1e-9)
}

func TestSpatialHashRayCast(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)
	hits := h.RayCast(Vec2{-5, 0}, Vec2{1, 0}, 10)
	assert.Contains(t, hits, item)
}

func TestSpatialHashRemoveBody(t *testing.T) {
	h := NewSpatialHash(1.0)
	item, aabb := treeTestItem()
	h.Add(item, aabb)
	h.RemoveBody(item.Body)
	assert.False(t, h.Contains(item))
}
