package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func treeTestItem() (BroadphaseItem, AABB) {
	b := NewBody()
	f := NewFixture(NewBoxPolygon(0.5, 0.5))
	b.AddFixture(f)
	return BroadphaseItem{Body: b, Fixture: f}, f.AABB(b.Transform())
}

func TestDynamicTreeAddAndQuery(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)

	assert.True(t, tree.Contains(item))
	hits := tree.QueryAABB(aabb)
	assert.Contains(t, hits, item)
}

func TestDynamicTreeRemove(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)
	tree.Remove(item)
	assert.False(t, tree.Contains(item))
}

func TestDynamicTreeDetectPairsFindsOverlap(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item1, aabb1 := treeTestItem()
	tree.Add(item1, aabb1)

	b2 := NewBody()
	f2 := NewFixture(NewBoxPolygon(0.5, 0.5))
	b2.SetPosition(Vec2{0.5, 0})
	b2.AddFixture(f2)
	item2 := BroadphaseItem{Body: b2, Fixture: f2}
	tree.Add(item2, f2.AABB(b2.Transform()))

	pairs := tree.DetectPairs()
	assert.Len(t, pairs, 1)
}

func TestDynamicTreeDetectPairsSkipsDistantItems(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item1, aabb1 := treeTestItem()
	tree.Add(item1, aabb1)

	b2 := NewBody()
	f2 := NewFixture(NewBoxPolygon(0.5, 0.5))
	b2.SetPosition(Vec2{1000, 1000})
	b2.AddFixture(f2)
	item2 := BroadphaseItem{Body: b2, Fixture: f2}
	tree.Add(item2, f2.AABB(b2.Transform()))

	assert.Empty(t, tree.DetectPairs())
}

func TestDynamicTreeUpdateReinsertsOnEscape(t *testing.T) {
	tree := NewDynamicTree(0.01)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)

	item.Body.SetPosition(Vec2{50, 0})
	tree.Update()

	fat, ok := tree.GetAABB(item)
	assert.True(t, ok)
	tight := item.Fixture.AABB(item.Body.Transform())
	assert.True(t, fat.Contains(tight))
}

func TestDynamicTreeClear(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)
	tree.Clear()
	assert.False(t, tree.Contains(item))
}

func TestDynamicTreeShiftTranslatesAABBs(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)
	before, _ := tree.GetAABB(item)
	tree.Shift(Vec2{10, 0})
	after, _ := tree.GetAABB(item)
	assert.InDelta(t, before.Min[0]+10, after.Min[0], 1e-9)
}

func TestDynamicTreeRayCast(t *testing.T) {
	tree := NewDynamicTree(0.1)
	item, aabb := treeTestItem()
	tree.Add(item, aabb)
	hits := tree.RayCast(Vec2{-5, 0}, Vec2{1, 0}, 10)
	assert.Contains(t, hits, item)
}
