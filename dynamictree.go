package physics

// dynamictree.go implements the dynamic AABB tree broad-phase of
// spec.md §4.1. It is the concrete default behind the teacher's
// `SpatialIndex` plug point (`space.staticShapes`, `space.dynamicShapes`
// in the teacher's Space); the teacher itself only references this
// through its BBTree/SpaceHash interface, so the tree body here is new,
// built directly from spec.md §4.1 and §9's "Broad-phase updated this
// tick" design note, which this type preserves verbatim as `updated`.

const defaultFatAABBMargin = 0.2

// BroadphaseItem identifies one (body, fixture) pair tracked by a
// broad-phase detector.
type BroadphaseItem struct {
	Body    *Body
	Fixture *Fixture
}

// BroadphasePair is a candidate pair emitted by detect_iter (spec.md §4.1).
type BroadphasePair struct {
	A, B BroadphaseItem
}

// Broadphase is the pluggable detector interface spec.md §4.1 and §6
// (`set_broadphase_detector`) require. DynamicTree and SpatialHash both
// satisfy it.
type Broadphase interface {
	Add(item BroadphaseItem, aabb AABB)
	Remove(item BroadphaseItem)
	RemoveBody(body *Body)
	Update()
	Clear()
	Shift(v Vec2)
	DetectPairs() []BroadphasePair
	ClearUpdates()
	IsUpdated(item BroadphaseItem) bool
	Contains(item BroadphaseItem) bool
	GetAABB(item BroadphaseItem) (AABB, bool)
	QueryAABB(aabb AABB) []BroadphaseItem
	RayCast(origin, dir Vec2, maxLen float64) []BroadphaseItem
}

type treeNode struct {
	aabb        AABB
	item        BroadphaseItem
	leaf        bool
	updated     bool
	parent      int
	left, right int
}

const nullNode = -1

// DynamicTree is a dynamic bounding-volume tree broad-phase: internal
// nodes store the union of their children's fat AABBs, leaves store one
// fixture's fat AABB. Insertion/removal perform a local
// surface-area-heuristic rotation on ancestors (spec.md §4.1 "Tie-breaks
// and policies").
type DynamicTree struct {
	nodes     []treeNode
	free      []int
	root      int
	margin    float64
	index     map[BroadphaseItem]int
	updatedAt []BroadphaseItem // items currently flagged updated, in order.
}

// NewDynamicTree creates an empty tree using margin as the fat-AABB
// expansion applied to every inserted/reinserted leaf.
func NewDynamicTree(margin float64) *DynamicTree {
	return &DynamicTree{root: nullNode, margin: margin, index: map[BroadphaseItem]int{}}
}

func (t *DynamicTree) allocNode() int {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		return id
	}
	t.nodes = append(t.nodes, treeNode{})
	return len(t.nodes) - 1
}

func (t *DynamicTree) freeNode(id int) {
	t.nodes[id] = treeNode{parent: nullNode, left: nullNode, right: nullNode}
	t.free = append(t.free, id)
}

// Add inserts item with a freshly inflated fat AABB.
func (t *DynamicTree) Add(item BroadphaseItem, aabb AABB) {
	id := t.allocNode()
	t.nodes[id] = treeNode{
		aabb:    aabb.Expand(t.margin),
		item:    item,
		leaf:    true,
		updated: true,
		parent:  nullNode,
		left:    nullNode,
		right:   nullNode,
	}
	t.index[item] = id
	t.updatedAt = append(t.updatedAt, item)
	t.insertLeaf(id)
}

func (t *DynamicTree) insertLeaf(leaf int) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	leafAABB := t.nodes[leaf].aabb
	cur := t.root
	for !t.nodes[cur].leaf {
		n := t.nodes[cur]
		combined := n.aabb.Union(leafAABB)
		cost := combined.Perimeter()
		inheritCost := cost - n.aabb.Perimeter()

		costLeft := t.childCost(n.left, leafAABB) + inheritCost
		costRight := t.childCost(n.right, leafAABB) + inheritCost

		if cost < costLeft && cost < costRight {
			break
		}
		if costLeft < costRight {
			cur = n.left
		} else {
			cur = n.right
		}
	}

	sibling := cur
	oldParent := t.nodes[sibling].parent
	newParent := t.allocNode()
	t.nodes[newParent] = treeNode{
		aabb:   t.nodes[sibling].aabb.Union(leafAABB),
		parent: oldParent,
		left:   sibling,
		right:  leaf,
	}
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent == nullNode {
		t.root = newParent
	} else {
		op := &t.nodes[oldParent]
		if op.left == sibling {
			op.left = newParent
		} else {
			op.right = newParent
		}
	}

	t.fixupAncestors(newParent)
}

func (t *DynamicTree) childCost(child int, leafAABB AABB) float64 {
	n := t.nodes[child]
	merged := n.aabb.Union(leafAABB)
	if n.leaf {
		return merged.Perimeter()
	}
	return merged.Perimeter() - n.aabb.Perimeter()
}

// fixupAncestors re-fits each ancestor's AABB and performs one local
// rotation per level if it improves total perimeter (the
// surface-area-heuristic rotation spec.md §4.1 calls for).
func (t *DynamicTree) fixupAncestors(node int) {
	for node != nullNode {
		node = t.rotate(node)
		n := &t.nodes[node]
		n.aabb = t.nodes[n.left].aabb.Union(t.nodes[n.right].aabb)
		node = n.parent
	}
}

// rotate tries swapping node's children with its sibling's children to
// reduce total perimeter; it is allowed to leave minor imbalance rather
// than chase a perfect tree (spec.md §4.1 "removals are allowed to
// leave minor imbalance").
func (t *DynamicTree) rotate(node int) int {
	n := t.nodes[node]
	if n.leaf || n.parent == nullNode {
		return node
	}
	// Only a shallow, cheap local rotation is attempted: swap node's right
	// child with its sibling's right child if doing so reduces the summed
	// perimeters of node and sibling.
	parent := n.parent
	p := t.nodes[parent]
	var sibling int
	if p.left == node {
		sibling = p.right
	} else {
		sibling = p.left
	}
	if t.nodes[sibling].leaf {
		return node
	}
	sib := t.nodes[sibling]
	currentCost := t.nodes[n.left].aabb.Union(t.nodes[n.right].aabb).Perimeter() +
		t.nodes[sib.left].aabb.Union(t.nodes[sib.right].aabb).Perimeter()
	swappedCost := t.nodes[n.left].aabb.Union(t.nodes[sib.right].aabb).Perimeter() +
		t.nodes[sib.left].aabb.Union(t.nodes[n.right].aabb).Perimeter()
	if swappedCost+1e-9 < currentCost {
		t.nodes[node].right, t.nodes[sibling].right = t.nodes[sibling].right, t.nodes[node].right
		t.nodes[t.nodes[node].right].parent = node
		t.nodes[t.nodes[sibling].right].parent = sibling
		t.nodes[sibling].aabb = t.nodes[sib.left].aabb.Union(t.nodes[t.nodes[sibling].right].aabb)
	}
	return node
}

func (t *DynamicTree) removeLeaf(leaf int) {
	if leaf == t.root {
		t.root = nullNode
		return
	}
	parent := t.nodes[leaf].parent
	grandparent := t.nodes[parent].parent
	var sibling int
	if t.nodes[parent].left == leaf {
		sibling = t.nodes[parent].right
	} else {
		sibling = t.nodes[parent].left
	}

	if grandparent == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
	} else {
		gp := &t.nodes[grandparent]
		if gp.left == parent {
			gp.left = sibling
		} else {
			gp.right = sibling
		}
		t.nodes[sibling].parent = grandparent
		t.fixupAncestors(grandparent)
	}
	t.freeNode(parent)
}

// Remove deletes item from the tree.
func (t *DynamicTree) Remove(item BroadphaseItem) {
	id, ok := t.index[item]
	if !ok {
		return
	}
	t.removeLeaf(id)
	t.freeNode(id)
	delete(t.index, item)
}

// RemoveBody removes every fixture of body currently tracked.
func (t *DynamicTree) RemoveBody(body *Body) {
	for item := range t.index {
		if item.Body == body {
			t.Remove(item)
		}
	}
}

// Update re-fits any node whose tight AABB no longer fits its stored
// fat AABB: remove + reinsert with a fresh inflation (spec.md §4.1).
// Each item's tight AABB is computed here from its fixture's shape under
// the body's current transform.
func (t *DynamicTree) Update() {
	for item, id := range t.index {
		n := &t.nodes[id]
		tight := item.Fixture.AABB(item.Body.Transform())
		if n.aabb.Contains(tight) {
			n.updated = false
			continue
		}
		t.removeLeaf(id)
		n.aabb = tight.Expand(t.margin)
		n.updated = true
		t.insertLeaf(id)
		t.updatedAt = append(t.updatedAt, item)
	}
}

// Clear empties the tree.
func (t *DynamicTree) Clear() {
	t.nodes = nil
	t.free = nil
	t.root = nullNode
	t.index = map[BroadphaseItem]int{}
	t.updatedAt = nil
}

// Shift translates every AABB in the tree by v (spec.md §4.1 `shift(v)`,
// long-range coordinate renormalization).
func (t *DynamicTree) Shift(v Vec2) {
	for i := range t.nodes {
		if t.nodes[i].parent != nullNode || i == t.root {
			t.nodes[i].aabb = t.nodes[i].aabb.Shift(v)
		}
	}
}

// DetectPairs enumerates candidate overlapping pairs, restricted to
// pairs touching a node flagged "updated this tick" (spec.md §4.1
// `detect_iter`, §9 "the whole mechanism for avoiding stale-pair rework").
func (t *DynamicTree) DetectPairs() []BroadphasePair {
	var pairs []BroadphasePair
	seen := map[[2]BroadphaseItem]bool{}
	for _, item := range t.updatedAt {
		id, ok := t.index[item]
		if !ok {
			continue
		}
		leafAABB := t.nodes[id].aabb
		t.query(t.root, leafAABB, func(other int) {
			if other == id {
				return
			}
			otherItem := t.nodes[other].item
			key := pairKeyItems(item, otherItem)
			if seen[key] {
				return
			}
			seen[key] = true
			pairs = append(pairs, BroadphasePair{A: item, B: otherItem})
		})
	}
	return pairs
}

func pairKeyItems(a, b BroadphaseItem) [2]BroadphaseItem {
	if a.Body == b.Body {
		if a.Fixture == b.Fixture {
			return [2]BroadphaseItem{a, b}
		}
	}
	// Order independent of argument order, matching spec.md §9's
	// unordered-pair storage requirement.
	if ptrLess(a, b) {
		return [2]BroadphaseItem{a, b}
	}
	return [2]BroadphaseItem{b, a}
}

func ptrLess(a, b BroadphaseItem) bool {
	if a.Body != b.Body {
		return bodyLess(a.Body, b.Body)
	}
	return fixtureLess(a.Fixture, b.Fixture)
}

// ClearUpdates clears every node's updated flag, called at pipeline end.
func (t *DynamicTree) ClearUpdates() {
	for i := range t.nodes {
		t.nodes[i].updated = false
	}
	t.updatedAt = nil
}

// IsUpdated reports whether item's node was (re)inserted this tick.
func (t *DynamicTree) IsUpdated(item BroadphaseItem) bool {
	id, ok := t.index[item]
	if !ok {
		return false
	}
	return t.nodes[id].updated
}

// Contains reports whether item is tracked.
func (t *DynamicTree) Contains(item BroadphaseItem) bool {
	_, ok := t.index[item]
	return ok
}

// GetAABB returns item's stored fat AABB.
func (t *DynamicTree) GetAABB(item BroadphaseItem) (AABB, bool) {
	id, ok := t.index[item]
	if !ok {
		return AABB{}, false
	}
	return t.nodes[id].aabb, true
}

// QueryAABB returns every tracked item whose fat AABB overlaps aabb.
func (t *DynamicTree) QueryAABB(aabb AABB) []BroadphaseItem {
	var out []BroadphaseItem
	t.query(t.root, aabb, func(id int) {
		out = append(out, t.nodes[id].item)
	})
	return out
}

func (t *DynamicTree) query(node int, aabb AABB, visit func(leaf int)) {
	if node == nullNode {
		return
	}
	n := t.nodes[node]
	if !n.aabb.Overlaps(aabb) {
		return
	}
	if n.leaf {
		visit(node)
		return
	}
	t.query(n.left, aabb, visit)
	t.query(n.right, aabb, visit)
}

// RayCast returns every tracked item whose fat AABB the ray (origin,
// dir) intersects within [0, maxLen] of dir's length.
func (t *DynamicTree) RayCast(origin, dir Vec2, maxLen float64) []BroadphaseItem {
	var out []BroadphaseItem
	var walk func(node int)
	walk = func(node int) {
		if node == nullNode {
			return
		}
		n := t.nodes[node]
		if _, hit := n.aabb.RayCast(origin, dir, maxLen); !hit {
			return
		}
		if n.leaf {
			out = append(out, n.item)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	return out
}
