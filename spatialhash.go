package physics

import "math"

// SpatialHash is the alternate broad-phase detector exercised via
// World.SetBroadphaseDetector, mirroring the teacher's own
// `Space.UseSpatialHash(dim, count)` — a uniform-grid detector offered
// alongside the tree for scenes with roughly uniform fixture sizes.
type SpatialHash struct {
	cellSize float64
	margin   float64
	cells    map[[2]int]map[BroadphaseItem]bool
	aabbs    map[BroadphaseItem]AABB
	updated  map[BroadphaseItem]bool
	order    []BroadphaseItem
}

// NewSpatialHash creates a hash with the given uniform cell size.
func NewSpatialHash(cellSize float64) *SpatialHash {
	return &SpatialHash{
		cellSize: cellSize,
		margin:   defaultFatAABBMargin,
		cells:    map[[2]int]map[BroadphaseItem]bool{},
		aabbs:    map[BroadphaseItem]AABB{},
		updated:  map[BroadphaseItem]bool{},
	}
}

func (h *SpatialHash) cellCoords(p Vec2) [2]int {
	return [2]int{int(math.Floor(p[0] / h.cellSize)), int(math.Floor(p[1] / h.cellSize))}
}

func (h *SpatialHash) cellsFor(aabb AABB) [][2]int {
	min := h.cellCoords(aabb.Min)
	max := h.cellCoords(aabb.Max)
	var cells [][2]int
	for x := min[0]; x <= max[0]; x++ {
		for y := min[1]; y <= max[1]; y++ {
			cells = append(cells, [2]int{x, y})
		}
	}
	return cells
}

func (h *SpatialHash) insertCells(item BroadphaseItem, aabb AABB) {
	for _, c := range h.cellsFor(aabb) {
		bucket := h.cells[c]
		if bucket == nil {
			bucket = map[BroadphaseItem]bool{}
			h.cells[c] = bucket
		}
		bucket[item] = true
	}
}

func (h *SpatialHash) removeCells(item BroadphaseItem, aabb AABB) {
	for _, c := range h.cellsFor(aabb) {
		if bucket := h.cells[c]; bucket != nil {
			delete(bucket, item)
			if len(bucket) == 0 {
				delete(h.cells, c)
			}
		}
	}
}

// Add inserts item with an inflated fat AABB.
func (h *SpatialHash) Add(item BroadphaseItem, aabb AABB) {
	fat := aabb.Expand(h.margin)
	h.aabbs[item] = fat
	h.insertCells(item, fat)
	h.updated[item] = true
	h.order = append(h.order, item)
}

// Remove deletes item from the hash.
func (h *SpatialHash) Remove(item BroadphaseItem) {
	if aabb, ok := h.aabbs[item]; ok {
		h.removeCells(item, aabb)
		delete(h.aabbs, item)
		delete(h.updated, item)
	}
}

// RemoveBody removes every fixture belonging to body.
func (h *SpatialHash) RemoveBody(body *Body) {
	for item := range h.aabbs {
		if item.Body == body {
			h.Remove(item)
		}
	}
}

// Update re-fits any item whose tight AABB escaped its fat AABB.
func (h *SpatialHash) Update() {
	for item, fat := range h.aabbs {
		tight := item.Fixture.AABB(item.Body.Transform())
		if fat.Contains(tight) {
			continue
		}
		h.removeCells(item, fat)
		newFat := tight.Expand(h.margin)
		h.aabbs[item] = newFat
		h.insertCells(item, newFat)
		h.updated[item] = true
		h.order = append(h.order, item)
	}
}

// Clear empties the hash.
func (h *SpatialHash) Clear() {
	h.cells = map[[2]int]map[BroadphaseItem]bool{}
	h.aabbs = map[BroadphaseItem]AABB{}
	h.updated = map[BroadphaseItem]bool{}
	h.order = nil
}

// Shift translates every stored AABB by v and rebuilds the grid buckets.
func (h *SpatialHash) Shift(v Vec2) {
	shifted := map[BroadphaseItem]AABB{}
	for item, aabb := range h.aabbs {
		shifted[item] = aabb.Shift(v)
	}
	h.cells = map[[2]int]map[BroadphaseItem]bool{}
	h.aabbs = shifted
	for item, aabb := range h.aabbs {
		h.insertCells(item, aabb)
	}
}

// DetectPairs enumerates candidate pairs sharing a grid cell, restricted
// to items touched this tick.
func (h *SpatialHash) DetectPairs() []BroadphasePair {
	var pairs []BroadphasePair
	seen := map[[2]BroadphaseItem]bool{}
	for _, item := range h.order {
		aabb, ok := h.aabbs[item]
		if !ok {
			continue
		}
		for _, c := range h.cellsFor(aabb) {
			for other := range h.cells[c] {
				if other == item {
					continue
				}
				if !aabb.Overlaps(h.aabbs[other]) {
					continue
				}
				key := pairKeyItems(item, other)
				if seen[key] {
					continue
				}
				seen[key] = true
				pairs = append(pairs, BroadphasePair{A: item, B: other})
			}
		}
	}
	return pairs
}

// ClearUpdates clears the per-tick updated flags.
func (h *SpatialHash) ClearUpdates() {
	h.updated = map[BroadphaseItem]bool{}
	h.order = nil
}

// IsUpdated reports whether item was added or re-fit this tick.
func (h *SpatialHash) IsUpdated(item BroadphaseItem) bool { return h.updated[item] }

// Contains reports whether item is tracked.
func (h *SpatialHash) Contains(item BroadphaseItem) bool {
	_, ok := h.aabbs[item]
	return ok
}

// GetAABB returns item's stored fat AABB.
func (h *SpatialHash) GetAABB(item BroadphaseItem) (AABB, bool) {
	aabb, ok := h.aabbs[item]
	return aabb, ok
}

// QueryAABB returns every tracked item overlapping aabb.
func (h *SpatialHash) QueryAABB(aabb AABB) []BroadphaseItem {
	seen := map[BroadphaseItem]bool{}
	var out []BroadphaseItem
	for _, c := range h.cellsFor(aabb) {
		for item := range h.cells[c] {
			if seen[item] {
				continue
			}
			if h.aabbs[item].Overlaps(aabb) {
				seen[item] = true
				out = append(out, item)
			}
		}
	}
	return out
}

// RayCast returns every tracked item whose fat AABB the ray intersects.
func (h *SpatialHash) RayCast(origin, dir Vec2, maxLen float64) []BroadphaseItem {
	var out []BroadphaseItem
	for item, aabb := range h.aabbs {
		if _, hit := aabb.RayCast(origin, dir, maxLen); hit {
			out = append(out, item)
		}
	}
	return out
}
