package physics

// graph.go implements spec.md §4.6: the constraint graph and island
// extraction by DFS flood fill, with static bodies acting as
// non-propagating cut vertices. Grounded on the teacher's
// `FloodFillComponent`/`ComponentActive`/`ProcessComponents` in
// space.go, generalized from Chipmunk's shape-level graph to the
// spec's body-level `ConstraintGraphNode`.
//
// Open question (spec.md §9): only the `ConstraintGraphNode` form is
// implemented; the vestigial `InteractionGraphNode` is not carried over.

// graphEdge is one constraint-graph edge: either a contact constraint
// or a joint, connecting exactly two bodies.
type graphEdge struct {
	other      *Body
	contact    *ContactConstraint
	joint      Joint
}

// ConstraintGraphNode is one body's adjacency list in the constraint
// graph rebuilt fresh every step from the current contact constraints
// and joints (spec.md §4.6).
type ConstraintGraphNode struct {
	body  *Body
	edges []graphEdge
}

// constraintGraph is the full adjacency-list graph over every enabled,
// non-static body that currently participates in at least one edge.
type constraintGraph struct {
	nodes map[*Body]*ConstraintGraphNode
}

func newConstraintGraph() *constraintGraph {
	return &constraintGraph{nodes: map[*Body]*ConstraintGraphNode{}}
}

func (g *constraintGraph) nodeFor(b *Body) *ConstraintGraphNode {
	n, ok := g.nodes[b]
	if !ok {
		n = &ConstraintGraphNode{body: b}
		g.nodes[b] = n
	}
	return n
}

// addContactEdge wires cc into the graph, skipping static endpoints as
// propagation sources — a static body still anchors an edge but never
// grows its own node, which is precisely the cut-vertex behavior spec.md
// §4.6 calls for and closes the double-integration hole noted in §9.
func (g *constraintGraph) addContactEdge(cc *ContactConstraint) {
	if !cc.Enabled {
		return
	}
	g.addEdge(cc.Body1, cc.Body2, graphEdge{contact: cc})
}

func (g *constraintGraph) addJointEdge(j Joint) {
	if !j.IsEnabled() {
		return
	}
	g.addEdge(j.Body1(), j.Body2(), graphEdge{joint: j})
}

func (g *constraintGraph) addEdge(b1, b2 *Body, e graphEdge) {
	if b1 == nil || b2 == nil {
		return
	}
	if !b1.IsStatic() {
		n1 := g.nodeFor(b1)
		e1 := e
		e1.other = b2
		n1.edges = append(n1.edges, e1)
	}
	if !b2.IsStatic() {
		n2 := g.nodeFor(b2)
		e2 := e
		e2.other = b1
		n2.edges = append(n2.edges, e2)
	}
}

// Island is one connected component of the constraint graph: a set of
// bodies that must be solved together (spec.md §4.6).
type Island struct {
	Bodies      []*Body
	Contacts    []*ContactConstraint
	Joints      []Joint
}

// extractIslands partitions the graph into islands via DFS flood fill,
// matching the teacher's `FloodFillComponent` traversal. Static bodies
// never appear as Island members (they have no node), so a DFS never
// crosses through one — the invariant spec.md §9 asks be enforced
// structurally rather than with a runtime type check in the solver.
func (g *constraintGraph) extractIslands() []*Island {
	visited := map[*Body]bool{}
	var islands []*Island

	for root := range g.nodes {
		if visited[root] {
			continue
		}
		island := &Island{}
		seenContacts := map[*ContactConstraint]bool{}
		seenJoints := map[Joint]bool{}
		stack := []*Body{root}
		visited[root] = true
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			island.Bodies = append(island.Bodies, b)
			node := g.nodes[b]
			for _, e := range node.edges {
				if e.contact != nil && !seenContacts[e.contact] {
					seenContacts[e.contact] = true
					island.Contacts = append(island.Contacts, e.contact)
				}
				if e.joint != nil && !seenJoints[e.joint] {
					seenJoints[e.joint] = true
					island.Joints = append(island.Joints, e.joint)
				}
				if !e.other.IsStatic() && !visited[e.other] {
					visited[e.other] = true
					stack = append(stack, e.other)
				}
			}
		}
		islands = append(islands, island)
	}
	return islands
}

// isAtRest reports whether every body in the island is below the sleep
// speed tolerances and has accumulated at least minAtRestTime
// (spec.md §4.7 phase 7 "island-wide sleep decision").
func (isl *Island) isAtRest(linTol, angTol, minAtRestTime float64) bool {
	for _, b := range isl.Bodies {
		if !b.AutoSleep || b.IsKinematic() {
			return false
		}
		if !sleepSpeedOK(b, linTol, angTol) {
			return false
		}
		if b.restTime < minAtRestTime {
			return false
		}
	}
	return true
}

func (isl *Island) sleep() {
	for _, b := range isl.Bodies {
		b.sleep()
	}
}
