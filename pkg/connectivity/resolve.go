// Package connectivity derives electrical nodes from wiring.
//
// Every pin starts in its own set; each wire merges the sets of its two
// endpoints using union-find. All pins of Ground components are merged into
// one canonical rail whether or not they are wired together, so several
// ground symbols always form a single reference node.
//
// # Node numbering
//
// The ground rail, when present, is node 0. Every other set is numbered from
// 1 in increasing order of the smallest pin id it contains. Pin ids are
// stable, so resolving an unchanged graph always yields the same numbering.
//
// A pin with no wires forms a singleton node. That is not an error here; the
// netlist package reports it as a floating pin.
package connectivity

import (
	"sort"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

// NodeID numbers an electrical node.
type NodeID int

// GroundNode is the id of the canonical ground rail.
const GroundNode NodeID = 0

// Result is the outcome of one resolution.
type Result struct {
	PinToNode  map[circuit.PinID]NodeID
	NodeToPins map[NodeID][]circuit.PinID // pins sorted ascending
	Ground     NodeID
	HasGround  bool
	// Dangling lists wires with an endpoint outside the resolved components.
	// The registry prevents these; they are reported rather than resolved.
	Dangling []circuit.WireID
}

// unionFind is a disjoint-set forest over pin ids.
type unionFind struct {
	parent map[circuit.PinID]circuit.PinID
	rank   map[circuit.PinID]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[circuit.PinID]circuit.PinID),
		rank:   make(map[circuit.PinID]int),
	}
}

func (u *unionFind) add(p circuit.PinID) {
	if _, ok := u.parent[p]; !ok {
		u.parent[p] = p
		u.rank[p] = 0
	}
}

func (u *unionFind) has(p circuit.PinID) bool {
	_, ok := u.parent[p]
	return ok
}

// find returns the root of p's set, compressing the path behind it.
func (u *unionFind) find(p circuit.PinID) circuit.PinID {
	root := p
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for p != root {
		next := u.parent[p]
		u.parent[p] = root
		p = next
	}
	return root
}

// union merges the sets of a and b by rank.
func (u *unionFind) union(a, b circuit.PinID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// Resolve groups the pins of components into electrical nodes joined by
// wires. It does not modify its inputs.
func Resolve(components []*circuit.Component, wires []*circuit.Wire) *Result {
	uf := newUnionFind()
	var grounds []circuit.PinID
	for _, c := range components {
		for _, p := range c.Pins {
			uf.add(p.ID)
			if c.Kind == circuit.Ground {
				grounds = append(grounds, p.ID)
			}
		}
	}

	res := &Result{
		PinToNode:  make(map[circuit.PinID]NodeID),
		NodeToPins: make(map[NodeID][]circuit.PinID),
	}

	for _, w := range wires {
		a, b := w.From.PinID(), w.To.PinID()
		if !uf.has(a) || !uf.has(b) {
			res.Dangling = append(res.Dangling, w.ID)
			continue
		}
		uf.union(a, b)
	}
	for i := 1; i < len(grounds); i++ {
		uf.union(grounds[0], grounds[i])
	}

	sets := make(map[circuit.PinID][]circuit.PinID)
	for p := range uf.parent {
		root := uf.find(p)
		sets[root] = append(sets[root], p)
	}

	var groundRoot circuit.PinID
	if len(grounds) > 0 {
		groundRoot = uf.find(grounds[0])
		res.HasGround = true
		res.Ground = GroundNode
	}

	ordered := make([][]circuit.PinID, 0, len(sets))
	for root, pins := range sets {
		sort.Slice(pins, func(i, j int) bool { return pins[i] < pins[j] })
		if res.HasGround && root == groundRoot {
			res.assign(GroundNode, pins)
			continue
		}
		ordered = append(ordered, pins)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i][0] < ordered[j][0] })
	for i, pins := range ordered {
		res.assign(NodeID(i+1), pins)
	}
	return res
}

func (r *Result) assign(id NodeID, pins []circuit.PinID) {
	r.NodeToPins[id] = pins
	for _, p := range pins {
		r.PinToNode[p] = id
	}
}

// NodeOf returns the node of pin index on component id.
func (r *Result) NodeOf(id circuit.ComponentID, index int) (NodeID, bool) {
	n, ok := r.PinToNode[circuit.MakePinID(id, index)]
	return n, ok
}

// Nodes returns every node id in ascending order.
func (r *Result) Nodes() []NodeID {
	out := make([]NodeID, 0, len(r.NodeToPins))
	for id := range r.NodeToPins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Singleton reports whether node id contains exactly one pin.
func (r *Result) Singleton(id NodeID) bool {
	return len(r.NodeToPins[id]) == 1
}

// Connected reports whether two pins share a node.
func (r *Result) Connected(a, b circuit.PinID) bool {
	na, ok := r.PinToNode[a]
	if !ok {
		return false
	}
	nb, ok := r.PinToNode[b]
	return ok && na == nb
}

// Equal reports whether two results assign every pin to the same node id.
func (r *Result) Equal(other *Result) bool {
	if r.HasGround != other.HasGround || len(r.PinToNode) != len(other.PinToNode) {
		return false
	}
	for p, n := range r.PinToNode {
		if on, ok := other.PinToNode[p]; !ok || on != n {
			return false
		}
	}
	return true
}
