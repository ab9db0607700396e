package netlist

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
)

// Severity separates blocking errors from advisory warnings.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "WARNING"
	}
	return "ERROR"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// Code classifies an issue.
type Code string

const (
	CodeMissingGround Code = "missing-ground"
	CodeMissingSource Code = "missing-source"
	CodeFloatingPin   Code = "floating-pin"
	CodeValueParse    Code = "value-parse"
	CodeInvalidValue  Code = "invalid-value"
	CodeShortCircuit  Code = "short-circuit"
	// CodeDefaultValue is only raised for components whose value was
	// cleared after construction; NewComponent seeds the model default.
	CodeDefaultValue      Code = "default-value"
	CodeUnitMismatch      Code = "unit-mismatch"
	CodeUnconnectedGround Code = "unconnected-ground"
	CodeDanglingWire      Code = "dangling-wire"
)

// Issue is one validation finding. Issues are data, never Go errors.
type Issue struct {
	Severity  Severity `json:"severity"`
	Code      Code     `json:"code"`
	Component string   `json:"component,omitempty"`
	Message   string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

type validator struct {
	issues []Issue
}

func (v *validator) add(s Severity, code Code, component, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Severity:  s,
		Code:      code,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	})
}

// ground warns when the ground rail touches nothing but ground symbols.
func (v *validator) ground(res *connectivity.Result, comps []*circuit.Component) {
	if !res.HasGround {
		return
	}
	kinds := make(map[circuit.ComponentID]circuit.Kind, len(comps))
	for _, c := range comps {
		kinds[c.ID] = c.Kind
	}
	for _, p := range res.NodeToPins[res.Ground] {
		id, _ := p.Split()
		if kinds[id] != circuit.Ground {
			return
		}
	}
	v.add(Warning, CodeUnconnectedGround, "", "ground is not connected to any component")
}

type sourceEdge struct {
	name string
	p, n int64
	v    float64
}

// shorts reports voltage sources whose demands cannot all hold once nodes
// joined by zero-impedance paths are merged.
func (v *validator) shorts(entries []Entry) {
	g := simple.NewUndirectedGraph()
	ensure := func(id connectivity.NodeID) {
		if g.Node(int64(id)) == nil {
			g.AddNode(simple.Node(id))
		}
	}
	for _, e := range entries {
		ensure(e.Nodes[0])
		ensure(e.Nodes[1])
		if e.Kind == circuit.Switch && e.Value <= ClosedSwitchOhms && e.Nodes[0] != e.Nodes[1] {
			g.SetEdge(g.NewEdge(simple.Node(e.Nodes[0]), simple.Node(e.Nodes[1])))
		}
	}

	super := make(map[int64]int64)
	for _, comp := range topo.ConnectedComponents(g) {
		rep := comp[0].ID()
		for _, n := range comp {
			rep = min(rep, n.ID())
		}
		for _, n := range comp {
			super[n.ID()] = rep
		}
	}

	var edges []sourceEdge
	for _, e := range entries {
		if e.Kind != circuit.VoltageSource {
			continue
		}
		p, n := super[int64(e.Nodes[0])], super[int64(e.Nodes[1])]
		if p == n {
			if e.Value != 0 {
				v.add(Error, CodeShortCircuit, e.Name, "voltage source %q is shorted by a zero-impedance path", e.Name)
			}
			continue
		}
		edges = append(edges, sourceEdge{name: e.Name, p: p, n: n, v: e.Value})
	}

	adj := make(map[int64][]int)
	for i, e := range edges {
		adj[e.p] = append(adj[e.p], i)
		adj[e.n] = append(adj[e.n], i)
	}
	potential := make(map[int64]float64)
	for _, start := range edges {
		if _, seen := potential[start.p]; seen {
			continue
		}
		potential[start.p] = 0
		queue := []int64{start.p}
		group := make(map[string]bool)
		conflict := false
		for len(queue) > 0 {
			x := queue[0]
			queue = queue[1:]
			for _, i := range adj[x] {
				e := edges[i]
				group[e.name] = true
				other, want := e.n, potential[x]-e.v
				if x == e.n {
					other, want = e.p, potential[x]+e.v
				}
				got, seen := potential[other]
				if !seen {
					potential[other] = want
					queue = append(queue, other)
					continue
				}
				if math.Abs(got-want) > 1e-9*math.Max(1, math.Abs(want)) {
					conflict = true
				}
			}
		}
		if conflict {
			names := make([]string, 0, len(group))
			for n := range group {
				names = append(names, n)
			}
			sort.Strings(names)
			v.add(Error, CodeShortCircuit, names[0], "voltage sources %s demand conflicting voltages across the same nodes", strings.Join(names, ", "))
		}
	}
}
