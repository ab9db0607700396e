package connectivity

import (
	"testing"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

func add(t *testing.T, reg *circuit.Registry, kind circuit.Kind, name string) *circuit.Component {
	t.Helper()
	c, err := reg.NewComponent(kind, circuit.Cell{}, 0, name)
	if err != nil {
		t.Fatalf("NewComponent(%s) failed: %v", name, err)
	}
	if err := reg.Insert(c); err != nil {
		t.Fatalf("Insert(%s) failed: %v", name, err)
	}
	return c
}

func connect(t *testing.T, reg *circuit.Registry, a *circuit.Component, ap int, b *circuit.Component, bp int) *circuit.Wire {
	t.Helper()
	w, err := reg.NewWire(circuit.Endpoint{Component: a.ID, Pin: ap}, circuit.Endpoint{Component: b.ID, Pin: bp})
	if err != nil {
		t.Fatalf("NewWire failed: %v", err)
	}
	if err := reg.InsertWire(w); err != nil {
		t.Fatalf("InsertWire failed: %v", err)
	}
	return w
}

func TestSingletons(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	r := add(t, reg, circuit.Resistor, "R1")

	res := Resolve(reg.Components(), reg.Wires())
	if res.HasGround {
		t.Error("no ground components, HasGround should be false")
	}
	if len(res.Nodes()) != 2 {
		t.Fatalf("expected 2 singleton nodes, got %v", res.Nodes())
	}
	n0, _ := res.NodeOf(r.ID, 0)
	n1, _ := res.NodeOf(r.ID, 1)
	if n0 != 1 || n1 != 2 {
		t.Errorf("nodes = %d,%d, want 1,2", n0, n1)
	}
	if !res.Singleton(n0) || !res.Singleton(n1) {
		t.Error("unwired pins should be singletons")
	}
}

func TestWireJoinsAndSeparates(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	v := add(t, reg, circuit.VoltageSource, "V1")
	r := add(t, reg, circuit.Resistor, "R1")
	a, b := v.Pins[0].ID, r.Pins[0].ID

	if Resolve(reg.Components(), reg.Wires()).Connected(a, b) {
		t.Fatal("pins connected before any wire")
	}

	w := connect(t, reg, v, 0, r, 0)
	if !Resolve(reg.Components(), reg.Wires()).Connected(a, b) {
		t.Fatal("wire should join both pins into one node")
	}

	if _, err := reg.RemoveWire(w.ID); err != nil {
		t.Fatalf("RemoveWire failed: %v", err)
	}
	if Resolve(reg.Components(), reg.Wires()).Connected(a, b) {
		t.Error("removing the only wire should separate the pins")
	}
}

func TestTransitiveConnection(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	v := add(t, reg, circuit.VoltageSource, "V1")
	r1 := add(t, reg, circuit.Resistor, "R1")
	r2 := add(t, reg, circuit.Resistor, "R2")
	connect(t, reg, v, 0, r1, 0)
	connect(t, reg, v, 0, r2, 0)

	res := Resolve(reg.Components(), reg.Wires())
	if !res.Connected(r1.Pins[0].ID, r2.Pins[0].ID) {
		t.Error("fan-out pins should share a node")
	}
	n, _ := res.NodeOf(v.ID, 0)
	if got := len(res.NodeToPins[n]); got != 3 {
		t.Errorf("node %d holds %d pins, want 3", n, got)
	}
}

func TestGroundsMerge(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	v := add(t, reg, circuit.VoltageSource, "V1")
	r := add(t, reg, circuit.Resistor, "R1")
	g1 := add(t, reg, circuit.Ground, "GND1")
	g2 := add(t, reg, circuit.Ground, "GND2")
	connect(t, reg, v, 1, g1, 0)
	connect(t, reg, r, 1, g2, 0)

	res := Resolve(reg.Components(), reg.Wires())
	if !res.HasGround || res.Ground != GroundNode {
		t.Fatalf("ground = %d,%v, want %d,true", res.Ground, res.HasGround, GroundNode)
	}
	for _, p := range []circuit.PinID{g1.Pins[0].ID, g2.Pins[0].ID, v.Pins[1].ID, r.Pins[1].ID} {
		if n := res.PinToNode[p]; n != GroundNode {
			t.Errorf("pin %d on node %d, want ground", p, n)
		}
	}
}

func TestUnwiredGroundsMerge(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	g1 := add(t, reg, circuit.Ground, "GND1")
	g2 := add(t, reg, circuit.Ground, "GND2")

	res := Resolve(reg.Components(), reg.Wires())
	if !res.Connected(g1.Pins[0].ID, g2.Pins[0].ID) {
		t.Error("ground symbols should always share one node")
	}
}

func TestDeterministicNumbering(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	v := add(t, reg, circuit.VoltageSource, "V1")
	r1 := add(t, reg, circuit.Resistor, "R1")
	r2 := add(t, reg, circuit.Resistor, "R2")
	g := add(t, reg, circuit.Ground, "GND1")
	connect(t, reg, r2, 0, r1, 1)
	connect(t, reg, v, 0, r1, 0)
	connect(t, reg, r2, 1, g, 0)
	connect(t, reg, v, 1, g, 0)

	first := Resolve(reg.Components(), reg.Wires())
	for i := 0; i < 5; i++ {
		again := Resolve(reg.Components(), reg.Wires())
		if !again.Equal(first) {
			t.Fatalf("resolution %d numbered nodes differently", i)
		}
	}

	// reversed input order must not change numbering
	comps := reg.Components()
	wires := reg.Wires()
	for i, j := 0, len(comps)-1; i < j; i, j = i+1, j-1 {
		comps[i], comps[j] = comps[j], comps[i]
	}
	for i, j := 0, len(wires)-1; i < j; i, j = i+1, j-1 {
		wires[i], wires[j] = wires[j], wires[i]
	}
	if !Resolve(comps, wires).Equal(first) {
		t.Error("numbering depends on input order")
	}

	// V1.pos holds the smallest non-ground pin id
	if n, _ := first.NodeOf(v.ID, 0); n != 1 {
		t.Errorf("V1.pos on node %d, want 1", n)
	}
	if n, _ := first.NodeOf(r1.ID, 1); n != 2 {
		t.Errorf("R1.out on node %d, want 2", n)
	}
}

func TestDanglingWire(t *testing.T) {
	reg := circuit.NewRegistry(nil)
	v := add(t, reg, circuit.VoltageSource, "V1")
	r := add(t, reg, circuit.Resistor, "R1")
	w := connect(t, reg, v, 0, r, 0)

	res := Resolve([]*circuit.Component{v}, []*circuit.Wire{w})
	if len(res.Dangling) != 1 || res.Dangling[0] != w.ID {
		t.Errorf("Dangling = %v, want [%d]", res.Dangling, w.ID)
	}
}
