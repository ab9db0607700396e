package script

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/project"
)

const blinky = `# source, resistor, LED and switch
place source V1 at 0,0 value 9V
place resistor R1 at 2,0 value "4.7k"
place led D1 at 6,0
place switch S1 at 6,4
place ground GND1 at 0,6

connect V1.pos R1.in via 1,0
connect R1.out D1.anode
connect D1.cathode S1.in via 8,0 8,4
connect S1.out GND1.gnd
connect V1.neg GND1.0
toggle S1
`

func mustComponent(t *testing.T, s *project.Session, name string) *circuit.Component {
	t.Helper()
	c, ok := s.Document().Registry.ComponentByName(name)
	if !ok {
		t.Fatalf("component %s not found", name)
	}
	return c
}

func TestRunBlinky(t *testing.T) {
	s := project.NewSession()
	n, err := Run(s, blinky)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 11 {
		t.Errorf("executed %d statements, want 11", n)
	}

	nl := s.Build()
	if !nl.Valid() {
		t.Fatalf("netlist invalid: %v", nl.Issues)
	}
	if e, ok := nl.Entry("R1"); !ok || e.Value != 4700 {
		t.Errorf("R1 entry = %+v, %v", e, ok)
	}
	if !mustComponent(t, s, "S1").Closed {
		t.Error("toggle should close S1")
	}

	res := s.Resolve()
	v1, r1 := mustComponent(t, s, "V1"), mustComponent(t, s, "R1")
	if !res.Connected(v1.Pins[0].ID, r1.Pins[0].ID) {
		t.Error("V1.pos and R1.in should share a node")
	}
	if node, _ := res.NodeOf(v1.ID, 1); node != res.Ground {
		t.Errorf("V1.neg on node %d, want ground", node)
	}
	if got := len(s.Document().Registry.Wires()[2].Bends); got != 2 {
		t.Errorf("third wire has %d bends, want 2", got)
	}
}

func TestRunStopsAtFailingStatement(t *testing.T) {
	s := project.NewSession()
	src := "place resistor R1 at 1,1\nplace resistor R2 at 1,3\nplace resistor R3 at 2,1\nplace resistor R4 at 1,5\n"

	n, err := Run(s, src)
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if serr.Line != 3 {
		t.Errorf("failed on line %d, want 3", serr.Line)
	}
	if !errors.Is(err, circuit.ErrPlacementConflict) {
		t.Errorf("got %v, want ErrPlacementConflict", err)
	}
	if n != 2 {
		t.Errorf("executed %d statements, want 2", n)
	}
	if got := len(s.Document().Registry.Components()); got != 2 {
		t.Errorf("%d components placed, want 2", got)
	}
	if s.History().Len() != 2 {
		t.Errorf("history has %d entries, want 2", s.History().Len())
	}
}

func TestRunParseErrorExecutesNothing(t *testing.T) {
	s := project.NewSession()

	n, err := Run(s, "place resistor R1 at 1,1\nconnect R1.in\n")
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if serr.Line != 2 {
		t.Errorf("parse error on line %d, want 2", serr.Line)
	}
	if n != 0 || len(s.Document().Registry.Components()) != 0 {
		t.Error("nothing should run when the script does not parse")
	}
}

func TestRunUndoRedo(t *testing.T) {
	s := project.NewSession()

	if _, err := Run(s, "undo; place resistor R1 at 1,1; undo"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(s.Document().Registry.Components()); got != 0 {
		t.Fatalf("%d components after undo, want 0", got)
	}
	if _, err := Run(s, "redo\nredo\n"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	mustComponent(t, s, "R1")
}

func TestRunEditCommands(t *testing.T) {
	s := project.NewSession()
	if _, err := Run(s, blinky); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	src := `
move R1 to 2,10
rotate D1 by 180
set R1 10kΩ
rename R1 R9
toggle S1
disconnect D1.cathode S1.in
delete GND1
`
	if _, err := Run(s, src); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	r9 := mustComponent(t, s, "R9")
	if r9.Pos != (circuit.Cell{X: 2, Y: 10}) {
		t.Errorf("R9 at %v, want 2,10", r9.Pos)
	}
	if r9.Value != "10kΩ" {
		t.Errorf("R9 value = %q, want 10kΩ", r9.Value)
	}
	if d1 := mustComponent(t, s, "D1"); d1.Orientation != 180 {
		t.Errorf("D1 orientation = %d, want 180", d1.Orientation)
	}
	if mustComponent(t, s, "S1").Closed {
		t.Error("second toggle should open S1")
	}
	if _, ok := s.Document().Registry.ComponentByName("GND1"); ok {
		t.Error("GND1 should be deleted")
	}
	// Two wires went with GND1 and one was disconnected.
	if got := len(s.Document().Registry.Wires()); got != 2 {
		t.Errorf("%d wires left, want 2", got)
	}

	// One undo reverts the whole delete, wires included.
	if _, err := Run(s, "undo"); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	mustComponent(t, s, "GND1")
	if got := len(s.Document().Registry.Wires()); got != 4 {
		t.Errorf("%d wires after undo, want 4", got)
	}
}

func TestRunRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown component", "toggle X9", circuit.ErrNotFound},
		{"unknown pin", "connect R1.foo R2.in", circuit.ErrNotFound},
		{"no such wire", "disconnect R1.out R2.in", circuit.ErrNotFound},
		{"bad rotation", "rotate R1 by 45", circuit.ErrInvalidOrientation},
		{"name taken", "rename R1 R2", circuit.ErrNameConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := project.NewSession()
			if _, err := Run(s, "place resistor R1 at 1,1\nplace resistor R2 at 1,3"); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			if _, err := Run(s, tt.src); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunUnknownKind(t *testing.T) {
	s := project.NewSession()
	if _, err := Run(s, "place capacitor C1 at 1,1"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParse(t *testing.T) {
	sc, err := Parse("PLACE resistor at 3,4 rot 90 value \"1M\" ; place led near 10,10\n# done\nrotate R1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sc.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(sc.Statements))
	}

	p := sc.Statements[0].Place
	if p == nil || p.Kind != "resistor" || p.Name != "" {
		t.Fatalf("first statement = %+v", p)
	}
	if p.Where.At == nil || p.Where.At.Cell() != (circuit.Cell{X: 3, Y: 4}) {
		t.Errorf("at = %+v", p.Where.At)
	}
	if len(p.Options) != 2 || p.Options[0].Rot.Degrees != 90 || p.Options[1].Value.Text != "1M" {
		t.Errorf("options = %+v", p.Options)
	}

	if near := sc.Statements[1].Place; near == nil || near.Where.Near == nil {
		t.Error("second statement should place near a cell")
	}
	if r := sc.Statements[2]; r.Rotate == nil || r.Rotate.By != nil || r.Pos.Line != 3 {
		t.Errorf("third statement = %+v", r)
	}
}

func TestCompiledPlaceUsesOrientation(t *testing.T) {
	s := project.NewSession()
	if _, err := Run(s, "place source V1 at 0,0 rot 270"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	v1 := mustComponent(t, s, "V1")
	if v1.Orientation != 270 {
		t.Errorf("orientation = %d, want 270", v1.Orientation)
	}
	if w, h := v1.Size(v1.Orientation); w != 3 || h != 1 {
		t.Errorf("size = %dx%d, want 3x1", w, h)
	}
}
