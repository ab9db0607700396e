package project

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/edit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/sim"
)

// blinky builds a source, resistor, LED and switch loop with one ground.
func blinky(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	places := []*edit.Place{
		{Kind: circuit.VoltageSource, Name: "V1", At: circuit.Cell{X: 0, Y: 0}, Value: "9V"},
		{Kind: circuit.Resistor, Name: "R1", At: circuit.Cell{X: 2, Y: 0}, Value: "4.7k"},
		{Kind: circuit.LED, Name: "D1", At: circuit.Cell{X: 6, Y: 0}},
		{Kind: circuit.Switch, Name: "S1", At: circuit.Cell{X: 6, Y: 4}},
		{Kind: circuit.Ground, Name: "GND1", At: circuit.Cell{X: 0, Y: 6}},
	}
	ids := make(map[string]circuit.ComponentID)
	for _, p := range places {
		if err := s.Do(p); err != nil {
			t.Fatalf("%s: %v", p.Label(), err)
		}
		ids[p.Name] = p.Component().ID
	}
	ep := func(name string, pin int) circuit.Endpoint {
		return circuit.Endpoint{Component: ids[name], Pin: pin}
	}
	for _, c := range []*edit.Connect{
		{From: ep("V1", 0), To: ep("R1", 0), Via: []circuit.Cell{{X: 1, Y: 0}}},
		{From: ep("R1", 1), To: ep("D1", 0)},
		{From: ep("D1", 1), To: ep("S1", 0), Via: []circuit.Cell{{X: 8, Y: 0}, {X: 8, Y: 4}}},
		{From: ep("S1", 1), To: ep("GND1", 0)},
		{From: ep("V1", 1), To: ep("GND1", 0)},
	} {
		if err := s.Do(c); err != nil {
			t.Fatalf("%s: %v", c.Label(), err)
		}
	}
	if err := s.Do(&edit.SetSwitch{ID: ids["S1"], Closed: true}); err != nil {
		t.Fatalf("close switch: %v", err)
	}
	return s
}

func TestSnapshotOrder(t *testing.T) {
	d := blinky(t).Dump()

	if d.Version != DumpVersion {
		t.Errorf("version = %d, want %d", d.Version, DumpVersion)
	}
	if len(d.Components) != 5 || len(d.Wires) != 5 {
		t.Fatalf("dump has %d components and %d wires", len(d.Components), len(d.Wires))
	}
	for i := 1; i < len(d.Components); i++ {
		if d.Components[i-1].ID >= d.Components[i].ID {
			t.Error("components not in id order")
		}
	}
	if got := d.Wires[2].Bends; !reflect.DeepEqual(got, []circuit.Cell{{X: 8, Y: 0}, {X: 8, Y: 4}}) {
		t.Errorf("bends = %v", got)
	}
	for _, c := range d.Components {
		if c.Kind == circuit.Switch && !c.Closed {
			t.Error("switch state not recorded")
		}
		if c.Kind == circuit.Ground && c.Value != "" {
			t.Errorf("ground recorded value %q", c.Value)
		}
	}
}

func TestRoundTripPreservesConnectivity(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			s := blinky(t)
			want := s.Dump()

			var buf bytes.Buffer
			if err := Encode(&buf, want, format); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("decoded dump differs:\n got %+v\nwant %+v", got, want)
			}

			doc, err := Build(got, DefaultBounds)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if !doc.Resolve().Equal(s.Resolve()) {
				t.Error("rebuilt registry resolves differently")
			}
			if !doc.Index.Equal(s.Document().Index) {
				t.Error("rebuilt spatial index differs")
			}
			if again := Snapshot(doc.Registry); !reflect.DeepEqual(again, want) {
				t.Error("snapshot of rebuilt registry differs")
			}
		})
	}
}

func TestYAMLUsesKindNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, blinky(t).Dump(), FormatYAML); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, want := range []string{"kind: source", "kind: led", "value: 4.7k"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("YAML missing %q:\n%s", want, buf.String())
		}
	}
}

func TestBuildRejects(t *testing.T) {
	base := func() Dump { return blinky(t).Dump() }

	tests := []struct {
		name   string
		modify func(*Dump)
		want   error
	}{
		{"overlap", func(d *Dump) { d.Components[1].Pos = d.Components[0].Pos }, circuit.ErrPlacementConflict},
		{"off grid", func(d *Dump) { d.Components[0].Pos = circuit.Cell{X: 39, Y: 29} }, circuit.ErrOutOfBounds},
		{"duplicate name", func(d *Dump) { d.Components[1].Name = "V1" }, circuit.ErrNameConflict},
		{"bad orientation", func(d *Dump) { d.Components[4].Orientation = 45 }, circuit.ErrInvalidOrientation},
		{"dangling wire", func(d *Dump) { d.Wires[0].To.Component = 99 }, circuit.ErrInvalidConnection},
		{"out to out", func(d *Dump) { d.Wires[0].To.Pin = 1 }, circuit.ErrInvalidConnection},
		{"bend off grid", func(d *Dump) { d.Wires[0].Bends[0] = circuit.Cell{X: -1} }, circuit.ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.modify(&d)
			if _, err := Build(d, DefaultBounds); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	d := base()
	d.Version = 7
	if _, err := Build(d, DefaultBounds); err == nil {
		t.Error("expected error for unknown version")
	}
	d = base()
	d.Components[1].Value = "abc"
	if _, err := Build(d, DefaultBounds); err == nil {
		t.Error("expected error for unparseable value")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":     FormatJSON,
		"a.ecis":     FormatJSON,
		"dir/b.yaml": FormatYAML,
		"dir/b.YML":  FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %v, %v, want %v", path, got, err, want)
		}
	}
	if _, err := FormatFromPath("circuit.txt"); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestSaveLoadFile(t *testing.T) {
	s := blinky(t)
	path := filepath.Join(t.TempDir(), "blinky.yaml")

	if err := SaveFile(path, s.Dump()); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	other := NewSession()
	if err := other.Load(d); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !other.Resolve().Equal(s.Resolve()) {
		t.Error("loaded session resolves differently")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSessionUndoRedo(t *testing.T) {
	var logs bytes.Buffer
	s := NewSession(WithLogger(log.New(&logs, "", 0)), WithHistoryDepth(5))

	p := &edit.Place{Kind: circuit.Resistor, Name: "R1", At: circuit.Cell{X: 1, Y: 1}}
	if err := s.Do(p); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if err := s.Do(&edit.Place{Kind: circuit.Resistor, At: circuit.Cell{X: 2, Y: 1}}); !errors.Is(err, circuit.ErrPlacementConflict) {
		t.Fatalf("got %v, want ErrPlacementConflict", err)
	}

	if ok, err := s.Undo(); !ok || err != nil {
		t.Fatalf("Undo = %v, %v", ok, err)
	}
	if ok, err := s.Undo(); ok || err != nil {
		t.Errorf("second Undo = %v, %v, want no-op", ok, err)
	}
	if ok, err := s.Redo(); !ok || err != nil {
		t.Fatalf("Redo = %v, %v", ok, err)
	}
	if c, _ := s.Document().Registry.ComponentByName("R1"); c != p.Component() {
		t.Error("redo should restore the same component")
	}

	for _, want := range []string{"applied place R1", "rejected place resistor", "undid place R1", "redid place R1"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("log missing %q:\n%s", want, logs.String())
		}
	}
	if s.History().Depth() != 5 {
		t.Errorf("history depth = %d, want 5", s.History().Depth())
	}
}

func TestSessionLoadClearsHistory(t *testing.T) {
	s := blinky(t)
	d := s.Dump()

	if err := s.Load(d); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.History().CanUndo() {
		t.Error("Load should clear the undo history")
	}

	before := s.Dump()
	d.Components[1].Pos = d.Components[0].Pos
	if err := s.Load(d); err == nil {
		t.Fatal("expected Load to reject an overlapping dump")
	}
	if !reflect.DeepEqual(s.Dump(), before) {
		t.Error("rejected Load changed the session")
	}
}

func TestSessionBuildAndSimulate(t *testing.T) {
	s := blinky(t)

	nl := s.Build()
	if !nl.Valid() {
		t.Fatalf("blinky should be valid, got %v", nl.Issues)
	}

	fake := sim.NewFake(nil)
	if _, _, err := s.Simulate(context.Background(), fake); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if fake.Calls() != 1 {
		t.Errorf("simulator called %d times, want 1", fake.Calls())
	}

	empty := NewSession()
	if _, _, err := empty.Simulate(context.Background(), fake); !errors.Is(err, sim.ErrInvalidNetlist) {
		t.Errorf("got %v, want ErrInvalidNetlist", err)
	}
	if fake.Calls() != 1 {
		t.Error("invalid netlist must not reach the simulator")
	}
}
