// Package project persists circuits and drives an editing session.
//
// A Dump is the plain structural form of a registry: components and wires in
// id order, with bend points reduced to their coordinates. Snapshot produces
// one from a live registry and Build turns one back into a document, checking
// every invariant the editing commands would have enforced.
package project

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/edit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/spatial"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/units"
)

// DumpVersion is the structural dump format written by Snapshot.
const DumpVersion = 1

// Dump is the order-stable structural form of a circuit.
type Dump struct {
	Version    int               `json:"version" yaml:"version"`
	Components []ComponentRecord `json:"components" yaml:"components"`
	Wires      []WireRecord      `json:"wires" yaml:"wires"`
}

// ComponentRecord is one component in a Dump.
type ComponentRecord struct {
	ID          circuit.ComponentID `json:"id" yaml:"id"`
	Kind        circuit.Kind        `json:"kind" yaml:"kind"`
	Name        string              `json:"name" yaml:"name"`
	Pos         circuit.Cell        `json:"pos" yaml:"pos"`
	Orientation circuit.Orientation `json:"orientation" yaml:"orientation"`
	Value       string              `json:"value,omitempty" yaml:"value,omitempty"`
	Closed      bool                `json:"closed,omitempty" yaml:"closed,omitempty"`
}

// WireRecord is one wire in a Dump.
type WireRecord struct {
	ID    circuit.WireID   `json:"id" yaml:"id"`
	From  circuit.Endpoint `json:"from" yaml:"from"`
	To    circuit.Endpoint `json:"to" yaml:"to"`
	Bends []circuit.Cell   `json:"bends,omitempty" yaml:"bends,omitempty"`
}

// Snapshot records the live entities of reg.
func Snapshot(reg *circuit.Registry) Dump {
	d := Dump{Version: DumpVersion}
	for _, c := range reg.Components() {
		rec := ComponentRecord{
			ID:          c.ID,
			Kind:        c.Kind,
			Name:        c.Name,
			Pos:         c.Pos,
			Orientation: c.Orientation,
			Closed:      c.Closed,
		}
		if c.Model().Numeric {
			rec.Value = c.Value
		}
		d.Components = append(d.Components, rec)
	}
	for _, w := range reg.Wires() {
		rec := WireRecord{ID: w.ID, From: w.From, To: w.To}
		for _, b := range w.Bends {
			rec.Bends = append(rec.Bends, b.At)
		}
		d.Wires = append(d.Wires, rec)
	}
	return d
}

// Build reconstructs a document from d on a grid of the given bounds.
func Build(d Dump, bounds spatial.Bounds) (*edit.Document, error) {
	if d.Version != DumpVersion {
		return nil, fmt.Errorf("project: unsupported dump version %d", d.Version)
	}
	doc := edit.NewDocument(bounds)
	reg := doc.Registry

	for _, rec := range d.Components {
		c, err := reg.NewComponentWithID(rec.ID, rec.Kind, rec.Pos, rec.Orientation, rec.Name)
		if err != nil {
			return nil, fmt.Errorf("project: component %q: %w", rec.Name, err)
		}
		if rec.Value != "" {
			if !c.Model().Numeric {
				return nil, fmt.Errorf("project: component %q: a %s takes no value", rec.Name, rec.Kind)
			}
			if _, err := units.Parse(rec.Value); err != nil {
				return nil, fmt.Errorf("project: component %q: %w", rec.Name, err)
			}
			c.Value = rec.Value
		}
		c.Closed = rec.Closed && rec.Kind == circuit.Switch

		cells := c.Footprint()
		if !doc.Index.InBounds(cells) {
			return nil, fmt.Errorf("project: component %q at %s: %w", rec.Name, rec.Pos, circuit.ErrOutOfBounds)
		}
		if doc.Index.Occupied(cells) {
			return nil, fmt.Errorf("project: component %q at %s: %w", rec.Name, rec.Pos, circuit.ErrPlacementConflict)
		}
		if err := reg.Insert(c); err != nil {
			return nil, fmt.Errorf("project: component %q: %w", rec.Name, err)
		}
		doc.Index.Add(c)
	}

	for _, rec := range d.Wires {
		w, err := reg.NewWireWithID(rec.ID, rec.From, rec.To)
		if err != nil {
			return nil, fmt.Errorf("project: wire %d: %w", rec.ID, err)
		}
		for _, at := range rec.Bends {
			if !bounds.Contains(at) {
				return nil, fmt.Errorf("project: wire %d bend %s: %w", rec.ID, at, circuit.ErrOutOfBounds)
			}
			w.Bends = append(w.Bends, reg.NewBend(at))
		}
		if err := reg.InsertWire(w); err != nil {
			return nil, fmt.Errorf("project: wire %d: %w", rec.ID, err)
		}
	}
	return doc, nil
}
