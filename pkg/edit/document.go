// Package edit applies reversible edits to a circuit document.
//
// Every change to a Document goes through a Command. Apply validates first
// and returns an error before touching anything when the edit is rejected.
// Undo restores the exact prior state, including the identity of every
// component, wire and bend point, by reactivating tombstoned entities rather
// than rebuilding them.
//
// A History keeps a bounded list of applied commands and a cursor:
//
//	doc := edit.NewDocument(bounds)
//	h := edit.NewHistory(edit.DefaultDepth)
//	if err := h.Execute(doc, &edit.Place{Kind: circuit.Resistor, At: circuit.Cell{X: 2, Y: 3}}); err != nil {
//		return err
//	}
//	h.Undo(doc)
//
// A Document and its History belong to one editing session and are not safe
// for concurrent use.
package edit

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/spatial"
)

// Document is the entity registry together with the spatial index that must
// stay consistent with it.
type Document struct {
	Registry *circuit.Registry
	Index    *spatial.Index
}

// NewDocument creates an empty document over bounds using the default
// component catalog.
func NewDocument(bounds spatial.Bounds) *Document {
	return &Document{
		Registry: circuit.NewRegistry(nil),
		Index:    spatial.New(bounds),
	}
}

// Reindex rebuilds the spatial index from the live components.
func (d *Document) Reindex() {
	d.Index.Rebuild(d.Registry.Components())
}

// Resolve runs the connectivity resolver over the live graph.
func (d *Document) Resolve() *connectivity.Result {
	return connectivity.Resolve(d.Registry.Components(), d.Registry.Wires())
}

// component returns a live component or a wrapped ErrNotFound.
func (d *Document) component(id circuit.ComponentID) (*circuit.Component, error) {
	c, ok := d.Registry.Component(id)
	if !ok {
		return nil, fmt.Errorf("edit: component %d: %w", id, circuit.ErrNotFound)
	}
	return c, nil
}

// fits checks that cells are on the grid and not taken by any component
// other than self.
func (d *Document) fits(cells []circuit.Cell, self circuit.ComponentID) error {
	if !d.Index.InBounds(cells) {
		return fmt.Errorf("edit: footprint leaves the grid: %w", circuit.ErrOutOfBounds)
	}
	if d.Index.OccupiedBy(cells, self) {
		for _, cell := range cells {
			if owner, ok := d.Index.Owner(cell); ok && owner != self {
				name := fmt.Sprintf("#%d", owner)
				if c, ok := d.Registry.Component(owner); ok {
					name = c.Name
				}
				return fmt.Errorf("edit: cell %s is occupied by %s: %w", cell, name, circuit.ErrPlacementConflict)
			}
		}
	}
	return nil
}
