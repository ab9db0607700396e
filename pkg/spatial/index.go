// Package spatial tracks which grid cells are occupied by which component.
//
// The index is a plain cell -> component-id map. Add and Remove cost time
// proportional to a component's footprint; Rebuild recomputes the whole map
// from the live entity set in one linear pass, which is used after bulk loads
// and bulk undo so the index can never drift from the registry.
package spatial

import (
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
)

// Bounds is the inclusive placement grid.
type Bounds struct {
	Min circuit.Cell
	Max circuit.Cell
}

// Contains reports whether c lies inside b.
func (b Bounds) Contains(c circuit.Cell) bool {
	return c.X >= b.Min.X && c.X <= b.Max.X && c.Y >= b.Min.Y && c.Y <= b.Max.Y
}

// Width returns the number of columns in b.
func (b Bounds) Width() int { return b.Max.X - b.Min.X + 1 }

// Height returns the number of rows in b.
func (b Bounds) Height() int { return b.Max.Y - b.Min.Y + 1 }

// Index maps occupied cells to their owning component.
type Index struct {
	bounds Bounds
	cells  map[circuit.Cell]circuit.ComponentID
}

// New creates an empty index over bounds.
func New(bounds Bounds) *Index {
	return &Index{
		bounds: bounds,
		cells:  make(map[circuit.Cell]circuit.ComponentID),
	}
}

// Bounds returns the placement grid.
func (ix *Index) Bounds() Bounds { return ix.bounds }

// Add marks the component's footprint as occupied.
func (ix *Index) Add(c *circuit.Component) {
	for _, cell := range c.Footprint() {
		ix.cells[cell] = c.ID
	}
}

// Remove frees the cells of the component's footprint that it still owns.
func (ix *Index) Remove(c *circuit.Component) {
	for _, cell := range c.Footprint() {
		if ix.cells[cell] == c.ID {
			delete(ix.cells, cell)
		}
	}
}

// Occupied reports whether any of cells is taken.
func (ix *Index) Occupied(cells []circuit.Cell) bool {
	for _, cell := range cells {
		if _, ok := ix.cells[cell]; ok {
			return true
		}
	}
	return false
}

// OccupiedBy reports whether any of cells is taken by a component other than
// except. Moves and rotations use it to ignore the component's own cells.
func (ix *Index) OccupiedBy(cells []circuit.Cell, except circuit.ComponentID) bool {
	for _, cell := range cells {
		if id, ok := ix.cells[cell]; ok && id != except {
			return true
		}
	}
	return false
}

// InBounds reports whether every cell lies on the placement grid.
func (ix *Index) InBounds(cells []circuit.Cell) bool {
	for _, cell := range cells {
		if !ix.bounds.Contains(cell) {
			return false
		}
	}
	return true
}

// Owner returns the component occupying cell.
func (ix *Index) Owner(cell circuit.Cell) (circuit.ComponentID, bool) {
	id, ok := ix.cells[cell]
	return id, ok
}

// Len returns the number of occupied cells.
func (ix *Index) Len() int { return len(ix.cells) }

// Cells returns a copy of the occupancy map.
func (ix *Index) Cells() map[circuit.Cell]circuit.ComponentID {
	out := make(map[circuit.Cell]circuit.ComponentID, len(ix.cells))
	for k, v := range ix.cells {
		out[k] = v
	}
	return out
}

// Equal reports whether two indexes have identical occupancy.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.cells) != len(other.cells) {
		return false
	}
	for k, v := range ix.cells {
		if ov, ok := other.cells[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Free reports whether a w x h footprint anchored at anchor is on the grid
// and unoccupied.
func (ix *Index) Free(anchor circuit.Cell, w, h int) bool {
	cells := circuit.Rect(anchor, w, h)
	return ix.InBounds(cells) && !ix.Occupied(cells)
}

// FindFree searches outward from origin in square rings and returns the first
// anchor whose w x h footprint is in bounds and unoccupied. The search covers
// the whole grid, so false means the grid has no room.
func (ix *Index) FindFree(origin circuit.Cell, w, h int) (circuit.Cell, bool) {
	if w < 1 || h < 1 || w > ix.bounds.Width() || h > ix.bounds.Height() {
		return circuit.Cell{}, false
	}
	if ix.Free(origin, w, h) {
		return origin, true
	}
	maxRadius := max(
		abs(origin.X-ix.bounds.Min.X), abs(ix.bounds.Max.X-origin.X),
		abs(origin.Y-ix.bounds.Min.Y), abs(ix.bounds.Max.Y-origin.Y),
	)
	for r := 1; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx) != r && abs(dy) != r {
					continue
				}
				anchor := circuit.Cell{X: origin.X + dx, Y: origin.Y + dy}
				if ix.Free(anchor, w, h) {
					return anchor, true
				}
			}
		}
	}
	return circuit.Cell{}, false
}

// Rebuild discards the current map and re-adds every component.
func (ix *Index) Rebuild(components []*circuit.Component) {
	ix.cells = make(map[circuit.Cell]circuit.ComponentID, len(ix.cells))
	for _, c := range components {
		ix.Add(c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
