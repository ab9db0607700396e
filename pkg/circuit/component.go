package circuit

import "fmt"

// Component is a placed circuit element.
type Component struct {
	ID          ComponentID
	Kind        Kind
	Pos         Cell // anchor: top-left cell of the footprint
	Orientation Orientation
	// Value holds the last valid value text. It is only replaced after the
	// new text has parsed.
	Value string
	// Closed is the explicit switch state; ignored for other kinds.
	Closed bool
	Name   string
	Pins   []*Pin

	model   *Model
	deleted bool
}

// Pin is a terminal on a component. It refers to its owner by id only.
type Pin struct {
	ID        PinID
	Component ComponentID
	Index     int
	Role      Role
	Name      string
	Offset    Cell // relative to the owner's anchor, derived from orientation
}

// Model returns the catalog entry the component was built from.
func (c *Component) Model() *Model { return c.model }

// Live reports whether the component is currently part of the graph.
func (c *Component) Live() bool { return !c.deleted }

// Size returns the footprint width and height at orientation o.
func (c *Component) Size(o Orientation) (w, h int) {
	return c.model.Size(o)
}

// Footprint returns the cells occupied at the component's current position.
func (c *Component) Footprint() []Cell {
	return c.FootprintAt(c.Pos, c.Orientation)
}

// FootprintAt returns the cells the component would occupy at pos with
// orientation o.
func (c *Component) FootprintAt(pos Cell, o Orientation) []Cell {
	w, h := c.Size(o)
	return Rect(pos, w, h)
}

// Rect returns the w x h block of cells anchored at pos, row by row.
func Rect(pos Cell, w, h int) []Cell {
	cells := make([]Cell, 0, w*h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			cells = append(cells, Cell{pos.X + dx, pos.Y + dy})
		}
	}
	return cells
}

// PinCell returns the absolute cell of pin index.
func (c *Component) PinCell(index int) Cell {
	return c.Pos.Add(c.Pins[index].Offset)
}

func (c *Component) String() string {
	return fmt.Sprintf("%s(%s #%d)", c.Name, c.Kind, c.ID)
}

// layoutPins recomputes pin offsets for the current orientation, keeping the
// same Pin objects.
func (c *Component) layoutPins() {
	w, h := c.model.Width, c.model.Height
	for i, p := range c.Pins {
		base := Cell{}
		if i > 0 {
			base = Cell{w - 1, h - 1}
		}
		p.Offset = rotateOffset(base, w, h, c.Orientation)
	}
}

// rotateOffset maps a cell in a w x h box at orientation 0 to the same cell
// after turning the box clockwise by o.
func rotateOffset(p Cell, w, h int, o Orientation) Cell {
	switch o {
	case 90:
		return Cell{h - 1 - p.Y, p.X}
	case 180:
		return Cell{w - 1 - p.X, h - 1 - p.Y}
	case 270:
		return Cell{p.Y, w - 1 - p.X}
	default:
		return p
	}
}

// Wire joins two pins. Bend points belong to exactly one wire.
type Wire struct {
	ID    WireID
	From  Endpoint
	To    Endpoint
	Bends []*BendPoint

	deleted bool
}

// Endpoint addresses a pin by owning component and pin index.
type Endpoint struct {
	Component ComponentID `json:"component" yaml:"component"`
	Pin       int         `json:"pin" yaml:"pin"`
}

// PinID returns the pin id the endpoint refers to.
func (e Endpoint) PinID() PinID { return MakePinID(e.Component, e.Pin) }

func (e Endpoint) String() string { return fmt.Sprintf("%d.%d", e.Component, e.Pin) }

// Live reports whether the wire is currently part of the graph.
func (w *Wire) Live() bool { return !w.deleted }

// Touches reports whether either end of w is on component id.
func (w *Wire) Touches(id ComponentID) bool {
	return w.From.Component == id || w.To.Component == id
}

// Joins reports whether w connects pins a and b in either direction.
func (w *Wire) Joins(a, b Endpoint) bool {
	return (w.From == a && w.To == b) || (w.From == b && w.To == a)
}

// BendIndex returns the position of bend id on w, or -1.
func (w *Wire) BendIndex(id BendID) int {
	for i, b := range w.Bends {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// BendPoint is a routing waypoint with no electrical meaning.
type BendPoint struct {
	ID BendID
	At Cell
}
