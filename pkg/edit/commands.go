package edit

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/units"
)

// Command is one reversible edit. Apply either succeeds completely or returns
// an error without having changed the document. Undo is only called on a
// command whose Apply succeeded and restores the state before it. Apply may
// be called again after Undo to redo the edit.
type Command interface {
	Apply(d *Document) error
	Undo(d *Document) error
	Label() string
}

// Place puts a new component on the grid.
type Place struct {
	Kind        circuit.Kind
	At          circuit.Cell
	Orientation circuit.Orientation
	Name        string // generated from the model's prefix when empty
	Value       string // model default when empty

	c *circuit.Component
}

func (p *Place) Apply(d *Document) error {
	if p.c != nil {
		if err := d.fits(p.c.Footprint(), p.c.ID); err != nil {
			return err
		}
		if err := d.Registry.Restore(p.c); err != nil {
			return err
		}
		d.Index.Add(p.c)
		return nil
	}

	model, err := d.Registry.Catalog().Lookup(p.Kind)
	if err != nil {
		return fmt.Errorf("edit: place: %w", err)
	}
	if !p.Orientation.Valid() {
		return fmt.Errorf("edit: place: orientation %d: %w", p.Orientation, circuit.ErrInvalidOrientation)
	}
	w, h := model.Size(p.Orientation)
	if err := d.fits(circuit.Rect(p.At, w, h), 0); err != nil {
		return err
	}
	name := p.Name
	if name == "" {
		name = d.Registry.UniqueName(model.NamePrefix)
	} else if d.Registry.NameTaken(name) {
		return fmt.Errorf("edit: place %q: %w", name, circuit.ErrNameConflict)
	}
	if p.Value != "" {
		if !model.Numeric {
			return fmt.Errorf("edit: place %s: a %s takes no value", name, p.Kind)
		}
		if _, err := units.Parse(p.Value); err != nil {
			return fmt.Errorf("edit: place %s: %w", name, err)
		}
	}

	c, err := d.Registry.NewComponent(p.Kind, p.At, p.Orientation, name)
	if err != nil {
		return err
	}
	if p.Value != "" {
		c.Value = p.Value
	}
	if err := d.Registry.Insert(c); err != nil {
		return err
	}
	d.Index.Add(c)
	p.c = c
	return nil
}

func (p *Place) Undo(d *Document) error {
	if _, err := d.Registry.Remove(p.c.ID); err != nil {
		return err
	}
	d.Index.Remove(p.c)
	return nil
}

func (p *Place) Label() string {
	if p.c != nil {
		return "place " + p.c.Name
	}
	if p.Name != "" {
		return "place " + p.Name
	}
	return "place " + p.Kind.String()
}

// Component returns the placed component once Apply has succeeded.
func (p *Place) Component() *circuit.Component { return p.c }

// PlaceNear places a component at the free slot closest to Near.
type PlaceNear struct {
	Kind        circuit.Kind
	Near        circuit.Cell
	Orientation circuit.Orientation
	Name        string
	Value       string

	place *Place
}

func (p *PlaceNear) Apply(d *Document) error {
	if p.place != nil {
		return p.place.Apply(d)
	}
	model, err := d.Registry.Catalog().Lookup(p.Kind)
	if err != nil {
		return fmt.Errorf("edit: place: %w", err)
	}
	w, h := model.Size(p.Orientation)
	slot, ok := d.Index.FindFree(p.Near, w, h)
	if !ok {
		return fmt.Errorf("edit: no free %dx%d slot near %s: %w", w, h, p.Near, circuit.ErrPlacementConflict)
	}
	place := &Place{Kind: p.Kind, At: slot, Orientation: p.Orientation, Name: p.Name, Value: p.Value}
	if err := place.Apply(d); err != nil {
		return err
	}
	p.place = place
	return nil
}

func (p *PlaceNear) Undo(d *Document) error { return p.place.Undo(d) }

func (p *PlaceNear) Label() string {
	if p.place != nil {
		return p.place.Label()
	}
	return (&Place{Kind: p.Kind, Name: p.Name}).Label()
}

// Component returns the placed component once Apply has succeeded.
func (p *PlaceNear) Component() *circuit.Component {
	if p.place == nil {
		return nil
	}
	return p.place.c
}

// Delete removes a component together with every wire attached to it.
type Delete struct {
	ID circuit.ComponentID

	c     *circuit.Component
	wires []*circuit.Wire
}

func (c *Delete) Apply(d *Document) error {
	comp, err := d.component(c.ID)
	if err != nil {
		return err
	}
	wires := d.Registry.WiresAt(c.ID)
	for _, w := range wires {
		if _, err := d.Registry.RemoveWire(w.ID); err != nil {
			return err
		}
	}
	if _, err := d.Registry.Remove(c.ID); err != nil {
		for _, w := range wires {
			_ = d.Registry.RestoreWire(w)
		}
		return err
	}
	d.Index.Remove(comp)
	c.c, c.wires = comp, wires
	return nil
}

func (c *Delete) Undo(d *Document) error {
	if err := d.Registry.Restore(c.c); err != nil {
		return err
	}
	d.Index.Add(c.c)
	for _, w := range c.wires {
		if err := d.Registry.RestoreWire(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *Delete) Label() string {
	if c.c != nil {
		return "delete " + c.c.Name
	}
	return fmt.Sprintf("delete #%d", c.ID)
}

// Wires returns the wires removed along with the component.
func (c *Delete) Wires() []*circuit.Wire { return c.wires }

// Move shifts a component to a new anchor cell.
type Move struct {
	ID circuit.ComponentID
	To circuit.Cell

	c    *circuit.Component
	from circuit.Cell
}

func (m *Move) Apply(d *Document) error {
	c, err := d.component(m.ID)
	if err != nil {
		return err
	}
	if err := d.fits(c.FootprintAt(m.To, c.Orientation), c.ID); err != nil {
		return err
	}
	m.c, m.from = c, c.Pos
	d.Index.Remove(c)
	c.Pos = m.To
	d.Index.Add(c)
	return nil
}

func (m *Move) Undo(d *Document) error {
	d.Index.Remove(m.c)
	m.c.Pos = m.from
	d.Index.Add(m.c)
	return nil
}

func (m *Move) Label() string { return fmt.Sprintf("move #%d to %s", m.ID, m.To) }

// Rotate turns a component clockwise about its anchor.
type Rotate struct {
	ID circuit.ComponentID
	By int // degrees, a multiple of 90; zero means a quarter turn

	c    *circuit.Component
	prev circuit.Orientation
}

func (r *Rotate) Apply(d *Document) error {
	c, err := d.component(r.ID)
	if err != nil {
		return err
	}
	by := r.By
	if by == 0 {
		by = 90
	}
	o, err := c.Orientation.Rotate(by)
	if err != nil {
		return err
	}
	if err := d.fits(c.FootprintAt(c.Pos, o), c.ID); err != nil {
		return err
	}
	r.c, r.prev = c, c.Orientation
	d.Index.Remove(c)
	if err := c.SetOrientation(o); err != nil {
		d.Index.Add(c)
		return err
	}
	d.Index.Add(c)
	return nil
}

func (r *Rotate) Undo(d *Document) error {
	d.Index.Remove(r.c)
	err := r.c.SetOrientation(r.prev)
	d.Index.Add(r.c)
	return err
}

func (r *Rotate) Label() string { return fmt.Sprintf("rotate #%d", r.ID) }

// SetValue replaces a component's value text. The text is parsed first; on
// failure the stored value is left as it was and the *units.ValueParseError
// is returned wrapped.
type SetValue struct {
	ID   circuit.ComponentID
	Text string

	c   *circuit.Component
	old string
}

func (s *SetValue) Apply(d *Document) error {
	c, err := d.component(s.ID)
	if err != nil {
		return err
	}
	if !c.Model().Numeric {
		return fmt.Errorf("edit: %s has no value to set", c.Name)
	}
	if _, err := units.Parse(s.Text); err != nil {
		return fmt.Errorf("edit: set value of %s: %w", c.Name, err)
	}
	s.c, s.old = c, c.Value
	c.Value = s.Text
	return nil
}

func (s *SetValue) Undo(d *Document) error {
	s.c.Value = s.old
	return nil
}

func (s *SetValue) Label() string { return fmt.Sprintf("set value %q", s.Text) }

// SetSwitch opens or closes a switch.
type SetSwitch struct {
	ID     circuit.ComponentID
	Closed bool

	c   *circuit.Component
	was bool
}

func (s *SetSwitch) Apply(d *Document) error {
	c, err := d.component(s.ID)
	if err != nil {
		return err
	}
	if c.Kind != circuit.Switch {
		return fmt.Errorf("edit: %s is a %s, not a switch", c.Name, c.Kind)
	}
	s.c, s.was = c, c.Closed
	c.Closed = s.Closed
	return nil
}

func (s *SetSwitch) Undo(d *Document) error {
	s.c.Closed = s.was
	return nil
}

func (s *SetSwitch) Label() string {
	if s.Closed {
		return fmt.Sprintf("close #%d", s.ID)
	}
	return fmt.Sprintf("open #%d", s.ID)
}

// Rename gives a component a new unique name.
type Rename struct {
	ID   circuit.ComponentID
	Name string

	old string
}

func (r *Rename) Apply(d *Document) error {
	c, err := d.component(r.ID)
	if err != nil {
		return err
	}
	old := c.Name
	if err := d.Registry.Rename(r.ID, r.Name); err != nil {
		return err
	}
	r.old = old
	return nil
}

func (r *Rename) Undo(d *Document) error { return d.Registry.Rename(r.ID, r.old) }

func (r *Rename) Label() string { return "rename to " + r.Name }

// Connect adds a wire between two pins, optionally routed through bend
// points at Via.
type Connect struct {
	From circuit.Endpoint
	To   circuit.Endpoint
	Via  []circuit.Cell

	w *circuit.Wire
}

func (c *Connect) Apply(d *Document) error {
	if c.w != nil {
		return d.Registry.RestoreWire(c.w)
	}
	if !d.Index.InBounds(c.Via) {
		return fmt.Errorf("edit: bend point leaves the grid: %w", circuit.ErrOutOfBounds)
	}
	w, err := d.Registry.NewWire(c.From, c.To)
	if err != nil {
		return err
	}
	for _, at := range c.Via {
		w.Bends = append(w.Bends, d.Registry.NewBend(at))
	}
	if err := d.Registry.InsertWire(w); err != nil {
		return err
	}
	c.w = w
	return nil
}

func (c *Connect) Undo(d *Document) error {
	_, err := d.Registry.RemoveWire(c.w.ID)
	return err
}

func (c *Connect) Label() string { return fmt.Sprintf("connect %s %s", c.From, c.To) }

// Wire returns the created wire once Apply has succeeded.
func (c *Connect) Wire() *circuit.Wire { return c.w }

// Disconnect removes a wire and its bend points.
type Disconnect struct {
	Wire circuit.WireID

	w *circuit.Wire
}

func (c *Disconnect) Apply(d *Document) error {
	w, err := d.Registry.RemoveWire(c.Wire)
	if err != nil {
		return err
	}
	c.w = w
	return nil
}

func (c *Disconnect) Undo(d *Document) error { return d.Registry.RestoreWire(c.w) }

func (c *Disconnect) Label() string { return fmt.Sprintf("disconnect wire %d", c.Wire) }

// AddBend inserts a bend point into a wire's route at position Index.
type AddBend struct {
	Wire  circuit.WireID
	Index int
	At    circuit.Cell

	b *circuit.BendPoint
}

func (a *AddBend) Apply(d *Document) error {
	if a.b == nil {
		w, ok := d.Registry.Wire(a.Wire)
		if !ok {
			return fmt.Errorf("edit: wire %d: %w", a.Wire, circuit.ErrNotFound)
		}
		if a.Index < 0 || a.Index > len(w.Bends) {
			return fmt.Errorf("edit: bend index %d out of range for wire %d", a.Index, a.Wire)
		}
		if !d.Index.Bounds().Contains(a.At) {
			return fmt.Errorf("edit: bend point %s: %w", a.At, circuit.ErrOutOfBounds)
		}
		a.b = d.Registry.NewBend(a.At)
	}
	return d.Registry.AttachBend(a.Wire, a.Index, a.b)
}

func (a *AddBend) Undo(d *Document) error {
	_, _, _, err := d.Registry.DetachBend(a.b.ID)
	return err
}

func (a *AddBend) Label() string { return fmt.Sprintf("add bend to wire %d", a.Wire) }

// Bend returns the created bend point once Apply has succeeded.
func (a *AddBend) Bend() *circuit.BendPoint { return a.b }

// MoveBend relocates a bend point.
type MoveBend struct {
	Bend circuit.BendID
	To   circuit.Cell

	b    *circuit.BendPoint
	from circuit.Cell
}

func (m *MoveBend) Apply(d *Document) error {
	w, i, ok := d.Registry.Bend(m.Bend)
	if !ok {
		return fmt.Errorf("edit: bend %d: %w", m.Bend, circuit.ErrNotFound)
	}
	if !d.Index.Bounds().Contains(m.To) {
		return fmt.Errorf("edit: bend point %s: %w", m.To, circuit.ErrOutOfBounds)
	}
	m.b = w.Bends[i]
	m.from = m.b.At
	m.b.At = m.To
	return nil
}

func (m *MoveBend) Undo(d *Document) error {
	m.b.At = m.from
	return nil
}

func (m *MoveBend) Label() string { return fmt.Sprintf("move bend %d", m.Bend) }

// RemoveBend takes a bend point out of its wire's route.
type RemoveBend struct {
	Bend circuit.BendID

	wire  circuit.WireID
	index int
	b     *circuit.BendPoint
}

func (r *RemoveBend) Apply(d *Document) error {
	wire, index, b, err := d.Registry.DetachBend(r.Bend)
	if err != nil {
		return err
	}
	r.wire, r.index, r.b = wire, index, b
	return nil
}

func (r *RemoveBend) Undo(d *Document) error {
	return d.Registry.AttachBend(r.wire, r.index, r.b)
}

func (r *RemoveBend) Label() string { return fmt.Sprintf("remove bend %d", r.Bend) }

// Batch groups commands into one undoable step. Sub-commands are applied in
// order and undone in reverse. If one fails, the ones already applied are
// rolled back and the batch as a whole is rejected. The spatial index is
// rebuilt after every batch operation.
type Batch struct {
	Name     string
	Commands []Command
}

func (b *Batch) Apply(d *Document) error {
	defer d.Reindex()
	for i, c := range b.Commands {
		if err := c.Apply(d); err != nil {
			errs := []error{fmt.Errorf("edit: %s: %s: %w", b.Label(), c.Label(), err)}
			for j := i - 1; j >= 0; j-- {
				if uerr := b.Commands[j].Undo(d); uerr != nil {
					errs = append(errs, fmt.Errorf("edit: rollback %s: %w", b.Commands[j].Label(), uerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

// Undo reverts the sub-commands in reverse order. If one fails, the ones
// already reverted are applied again so the batch stays fully applied.
func (b *Batch) Undo(d *Document) error {
	defer d.Reindex()
	for i := len(b.Commands) - 1; i >= 0; i-- {
		c := b.Commands[i]
		if err := c.Undo(d); err != nil {
			errs := []error{fmt.Errorf("edit: undo %s: %s: %w", b.Label(), c.Label(), err)}
			for _, redo := range b.Commands[i+1:] {
				if rerr := redo.Apply(d); rerr != nil {
					errs = append(errs, fmt.Errorf("edit: roll forward %s: %w", redo.Label(), rerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	return nil
}

func (b *Batch) Label() string {
	if b.Name != "" {
		return b.Name
	}
	labels := make([]string, len(b.Commands))
	for i, c := range b.Commands {
		labels[i] = c.Label()
	}
	return strings.Join(labels, "; ")
}

// DeleteSelection builds the batch that deletes a selection of wires and
// components. Selected wires go first, then each component with its
// remaining wires. Duplicate ids are ignored.
func DeleteSelection(components []circuit.ComponentID, wires []circuit.WireID) *Batch {
	b := &Batch{}
	seenWire := make(map[circuit.WireID]bool)
	for _, id := range wires {
		if !seenWire[id] {
			seenWire[id] = true
			b.Commands = append(b.Commands, &Disconnect{Wire: id})
		}
	}
	var comps []circuit.ComponentID
	for _, id := range components {
		if !slices.Contains(comps, id) {
			comps = append(comps, id)
		}
	}
	for _, id := range comps {
		b.Commands = append(b.Commands, &Delete{ID: id})
	}
	b.Name = fmt.Sprintf("delete %d items", len(b.Commands))
	return b
}
