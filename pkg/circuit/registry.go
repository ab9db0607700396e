// Package circuit holds the circuit graph: components, their pins, the wires
// between pins and the bend points routing each wire.
//
// Entities live in an arena keyed by stable integer ids. Deleting an entity
// tombstones it instead of destroying it, so an undo can bring back the very
// same object that other collaborators may still reference. Pins refer to
// their owner by id and are looked up through the Registry.
package circuit

import (
	"fmt"
	"sort"
	"strconv"
)

// Registry owns every entity of one editing session.
type Registry struct {
	catalog    Catalog
	components map[ComponentID]*Component
	wires      map[WireID]*Wire
	bendOwner  map[BendID]WireID
	names      map[string]ComponentID // live components only

	nextComponent ComponentID
	nextWire      WireID
	nextBend      BendID
}

// NewRegistry creates an empty registry backed by catalog. A nil catalog
// selects DefaultCatalog.
func NewRegistry(catalog Catalog) *Registry {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Registry{
		catalog:       catalog,
		components:    make(map[ComponentID]*Component),
		wires:         make(map[WireID]*Wire),
		bendOwner:     make(map[BendID]WireID),
		names:         make(map[string]ComponentID),
		nextComponent: 1,
		nextWire:      1,
		nextBend:      1,
	}
}

// Catalog returns the model catalog used to build components.
func (r *Registry) Catalog() Catalog { return r.catalog }

// NewComponent allocates a component with a fresh id. The component is not
// part of the graph until Insert is called.
func (r *Registry) NewComponent(kind Kind, pos Cell, o Orientation, name string) (*Component, error) {
	c, err := r.build(r.nextComponent, kind, pos, o, name)
	if err != nil {
		return nil, err
	}
	r.nextComponent++
	return c, nil
}

// NewComponentWithID is NewComponent with a caller-chosen id, used when
// rebuilding a registry from a structural dump.
func (r *Registry) NewComponentWithID(id ComponentID, kind Kind, pos Cell, o Orientation, name string) (*Component, error) {
	if id < 1 {
		return nil, fmt.Errorf("circuit: component id %d out of range", id)
	}
	if _, ok := r.components[id]; ok {
		return nil, fmt.Errorf("circuit: component id %d already allocated", id)
	}
	c, err := r.build(id, kind, pos, o, name)
	if err != nil {
		return nil, err
	}
	if id >= r.nextComponent {
		r.nextComponent = id + 1
	}
	return c, nil
}

func (r *Registry) build(id ComponentID, kind Kind, pos Cell, o Orientation, name string) (*Component, error) {
	model, err := r.catalog.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if !o.Valid() {
		return nil, fmt.Errorf("circuit: orientation %d: %w", o, ErrInvalidOrientation)
	}
	if name == "" {
		return nil, fmt.Errorf("circuit: component name is required")
	}
	c := &Component{
		ID:          id,
		Kind:        kind,
		Pos:         pos,
		Orientation: o,
		Value:       model.Default,
		Name:        name,
		model:       model,
		deleted:     true,
	}
	for i, role := range model.Roles {
		c.Pins = append(c.Pins, &Pin{
			ID:        MakePinID(id, i),
			Component: id,
			Index:     i,
			Role:      role,
			Name:      model.Pins[i],
		})
	}
	c.layoutPins()
	return c, nil
}

// Insert adds a newly allocated component to the graph.
func (r *Registry) Insert(c *Component) error {
	if _, ok := r.components[c.ID]; ok {
		return fmt.Errorf("circuit: component %d already registered", c.ID)
	}
	if err := r.claimName(c.Name, c.ID); err != nil {
		return err
	}
	c.deleted = false
	r.components[c.ID] = c
	return nil
}

// Remove tombstones a component. It refuses while live wires still touch the
// component, so a wire can never point at a missing pin.
func (r *Registry) Remove(id ComponentID) (*Component, error) {
	c, ok := r.Component(id)
	if !ok {
		return nil, fmt.Errorf("circuit: component %d: %w", id, ErrNotFound)
	}
	if n := len(r.WiresAt(id)); n > 0 {
		return nil, fmt.Errorf("circuit: component %s still has %d wires: %w", c.Name, n, ErrInvalidConnection)
	}
	c.deleted = true
	delete(r.names, c.Name)
	return c, nil
}

// Restore brings a tombstoned component back as the same object.
func (r *Registry) Restore(c *Component) error {
	cur, ok := r.components[c.ID]
	if !ok || cur != c {
		return fmt.Errorf("circuit: component %d was never registered: %w", c.ID, ErrNotFound)
	}
	if !c.deleted {
		return nil
	}
	if err := r.claimName(c.Name, c.ID); err != nil {
		return err
	}
	c.deleted = false
	return nil
}

func (r *Registry) claimName(name string, id ComponentID) error {
	if owner, ok := r.names[name]; ok && owner != id {
		return fmt.Errorf("circuit: %q: %w", name, ErrNameConflict)
	}
	r.names[name] = id
	return nil
}

// Rename changes a live component's name, rejecting collisions.
func (r *Registry) Rename(id ComponentID, name string) error {
	c, ok := r.Component(id)
	if !ok {
		return fmt.Errorf("circuit: component %d: %w", id, ErrNotFound)
	}
	if name == "" {
		return fmt.Errorf("circuit: component name is required")
	}
	if name == c.Name {
		return nil
	}
	if err := r.claimName(name, id); err != nil {
		return err
	}
	delete(r.names, c.Name)
	c.Name = name
	return nil
}

// NameTaken reports whether a live component uses name.
func (r *Registry) NameTaken(name string) bool {
	_, ok := r.names[name]
	return ok
}

// UniqueName returns prefix followed by the smallest positive number that no
// live component uses.
func (r *Registry) UniqueName(prefix string) string {
	for i := 1; ; i++ {
		name := prefix + strconv.Itoa(i)
		if !r.NameTaken(name) {
			return name
		}
	}
}

// Component returns a live component.
func (r *Registry) Component(id ComponentID) (*Component, bool) {
	c, ok := r.components[id]
	if !ok || c.deleted {
		return nil, false
	}
	return c, true
}

// ComponentByName returns the live component called name.
func (r *Registry) ComponentByName(name string) (*Component, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.Component(id)
}

// Components returns the live components ordered by id.
func (r *Registry) Components() []*Component {
	out := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		if !c.deleted {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pin resolves an endpoint to a live pin.
func (r *Registry) Pin(e Endpoint) (*Pin, error) {
	c, ok := r.Component(e.Component)
	if !ok {
		return nil, fmt.Errorf("circuit: endpoint %s: component %w", e, ErrNotFound)
	}
	if e.Pin < 0 || e.Pin >= len(c.Pins) {
		return nil, fmt.Errorf("circuit: endpoint %s: %s has no pin %d: %w", e, c.Name, e.Pin, ErrNotFound)
	}
	return c.Pins[e.Pin], nil
}

// PinByID resolves a pin id to a live pin.
func (r *Registry) PinByID(id PinID) (*Pin, bool) {
	cid, idx := id.Split()
	p, err := r.Pin(Endpoint{Component: cid, Pin: idx})
	return p, err == nil
}

// CheckConnection validates a prospective wire between two pins without
// changing anything.
func (r *Registry) CheckConnection(from, to Endpoint) error {
	a, err := r.Pin(from)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConnection, err)
	}
	b, err := r.Pin(to)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConnection, err)
	}
	if a.Component == b.Component {
		return fmt.Errorf("circuit: wire from a component to itself: %w", ErrInvalidConnection)
	}
	if a.Role == RoleOut && b.Role == RoleOut {
		return fmt.Errorf("circuit: wire joins two out pins: %w", ErrInvalidConnection)
	}
	for _, w := range r.WiresAt(from.Component) {
		if w.Joins(from, to) {
			return fmt.Errorf("circuit: pins %s and %s already wired by wire %d: %w", from, to, w.ID, ErrInvalidConnection)
		}
	}
	return nil
}

// NewWire allocates a wire between two pins after validating it. The wire is
// not part of the graph until InsertWire is called.
func (r *Registry) NewWire(from, to Endpoint) (*Wire, error) {
	if err := r.CheckConnection(from, to); err != nil {
		return nil, err
	}
	w := &Wire{ID: r.nextWire, From: from, To: to, deleted: true}
	r.nextWire++
	return w, nil
}

// NewWireWithID is NewWire with a caller-chosen id.
func (r *Registry) NewWireWithID(id WireID, from, to Endpoint) (*Wire, error) {
	if id < 1 {
		return nil, fmt.Errorf("circuit: wire id %d out of range", id)
	}
	if _, ok := r.wires[id]; ok {
		return nil, fmt.Errorf("circuit: wire id %d already allocated", id)
	}
	if err := r.CheckConnection(from, to); err != nil {
		return nil, err
	}
	if id >= r.nextWire {
		r.nextWire = id + 1
	}
	return &Wire{ID: id, From: from, To: to, deleted: true}, nil
}

// InsertWire adds a newly allocated wire and its bend points to the graph.
func (r *Registry) InsertWire(w *Wire) error {
	if _, ok := r.wires[w.ID]; ok {
		return fmt.Errorf("circuit: wire %d already registered", w.ID)
	}
	if err := r.CheckConnection(w.From, w.To); err != nil {
		return err
	}
	w.deleted = false
	r.wires[w.ID] = w
	for _, b := range w.Bends {
		r.bendOwner[b.ID] = w.ID
	}
	return nil
}

// RemoveWire tombstones a wire together with its bend points.
func (r *Registry) RemoveWire(id WireID) (*Wire, error) {
	w, ok := r.Wire(id)
	if !ok {
		return nil, fmt.Errorf("circuit: wire %d: %w", id, ErrNotFound)
	}
	w.deleted = true
	return w, nil
}

// RestoreWire brings a tombstoned wire back as the same object, with the same
// bend points. Both endpoints must be live again.
func (r *Registry) RestoreWire(w *Wire) error {
	cur, ok := r.wires[w.ID]
	if !ok || cur != w {
		return fmt.Errorf("circuit: wire %d was never registered: %w", w.ID, ErrNotFound)
	}
	if !w.deleted {
		return nil
	}
	if err := r.CheckConnection(w.From, w.To); err != nil {
		return err
	}
	w.deleted = false
	return nil
}

// Wire returns a live wire.
func (r *Registry) Wire(id WireID) (*Wire, bool) {
	w, ok := r.wires[id]
	if !ok || w.deleted {
		return nil, false
	}
	return w, true
}

// Wires returns the live wires ordered by id.
func (r *Registry) Wires() []*Wire {
	out := make([]*Wire, 0, len(r.wires))
	for _, w := range r.wires {
		if !w.deleted {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WiresAt returns the live wires touching component id, ordered by id.
func (r *Registry) WiresAt(id ComponentID) []*Wire {
	var out []*Wire
	for _, w := range r.wires {
		if !w.deleted && w.Touches(id) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WireBetween returns the live wire joining two pins, if any.
func (r *Registry) WireBetween(a, b Endpoint) (*Wire, bool) {
	for _, w := range r.WiresAt(a.Component) {
		if w.Joins(a, b) {
			return w, true
		}
	}
	return nil, false
}

// NewBend allocates a bend point.
func (r *Registry) NewBend(at Cell) *BendPoint {
	b := &BendPoint{ID: r.nextBend, At: at}
	r.nextBend++
	return b
}

// AttachBend inserts b into a live wire at position index.
func (r *Registry) AttachBend(id WireID, index int, b *BendPoint) error {
	w, ok := r.Wire(id)
	if !ok {
		return fmt.Errorf("circuit: wire %d: %w", id, ErrNotFound)
	}
	if index < 0 || index > len(w.Bends) {
		return fmt.Errorf("circuit: bend index %d out of range for wire %d", index, id)
	}
	if owner, ok := r.bendOwner[b.ID]; ok && owner != id {
		return fmt.Errorf("circuit: bend %d already belongs to wire %d", b.ID, owner)
	}
	w.Bends = append(w.Bends, nil)
	copy(w.Bends[index+1:], w.Bends[index:])
	w.Bends[index] = b
	r.bendOwner[b.ID] = id
	return nil
}

// DetachBend removes bend id from its wire and returns it with its former
// position so that it can be attached again.
func (r *Registry) DetachBend(id BendID) (WireID, int, *BendPoint, error) {
	w, index, ok := r.Bend(id)
	if !ok {
		return 0, 0, nil, fmt.Errorf("circuit: bend %d: %w", id, ErrNotFound)
	}
	b := w.Bends[index]
	w.Bends = append(w.Bends[:index], w.Bends[index+1:]...)
	delete(r.bendOwner, id)
	return w.ID, index, b, nil
}

// Bend finds the live wire owning bend id and the bend's position on it.
func (r *Registry) Bend(id BendID) (*Wire, int, bool) {
	wid, ok := r.bendOwner[id]
	if !ok {
		return nil, 0, false
	}
	w, ok := r.Wire(wid)
	if !ok {
		return nil, 0, false
	}
	i := w.BendIndex(id)
	if i < 0 {
		return nil, 0, false
	}
	return w, i, true
}

// SetOrientation turns c to o and re-derives its pin offsets in place.
func (c *Component) SetOrientation(o Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("circuit: orientation %d: %w", o, ErrInvalidOrientation)
	}
	c.Orientation = o
	c.layoutPins()
	return nil
}
