package circuit

import (
	"fmt"
	"sync"
)

// Model describes the geometry and electrical shape shared by every
// component of one kind.
type Model struct {
	Kind   Kind
	Width  int    // footprint width in cells at orientation 0
	Height int    // footprint height in cells at orientation 0
	Roles  []Role // pin roles, by pin index
	Pins   []string
	// Default value text used when a component carries none.
	Default string
	// NamePrefix seeds generated names, e.g. "R" for R1, R2, ...
	NamePrefix string
	// Numeric is false for kinds whose value text is not a number.
	Numeric bool
	// Unit is the symbol a value may carry, "Ω" or "V".
	Unit string
}

// Catalog knows how to look up the model for a component kind.
type Catalog interface {
	Lookup(kind Kind) (*Model, error)
}

// MemoryCatalog is an in-memory Catalog. The zero value is empty; use
// NewMemoryCatalog or DefaultCatalog.
type MemoryCatalog struct {
	mu     sync.RWMutex
	models map[Kind]*Model
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{models: make(map[Kind]*Model)}
}

// Add registers m under its kind, replacing any previous model.
func (c *MemoryCatalog) Add(m *Model) error {
	if m == nil {
		return fmt.Errorf("circuit: nil model")
	}
	if m.Width < 1 || m.Height < 1 {
		return fmt.Errorf("circuit: model %s has empty footprint", m.Kind)
	}
	if len(m.Roles) == 0 || len(m.Roles) > MaxPins || len(m.Roles) != len(m.Pins) {
		return fmt.Errorf("circuit: model %s has invalid pin table", m.Kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models == nil {
		c.models = make(map[Kind]*Model)
	}
	c.models[m.Kind] = m
	return nil
}

// Lookup implements the Catalog interface.
func (c *MemoryCatalog) Lookup(kind Kind) (*Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.models[kind]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("circuit: no model for kind %s", kind)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *MemoryCatalog
)

// DefaultCatalog returns the built-in models for the five supported kinds.
func DefaultCatalog() *MemoryCatalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewMemoryCatalog()
		for _, m := range []*Model{
			{Kind: Resistor, Width: 3, Height: 1, Roles: []Role{RoleIn, RoleOut}, Pins: []string{"in", "out"}, Default: "1k", NamePrefix: "R", Numeric: true, Unit: "Ω"},
			{Kind: VoltageSource, Width: 1, Height: 3, Roles: []Role{RoleOut, RoleIn}, Pins: []string{"pos", "neg"}, Default: "5V", NamePrefix: "V", Numeric: true, Unit: "V"},
			{Kind: LED, Width: 2, Height: 1, Roles: []Role{RoleIn, RoleOut}, Pins: []string{"anode", "cathode"}, Default: "2V", NamePrefix: "D", Numeric: true, Unit: "V"},
			{Kind: Switch, Width: 2, Height: 1, Roles: []Role{RoleIn, RoleOut}, Pins: []string{"in", "out"}, NamePrefix: "S"},
			{Kind: Ground, Width: 1, Height: 1, Roles: []Role{RoleGround}, Pins: []string{"gnd"}, NamePrefix: "GND"},
		} {
			if err := defaultCatalog.Add(m); err != nil {
				panic(err)
			}
		}
	})
	return defaultCatalog
}

// Size returns the footprint width and height at orientation o.
func (m *Model) Size(o Orientation) (w, h int) {
	w, h = m.Width, m.Height
	if o == 90 || o == 270 {
		w, h = h, w
	}
	return w, h
}

// PinIndex resolves a pin reference by index string, pin name or role name.
func (m *Model) PinIndex(ref string) (int, bool) {
	for i, name := range m.Pins {
		if name == ref || m.Roles[i].String() == ref {
			return i, true
		}
	}
	if len(ref) == 1 && ref[0] >= '0' && ref[0] <= '9' {
		i := int(ref[0] - '0')
		if i < len(m.Roles) {
			return i, true
		}
	}
	return 0, false
}
