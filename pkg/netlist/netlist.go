package netlist

import (
	"errors"
	"sort"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/units"
)

// Switch resistances standing in for an ideal switch.
const (
	ClosedSwitchOhms = 1e-3
	OpenSwitchOhms   = 1e9
)

// Element is the netlist element letter an entry is emitted as.
type Element string

const (
	ElementResistor Element = "R"
	ElementSource   Element = "V"
	ElementLED      Element = "D"
)

// Entry is one two-terminal element of the netlist.
type Entry struct {
	Name      string                 `json:"name"`
	Component circuit.ComponentID    `json:"component"`
	Kind      circuit.Kind           `json:"kind"`
	Element   Element                `json:"element"`
	Nodes     [2]connectivity.NodeID `json:"nodes"` // for sources: positive first
	// Value is ohms for resistors and switches, volts for sources and the
	// forward threshold for LEDs.
	Value float64 `json:"value"`
}

// Netlist is the backend-neutral description handed to a simulator.
type Netlist struct {
	Entries   []Entry               `json:"entries"`
	Nodes     []connectivity.NodeID `json:"nodes"`
	Ground    connectivity.NodeID   `json:"ground"`
	HasGround bool                  `json:"has_ground"`
	Issues    []Issue               `json:"issues"`
}

// Synthesize turns resolved connectivity and component models into a
// netlist, collecting every validation issue along the way. It is a pure
// function of its inputs and never blocks.
func Synthesize(components []*circuit.Component, res *connectivity.Result) *Netlist {
	comps := append([]*circuit.Component(nil), components...)
	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })

	nl := &Netlist{
		Nodes:     res.Nodes(),
		Ground:    res.Ground,
		HasGround: res.HasGround,
	}
	var v validator
	v.ground(res, comps)

	hasSource := false
	for _, c := range comps {
		if c.Kind == circuit.Ground {
			continue
		}
		if c.Kind == circuit.VoltageSource {
			hasSource = true
		}

		var nodes [2]connectivity.NodeID
		for i, p := range c.Pins {
			n, ok := res.PinToNode[p.ID]
			if !ok || res.Singleton(n) {
				v.add(Error, CodeFloatingPin, c.Name, "component %q has floating pin %q", c.Name, p.Name)
			}
			if i < len(nodes) {
				nodes[i] = n
			}
		}

		entry := Entry{Name: c.Name, Component: c.ID, Kind: c.Kind, Nodes: nodes}
		switch c.Kind {
		case circuit.Switch:
			entry.Element = ElementResistor
			entry.Value = OpenSwitchOhms
			if c.Closed {
				entry.Value = ClosedSwitchOhms
			}
		case circuit.Resistor, circuit.VoltageSource, circuit.LED:
			value, ok := v.value(c)
			if !ok {
				continue
			}
			entry.Value = value
			entry.Element = map[circuit.Kind]Element{
				circuit.Resistor:      ElementResistor,
				circuit.VoltageSource: ElementSource,
				circuit.LED:           ElementLED,
			}[c.Kind]
		default:
			continue
		}
		nl.Entries = append(nl.Entries, entry)
	}

	if !res.HasGround {
		v.add(Error, CodeMissingGround, "", "no ground component in circuit")
	}
	if !hasSource {
		v.add(Error, CodeMissingSource, "", "no power source in circuit")
	}
	for _, id := range res.Dangling {
		v.add(Warning, CodeDanglingWire, "", "wire %d references a missing pin", id)
	}
	v.shorts(nl.Entries)

	nl.Issues = v.issues
	return nl
}

// value parses the component's stored value text. Registry components start
// with the model default, so an empty value only comes from a component whose
// value was cleared by hand; it falls back to the default with a warning. A
// unit symbol that does not belong to the kind is warned about and ignored.
func (v *validator) value(c *circuit.Component) (float64, bool) {
	m := c.Model()
	text := c.Value
	if text == "" {
		text = m.Default
		v.add(Warning, CodeDefaultValue, c.Name, "component %q has no value, using %s", c.Name, text)
	}
	n, unit, err := units.ParseUnit(text)
	if err != nil {
		var perr *units.ValueParseError
		msg := err.Error()
		if errors.As(err, &perr) {
			msg = perr.Err.Error()
		}
		v.add(Error, CodeValueParse, c.Name, "component %q has invalid value %q: %s", c.Name, text, msg)
		return 0, false
	}
	if unit != "" && unit != m.Unit {
		v.add(Warning, CodeUnitMismatch, c.Name, "component %q value %q has unit %s, want %s", c.Name, text, unit, m.Unit)
	}
	if (c.Kind == circuit.Resistor || c.Kind == circuit.LED) && n <= 0 {
		v.add(Error, CodeInvalidValue, c.Name, "component %q value %q must be positive", c.Name, text)
		return 0, false
	}
	return n, true
}

// Valid reports whether the netlist carries no errors. A simulator must not
// be invoked on an invalid netlist.
func (nl *Netlist) Valid() bool {
	for _, is := range nl.Issues {
		if is.Severity == Error {
			return false
		}
	}
	return true
}

// Errors returns the error issues in report order.
func (nl *Netlist) Errors() []Issue { return nl.filter(Error) }

// Warnings returns the warning issues in report order.
func (nl *Netlist) Warnings() []Issue { return nl.filter(Warning) }

func (nl *Netlist) filter(s Severity) []Issue {
	var out []Issue
	for _, is := range nl.Issues {
		if is.Severity == s {
			out = append(out, is)
		}
	}
	return out
}

// HasIssue reports whether an issue with code was raised.
func (nl *Netlist) HasIssue(code Code) bool {
	for _, is := range nl.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// Entry returns the entry emitted for the named component.
func (nl *Netlist) Entry(name string) (Entry, bool) {
	for _, e := range nl.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
