package netlist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/units"
)

// NodeName returns the SPICE-style name of a node: "0" for the ground rail,
// "n<id>" otherwise.
func (nl *Netlist) NodeName(id connectivity.NodeID) string {
	if nl.HasGround && id == nl.Ground {
		return "0"
	}
	return "n" + strconv.Itoa(int(id))
}

// ExportSPICE renders the netlist as a SPICE deck. LEDs become diodes using a
// shared LED model.
func (nl *Netlist) ExportSPICE() string {
	var b strings.Builder
	b.WriteString("* SPICE netlist generated by OpenTraceCircuit\n\n")
	hasLED := false
	for _, e := range nl.Entries {
		name := e.Name
		if !strings.HasPrefix(strings.ToUpper(name), string(e.Element)) {
			name = string(e.Element) + name
		}
		a, k := nl.NodeName(e.Nodes[0]), nl.NodeName(e.Nodes[1])
		switch e.Element {
		case ElementLED:
			hasLED = true
			fmt.Fprintf(&b, "%s %s %s LED\n", name, a, k)
		case ElementSource:
			fmt.Fprintf(&b, "%s %s %s DC %s\n", name, a, k, units.Format(e.Value))
		default:
			fmt.Fprintf(&b, "%s %s %s %s\n", name, a, k, units.Format(e.Value))
		}
	}
	if hasLED {
		b.WriteString(".model LED D(IS=1e-20 N=1.8)\n")
	}
	b.WriteString("\n.end\n")
	return b.String()
}

// ExportKiCad renders the connectivity in KiCad's netlist s-expression format.
// The document is built as a tree and printed, so component names are quoted
// rather than interpreted.
func (nl *Netlist) ExportKiCad(components []*circuit.Component, res *connectivity.Result) (string, error) {
	byID := make(map[circuit.ComponentID]*circuit.Component, len(components))
	for _, c := range components {
		byID[c.ID] = c
	}

	comps := list("components")
	for _, c := range components {
		comps.List = append(comps.List, list("comp",
			list("ref", sym(c.Name)),
			list("value", sym(valueText(c)))))
	}
	nets := list("nets")
	for _, id := range res.Nodes() {
		net := list("net",
			list("code", sym(strconv.Itoa(int(id)))),
			list("name", sym(nl.NodeName(id))))
		for _, p := range res.NodeToPins[id] {
			cid, idx := p.Split()
			c, ok := byID[cid]
			if !ok {
				continue
			}
			net.List = append(net.List, list("node",
				list("ref", sym(c.Name)),
				list("pin", sym(strconv.Itoa(idx+1)))))
		}
		nets.List = append(nets.List, net)
	}
	doc := list("export",
		list("version", sym("D")),
		list("design", list("source", quoted("OpenTraceCircuit"))),
		comps,
		nets)

	// Check the nesting on a copy with every atom replaced by a bare symbol;
	// quoted atoms never reach the parser.
	var shape strings.Builder
	doc.writeShape(&shape)
	parsed, err := sexp.ParseString(shape.String())
	if err != nil {
		return "", fmt.Errorf("netlist: kicad export is not a valid s-expression: %w", err)
	}
	if len(parsed) != 1 || parsed[0].IsLeaf() {
		return "", fmt.Errorf("netlist: kicad export must be a single list, got %d expressions", len(parsed))
	}

	var b strings.Builder
	doc.write(&b, 0)
	b.WriteByte('\n')
	return b.String(), nil
}

// sx is one s-expression: an atom when List is nil, a list otherwise.
// Lists are written with their head as the first atom.
type sx struct {
	Atom string
	List []sx
}

func sym(s string) sx { return sx{Atom: atom(s)} }

func quoted(s string) sx { return sx{Atom: strconv.Quote(s)} }

func list(head string, items ...sx) sx {
	return sx{List: append([]sx{{Atom: head}}, items...)}
}

func (e sx) isList() bool { return e.List != nil }

func (e sx) depth() int {
	if !e.isList() {
		return 0
	}
	d := 0
	for _, c := range e.List {
		d = max(d, c.depth())
	}
	return d + 1
}

// write prints lists of depth two or less on one line. Deeper lists keep
// their leading flat children on the opening line and put the rest on
// indented lines of their own.
func (e sx) write(b *strings.Builder, indent int) {
	if !e.isList() {
		b.WriteString(e.Atom)
		return
	}
	if e.depth() <= 2 {
		b.WriteByte('(')
		for i, c := range e.List {
			if i > 0 {
				b.WriteByte(' ')
			}
			c.write(b, indent)
		}
		b.WriteByte(')')
		return
	}
	b.WriteByte('(')
	i := 0
	for ; i < len(e.List) && e.List[i].depth() <= 1; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		e.List[i].write(b, indent)
	}
	pad := strings.Repeat("  ", indent+1)
	for ; i < len(e.List); i++ {
		b.WriteByte('\n')
		b.WriteString(pad)
		e.List[i].write(b, indent+1)
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteByte(')')
}

func (e sx) writeShape(b *strings.Builder) {
	if !e.isList() {
		b.WriteString("a ")
		return
	}
	b.WriteByte('(')
	for _, c := range e.List {
		c.writeShape(b)
	}
	b.WriteString(") ")
}

func valueText(c *circuit.Component) string {
	switch c.Kind {
	case circuit.Switch:
		if c.Closed {
			return "closed"
		}
		return "open"
	case circuit.Ground:
		return "GND"
	}
	if c.Value == "" {
		return c.Model().Default
	}
	return c.Value
}

// atom quotes s unless it is a bare ASCII s-expression symbol.
func atom(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n()\"';") {
		return strconv.Quote(s)
	}
	for _, r := range s {
		if r > 0x7e {
			return strconv.QuoteToASCII(s)
		}
	}
	return s
}

// ExportJSON exports the netlist with its issues.
func (nl *Netlist) ExportJSON() ([]byte, error) {
	output := struct {
		Version     string `json:"version"`
		Valid       bool   `json:"valid"`
		NodeCount   int    `json:"node_count"`
		GeneratedBy string `json:"generated_by"`
		*Netlist
	}{
		Version:     "1.0",
		Valid:       nl.Valid(),
		NodeCount:   len(nl.Nodes),
		GeneratedBy: "OpenTraceCircuit",
		Netlist:     nl,
	}
	return json.MarshalIndent(output, "", "  ")
}
