// Package netlist turns resolved electrical nodes and component models into
// a backend-neutral netlist and validates it.
//
// # Overview
//
// Synthesize is a pure computation over a component list and a
// connectivity.Result:
//
//	res := connectivity.Resolve(reg.Components(), reg.Wires())
//	nl := netlist.Synthesize(reg.Components(), res)
//	if !nl.Valid() {
//		for _, is := range nl.Errors() {
//			fmt.Println(is)
//		}
//	}
//
// Each component emits at most one two-terminal entry:
//   - Resistor: R entry, value parsed from its value text (ohms)
//   - VoltageSource: V entry, positive terminal first (volts)
//   - Switch: R entry of ClosedSwitchOhms or OpenSwitchOhms by stored state
//   - LED: D marker recording its anode and cathode nodes and threshold
//   - Ground: nothing; it only defines the reference rail
//
// # Validation
//
// Validation never stops at the first problem. All findings are collected
// as Issues:
//   - missing ground, missing power source
//   - a pin on a singleton (floating) node
//   - unparseable or non-positive values
//   - short circuits: voltage sources whose demanded potentials conflict once
//     nodes joined through closed switches are merged
//
// Any error makes the netlist invalid, and the simulator must not be called.
//
// # Export Formats
//
//   - SPICE deck (ExportSPICE)
//   - KiCad netlist s-expression (ExportKiCad)
//   - JSON with issues (ExportJSON)
package netlist
