// Package sim is the boundary to an external circuit solver. The solver
// itself lives outside this module; it receives a synthesized netlist and
// returns one voltage per node.
package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
)

// ErrInvalidNetlist is returned by Run when the netlist carries errors. The
// simulator is never called in that case.
var ErrInvalidNetlist = errors.New("sim: netlist is invalid")

// Simulator solves a netlist. Implementations may block and should honour
// ctx cancellation.
type Simulator interface {
	Simulate(ctx context.Context, nl *netlist.Netlist) (Voltages, error)
}

// Voltages maps node ids to volts.
type Voltages map[connectivity.NodeID]float64

// Across returns the voltage from the entry's first terminal to its second.
func (v Voltages) Across(e netlist.Entry) float64 {
	return v[e.Nodes[0]] - v[e.Nodes[1]]
}

// LEDLit reports whether e is an LED whose forward voltage reaches its
// threshold.
func (v Voltages) LEDLit(e netlist.Entry) bool {
	return e.Element == netlist.ElementLED && v.Across(e) >= e.Value
}

// Run hands nl to s after checking that it is valid and that ctx is still
// live. The ground node is pinned to zero volts in the result.
func Run(ctx context.Context, s Simulator, nl *netlist.Netlist) (Voltages, error) {
	if !nl.Valid() {
		msgs := make([]string, 0, len(nl.Issues))
		for _, is := range nl.Errors() {
			msgs = append(msgs, is.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidNetlist, strings.Join(msgs, "; "))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	v, err := s.Simulate(ctx, nl)
	if err != nil {
		return nil, fmt.Errorf("sim: simulate: %w", err)
	}
	if v == nil {
		v = make(Voltages)
	}
	if nl.HasGround {
		v[nl.Ground] = 0
	}
	return v, nil
}
