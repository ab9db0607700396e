package sim

import (
	"context"
	"sync"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/netlist"
)

// SimulateHook lets tests supply results for a netlist.
type SimulateHook func(nl *netlist.Netlist) (Voltages, error)

// Fake is an in-memory Simulator for tests and dry runs. It records every
// netlist it receives. Without OnSimulate it returns Fixed, or zero volts on
// every node when Fixed is nil.
type Fake struct {
	Fixed      Voltages
	OnSimulate SimulateHook

	mu    sync.Mutex
	calls []*netlist.Netlist
}

// NewFake constructs a fake returning fixed.
func NewFake(fixed Voltages) *Fake {
	return &Fake{Fixed: fixed}
}

func (f *Fake) Simulate(ctx context.Context, nl *netlist.Netlist) (Voltages, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, nl)
	f.mu.Unlock()

	if f.OnSimulate != nil {
		return f.OnSimulate(nl)
	}
	out := make(Voltages, len(nl.Nodes))
	for _, id := range nl.Nodes {
		out[id] = f.Fixed[id]
	}
	return out, nil
}

// Calls reports how many times Simulate was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Last returns the most recent netlist passed to Simulate.
func (f *Fake) Last() *netlist.Netlist {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}
